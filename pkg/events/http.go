package events

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/platinummonkey/chatprune/pkg/autoremove"
	"github.com/platinummonkey/chatprune/pkg/httputil"
)

// TriggerResponse is the body of a handled trigger
type TriggerResponse struct {
	ID             string            `json:"id"`
	Event          autoremove.Event  `json:"event"`
	UsersRemoved   map[int64][]int64 `json:"users_removed"`
	Count          int               `json:"count"`
	Skipped        string            `json:"skipped,omitempty"`
	KickJobsFailed int               `json:"kick_jobs_failed,omitempty"`
}

// RegisterRoutes mounts POST /v1/triggers, which routes one trigger
// synchronously and returns the removals
func (r *Router) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/v1/triggers", r.handleTrigger).Methods(http.MethodPost)
}

func (r *Router) handleTrigger(w http.ResponseWriter, req *http.Request) {
	var t Trigger
	if !httputil.DecodeJSON(w, req, &t) {
		return
	}
	if t.Type == "" {
		httputil.WriteError(w, http.StatusBadRequest, "trigger type is required")
		return
	}
	if t.ID == "" {
		t.ID = NewTrigger(t.Type).ID
	}

	result, err := r.Route(req.Context(), &t)
	if err != nil {
		writeRouteError(w, err)
		return
	}

	_ = httputil.WriteJSON(w, http.StatusOK, TriggerResponse{
		ID:             t.ID,
		Event:          result.Event,
		UsersRemoved:   result.UsersRemoved,
		Count:          result.Count(),
		Skipped:        result.Skipped,
		KickJobsFailed: result.KickJobsFailed,
	})
}

func writeRouteError(w http.ResponseWriter, err error) {
	var contract *autoremove.ContractError
	switch {
	case errors.As(err, &contract):
		httputil.WriteError(w, http.StatusUnprocessableEntity, contract.Error(), contract.Fields()...)
	case errors.Is(err, autoremove.ErrModelNotFound):
		httputil.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnknownTrigger):
		httputil.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
