package httputil

import (
	"encoding/json"
	"net/http"
)

// DecodeJSON decodes the request body into dest, rejecting unknown fields.
// On failure it has already written a 400 and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
