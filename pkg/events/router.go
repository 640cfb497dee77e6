package events

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/chatprune/pkg/autoremove"
	"github.com/platinummonkey/chatprune/pkg/chat"
	"github.com/platinummonkey/chatprune/pkg/observability"
	"github.com/platinummonkey/chatprune/pkg/settings"
)

// Trigger handling statuses
const (
	StatusHandled = "handled"
	StatusDropped = "dropped"
	StatusFailed  = "failed"
)

// Handler runs reconciliations. *autoremove.Engine implements it.
type Handler interface {
	HandleCategoryUpdated(ctx context.Context, site chat.SiteSettings, in autoremove.CategoryUpdatedInput) (*autoremove.Result, error)
	HandleDestroyedGroup(ctx context.Context, site chat.SiteSettings, in autoremove.DestroyedGroupInput) (*autoremove.Result, error)
	HandleUserRemovedFromGroup(ctx context.Context, site chat.SiteSettings, in autoremove.UserRemovedFromGroupInput) (*autoremove.Result, error)
	HandleChatAllowedGroupsChanged(ctx context.Context, site chat.SiteSettings, in autoremove.AllowedGroupsChangedInput) (*autoremove.Result, error)
	HandleOutsideChatAllowedGroups(ctx context.Context, site chat.SiteSettings, in autoremove.AllowedGroupsChangedInput) (*autoremove.Result, error)
}

// invalidator is implemented by cached settings providers
type invalidator interface {
	Invalidate()
}

// Router dispatches triggers to the engine
type Router struct {
	handler  Handler
	settings settings.Provider
	logger   logrus.FieldLogger
	metrics  *observability.Metrics
}

// NewRouter creates a router. metrics may be nil.
func NewRouter(handler Handler, provider settings.Provider, logger logrus.FieldLogger, metrics *observability.Metrics) *Router {
	if metrics == nil {
		metrics = observability.NewMetrics(nil)
	}
	return &Router{
		handler:  handler,
		settings: provider,
		logger:   logger,
		metrics:  metrics,
	}
}

// Route fetches site settings and runs the handler for t
func (r *Router) Route(ctx context.Context, t *Trigger) (result *autoremove.Result, err error) {
	ctx = observability.WithTriggerID(ctx, t.ID)
	defer func() {
		r.metrics.TriggerEventsTotal.WithLabelValues(string(t.Type), statusOf(err)).Inc()
	}()

	// the setting just changed; a cached copy would be stale
	site, err := r.loadSettings(ctx, t.ChangesAllowedGroups())
	if err != nil {
		return nil, err
	}

	switch t.Type {
	case autoremove.EventCategoryUpdated:
		return r.handler.HandleCategoryUpdated(ctx, site, autoremove.CategoryUpdatedInput{CategoryID: t.CategoryID})
	case autoremove.EventDestroyedGroup:
		return r.handler.HandleDestroyedGroup(ctx, site, autoremove.DestroyedGroupInput{DestroyedGroupUserIDs: t.UserIDs})
	case autoremove.EventUserRemovedFromGroup:
		return r.handler.HandleUserRemovedFromGroup(ctx, site, autoremove.UserRemovedFromGroupInput{UserID: t.UserID})
	case autoremove.EventChatAllowedGroupsChanged:
		return r.handler.HandleChatAllowedGroupsChanged(ctx, site, allowedGroups(t))
	case autoremove.EventOutsideChatAllowedGroups:
		return r.handler.HandleOutsideChatAllowedGroups(ctx, site, allowedGroups(t))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTrigger, t.Type)
	}
}

// Sweep re-applies the current chat_allowed_groups to every non-DM channel,
// catching changes whose trigger was lost. The setting is read past the
// cache so members of newly allowed groups are never evicted.
func (r *Router) Sweep(ctx context.Context) (result *autoremove.Result, err error) {
	t := NewTrigger(autoremove.EventChatAllowedGroupsChanged)
	ctx = observability.WithTriggerID(ctx, t.ID)
	defer func() {
		r.metrics.TriggerEventsTotal.WithLabelValues(string(t.Type), statusOf(err)).Inc()
	}()

	site, err := r.loadSettings(ctx, true)
	if err != nil {
		return nil, err
	}

	t.NewAllowedGroups = site.ChatAllowedGroups.String()
	return r.handler.HandleChatAllowedGroupsChanged(ctx, site, allowedGroups(t))
}

func (r *Router) loadSettings(ctx context.Context, fresh bool) (chat.SiteSettings, error) {
	if fresh {
		if inv, ok := r.settings.(invalidator); ok {
			inv.Invalidate()
		}
	}

	site, err := r.settings.Get(ctx)
	if err != nil {
		return chat.SiteSettings{}, fmt.Errorf("failed to load site settings: %w", err)
	}
	return site, nil
}

func allowedGroups(t *Trigger) autoremove.AllowedGroupsChangedInput {
	return autoremove.AllowedGroupsChangedInput{
		OldAllowedGroups: t.OldAllowedGroups,
		NewAllowedGroups: t.NewAllowedGroups,
	}
}

// retryable reports whether running the trigger again could succeed
func retryable(err error) bool {
	var contract *autoremove.ContractError
	switch {
	case errors.As(err, &contract),
		errors.Is(err, autoremove.ErrModelNotFound),
		errors.Is(err, ErrUnknownTrigger),
		errors.Is(err, context.Canceled):
		return false
	default:
		return true
	}
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return StatusHandled
	case retryable(err):
		return StatusFailed
	default:
		return StatusDropped
	}
}
