package autoremove

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/platinummonkey/chatprune/pkg/chat"
	"github.com/platinummonkey/chatprune/pkg/jobs"
	"github.com/platinummonkey/chatprune/pkg/observability"
	"github.com/platinummonkey/chatprune/pkg/storage"
)

const tracerName = "github.com/platinummonkey/chatprune/pkg/autoremove"

// Result describes one handler invocation
type Result struct {
	Event Event
	// UsersRemoved maps channel id to the evicted user ids, ascending
	UsersRemoved chat.RemovalMap
	// Skipped is the reason a handler took a no-op fast path
	Skipped string
	// KickJobsFailed counts kick jobs that could not be dispatched
	KickJobsFailed int
}

// Count returns the number of memberships removed
func (r *Result) Count() int {
	return r.UsersRemoved.Count()
}

// NoOp reports whether nothing was removed
func (r *Result) NoOp() bool {
	return r.UsersRemoved.IsEmpty()
}

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	Logger    logrus.FieldLogger
	Metrics   *observability.Metrics
	Tracer    trace.Tracer
	KickDelay time.Duration
}

// Engine runs the membership reconciliation handlers
type Engine struct {
	store     storage.Store
	validate  *validator.Validate
	publisher *publisher
	logger    logrus.FieldLogger
	metrics   *observability.Metrics
	tracer    trace.Tracer
}

// New creates an engine over store. Kick jobs go to dispatcher; a nil
// dispatcher disables them.
func New(store storage.Store, dispatcher jobs.Dispatcher, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = observability.NewMetrics(nil)
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer(tracerName)
	}

	logger := opts.Logger.WithField("component", "autoremove")
	return &Engine{
		store:    store,
		validate: chat.NewValidator(),
		publisher: &publisher{
			dispatcher: dispatcher,
			kickDelay:  opts.KickDelay,
			logger:     logger,
			metrics:    opts.Metrics,
		},
		logger:  logger,
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
	}
}

// invoke runs one handler: contract check, chat policy, the steps and the
// eviction in one transaction, then kick jobs after commit.
func invoke[S state](ctx context.Context, e *Engine, event Event, site chat.SiteSettings, input any, initial S, steps []step[S]) (result *Result, err error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "autoremove."+string(event),
		trace.WithAttributes(attribute.String("autoremove.event", string(event))))
	defer span.End()

	logger := observability.FromContext(ctx, e.logger).WithField("event", event)

	defer func() {
		outcome := outcomeOf(result, err)
		removed := 0
		if result != nil {
			removed = result.Count()
			span.SetAttributes(attribute.Int("autoremove.users_removed", removed))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		e.metrics.ObserveInvocation(string(event), outcome, removed, time.Since(start))
	}()

	if err := e.validate.Struct(input); err != nil {
		logger.WithError(err).Warn("Rejected invalid trigger input")
		return nil, &ContractError{Event: event, Err: err}
	}

	result = &Result{Event: event, UsersRemoved: chat.RemovalMap{}}

	if !site.ChatEnabled {
		result.Skipped = "chat disabled"
		logger.Debug("Chat is disabled, nothing to reconcile")
		return result, nil
	}

	err = e.store.WithTx(ctx, func(ctx context.Context, tx storage.Tx) error {
		final, reason, err := runSteps(ctx, env{tx: tx, site: site, logger: logger}, initial, steps)
		if err != nil {
			return err
		}
		result.Skipped = reason

		planned := final.planned()
		if planned.IsEmpty() {
			return nil
		}

		removed, err := e.publisher.evict(ctx, tx, event, planned)
		if err != nil {
			return err
		}
		result.UsersRemoved = removed
		return nil
	})
	if err != nil {
		var notFound *ModelNotFoundError
		if errors.As(err, &notFound) {
			logger.WithError(err).Info("Trigger references a missing model")
		} else {
			logger.WithError(err).Error("Membership reconciliation failed")
		}
		return nil, err
	}

	if result.NoOp() {
		logger.WithField("skipped", result.Skipped).Debug("No memberships to remove")
		return result, nil
	}

	result.KickJobsFailed = e.publisher.notify(ctx, event, result.UsersRemoved)

	logger.WithFields(logrus.Fields{
		"channels":      len(result.UsersRemoved.ChannelIDs()),
		"users_removed": result.Count(),
	}).Info("Removed chat channel memberships")

	return result, nil
}

func outcomeOf(result *Result, err error) string {
	var contract *ContractError
	switch {
	case errors.As(err, &contract):
		return observability.OutcomeInvalid
	case errors.Is(err, ErrModelNotFound):
		return observability.OutcomeNotFound
	case err != nil:
		return observability.OutcomeError
	case result == nil || result.NoOp():
		return observability.OutcomeNoop
	default:
		return observability.OutcomeRemoved
	}
}
