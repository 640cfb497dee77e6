package autoremove

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/chatprune/pkg/chat"
	"github.com/platinummonkey/chatprune/pkg/storage"
)

// env is what every step may read besides its own state
type env struct {
	tx     storage.Tx
	site   chat.SiteSettings
	logger logrus.FieldLogger
}

// step advances a handler's state. Returning skip(reason) ends the pipeline
// successfully; any other error aborts the transaction.
type step[S any] func(ctx context.Context, e env, s S) (S, error)

// state is implemented by every handler state through an embedded plan
type state interface {
	planned() chat.RemovalMap
}

// plan accumulates the removal set of one invocation
type plan struct {
	removals chat.RemovalMap
}

func (p plan) planned() chat.RemovalMap {
	if p.removals == nil {
		return chat.RemovalMap{}
	}
	return p.removals
}

// with returns a plan holding p's removals plus more
func (p plan) with(more chat.RemovalMap) plan {
	merged := chat.RemovalMap{}
	merged.Merge(p.removals)
	merged.Merge(more)
	return plan{removals: merged.Normalize()}
}

type skipError struct {
	reason string
}

func (e *skipError) Error() string {
	return "skipped: " + e.reason
}

func skip(reason string) error {
	return &skipError{reason: reason}
}

// runSteps threads s through steps in order. It reports the skip reason
// when a step ended the pipeline early.
func runSteps[S state](ctx context.Context, e env, s S, steps []step[S]) (S, string, error) {
	for _, st := range steps {
		next, err := st(ctx, e, s)
		if err != nil {
			var se *skipError
			if errors.As(err, &se) {
				return s, se.reason, nil
			}
			return s, "", err
		}
		s = next
	}
	return s, "", nil
}
