package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/chatprune/pkg/async"
)

// Multi dispatches every job to all dispatchers concurrently
type Multi struct {
	logger      logrus.FieldLogger
	dispatchers []Dispatcher
	timeout     time.Duration
}

// NewMulti creates a fan-out dispatcher
func NewMulti(logger logrus.FieldLogger, timeout time.Duration, dispatchers ...Dispatcher) *Multi {
	return &Multi{logger: logger, dispatchers: dispatchers, timeout: timeout}
}

// Dispatch returns the joined errors of the failed dispatchers
func (m *Multi) Dispatch(ctx context.Context, job *KickUsersJob) error {
	errs := async.Batch(ctx, m.logger, m.dispatchers, len(m.dispatchers), "dispatch kick job", m.timeout,
		func(ctx context.Context, d Dispatcher) error {
			return d.Dispatch(ctx, job)
		})
	return errors.Join(errs...)
}

// Close closes every dispatcher
func (m *Multi) Close() error {
	var errs []error
	for _, d := range m.dispatchers {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
