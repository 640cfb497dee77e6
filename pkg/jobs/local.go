package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/chatprune/pkg/async"
)

// LocalDispatcher runs kick jobs in-process on a worker pool. A job waits
// for its RunAt on a timer outside the pool, so the per-job timeout only
// bounds the handler and Dispatch never blocks.
type LocalDispatcher struct {
	pool    *async.WorkerPool
	handler Handler
	logger  logrus.FieldLogger

	mu      sync.Mutex
	closed  bool
	pending map[*time.Timer]*KickUsersJob
	wg      sync.WaitGroup
}

// NewLocalDispatcher starts workers that pass each job to handler
func NewLocalDispatcher(ctx context.Context, logger logrus.FieldLogger, workers int, timeout time.Duration, handler Handler) *LocalDispatcher {
	return &LocalDispatcher{
		pool:    async.NewWorkerPool(ctx, logger, workers, "kick users", timeout),
		handler: handler,
		logger:  logger.WithField("dispatcher", "local"),
		pending: make(map[*time.Timer]*KickUsersJob),
	}
}

// LogHandler returns a Handler that only logs jobs
func LogHandler(logger logrus.FieldLogger) Handler {
	return func(ctx context.Context, job *KickUsersJob) error {
		logger.WithFields(logrus.Fields{
			"job_id":     job.ID,
			"channel_id": job.ChannelID,
			"user_ids":   job.UserIDs,
			"event":      job.Event,
		}).Info("Kick users from channel")
		return nil
	}
}

// Dispatch schedules the job for its RunAt
func (d *LocalDispatcher) Dispatch(ctx context.Context, job *KickUsersJob) error {
	if err := job.Validate(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return async.ErrPoolShutdown
	}

	d.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(time.Until(job.RunAt), func() {
		d.mu.Lock()
		delete(d.pending, timer)
		d.mu.Unlock()
		d.submit(job)
	})
	d.pending[timer] = job
	return nil
}

func (d *LocalDispatcher) submit(job *KickUsersJob) {
	defer d.wg.Done()

	logger := d.logger.WithFields(logrus.Fields{
		"job_id":     job.ID,
		"channel_id": job.ChannelID,
	})
	err := d.pool.Submit(func(ctx context.Context) error {
		if err := d.handler(ctx, job); err != nil {
			logger.WithError(err).Warn("Kick job failed")
		}
		return nil
	})
	if err != nil {
		logger.WithError(err).Warn("Failed to queue kick job")
	}
}

// Close runs jobs still waiting on their delay right away, then drains the
// pool. Dispatch fails afterwards.
func (d *LocalDispatcher) Close() error {
	d.mu.Lock()
	d.closed = true
	for timer, job := range d.pending {
		if timer.Stop() {
			delete(d.pending, timer)
			go d.submit(job)
		}
	}
	d.mu.Unlock()

	d.wg.Wait()
	return d.pool.Shutdown(30 * time.Second)
}
