package async

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrPoolShutdown is returned by Submit after Shutdown
var ErrPoolShutdown = errors.New("worker pool shut down")

// SafeGo executes fn in a goroutine with a timeout derived from parentCtx.
// Panics and errors are logged with the task name.
func SafeGo(parentCtx context.Context, logger logrus.FieldLogger, timeout time.Duration, taskName string, fn func(context.Context) error) {
	go func() {
		ctx, cancel := context.WithTimeout(parentCtx, timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				logger.WithFields(logrus.Fields{
					"task":  taskName,
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("Recovered panic in background task")
			}
		}()

		if err := fn(ctx); err != nil {
			logger.WithError(err).WithField("task", taskName).Warn("Background task failed")
		}
	}()
}

// WorkerPool manages a pool of workers that process tasks from a channel
type WorkerPool struct {
	logger   logrus.FieldLogger
	workers  int
	taskName string
	timeout  time.Duration

	mu     sync.RWMutex
	closed bool
	workCh chan func(context.Context) error
	doneCh chan struct{}
	errCh  chan error

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

// NewWorkerPool starts workers goroutines bound to ctx
func NewWorkerPool(ctx context.Context, logger logrus.FieldLogger, workers int, taskName string, timeout time.Duration) *WorkerPool {
	return newWorkerPool(ctx, logger, workers, taskName, timeout, workers*10)
}

func newWorkerPool(ctx context.Context, logger logrus.FieldLogger, workers int, taskName string, timeout time.Duration, errBuffer int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	pool := &WorkerPool{
		logger:   logger.WithField("pool", taskName),
		workers:  workers,
		taskName: taskName,
		timeout:  timeout,
		workCh:   make(chan func(context.Context) error, workers*2),
		doneCh:   make(chan struct{}),
		errCh:    make(chan error, errBuffer),
		ctx:      ctx,
		cancel:   cancel,
	}

	go func() {
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				pool.worker(id)
			}(i)
		}
		wg.Wait()
		close(pool.doneCh)
	}()

	return pool
}

// Submit queues a task. It blocks while the queue is full.
func (p *WorkerPool) Submit(fn func(context.Context) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolShutdown
	}

	select {
	case p.workCh <- fn:
		return nil
	case <-p.ctx.Done():
		return ErrPoolShutdown
	}
}

// close stops accepting tasks; queued tasks still drain
func (p *WorkerPool) close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.workCh)
	}
}

// Shutdown stops accepting tasks and waits up to timeout for queued tasks
func (p *WorkerPool) Shutdown(timeout time.Duration) error {
	var shutdownErr error

	p.shutdownOnce.Do(func() {
		p.close()

		select {
		case <-p.doneCh:
			p.cancel()
		case <-time.After(timeout):
			p.cancel()
			shutdownErr = fmt.Errorf("worker pool shutdown timed out after %v", timeout)
		}
	})

	return shutdownErr
}

// Errors returns a channel that receives task errors
func (p *WorkerPool) Errors() <-chan error {
	return p.errCh
}

func (p *WorkerPool) worker(id int) {
	for {
		select {
		case <-p.ctx.Done():
			return

		case fn, ok := <-p.workCh:
			if !ok {
				return
			}
			p.run(id, fn)
		}
	}
}

func (p *WorkerPool) run(id int, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			p.logger.WithFields(logrus.Fields{
				"worker": id,
				"panic":  r,
				"stack":  string(debug.Stack()),
			}).Error("Recovered panic in worker")
			p.report(fmt.Errorf("panic: %v", r))
		}
	}()

	if err := fn(ctx); err != nil {
		p.report(err)
	}
}

func (p *WorkerPool) report(err error) {
	select {
	case p.errCh <- err:
	default:
		p.logger.WithError(err).Warn("Error channel full, dropping error")
	}
}

// Batch processes items concurrently on a temporary pool and returns all
// errors encountered.
func Batch[T any](ctx context.Context, logger logrus.FieldLogger, items []T, workers int, taskName string, timeout time.Duration,
	fn func(context.Context, T) error) []error {

	pool := newWorkerPool(ctx, logger, workers, taskName, timeout, len(items)+1)

	for _, item := range items {
		if err := pool.Submit(func(ctx context.Context) error {
			return fn(ctx, item)
		}); err != nil {
			pool.cancel()
			return []error{err}
		}
	}

	pool.close()
	<-pool.doneCh
	pool.cancel()

	var errs []error
	for {
		select {
		case err := <-pool.errCh:
			errs = append(errs, err)
		default:
			return errs
		}
	}
}
