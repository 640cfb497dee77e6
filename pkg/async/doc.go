// Package async provides safe concurrent execution primitives for background tasks.
//
// # Overview
//
// Goroutines started here recover panics, enforce a per-task timeout, honour
// context cancellation and report failures to a logrus logger instead of
// crashing the process.
//
// # Key Functions
//
// SafeGo: fire-and-forget with panic recovery and timeout
//
//	async.SafeGo(ctx, logger, 30*time.Second, "kick users", func(ctx context.Context) error {
//		return kicker.Kick(ctx, job)
//	})
//
// WorkerPool: bounded pool of workers draining a task queue
//
//	pool := async.NewWorkerPool(ctx, logger, 4, "kick users", 30*time.Second)
//	defer pool.Shutdown(5 * time.Second)
//
//	pool.Submit(func(ctx context.Context) error {
//		return kicker.Kick(ctx, job)
//	})
//
// Batch: run fn over items on a temporary pool and collect errors
//
//	errs := async.Batch(ctx, logger, dispatchers, 3, "dispatch", 10*time.Second,
//		func(ctx context.Context, d Dispatcher) error { return d.Dispatch(ctx, job) })
package async
