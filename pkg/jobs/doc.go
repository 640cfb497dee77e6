// Package jobs dispatches "kick users from channel" jobs to the external job
// queue after automatic membership removal.
//
// Dispatch is best effort. A failed dispatch never undoes a committed
// membership deletion; callers log and count it.
//
// Backends:
//
//   - RedisQueue: delayed queue on a sorted set scored by run-at time (ms)
//   - KafkaDispatcher: one message per job, keyed by channel id
//   - LocalDispatcher: in-process handler on an async.WorkerPool
//   - Multi: fan-out to several dispatchers
package jobs
