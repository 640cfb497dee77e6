package jobs

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultQueueKey is the sorted set holding pending kick jobs
const DefaultQueueKey = "chatprune:jobs:kick_users"

// RedisQueue is a delayed job queue on a Redis sorted set. Members are job
// payloads, scores are run-at times in unix milliseconds.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue creates a queue on key
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisQueue{client: client, key: key}
}

// Dispatch adds the job scored by its run-at time
func (q *RedisQueue) Dispatch(ctx context.Context, job *KickUsersJob) error {
	if err := job.Validate(); err != nil {
		return err
	}

	payload, err := job.Marshal()
	if err != nil {
		return err
	}

	if err := q.client.ZAdd(ctx, q.key, &redis.Z{
		Score:  float64(job.RunAt.UnixMilli()),
		Member: payload,
	}).Err(); err != nil {
		return fmt.Errorf("failed to enqueue kick job: %w", err)
	}
	return nil
}

// Due returns up to limit jobs whose run-at time is not after now, without
// removing them.
func (q *RedisQueue) Due(ctx context.Context, now time.Time, limit int64) ([]*KickUsersJob, error) {
	members, err := q.client.ZRangeByScore(ctx, q.key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: limit,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read due kick jobs: %w", err)
	}

	jobs := make([]*KickUsersJob, 0, len(members))
	for _, member := range members {
		job, err := UnmarshalKickUsersJob([]byte(member))
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Len returns the number of pending jobs
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.ZCard(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count kick jobs: %w", err)
	}
	return n, nil
}

// Close is a no-op; the client is shared
func (q *RedisQueue) Close() error {
	return nil
}
