package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// KickUsersJob asks connected clients of the users to leave a channel
type KickUsersJob struct {
	ID         string    `json:"id"`
	ChannelID  int64     `json:"channel_id"`
	UserIDs    []int64   `json:"user_ids"`
	Event      string    `json:"event,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	RunAt      time.Time `json:"run_at"`
}

// NewKickUsersJob builds a job that becomes due after delay
func NewKickUsersJob(channelID int64, userIDs []int64, event string, delay time.Duration) *KickUsersJob {
	now := time.Now().UTC()
	if delay < 0 {
		delay = 0
	}
	return &KickUsersJob{
		ID:         uuid.New().String(),
		ChannelID:  channelID,
		UserIDs:    slices.Clone(userIDs),
		Event:      event,
		EnqueuedAt: now,
		RunAt:      now.Add(delay),
	}
}

// Delay returns how long after enqueue the job becomes due
func (j *KickUsersJob) Delay() time.Duration {
	return j.RunAt.Sub(j.EnqueuedAt)
}

// Validate checks the payload is dispatchable
func (j *KickUsersJob) Validate() error {
	if j.ChannelID <= 0 {
		return fmt.Errorf("invalid channel id: %d", j.ChannelID)
	}
	if len(j.UserIDs) == 0 {
		return fmt.Errorf("job for channel %d has no users", j.ChannelID)
	}
	return nil
}

// Marshal encodes the job payload
func (j *KickUsersJob) Marshal() ([]byte, error) {
	data, err := json.Marshal(j)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal kick job: %w", err)
	}
	return data, nil
}

// UnmarshalKickUsersJob decodes a job payload
func UnmarshalKickUsersJob(data []byte) (*KickUsersJob, error) {
	var job KickUsersJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kick job: %w", err)
	}
	return &job, nil
}

// Dispatcher enqueues kick jobs
type Dispatcher interface {
	Dispatch(ctx context.Context, job *KickUsersJob) error
	Close() error
}

// Handler processes a kick job in-process
type Handler func(ctx context.Context, job *KickUsersJob) error
