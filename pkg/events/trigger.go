package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/chatprune/pkg/autoremove"
)

// ErrUnknownTrigger is returned for a trigger type no handler serves
var ErrUnknownTrigger = errors.New("unknown trigger type")

// Trigger is one permission change event
type Trigger struct {
	ID               string           `json:"id"`
	Type             autoremove.Event `json:"type"`
	CategoryID       int64            `json:"category_id,omitempty"`
	UserID           int64            `json:"user_id,omitempty"`
	UserIDs          []int64          `json:"user_ids,omitempty"`
	OldAllowedGroups string           `json:"old_allowed_groups,omitempty"`
	NewAllowedGroups string           `json:"new_allowed_groups,omitempty"`
	OccurredAt       time.Time        `json:"occurred_at"`
}

// NewTrigger creates a trigger of the given type with a fresh id
func NewTrigger(typ autoremove.Event) *Trigger {
	return &Trigger{
		ID:         uuid.New().String(),
		Type:       typ,
		OccurredAt: time.Now().UTC(),
	}
}

// Encode serializes the trigger
func (t *Trigger) Encode() ([]byte, error) {
	return json.Marshal(t)
}

// Decode parses a trigger. A missing id is filled in.
func Decode(data []byte) (*Trigger, error) {
	var t Trigger
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode trigger: %w", err)
	}
	if t.Type == "" {
		return nil, fmt.Errorf("trigger has no type: %w", ErrUnknownTrigger)
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	return &t, nil
}

// ChangesAllowedGroups reports whether the trigger carries a new value of
// the chat_allowed_groups setting
func (t *Trigger) ChangesAllowedGroups() bool {
	return t.Type == autoremove.EventChatAllowedGroupsChanged ||
		t.Type == autoremove.EventOutsideChatAllowedGroups
}
