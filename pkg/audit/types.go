package audit

import (
	"time"

	"github.com/platinummonkey/chatprune/pkg/chat"
)

// ActionType identifies what an audit entry records
type ActionType string

const (
	// ActionChatAutoRemoveMembership is logged once per channel by automatic membership removal
	ActionChatAutoRemoveMembership ActionType = "chat_auto_remove_membership"
)

// SystemUsername is the username of the built-in system actor
const SystemUsername = "system"

// AuditEvent is a single audit log entry
type AuditEvent struct {
	ID              int64                  `json:"id"`
	Timestamp       time.Time              `json:"timestamp"`
	ActionType      ActionType             `json:"action_type"`
	ActingUserID    int64                  `json:"acting_user_id"`
	ActingUsername  string                 `json:"acting_username"`
	TargetChannelID *int64                 `json:"target_channel_id,omitempty"`
	Details         string                 `json:"details"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// SearchFilter narrows Search results. Zero values are ignored.
type SearchFilter struct {
	ActionType      ActionType
	TargetChannelID *int64
	Since           *time.Time
	Limit           int
}

// ExportFormat selects the Export encoding
type ExportFormat string

const (
	ExportFormatJSON   ExportFormat = "json"
	ExportFormatNDJSON ExportFormat = "ndjson"
	ExportFormatCSV    ExportFormat = "csv"
)

// NewAutoRemoveEvent builds the entry written for one channel after an
// automatic membership removal triggered by event.
func NewAutoRemoveEvent(channelID int64, usersRemoved int, event string) *AuditEvent {
	target := channelID
	return &AuditEvent{
		Timestamp:       time.Now().UTC(),
		ActionType:      ActionChatAutoRemoveMembership,
		ActingUserID:    chat.SystemUserID,
		ActingUsername:  SystemUsername,
		TargetChannelID: &target,
		Details:         FormatDetails(usersRemoved, channelID, event),
	}
}
