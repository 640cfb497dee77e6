package autoremove

// Event names a trigger. It is recorded in audit details and kick jobs.
type Event string

const (
	EventCategoryUpdated          Event = "category_updated"
	EventDestroyedGroup           Event = "destroyed_group"
	EventUserRemovedFromGroup     Event = "user_removed_from_group"
	EventChatAllowedGroupsChanged Event = "chat_allowed_groups_changed"
	EventOutsideChatAllowedGroups Event = "outside_chat_allowed_groups"
)

// Events lists every trigger in a stable order
func Events() []Event {
	return []Event{
		EventCategoryUpdated,
		EventDestroyedGroup,
		EventUserRemovedFromGroup,
		EventChatAllowedGroupsChanged,
		EventOutsideChatAllowedGroups,
	}
}

// CategoryUpdatedInput is the input of HandleCategoryUpdated
type CategoryUpdatedInput struct {
	CategoryID int64 `json:"category_id" validate:"gt=0"`
}

// DestroyedGroupInput carries the users that belonged to the deleted group
type DestroyedGroupInput struct {
	DestroyedGroupUserIDs []int64 `json:"destroyed_group_user_ids" validate:"min=1,dive,ne=0"`
}

// UserRemovedFromGroupInput is the input of HandleUserRemovedFromGroup
type UserRemovedFromGroupInput struct {
	UserID int64 `json:"user_id" validate:"ne=0"`
}

// AllowedGroupsChangedInput carries both values of the chat_allowed_groups
// setting in site-setting form ("3|11").
type AllowedGroupsChangedInput struct {
	OldAllowedGroups string `json:"old_allowed_groups" validate:"grouplist"`
	NewAllowedGroups string `json:"new_allowed_groups" validate:"grouplist"`
}
