// Package events turns trigger messages into engine invocations.
//
// A Trigger is the JSON envelope published by the forum when permissions
// change:
//
//	{"id": "9b1c...", "type": "category_updated", "category_id": 7}
//	{"id": "...", "type": "destroyed_group", "user_ids": [3, 4]}
//	{"id": "...", "type": "user_removed_from_group", "user_id": 3}
//	{"id": "...", "type": "chat_allowed_groups_changed", "old_allowed_groups": "0", "new_allowed_groups": "3|11"}
//
// Router reads site settings once per trigger and calls the matching
// handler. Consumer feeds a Router from a Kafka topic, retrying transient
// failures with exponential backoff and committing each message once it is
// handled or given up on. RegisterRoutes exposes the same router over HTTP
// as POST /v1/triggers for callers that want the result synchronously.
package events
