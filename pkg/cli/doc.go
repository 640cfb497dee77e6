// Package cli provides the chatprune command-line interface for operators.
//
// # Overview
//
// Each reconciliation trigger can be run by hand, which is how a missed
// event is replayed or a permission change is applied ahead of the next
// worker sweep. The same binary applies schema migrations and reads back the
// audit trail.
//
// # Commands
//
// migrate: Apply pending schema migrations
//
//	chatprune migrate
//
// category-updated: Reconcile the channels of one category
//
//	chatprune category-updated -category 7
//
// destroyed-group: Reconcile the former members of a deleted group
//
//	chatprune destroyed-group -users 3,4,5
//
// user-removed: Reconcile one user after leaving a group
//
//	chatprune user-removed -user 3
//
// allowed-groups-changed: Apply a new chat_allowed_groups value
//
//	chatprune allowed-groups-changed -old "0" -new "3|11"
//
// outside-allowed-groups: Remove everyone outside the allowed groups,
// including from direct messages. -new defaults to the current setting.
//
//	chatprune outside-allowed-groups
//
// audit: Print recent removal audit entries
//
//	chatprune audit -limit 20 -channel 11 -format csv
//
// queue: Print the number of pending kick jobs in the Redis queue, and with
// -due list those already due
//
//	chatprune queue -due 10
//
// # Configuration
//
// Connections come from the same CHATPRUNE_* environment variables and
// CHATPRUNE_CONFIG_FILE as the worker; see package config.
package cli
