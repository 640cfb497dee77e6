// Package audit records staff-visible audit entries for automated actions.
//
// # Overview
//
// Every automatic chat membership removal writes one entry per affected
// channel, attributed to the system actor, with a details body of the form:
//
//	users_removed: 3
//	channel_id: 42
//	event: category_updated
//
// # Usage Example
//
//	logger, _ := audit.NewDBLogger(tx)
//	err := logger.Log(ctx, audit.NewAutoRemoveEvent(channelID, len(userIDs), "category_updated"))
//
// Search recent entries:
//
//	events, err := logger.Search(ctx, audit.SearchFilter{
//		ActionType: audit.ActionChatAutoRemoveMembership,
//		Limit:      50,
//	})
//
// DBLogger writes through any Querier, so passing a *sql.Tx makes the entry
// part of the caller's transaction.
package audit
