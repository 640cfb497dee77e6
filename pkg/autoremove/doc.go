// Package autoremove reconciles chat channel memberships with the forum's
// permission topology.
//
// # Overview
//
// Five handlers react to permission changes and evict users who are no
// longer entitled to be in a channel:
//
//	HandleCategoryUpdated           category group permissions edited
//	HandleDestroyedGroup            a group was deleted
//	HandleUserRemovedFromGroup      one user left one group
//	HandleChatAllowedGroupsChanged  the chat_allowed_groups site setting changed
//	HandleOutsideChatAllowedGroups  legacy form of the above, DMs included
//
// Every handler runs as a short typed pipeline inside one datastore
// transaction: validate input, resolve scope, read the category permission
// topology once, compute a chat.RemovalMap with batched membership queries,
// then delete the memberships and write one audit entry per channel. Kick
// jobs are dispatched per channel after the transaction commits; a failed
// dispatch is logged and counted but never undoes the eviction.
//
// # Eligibility
//
// Staff, bots, suspended and staged users are never evicted. A category
// channel whose category has no CategoryGroup rows grants everyone full
// access and is left alone. A channel with only readonly groups evicts every
// scoped member: readonly never entitles chat presence. Direct message
// channels are only touched by HandleOutsideChatAllowedGroups.
//
// # Usage
//
//	engine := autoremove.New(store, dispatcher, autoremove.Options{
//		Logger:    logger,
//		Metrics:   metrics,
//		KickDelay: 5 * time.Second,
//	})
//
//	site, _ := settingsProvider.Get(ctx)
//	result, err := engine.HandleCategoryUpdated(ctx, site, autoremove.CategoryUpdatedInput{CategoryID: 7})
//	if errors.Is(err, autoremove.ErrModelNotFound) {
//		// category deleted concurrently; nothing was changed
//	}
//
// Site settings are passed in explicitly so a caller fetches them once per
// invocation.
package autoremove
