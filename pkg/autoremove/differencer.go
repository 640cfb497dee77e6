package autoremove

import (
	"context"

	"github.com/platinummonkey/chatprune/pkg/chat"
	"github.com/platinummonkey/chatprune/pkg/storage"
)

// memberQuery selects members of channels that share one write-group set
// and belong to none of those groups
type memberQuery struct {
	channelIDs  []int64
	writeGroups chat.GroupList
}

// planCategoryRemovals groups channels by their write groups so each
// distinct set costs one query. Channels missing from perms (no
// CategoryGroup rows) and channels everyone may write to need no query. An
// empty write set selects every scoped member.
func planCategoryRemovals(perms chat.PermissionMap) []memberQuery {
	byKey := make(map[string]int)
	queries := []memberQuery{}

	for _, channelID := range perms.ChannelIDs() {
		p := perms[channelID]
		if p.EveryoneCanWrite() {
			continue
		}

		key := p.WriteKey()
		i, ok := byKey[key]
		if !ok {
			i = len(queries)
			byKey[key] = i
			queries = append(queries, memberQuery{writeGroups: p.WriteGroups.Normalize()})
		}
		queries[i].channelIDs = append(queries[i].channelIDs, channelID)
	}

	return queries
}

// removalsWithoutWriteAccess runs the planned queries, optionally limited to
// userIDs
func removalsWithoutWriteAccess(ctx context.Context, r storage.MembershipReader, queries []memberQuery, userIDs []int64) (chat.RemovalMap, error) {
	removals := chat.RemovalMap{}
	for _, q := range queries {
		refs, err := r.FindMemberships(ctx, storage.MembershipFilter{
			ChannelIDs:  q.channelIDs,
			UserIDs:     userIDs,
			ChannelType: chat.CategoryChannel,
			NotInGroups: q.writeGroups.IDs(),
		})
		if err != nil {
			return nil, err
		}
		addRefs(removals, refs)
	}
	return removals.Normalize(), nil
}

// removalsOutsideGroups selects memberships of users in none of groups. A
// list containing everyone selects nobody.
func removalsOutsideGroups(ctx context.Context, r storage.MembershipReader, groups chat.GroupList, userIDs []int64, exclude chat.ChannelType) (chat.RemovalMap, error) {
	removals := chat.RemovalMap{}
	if groups.IncludesEveryone() {
		return removals, nil
	}

	refs, err := r.FindMemberships(ctx, storage.MembershipFilter{
		UserIDs:            userIDs,
		ExcludeChannelType: exclude,
		NotInGroups:        groups.IDs(),
	})
	if err != nil {
		return nil, err
	}
	addRefs(removals, refs)
	return removals.Normalize(), nil
}

func addRefs(removals chat.RemovalMap, refs []storage.MemberRef) {
	for _, ref := range refs {
		removals.Add(ref.ChannelID, ref.UserID)
	}
}
