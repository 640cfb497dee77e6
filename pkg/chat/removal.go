package chat

import "slices"

// RemovalMap maps a channel id to the ids of users evicted from it.
type RemovalMap map[int64][]int64

// Add appends users to a channel's removal list. Empty additions leave the
// map unchanged.
func (r RemovalMap) Add(channelID int64, userIDs ...int64) {
	if len(userIDs) == 0 {
		return
	}
	r[channelID] = append(r[channelID], userIDs...)
}

// Merge adds every entry of other into r.
func (r RemovalMap) Merge(other RemovalMap) {
	for channelID, userIDs := range other {
		r.Add(channelID, userIDs...)
	}
}

// Normalize sorts each user list and drops duplicates and empty channels.
func (r RemovalMap) Normalize() RemovalMap {
	for channelID, userIDs := range r {
		if len(userIDs) == 0 {
			delete(r, channelID)
			continue
		}
		slices.Sort(userIDs)
		r[channelID] = slices.Compact(userIDs)
	}
	return r
}

// Count returns the number of (channel, user) pairs.
func (r RemovalMap) Count() int {
	n := 0
	for _, userIDs := range r {
		n += len(userIDs)
	}
	return n
}

// IsEmpty reports whether no pairs are present.
func (r RemovalMap) IsEmpty() bool {
	return r.Count() == 0
}

// ChannelIDs returns channel ids in ascending order.
func (r RemovalMap) ChannelIDs() []int64 {
	ids := make([]int64, 0, len(r))
	for id, userIDs := range r {
		if len(userIDs) > 0 {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Users returns the union of user ids across channels, ascending.
func (r RemovalMap) Users() []int64 {
	var ids []int64
	for _, userIDs := range r {
		ids = append(ids, userIDs...)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}
