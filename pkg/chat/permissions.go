package chat

import (
	"fmt"
	"slices"
	"strings"
)

// ChannelPermissions is the effective group access of one category channel,
// derived from its category's CategoryGroup rows.
type ChannelPermissions struct {
	ChannelID      int64
	CategoryID     int64
	WriteGroups    GroupList
	ReadonlyGroups GroupList
}

// EveryoneCanWrite reports whether the everyone group holds write access.
func (p *ChannelPermissions) EveryoneCanWrite() bool {
	return p.WriteGroups.IncludesEveryone()
}

// WriteKey is a canonical key for the write-group set. Channels with equal
// keys are eligible to the same users.
func (p *ChannelPermissions) WriteKey() string {
	return p.WriteGroups.Normalize().String()
}

// PermissionMap maps a channel id to its effective permissions. Channels
// whose category has no CategoryGroup rows are absent from the map.
type PermissionMap map[int64]*ChannelPermissions

// Grant records that groupID holds pt on the category of channelID. A group
// holding both a write and a readonly grant counts as a writer.
func (m PermissionMap) Grant(channelID, categoryID, groupID int64, pt PermissionType) {
	perms, ok := m[channelID]
	if !ok {
		perms = &ChannelPermissions{
			ChannelID:      channelID,
			CategoryID:     categoryID,
			WriteGroups:    GroupList{},
			ReadonlyGroups: GroupList{},
		}
		m[channelID] = perms
	}

	if pt.CanWrite() {
		if !perms.WriteGroups.Contains(groupID) {
			perms.WriteGroups = append(perms.WriteGroups, groupID)
		}
		if i := slices.Index(perms.ReadonlyGroups, groupID); i >= 0 {
			perms.ReadonlyGroups = slices.Delete(perms.ReadonlyGroups, i, i+1)
		}
		return
	}

	if !perms.WriteGroups.Contains(groupID) && !perms.ReadonlyGroups.Contains(groupID) {
		perms.ReadonlyGroups = append(perms.ReadonlyGroups, groupID)
	}
}

// ChannelIDs returns the mapped channel ids in ascending order.
func (m PermissionMap) ChannelIDs() []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (m PermissionMap) String() string {
	var b strings.Builder
	for i, id := range m.ChannelIDs() {
		if i > 0 {
			b.WriteString(", ")
		}
		p := m[id]
		fmt.Fprintf(&b, "channel %d write=[%s] readonly=[%s]",
			id, p.WriteGroups.Normalize(), p.ReadonlyGroups.Normalize())
	}
	return b.String()
}
