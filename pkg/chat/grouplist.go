package chat

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// GroupListSeparator separates ids in a serialized group list.
const GroupListSeparator = "|"

// GroupList is an ordered list of group ids as stored in site settings.
type GroupList []int64

// ParseGroupList parses a "|" separated group id list. The empty string is
// an empty list.
func ParseGroupList(s string) (GroupList, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return GroupList{}, nil
	}

	parts := strings.Split(s, GroupListSeparator)
	list := make(GroupList, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid group id %q: %w", part, err)
		}
		if id < 0 {
			return nil, fmt.Errorf("invalid group id %q: must not be negative", part)
		}
		list = append(list, id)
	}
	return list.Normalize(), nil
}

// String serializes the list in site-setting form.
func (g GroupList) String() string {
	parts := make([]string, len(g))
	for i, id := range g {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, GroupListSeparator)
}

// Contains reports whether id is in the list.
func (g GroupList) Contains(id int64) bool {
	return slices.Contains(g, id)
}

// IncludesEveryone reports whether the list contains the everyone group.
func (g GroupList) IncludesEveryone() bool {
	return g.Contains(GroupEveryone)
}

// Normalize returns a sorted copy without duplicates.
func (g GroupList) Normalize() GroupList {
	out := slices.Clone(g)
	if out == nil {
		out = GroupList{}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// IDs returns the list as a plain, never-nil slice.
func (g GroupList) IDs() []int64 {
	if g == nil {
		return []int64{}
	}
	return []int64(g)
}
