package chat

import "time"

// Automatic group ids.
const (
	GroupEveryone    int64 = 0
	GroupAdmins      int64 = 1
	GroupModerators  int64 = 2
	GroupStaff       int64 = 3
	GroupTrustLevel0 int64 = 10
	GroupTrustLevel1 int64 = 11
	GroupTrustLevel2 int64 = 12
	GroupTrustLevel3 int64 = 13
	GroupTrustLevel4 int64 = 14
)

// SystemUserID is the id of the built-in system actor.
const SystemUserID int64 = -1

// PermissionType is the access level a group holds on a category.
type PermissionType int

const (
	PermissionFull       PermissionType = 1
	PermissionCreatePost PermissionType = 2
	PermissionReadonly   PermissionType = 3
)

// CanWrite reports whether the permission grants write access (full or create_post).
func (p PermissionType) CanWrite() bool {
	return p > 0 && p < PermissionReadonly
}

// Valid reports whether p is a known permission type.
func (p PermissionType) Valid() bool {
	return p >= PermissionFull && p <= PermissionReadonly
}

func (p PermissionType) String() string {
	switch p {
	case PermissionFull:
		return "full"
	case PermissionCreatePost:
		return "create_post"
	case PermissionReadonly:
		return "readonly"
	default:
		return "unknown"
	}
}

// ChannelType discriminates category channels from direct-message channels.
type ChannelType string

const (
	CategoryChannel      ChannelType = "CategoryChannel"
	DirectMessageChannel ChannelType = "DirectMessageChannel"
)

// User is a forum account.
type User struct {
	ID        int64
	Username  string
	Admin     bool
	Moderator bool
	Suspended bool
	Staged    bool
	Bot       bool
	CreatedAt time.Time
}

// Staff reports whether the user is an admin or moderator.
func (u *User) Staff() bool {
	return u.Admin || u.Moderator
}

// Real reports whether the user is a human account (positive id, not a bot).
func (u *User) Real() bool {
	return u.ID > 0 && !u.Bot
}

// Evictable reports whether automatic membership removal may touch this user.
func (u *User) Evictable() bool {
	return u.Real() && !u.Staff() && !u.Suspended && !u.Staged
}

// Group is a named set of users.
type Group struct {
	ID        int64
	Name      string
	Automatic bool
}

// Category is a forum category. A category without CategoryGroup rows is
// open to everyone with full access.
type Category struct {
	ID             int64
	Name           string
	ReadRestricted bool
}

// CategoryGroup grants a group a permission on a category.
type CategoryGroup struct {
	CategoryID     int64
	GroupID        int64
	PermissionType PermissionType
}

// Channel is a chat channel. CategoryID is zero for direct-message channels.
type Channel struct {
	ID         int64
	Name       string
	Type       ChannelType
	CategoryID int64
	UserCount  int
}

// Membership links a user to a chat channel.
type Membership struct {
	ID        int64
	ChannelID int64
	UserID    int64
	Following bool
}

// SiteSettings is the slice of site configuration the reconciliation
// handlers depend on. It is fetched once per invocation and passed in.
type SiteSettings struct {
	ChatEnabled       bool
	ChatAllowedGroups GroupList
}
