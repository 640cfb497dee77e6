package autoremove

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/chatprune/pkg/chat"
	"github.com/platinummonkey/chatprune/pkg/storage"
)

// HandleCategoryUpdated evicts members of the category's channels who are
// in none of the category's write groups.
func (e *Engine) HandleCategoryUpdated(ctx context.Context, site chat.SiteSettings, in CategoryUpdatedInput) (*Result, error) {
	return invoke(ctx, e, EventCategoryUpdated, site, in,
		categoryState{categoryID: in.CategoryID},
		[]step[categoryState]{
			fetchCategory,
			checkCategoryRestricted,
			fetchCategoryChannels,
			fetchCategoryPermissions,
			removeCategoryMembersWithoutAccess,
		})
}

// HandleDestroyedGroup re-evaluates every user of a deleted group: first
// against the chat allowed groups, then against the write groups of each
// category channel they are in.
func (e *Engine) HandleDestroyedGroup(ctx context.Context, site chat.SiteSettings, in DestroyedGroupInput) (*Result, error) {
	userIDs := slices.Clone(in.DestroyedGroupUserIDs)
	slices.Sort(userIDs)
	return invoke(ctx, e, EventDestroyedGroup, site, in,
		userScope{userIDs: slices.Compact(userIDs)},
		[]step[userScope]{
			removeUsersOutsideAllowedGroups,
			fetchUserChannels,
			fetchUserChannelPermissions,
			removeUsersWithoutChannelAccess,
		})
}

// HandleUserRemovedFromGroup re-evaluates one user after they left a group.
// Staff are never touched.
func (e *Engine) HandleUserRemovedFromGroup(ctx context.Context, site chat.SiteSettings, in UserRemovedFromGroupInput) (*Result, error) {
	return invoke(ctx, e, EventUserRemovedFromGroup, site, in,
		userScope{userIDs: []int64{in.UserID}},
		[]step[userScope]{
			fetchUser,
			skipStaff,
			removeUsersOutsideAllowedGroups,
			fetchUserChannels,
			fetchUserChannelPermissions,
			removeUsersWithoutChannelAccess,
		})
}

// HandleChatAllowedGroupsChanged evicts every member of a non-DM channel who
// is in none of the new allowed groups.
func (e *Engine) HandleChatAllowedGroupsChanged(ctx context.Context, site chat.SiteSettings, in AllowedGroupsChangedInput) (*Result, error) {
	return invoke(ctx, e, EventChatAllowedGroupsChanged, site, in,
		allowedGroupsState{exclude: chat.DirectMessageChannel},
		allowedGroupsSteps(in))
}

// HandleOutsideChatAllowedGroups is the older form of
// HandleChatAllowedGroupsChanged. It applies the same complement to every
// channel type, direct messages included.
func (e *Engine) HandleOutsideChatAllowedGroups(ctx context.Context, site chat.SiteSettings, in AllowedGroupsChangedInput) (*Result, error) {
	return invoke(ctx, e, EventOutsideChatAllowedGroups, site, in,
		allowedGroupsState{},
		allowedGroupsSteps(in))
}

// category updated

type categoryState struct {
	plan
	categoryID  int64
	category    *chat.Category
	channelIDs  []int64
	permissions chat.PermissionMap
}

func fetchCategory(ctx context.Context, e env, s categoryState) (categoryState, error) {
	category, err := loadCategory(ctx, e.tx, s.categoryID)
	if err != nil {
		return s, err
	}
	s.category = category
	return s, nil
}

func checkCategoryRestricted(ctx context.Context, e env, s categoryState) (categoryState, error) {
	if s.category.ReadRestricted {
		return s, nil
	}
	count, err := e.tx.CountCategoryGroups(ctx, s.category.ID)
	if err != nil {
		return s, err
	}
	if count == 0 {
		return s, skip("category grants everyone full access")
	}
	return s, nil
}

func fetchCategoryChannels(ctx context.Context, e env, s categoryState) (categoryState, error) {
	channelIDs, err := e.tx.CategoryChannelIDs(ctx, s.category.ID)
	if err != nil {
		return s, err
	}
	if len(channelIDs) == 0 {
		return s, skip("category has no channels")
	}
	s.channelIDs = channelIDs
	return s, nil
}

func fetchCategoryPermissions(ctx context.Context, e env, s categoryState) (categoryState, error) {
	perms, err := loadPermissions(ctx, e.tx, s.channelIDs)
	if err != nil {
		return s, err
	}
	s.permissions = perms
	e.logger.WithField("permissions", perms.String()).Debug("Loaded category permissions")
	return s, nil
}

func removeCategoryMembersWithoutAccess(ctx context.Context, e env, s categoryState) (categoryState, error) {
	removals, err := removalsWithoutWriteAccess(ctx, e.tx, planCategoryRemovals(s.permissions), nil)
	if err != nil {
		return s, err
	}
	s.plan = s.with(removals)
	return s, nil
}

// destroyed group and user removed from group

type userScope struct {
	plan
	userIDs     []int64
	user        *chat.User
	channelIDs  []int64
	permissions chat.PermissionMap
}

func fetchUser(ctx context.Context, e env, s userScope) (userScope, error) {
	id := s.userIDs[0]
	user, err := e.tx.GetUser(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return s, &ModelNotFoundError{Model: "user", ID: id}
	}
	if err != nil {
		return s, err
	}
	s.user = user
	return s, nil
}

func skipStaff(ctx context.Context, e env, s userScope) (userScope, error) {
	if s.user.Staff() {
		return s, skip("user is staff")
	}
	return s, nil
}

func removeUsersOutsideAllowedGroups(ctx context.Context, e env, s userScope) (userScope, error) {
	if e.site.ChatAllowedGroups.IncludesEveryone() {
		return s, nil
	}
	removals, err := removalsOutsideGroups(ctx, e.tx, e.site.ChatAllowedGroups, s.userIDs, chat.DirectMessageChannel)
	if err != nil {
		return s, fmt.Errorf("failed to find users outside chat allowed groups: %w", err)
	}
	s.plan = s.with(removals)
	return s, nil
}

func fetchUserChannels(ctx context.Context, e env, s userScope) (userScope, error) {
	channelIDs, err := memberChannels(ctx, e.tx, s.userIDs)
	if err != nil {
		return s, fmt.Errorf("failed to find channels of users: %w", err)
	}
	s.channelIDs = channelIDs
	return s, nil
}

func fetchUserChannelPermissions(ctx context.Context, e env, s userScope) (userScope, error) {
	perms, err := loadPermissions(ctx, e.tx, s.channelIDs)
	if err != nil {
		return s, err
	}
	s.permissions = perms
	return s, nil
}

func removeUsersWithoutChannelAccess(ctx context.Context, e env, s userScope) (userScope, error) {
	queries := planCategoryRemovals(s.permissions)
	if len(queries) == 0 {
		return s, nil
	}
	removals, err := removalsWithoutWriteAccess(ctx, e.tx, queries, s.userIDs)
	if err != nil {
		return s, err
	}
	s.plan = s.with(removals)
	return s, nil
}

// chat allowed groups changed

type allowedGroupsState struct {
	plan
	exclude   chat.ChannelType
	oldGroups chat.GroupList
	newGroups chat.GroupList
}

func allowedGroupsSteps(in AllowedGroupsChangedInput) []step[allowedGroupsState] {
	return []step[allowedGroupsState]{
		func(ctx context.Context, e env, s allowedGroupsState) (allowedGroupsState, error) {
			var err error
			if s.oldGroups, err = chat.ParseGroupList(in.OldAllowedGroups); err != nil {
				return s, err
			}
			if s.newGroups, err = chat.ParseGroupList(in.NewAllowedGroups); err != nil {
				return s, err
			}
			return s, nil
		},
		skipWhenEveryoneAllowed,
		removeMembersOutsideNewGroups,
	}
}

func skipWhenEveryoneAllowed(ctx context.Context, e env, s allowedGroupsState) (allowedGroupsState, error) {
	if s.newGroups.IncludesEveryone() {
		return s, skip("everyone may use chat")
	}
	return s, nil
}

func removeMembersOutsideNewGroups(ctx context.Context, e env, s allowedGroupsState) (allowedGroupsState, error) {
	e.logger.WithFields(logrus.Fields{
		"old_allowed_groups": s.oldGroups.String(),
		"new_allowed_groups": s.newGroups.String(),
	}).Debug("Chat allowed groups narrowed")

	removals, err := removalsOutsideGroups(ctx, e.tx, s.newGroups, nil, s.exclude)
	if err != nil {
		return s, fmt.Errorf("failed to find users outside chat allowed groups: %w", err)
	}
	s.plan = s.with(removals)
	return s, nil
}
