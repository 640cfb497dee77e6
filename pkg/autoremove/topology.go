package autoremove

import (
	"context"
	"errors"
	"fmt"

	"github.com/platinummonkey/chatprune/pkg/chat"
	"github.com/platinummonkey/chatprune/pkg/storage"
)

// loadCategory fetches the category or reports it as missing
func loadCategory(ctx context.Context, r storage.TopologyReader, id int64) (*chat.Category, error) {
	category, err := r.GetCategory(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &ModelNotFoundError{Model: "category", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

// loadPermissions reads the write and readonly groups of every channel in
// one query. Channels whose category has no CategoryGroup rows are absent.
func loadPermissions(ctx context.Context, r storage.TopologyReader, channelIDs []int64) (chat.PermissionMap, error) {
	if len(channelIDs) == 0 {
		return chat.PermissionMap{}, nil
	}
	perms, err := r.ChannelPermissions(ctx, channelIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to read permission topology: %w", err)
	}
	return perms, nil
}

// memberChannels returns the category channels the given users are
// evictable members of
func memberChannels(ctx context.Context, r storage.MembershipReader, userIDs []int64) ([]int64, error) {
	refs, err := r.FindMemberships(ctx, storage.MembershipFilter{
		UserIDs:     userIDs,
		ChannelType: chat.CategoryChannel,
	})
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(refs))
	channelIDs := make([]int64, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.ChannelID]; ok {
			continue
		}
		seen[ref.ChannelID] = struct{}{}
		channelIDs = append(channelIDs, ref.ChannelID)
	}
	return channelIDs, nil
}
