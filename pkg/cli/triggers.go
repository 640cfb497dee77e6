package cli

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/platinummonkey/chatprune/pkg/autoremove"
	"github.com/platinummonkey/chatprune/pkg/events"
)

func newCategoryUpdatedCommand(env *Env) *Command {
	return newCommand(env, "category-updated", "Reconcile the channels of a category", func(fs *flag.FlagSet) func(*Deps) error {
		category := fs.Int64("category", 0, "Category id")
		return func(deps *Deps) error {
			t := events.NewTrigger(autoremove.EventCategoryUpdated)
			t.CategoryID = *category
			return route(env, deps, t)
		}
	})
}

func newDestroyedGroupCommand(env *Env) *Command {
	return newCommand(env, "destroyed-group", "Reconcile the former members of a deleted group", func(fs *flag.FlagSet) func(*Deps) error {
		users := fs.String("users", "", "Comma-separated user ids that belonged to the group")
		return func(deps *Deps) error {
			ids, err := parseIDs(*users)
			if err != nil {
				return err
			}
			t := events.NewTrigger(autoremove.EventDestroyedGroup)
			t.UserIDs = ids
			return route(env, deps, t)
		}
	})
}

func newUserRemovedCommand(env *Env) *Command {
	return newCommand(env, "user-removed", "Reconcile a user removed from a group", func(fs *flag.FlagSet) func(*Deps) error {
		user := fs.Int64("user", 0, "User id")
		return func(deps *Deps) error {
			t := events.NewTrigger(autoremove.EventUserRemovedFromGroup)
			t.UserID = *user
			return route(env, deps, t)
		}
	})
}

func newAllowedGroupsChangedCommand(env *Env) *Command {
	return newCommand(env, "allowed-groups-changed", "Apply a new chat_allowed_groups value", func(fs *flag.FlagSet) func(*Deps) error {
		oldGroups := fs.String("old", "", "Previous value, e.g. \"0\"")
		newGroups := fs.String("new", "", "New value, e.g. \"3|11\"")
		return func(deps *Deps) error {
			t := events.NewTrigger(autoremove.EventChatAllowedGroupsChanged)
			t.OldAllowedGroups = *oldGroups
			t.NewAllowedGroups = *newGroups
			return route(env, deps, t)
		}
	})
}

func newOutsideAllowedGroupsCommand(env *Env) *Command {
	return newCommand(env, "outside-allowed-groups", "Remove users outside the allowed groups from all channels", func(fs *flag.FlagSet) func(*Deps) error {
		oldGroups := fs.String("old", "", "Previous value")
		newGroups := fs.String("new", "", "Allowed groups (default: current setting)")
		return func(deps *Deps) error {
			t := events.NewTrigger(autoremove.EventOutsideChatAllowedGroups)
			t.OldAllowedGroups = *oldGroups
			t.NewAllowedGroups = *newGroups
			if t.NewAllowedGroups == "" {
				site, err := deps.Settings.Get(env.Ctx)
				if err != nil {
					return fmt.Errorf("failed to load site settings: %w", err)
				}
				t.NewAllowedGroups = site.ChatAllowedGroups.String()
			}
			return route(env, deps, t)
		}
	})
}

func route(env *Env, deps *Deps, t *events.Trigger) error {
	result, err := deps.Router.Route(env.Ctx, t)
	if err != nil {
		var contract *autoremove.ContractError
		if errors.As(err, &contract) {
			return fmt.Errorf("invalid arguments for %s: %s", t.Type, strings.Join(contract.Fields(), ", "))
		}
		return err
	}
	printResult(env, result)
	return nil
}

func printResult(env *Env, result *autoremove.Result) {
	if result.NoOp() {
		if result.Skipped != "" {
			fmt.Fprintf(env.Out, "%s: nothing to do (%s)\n", result.Event, result.Skipped)
		} else {
			fmt.Fprintf(env.Out, "%s: no memberships removed\n", result.Event)
		}
		return
	}

	channels := result.UsersRemoved.ChannelIDs()
	fmt.Fprintf(env.Out, "%s: removed %d memberships from %d channels\n", result.Event, result.Count(), len(channels))
	for _, channelID := range channels {
		fmt.Fprintf(env.Out, "  channel %d: %s\n", channelID, joinIDs(result.UsersRemoved[channelID]))
	}
	if result.KickJobsFailed > 0 {
		fmt.Fprintf(env.Out, "warning: %d kick jobs could not be dispatched\n", result.KickJobsFailed)
	}
}

// parseIDs parses a comma-separated id list
func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ", ")
}
