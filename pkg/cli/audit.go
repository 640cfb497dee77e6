package cli

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/platinummonkey/chatprune/pkg/audit"
)

func newAuditCommand(env *Env) *Command {
	return newCommand(env, "audit", "Print recent removal audit entries", func(fs *flag.FlagSet) func(*Deps) error {
		limit := fs.Int("limit", 20, "Maximum number of entries")
		channel := fs.Int64("channel", 0, "Only entries for this channel id")
		format := fs.String("format", string(audit.ExportFormatJSON), "Output format: json, ndjson or csv")
		return func(deps *Deps) error {
			filter := audit.SearchFilter{
				ActionType: audit.ActionChatAutoRemoveMembership,
				Limit:      *limit,
			}
			if *channel != 0 {
				filter.TargetChannelID = channel
			}

			entries, err := deps.Store.AuditLog().Search(env.Ctx, filter)
			if err != nil {
				return err
			}
			return audit.Export(env.Out, entries, audit.ExportFormat(*format))
		}
	})
}

func newQueueCommand(env *Env) *Command {
	return newCommand(env, "queue", "Print pending kick jobs", func(fs *flag.FlagSet) func(*Deps) error {
		due := fs.Int64("due", 0, "Also list up to this many jobs that are due now")
		return func(deps *Deps) error {
			if deps.Queue == nil {
				return errors.New("the redis job backend is not enabled")
			}
			n, err := deps.Queue.Len(env.Ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "%d pending kick jobs\n", n)
			if *due <= 0 {
				return nil
			}

			ready, err := deps.Queue.Due(env.Ctx, time.Now(), *due)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "%d due:\n", len(ready))
			for _, job := range ready {
				fmt.Fprintf(env.Out, "  %s channel %d (%s) users %s run_at %s\n",
					job.ID, job.ChannelID, job.Event, joinIDs(job.UserIDs), job.RunAt.UTC().Format(time.RFC3339))
			}
			return nil
		}
	})
}
