package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/platinummonkey/chatprune/pkg/audit"
	"github.com/platinummonkey/chatprune/pkg/events"
	"github.com/platinummonkey/chatprune/pkg/jobs"
	"github.com/platinummonkey/chatprune/pkg/settings"
)

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// Store is the part of the datastore the CLI uses directly
type Store interface {
	Migrate(ctx context.Context) error
	AuditLog() audit.Searcher
}

// Queue reports pending kick jobs. *jobs.RedisQueue implements it.
type Queue interface {
	Len(ctx context.Context) (int64, error)
	Due(ctx context.Context, now time.Time, limit int64) ([]*jobs.KickUsersJob, error)
}

// Deps are the connected components commands run against
type Deps struct {
	Router   *events.Router
	Settings settings.Provider
	Store    Store

	// Queue is nil unless the redis job backend is enabled
	Queue Queue
	Close func() error
}

// OpenFunc connects Deps on first use
type OpenFunc func(ctx context.Context) (*Deps, error)

// Env is shared by all commands of a tree
type Env struct {
	Ctx  context.Context
	Out  io.Writer
	Open OpenFunc
}

// NewRootCommand creates the root command
func NewRootCommand(env *Env) *Command {
	root := &Command{
		Name:        "chatprune",
		Description: "chatprune - chat channel membership reconciliation",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("chatprune", flag.ContinueOnError),
	}

	for _, cmd := range []*Command{
		newMigrateCommand(env),
		newCategoryUpdatedCommand(env),
		newDestroyedGroupCommand(env),
		newUserRemovedCommand(env),
		newAllowedGroupsChangedCommand(env),
		newOutsideAllowedGroupsCommand(env),
		newAuditCommand(env),
		newQueueCommand(env),
	} {
		root.Subcommands[cmd.Name] = cmd
	}

	return root
}

// Execute runs the subcommand named by args[0]
func (c *Command) Execute(out io.Writer, args []string) error {
	if len(args) == 0 {
		return c.usage(out)
	}

	if args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		return c.usage(out)
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		err := subcmd.Run(args[1:])
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	return fmt.Errorf("unknown command: %s", args[0])
}

// usage prints the command usage
func (c *Command) usage(out io.Writer) error {
	fmt.Fprintf(out, "Usage: %s <command> [args]\n\n", c.Name)
	fmt.Fprintf(out, "Commands:\n")

	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-24s %s\n", name, c.Subcommands[name].Description)
	}
	return nil
}

// newCommand builds a leaf command whose run receives parsed flags and
// connected deps
func newCommand(env *Env, name, description string, define func(fs *flag.FlagSet) func(deps *Deps) error) *Command {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.Out)
	run := define(fs)

	return &Command{
		Name:        name,
		Description: description,
		Flags:       fs,
		Run: func(args []string) error {
			if err := fs.Parse(args); err != nil {
				return err
			}
			deps, err := env.Open(env.Ctx)
			if err != nil {
				return err
			}
			defer func() {
				if deps.Close != nil {
					deps.Close()
				}
			}()
			return run(deps)
		},
	}
}
