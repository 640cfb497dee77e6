package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/platinummonkey/chatprune/pkg/autoremove"
	"github.com/platinummonkey/chatprune/pkg/chat"
	"github.com/platinummonkey/chatprune/pkg/events"
	"github.com/platinummonkey/chatprune/pkg/jobs"
	"github.com/platinummonkey/chatprune/pkg/settings"
	"github.com/platinummonkey/chatprune/pkg/storage/sqlstore"
)

type fakeQueue struct {
	n      int64
	err    error
	dueErr error
}

func (q *fakeQueue) Len(ctx context.Context) (int64, error) {
	return q.n, q.err
}

func (q *fakeQueue) Due(ctx context.Context, now time.Time, limit int64) ([]*jobs.KickUsersJob, error) {
	return nil, q.dueErr
}

type cliHarness struct {
	out    *bytes.Buffer
	root   *Command
	fx     *sqlstore.Fixtures
	deps   *Deps
	opened int
	closed int
}

// newCLIHarness runs commands against a migrated SQLite store. Chat is
// allowed for staff only.
func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()

	store, db := sqlstore.NewTestStore(t)
	logger, _ := test.NewNullLogger()
	provider := settings.StaticProvider{Settings: chat.SiteSettings{
		ChatEnabled:       true,
		ChatAllowedGroups: chat.GroupList{chat.GroupStaff},
	}}
	engine := autoremove.New(store, nil, autoremove.Options{Logger: logger})

	h := &cliHarness{
		out: &bytes.Buffer{},
		fx:  sqlstore.NewFixtures(t, db),
	}
	h.deps = &Deps{
		Router:   events.NewRouter(engine, provider, logger, nil),
		Settings: provider,
		Store:    store,
		Close: func() error {
			h.closed++
			return nil
		},
	}
	h.root = NewRootCommand(&Env{
		Ctx: context.Background(),
		Out: h.out,
		Open: func(ctx context.Context) (*Deps, error) {
			h.opened++
			return h.deps, nil
		},
	})
	return h
}

func (h *cliHarness) run(args ...string) error {
	return h.root.Execute(h.out, args)
}

// seed creates a restricted category 1 writable by group 100 with channel
// 11, and a DM channel 21. Users 3 and 4 are members of both; only user 3
// is in group 100. Nobody is staff.
func (h *cliHarness) seed() {
	h.fx.User(chat.User{ID: 3, Username: "alice"})
	h.fx.User(chat.User{ID: 4, Username: "bob"})
	h.fx.Group(100, "writers", 3)
	h.fx.Category(1, true)
	h.fx.Grant(1, 100, chat.PermissionFull)
	h.fx.CategoryChannel(11, 1, 3, 4)
	h.fx.DMChannel(21, 3, 4)
}

var errOpen = errors.New("connection refused")
