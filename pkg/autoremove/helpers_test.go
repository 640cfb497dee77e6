package autoremove

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/platinummonkey/chatprune/pkg/chat"
	"github.com/platinummonkey/chatprune/pkg/jobs"
	"github.com/platinummonkey/chatprune/pkg/observability"
	"github.com/platinummonkey/chatprune/pkg/storage/sqlstore"
)

// Fixture ids
const (
	admin1 int64 = 1
	admin2 int64 = 2
	user1  int64 = 3
	user2  int64 = 4
	user3  int64 = 5
	user4  int64 = 6

	group1 int64 = 100
	group2 int64 = 101

	category1 int64 = 1
	category2 int64 = 2

	channel1 int64 = 11
	channel2 int64 = 12
	dm1      int64 = 21
	dm2      int64 = 22
)

type recordingDispatcher struct {
	mu   sync.Mutex
	jobs []*jobs.KickUsersJob
	err  error
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, job *jobs.KickUsersJob) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, job)
	return nil
}

func (d *recordingDispatcher) Close() error {
	return nil
}

func (d *recordingDispatcher) dispatched() []*jobs.KickUsersJob {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*jobs.KickUsersJob(nil), d.jobs...)
}

type harness struct {
	engine     *Engine
	store      *sqlstore.Store
	db         *sql.DB
	fx         *sqlstore.Fixtures
	dispatcher *recordingDispatcher
	metrics    *observability.Metrics
	logs       *test.Hook
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store, db := sqlstore.NewTestStore(t)
	logger, hook := test.NewNullLogger()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	dispatcher := &recordingDispatcher{}

	return &harness{
		engine: New(store, dispatcher, Options{
			Logger:  logger,
			Metrics: metrics,
		}),
		store:      store,
		db:         db,
		fx:         sqlstore.NewFixtures(t, db),
		dispatcher: dispatcher,
		metrics:    metrics,
		logs:       hook,
	}
}

// seedUsers creates two admins and four regular users
func (h *harness) seedUsers() {
	h.fx.User(chat.User{ID: admin1, Username: "admin1", Admin: true})
	h.fx.User(chat.User{ID: admin2, Username: "admin2", Moderator: true})
	h.fx.User(chat.User{ID: user1, Username: "user1"})
	h.fx.User(chat.User{ID: user2, Username: "user2"})
	h.fx.User(chat.User{ID: user3, Username: "user3"})
	h.fx.User(chat.User{ID: user4, Username: "user4"})
}

func siteWith(groups ...int64) chat.SiteSettings {
	return chat.SiteSettings{
		ChatEnabled:       true,
		ChatAllowedGroups: chat.GroupList(groups).Normalize(),
	}
}

func everyoneSite() chat.SiteSettings {
	return siteWith(chat.GroupEveryone)
}
