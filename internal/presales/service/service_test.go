package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lymau/lead-app/internal/presales/entity"
	"github.com/lymau/lead-app/internal/presales/pricing"
	"github.com/lymau/lead-app/internal/presales/repository"
	"github.com/lymau/lead-app/internal/presales/testutil"
	"github.com/lymau/lead-app/internal/shared/metrics"
	"github.com/lymau/lead-app/internal/shared/notify"
	"github.com/stretchr/testify/require"
)

const clockBase = int64(1791849600000000000)

var wib = time.FixedZone("WIB", 7*60*60)

// seqClock hands out clockBase+1, clockBase+2, ...
type seqClock struct{ n atomic.Int64 }

func (c *seqClock) Next() int64 { return clockBase + c.n.Add(1) }

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notify.OpportunityCreated
	err     error
}

func (r *recordingNotifier) OpportunityCreated(_ context.Context, n notify.OpportunityCreated) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return r.err
}

type testEnv struct {
	store    repository.Store
	svc      *Services
	metrics  *metrics.Metrics
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T, store repository.Store, opts Options) *testEnv {
	t.Helper()
	env := &testEnv{store: store, metrics: metrics.New(), notifier: &recordingNotifier{}}
	env.svc = NewServices(Deps{
		Store:     store,
		Converter: pricing.NewConverter(16500, map[string]float64{"Cisco": 0.5}),
		Notifier:  env.notifier,
		Metrics:   env.metrics,
		Clock:     &seqClock{},
	}, opts)
	return env
}

// forEachBackend runs fn against the in-memory store and a migrated sqlite database.
func forEachBackend(t *testing.T, fn func(t *testing.T, env *testEnv)) {
	forEachStore(t, func(t *testing.T, store repository.Store) {
		fn(t, newTestEnv(t, store, Options{}))
	})
}

// forEachStore hands fn the bare store of each backend so a test can wrap it.
func forEachStore(t *testing.T, fn func(t *testing.T, store repository.Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, testutil.NewMemStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		testutil.SeedMaster(t, db)
		fn(t, repository.NewRepositories(db))
	})
}

func wlanParent() ParentInput {
	return ParentInput{
		PresalesName:     testutil.UserAlice,
		SalesGroupID:     "SG1",
		SalesName:        "Sari",
		OpportunityName:  "Bank Mandiri WLAN Refresh",
		StartDate:        "2026-10-01",
		CompanyName:      "Bank Mandiri",
		VerticalIndustry: "Banking",
	}
}

func wlanLines() []LineInput {
	return []LineInput{
		{Pillar: "Network", Solution: "WLAN", Service: "Design", Brand: "Cisco", Channel: "Distributor", Cost: 1000000, Notes: "phase 1"},
		{Pillar: "Network", Solution: "WLAN", Service: "Install", Brand: "Juniper", Cost: 500000},
	}
}

func editInputFrom(o *entity.Opportunity) FullEditInput {
	return FullEditInput{
		SalesGroupID:     o.SalesGroupID,
		SalesName:        o.SalesName,
		ResponsibleName:  o.ResponsibleName,
		Pillar:           o.Pillar,
		Solution:         o.Solution,
		Service:          o.Service,
		Brand:            o.Brand,
		CompanyName:      o.CompanyName,
		VerticalIndustry: o.VerticalIndustry,
		DistributorName:  o.DistributorName,
	}
}

func allLogs(t *testing.T, store repository.Store) []entity.ActivityLog {
	t.Helper()
	logs, err := store.ListAuditLogs(context.Background(), repository.AccessFilter{Privileged: true}, 0)
	require.NoError(t, err)
	return logs
}

func logsWithAction(logs []entity.ActivityLog, action string) []entity.ActivityLog {
	var out []entity.ActivityLog
	for _, l := range logs {
		if l.Action == action {
			out = append(out, l)
		}
	}
	return out
}

func fieldsOf(logs []entity.ActivityLog) []string {
	var out []string
	for _, l := range logs {
		out = append(out, l.Field)
	}
	return out
}

func uidSuffix(uid string) string {
	return uid[strings.LastIndex(uid, "-")+1:]
}
