package service

import (
	"context"
	"testing"
	"time"

	"github.com/lymau/lead-app/internal/presales/entity"
	"github.com/lymau/lead-app/internal/presales/repository"
	"github.com/lymau/lead-app/internal/presales/testutil"
	"github.com/lymau/lead-app/internal/shared/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedVisibility submits one network deal by alice, one data center deal by alice and
// one data center deal by dina.
func seedVisibility(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()

	_, err := env.svc.Opportunity.SubmitOpportunity(ctx, wlanParent(), wlanLines()[:1])
	require.NoError(t, err)

	dc := wlanParent()
	dc.OpportunityName = "BRI Private Cloud"
	_, err = env.svc.Opportunity.SubmitOpportunity(ctx, dc, []LineInput{
		{Pillar: "Data Center", Solution: "Compute", Service: "Design", Brand: "Juniper", Cost: 750000},
	})
	require.NoError(t, err)

	own := wlanParent()
	own.PresalesName = testutil.UserDina
	own.ResponsibleName = "Citra"
	own.OpportunityName = "BNI Hyperconverged"
	_, err = env.svc.Opportunity.SubmitOpportunity(ctx, own, []LineInput{
		{Pillar: "Data Center", Solution: "Compute", Service: "Design", Brand: "Juniper", Cost: 250000},
	})
	require.NoError(t, err)
}

func namesOf(lines []entity.Opportunity) []string {
	var out []string
	for _, l := range lines {
		out = append(out, l.OpportunityName)
	}
	return out
}

func TestListVisible(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		seedVisibility(t, env)
		ctx := context.Background()

		alice, err := env.svc.Query.ListVisible(ctx, testutil.UserAlice)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"Bank Mandiri WLAN Refresh", "BRI Private Cloud"}, namesOf(alice))

		dina, err := env.svc.Query.ListVisible(ctx, testutil.UserDina)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"BRI Private Cloud", "BNI Hyperconverged"}, namesOf(dina))

		boss, err := env.svc.Query.ListVisible(ctx, testutil.UserBoss)
		require.NoError(t, err)
		assert.Len(t, boss, 3)

		_, err = env.svc.Query.ListVisible(ctx, "stranger")
		assert.True(t, apperror.Is(err, apperror.KindNotFound))

		_, err = env.svc.Query.ListVisible(ctx, "")
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})
}

func TestActivityLogs(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		seedVisibility(t, env)
		ctx := context.Background()

		alice, err := env.svc.Query.ActivityLogs(ctx, testutil.UserAlice)
		require.NoError(t, err)
		assert.Len(t, alice, 2)
		for _, l := range alice {
			assert.Equal(t, testutil.UserAlice, l.UserName)
		}

		boss, err := env.svc.Query.ActivityLogs(ctx, testutil.UserBoss)
		require.NoError(t, err)
		assert.Len(t, boss, 3)
	})
}

func TestActivityLogsLimit(t *testing.T) {
	env := newTestEnv(t, testutil.NewMemStore(), Options{ActivityLogLimit: 2})
	seedVisibility(t, env)

	logs, err := env.svc.Query.ActivityLogs(context.Background(), testutil.UserBoss)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.False(t, logs[0].Timestamp.Before(logs[1].Timestamp))
}

func TestSummary(t *testing.T) {
	forEachBackend(t, func(t *testing.T, env *testEnv) {
		ctx := context.Background()
		_, err := env.svc.Opportunity.SubmitOpportunity(ctx, wlanParent(), wlanLines())
		require.NoError(t, err)

		sum, err := env.svc.Query.Summary(ctx, "SG1Q10001")
		require.NoError(t, err)
		assert.Equal(t, "Bank Mandiri WLAN Refresh", sum.OpportunityName)
		assert.Equal(t, "Bank Mandiri", sum.CompanyName)
		assert.Equal(t, entity.StageOpen, sum.Stage)
		assert.Equal(t, 2, sum.TotalItems)
		assert.Equal(t, int64(1500000), sum.TotalCost)
		assert.Equal(t, "Rp 1.500.000", sum.TotalCostText)

		_, err = env.svc.Query.Summary(ctx, "SG1Q19999")
		assert.True(t, apperror.Is(err, apperror.KindNotFound))

		_, err = env.svc.Query.Summary(ctx, "")
		assert.True(t, apperror.Is(err, apperror.KindValidation))
	})
}

// stalledStore blocks line reads until the caller's context ends.
type stalledStore struct {
	repository.Store
}

func (s *stalledStore) SelectAll(ctx context.Context, _ repository.AccessFilter) ([]entity.Opportunity, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *stalledStore) SelectByUID(ctx context.Context, _ string) (*entity.Opportunity, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestReadTimeout(t *testing.T) {
	env := newTestEnv(t, &stalledStore{Store: testutil.NewMemStore()}, Options{ReadTimeout: 20 * time.Millisecond})
	ctx := context.Background()

	start := time.Now()
	_, err := env.svc.Query.ListVisible(ctx, testutil.UserAlice)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindStorage), "got %v", err)
	assert.True(t, apperror.IsRetryable(err))
	assert.Less(t, time.Since(start), 2*time.Second)

	_, err = env.svc.Query.GetByUID(ctx, "SG1Q10001-NW1D1CSC-1")
	assert.True(t, apperror.Is(err, apperror.KindStorage), "got %v", err)
}
