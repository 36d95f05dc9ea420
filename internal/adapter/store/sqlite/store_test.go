package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetze/ghaudit/internal/adapter/store/sqlite"
	"github.com/assetze/ghaudit/internal/domain"
	"github.com/assetze/ghaudit/internal/usecase/audit"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRun(id string, started time.Time) audit.StoreRun {
	return audit.StoreRun{
		ID:           id,
		Organization: "acme",
		StartedAt:    started,
		FinishedAt:   started.Add(30 * time.Second),
		ReposChecked: 2,
	}
}

func TestCreateRunAndRecentRuns(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	base := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateRun(ctx, sampleRun("run-1", base)))
	require.NoError(t, store.CreateRun(ctx, sampleRun("run-2", base.Add(time.Hour))))

	runs, err := store.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)
	assert.Equal(t, "acme", runs[0].Organization)
	assert.Equal(t, 2, runs[0].ReposChecked)
}

func TestCreateRun_DuplicateIDFails(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	run := sampleRun("run-1", time.Now())
	require.NoError(t, store.CreateRun(ctx, run))
	assert.Error(t, store.CreateRun(ctx, run))
}

func TestSaveAndLoadDependabotResults(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, sampleRun("run-1", time.Now())))

	results := []domain.DependabotStatus{
		{Owner: "acme", Repo: "a", Enabled: true, StatusText: "Enabled",
			Message: "Dependabot vulnerability alerts are ENABLED for acme/a.", StatusCode: 204},
		{Owner: "acme", Repo: "b", Enabled: false, StatusText: "Disabled/Not Found",
			Message: "Dependabot vulnerability alerts are DISABLED for acme/b or repository not found.", StatusCode: 404},
	}
	require.NoError(t, store.SaveDependabotResults(ctx, "run-1", results))

	loaded, err := store.DependabotResults(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "a", loaded[0].Repo)
	assert.True(t, loaded[0].Enabled)
	assert.Equal(t, 404, loaded[1].StatusCode)
}

func TestSaveDependabotResults_UnknownRunRejected(t *testing.T) {
	store := newStore(t)

	err := store.SaveDependabotResults(context.Background(), "missing", []domain.DependabotStatus{
		{Owner: "acme", Repo: "a", StatusText: "Enabled"},
	})
	assert.Error(t, err)
}

func TestSaveSummary(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateRun(ctx, sampleRun("run-1", time.Now())))
	require.NoError(t, store.SaveSummary(ctx, "run-1", domain.AuditSummary{
		Organization:       "acme",
		ReposChecked:       2,
		DependabotEnabled:  1,
		DependabotCoverage: 50.0,
		OrgRolesAudited:    true,
		RecommendedActions: []string{"Action: Improve Dependabot coverage."},
	}))
}

func TestSaveTokenCheck(t *testing.T) {
	store := newStore(t)

	err := store.SaveTokenCheck(context.Background(), time.Now(), domain.VerificationResult{
		Valid:      false,
		Scopes:     []string{},
		Message:    "Token is invalid or expired: Bad credentials",
		StatusCode: 401,
		Kind:       domain.KindUnauthorized,
	})
	require.NoError(t, err)
}
