package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/testmend/internal/domain"
	"github.com/example/testmend/internal/storage"
)

func newStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { store.Close() })
	return store
}

func commit(t *testing.T, uow storage.UnitOfWork) {
	t.Helper()
	require.NoError(t, uow.Commit())
}

func TestSelectorRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	sel := domain.NewSelector("#submit-btn", domain.SelectorTypeID)
	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Selectors().Create(ctx, sel))
	commit(t, uow)

	uow, err = store.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()
	got, err := uow.Selectors().Get(ctx, sel.ID)
	require.NoError(t, err)
	assert.Equal(t, sel.Value, got.Value)
	assert.Equal(t, sel.Type, got.Type)
	assert.InDelta(t, sel.ConfidenceScore, got.ConfidenceScore, 1e-9)
	assert.True(t, got.IsActive)
}

func TestSelectorGetNotFound(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	_, err = uow.Selectors().Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSelectorUpdateNotFound(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	sel := domain.NewSelector("#x", domain.SelectorTypeID)
	assert.ErrorIs(t, uow.Selectors().Update(ctx, sel), domain.ErrNotFound)
}

func TestSelectorHistoryNewestFirst(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	sel := domain.NewSelector("#v1", domain.SelectorTypeID)
	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Selectors().Create(ctx, sel))
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i, v := range []string{"#v1", "#v2"} {
		require.NoError(t, uow.Selectors().AddHistory(ctx, &domain.SelectorHistoryEntry{
			SelectorID: sel.ID,
			Value:      v,
			Type:       domain.SelectorTypeID,
			Confidence: 0.4,
			ReplacedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	commit(t, uow)

	uow, err = store.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()
	history, err := uow.Selectors().History(ctx, sel.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "#v2", history[0].Value)
	assert.Equal(t, "#v1", history[1].Value)
}

func TestValueStatsUpsert(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	sel := domain.NewSelector("#x", domain.SelectorTypeID)
	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Selectors().Create(ctx, sel))

	// Unseen value reads as the zero state.
	successes, uses, err := uow.Selectors().ValueStats(ctx, sel.ID, "#x")
	require.NoError(t, err)
	assert.Zero(t, successes)
	assert.Zero(t, uses)

	require.NoError(t, uow.Selectors().BumpValueStats(ctx, sel.ID, "#x", true))
	require.NoError(t, uow.Selectors().BumpValueStats(ctx, sel.ID, "#x", true))
	require.NoError(t, uow.Selectors().BumpValueStats(ctx, sel.ID, "#x", false))
	commit(t, uow)

	uow, err = store.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()
	successes, uses, err = uow.Selectors().ValueStats(ctx, sel.ID, "#x")
	require.NoError(t, err)
	assert.Equal(t, 2, successes)
	assert.Equal(t, 3, uses)
}

func TestRunsRecentWindow(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	outcomes := []domain.RunOutcome{
		domain.OutcomePass, domain.OutcomeFail, domain.OutcomePass,
		domain.OutcomeError, domain.OutcomePass,
	}
	for i, o := range outcomes {
		dur := int64(1000 + i)
		run := &domain.TestRun{
			TestID:      "test-login",
			RunID:       string(rune('a' + i)),
			Outcome:     o,
			DurationMS:  &dur,
			Environment: "ci",
			StartedAt:   base.Add(time.Duration(i) * time.Minute),
		}
		if i == 3 {
			run.DurationMS = nil
		}
		require.NoError(t, uow.Runs().Append(ctx, run))
	}
	commit(t, uow)

	uow, err = store.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	// Limit smaller than history: the newest runs, returned oldest first.
	runs, err := uow.Runs().Recent(ctx, "test-login", 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, domain.OutcomePass, runs[0].Outcome)
	assert.Equal(t, domain.OutcomeError, runs[1].Outcome)
	assert.Equal(t, domain.OutcomePass, runs[2].Outcome)
	assert.Nil(t, runs[1].DurationMS)
	require.NotNil(t, runs[0].DurationMS)
	assert.Equal(t, int64(1002), *runs[0].DurationMS)

	ids, err := uow.Runs().TestIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"test-login"}, ids)
}

func TestFlakyUpsert(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	ft := &domain.FlakyTest{
		TestID:          "test-login",
		Status:          domain.FlakyStatusFlaky,
		FlakinessScore:  0.8,
		LastEvaluatedAt: time.Now().UTC(),
	}
	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.FlakyTests().Upsert(ctx, ft))
	commit(t, uow)

	// A second upsert replaces, not duplicates.
	ft.Status = domain.FlakyStatusQuarantined
	ft.FlakinessScore = 0.9
	uow, err = store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.FlakyTests().Upsert(ctx, ft))
	commit(t, uow)

	uow, err = store.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()
	got, err := uow.FlakyTests().Get(ctx, "test-login")
	require.NoError(t, err)
	assert.Equal(t, domain.FlakyStatusQuarantined, got.Status)
	assert.InDelta(t, 0.9, got.FlakinessScore, 1e-9)

	all, err := uow.FlakyTests().List(ctx, storage.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 1)

	filtered, err := uow.FlakyTests().List(ctx, storage.ListOptions{
		FlakyStatuses: []domain.FlakyStatus{domain.FlakyStatusStable},
	})
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestQuarantineActiveByTest(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	entry := domain.NewQuarantineEntry("test-login", domain.QuarantineReasonFlaky, 5)
	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Quarantine().Create(ctx, entry))
	commit(t, uow)
	require.NotZero(t, entry.ID)

	uow, err = store.Begin(ctx)
	require.NoError(t, err)
	active, err := uow.Quarantine().ActiveByTest(ctx, "test-login")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, active.ID)

	require.NoError(t, active.Exit())
	require.NoError(t, uow.Quarantine().Update(ctx, active))
	commit(t, uow)

	uow, err = store.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()
	_, err = uow.Quarantine().ActiveByTest(ctx, "test-login")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := uow.Quarantine().ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSessionListFiltersByStatus(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	open := domain.NewHealingSession()
	closed := domain.NewHealingSession()
	require.NoError(t, closed.Close())

	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, uow.Sessions().Create(ctx, open))
	require.NoError(t, uow.Sessions().Create(ctx, closed))
	commit(t, uow)

	uow, err = store.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	running, err := uow.Sessions().List(ctx, storage.ListOptions{
		SessionStatuses: []domain.SessionStatus{domain.SessionStatusRunning},
	})
	require.NoError(t, err)
	require.Len(t, running, 1)
	assert.Equal(t, open.ID, running[0].ID)

	all, err := uow.Sessions().List(ctx, storage.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
