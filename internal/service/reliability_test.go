package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/testmend/internal/domain"
	"github.com/example/testmend/internal/storage"
)

func newTestReliability(t *testing.T) (*ReliabilityService, storage.Storage) {
	t.Helper()
	store := newTestStore(t)
	svc := NewReliability(store, domain.DefaultDetectorConfig(), domain.DefaultQuarantineConfig(), nil, nil)
	return svc, store
}

// recordPattern appends one run per 'p'/'f'/'e' character.
func recordPattern(t *testing.T, svc *ReliabilityService, testID, pattern string) {
	t.Helper()
	ctx := context.Background()
	for i, ch := range pattern {
		outcome := domain.OutcomePass
		switch ch {
		case 'f':
			outcome = domain.OutcomeFail
		case 'e':
			outcome = domain.OutcomeError
		}
		require.NoError(t, svc.RecordRun(ctx, &RecordRunRequest{
			TestID:      testID,
			RunID:       fmt.Sprintf("%s-%d-%d", testID, time.Now().UnixNano(), i),
			Outcome:     outcome,
			Environment: "ci",
		}))
	}
}

func TestRecordRunValidation(t *testing.T) {
	svc, _ := newTestReliability(t)
	ctx := context.Background()

	err := svc.RecordRun(ctx, &RecordRunRequest{Outcome: domain.OutcomePass})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	err = svc.RecordRun(ctx, &RecordRunRequest{TestID: "t", Outcome: "maybe"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestRecordRunMalformedDurationStoredAsUnknown(t *testing.T) {
	svc, store := newTestReliability(t)
	ctx := context.Background()

	bad := int64(-50)
	require.NoError(t, svc.RecordRun(ctx, &RecordRunRequest{
		TestID:     "test-checkout",
		RunID:      "run-1",
		Outcome:    domain.OutcomeError,
		DurationMS: &bad,
	}))

	uow, err := store.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()
	runs, err := uow.Runs().Recent(ctx, "test-checkout", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Nil(t, runs[0].DurationMS)
	assert.Equal(t, domain.OutcomeError, runs[0].Outcome)
	assert.False(t, runs[0].StartedAt.IsZero())
}

func TestClassifyInsufficientHistory(t *testing.T) {
	svc, _ := newTestReliability(t)
	recordPattern(t, svc, "test-new", "pfp")

	c, err := svc.Classify(context.Background(), "test-new")
	require.NoError(t, err)
	assert.Equal(t, domain.FlakyStatusMonitoring, c.Test.Status)
	assert.Nil(t, c.RootCause)
}

func TestClassifyStableTest(t *testing.T) {
	svc, _ := newTestReliability(t)
	recordPattern(t, svc, "test-solid", "pppppppppp")

	c, err := svc.Classify(context.Background(), "test-solid")
	require.NoError(t, err)
	assert.Equal(t, domain.FlakyStatusStable, c.Test.Status)
	assert.Nil(t, c.RootCause)
}

func TestClassifyFlakyWithRootCause(t *testing.T) {
	svc, _ := newTestReliability(t)
	recordPattern(t, svc, "test-login", "pfpfp")

	c, err := svc.Classify(context.Background(), "test-login")
	require.NoError(t, err)
	assert.Equal(t, domain.FlakyStatusFlaky, c.Test.Status)
	require.NotNil(t, c.RootCause)
	assert.Equal(t, domain.CauseNonDeterminism, c.RootCause.Pattern)
}

func TestQuarantineRoundTrip(t *testing.T) {
	svc, _ := newTestReliability(t)
	ctx := context.Background()
	const testID = "test-login"

	// Oscillating history ending in three straight failures: flaky and past
	// the quarantine entry threshold.
	recordPattern(t, svc, testID, "pfpfpfff")

	c, err := svc.Classify(ctx, testID)
	require.NoError(t, err)
	assert.Equal(t, domain.FlakyStatusQuarantined, c.Test.Status)
	assert.GreaterOrEqual(t, c.Test.ConsecutiveFailures, 3)

	entry, err := svc.QuarantineState(ctx, testID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, testID, entry.TestID)
	assert.Equal(t, domain.QuarantineReasonFlaky, entry.Reason)
	assert.Equal(t, "5 consecutive passes", entry.ExitCriteria)

	// Still short of the exit criteria: stays quarantined.
	recordPattern(t, svc, testID, "pppp")
	c, err = svc.Classify(ctx, testID)
	require.NoError(t, err)
	assert.Equal(t, domain.FlakyStatusQuarantined, c.Test.Status)

	// Fifth consecutive pass satisfies the exit criteria.
	recordPattern(t, svc, testID, "p")
	c, err = svc.Classify(ctx, testID)
	require.NoError(t, err)
	assert.Equal(t, domain.FlakyStatusResolved, c.Test.Status)

	entry, err = svc.QuarantineState(ctx, testID)
	require.NoError(t, err)
	assert.Nil(t, entry, "resolved tests gate the pipeline normally again")

	active, err := svc.ListQuarantined(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestResolvedIsStickyUntilRelapse(t *testing.T) {
	svc, _ := newTestReliability(t)
	ctx := context.Background()
	const testID = "test-search"

	recordPattern(t, svc, testID, "pfpfpfff")
	_, err := svc.Classify(ctx, testID)
	require.NoError(t, err)

	recordPattern(t, svc, testID, "ppppp")
	c, err := svc.Classify(ctx, testID)
	require.NoError(t, err)
	require.Equal(t, domain.FlakyStatusResolved, c.Test.Status)

	// Enough further passes to push the flaky stretch out of the window:
	// the detector would say stable, but resolved is reported so dashboards
	// can tell recovered tests apart.
	recordPattern(t, svc, testID, "ppppppppppppppp")
	c, err = svc.Classify(ctx, testID)
	require.NoError(t, err)
	assert.Equal(t, domain.FlakyStatusResolved, c.Test.Status)
}

func TestFlakyWithoutConsecutiveFailuresNotQuarantined(t *testing.T) {
	svc, _ := newTestReliability(t)
	ctx := context.Background()

	recordPattern(t, svc, "test-flaky", "pfpfp")
	c, err := svc.Classify(ctx, "test-flaky")
	require.NoError(t, err)
	assert.Equal(t, domain.FlakyStatusFlaky, c.Test.Status)

	entry, err := svc.QuarantineState(ctx, "test-flaky")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestQuarantineStateUnknownTest(t *testing.T) {
	svc, _ := newTestReliability(t)
	entry, err := svc.QuarantineState(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestClassifyAll(t *testing.T) {
	svc, _ := newTestReliability(t)
	ctx := context.Background()

	recordPattern(t, svc, "test-a", "pppppppp")
	recordPattern(t, svc, "test-b", "pfpfp")

	all, err := svc.ClassifyAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	byID := map[string]domain.FlakyStatus{}
	for _, c := range all {
		byID[c.Test.TestID] = c.Test.Status
	}
	assert.Equal(t, domain.FlakyStatusStable, byID["test-a"])
	assert.Equal(t, domain.FlakyStatusFlaky, byID["test-b"])
}
