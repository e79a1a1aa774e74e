package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/testmend/internal/domain"
	"github.com/example/testmend/internal/flaky"
	"github.com/example/testmend/internal/observability"
	"github.com/example/testmend/internal/storage"
)

// ReliabilityService owns the run history write path, flaky classification
// and quarantine transitions.
type ReliabilityService struct {
	storage  storage.Storage
	detector *flaky.Detector
	cfg      domain.QuarantineConfig
	window   int
	metrics  *observability.Metrics
	log      *slog.Logger
}

// NewReliability creates a ReliabilityService.
func NewReliability(store storage.Storage, detectorCfg domain.DetectorConfig, quarantineCfg domain.QuarantineConfig, metrics *observability.Metrics, log *slog.Logger) *ReliabilityService {
	if log == nil {
		log = slog.Default()
	}
	detectorCfg = detectorCfg.WithDefaults()
	return &ReliabilityService{
		storage:  store,
		detector: flaky.NewDetector(detectorCfg, log),
		cfg:      quarantineCfg.WithDefaults(),
		window:   detectorCfg.WindowSize,
		metrics:  metrics,
		log:      log,
	}
}

// RecordRunRequest is the request for RecordRun, the sole write path into
// run history.
type RecordRunRequest struct {
	TestID      string
	RunID       string
	Outcome     domain.RunOutcome
	DurationMS  *int64
	Environment string
	StartedAt   time.Time
}

// RecordRun appends one run record. Malformed durations are stored as
// unknown rather than rejected; only a missing test id or unknown outcome
// is an error.
func (s *ReliabilityService) RecordRun(ctx context.Context, req *RecordRunRequest) error {
	if req.TestID == "" {
		return fmt.Errorf("%w: test id is required", domain.ErrInvalidArgument)
	}
	if !req.Outcome.Valid() {
		return fmt.Errorf("%w: unknown outcome %q", domain.ErrInvalidArgument, req.Outcome)
	}

	duration := req.DurationMS
	if duration != nil && *duration < 0 {
		s.log.Warn("run recorded with malformed duration, treating as unknown",
			"test_id", req.TestID, "run_id", req.RunID, "duration_ms", *duration)
		duration = nil
	}
	startedAt := req.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	run := &domain.TestRun{
		TestID:      req.TestID,
		RunID:       req.RunID,
		Outcome:     req.Outcome,
		DurationMS:  duration,
		Environment: req.Environment,
		StartedAt:   startedAt,
	}

	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.Runs().Append(ctx, run); err != nil {
		return fmt.Errorf("failed to append run: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RunsRecorded().Inc(string(req.Outcome))
	}
	return nil
}

// Classification bundles the classification snapshot with the inferred
// root cause for flaky tests.
type Classification struct {
	Test      *domain.FlakyTest
	RootCause *domain.RootCause
}

// Classify recomputes the reliability state of a test from its recent run
// window and applies quarantine transitions. Insufficient history yields
// the monitoring status, never an error.
func (s *ReliabilityService) Classify(ctx context.Context, testID string) (*Classification, error) {
	if testID == "" {
		return nil, fmt.Errorf("%w: test id is required", domain.ErrInvalidArgument)
	}

	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	runs, err := uow.Runs().Recent(ctx, testID, s.window)
	if err != nil {
		return nil, fmt.Errorf("failed to load run history: %w", err)
	}

	analysis := s.detector.Classify(testID, runs)
	cause := flaky.AnalyzeCause(&analysis)

	prev, err := uow.FlakyTests().Get(ctx, testID)
	if err != nil && err != domain.ErrNotFound {
		return nil, err
	}

	if err := s.applyQuarantine(ctx, uow, prev, &analysis, cause, runs); err != nil {
		return nil, err
	}

	if err := uow.FlakyTests().Upsert(ctx, &analysis.Test); err != nil {
		return nil, fmt.Errorf("failed to store classification: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	if s.metrics != nil {
		s.metrics.Classifications().Inc(string(analysis.Test.Status))
	}
	s.log.Info("test classified",
		"test_id", testID,
		"status", string(analysis.Test.Status),
		"flakiness_score", analysis.Test.FlakinessScore,
		"window", analysis.WindowSize)

	return &Classification{Test: &analysis.Test, RootCause: cause}, nil
}

// applyQuarantine overlays quarantine state transitions on the detector's
// classification.
func (s *ReliabilityService) applyQuarantine(ctx context.Context, uow storage.UnitOfWork, prev *domain.FlakyTest, analysis *flaky.Analysis, cause *domain.RootCause, runs []domain.TestRun) error {
	ft := &analysis.Test

	if prev != nil && prev.Status == domain.FlakyStatusQuarantined {
		if trailingPasses(runs) >= s.cfg.PassesToExit {
			return s.exitQuarantine(ctx, uow, ft)
		}
		ft.Status = domain.FlakyStatusQuarantined
		return nil
	}

	if prev != nil && prev.Status == domain.FlakyStatusResolved &&
		ft.Status != domain.FlakyStatusFlaky {
		// Resolved is sticky until the test relapses, so dashboards can
		// tell recovered tests from never-quarantined ones.
		ft.Status = domain.FlakyStatusResolved
		return nil
	}

	if ft.Status == domain.FlakyStatusFlaky &&
		ft.ConsecutiveFailures >= s.cfg.FailuresToEnter {
		return s.enterQuarantine(ctx, uow, ft, cause)
	}
	return nil
}

func (s *ReliabilityService) enterQuarantine(ctx context.Context, uow storage.UnitOfWork, ft *domain.FlakyTest, cause *domain.RootCause) error {
	// Re-entry after a relapse creates a fresh entry; the old closed one
	// stays for the audit trail.
	if _, err := uow.Quarantine().ActiveByTest(ctx, ft.TestID); err == nil {
		ft.Status = domain.FlakyStatusQuarantined
		return nil
	} else if err != domain.ErrNotFound {
		return err
	}

	reason := domain.QuarantineReasonUnknown
	if cause != nil {
		reason = domain.ReasonForCause(cause.Pattern)
	}
	entry := domain.NewQuarantineEntry(ft.TestID, reason, s.cfg.PassesToExit)
	if err := uow.Quarantine().Create(ctx, entry); err != nil {
		return fmt.Errorf("failed to create quarantine entry: %w", err)
	}
	ft.Status = domain.FlakyStatusQuarantined

	if s.metrics != nil {
		s.metrics.QuarantineActive().Add(1)
	}
	s.log.Info("test quarantined",
		"test_id", ft.TestID,
		"reason", string(reason),
		"consecutive_failures", ft.ConsecutiveFailures)
	return nil
}

func (s *ReliabilityService) exitQuarantine(ctx context.Context, uow storage.UnitOfWork, ft *domain.FlakyTest) error {
	entry, err := uow.Quarantine().ActiveByTest(ctx, ft.TestID)
	if err != nil && err != domain.ErrNotFound {
		return err
	}
	if entry != nil {
		if err := entry.Exit(); err != nil {
			return err
		}
		if err := uow.Quarantine().Update(ctx, entry); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.QuarantineActive().Add(-1)
		}
	}
	ft.Status = domain.FlakyStatusResolved
	s.log.Info("test resolved from quarantine", "test_id", ft.TestID)
	return nil
}

// QuarantineState returns the active quarantine entry for a test, or nil
// when the test is not quarantined. CI gating uses nil to mean the test
// blocks the pipeline normally.
func (s *ReliabilityService) QuarantineState(ctx context.Context, testID string) (*domain.QuarantineEntry, error) {
	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	entry, err := uow.Quarantine().ActiveByTest(ctx, testID)
	if err == domain.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// ListQuarantined returns all active quarantine entries.
func (s *ReliabilityService) ListQuarantined(ctx context.Context) ([]*domain.QuarantineEntry, error) {
	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	return uow.Quarantine().ListActive(ctx)
}

// ClassifyAll recomputes every test with recorded history, for the
// post-CI-run sweep. Individual failures are logged and skipped so one bad
// test cannot abort the sweep.
func (s *ReliabilityService) ClassifyAll(ctx context.Context) ([]*Classification, error) {
	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	ids, err := uow.Runs().TestIDs(ctx)
	uow.Rollback()
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	out := make([]*Classification, 0, len(ids))
	for _, id := range ids {
		c, err := s.Classify(ctx, id)
		if err != nil {
			s.log.Error("classification failed", "test_id", id, "error", err)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// trailingPasses counts consecutive passes at the end of the window.
func trailingPasses(runs []domain.TestRun) int {
	n := 0
	for i := len(runs) - 1; i >= 0; i-- {
		if runs[i].Outcome != domain.OutcomePass {
			break
		}
		n++
	}
	return n
}
