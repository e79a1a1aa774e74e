package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/example/testmend/internal/candidates"
	"github.com/example/testmend/internal/domain"
	"github.com/example/testmend/internal/observability"
	"github.com/example/testmend/internal/scoring"
	"github.com/example/testmend/internal/storage"
)

// HealerService coordinates candidate generation and scoring when a
// selector fails to match, and decides whether to auto-replace it.
type HealerService struct {
	storage   storage.Storage
	generator *candidates.Generator
	scorer    *scoring.Scorer
	cfg       domain.HealerConfig
	metrics   *observability.Metrics
	log       *slog.Logger

	// locks serializes healing per selector id so parallel test workers
	// hitting the same broken element cannot produce duplicate
	// replacements.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewHealer creates a HealerService.
func NewHealer(store storage.Storage, cfg domain.HealerConfig, metrics *observability.Metrics, log *slog.Logger) *HealerService {
	if log == nil {
		log = slog.Default()
	}
	return &HealerService{
		storage:   store,
		generator: candidates.NewGenerator(),
		scorer:    scoring.NewScorer(domain.DefaultScorerConfig()),
		cfg:       cfg.WithDefaults(),
		metrics:   metrics,
		log:       log,
		locks:     map[string]*sync.Mutex{},
	}
}

// SetScorer overrides the default scorer, for tuned weights.
func (s *HealerService) SetScorer(sc *scoring.Scorer) {
	s.scorer = sc
}

// HealRequest is the request for Heal.
type HealRequest struct {
	SelectorID string
	Snapshot   candidates.DOMSnapshot

	// SessionID groups this attempt into an existing healing session.
	// Empty opens a single-attempt session that is closed immediately.
	SessionID string

	// Matches is an optional harness-supplied DOM probe for candidate
	// match counts. Nil means match counts are unknown and candidates are
	// assumed unique.
	Matches scoring.MatchCounter
}

// Heal runs one healing attempt. The returned result is also persisted;
// healing failures are encoded in the result status, not in the error.
// An error is returned only when the attempt could not be recorded at all.
func (s *HealerService) Heal(ctx context.Context, req *HealRequest) (*domain.HealingResult, error) {
	lock := s.selectorLock(req.SelectorID)
	lock.Lock()
	defer lock.Unlock()

	started := time.Now()
	var result *domain.HealingResult
	var err error
	for attempt := 1; ; attempt++ {
		result, err = s.attempt(ctx, req, attempt, started)
		if err == nil || attempt > s.cfg.MaxRetries || !retryable(err) {
			break
		}
		s.log.Warn("healing attempt conflicted, retrying",
			"selector_id", req.SelectorID, "attempt", attempt, "error", err)
	}
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.HealAttempts().Inc(string(result.Status))
		s.metrics.HealLatency().Observe(float64(result.HealingTimeMS))
	}
	s.log.Info("healing attempt recorded",
		"selector_id", req.SelectorID,
		"status", string(result.Status),
		"confidence", result.ConfidenceScore,
		"healed_value", result.HealedSelectorValue)
	return result, nil
}

// attempt runs the full attempt inside one transaction.
func (s *HealerService) attempt(ctx context.Context, req *HealRequest, attemptNo int, started time.Time) (*domain.HealingResult, error) {
	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	sel, err := uow.Selectors().Get(ctx, req.SelectorID)
	if err != nil {
		return nil, err
	}
	if !sel.IsActive {
		return nil, domain.ErrSelectorInactive
	}

	sessionID, newSession, err := s.resolveSession(ctx, uow, req.SessionID)
	if err != nil {
		return nil, err
	}

	result := domain.NewHealingResult(sessionID, sel.ID, sel.Value)
	result.Attempts = attemptNo

	// A selector the scorer still trusts failed transiently; replacing it
	// would trade a good locator for noise.
	if sel.ConfidenceScore >= s.cfg.SkipThreshold {
		result.Status = domain.HealingStatusSkipped
		result.ConfidenceScore = sel.ConfidenceScore
	} else {
		s.decide(ctx, uow, sel, req, result)
	}

	result.HealingTimeMS = time.Since(started).Milliseconds()

	if err := s.record(ctx, uow, sessionID, newSession, result); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return result, nil
}

// decide generates and scores candidates, mutating sel and result with the
// outcome. Persistence of the selector happens here; the result row is
// written by the caller.
func (s *HealerService) decide(ctx context.Context, uow storage.UnitOfWork, sel *domain.Selector, req *HealRequest, result *domain.HealingResult) {
	cands := s.generator.Generate(req.Snapshot, sel.Value)
	if len(cands) == 0 {
		result.Status = domain.HealingStatusFailed
		result.Reason = domain.ReasonNoCandidates
		result.ConfidenceScore = 0
		return
	}

	bestIdx, bestScore := -1, -1.0
	for i, c := range cands {
		successes, uses, err := uow.Selectors().ValueStats(ctx, sel.ID, c.Value)
		if err != nil {
			s.log.Warn("value stats lookup failed, using neutral prior",
				"selector_id", sel.ID, "error", err)
			successes, uses = 0, 0
		}
		in := scoring.Input{
			Value:     c.Value,
			Baseline:  c.Baseline,
			Matches:   -1,
			Successes: successes,
			Uses:      uses,
		}
		if req.Matches != nil {
			in.Matches = req.Matches.CountMatches(c.Value)
		}
		if in.Matches < 0 {
			in.Matches = 1
		}
		score := s.scorer.Score(in)
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}

	best := cands[bestIdx]
	if bestScore < s.cfg.HealThreshold {
		// Never silently apply a low-confidence selector; surface for
		// manual review instead.
		result.Status = domain.HealingStatusFailed
		result.Reason = domain.ReasonLowConfidence
		result.ConfidenceScore = bestScore
		return
	}

	if err := s.applyReplacement(ctx, uow, sel, best, bestScore); err != nil {
		s.log.Error("failed to apply replacement",
			"selector_id", sel.ID, "error", err)
		result.Status = domain.HealingStatusFailed
		result.Reason = domain.ReasonLowConfidence
		result.ConfidenceScore = bestScore
		return
	}
	result.Status = domain.HealingStatusSuccess
	result.HealedSelectorValue = best.Value
	result.ConfidenceScore = bestScore
}

func (s *HealerService) applyReplacement(ctx context.Context, uow storage.UnitOfWork, sel *domain.Selector, best candidates.Candidate, score float64) error {
	entry := &domain.SelectorHistoryEntry{
		SelectorID: sel.ID,
		Value:      sel.Value,
		Type:       sel.Type,
		Confidence: sel.ConfidenceScore,
		ReplacedAt: time.Now().UTC(),
	}
	if err := uow.Selectors().AddHistory(ctx, entry); err != nil {
		return err
	}
	if err := sel.Replace(best.Value, best.Type, score); err != nil {
		return err
	}
	if err := uow.Selectors().Update(ctx, sel); err != nil {
		return err
	}
	return uow.Selectors().BumpValueStats(ctx, sel.ID, best.Value, true)
}

// resolveSession loads the requested session or opens an ad-hoc one for a
// standalone attempt.
func (s *HealerService) resolveSession(ctx context.Context, uow storage.UnitOfWork, sessionID string) (string, bool, error) {
	if sessionID != "" {
		sess, err := uow.Sessions().Get(ctx, sessionID)
		if err != nil {
			return "", false, err
		}
		if sess.Status.IsTerminal() {
			return "", false, domain.ErrSessionClosed
		}
		return sess.ID, false, nil
	}
	sess := domain.NewHealingSession()
	if err := uow.Sessions().Create(ctx, sess); err != nil {
		return "", false, err
	}
	return sess.ID, true, nil
}

// record writes the result and folds it into the session aggregates inside
// the caller's transaction, so parallel attempts cannot lose counter
// updates.
func (s *HealerService) record(ctx context.Context, uow storage.UnitOfWork, sessionID string, closeSession bool, result *domain.HealingResult) error {
	if err := uow.Results().Create(ctx, result); err != nil {
		return err
	}
	sess, err := uow.Sessions().Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := sess.RecordResult(result); err != nil {
		return err
	}
	if closeSession {
		if err := sess.Close(); err != nil {
			return err
		}
	}
	return uow.Sessions().Update(ctx, sess)
}

func (s *HealerService) selectorLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[id] = l
	return l
}

// retryable reports whether an attempt failure came from a write conflict
// with another process sharing the store, rather than from a domain error.
func retryable(err error) bool {
	if errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrSelectorInactive) ||
		errors.Is(err, domain.ErrSessionClosed) ||
		errors.Is(err, domain.ErrInvalidState) {
		return false
	}
	return true
}

// CreateSelector registers a selector when a test first references an
// element.
func (s *HealerService) CreateSelector(ctx context.Context, value string, typ domain.SelectorType) (*domain.Selector, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: selector value is required", domain.ErrInvalidArgument)
	}
	sel := domain.NewSelector(value, typ)

	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.Selectors().Create(ctx, sel); err != nil {
		return nil, fmt.Errorf("failed to create selector: %w", err)
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return sel, nil
}

// GetSelector retrieves a selector with its replacement history.
func (s *HealerService) GetSelector(ctx context.Context, id string) (*domain.Selector, []*domain.SelectorHistoryEntry, error) {
	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	sel, err := uow.Selectors().Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	history, err := uow.Selectors().History(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return sel, history, nil
}

// RecordSelectorUse updates a selector's reliability counters after the
// harness exercised it outside of healing.
func (s *HealerService) RecordSelectorUse(ctx context.Context, id string, succeeded bool) (*domain.Selector, error) {
	lock := s.selectorLock(id)
	lock.Lock()
	defer lock.Unlock()

	uow, err := s.storage.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	sel, err := uow.Selectors().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	successes, uses, err := uow.Selectors().ValueStats(ctx, sel.ID, sel.Value)
	if err != nil {
		return nil, err
	}
	if succeeded {
		successes++
	}
	uses++

	score := s.scorer.Score(scoring.Input{
		Value:     sel.Value,
		Baseline:  sel.ConfidenceScore,
		Matches:   1,
		Successes: successes,
		Uses:      uses,
	})
	sel.RecordUse(succeeded, score)

	if err := uow.Selectors().BumpValueStats(ctx, sel.ID, sel.Value, succeeded); err != nil {
		return nil, err
	}
	if err := uow.Selectors().Update(ctx, sel); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return sel, nil
}
