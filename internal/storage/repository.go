package storage

import (
	"context"

	"github.com/example/testmend/internal/domain"
)

// ListOptions provides filtering options for list operations.
type ListOptions struct {
	// Statuses to filter by (empty = all)
	SessionStatuses []domain.SessionStatus
	FlakyStatuses   []domain.FlakyStatus

	// Pagination
	Limit  int
	Offset int
}

// SelectorRepository provides access to Selector storage.
type SelectorRepository interface {
	// Create creates a new Selector.
	Create(ctx context.Context, sel *domain.Selector) error

	// Get retrieves a Selector by ID.
	Get(ctx context.Context, id string) (*domain.Selector, error)

	// Update updates an existing Selector.
	Update(ctx context.Context, sel *domain.Selector) error

	// List lists selectors, most recently updated first.
	List(ctx context.Context, opts ListOptions) ([]*domain.Selector, error)

	// AddHistory records a superseded selector value.
	AddHistory(ctx context.Context, entry *domain.SelectorHistoryEntry) error

	// History lists superseded values for a selector, newest first.
	History(ctx context.Context, selectorID string) ([]*domain.SelectorHistoryEntry, error)

	// ValueStats returns observed (successes, uses) for a selector value
	// on this element. Unseen values return (0, 0).
	ValueStats(ctx context.Context, selectorID, value string) (successes, uses int, err error)

	// BumpValueStats increments the per-value usage counters.
	BumpValueStats(ctx context.Context, selectorID, value string, succeeded bool) error
}

// SessionRepository provides access to HealingSession storage.
type SessionRepository interface {
	// Create creates a new HealingSession.
	Create(ctx context.Context, s *domain.HealingSession) error

	// Get retrieves a HealingSession by ID.
	Get(ctx context.Context, id string) (*domain.HealingSession, error)

	// Update updates an existing HealingSession.
	Update(ctx context.Context, s *domain.HealingSession) error

	// List lists sessions, most recently started first.
	List(ctx context.Context, opts ListOptions) ([]*domain.HealingSession, error)
}

// ResultRepository provides access to HealingResult storage. Results are
// immutable once written.
type ResultRepository interface {
	// Create writes a HealingResult.
	Create(ctx context.Context, r *domain.HealingResult) error

	// ListBySession lists results for one session, oldest first.
	ListBySession(ctx context.Context, sessionID string) ([]*domain.HealingResult, error)
}

// RunRepository is the append-only run history consumed by the flaky
// detector.
type RunRepository interface {
	// Append stores one run record.
	Append(ctx context.Context, run *domain.TestRun) error

	// Recent returns up to limit most recent runs for a test, ordered
	// oldest first.
	Recent(ctx context.Context, testID string, limit int) ([]domain.TestRun, error)

	// TestIDs lists the distinct test ids present in the history.
	TestIDs(ctx context.Context) ([]string, error)
}

// FlakyRepository stores recomputed flaky classifications.
type FlakyRepository interface {
	// Upsert writes the classification snapshot for a test.
	Upsert(ctx context.Context, ft *domain.FlakyTest) error

	// Get retrieves the snapshot for a test.
	Get(ctx context.Context, testID string) (*domain.FlakyTest, error)

	// List lists snapshots with optional status filtering.
	List(ctx context.Context, opts ListOptions) ([]*domain.FlakyTest, error)
}

// QuarantineRepository provides access to QuarantineEntry storage.
type QuarantineRepository interface {
	// Create creates a new entry.
	Create(ctx context.Context, q *domain.QuarantineEntry) error

	// ActiveByTest returns the active entry for a test, or ErrNotFound.
	ActiveByTest(ctx context.Context, testID string) (*domain.QuarantineEntry, error)

	// Update updates an entry (used to close it).
	Update(ctx context.Context, q *domain.QuarantineEntry) error

	// ListActive lists all active entries, oldest first.
	ListActive(ctx context.Context) ([]*domain.QuarantineEntry, error)
}

// UnitOfWork provides transactional access to all repositories.
type UnitOfWork interface {
	// Repository accessors
	Selectors() SelectorRepository
	Sessions() SessionRepository
	Results() ResultRepository
	Runs() RunRepository
	FlakyTests() FlakyRepository
	Quarantine() QuarantineRepository

	// Transaction control
	Commit() error
	Rollback() error
}

// Storage provides the main entry point for storage operations.
type Storage interface {
	// Begin starts a new transaction and returns a UnitOfWork.
	Begin(ctx context.Context) (UnitOfWork, error)

	// Close closes the storage connection.
	Close() error

	// Migrate runs database migrations.
	Migrate(ctx context.Context) error
}
