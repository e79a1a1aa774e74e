package domain

import (
	"fmt"
	"time"
)

// QuarantineReason categorizes why a test was quarantined.
type QuarantineReason string

const (
	QuarantineReasonFlaky      QuarantineReason = "flaky"
	QuarantineReasonTiming     QuarantineReason = "timing"
	QuarantineReasonDependency QuarantineReason = "dependency"
	QuarantineReasonUnknown    QuarantineReason = "unknown"
)

// QuarantineEntry tracks a test excluded from CI gating. The test keeps
// executing and recording runs; it just stops blocking merges until the
// exit criteria are met.
type QuarantineEntry struct {
	ID           int64
	TestID       string
	Reason       QuarantineReason
	EnteredAt    time.Time
	ExitCriteria string
	ExitedAt     *time.Time
}

// NewQuarantineEntry creates an active entry for a test.
func NewQuarantineEntry(testID string, reason QuarantineReason, passesToExit int) *QuarantineEntry {
	return &QuarantineEntry{
		TestID:       testID,
		Reason:       reason,
		EnteredAt:    time.Now().UTC(),
		ExitCriteria: fmt.Sprintf("%d consecutive passes", passesToExit),
	}
}

// Active reports whether the entry still excludes the test from gating.
func (q *QuarantineEntry) Active() bool {
	return q.ExitedAt == nil
}

// Exit closes the entry.
func (q *QuarantineEntry) Exit() error {
	if q.ExitedAt != nil {
		return ErrInvalidState
	}
	now := time.Now().UTC()
	q.ExitedAt = &now
	return nil
}

// ReasonForCause maps a root-cause pattern to a quarantine reason.
func ReasonForCause(pattern CausePattern) QuarantineReason {
	switch pattern {
	case CauseRaceCondition:
		return QuarantineReasonTiming
	case CauseExternalDependency:
		return QuarantineReasonDependency
	case CauseNonDeterminism:
		return QuarantineReasonFlaky
	default:
		return QuarantineReasonUnknown
	}
}
