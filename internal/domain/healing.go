package domain

import (
	"time"

	"github.com/example/testmend/pkg/id"
)

// SessionStatus tracks the state of a healing session.
type SessionStatus int

const (
	SessionStatusRunning SessionStatus = 10 // Attempts still resolving
	SessionStatusSuccess SessionStatus = 20 // All attempts healed or skipped
	SessionStatusPartial SessionStatus = 30 // Mixed healed and failed attempts
	SessionStatusFailed  SessionStatus = 40 // Every attempt failed
)

func (s SessionStatus) String() string {
	switch s {
	case SessionStatusRunning:
		return "RUNNING"
	case SessionStatusSuccess:
		return "SUCCESS"
	case SessionStatusPartial:
		return "PARTIAL"
	case SessionStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal returns true if the session can accept no further results.
func (s SessionStatus) IsTerminal() bool {
	return s != SessionStatusRunning
}

// HealingSession groups the healing attempts triggered together, typically
// by one suite run, and aggregates their outcomes.
type HealingSession struct {
	ID                string
	Status            SessionStatus
	TotalSelectors    int
	SuccessfulHeals   int
	FailedHeals       int
	AverageConfidence float64
	StartedAt         time.Time
	CompletedAt       *time.Time
}

// NewHealingSession creates a running session.
func NewHealingSession() *HealingSession {
	return &HealingSession{
		ID:        id.Generate(),
		Status:    SessionStatusRunning,
		StartedAt: time.Now().UTC(),
	}
}

// RecordResult folds one healing result into the session aggregates.
// The caller must hold the session inside a write transaction.
func (s *HealingSession) RecordResult(r *HealingResult) error {
	if s.Status.IsTerminal() {
		return ErrSessionClosed
	}
	s.TotalSelectors++
	switch r.Status {
	case HealingStatusSuccess:
		s.SuccessfulHeals++
	case HealingStatusFailed:
		s.FailedHeals++
	}
	// Running mean over all recorded attempts.
	n := float64(s.TotalSelectors)
	s.AverageConfidence += (r.ConfidenceScore - s.AverageConfidence) / n
	return nil
}

// Close finalizes the session status from its aggregates.
func (s *HealingSession) Close() error {
	if s.Status.IsTerminal() {
		return ErrSessionClosed
	}
	switch {
	case s.FailedHeals == 0:
		s.Status = SessionStatusSuccess
	case s.SuccessfulHeals == 0 && s.FailedHeals == s.TotalSelectors:
		s.Status = SessionStatusFailed
	default:
		s.Status = SessionStatusPartial
	}
	now := time.Now().UTC()
	s.CompletedAt = &now
	return nil
}

// HealingStatus is the outcome of a single healing attempt.
type HealingStatus string

const (
	HealingStatusSuccess HealingStatus = "success"
	HealingStatusSkipped HealingStatus = "skipped"
	HealingStatusFailed  HealingStatus = "failed"
)

// FailureReason distinguishes failed attempts for dashboards.
type FailureReason string

const (
	ReasonNone          FailureReason = ""
	ReasonNoCandidates  FailureReason = "no_candidates"
	ReasonLowConfidence FailureReason = "low_confidence"
)

// HealingResult is the immutable record of one healing attempt.
type HealingResult struct {
	ID                    string
	SessionID             string
	SelectorID            string
	OriginalSelectorValue string
	HealedSelectorValue   string
	Status                HealingStatus
	Reason                FailureReason
	ConfidenceScore       float64
	HealingTimeMS         int64
	Attempts              int
	CreatedAt             time.Time
}

// NewHealingResult creates a result record for an attempt on a selector.
func NewHealingResult(sessionID, selectorID, originalValue string) *HealingResult {
	return &HealingResult{
		ID:                    id.Generate(),
		SessionID:             sessionID,
		SelectorID:            selectorID,
		OriginalSelectorValue: originalValue,
		Attempts:              1,
		CreatedAt:             time.Now().UTC(),
	}
}
