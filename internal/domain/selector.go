package domain

import (
	"time"

	"github.com/example/testmend/pkg/id"
)

// SelectorType identifies the locator strategy behind a selector value.
type SelectorType string

const (
	SelectorTypeID            SelectorType = "id"
	SelectorTypeCSSClass      SelectorType = "css_class"
	SelectorTypeXPath         SelectorType = "xpath"
	SelectorTypeDataAttribute SelectorType = "data_attribute"
	SelectorTypeText          SelectorType = "text"
)

// ConfidenceLevel buckets a confidence score for display and gating.
type ConfidenceLevel string

const (
	ConfidenceLow    ConfidenceLevel = "low"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceHigh   ConfidenceLevel = "high"
)

// LevelForScore maps a confidence score to its bucket.
// Boundaries: <0.5 low, 0.5-0.85 medium, >=0.85 high.
func LevelForScore(score float64) ConfidenceLevel {
	switch {
	case score >= 0.85:
		return ConfidenceHigh
	case score >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Selector is a persisted locator strategy for a UI element, with a
// reliability score maintained across uses and healing attempts.
// Selectors are never deleted, only deactivated, so the healing history
// stays auditable.
type Selector struct {
	ID              string
	Value           string
	Type            SelectorType
	ConfidenceScore float64
	ConfidenceLevel ConfidenceLevel
	UsageCount      int
	SuccessCount    int
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewSelector creates an active selector with a neutral confidence prior.
func NewSelector(value string, typ SelectorType) *Selector {
	now := time.Now().UTC()
	return &Selector{
		ID:              id.Generate(),
		Value:           value,
		Type:            typ,
		ConfidenceScore: 0.5,
		ConfidenceLevel: ConfidenceMedium,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// RecordUse updates usage counters after the selector was exercised and
// recomputes the derived confidence level.
func (s *Selector) RecordUse(succeeded bool, score float64) {
	s.UsageCount++
	if succeeded {
		s.SuccessCount++
	}
	s.ConfidenceScore = clamp01(score)
	s.ConfidenceLevel = LevelForScore(s.ConfidenceScore)
	s.UpdatedAt = time.Now().UTC()
}

// Replace swaps in a healed value, resetting the usage counters that back
// historical reliability. The caller is responsible for persisting the
// previous value to the selector history.
func (s *Selector) Replace(value string, typ SelectorType, score float64) error {
	if !s.IsActive {
		return ErrSelectorInactive
	}
	s.Value = value
	s.Type = typ
	s.ConfidenceScore = clamp01(score)
	s.ConfidenceLevel = LevelForScore(s.ConfidenceScore)
	s.UsageCount = 1
	s.SuccessCount = 1
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Deactivate soft-deletes the selector.
func (s *Selector) Deactivate() {
	s.IsActive = false
	s.UpdatedAt = time.Now().UTC()
}

// Reliability returns the observed success ratio, or the neutral prior 0.5
// when the selector has never been used.
func (s *Selector) Reliability() float64 {
	if s.UsageCount == 0 {
		return 0.5
	}
	return float64(s.SuccessCount) / float64(s.UsageCount)
}

// SelectorHistoryEntry records one superseded value of a selector.
type SelectorHistoryEntry struct {
	ID         int64
	SelectorID string
	Value      string
	Type       SelectorType
	Confidence float64
	ReplacedAt time.Time
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
