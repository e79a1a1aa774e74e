package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSelectorDefaults(t *testing.T) {
	s := NewSelector("#submit-btn", SelectorTypeID)
	assert.NotEmpty(t, s.ID)
	assert.True(t, s.IsActive)
	assert.InDelta(t, 0.5, s.ConfidenceScore, 1e-9)
	assert.Equal(t, ConfidenceMedium, s.ConfidenceLevel)
	assert.Zero(t, s.UsageCount)
}

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  ConfidenceLevel
	}{
		{0.0, ConfidenceLow},
		{0.49, ConfidenceLow},
		{0.5, ConfidenceMedium},
		{0.849, ConfidenceMedium},
		{0.85, ConfidenceHigh},
		{1.0, ConfidenceHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForScore(tt.score), "score %f", tt.score)
	}
}

func TestSelectorRecordUse(t *testing.T) {
	s := NewSelector("#submit-btn", SelectorTypeID)
	s.RecordUse(true, 0.9)
	s.RecordUse(true, 0.92)
	s.RecordUse(false, 0.3)

	assert.Equal(t, 3, s.UsageCount)
	assert.Equal(t, 2, s.SuccessCount)
	assert.InDelta(t, 0.3, s.ConfidenceScore, 1e-9)
	assert.Equal(t, ConfidenceLow, s.ConfidenceLevel)
	assert.InDelta(t, 2.0/3.0, s.Reliability(), 1e-9)
}

func TestSelectorReplaceResetsCounters(t *testing.T) {
	s := NewSelector("#old", SelectorTypeID)
	s.RecordUse(true, 0.9)
	s.RecordUse(false, 0.4)

	require.NoError(t, s.Replace(`button[data-testid="submit"]`, SelectorTypeDataAttribute, 0.855))
	assert.Equal(t, `button[data-testid="submit"]`, s.Value)
	assert.Equal(t, SelectorTypeDataAttribute, s.Type)
	assert.InDelta(t, 0.855, s.ConfidenceScore, 1e-9)
	assert.Equal(t, ConfidenceHigh, s.ConfidenceLevel)
	assert.Equal(t, 1, s.UsageCount)
	assert.Equal(t, 1, s.SuccessCount)
}

func TestSelectorReplaceInactive(t *testing.T) {
	s := NewSelector("#old", SelectorTypeID)
	s.Deactivate()
	err := s.Replace("#new", SelectorTypeID, 0.9)
	assert.ErrorIs(t, err, ErrSelectorInactive)
	assert.Equal(t, "#old", s.Value)
}

func TestReliabilityWithoutHistory(t *testing.T) {
	s := NewSelector("#x", SelectorTypeID)
	assert.InDelta(t, 0.5, s.Reliability(), 1e-9)
}
