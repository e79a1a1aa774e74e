package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScorerConfigValidate(t *testing.T) {
	cfg := DefaultScorerConfig()
	require.NoError(t, cfg.Validate())

	cfg.StrategyWeight = 0.9 // sum no longer 1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultScorerConfig()
	cfg.HistoryWeight = -0.1
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestHealerConfigValidate(t *testing.T) {
	cfg := DefaultHealerConfig()
	require.NoError(t, cfg.Validate())

	cfg.SkipThreshold = 1.5
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultHealerConfig()
	cfg.MaxRetries = 99
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestDetectorConfigValidate(t *testing.T) {
	cfg := DefaultDetectorConfig()
	require.NoError(t, cfg.Validate())

	cfg.WindowSize = 3 // smaller than MinRuns
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)

	cfg = DefaultDetectorConfig()
	cfg.TransitionThreshold = 1.2
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestQuarantineConfigValidate(t *testing.T) {
	cfg := DefaultQuarantineConfig()
	require.NoError(t, cfg.Validate())

	cfg.FailuresToEnter = 0
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

func TestConfigWithDefaults(t *testing.T) {
	assert.Equal(t, DefaultScorerConfig(), ScorerConfig{}.WithDefaults())
	assert.Equal(t, DefaultHealerConfig(), HealerConfig{}.WithDefaults())
	assert.Equal(t, DefaultDetectorConfig(), DetectorConfig{}.WithDefaults())
	assert.Equal(t, DefaultQuarantineConfig(), QuarantineConfig{}.WithDefaults())

	// Partially set configs keep their explicit values.
	cfg := DetectorConfig{WindowSize: 50}.WithDefaults()
	assert.Equal(t, 50, cfg.WindowSize)
	assert.Equal(t, 5, cfg.MinRuns)
}
