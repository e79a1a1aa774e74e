package domain

import "fmt"

// ScorerConfig holds the weighted-sum parameters for confidence scoring.
type ScorerConfig struct {
	// StrategyWeight weights the generator's baseline strategy score.
	// Default: 0.4
	StrategyWeight float64 `yaml:"strategy_weight"`

	// SpecificityWeight weights the DOM-uniqueness penalty for selectors
	// matching more than one element.
	// Default: 0.2
	SpecificityWeight float64 `yaml:"specificity_weight"`

	// HistoryWeight weights historical success/usage reliability.
	// Default: 0.25
	HistoryWeight float64 `yaml:"history_weight"`

	// UniquenessWeight weights structural uniqueness in the DOM.
	// Default: 0.15
	UniquenessWeight float64 `yaml:"uniqueness_weight"`
}

// DefaultScorerConfig returns the default scoring weights.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		StrategyWeight:    0.4,
		SpecificityWeight: 0.2,
		HistoryWeight:     0.25,
		UniquenessWeight:  0.15,
	}
}

// Validate checks that the weights are sane and sum to 1.
func (c *ScorerConfig) Validate() error {
	for name, w := range map[string]float64{
		"StrategyWeight":    c.StrategyWeight,
		"SpecificityWeight": c.SpecificityWeight,
		"HistoryWeight":     c.HistoryWeight,
		"UniquenessWeight":  c.UniquenessWeight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: %s must be between 0 and 1, got %f",
				ErrInvalidConfig, name, w)
		}
	}
	sum := c.StrategyWeight + c.SpecificityWeight + c.HistoryWeight + c.UniquenessWeight
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("%w: scorer weights must sum to 1, got %f",
			ErrInvalidConfig, sum)
	}
	return nil
}

// WithDefaults returns a copy with defaults applied for zero values.
func (c ScorerConfig) WithDefaults() ScorerConfig {
	if c.StrategyWeight == 0 && c.SpecificityWeight == 0 &&
		c.HistoryWeight == 0 && c.UniquenessWeight == 0 {
		return DefaultScorerConfig()
	}
	return c
}

// HealerConfig holds the orchestrator's decision thresholds.
type HealerConfig struct {
	// SkipThreshold is the existing-selector confidence at or above which
	// healing is skipped. Guards against transient failures unrelated to
	// the selector.
	// Default: 0.85
	SkipThreshold float64 `yaml:"skip_threshold"`

	// HealThreshold is the minimum candidate confidence required to
	// auto-apply a replacement. Candidates below it are surfaced for
	// manual review instead.
	// Default: 0.85
	HealThreshold float64 `yaml:"heal_threshold"`

	// MaxRetries bounds re-evaluation after a concurrent healing conflict.
	// Default: 2
	MaxRetries int `yaml:"max_retries"`
}

// DefaultHealerConfig returns the default orchestrator thresholds.
func DefaultHealerConfig() HealerConfig {
	return HealerConfig{
		SkipThreshold: 0.85,
		HealThreshold: 0.85,
		MaxRetries:    2,
	}
}

// Validate checks the threshold ranges.
func (c *HealerConfig) Validate() error {
	if c.SkipThreshold < 0 || c.SkipThreshold > 1 {
		return fmt.Errorf("%w: SkipThreshold must be between 0 and 1, got %f",
			ErrInvalidConfig, c.SkipThreshold)
	}
	if c.HealThreshold < 0 || c.HealThreshold > 1 {
		return fmt.Errorf("%w: HealThreshold must be between 0 and 1, got %f",
			ErrInvalidConfig, c.HealThreshold)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("%w: MaxRetries must be between 0 and 10, got %d",
			ErrInvalidConfig, c.MaxRetries)
	}
	return nil
}

// WithDefaults returns a copy with defaults applied for zero values.
func (c HealerConfig) WithDefaults() HealerConfig {
	defaults := DefaultHealerConfig()
	if c.SkipThreshold == 0 {
		c.SkipThreshold = defaults.SkipThreshold
	}
	if c.HealThreshold == 0 {
		c.HealThreshold = defaults.HealThreshold
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	return c
}

// DetectorConfig holds the flaky-detection window and thresholds.
type DetectorConfig struct {
	// WindowSize is the number of most recent runs considered.
	// Default: 20
	WindowSize int `yaml:"window_size"`

	// MinRuns is the minimum window needed to classify at all; below it
	// the test stays in monitoring.
	// Default: 5
	MinRuns int `yaml:"min_runs"`

	// TransitionThreshold is the pass/fail transition rate over adjacent
	// pairs above which a test is flaky regardless of its pass rate.
	// Default: 0.30
	TransitionThreshold float64 `yaml:"transition_threshold"`

	// StablePassRate is the pass rate at or above which a low-transition
	// test is stable.
	// Default: 0.95
	StablePassRate float64 `yaml:"stable_pass_rate"`
}

// DefaultDetectorConfig returns the default detection parameters.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		WindowSize:          20,
		MinRuns:             5,
		TransitionThreshold: 0.30,
		StablePassRate:      0.95,
	}
}

// Validate checks the window and threshold ranges.
func (c *DetectorConfig) Validate() error {
	if c.MinRuns < 2 {
		return fmt.Errorf("%w: MinRuns must be at least 2, got %d",
			ErrInvalidConfig, c.MinRuns)
	}
	if c.WindowSize < c.MinRuns {
		return fmt.Errorf("%w: WindowSize must be at least MinRuns (%d), got %d",
			ErrInvalidConfig, c.MinRuns, c.WindowSize)
	}
	if c.TransitionThreshold <= 0 || c.TransitionThreshold >= 1 {
		return fmt.Errorf("%w: TransitionThreshold must be in (0,1), got %f",
			ErrInvalidConfig, c.TransitionThreshold)
	}
	if c.StablePassRate <= 0 || c.StablePassRate > 1 {
		return fmt.Errorf("%w: StablePassRate must be in (0,1], got %f",
			ErrInvalidConfig, c.StablePassRate)
	}
	return nil
}

// WithDefaults returns a copy with defaults applied for zero values.
func (c DetectorConfig) WithDefaults() DetectorConfig {
	defaults := DefaultDetectorConfig()
	if c.WindowSize == 0 {
		c.WindowSize = defaults.WindowSize
	}
	if c.MinRuns == 0 {
		c.MinRuns = defaults.MinRuns
	}
	if c.TransitionThreshold == 0 {
		c.TransitionThreshold = defaults.TransitionThreshold
	}
	if c.StablePassRate == 0 {
		c.StablePassRate = defaults.StablePassRate
	}
	return c
}

// QuarantineConfig holds the enter/exit thresholds for quarantine.
type QuarantineConfig struct {
	// FailuresToEnter is the consecutive-failure count on an already-flaky
	// test that triggers quarantine.
	// Default: 3
	FailuresToEnter int `yaml:"failures_to_enter"`

	// PassesToExit is the consecutive-pass count while quarantined that
	// resolves the test and re-enables gating.
	// Default: 5
	PassesToExit int `yaml:"passes_to_exit"`
}

// DefaultQuarantineConfig returns the default quarantine thresholds.
func DefaultQuarantineConfig() QuarantineConfig {
	return QuarantineConfig{
		FailuresToEnter: 3,
		PassesToExit:    5,
	}
}

// Validate checks the threshold ranges.
func (c *QuarantineConfig) Validate() error {
	if c.FailuresToEnter < 1 {
		return fmt.Errorf("%w: FailuresToEnter must be at least 1, got %d",
			ErrInvalidConfig, c.FailuresToEnter)
	}
	if c.PassesToExit < 1 {
		return fmt.Errorf("%w: PassesToExit must be at least 1, got %d",
			ErrInvalidConfig, c.PassesToExit)
	}
	return nil
}

// WithDefaults returns a copy with defaults applied for zero values.
func (c QuarantineConfig) WithDefaults() QuarantineConfig {
	defaults := DefaultQuarantineConfig()
	if c.FailuresToEnter == 0 {
		c.FailuresToEnter = defaults.FailuresToEnter
	}
	if c.PassesToExit == 0 {
		c.PassesToExit = defaults.PassesToExit
	}
	return c
}
