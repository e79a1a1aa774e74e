package domain

import "time"

// FlakyStatus is the reliability classification of a test.
type FlakyStatus string

const (
	FlakyStatusStable      FlakyStatus = "stable"
	FlakyStatusMonitoring  FlakyStatus = "monitoring"
	FlakyStatusFlaky       FlakyStatus = "flaky"
	FlakyStatusQuarantined FlakyStatus = "quarantined"
	FlakyStatusResolved    FlakyStatus = "resolved"
)

// FlakyTest is the recomputed reliability snapshot for a test. The
// flakiness score is derived from a bounded recent window of runs so stale
// history cannot dominate the classification.
type FlakyTest struct {
	TestID              string
	Status              FlakyStatus
	FlakinessScore      float64
	ConsecutiveFailures int
	LastEvaluatedAt     time.Time
}

// CausePattern is the inferred category of instability behind a flaky test.
type CausePattern string

const (
	CauseRaceCondition      CausePattern = "race_condition"
	CauseExternalDependency CausePattern = "external_dependency"
	CauseNonDeterminism     CausePattern = "non_deterministic_logic"
)

// RootCause maps a flaky classification to a likely cause and a remediation
// hint for the dashboard.
type RootCause struct {
	Pattern        CausePattern
	Confidence     float64
	Recommendation string
}
