package domain

import "time"

// RunOutcome is the recorded result of one test execution.
type RunOutcome string

const (
	OutcomePass  RunOutcome = "pass"
	OutcomeFail  RunOutcome = "fail"
	OutcomeError RunOutcome = "error"
)

// Valid reports whether the outcome is one of the known values.
func (o RunOutcome) Valid() bool {
	return o == OutcomePass || o == OutcomeFail || o == OutcomeError
}

// Failed reports whether the outcome counts against the test. Errors are
// treated as failures for classification purposes.
func (o RunOutcome) Failed() bool {
	return o == OutcomeFail || o == OutcomeError
}

// TestRun is one append-only execution record, the sole input to flaky
// classification. DurationMS is nil when the harness could not measure the
// run; such records are excluded from timing analysis but still count for
// pass/fail statistics.
type TestRun struct {
	TestID      string
	RunID       string
	Outcome     RunOutcome
	DurationMS  *int64
	Environment string
	StartedAt   time.Time
}
