package flaky

import "github.com/example/testmend/internal/domain"

// causeRow is one entry in the root-cause decision table.
type causeRow struct {
	pattern        domain.CausePattern
	recommendation string
}

var causeTable = map[Signal]causeRow{
	SignalTiming: {
		pattern:        domain.CauseRaceCondition,
		recommendation: "Likely race condition: failing runs are significantly slower than passing runs. Replace fixed sleeps with explicit waits on the condition under test and review timeout margins.",
	},
	SignalDependency: {
		pattern:        domain.CauseExternalDependency,
		recommendation: "Failures concentrate in specific environments, pointing at an unstable external dependency. Stub or mock the dependency, or pin the environment configuration.",
	},
	SignalPattern: {
		pattern:        domain.CauseNonDeterminism,
		recommendation: "Outcomes oscillate with no timing or environment correlation. Review assertions for order dependence, shared state between tests, and reliance on unseeded randomness.",
	},
}

// AnalyzeCause maps a flaky analysis to its likely root cause. Confidence
// is the dominant signal's share of total signal strength, i.e. how much of
// the observed instability that one signal explains. Returns nil when the
// test is not flaky or no signal fired.
func AnalyzeCause(a *Analysis) *domain.RootCause {
	if a.Test.Status != domain.FlakyStatusFlaky && a.Test.Status != domain.FlakyStatusQuarantined {
		return nil
	}
	sig, share := a.DominantSignal()
	if share == 0 {
		return nil
	}
	row := causeTable[sig]
	return &domain.RootCause{
		Pattern:        row.pattern,
		Confidence:     share,
		Recommendation: row.recommendation,
	}
}
