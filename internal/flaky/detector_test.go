package flaky

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/testmend/internal/domain"
)

// runsFromPattern builds a run history from a 'p'/'f'/'e' string, oldest
// first, with no durations and a single environment.
func runsFromPattern(pattern string) []domain.TestRun {
	out := make([]domain.TestRun, 0, len(pattern))
	start := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i, ch := range pattern {
		outcome := domain.OutcomePass
		switch ch {
		case 'f':
			outcome = domain.OutcomeFail
		case 'e':
			outcome = domain.OutcomeError
		}
		out = append(out, domain.TestRun{
			TestID:      "test-login",
			RunID:       fmt.Sprintf("run-%03d", i),
			Outcome:     outcome,
			Environment: "ci",
			StartedAt:   start.Add(time.Duration(i) * time.Minute),
		})
	}
	return out
}

func newTestDetector() *Detector {
	return NewDetector(domain.DefaultDetectorConfig(), nil)
}

func TestClassifyAlternatingIsFlaky(t *testing.T) {
	d := newTestDetector()
	a := d.Classify("test-login", runsFromPattern("pfpfp"))

	assert.Equal(t, domain.FlakyStatusFlaky, a.Test.Status)
	assert.InDelta(t, 1.0, a.TransitionRate, 1e-9)
	assert.InDelta(t, 0.6, a.PassRate, 1e-9)
	assert.Greater(t, a.Test.FlakinessScore, 0.5)
}

func TestClassifyBelowMinRunsIsMonitoring(t *testing.T) {
	d := newTestDetector()
	a := d.Classify("test-login", runsFromPattern("pfpf"))

	assert.Equal(t, domain.FlakyStatusMonitoring, a.Test.Status)
	assert.Equal(t, 4, a.WindowSize)
	assert.Zero(t, a.Test.FlakinessScore)
	assert.Empty(t, a.SignalStrengths)
}

func TestClassifyStable(t *testing.T) {
	d := newTestDetector()
	a := d.Classify("test-login", runsFromPattern("pppppppp"))

	assert.Equal(t, domain.FlakyStatusStable, a.Test.Status)
	assert.InDelta(t, 1.0, a.PassRate, 1e-9)
	assert.Zero(t, a.TransitionRate)
	assert.Zero(t, a.Test.ConsecutiveFailures)
}

func TestClassifyAlwaysFailingIsNotFlaky(t *testing.T) {
	// A test that never passes is broken; flagging it flaky would hide a
	// real regression behind a quarantine.
	d := newTestDetector()
	a := d.Classify("test-login", runsFromPattern("ffffff"))

	assert.Equal(t, domain.FlakyStatusMonitoring, a.Test.Status)
	assert.Equal(t, 6, a.Test.ConsecutiveFailures)
	assert.Zero(t, a.TransitionRate)
}

func TestClassifyErrorOutcomeCountsAsFailure(t *testing.T) {
	d := newTestDetector()
	a := d.Classify("test-login", runsFromPattern("pepep"))

	assert.Equal(t, domain.FlakyStatusFlaky, a.Test.Status)
	assert.InDelta(t, 1.0, a.TransitionRate, 1e-9)
}

func TestClassifySkipsMalformedRuns(t *testing.T) {
	d := newTestDetector()
	runs := runsFromPattern("pfpfp")
	runs = append(runs, domain.TestRun{TestID: "test-login", RunID: "bad", Outcome: "maybe"})

	a := d.Classify("test-login", runs)
	assert.Equal(t, 5, a.WindowSize)
	assert.Equal(t, domain.FlakyStatusFlaky, a.Test.Status)
}

func TestClassifyBoundsWindow(t *testing.T) {
	d := newTestDetector()
	// 15 old failures followed by 20 passes: only the window counts.
	runs := runsFromPattern(strings.Repeat("f", 15) + strings.Repeat("p", 20))

	a := d.Classify("test-login", runs)
	assert.Equal(t, domain.DefaultDetectorConfig().WindowSize, a.WindowSize)
	assert.Equal(t, domain.FlakyStatusStable, a.Test.Status)
}

func TestFlakinessScoreMonotonicInTransitions(t *testing.T) {
	// Same pass/fail counts, increasingly interleaved. More oscillation must
	// never lower the score.
	d := newTestDetector()
	patterns := []string{
		"ppppppppppffffffffff", // 1 transition
		"pppppfffffpppppfffff", // 3
		"ppffppffppffppffppff", // 9
		"pfpfpfpfpfpfpfpfpfpf", // 19
	}
	prev := -1.0
	for _, p := range patterns {
		a := d.Classify("test-login", runsFromPattern(p))
		assert.GreaterOrEqual(t, a.Test.FlakinessScore, prev, "pattern %q", p)
		prev = a.Test.FlakinessScore
	}
	assert.Greater(t, prev, 0.5, "full oscillation should score high")
}

func TestTimingSignalFlagsSlowFailures(t *testing.T) {
	d := newTestDetector()
	runs := runsFromPattern("ppppfff")
	durations := []int64{950, 1000, 1000, 1050, 4900, 5000, 5100}
	for i := range runs {
		dur := durations[i]
		runs[i].DurationMS = &dur
	}

	a := d.Classify("test-login", runs)
	require.Greater(t, a.SignalStrengths[SignalTiming], 0.5)
	assert.Equal(t, domain.FlakyStatusFlaky, a.Test.Status,
		"slow clustered failures near the timeout boundary are flaky")

	sig, share := a.DominantSignal()
	assert.Equal(t, SignalTiming, sig)
	assert.Greater(t, share, 0.5)
}

func TestTimingSignalNeedsTwoFailureSamples(t *testing.T) {
	d := newTestDetector()
	runs := runsFromPattern("ppppppf")
	durations := []int64{1000, 1000, 1000, 1000, 1000, 1000, 5000}
	for i := range runs {
		dur := durations[i]
		runs[i].DurationMS = &dur
	}

	a := d.Classify("test-login", runs)
	assert.Zero(t, a.SignalStrengths[SignalTiming],
		"one slow failure is an anecdote, not a signal")
}

func TestTimingSignalIgnoresUnmeasuredRuns(t *testing.T) {
	d := newTestDetector()
	// No durations anywhere: the signal stays silent instead of guessing.
	a := d.Classify("test-login", runsFromPattern("ppppfff"))
	assert.Zero(t, a.SignalStrengths[SignalTiming])
}

func TestDependencySignalFlagsEnvironmentConcentration(t *testing.T) {
	d := newTestDetector()
	runs := runsFromPattern("ppppppppff")
	for i := range runs {
		if i < 8 {
			runs[i].Environment = "linux"
		} else {
			runs[i].Environment = "windows"
		}
	}

	a := d.Classify("test-login", runs)
	require.Greater(t, a.SignalStrengths[SignalDependency], 0.5)
	assert.Equal(t, domain.FlakyStatusFlaky, a.Test.Status)

	sig, _ := a.DominantSignal()
	assert.Equal(t, SignalDependency, sig)
}

func TestDependencySignalSilentForSingleEnvironment(t *testing.T) {
	d := newTestDetector()
	a := d.Classify("test-login", runsFromPattern("ppppppppff"))
	assert.Zero(t, a.SignalStrengths[SignalDependency])
}

func TestDominantSignalEmpty(t *testing.T) {
	a := &Analysis{SignalStrengths: map[Signal]float64{}}
	_, share := a.DominantSignal()
	assert.Zero(t, share)
}
