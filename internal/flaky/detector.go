// Package flaky classifies test reliability from bounded run history and
// infers likely root causes for unstable tests.
package flaky

import (
	"log/slog"
	"math"
	"time"

	"github.com/example/testmend/internal/domain"
)

// Signal identifies which analyzer contributed to a flaky classification.
type Signal string

const (
	SignalPattern    Signal = "pattern"
	SignalTiming     Signal = "timing"
	SignalDependency Signal = "dependency"
)

// Analysis is the full detector output for one test: the classification
// snapshot plus the per-signal strengths that produced it.
type Analysis struct {
	Test            domain.FlakyTest
	PassRate        float64
	TransitionRate  float64
	WindowSize      int
	SignalStrengths map[Signal]float64
}

// DominantSignal returns the strongest signal and its share of the total
// signal strength. Share is 0 when no signal fired.
func (a *Analysis) DominantSignal() (Signal, float64) {
	var best Signal
	bestVal, total := 0.0, 0.0
	for sig, v := range a.SignalStrengths {
		total += v
		if v > bestVal {
			bestVal, best = v, sig
		}
	}
	if total == 0 {
		return best, 0
	}
	return best, bestVal / total
}

// Detector classifies tests from recent run windows.
type Detector struct {
	cfg domain.DetectorConfig
	log *slog.Logger
}

// NewDetector creates a detector. Zero-value config fields fall back to
// defaults; a nil logger falls back to slog.Default.
func NewDetector(cfg domain.DetectorConfig, log *slog.Logger) *Detector {
	if log == nil {
		log = slog.Default()
	}
	return &Detector{cfg: cfg.WithDefaults(), log: log}
}

// Classify analyzes the most recent runs for a test. Runs must be ordered
// oldest first; only the last WindowSize entries are considered. Malformed
// records are skipped and logged, never fatal.
func (d *Detector) Classify(testID string, runs []domain.TestRun) Analysis {
	window := d.window(testID, runs)

	a := Analysis{
		Test: domain.FlakyTest{
			TestID:          testID,
			Status:          domain.FlakyStatusMonitoring,
			LastEvaluatedAt: time.Now().UTC(),
		},
		WindowSize:      len(window),
		SignalStrengths: map[Signal]float64{},
	}
	a.Test.ConsecutiveFailures = trailingFailures(window)

	if len(window) < d.cfg.MinRuns {
		return a
	}

	a.PassRate = passRate(window)
	a.TransitionRate = transitionRate(window)

	a.SignalStrengths[SignalPattern] = d.patternSignal(a.TransitionRate)
	a.SignalStrengths[SignalTiming] = timingSignal(window)
	a.SignalStrengths[SignalDependency] = dependencySignal(window)

	a.Test.FlakinessScore = d.flakinessScore(a)
	a.Test.Status = d.status(a)
	return a
}

// window validates and bounds the run history.
func (d *Detector) window(testID string, runs []domain.TestRun) []domain.TestRun {
	valid := make([]domain.TestRun, 0, len(runs))
	for _, r := range runs {
		if !r.Outcome.Valid() {
			d.log.Warn("skipping malformed run record",
				"test_id", testID, "run_id", r.RunID, "outcome", string(r.Outcome))
			continue
		}
		valid = append(valid, r)
	}
	if len(valid) > d.cfg.WindowSize {
		valid = valid[len(valid)-d.cfg.WindowSize:]
	}
	return valid
}

// patternSignal normalizes the transition rate against the flakiness
// threshold: 0 below half the threshold, saturating toward 1 as the rate
// approaches 100%. Monotonic in the transition rate so oscillation can
// never lower the score.
func (d *Detector) patternSignal(transitionRate float64) float64 {
	half := d.cfg.TransitionThreshold / 2
	if transitionRate <= half {
		return 0
	}
	sig := (transitionRate - half) / (1 - half)
	return clamp01(sig)
}

// flakinessScore blends the signals with pattern dominating, mirroring the
// classification rule that oscillation alone is enough to call a test
// flaky.
func (d *Detector) flakinessScore(a Analysis) float64 {
	score := 0.6*a.SignalStrengths[SignalPattern] +
		0.25*a.SignalStrengths[SignalTiming] +
		0.15*a.SignalStrengths[SignalDependency]
	// A test that never passes is broken, not flaky; a test that never
	// fails is stable. Either way the blended score stands on its own.
	return clamp01(score)
}

func (d *Detector) status(a Analysis) domain.FlakyStatus {
	switch {
	case a.TransitionRate > d.cfg.TransitionThreshold:
		// Oscillation is flaky regardless of overall pass rate.
		return domain.FlakyStatusFlaky
	case a.PassRate >= d.cfg.StablePassRate:
		return domain.FlakyStatusStable
	case a.SignalStrengths[SignalTiming] > 0.5 || a.SignalStrengths[SignalDependency] > 0.5:
		return domain.FlakyStatusFlaky
	default:
		return domain.FlakyStatusMonitoring
	}
}

func passRate(runs []domain.TestRun) float64 {
	if len(runs) == 0 {
		return 0
	}
	passes := 0
	for _, r := range runs {
		if r.Outcome == domain.OutcomePass {
			passes++
		}
	}
	return float64(passes) / float64(len(runs))
}

// transitionRate counts pass<->fail flips over adjacent pairs.
func transitionRate(runs []domain.TestRun) float64 {
	if len(runs) < 2 {
		return 0
	}
	transitions := 0
	for i := 1; i < len(runs); i++ {
		if runs[i].Outcome.Failed() != runs[i-1].Outcome.Failed() {
			transitions++
		}
	}
	return float64(transitions) / float64(len(runs)-1)
}

func trailingFailures(runs []domain.TestRun) int {
	n := 0
	for i := len(runs) - 1; i >= 0; i-- {
		if !runs[i].Outcome.Failed() {
			break
		}
		n++
	}
	return n
}

// timingSignal compares failing-run durations against passing-run
// durations. Failing runs clustering high, near the slowest observed run
// (a timeout boundary), point at timing-related flakiness. Runs without a
// measured duration are excluded.
func timingSignal(runs []domain.TestRun) float64 {
	var passDur, failDur []float64
	maxDur := 0.0
	for _, r := range runs {
		if r.DurationMS == nil {
			continue
		}
		d := float64(*r.DurationMS)
		if d > maxDur {
			maxDur = d
		}
		if r.Outcome.Failed() {
			failDur = append(failDur, d)
		} else {
			passDur = append(passDur, d)
		}
	}
	if len(passDur) < 2 || len(failDur) < 2 || maxDur == 0 {
		return 0
	}

	passMean, passVar := meanVar(passDur)
	failMean, failVar := meanVar(failDur)

	// Welch-style normalized distance between the two means.
	denom := math.Sqrt(passVar/float64(len(passDur)) + failVar/float64(len(failDur)))
	if denom == 0 {
		if failMean > passMean {
			return 1
		}
		return 0
	}
	t := (failMean - passMean) / denom
	if t <= 0 {
		// Failing runs are not slower; no timing story.
		return 0
	}
	separation := clamp01(t / 4) // t>=4 is unambiguous separation

	// Strengthen when failures sit near the timeout boundary.
	boundary := clamp01(failMean / maxDur)
	return clamp01(separation * boundary)
}

// dependencySignal measures failure concentration by environment. Failures
// piling into one environment beyond its share of total runs flag an
// external dependency tied to that environment.
func dependencySignal(runs []domain.TestRun) float64 {
	totalByEnv := map[string]int{}
	failsByEnv := map[string]int{}
	totalFails := 0
	for _, r := range runs {
		totalByEnv[r.Environment]++
		if r.Outcome.Failed() {
			failsByEnv[r.Environment]++
			totalFails++
		}
	}
	if totalFails < 2 || len(totalByEnv) < 2 {
		return 0
	}

	best := 0.0
	for env, fails := range failsByEnv {
		failShare := float64(fails) / float64(totalFails)
		runShare := float64(totalByEnv[env]) / float64(len(runs))
		excess := failShare - runShare
		if excess > best {
			best = excess
		}
	}
	// excess is bounded by 1-runShare; scale so full concentration in a
	// minority environment reads as a strong signal.
	return clamp01(best * 2)
}

func meanVar(xs []float64) (mean, variance float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	for _, x := range xs {
		variance += (x - mean) * (x - mean)
	}
	if len(xs) > 1 {
		variance /= float64(len(xs) - 1)
	}
	return mean, variance
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
