// Package scoring assigns reliability scores to candidate and existing
// selectors using a weighted blend of strategy, specificity, history and
// uniqueness signals.
package scoring

import (
	"github.com/example/testmend/internal/domain"
)

// MatchCounter reports how many elements a selector value matches in the
// current DOM. The harness supplies this synchronously; the engine never
// drives a browser itself. A nil counter means match information is
// unavailable and selectors are assumed unique.
type MatchCounter interface {
	CountMatches(value string) int
}

// MatchCounterFunc adapts a function to the MatchCounter interface.
type MatchCounterFunc func(value string) int

func (f MatchCounterFunc) CountMatches(value string) int { return f(value) }

// HistoryLookup returns observed (successes, uses) for a selector value on
// this element. Unseen values return (0, 0) and score with a neutral prior.
type HistoryLookup interface {
	SelectorHistory(value string) (successes, uses int)
}

// Scorer computes confidence scores in [0, 1].
type Scorer struct {
	cfg domain.ScorerConfig
}

// NewScorer creates a scorer with the given weights. Zero-value weights
// fall back to defaults.
func NewScorer(cfg domain.ScorerConfig) *Scorer {
	return &Scorer{cfg: cfg.WithDefaults()}
}

// Input carries everything needed to score one selector value.
type Input struct {
	Value string

	// Baseline is the generating strategy's base score. For an existing
	// selector being re-scored, pass its current confidence.
	Baseline float64

	// Matches is the DOM match count for the value; -1 when unknown.
	Matches int

	// Successes and Uses are historical reliability counters; both zero
	// means no history and scores as the neutral 0.5 prior.
	Successes int
	Uses      int
}

// Score computes the blended confidence for one input. Output is always
// clamped to [0, 1]; a selector matching zero elements scores 0 regardless
// of the other signals, since it cannot locate anything.
func (s *Scorer) Score(in Input) float64 {
	if in.Matches == 0 {
		return 0
	}

	specificity := 1.0
	uniqueness := 1.0
	if in.Matches > 1 {
		// Each extra match halves the usable confidence contribution.
		specificity = 1.0 / float64(in.Matches)
		uniqueness = 0
	}

	history := 0.5
	if in.Uses > 0 {
		history = float64(in.Successes) / float64(in.Uses)
	}

	score := s.cfg.StrategyWeight*clamp01(in.Baseline) +
		s.cfg.SpecificityWeight*specificity +
		s.cfg.HistoryWeight*clamp01(history) +
		s.cfg.UniquenessWeight*uniqueness

	return clamp01(score)
}

// ScoreWith resolves match counts and history through the provided lookups
// before scoring. Either lookup may be nil.
func (s *Scorer) ScoreWith(value string, baseline float64, matches MatchCounter, history HistoryLookup) float64 {
	in := Input{Value: value, Baseline: baseline, Matches: -1}
	if matches != nil {
		in.Matches = matches.CountMatches(value)
	}
	if in.Matches < 0 {
		// No DOM probe available: assume the value is unique.
		in.Matches = 1
	}
	if history != nil {
		in.Successes, in.Uses = history.SelectorHistory(value)
	}
	return s.Score(in)
}

// Level buckets a score, mirroring domain.LevelForScore for callers that
// already hold a scorer.
func (s *Scorer) Level(score float64) domain.ConfidenceLevel {
	return domain.LevelForScore(score)
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
