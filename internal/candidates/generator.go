// Package candidates generates alternative locator strategies for a target
// element from a DOM snapshot supplied by the test harness.
package candidates

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/example/testmend/internal/domain"
)

// DOMSnapshot is the harness-supplied view of the target element and enough
// surrounding structure to derive locators. The engine never inspects a
// live DOM; everything it needs arrives here.
type DOMSnapshot struct {
	Tag        string
	Attributes map[string]string
	Text       string
	Ancestors  []AncestorNode // Nearest first
	SiblingIdx int            // Position among same-tag siblings, 0-based
	SiblingCnt int            // Number of same-tag siblings including self
}

// AncestorNode is one element on the path from the target to the root.
type AncestorNode struct {
	Tag        string
	Attributes map[string]string
}

// Candidate is one proposed selector with the baseline score of the
// strategy that produced it. The scorer refines the baseline with
// specificity, history and uniqueness signals.
type Candidate struct {
	Value    string
	Type     domain.SelectorType
	Baseline float64
}

// Generator produces ordered, deduplicated candidate selectors.
type Generator struct{}

// NewGenerator creates a Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// stableDataAttrs are attributes put in place specifically for tests;
// selectors built on them survive markup churn.
var stableDataAttrs = []string{"data-testid", "data-test", "data-qa", "data-cy"}

// Generate derives candidates from the snapshot, ordered by baseline score
// descending. The original broken selector is accepted for context only and
// never re-proposed. An empty snapshot yields an empty set; the caller
// treats that as unrecoverable for this attempt.
func (g *Generator) Generate(snap DOMSnapshot, original string) []Candidate {
	if snap.Tag == "" && len(snap.Attributes) == 0 && snap.Text == "" {
		return nil
	}

	var out []Candidate
	out = append(out, g.stableAttributeCandidates(snap)...)
	out = append(out, g.textCandidates(snap)...)
	out = append(out, g.classCandidates(snap)...)
	out = append(out, g.structuralCandidates(snap)...)

	out = dedupe(out, original)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Baseline > out[j].Baseline
	})
	return out
}

// stableAttributeCandidates covers data-test attributes and non-generated
// ids, the most churn-resistant strategies.
func (g *Generator) stableAttributeCandidates(snap DOMSnapshot) []Candidate {
	var out []Candidate
	for _, attr := range stableDataAttrs {
		if v, ok := snap.Attributes[attr]; ok && v != "" {
			out = append(out, Candidate{
				Value:    fmt.Sprintf(`%s[%s="%s"]`, snap.Tag, attr, v),
				Type:     domain.SelectorTypeDataAttribute,
				Baseline: 0.95,
			})
		}
	}
	if id, ok := snap.Attributes["id"]; ok && id != "" && !isGeneratedID(id) {
		out = append(out, Candidate{
			Value:    "#" + id,
			Type:     domain.SelectorTypeID,
			Baseline: 0.90,
		})
	}
	return out
}

// textCandidates covers ARIA labels, role+name, and visible text.
func (g *Generator) textCandidates(snap DOMSnapshot) []Candidate {
	var out []Candidate
	if label, ok := snap.Attributes["aria-label"]; ok && label != "" {
		out = append(out, Candidate{
			Value:    fmt.Sprintf(`%s[aria-label="%s"]`, snap.Tag, label),
			Type:     domain.SelectorTypeDataAttribute,
			Baseline: 0.85,
		})
	}
	if role, ok := snap.Attributes["role"]; ok && role != "" && snap.Text != "" {
		out = append(out, Candidate{
			Value:    fmt.Sprintf(`%s[role="%s"]:has-text("%s")`, snap.Tag, role, normalizeText(snap.Text)),
			Type:     domain.SelectorTypeText,
			Baseline: 0.83,
		})
	}
	if text := normalizeText(snap.Text); text != "" && len(text) <= 60 {
		out = append(out, Candidate{
			Value:    fmt.Sprintf(`%s:has-text("%s")`, snap.Tag, text),
			Type:     domain.SelectorTypeText,
			Baseline: 0.80,
		})
	}
	return out
}

// classCandidates proposes class selectors only when the class list is
// short and semantically named. Hashed and utility classes are rejected
// because they churn with every build or carry no element identity.
func (g *Generator) classCandidates(snap DOMSnapshot) []Candidate {
	raw, ok := snap.Attributes["class"]
	if !ok {
		return nil
	}
	classes := strings.Fields(raw)
	if len(classes) == 0 || len(classes) > 4 {
		return nil
	}
	var semantic []string
	for _, c := range classes {
		if isSemanticClass(c) {
			semantic = append(semantic, c)
		}
	}
	if len(semantic) == 0 {
		return nil
	}
	baseline := 0.80 - 0.02*float64(len(semantic)-1)
	return []Candidate{{
		Value:    snap.Tag + "." + strings.Join(semantic, "."),
		Type:     domain.SelectorTypeCSSClass,
		Baseline: baseline,
	}}
}

// structuralCandidates builds a relative XPath from the nearest stable
// ancestor, falling back to tag plus position.
func (g *Generator) structuralCandidates(snap DOMSnapshot) []Candidate {
	if snap.Tag == "" {
		return nil
	}
	anchor, depth := nearestStableAncestor(snap.Ancestors)
	position := ""
	if snap.SiblingCnt > 1 {
		position = fmt.Sprintf("[%d]", snap.SiblingIdx+1)
	}
	if anchor != "" {
		// Anchored paths are worth more than bare positional ones; a deep
		// path between anchor and target erodes the value.
		baseline := 0.75 - 0.03*float64(depth)
		if baseline < 0.62 {
			baseline = 0.62
		}
		return []Candidate{{
			Value:    fmt.Sprintf("%s//%s%s", anchor, snap.Tag, position),
			Type:     domain.SelectorTypeXPath,
			Baseline: baseline,
		}}
	}
	return []Candidate{{
		Value:    fmt.Sprintf("//%s%s", snap.Tag, position),
		Type:     domain.SelectorTypeXPath,
		Baseline: 0.60,
	}}
}

// nearestStableAncestor returns an XPath fragment for the closest ancestor
// carrying a stable attribute, and how many levels up it sits.
func nearestStableAncestor(ancestors []AncestorNode) (string, int) {
	for depth, a := range ancestors {
		for _, attr := range stableDataAttrs {
			if v, ok := a.Attributes[attr]; ok && v != "" {
				return fmt.Sprintf(`//%s[@%s="%s"]`, a.Tag, attr, v), depth
			}
		}
		if id, ok := a.Attributes["id"]; ok && id != "" && !isGeneratedID(id) {
			return fmt.Sprintf(`//%s[@id="%s"]`, a.Tag, id), depth
		}
	}
	return "", 0
}

var (
	digitRun  = regexp.MustCompile(`\d{4,}`)
	hexChunk  = regexp.MustCompile(`^[0-9a-f]{6,}$`)
	hashedCls = regexp.MustCompile(`(^css-|^sc-|_{2}|-{2}|[0-9a-f]{5,})`)
	// Framework-generated id prefixes. ":r" covers React useId output.
	generatedPrefixes = []string{"ember-", "react-", "ext-", "yui_", ":r", "radix-"}
)

// isGeneratedID flags ids that frameworks mint per render. Long digit runs,
// uuid-shaped chunks, and known framework prefixes all disqualify an id
// from being a healing target.
func isGeneratedID(id string) bool {
	lower := strings.ToLower(id)
	for _, p := range generatedPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	if digitRun.MatchString(id) {
		return true
	}
	if strings.Count(id, "-") >= 4 {
		// uuid-shaped
		return true
	}
	for _, part := range strings.Split(lower, "-") {
		if hexChunk.MatchString(part) {
			return true
		}
	}
	return false
}

// utilityPrefixes match atomic-CSS class conventions (Tailwind and kin).
var utilityPrefixes = []string{
	"m-", "mt-", "mb-", "ml-", "mr-", "mx-", "my-",
	"p-", "pt-", "pb-", "pl-", "pr-", "px-", "py-",
	"w-", "h-", "text-", "bg-", "flex-", "grid-", "gap-",
	"border-", "rounded-", "shadow-", "font-", "leading-",
}

func isSemanticClass(c string) bool {
	if hashedCls.MatchString(c) {
		return false
	}
	lower := strings.ToLower(c)
	for _, p := range utilityPrefixes {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	// Single-letter or purely numeric classes say nothing about identity.
	if len(c) < 3 {
		return false
	}
	return true
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// dedupe drops duplicate normalized values and the original selector,
// keeping the highest-baseline occurrence.
func dedupe(in []Candidate, original string) []Candidate {
	seen := make(map[string]int, len(in))
	origNorm := strings.TrimSpace(original)
	out := in[:0]
	for _, c := range in {
		norm := strings.TrimSpace(c.Value)
		if norm == "" || norm == origNorm {
			continue
		}
		if i, ok := seen[norm]; ok {
			if c.Baseline > out[i].Baseline {
				out[i] = c
			}
			continue
		}
		seen[norm] = len(out)
		out = append(out, c)
	}
	return out
}
