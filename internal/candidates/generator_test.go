package candidates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/testmend/internal/domain"
)

func buttonSnapshot() DOMSnapshot {
	return DOMSnapshot{
		Tag: "button",
		Attributes: map[string]string{
			"data-testid": "submit",
			"id":          "submit-btn",
			"class":       "btn-primary",
		},
		Text:       "Submit order",
		SiblingIdx: 0,
		SiblingCnt: 1,
	}
}

func TestGenerateOrdering(t *testing.T) {
	g := NewGenerator()
	cands := g.Generate(buttonSnapshot(), "#old-submit")
	require.NotEmpty(t, cands)

	// Stable data attribute ranks first.
	assert.Equal(t, `button[data-testid="submit"]`, cands[0].Value)
	assert.Equal(t, domain.SelectorTypeDataAttribute, cands[0].Type)
	assert.InDelta(t, 0.95, cands[0].Baseline, 1e-9)

	// Baselines are non-increasing.
	for i := 1; i < len(cands); i++ {
		assert.LessOrEqual(t, cands[i].Baseline, cands[i-1].Baseline,
			"candidate %d out of order", i)
	}
}

func TestGenerateStrategies(t *testing.T) {
	g := NewGenerator()
	cands := g.Generate(buttonSnapshot(), "")

	values := map[string]domain.SelectorType{}
	for _, c := range cands {
		values[c.Value] = c.Type
	}
	assert.Contains(t, values, `button[data-testid="submit"]`)
	assert.Contains(t, values, "#submit-btn")
	assert.Contains(t, values, `button:has-text("Submit order")`)
	assert.Contains(t, values, "button.btn-primary")
}

func TestGenerateExcludesOriginal(t *testing.T) {
	g := NewGenerator()
	cands := g.Generate(buttonSnapshot(), "#submit-btn")
	for _, c := range cands {
		assert.NotEqual(t, "#submit-btn", c.Value,
			"broken selector must not be re-proposed")
	}
}

func TestGenerateEmptySnapshot(t *testing.T) {
	g := NewGenerator()
	assert.Empty(t, g.Generate(DOMSnapshot{}, "#anything"))
}

func TestGeneratedIDsRejected(t *testing.T) {
	tests := []struct {
		name      string
		id        string
		generated bool
	}{
		{"semantic", "submit-btn", false},
		{"ember", "ember-1234", true},
		{"react useId", ":r1a:", true},
		{"long digit run", "input-48291734", true},
		{"uuid-shaped", "3f1c9a60-1b2c-4d5e-8f90-aa11bb22cc33", true},
		{"hex chunk", "el-deadbeef42", true},
		{"short semantic", "nav", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.generated, isGeneratedID(tt.id))
		})
	}
}

func TestClassFiltering(t *testing.T) {
	g := NewGenerator()

	tests := []struct {
		name  string
		class string
		want  string // empty = no class candidate
	}{
		{"semantic", "btn-primary", "div.btn-primary"},
		{"utility only", "mt-4 px-2 text-sm", ""},
		{"hashed", "css-1q2w3e", ""},
		{"styled-components", "sc-bdfBwQ", ""},
		{"mixed keeps semantic", "login-form mt-4", "div.login-form"},
		{"too many classes", "a-one b-two c-three d-four e-five", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := DOMSnapshot{
				Tag:        "div",
				Attributes: map[string]string{"class": tt.class},
			}
			var got string
			for _, c := range g.Generate(snap, "") {
				if c.Type == domain.SelectorTypeCSSClass {
					got = c.Value
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStructuralAnchoring(t *testing.T) {
	g := NewGenerator()
	snap := DOMSnapshot{
		Tag: "input",
		Ancestors: []AncestorNode{
			{Tag: "div", Attributes: map[string]string{"class": "mt-4"}},
			{Tag: "form", Attributes: map[string]string{"data-testid": "login"}},
		},
		SiblingIdx: 1,
		SiblingCnt: 3,
	}
	cands := g.Generate(snap, "")
	require.Len(t, cands, 1)
	assert.Equal(t, `//form[@data-testid="login"]//input[2]`, cands[0].Value)
	assert.Equal(t, domain.SelectorTypeXPath, cands[0].Type)
	// One level below the anchor erodes the anchored baseline.
	assert.InDelta(t, 0.72, cands[0].Baseline, 1e-9)
}

func TestStructuralFallback(t *testing.T) {
	g := NewGenerator()
	snap := DOMSnapshot{Tag: "span", SiblingIdx: 0, SiblingCnt: 1}
	cands := g.Generate(snap, "")
	require.Len(t, cands, 1)
	assert.Equal(t, "//span", cands[0].Value)
	assert.InDelta(t, 0.60, cands[0].Baseline, 1e-9)
}

func TestDedupeKeepsHighestBaseline(t *testing.T) {
	in := []Candidate{
		{Value: "a", Baseline: 0.7},
		{Value: "b", Baseline: 0.9},
		{Value: "a", Baseline: 0.8},
	}
	out := dedupe(in, "")
	require.Len(t, out, 2)
	for _, c := range out {
		if c.Value == "a" {
			assert.InDelta(t, 0.8, c.Baseline, 1e-9)
		}
	}
}
