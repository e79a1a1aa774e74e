package web

import (
	"time"

	"github.com/example/testmend/internal/candidates"
	"github.com/example/testmend/internal/domain"
)

// HealRequest is the body of POST /api/heal.
type HealRequest struct {
	SelectorID string      `json:"selector_id"`
	SessionID  string      `json:"session_id,omitempty"`
	Snapshot   DOMSnapshot `json:"dom_snapshot"`
}

// DOMSnapshot mirrors candidates.DOMSnapshot on the wire.
type DOMSnapshot struct {
	Tag        string            `json:"tag"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Text       string            `json:"text,omitempty"`
	Ancestors  []AncestorNode    `json:"ancestors,omitempty"`
	SiblingIdx int               `json:"sibling_index,omitempty"`
	SiblingCnt int               `json:"sibling_count,omitempty"`
}

// AncestorNode mirrors candidates.AncestorNode on the wire.
type AncestorNode struct {
	Tag        string            `json:"tag"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

func (s DOMSnapshot) toDomain() candidates.DOMSnapshot {
	out := candidates.DOMSnapshot{
		Tag:        s.Tag,
		Attributes: s.Attributes,
		Text:       s.Text,
		SiblingIdx: s.SiblingIdx,
		SiblingCnt: s.SiblingCnt,
	}
	for _, a := range s.Ancestors {
		out.Ancestors = append(out.Ancestors, candidates.AncestorNode{
			Tag:        a.Tag,
			Attributes: a.Attributes,
		})
	}
	return out
}

// HealingResultResponse is the wire form of a healing result.
type HealingResultResponse struct {
	ID                    string  `json:"id"`
	SessionID             string  `json:"session_id"`
	SelectorID            string  `json:"selector_id"`
	OriginalSelectorValue string  `json:"original_selector_value"`
	HealedSelectorValue   string  `json:"healed_selector_value,omitempty"`
	Status                string  `json:"status"`
	Reason                string  `json:"reason,omitempty"`
	ConfidenceScore       float64 `json:"confidence_score"`
	HealingTimeMS         int64   `json:"healing_time_ms"`
	Attempts              int     `json:"attempts"`
}

func toResultResponse(r *domain.HealingResult) HealingResultResponse {
	return HealingResultResponse{
		ID:                    r.ID,
		SessionID:             r.SessionID,
		SelectorID:            r.SelectorID,
		OriginalSelectorValue: r.OriginalSelectorValue,
		HealedSelectorValue:   r.HealedSelectorValue,
		Status:                string(r.Status),
		Reason:                string(r.Reason),
		ConfidenceScore:       r.ConfidenceScore,
		HealingTimeMS:         r.HealingTimeMS,
		Attempts:              r.Attempts,
	}
}

// RecordRunRequest is the body of POST /api/runs.
type RecordRunRequest struct {
	TestID      string     `json:"test_id"`
	RunID       string     `json:"run_id,omitempty"`
	Outcome     string     `json:"outcome"`
	DurationMS  *int64     `json:"duration_ms"`
	Environment string     `json:"environment,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
}

// FlakyTestResponse is the wire form of a classification.
type FlakyTestResponse struct {
	TestID              string             `json:"test_id"`
	Status              string             `json:"status"`
	FlakinessScore      float64            `json:"flakiness_score"`
	ConsecutiveFailures int                `json:"consecutive_failures"`
	LastEvaluatedAt     time.Time          `json:"last_evaluated_at"`
	RootCause           *RootCauseResponse `json:"root_cause,omitempty"`
}

// RootCauseResponse is the wire form of a root-cause inference.
type RootCauseResponse struct {
	Pattern        string  `json:"pattern"`
	Confidence     float64 `json:"confidence"`
	Recommendation string  `json:"recommendation"`
}

func toFlakyResponse(ft *domain.FlakyTest, cause *domain.RootCause) FlakyTestResponse {
	resp := FlakyTestResponse{
		TestID:              ft.TestID,
		Status:              string(ft.Status),
		FlakinessScore:      ft.FlakinessScore,
		ConsecutiveFailures: ft.ConsecutiveFailures,
		LastEvaluatedAt:     ft.LastEvaluatedAt,
	}
	if cause != nil {
		resp.RootCause = &RootCauseResponse{
			Pattern:        string(cause.Pattern),
			Confidence:     cause.Confidence,
			Recommendation: cause.Recommendation,
		}
	}
	return resp
}

// QuarantineEntryResponse is the wire form of a quarantine entry.
type QuarantineEntryResponse struct {
	ID           int64      `json:"id"`
	TestID       string     `json:"test_id"`
	Reason       string     `json:"reason"`
	EnteredAt    time.Time  `json:"entered_at"`
	ExitCriteria string     `json:"exit_criteria"`
	ExitedAt     *time.Time `json:"exited_at,omitempty"`
}

func toQuarantineResponse(q *domain.QuarantineEntry) QuarantineEntryResponse {
	return QuarantineEntryResponse{
		ID:           q.ID,
		TestID:       q.TestID,
		Reason:       string(q.Reason),
		EnteredAt:    q.EnteredAt,
		ExitCriteria: q.ExitCriteria,
		ExitedAt:     q.ExitedAt,
	}
}

// SessionResponse is the wire form of a healing session.
type SessionResponse struct {
	ID                string                  `json:"id"`
	Status            string                  `json:"status"`
	TotalSelectors    int                     `json:"total_selectors"`
	SuccessfulHeals   int                     `json:"successful_heals"`
	FailedHeals       int                     `json:"failed_heals"`
	AverageConfidence float64                 `json:"average_confidence"`
	StartedAt         time.Time               `json:"started_at"`
	CompletedAt       *time.Time              `json:"completed_at,omitempty"`
	Results           []HealingResultResponse `json:"results,omitempty"`
}

func toSessionResponse(s *domain.HealingSession, results []*domain.HealingResult) SessionResponse {
	resp := SessionResponse{
		ID:                s.ID,
		Status:            s.Status.String(),
		TotalSelectors:    s.TotalSelectors,
		SuccessfulHeals:   s.SuccessfulHeals,
		FailedHeals:       s.FailedHeals,
		AverageConfidence: s.AverageConfidence,
		StartedAt:         s.StartedAt,
		CompletedAt:       s.CompletedAt,
	}
	for _, r := range results {
		resp.Results = append(resp.Results, toResultResponse(r))
	}
	return resp
}

// CreateSelectorRequest is the body of POST /api/selectors.
type CreateSelectorRequest struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// SelectorResponse is the wire form of a selector with its history.
type SelectorResponse struct {
	ID              string                    `json:"id"`
	Value           string                    `json:"value"`
	Type            string                    `json:"type"`
	ConfidenceScore float64                   `json:"confidence_score"`
	ConfidenceLevel string                    `json:"confidence_level"`
	UsageCount      int                       `json:"usage_count"`
	SuccessCount    int                       `json:"success_count"`
	IsActive        bool                      `json:"is_active"`
	History         []SelectorHistoryResponse `json:"history,omitempty"`
}

// SelectorHistoryResponse is one superseded value.
type SelectorHistoryResponse struct {
	Value      string    `json:"value"`
	Type       string    `json:"type"`
	Confidence float64   `json:"confidence"`
	ReplacedAt time.Time `json:"replaced_at"`
}

func toSelectorResponse(sel *domain.Selector, history []*domain.SelectorHistoryEntry) SelectorResponse {
	resp := SelectorResponse{
		ID:              sel.ID,
		Value:           sel.Value,
		Type:            string(sel.Type),
		ConfidenceScore: sel.ConfidenceScore,
		ConfidenceLevel: string(sel.ConfidenceLevel),
		UsageCount:      sel.UsageCount,
		SuccessCount:    sel.SuccessCount,
		IsActive:        sel.IsActive,
	}
	for _, h := range history {
		resp.History = append(resp.History, SelectorHistoryResponse{
			Value:      h.Value,
			Type:       string(h.Type),
			Confidence: h.Confidence,
			ReplacedAt: h.ReplacedAt,
		})
	}
	return resp
}

// ErrorResponse is the wire form of an error.
type ErrorResponse struct {
	Error string `json:"error"`
}
