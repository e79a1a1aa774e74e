package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/example/testmend/internal/domain"
	"github.com/example/testmend/internal/service"
	"github.com/example/testmend/internal/storage"
)

// Handlers contains HTTP handlers for the engine API.
type Handlers struct {
	healer      *service.HealerService
	reliability *service.ReliabilityService
	sessions    *service.SessionService
}

// NewHandlers creates new API handlers.
func NewHandlers(healer *service.HealerService, reliability *service.ReliabilityService, sessions *service.SessionService) *Handlers {
	return &Handlers{
		healer:      healer,
		reliability: reliability,
		sessions:    sessions,
	}
}

// Heal handles POST /api/heal
func (h *Handlers) Heal(w http.ResponseWriter, r *http.Request) {
	var req HealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.SelectorID == "" {
		writeError(w, http.StatusBadRequest, "selector_id is required")
		return
	}

	result, err := h.healer.Heal(r.Context(), &service.HealRequest{
		SelectorID: req.SelectorID,
		SessionID:  req.SessionID,
		Snapshot:   req.Snapshot.toDomain(),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toResultResponse(result))
}

// RecordRun handles POST /api/runs
func (h *Handlers) RecordRun(w http.ResponseWriter, r *http.Request) {
	var req RecordRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	svcReq := &service.RecordRunRequest{
		TestID:      req.TestID,
		RunID:       req.RunID,
		Outcome:     domain.RunOutcome(req.Outcome),
		DurationMS:  req.DurationMS,
		Environment: req.Environment,
	}
	if req.StartedAt != nil {
		svcReq.StartedAt = *req.StartedAt
	}

	if err := h.reliability.RecordRun(r.Context(), svcReq); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Classify handles GET /api/tests/{id}/classification
func (h *Handlers) Classify(w http.ResponseWriter, r *http.Request, testID string) {
	c, err := h.reliability.Classify(r.Context(), testID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFlakyResponse(c.Test, c.RootCause))
}

// QuarantineState handles GET /api/tests/{id}/quarantine
func (h *Handlers) QuarantineState(w http.ResponseWriter, r *http.Request, testID string) {
	entry, err := h.reliability.QuarantineState(r.Context(), testID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "test is not quarantined")
		return
	}
	writeJSON(w, http.StatusOK, toQuarantineResponse(entry))
}

// ListQuarantined handles GET /api/quarantine
func (h *Handlers) ListQuarantined(w http.ResponseWriter, r *http.Request) {
	entries, err := h.reliability.ListQuarantined(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]QuarantineEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toQuarantineResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

// OpenSession handles POST /api/sessions
func (h *Handlers) OpenSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Open(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(sess, nil))
}

// CloseSession handles POST /api/sessions/{id}/close
func (h *Handlers) CloseSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := h.sessions.Close(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess, nil))
}

// GetSession handles GET /api/sessions/{id}
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, results, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess, results))
}

// ListSessions handles GET /api/sessions
func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.sessions.List(r.Context(), storage.ListOptions{Limit: 100})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionResponse(s, nil))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateSelector handles POST /api/selectors
func (h *Handlers) CreateSelector(w http.ResponseWriter, r *http.Request) {
	var req CreateSelectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	sel, err := h.healer.CreateSelector(r.Context(), req.Value, domain.SelectorType(req.Type))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSelectorResponse(sel, nil))
}

// GetSelector handles GET /api/selectors/{id}
func (h *Handlers) GetSelector(w http.ResponseWriter, r *http.Request, selectorID string) {
	sel, history, err := h.healer.GetSelector(r.Context(), selectorID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSelectorResponse(sel, history))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrSessionClosed),
		errors.Is(err, domain.ErrSelectorInactive):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// requestDeadline bounds handler work; healing is CPU-bound and short, so
// a generous cap only guards against a wedged store.
const requestDeadline = 30 * time.Second
