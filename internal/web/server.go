package web

import (
	"context"
	"net/http"
	"strings"
)

// Server is the engine's HTTP API server.
type Server struct {
	addr     string
	handlers *Handlers
	mux      *http.ServeMux
	srv      *http.Server
}

// NewServer creates a new API server.
func NewServer(addr string, handlers *Handlers) *Server {
	s := &Server{
		addr:     addr,
		handlers: handlers,
		mux:      http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/heal", s.corsMiddleware(s.routeHeal))
	s.mux.HandleFunc("/api/runs", s.corsMiddleware(s.routeRuns))
	// Trailing slash enables prefix matching for the id-scoped routes.
	s.mux.HandleFunc("/api/tests/", s.corsMiddleware(s.routeTests))
	s.mux.HandleFunc("/api/sessions", s.corsMiddleware(s.routeSessions))
	s.mux.HandleFunc("/api/sessions/", s.corsMiddleware(s.routeSession))
	s.mux.HandleFunc("/api/selectors", s.corsMiddleware(s.routeSelectors))
	s.mux.HandleFunc("/api/selectors/", s.corsMiddleware(s.routeSelector))
	s.mux.HandleFunc("/api/quarantine", s.corsMiddleware(s.routeQuarantine))
}

func (s *Server) routeHeal(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.handlers.Heal(w, r)
}

func (s *Server) routeRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.handlers.RecordRun(w, r)
}

// routeTests routes /api/tests/{id}/classification and
// /api/tests/{id}/quarantine.
func (s *Server) routeTests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/tests/")

	switch {
	case strings.HasSuffix(path, "/classification"):
		testID := strings.TrimSuffix(path, "/classification")
		if testID == "" {
			http.NotFound(w, r)
			return
		}
		s.handlers.Classify(w, r, testID)

	case strings.HasSuffix(path, "/quarantine"):
		testID := strings.TrimSuffix(path, "/quarantine")
		if testID == "" {
			http.NotFound(w, r)
			return
		}
		s.handlers.QuarantineState(w, r, testID)

	default:
		http.NotFound(w, r)
	}
}

func (s *Server) routeSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handlers.ListSessions(w, r)
	case http.MethodPost:
		s.handlers.OpenSession(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// routeSession routes /api/sessions/{id} and /api/sessions/{id}/close.
func (s *Server) routeSession(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions/")

	switch {
	case strings.HasSuffix(path, "/close"):
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handlers.CloseSession(w, r, strings.TrimSuffix(path, "/close"))

	case path != "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handlers.GetSession(w, r, path)

	default:
		http.NotFound(w, r)
	}
}

func (s *Server) routeSelectors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.handlers.CreateSelector(w, r)
}

func (s *Server) routeSelector(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	selectorID := strings.TrimPrefix(r.URL.Path, "/api/selectors/")
	if selectorID == "" {
		http.NotFound(w, r)
		return
	}
	s.handlers.GetSelector(w, r, selectorID)
}

func (s *Server) routeQuarantine(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.handlers.ListQuarantined(w, r)
}

// corsMiddleware adds CORS headers so the dashboard can call the API from
// another origin.
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}

// Handler returns the underlying mux, for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      s.mux,
		ReadTimeout:  requestDeadline,
		WriteTimeout: requestDeadline,
	}
	return s.srv.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
