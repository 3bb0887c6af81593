// Package web provides the HTTP API for validating and importing intake files.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/csvintake/internal/config"
	"github.com/JonMunkholm/csvintake/internal/core"
	"github.com/JonMunkholm/csvintake/internal/store"
	"github.com/JonMunkholm/csvintake/internal/web/middleware"
)

// Importer persists a successful report. *store.Importer satisfies it.
type Importer interface {
	Import(ctx context.Context, schemaKey, fileName string, report core.Report) (store.Result, error)
}

// Server is the HTTP server for the intake API.
type Server struct {
	cfg      config.ServerConfig
	intake   config.IntakeConfig
	apiKeys  []string
	importer Importer
	limiter  *parseLimiter
	router   *chi.Mux
	server   *http.Server
}

// NewServer creates a new Server. importer may be nil, in which case the
// import endpoint reports that it is unavailable.
func NewServer(cfg *config.Config, importer Importer) *Server {
	s := &Server{
		cfg:      cfg.Server,
		intake:   cfg.Intake,
		apiKeys:  cfg.Security.APIKeys,
		importer: importer,
		limiter:  newParseLimiter(cfg.Intake.MaxConcurrent, cfg.Intake.MaxWait),
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.apiKeys))

		r.Get("/schemas", s.handleListSchemas)
		r.Get("/schemas/{schemaKey}", s.handleGetSchema)
		r.Post("/schemas/{schemaKey}/validate", s.handleValidate)
		r.Post("/schemas/{schemaKey}/import", s.handleImport)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests and waits for in-flight parses.
// It is safe to call before or while Start runs; a later Start returns
// http.ErrServerClosed.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	if st := s.limiter.status(); st.Active > 0 {
		slog.Info("waiting for uploads to complete", "active", st.Active)
	}
	return s.limiter.waitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
