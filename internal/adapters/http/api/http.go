// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/okian/unirank/internal/app"
	"github.com/okian/unirank/internal/domain/model"
	"github.com/okian/unirank/internal/domain/ranking"
	"github.com/okian/unirank/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	SessionDependencies
	ImportDependencies
	RankingDependencies
	StudentDependencies
	ExportDependencies
}

// SessionDependencies manages session lifetime.
type SessionDependencies interface {
	CreateSession(ctx context.Context) (model.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// ImportDependencies runs import batches.
type ImportDependencies interface {
	Import(ctx context.Context, id string, selections []ranking.Selection, mode service.ImportMode) (*service.ImportResult, error)
}

// Entry mirrors the read shape returned by ranking queries.
type Entry = types.Entry

// Default server limits.
const (
	defaultMaxLimit       = 1000
	defaultMaxUploadBytes = 32 << 20
)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	sessionsHandler *SessionsHandler
	importsHandler  *ImportsHandler
	rankingsHandler *RankingsHandler
	studentsHandler *StudentsHandler
	exportHandler   *ExportHandler

	maxLimit       int
	maxUploadBytes int64
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*Server)

// WithMaxListLimit caps the limit accepted by the rankings endpoint.
func WithMaxListLimit(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithMaxUploadBytes caps the body size of an import request.
func WithMaxUploadBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	s := &Server{
		maxLimit:       defaultMaxLimit,
		maxUploadBytes: defaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.sessionsHandler = NewSessionsHandler(deps)
	s.importsHandler = NewImportsHandler(deps, s.maxUploadBytes)
	s.rankingsHandler = NewRankingsHandler(deps, s.maxLimit)
	s.studentsHandler = NewStudentsHandler(deps)
	s.exportHandler = NewExportHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /sessions", MetricsMiddleware(s.sessionsHandler.HandleCreate, "sessions"))
	mux.HandleFunc("DELETE /sessions/{id}", MetricsMiddleware(s.sessionsHandler.HandleDelete, "sessions"))
	mux.HandleFunc("POST /sessions/{id}/imports", MetricsMiddleware(s.importsHandler.HandleImport, "imports"))
	mux.HandleFunc("GET /sessions/{id}/rankings", MetricsMiddleware(s.rankingsHandler.HandleGetRankings, "rankings"))
	mux.HandleFunc("GET /sessions/{id}/students/{externalID}", MetricsMiddleware(s.studentsHandler.HandleGetStudent, "students"))
	mux.HandleFunc("GET /sessions/{id}/export", MetricsMiddleware(s.exportHandler.HandleExport, "export"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError maps a service error to its status and code.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
