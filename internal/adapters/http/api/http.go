// Package api registers the HTTP routes of the scorecard service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/syncops/internal/app"
	"github.com/okian/syncops/internal/domain/model"
	"github.com/okian/syncops/internal/domain/ranking"
	"github.com/okian/syncops/internal/domain/scoring"
)

// CatalogueDependencies read catalogue entities.
type CatalogueDependencies interface {
	Repositories(ctx context.Context) ([]model.Repository, error)
	Teams(ctx context.Context) ([]model.Team, error)
	Domains(ctx context.Context) ([]model.Domain, error)
	Services(ctx context.Context, f service.ServiceFilter) ([]service.ServiceView, error)
	Service(ctx context.Context, id string) (model.Service, error)
	Jira(ctx context.Context, id string) (model.JiraStats, error)
}

// ScorecardDependencies compute scorecards of stored services.
type ScorecardDependencies interface {
	Scorecard(ctx context.Context, id, formula string) (service.ServiceScorecard, error)
	Category(ctx context.Context, id, category, formula string) (scoring.CategoryResult, error)
	Badges(ctx context.Context, id string) ([]scoring.Badge, error)
	Leaderboard(ctx context.Context, entity string, limit int) ([]ranking.Entry, error)
	Overview(ctx context.Context) (service.Overview, error)
}

// ScoringDependencies score ad hoc values.
type ScoringDependencies interface {
	Definitions() []scoring.Definition
	Classify(ctx context.Context, metric, raw string) scoring.Badge
	ScoreCategory(ctx context.Context, category string, values scoring.Values, formula string) (scoring.CategoryResult, error)
	ScoreOverall(ctx context.Context, scores []int) scoring.Overall
}

// SnapshotDependencies accept snapshots for ingestion.
type SnapshotDependencies interface {
	Submit(ctx context.Context, s model.Snapshot) (service.SubmitResult, error)
}

// Dependencies required by HTTP handlers.
type Dependencies interface {
	CatalogueDependencies
	ScorecardDependencies
	ScoringDependencies
	SnapshotDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	dashboardHandler *dashboardHandler
	catalogue        *CatalogueHandler
	scorecards       *ScorecardHandler
	scoring          *ScoringHandler
	snapshots        *SnapshotHandler
}

// NewServer creates a new API server with all handlers. maxLimit caps the
// leaderboard limit parameter.
func NewServer(deps Dependencies, maxLimit int) (*Server, error) {
	snapshots, err := NewSnapshotHandler(deps)
	if err != nil {
		return nil, err
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		dashboardHandler: newDashboardHandler(),
		catalogue:        NewCatalogueHandler(deps),
		scorecards:       NewScorecardHandler(deps, maxLimit),
		scoring:          NewScoringHandler(deps),
		snapshots:        snapshots,
	}, nil
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("GET /api/v1/repositories", MetricsMiddleware(s.catalogue.HandleRepositories, "repositories"))
	mux.HandleFunc("GET /api/v1/teams", MetricsMiddleware(s.catalogue.HandleTeams, "teams"))
	mux.HandleFunc("GET /api/v1/domains", MetricsMiddleware(s.catalogue.HandleDomains, "domains"))
	mux.HandleFunc("GET /api/v1/services", MetricsMiddleware(s.catalogue.HandleServices, "services"))
	mux.HandleFunc("GET /api/v1/services/{id}", MetricsMiddleware(s.catalogue.HandleService, "service"))
	mux.HandleFunc("GET /api/v1/services/{id}/jira", MetricsMiddleware(s.catalogue.HandleJira, "service_jira"))

	mux.HandleFunc("GET /api/v1/services/{id}/scorecard", MetricsMiddleware(s.scorecards.HandleScorecard, "service_scorecard"))
	mux.HandleFunc("GET /api/v1/services/{id}/badges", MetricsMiddleware(s.scorecards.HandleBadges, "service_badges"))
	mux.HandleFunc("GET /api/v1/services/{id}/{category}", MetricsMiddleware(s.scorecards.HandleCategory, "service_category"))
	mux.HandleFunc("GET /api/v1/leaderboard", MetricsMiddleware(s.scorecards.HandleLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /api/v1/scorecards/overview", MetricsMiddleware(s.scorecards.HandleOverview, "overview"))

	mux.HandleFunc("GET /api/v1/metrics", MetricsMiddleware(s.scoring.HandleDefinitions, "metrics"))
	mux.HandleFunc("GET /api/v1/classify", MetricsMiddleware(s.scoring.HandleClassify, "classify"))
	mux.HandleFunc("POST /api/v1/score/category", MetricsMiddleware(s.scoring.HandleScoreCategory, "score_category"))
	mux.HandleFunc("POST /api/v1/score/overall", MetricsMiddleware(s.scoring.HandleScoreOverall, "score_overall"))

	mux.HandleFunc("POST /api/v1/snapshots", MetricsMiddleware(s.snapshots.HandlePostSnapshot, "snapshots"))
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

// writeFailure maps an upstream error onto a status code.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case service.IsNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrInvalidQuery),
		errors.Is(err, service.ErrInvalidSnapshot),
		errors.Is(err, scoring.ErrUnknownFormula),
		errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
	case errors.Is(err, service.ErrBackpressure):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}
