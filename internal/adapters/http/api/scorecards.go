package api

import (
	"net/http"
	"strconv"
)

// ScorecardHandler serves computed scorecards and rankings.
type ScorecardHandler struct {
	deps     ScorecardDependencies
	maxLimit int
}

// NewScorecardHandler creates a scorecard handler.
func NewScorecardHandler(deps ScorecardDependencies, maxLimit int) *ScorecardHandler {
	if maxLimit < 1 {
		maxLimit = 100
	}
	return &ScorecardHandler{deps: deps, maxLimit: maxLimit}
}

// HandleScorecard handles GET /api/v1/services/{id}/scorecard?formula=.
func (h *ScorecardHandler) HandleScorecard(w http.ResponseWriter, r *http.Request) {
	sc, err := h.deps.Scorecard(r.Context(), r.PathValue("id"), r.URL.Query().Get("formula"))
	if err != nil {
		writeFailure(w, "api.service_scorecard", err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

// HandleCategory handles GET /api/v1/services/{id}/{category}.
func (h *ScorecardHandler) HandleCategory(w http.ResponseWriter, r *http.Request) {
	res, err := h.deps.Category(r.Context(), r.PathValue("id"), r.PathValue("category"), r.URL.Query().Get("formula"))
	if err != nil {
		writeFailure(w, "api.service_category", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleBadges handles GET /api/v1/services/{id}/badges.
func (h *ScorecardHandler) HandleBadges(w http.ResponseWriter, r *http.Request) {
	badges, err := h.deps.Badges(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, "api.service_badges", err)
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

// HandleLeaderboard handles GET /api/v1/leaderboard?entity=teams|services&limit=N.
// Without limit every entry up to the configured maximum is returned.
func (h *ScorecardHandler) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.leaderboard"
	limit := h.maxLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}
	entries, err := h.deps.Leaderboard(r.Context(), r.URL.Query().Get("entity"), limit)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleOverview handles GET /api/v1/scorecards/overview.
func (h *ScorecardHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.deps.Overview(r.Context())
	if err != nil {
		writeFailure(w, "api.overview", err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}
