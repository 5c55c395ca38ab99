package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/syncops/internal/domain/scoring"
)

const maxBodyBytes = 1 << 20

// ScoringHandler exposes the scoring engine for ad hoc values.
type ScoringHandler struct {
	deps ScoringDependencies
}

// NewScoringHandler creates a scoring handler.
func NewScoringHandler(deps ScoringDependencies) *ScoringHandler {
	return &ScoringHandler{deps: deps}
}

type categoryRequest struct {
	Category string             `json:"category"`
	Formula  string             `json:"formula,omitempty"`
	Metrics  map[string]float64 `json:"metrics"`
}

type overallRequest struct {
	Scores []int `json:"scores"`
}

// HandleDefinitions handles GET /api/v1/metrics.
func (h *ScoringHandler) HandleDefinitions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Definitions())
}

// HandleClassify handles GET /api/v1/classify?metric=&value=. Unknown metrics
// and unusable values still answer 200 with a Basic badge and a reason.
func (h *ScoringHandler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	const op = "api.classify"
	q := r.URL.Query()
	metric := strings.TrimSpace(q.Get("metric"))
	if metric == "" || !q.Has("value") {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("metric and value are required")))
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Classify(r.Context(), metric, q.Get("value")))
}

// HandleScoreCategory handles POST /api/v1/score/category.
func (h *ScoringHandler) HandleScoreCategory(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_category"
	var req categoryRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("missing category")))
		return
	}
	res, err := h.deps.ScoreCategory(r.Context(), req.Category, scoring.Values(req.Metrics), req.Formula)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleScoreOverall handles POST /api/v1/score/overall.
func (h *ScoringHandler) HandleScoreOverall(w http.ResponseWriter, r *http.Request) {
	const op = "api.score_overall"
	var req overallRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	for _, s := range req.Scores {
		if s < 0 || s > 100 {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("scores must be within 0..100")))
			return
		}
	}
	writeJSON(w, http.StatusOK, h.deps.ScoreOverall(r.Context(), req.Scores))
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
