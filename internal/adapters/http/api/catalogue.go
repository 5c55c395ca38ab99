package api

import (
	"net/http"
	"strings"

	service "github.com/okian/syncops/internal/app"
)

// CatalogueHandler serves catalogue listings.
type CatalogueHandler struct {
	deps CatalogueDependencies
}

// NewCatalogueHandler creates a catalogue handler.
func NewCatalogueHandler(deps CatalogueDependencies) *CatalogueHandler {
	return &CatalogueHandler{deps: deps}
}

// HandleRepositories handles GET /api/v1/repositories.
func (h *CatalogueHandler) HandleRepositories(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Repositories(r.Context())
	if err != nil {
		writeFailure(w, "api.repositories", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleTeams handles GET /api/v1/teams.
func (h *CatalogueHandler) HandleTeams(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Teams(r.Context())
	if err != nil {
		writeFailure(w, "api.teams", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleDomains handles GET /api/v1/domains.
func (h *CatalogueHandler) HandleDomains(w http.ResponseWriter, r *http.Request) {
	list, err := h.deps.Domains(r.Context())
	if err != nil {
		writeFailure(w, "api.domains", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleServices handles GET /api/v1/services?repository=&team=&sort=&order=.
func (h *CatalogueHandler) HandleServices(w http.ResponseWriter, r *http.Request) {
	const op = "api.services"
	q := r.URL.Query()
	f := service.ServiceFilter{
		Repository: q.Get("repository"),
		Team:       q.Get("team"),
		Sort:       q.Get("sort"),
	}
	switch strings.ToLower(q.Get("order")) {
	case "", "asc":
	case "desc":
		f.Desc = true
	default:
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	list, err := h.deps.Services(r.Context(), f)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleService handles GET /api/v1/services/{id}.
func (h *CatalogueHandler) HandleService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.deps.Service(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, "api.service", err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

// HandleJira handles GET /api/v1/services/{id}/jira.
func (h *CatalogueHandler) HandleJira(w http.ResponseWriter, r *http.Request) {
	j, err := h.deps.Jira(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, "api.service_jira", err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}
