package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/syncops/internal/domain/model"
	"github.com/okian/syncops/internal/domain/ranking"
	"github.com/okian/syncops/internal/domain/scoring"
	"github.com/okian/syncops/pkg/metrics"
)

// Leaderboard entity kinds.
const (
	EntityTeams    = "teams"
	EntityServices = "services"
)

// ServiceFilter narrows and orders a service listing.
type ServiceFilter struct {
	Repository string
	Team       string
	// Sort is name, team, status or empty for id order.
	Sort string
	// Desc reverses the order.
	Desc bool
}

// ServiceView is a service with its current overall score.
type ServiceView struct {
	model.Service
	Overall scoring.Overall `json:"overall"`
}

// ServiceScorecard is the full scorecard of one service.
type ServiceScorecard struct {
	ServiceID string `json:"serviceId"`
	Name      string `json:"name"`
	scoring.Scorecard
}

// OverviewRow is one line of the services scorecard table.
type OverviewRow struct {
	ID      string                              `json:"id"`
	Name    string                              `json:"name"`
	Icon    string                              `json:"icon,omitempty"`
	Tiers   map[scoring.CategoryID]scoring.Tier `json:"tiers"`
	Scores  map[scoring.CategoryID]int          `json:"scores"`
	Overall scoring.Overall                     `json:"overall"`
}

// CategoryDistribution is the tier split of one category across services.
type CategoryDistribution struct {
	ID       scoring.CategoryID `json:"id"`
	Name     string             `json:"name"`
	Average  int                `json:"average"`
	Segments []ranking.Segment  `json:"segments"`
}

// Overview summarizes every service scorecard.
type Overview struct {
	Categories []CategoryDistribution `json:"categories"`
	Services   []OverviewRow          `json:"services"`
}

func (s *Service) formula(raw string) (scoring.Formula, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	return scoring.ParseFormula(raw)
}

// Repositories lists the selectable repositories.
func (s *Service) Repositories(ctx context.Context) ([]model.Repository, error) {
	return s.store.Repositories(ctx)
}

// Teams lists teams.
func (s *Service) Teams(ctx context.Context) ([]model.Team, error) {
	return s.store.Teams(ctx)
}

// Domains lists domains.
func (s *Service) Domains(ctx context.Context) ([]model.Domain, error) {
	return s.store.Domains(ctx)
}

// Service returns one service.
func (s *Service) Service(ctx context.Context, id string) (model.Service, error) {
	return s.store.Service(ctx, id)
}

// Services lists services matching f with their overall score. The
// repository filter matches a repository's value or id.
func (s *Service) Services(ctx context.Context, f ServiceFilter) ([]ServiceView, error) {
	less, err := serviceOrder(f.Sort)
	if err != nil {
		return nil, err
	}
	all, err := s.store.Services(ctx)
	if err != nil {
		return nil, err
	}

	repo := f.Repository
	if repo != "" {
		repos, err := s.store.Repositories(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range repos {
			if r.ID == repo {
				repo = r.Value
			}
		}
	}

	out := make([]ServiceView, 0, len(all))
	for _, svc := range all {
		if repo != "" && svc.Repository != repo {
			continue
		}
		if f.Team != "" && !strings.EqualFold(svc.Team, f.Team) {
			continue
		}
		sc, err := s.engine.Scorecard(ctx, svc.Metrics, "")
		if err != nil {
			return nil, err
		}
		out = append(out, ServiceView{Service: svc, Overall: sc.Overall})
	}
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool {
			if f.Desc {
				return less(out[j].Service, out[i].Service)
			}
			return less(out[i].Service, out[j].Service)
		})
	} else if f.Desc {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func serviceOrder(key string) (func(a, b model.Service) bool, error) {
	switch strings.ToLower(key) {
	case "", "id":
		return nil, nil
	case "name":
		return func(a, b model.Service) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }, nil
	case "team":
		return func(a, b model.Service) bool { return strings.ToLower(a.Team) < strings.ToLower(b.Team) }, nil
	case "status":
		return func(a, b model.Service) bool { return a.Status < b.Status }, nil
	default:
		return nil, fmt.Errorf("%w: unknown sort %q", ErrInvalidQuery, key)
	}
}

// Scorecard scores every category of a service. An empty formula uses the
// engine default.
func (s *Service) Scorecard(ctx context.Context, id, formula string) (ServiceScorecard, error) {
	f, err := s.formula(formula)
	if err != nil {
		return ServiceScorecard{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	svc, err := s.store.Service(ctx, id)
	if err != nil {
		return ServiceScorecard{}, err
	}
	sc, err := s.engine.Scorecard(ctx, svc.Metrics, f)
	if err != nil {
		return ServiceScorecard{}, err
	}
	return ServiceScorecard{ServiceID: svc.ID, Name: svc.Name, Scorecard: sc}, nil
}

// Category scores a single category of a service. category may be a short
// name such as "dora".
func (s *Service) Category(ctx context.Context, id, category, formula string) (scoring.CategoryResult, error) {
	cat, err := scoring.ParseCategory(category)
	if err != nil {
		return scoring.CategoryResult{}, err
	}
	f, err := s.formula(formula)
	if err != nil {
		return scoring.CategoryResult{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	svc, err := s.store.Service(ctx, id)
	if err != nil {
		return scoring.CategoryResult{}, err
	}
	return s.engine.CategoryScore(ctx, cat, svc.Metrics, f)
}

// Badges returns the tier badge of every defined metric a service reports.
func (s *Service) Badges(ctx context.Context, id string) ([]scoring.Badge, error) {
	svc, err := s.store.Service(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.engine.Badges(ctx, svc.Metrics), nil
}

// Jira returns the Jira block of a service.
func (s *Service) Jira(ctx context.Context, id string) (model.JiraStats, error) {
	svc, err := s.store.Service(ctx, id)
	if err != nil {
		return model.JiraStats{}, err
	}
	return svc.Jira, nil
}

// Leaderboard ranks teams by their reported scores or services by their
// computed gate scores. limit <= 0 returns every entry.
func (s *Service) Leaderboard(ctx context.Context, entity string, limit int) ([]ranking.Entry, error) {
	var candidates []ranking.Candidate
	switch strings.ToLower(entity) {
	case "", EntityTeams:
		teams, err := s.store.Teams(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range teams {
			candidates = append(candidates, ranking.Candidate{ID: t.ID, Name: t.Name, Icon: t.Icon, Scores: t.Scores()})
		}
	case EntityServices:
		services, err := s.store.Services(ctx)
		if err != nil {
			return nil, err
		}
		for _, svc := range services {
			sc, err := s.engine.Scorecard(ctx, svc.Metrics, scoring.FormulaGate)
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, ranking.Candidate{ID: svc.ID, Name: svc.Name, Icon: svc.Icon, Scores: sc.CategoryScores()})
		}
	default:
		return nil, fmt.Errorf("%w: unknown entity %q", ErrInvalidQuery, entity)
	}
	metrics.RecordRanking()
	return ranking.Top(ranking.Rank(candidates), limit), nil
}

// Overview computes the services scorecard table and the tier split of
// each category.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	services, err := s.store.Services(ctx)
	if err != nil {
		return Overview{}, err
	}
	specs := s.engine.Categories()
	tiers := make(map[scoring.CategoryID][]scoring.Tier, len(specs))
	sums := make(map[scoring.CategoryID]int, len(specs))

	ov := Overview{Services: make([]OverviewRow, 0, len(services))}
	for _, svc := range services {
		sc, err := s.engine.Scorecard(ctx, svc.Metrics, scoring.FormulaGate)
		if err != nil {
			return Overview{}, err
		}
		row := OverviewRow{
			ID: svc.ID, Name: svc.Name, Icon: svc.Icon,
			Tiers:   make(map[scoring.CategoryID]scoring.Tier, len(sc.Categories)),
			Scores:  sc.CategoryScores(),
			Overall: sc.Overall,
		}
		for _, c := range sc.Categories {
			row.Tiers[c.ID] = c.Tier
			tiers[c.ID] = append(tiers[c.ID], c.Tier)
			sums[c.ID] += c.Score
		}
		ov.Services = append(ov.Services, row)
	}

	for _, spec := range specs {
		d := CategoryDistribution{ID: spec.ID, Name: spec.Name, Segments: ranking.Distribution(tiers[spec.ID])}
		if n := len(services); n > 0 {
			d.Average = (sums[spec.ID]*2 + n) / (2 * n)
		}
		ov.Categories = append(ov.Categories, d)
	}
	return ov, nil
}

// Definitions returns the metric definition table.
func (s *Service) Definitions() []scoring.Definition {
	return s.engine.Table().All()
}

// Classify classifies a raw value for a metric.
func (s *Service) Classify(ctx context.Context, metric, raw string) scoring.Badge {
	return s.engine.ClassifyRaw(ctx, metric, raw)
}

// ScoreCategory scores ad hoc metric values for one category. An unknown
// category is an invalid query here, not a missing resource.
func (s *Service) ScoreCategory(ctx context.Context, category string, values scoring.Values, formula string) (scoring.CategoryResult, error) {
	cat, err := scoring.ParseCategory(category)
	if err != nil {
		return scoring.CategoryResult{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	f, err := s.formula(formula)
	if err != nil {
		return scoring.CategoryResult{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return s.engine.CategoryScore(ctx, cat, values, f)
}

// ScoreOverall aggregates category scores.
func (s *Service) ScoreOverall(ctx context.Context, scores []int) scoring.Overall {
	return s.engine.Overall(ctx, scores)
}
