package normalize

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/syncops/internal/domain/model"
	"github.com/okian/syncops/internal/domain/scoring"
)

// isDurationUnit reports whether values in a definition unit are durations.
func isDurationUnit(unit string) bool {
	return unit == "min" || unit == "hours" || unit == "days"
}

// Normalizer converts snapshots using the units of a definition table.
type Normalizer struct {
	table *scoring.Table
	now   func() time.Time
}

// New returns a Normalizer. A nil table uses the default definitions.
func New(table *scoring.Table) *Normalizer {
	if table == nil {
		table = scoring.DefaultTable()
	}
	return &Normalizer{table: table, now: time.Now}
}

// Value converts one raw metric value into the unit of key's definition.
// Numbers pass through; strings are parsed as numbers, or as durations for
// time-based metrics. Time-based metrics never go below zero. Failures
// return NaN with an *scoring.InvalidValueError.
func (n *Normalizer) Value(key string, raw any) (float64, error) {
	v, err := n.value(key, raw)
	if err != nil {
		return v, err
	}
	if v < 0 && n.isDuration(key) {
		return math.NaN(), &scoring.InvalidValueError{Key: key, Value: fmt.Sprint(raw)}
	}
	return v, nil
}

func (n *Normalizer) isDuration(key string) bool {
	def, err := n.table.Lookup(key)
	return err == nil && isDurationUnit(def.Unit)
}

func (n *Normalizer) value(key string, raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		return n.fromString(key, v)
	case nil:
		return math.NaN(), &scoring.InvalidValueError{Key: key, Value: "null"}
	default:
		return math.NaN(), &scoring.InvalidValueError{Key: key, Value: fmt.Sprint(v)}
	}
}

func (n *Normalizer) fromString(key, s string) (float64, error) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(s), "%")
	if f, err := strconv.ParseFloat(strings.TrimSpace(trimmed), 64); err == nil {
		return f, nil
	}
	if def, err := n.table.Lookup(key); err == nil && isDurationUnit(def.Unit) {
		if d, derr := ParseDuration(s); derr == nil {
			return InUnit(d, def.Unit), nil
		}
	}
	return math.NaN(), &scoring.InvalidValueError{Key: key, Value: s}
}

// Snapshot builds a Service from a raw snapshot. Block fields feed the
// matching metrics first and explicit Metrics entries override them.
// Unusable values are kept as NaN and described in Service.Issues.
func (n *Normalizer) Snapshot(s model.Snapshot) (model.Service, error) {
	if strings.TrimSpace(s.ServiceID) == "" {
		return model.Service{}, ErrMissingID
	}
	svc := model.Service{
		ID:           s.ServiceID,
		Name:         s.Name,
		Icon:         s.Icon,
		Team:         s.Team,
		Repository:   s.Repository,
		Domain:       s.Domain,
		Status:       s.Status,
		Description:  s.Description,
		Version:      s.Version,
		Environment:  s.Environment,
		LastDeployed: s.LastDeployed,
		Links:        s.Links,
		Metrics:      scoring.Values{},
		SnapshotID:   s.ID,
		UpdatedAt:    s.TakenAt,
	}
	if svc.Status == "" {
		svc.Status = model.StatusHealthy
	}
	if svc.UpdatedAt.IsZero() {
		svc.UpdatedAt = n.now().UTC()
	}

	var issues []string
	put := func(key string, raw any) {
		v, err := n.Value(key, raw)
		if err != nil {
			issues = append(issues, err.Error())
		}
		svc.Metrics[key] = v
	}

	if gh := s.GitHub; gh != nil {
		svc.GitHub = model.GitHubStats{
			Language: gh.Language, OpenPRs: gh.OpenPRs, MergedPRs: gh.MergedPRs,
			Contributors: gh.Contributors, LastCommit: gh.LastCommit, Coverage: gh.Coverage,
		}
		put(scoring.CodeCoverage, gh.Coverage)
		put(scoring.OpenPRCount, gh.OpenPRs)
	}
	if j := s.Jira; j != nil {
		svc.Jira = model.JiraStats{
			OpenIssues: j.OpenIssues, InProgress: j.InProgress, Resolved: j.Resolved,
			Bugs: j.Bugs, SprintProgress: j.SprintProgress,
		}
		if j.AvgResolutionTime != "" {
			put(scoring.ResolutionTimeMinutes, j.AvgResolutionTime)
			svc.Jira.AvgResolutionMinutes = finiteOrZero(svc.Metrics[scoring.ResolutionTimeMinutes])
		}
		put(scoring.SprintProgress, j.SprintProgress)
	}
	if pd := s.PagerDuty; pd != nil {
		svc.PagerDuty = model.PagerDutyStats{
			ActiveIncidents: pd.ActiveIncidents, TotalIncidents: pd.TotalIncidents,
			Uptime: pd.Uptime, OnCall: pd.OnCall,
		}
		if pd.MTTR != "" {
			put(scoring.MTTRMinutes, pd.MTTR)
			svc.PagerDuty.MTTRMinutes = finiteOrZero(svc.Metrics[scoring.MTTRMinutes])
		}
		if pd.MTTA != "" {
			put(scoring.MTTAMinutes, pd.MTTA)
			svc.PagerDuty.MTTAMinutes = finiteOrZero(svc.Metrics[scoring.MTTAMinutes])
		}
		put(scoring.Uptime, pd.Uptime)
		put(scoring.ActiveIncidents, pd.ActiveIncidents)
	}

	keys := make([]string, 0, len(s.Metrics))
	for k := range s.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		put(k, s.Metrics[k])
	}

	svc.Issues = issues
	return svc, nil
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
