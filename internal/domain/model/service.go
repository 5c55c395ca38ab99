// Package model contains the catalogue entities passed between layers.
package model

import (
	"time"

	"github.com/okian/syncops/internal/domain/scoring"
)

// Service status values shown in the catalogue.
const (
	StatusHealthy = "Healthy"
	StatusWarning = "Warning"
	StatusError   = "Error"
)

// Links point at a service's external tools.
type Links struct {
	GitHub    string `json:"github,omitempty" yaml:"github,omitempty"`
	Jira      string `json:"jira,omitempty" yaml:"jira,omitempty"`
	PagerDuty string `json:"pagerduty,omitempty" yaml:"pagerduty,omitempty"`
}

// GitHubStats is the repository block of a service.
type GitHubStats struct {
	Language     string  `json:"language,omitempty"`
	OpenPRs      int     `json:"openPRs"`
	MergedPRs    int     `json:"mergedPRs"`
	Contributors int     `json:"contributors"`
	LastCommit   string  `json:"lastCommit,omitempty"`
	Coverage     float64 `json:"coverage"`
}

// JiraStats is the issue tracker block. Resolution time is in minutes.
type JiraStats struct {
	OpenIssues           int     `json:"openIssues"`
	InProgress           int     `json:"inProgress"`
	Resolved             int     `json:"resolved"`
	Bugs                 int     `json:"bugs"`
	AvgResolutionMinutes float64 `json:"avgResolutionMinutes"`
	SprintProgress       float64 `json:"sprintProgress"`
}

// PagerDutyStats is the incident block. Durations are in minutes.
type PagerDutyStats struct {
	ActiveIncidents int     `json:"activeIncidents"`
	TotalIncidents  int     `json:"totalIncidents"`
	MTTRMinutes     float64 `json:"mttrMinutes"`
	MTTAMinutes     float64 `json:"mttaMinutes"`
	Uptime          float64 `json:"uptime"`
	OnCall          string  `json:"onCall,omitempty"`
}

// Service is a normalized catalogue entry. Scores are never stored on it;
// they are computed from Metrics on every read.
type Service struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Icon         string         `json:"icon,omitempty"`
	Team         string         `json:"team"`
	Repository   string         `json:"repository"`
	Domain       string         `json:"domain,omitempty"`
	Status       string         `json:"status"`
	Description  string         `json:"description,omitempty"`
	Version      string         `json:"version,omitempty"`
	Environment  string         `json:"environment,omitempty"`
	LastDeployed string         `json:"lastDeployed,omitempty"`
	Links        Links          `json:"links"`
	GitHub       GitHubStats    `json:"github"`
	Jira         JiraStats      `json:"jira"`
	PagerDuty    PagerDutyStats `json:"pagerduty"`
	// Metrics holds normalized scorecard inputs keyed by metric key. NaN marks
	// a value that was reported but could not be used.
	Metrics      scoring.Values `json:"metrics"`
	Issues       []string       `json:"issues,omitempty"`
	SnapshotID   string         `json:"snapshotId,omitempty"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (s Service) Clone() Service {
	out := s
	if s.Metrics != nil {
		out.Metrics = make(scoring.Values, len(s.Metrics))
		for k, v := range s.Metrics {
			out.Metrics[k] = v
		}
	}
	if s.Issues != nil {
		out.Issues = append([]string(nil), s.Issues...)
	}
	return out
}
