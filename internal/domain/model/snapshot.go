package model

import "time"

// Snapshot is a raw service report as delivered by a data source or read
// from fixtures. Durations are free-form strings ("15 min", "2.3 days") and
// Metrics values may be numbers or strings; nothing here is normalized.
type Snapshot struct {
	ID           string         `json:"id,omitempty" yaml:"id,omitempty"`
	ServiceID    string         `json:"serviceId" yaml:"serviceId"`
	Name         string         `json:"name" yaml:"name"`
	Icon         string         `json:"icon,omitempty" yaml:"icon,omitempty"`
	Team         string         `json:"team" yaml:"team"`
	Repository   string         `json:"repository" yaml:"repository"`
	Domain       string         `json:"domain,omitempty" yaml:"domain,omitempty"`
	Status       string         `json:"status,omitempty" yaml:"status,omitempty"`
	Description  string         `json:"description,omitempty" yaml:"description,omitempty"`
	Version      string         `json:"version,omitempty" yaml:"version,omitempty"`
	Environment  string         `json:"environment,omitempty" yaml:"environment,omitempty"`
	LastDeployed string         `json:"lastDeployed,omitempty" yaml:"lastDeployed,omitempty"`
	Links        Links          `json:"links" yaml:"links"`
	GitHub       *RawGitHub     `json:"github,omitempty" yaml:"github,omitempty"`
	Jira         *RawJira       `json:"jira,omitempty" yaml:"jira,omitempty"`
	PagerDuty    *RawPagerDuty  `json:"pagerduty,omitempty" yaml:"pagerduty,omitempty"`
	Metrics      map[string]any `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	TakenAt      time.Time      `json:"takenAt,omitempty" yaml:"takenAt,omitempty"`
}

// RawGitHub mirrors the GitHub block of a snapshot.
type RawGitHub struct {
	Language     string  `json:"language,omitempty" yaml:"language,omitempty"`
	OpenPRs      int     `json:"openPRs" yaml:"openPRs"`
	MergedPRs    int     `json:"mergedPRs" yaml:"mergedPRs"`
	Contributors int     `json:"contributors" yaml:"contributors"`
	LastCommit   string  `json:"lastCommit,omitempty" yaml:"lastCommit,omitempty"`
	Coverage     float64 `json:"coverage" yaml:"coverage"`
}

// RawJira mirrors the Jira block of a snapshot.
type RawJira struct {
	OpenIssues        int     `json:"openIssues" yaml:"openIssues"`
	InProgress        int     `json:"inProgress" yaml:"inProgress"`
	Resolved          int     `json:"resolved" yaml:"resolved"`
	Bugs              int     `json:"bugs" yaml:"bugs"`
	AvgResolutionTime string  `json:"avgResolutionTime,omitempty" yaml:"avgResolutionTime,omitempty"`
	SprintProgress    float64 `json:"sprintProgress" yaml:"sprintProgress"`
}

// RawPagerDuty mirrors the PagerDuty block of a snapshot.
type RawPagerDuty struct {
	ActiveIncidents int     `json:"activeIncidents" yaml:"activeIncidents"`
	TotalIncidents  int     `json:"totalIncidents" yaml:"totalIncidents"`
	MTTR            string  `json:"mttr,omitempty" yaml:"mttr,omitempty"`
	MTTA            string  `json:"mtta,omitempty" yaml:"mtta,omitempty"`
	Uptime          float64 `json:"uptime" yaml:"uptime"`
	OnCall          string  `json:"onCall,omitempty" yaml:"onCall,omitempty"`
}
