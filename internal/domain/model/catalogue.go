package model

import (
	"github.com/okian/syncops/internal/domain/scoring"
)

// Team groups services and carries per-category scores reported for it.
type Team struct {
	ID                  string `json:"id" yaml:"id"`
	Name                string `json:"name" yaml:"name"`
	Icon                string `json:"icon,omitempty" yaml:"icon,omitempty"`
	ServiceCount        int    `json:"serviceCount" yaml:"serviceCount"`
	ProductionReadiness int    `json:"productionReadiness" yaml:"productionReadiness"`
	PRMetrics           int    `json:"prMetrics" yaml:"prMetrics"`
	CodeQuality         int    `json:"codeQuality" yaml:"codeQuality"`
	DORAMetrics         int    `json:"doraMetrics" yaml:"doraMetrics"`
	SecurityMaturity    int    `json:"securityMaturity" yaml:"securityMaturity"`
}

// Scores returns the team's category scores keyed by category.
func (t Team) Scores() map[scoring.CategoryID]int {
	return map[scoring.CategoryID]int{
		scoring.ProductionReadiness: t.ProductionReadiness,
		scoring.PRMetrics:           t.PRMetrics,
		scoring.CodeQuality:         t.CodeQuality,
		scoring.DORA:                t.DORAMetrics,
		scoring.Security:            t.SecurityMaturity,
	}
}

// Domain is a business domain of the catalogue.
type Domain struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	ServiceCount int    `json:"serviceCount" yaml:"serviceCount"`
	Color        string `json:"color,omitempty" yaml:"color,omitempty"`
}

// Repository is a selectable group of services.
type Repository struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}
