package scoring

import (
	"fmt"
	"sort"
)

// Thresholds holds the inclusive tier boundaries of a metric. For
// HigherIsBetter metrics they are minimums, for LowerIsBetter maximums.
type Thresholds struct {
	Gold   float64 `json:"gold"`
	Silver float64 `json:"silver"`
	Bronze float64 `json:"bronze"`
}

type step struct {
	tier  Tier
	value float64
}

// steps returns the boundaries from the highest tier down.
func (t Thresholds) steps() [3]step {
	return [3]step{{Gold, t.Gold}, {Silver, t.Silver}, {Bronze, t.Bronze}}
}

// Definition describes one metric the engine understands.
type Definition struct {
	Key        string     `json:"key"`
	Name       string     `json:"name"`
	Unit       string     `json:"unit,omitempty"`
	Category   CategoryID `json:"category,omitempty"`
	Direction  Direction  `json:"direction"`
	Scale      Scale      `json:"scale"`
	Thresholds Thresholds `json:"thresholds"`
}

// validate checks that thresholds are monotonic in the metric's direction.
func (d Definition) validate() error {
	if d.Key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidDefinition)
	}
	t := d.Thresholds
	ok := t.Gold >= t.Silver && t.Silver >= t.Bronze
	if d.Direction == LowerIsBetter {
		ok = t.Gold <= t.Silver && t.Silver <= t.Bronze
	}
	if !ok {
		return fmt.Errorf("%w: %s thresholds %v are not monotonic for %s",
			ErrInvalidDefinition, d.Key, t, d.Direction)
	}
	return nil
}

// Table is an immutable registry of metric definitions.
type Table struct {
	byKey map[string]Definition
	keys  []string
}

// NewTable validates and indexes definitions. Duplicate keys are rejected.
func NewTable(defs ...Definition) (*Table, error) {
	t := &Table{byKey: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := t.byKey[d.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate key %s", ErrInvalidDefinition, d.Key)
		}
		t.byKey[d.Key] = d
		t.keys = append(t.keys, d.Key)
	}
	return t, nil
}

// Lookup returns the definition for key or an *UnknownMetricError.
func (t *Table) Lookup(key string) (Definition, error) {
	d, ok := t.byKey[key]
	if !ok {
		return Definition{}, &UnknownMetricError{Key: key}
	}
	return d, nil
}

// All returns definitions in registration order.
func (t *Table) All() []Definition {
	out := make([]Definition, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, t.byKey[k])
	}
	return out
}

// ForCategory returns the definitions tagged with the category, sorted by key.
func (t *Table) ForCategory(id CategoryID) []Definition {
	var out []Definition
	for _, d := range t.byKey {
		if d.Category == id {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len returns the number of registered metrics.
func (t *Table) Len() int { return len(t.keys) }

// Metric keys known to the default table.
const (
	CodeCoverage            = "codeCoverage"
	TechnicalDebtDays       = "technicalDebtDays"
	CodeSmells              = "codeSmells"
	DuplicationPct          = "duplicationPct"
	CriticalVulnerabilities = "criticalVulnerabilities"
	SecurityHotspots        = "securityHotspots"
	DependencyUpdatesPct    = "dependencyUpdatesPct"
	SecurityScanPct         = "securityScanPct"
	DeploymentsPerWeek      = "deploymentsPerWeek"
	LeadTimeMinutes         = "leadTimeMinutes"
	MTTRMinutes             = "mttrMinutes"
	ChangeFailureRate       = "changeFailureRate"
	Uptime                  = "uptime"
	MonitoringCoverage      = "monitoringCoverage"
	DocumentationCoverage   = "documentationCoverage"
	RunbookCompleteness     = "runbookCompleteness"
	APIDocumentation        = "apiDocumentation"
	APITestCoverage         = "apiTestCoverage"
	APIVersioning           = "apiVersioning"
	RateLimiting            = "rateLimiting"
	AvgCommitsPerPR         = "avgCommitsPerPR"
	OpenPRCount             = "openPRCount"
	AvgLOCPerPR             = "avgLOCPerPR"
	WeeklyMergedPRs         = "weeklyMergedPRs"
	PRReviewTimeMinutes     = "prReviewTimeMinutes"
	PRSizeLines             = "prSizeLines"
	PRApprovalRate          = "prApprovalRate"
	MTTAMinutes             = "mttaMinutes"
	ResolutionTimeMinutes   = "avgResolutionTimeMinutes"
	SprintProgress          = "sprintProgress"
	ActiveIncidents         = "activeIncidents"
)

func higher(key, name, unit string, c CategoryID, gold, silver, bronze float64) Definition {
	return Definition{Key: key, Name: name, Unit: unit, Category: c, Direction: HigherIsBetter,
		Thresholds: Thresholds{Gold: gold, Silver: silver, Bronze: bronze}}
}

func lower(key, name, unit string, c CategoryID, gold, silver, bronze float64) Definition {
	return Definition{Key: key, Name: name, Unit: unit, Category: c, Direction: LowerIsBetter,
		Thresholds: Thresholds{Gold: gold, Silver: silver, Bronze: bronze}}
}

func dora(d Definition) Definition {
	d.Scale = DORAScale
	return d
}

// DefaultDefinitions returns the built-in metric catalogue.
func DefaultDefinitions() []Definition {
	return []Definition{
		higher(CodeCoverage, "Code Coverage", "%", CodeQuality, 80, 70, 60),
		lower(TechnicalDebtDays, "Technical Debt", "days", CodeQuality, 5, 10, 20),
		lower(CodeSmells, "Code Smells", "issues", CodeQuality, 2, 5, 10),
		lower(DuplicationPct, "Duplications", "%", CodeQuality, 3, 5, 10),

		lower(CriticalVulnerabilities, "Vulnerabilities", "critical", Security, 0, 1, 3),
		lower(SecurityHotspots, "Security Hotspots", "issues", Security, 0, 2, 5),
		higher(DependencyUpdatesPct, "Dependency Updates", "%", Security, 95, 85, 70),
		higher(SecurityScanPct, "Security Scan", "%", Security, 100, 90, 75),

		dora(higher(DeploymentsPerWeek, "Deployment Frequency", "/week", DORA, 10, 5, 1)),
		dora(lower(LeadTimeMinutes, "Lead Time", "min", DORA, 240, 1440, 10080)),
		dora(lower(MTTRMinutes, "MTTR", "min", DORA, 30, 60, 240)),
		dora(lower(ChangeFailureRate, "Change Failure Rate", "%", DORA, 5, 15, 30)),

		higher(Uptime, "Uptime", "%", ProductionReadiness, 99.9, 99.5, 99),
		higher(MonitoringCoverage, "Monitoring", "%", ProductionReadiness, 90, 80, 70),
		higher(DocumentationCoverage, "Documentation", "%", ProductionReadiness, 85, 70, 50),
		higher(RunbookCompleteness, "Runbook", "%", ProductionReadiness, 100, 80, 60),

		higher(APIDocumentation, "API Docs", "%", APIReadiness, 90, 75, 60),
		higher(APITestCoverage, "API Tests", "%", APIReadiness, 80, 70, 60),
		higher(APIVersioning, "Versioning", "%", APIReadiness, 100, 80, 60),
		higher(RateLimiting, "Rate Limiting", "%", APIReadiness, 100, 80, 60),

		lower(AvgCommitsPerPR, "Avg Commits per PR", "commits", PRMetrics, 2, 5, 10),
		lower(OpenPRCount, "Open PRs", "PRs", PRMetrics, 2, 4, 8),
		lower(AvgLOCPerPR, "Avg LOC per PR", "lines", PRMetrics, 200, 500, 1000),
		higher(WeeklyMergedPRs, "Weekly Merged PRs", "PRs", PRMetrics, 10, 5, 3),
		lower(PRReviewTimeMinutes, "Review Time", "min", PRMetrics, 240, 480, 1440),
		lower(PRSizeLines, "PR Size", "lines", PRMetrics, 200, 300, 500),
		higher(PRApprovalRate, "Approval Rate", "%", PRMetrics, 98, 95, 90),

		lower(MTTAMinutes, "MTTA", "min", "", 5, 10, 30),
		lower(ResolutionTimeMinutes, "Avg Resolution Time", "min", "", 1440, 2880, 7200),
		higher(SprintProgress, "Sprint Progress", "%", "", 85, 70, 50),
		lower(ActiveIncidents, "Active Incidents", "incidents", "", 0, 1, 3),
	}
}

// DefaultTable returns a table built from DefaultDefinitions.
func DefaultTable() *Table {
	t, err := NewTable(DefaultDefinitions()...)
	if err != nil {
		panic(err) // built-in definitions are static
	}
	return t
}
