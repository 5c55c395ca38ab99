package scoring

import (
	"encoding/json"
	"math"
	"strings"
)

// CategoryID identifies a scorecard category.
type CategoryID string

const (
	CodeQuality         CategoryID = "code-quality"
	Security            CategoryID = "security"
	DORA                CategoryID = "dora-metrics"
	ProductionReadiness CategoryID = "production-readiness"
	PRMetrics           CategoryID = "pr-metrics"
	APIReadiness        CategoryID = "api-readiness"
)

// AllCategories lists categories in display order.
var AllCategories = []CategoryID{CodeQuality, Security, DORA, ProductionReadiness, APIReadiness, PRMetrics}

// LeaderboardCategories are the four categories averaged for ranking.
var LeaderboardCategories = []CategoryID{ProductionReadiness, PRMetrics, CodeQuality, DORA}

var categoryAliases = map[string]CategoryID{
	"code-quality": CodeQuality, "codequality": CodeQuality, "quality": CodeQuality,
	"security": Security, "security-maturity": Security,
	"dora-metrics": DORA, "dora": DORA,
	"production-readiness": ProductionReadiness, "production": ProductionReadiness,
	"pr-metrics": PRMetrics, "pr": PRMetrics,
	"api-readiness": APIReadiness, "api": APIReadiness,
}

// ParseCategory accepts a category id or one of its short names
// ("dora", "production", "api", "pr").
func ParseCategory(s string) (CategoryID, error) {
	if id, ok := categoryAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return id, nil
	}
	return "", &categoryError{id: CategoryID(s)}
}

// Values maps metric keys to normalized numeric values. A missing key means
// the metric was not reported.
type Values map[string]float64

// MarshalJSON renders non-finite values as null so a reported but
// unusable metric stays distinguishable from a missing one.
func (v Values) MarshalJSON() ([]byte, error) {
	out := make(map[string]*float64, len(v))
	for k, x := range v {
		out[k] = finite(x)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads null entries back as NaN.
func (v *Values) UnmarshalJSON(b []byte) error {
	var in map[string]*float64
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	if in == nil {
		*v = nil
		return nil
	}
	out := make(Values, len(in))
	for k, x := range in {
		if x == nil {
			out[k] = math.NaN()
			continue
		}
		out[k] = *x
	}
	*v = out
	return nil
}

// Gate is a single pass/fail check. Its direction comes from the metric's
// definition, so Threshold is a minimum or a maximum accordingly.
type Gate struct {
	Metric    string  `json:"metric"`
	Threshold float64 `json:"threshold"`
}

// CategorySpec is a category together with its gate set.
type CategorySpec struct {
	ID    CategoryID `json:"id"`
	Name  string     `json:"name"`
	Icon  string     `json:"icon,omitempty"`
	Gates []Gate     `json:"gates"`
}

// DefaultCategories returns the gate sets used by the scorecard.
func DefaultCategories() []CategorySpec {
	return []CategorySpec{
		{ID: CodeQuality, Name: "Code Quality", Icon: "💻", Gates: []Gate{
			{CodeCoverage, 80}, {TechnicalDebtDays, 10}, {CodeSmells, 5}, {DuplicationPct, 5},
		}},
		{ID: Security, Name: "Security Maturity", Icon: "🔒", Gates: []Gate{
			{CriticalVulnerabilities, 0}, {SecurityHotspots, 0}, {DependencyUpdatesPct, 95}, {SecurityScanPct, 100},
		}},
		{ID: DORA, Name: "DORA Metrics", Icon: "🚀", Gates: []Gate{
			{DeploymentsPerWeek, 10}, {LeadTimeMinutes, 240}, {MTTRMinutes, 30}, {ChangeFailureRate, 10},
		}},
		{ID: ProductionReadiness, Name: "Production Readiness", Icon: "✅", Gates: []Gate{
			{Uptime, 99.9}, {MonitoringCoverage, 90}, {DocumentationCoverage, 85}, {RunbookCompleteness, 100},
		}},
		{ID: APIReadiness, Name: "API Readiness", Icon: "🔌", Gates: []Gate{
			{APIDocumentation, 90}, {APITestCoverage, 80}, {APIVersioning, 100}, {RateLimiting, 100},
		}},
		{ID: PRMetrics, Name: "PR Metrics", Icon: "🔀", Gates: []Gate{
			{AvgCommitsPerPR, 14}, {OpenPRCount, 4}, {AvgLOCPerPR, 1500}, {WeeklyMergedPRs, 3},
		}},
	}
}

// GateResult is the outcome of one gate.
type GateResult struct {
	Metric    string    `json:"metric"`
	Name      string    `json:"name,omitempty"`
	Unit      string    `json:"unit,omitempty"`
	Direction Direction `json:"direction"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Missing   bool      `json:"missing,omitempty"`
	Passed    bool      `json:"passed"`
	Points    int       `json:"points"`
	// Progress is how close the value is to the threshold, 0..100.
	Progress int   `json:"progress"`
	Badge    Badge `json:"badge"`
}

// MarshalJSON renders non-finite values as null.
func (g GateResult) MarshalJSON() ([]byte, error) {
	type plain GateResult
	return json.Marshal(struct {
		plain
		Value *float64 `json:"value"`
	}{plain: plain(g), Value: finite(g.Value)})
}

// CategoryResult is a scored category.
type CategoryResult struct {
	ID      CategoryID   `json:"id"`
	Name    string       `json:"name"`
	Icon    string       `json:"icon,omitempty"`
	Formula Formula      `json:"formula"`
	Score   int          `json:"score"`
	Passed  int          `json:"passed"`
	Total   int          `json:"total"`
	Gates   []GateResult `json:"gates,omitempty"`
	// Tier and Level describe Score for badges and headers.
	Tier  Tier   `json:"tier"`
	Label string `json:"label"`
	Level Level  `json:"level"`
	Band  Band   `json:"band"`
}

// AggregateCategory scores spec against values. Every gate is worth an equal
// share of 100 points and a missing or NaN value fails its gate. Gates whose
// metric is absent from table are evaluated higher-is-better and reported.
func AggregateCategory(table *Table, spec CategorySpec, values Values) (CategoryResult, error) {
	res := CategoryResult{ID: spec.ID, Name: spec.Name, Icon: spec.Icon, Formula: FormulaGate, Total: len(spec.Gates)}
	if len(spec.Gates) == 0 {
		res.describe()
		return res, &EmptyCategoryError{Category: spec.ID}
	}

	var firstErr error
	res.Gates = make([]GateResult, 0, len(spec.Gates))
	for _, g := range spec.Gates {
		def, err := table.Lookup(g.Metric)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			def = Definition{Key: g.Metric, Name: g.Metric}
		}
		gr := evaluateGate(def, g, values)
		if gr.Passed {
			res.Passed++
		}
		res.Gates = append(res.Gates, gr)
	}

	share := pointShare(len(spec.Gates))
	for i := range res.Gates {
		if res.Gates[i].Passed {
			res.Gates[i].Points = share
		}
	}
	res.Score = gateScore(res.Passed, res.Total)
	res.describe()
	return res, firstErr
}

func evaluateGate(def Definition, g Gate, values Values) GateResult {
	v, ok := values[g.Metric]
	gr := GateResult{
		Metric:    g.Metric,
		Name:      def.Name,
		Unit:      def.Unit,
		Direction: def.Direction,
		Value:     v,
		Threshold: g.Threshold,
	}
	if !ok {
		gr.Missing = true
		gr.Value = math.NaN()
	}
	gr.Passed = !math.IsNaN(gr.Value) && def.Direction.meets(gr.Value, g.Threshold)
	gr.Progress = Progress(def.Direction, gr.Value, g.Threshold)
	gr.Badge = NewBadge(def, gr.Value)
	return gr
}

// pointShare is the displayed per-gate share, exact for 4 gates.
func pointShare(n int) int {
	if n <= 0 {
		return 0
	}
	return roundHalfUp(100 / float64(n))
}

// gateScore returns round(passed*100/total) in whole points.
func gateScore(passed, total int) int {
	if total <= 0 {
		return 0
	}
	return roundHalfUp(float64(passed*100) / float64(total))
}

// Progress returns the card progress toward target in percent, clamped to
// [0,100]. Lower-is-better metrics use target/value.
func Progress(d Direction, value, target float64) int {
	if math.IsNaN(value) {
		return 0
	}
	var p float64
	switch {
	case d == LowerIsBetter && value <= 0:
		p = 100
	case d == LowerIsBetter:
		p = target / value * 100
	case target <= 0:
		p = 100
	default:
		p = value / target * 100
	}
	return int(math.Round(math.Max(0, math.Min(100, p))))
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// describe fills the derived presentation fields from Score.
func (r *CategoryResult) describe() {
	r.Tier = BadgeForScore(r.Score)
	r.Label = r.Tier.String()
	r.Level = LevelFor(r.Score)
	r.Band = BandFor(r.Score)
}
