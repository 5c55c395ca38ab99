package scoring

import (
	"fmt"
	"math"
	"strings"
)

// Formula names a category scoring method. The two formulas disagree on
// purpose and are never blended.
type Formula string

const (
	// FormulaGate awards an equal share of points per passed gate.
	FormulaGate Formula = "gate"
	// FormulaLegacy reproduces the fixed formulas of the service scorecard
	// view: coverage ratio, rounded uptime, and constants elsewhere.
	FormulaLegacy Formula = "legacy"
)

// ParseFormula accepts "gate", "legacy", or empty for FormulaGate.
func ParseFormula(s string) (Formula, error) {
	switch Formula(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormulaGate:
		return FormulaGate, nil
	case FormulaLegacy:
		return FormulaLegacy, nil
	default:
		return "", &formulaError{formula: Formula(s)}
	}
}

const legacyCoverageTarget = 80

// legacyConstants are the fixed scores the legacy view shows.
var legacyConstants = map[CategoryID]int{
	Security:     85,
	DORA:         78,
	APIReadiness: 92,
	PRMetrics:    88,
}

// LegacyScore computes a category score with FormulaLegacy. Missing inputs
// score 0.
func LegacyScore(id CategoryID, values Values) (int, error) {
	switch id {
	case CodeQuality:
		cov, ok := values[CodeCoverage]
		if !ok || math.IsNaN(cov) {
			return 0, nil
		}
		return min(100, roundHalfUp(cov/legacyCoverageTarget*100)), nil
	case ProductionReadiness:
		up, ok := values[Uptime]
		if !ok || math.IsNaN(up) {
			return 0, nil
		}
		return roundHalfUp(up), nil
	}
	if c, ok := legacyConstants[id]; ok {
		return c, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownCategory, id)
}
