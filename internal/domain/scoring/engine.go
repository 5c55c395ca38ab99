// Package scoring classifies metric values into tiers and aggregates them into
// category and overall scores.
//
// The free functions (Classify, AggregateCategory, AggregateOverall) are pure.
// Engine wraps them with the fallback policy: unknown metrics and unusable
// values degrade to Basic and are logged instead of failing the caller.
package scoring

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/okian/syncops/pkg/logger"
	"github.com/okian/syncops/pkg/metrics"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithTable replaces the default definition table.
func WithTable(t *Table) Option {
	return func(e *Engine) {
		if t != nil {
			e.table = t
		}
	}
}

// WithCategories replaces the default category gate sets.
func WithCategories(specs ...CategorySpec) Option {
	return func(e *Engine) {
		if len(specs) > 0 {
			e.setCategories(specs)
		}
	}
}

// WithLogger sets the logger used for degraded results.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithDefaultFormula sets the formula used when callers pass an empty one.
func WithDefaultFormula(f Formula) Option {
	return func(e *Engine) {
		if f != "" {
			e.formula = f
		}
	}
}

// Engine is safe for concurrent use; it holds no mutable state.
type Engine struct {
	table      *Table
	categories map[CategoryID]CategorySpec
	order      []CategoryID
	formula    Formula
	log        logger.Logger
}

// NewEngine creates an engine with the built-in table and categories.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		table:   DefaultTable(),
		formula: FormulaGate,
		log:     logger.Get().Named("scoring"),
	}
	e.setCategories(DefaultCategories())
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) setCategories(specs []CategorySpec) {
	e.categories = make(map[CategoryID]CategorySpec, len(specs))
	e.order = e.order[:0]
	for _, s := range specs {
		if _, dup := e.categories[s.ID]; !dup {
			e.order = append(e.order, s.ID)
		}
		e.categories[s.ID] = s
	}
}

// Table exposes the definition table.
func (e *Engine) Table() *Table { return e.table }

// Categories returns category specs in display order.
func (e *Engine) Categories() []CategorySpec {
	out := make([]CategorySpec, 0, len(e.order))
	for _, id := range e.order {
		out = append(out, e.categories[id])
	}
	return out
}

// Category returns one category spec.
func (e *Engine) Category(id CategoryID) (CategorySpec, bool) {
	s, ok := e.categories[id]
	return s, ok
}

// Classify returns the badge for a metric value. Unknown keys and NaN
// values yield a Basic badge carrying the failure reason.
func (e *Engine) Classify(ctx context.Context, key string, value float64) Badge {
	def, err := e.table.Lookup(key)
	if err != nil {
		e.degrade(ctx, key, err)
		return basicBadge(key, value, err.Error())
	}
	if math.IsNaN(value) {
		err := &InvalidValueError{Key: key, Value: "NaN"}
		e.degrade(ctx, key, err)
		b := NewBadge(def, value)
		b.Reason = err.Error()
		return b
	}
	b := NewBadge(def, value)
	metrics.RecordClassification(key, strings.ToLower(b.Tier.String()))
	return b
}

// ClassifyRaw parses raw as a number before classifying. Anything that does
// not parse degrades to Basic with an InvalidValueError reason.
func (e *Engine) ClassifyRaw(ctx context.Context, key, raw string) Badge {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err == nil {
		return e.Classify(ctx, key, v)
	}
	def, lerr := e.table.Lookup(key)
	if lerr != nil {
		e.degrade(ctx, key, lerr)
		return basicBadge(key, math.NaN(), lerr.Error())
	}
	ierr := &InvalidValueError{Key: key, Value: raw}
	e.degrade(ctx, key, ierr)
	b := NewBadge(def, math.NaN())
	b.Reason = ierr.Error()
	return b
}

// Badges classifies every value in values that has a definition, in table
// order. Keys without a definition are skipped.
func (e *Engine) Badges(ctx context.Context, values Values) []Badge {
	out := make([]Badge, 0, len(values))
	for _, def := range e.table.All() {
		v, ok := values[def.Key]
		if !ok {
			continue
		}
		out = append(out, e.Classify(ctx, def.Key, v))
	}
	return out
}

// CategoryScore scores one category with the given formula. Only an unknown
// category or formula is reported as an error; metric problems degrade.
func (e *Engine) CategoryScore(ctx context.Context, id CategoryID, values Values, formula Formula) (CategoryResult, error) {
	spec, ok := e.categories[id]
	if !ok {
		return CategoryResult{ID: id}, &categoryError{id: id}
	}
	if formula == "" {
		formula = e.formula
	}

	res, err := AggregateCategory(e.table, spec, values)
	if err != nil {
		e.degrade(ctx, string(id), err)
	}
	switch formula {
	case FormulaGate:
	case FormulaLegacy:
		score, lerr := LegacyScore(id, values)
		if lerr != nil {
			e.degrade(ctx, string(id), lerr)
		}
		res.Formula = FormulaLegacy
		res.Score = score
		res.describe()
	default:
		return CategoryResult{ID: id}, &formulaError{formula: formula}
	}
	metrics.RecordCategoryScore(string(id), res.Score)
	return res, nil
}

// Scorecard is every category of an entity plus the overall score.
type Scorecard struct {
	Formula    Formula          `json:"formula"`
	Categories []CategoryResult `json:"categories"`
	Overall    Overall          `json:"overall"`
}

// Scorecard scores all categories in display order.
func (e *Engine) Scorecard(ctx context.Context, values Values, formula Formula) (Scorecard, error) {
	if formula == "" {
		formula = e.formula
	}
	sc := Scorecard{Formula: formula, Categories: make([]CategoryResult, 0, len(e.order))}
	scores := make([]int, 0, len(e.order))
	for _, id := range e.order {
		res, err := e.CategoryScore(ctx, id, values, formula)
		if err != nil {
			return Scorecard{}, err
		}
		sc.Categories = append(sc.Categories, res)
		scores = append(scores, res.Score)
	}
	sc.Overall = e.Overall(ctx, scores)
	return sc, nil
}

// Overall aggregates category scores.
func (e *Engine) Overall(_ context.Context, scores []int) Overall {
	o := AggregateOverall(scores)
	metrics.RecordOverallScore(o.Score)
	return o
}

// CategoryScores flattens a scorecard into a score per category.
func (sc Scorecard) CategoryScores() map[CategoryID]int {
	out := make(map[CategoryID]int, len(sc.Categories))
	for _, c := range sc.Categories {
		out[c.ID] = c.Score
	}
	return out
}

func (e *Engine) degrade(ctx context.Context, subject string, err error) {
	reason := "other"
	switch {
	case errors.Is(err, ErrUnknownMetric):
		reason = "unknown_metric"
	case errors.Is(err, ErrInvalidValue):
		reason = "invalid_value"
	case errors.Is(err, ErrEmptyCategory):
		reason = "empty_category"
	case errors.Is(err, ErrUnknownCategory):
		reason = "unknown_category"
	}
	metrics.RecordDegraded(reason)
	e.log.Warn(ctx, "degraded to basic", logger.String("subject", subject), logger.String("reason", reason), logger.Error(err))
}

type categoryError struct{ id CategoryID }

func (e *categoryError) Error() string { return "unknown category " + string(e.id) }
func (e *categoryError) Unwrap() error { return ErrUnknownCategory }

type formulaError struct{ formula Formula }

func (e *formulaError) Error() string { return "unknown formula " + string(e.formula) }
func (e *formulaError) Unwrap() error { return ErrUnknownFormula }
