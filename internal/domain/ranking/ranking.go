// Package ranking orders teams and services for leaderboard displays.
package ranking

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/okian/syncops/internal/domain/scoring"
)

// Candidate is an entity eligible for ranking.
type Candidate struct {
	ID     string
	Name   string
	Icon   string
	Scores map[scoring.CategoryID]int
}

// Entry is one ranked position.
type Entry struct {
	Rank      int                        `json:"rank"`
	ID        string                     `json:"id"`
	Name      string                     `json:"name"`
	Icon      string                     `json:"icon,omitempty"`
	Composite float64                    `json:"composite"`
	Score     int                        `json:"score"`
	Level     scoring.Level              `json:"level"`
	Scores    map[scoring.CategoryID]int `json:"scores,omitempty"`
}

// Composite is the unweighted mean of the leaderboard categories. A missing
// category counts as 0.
func Composite(scores map[scoring.CategoryID]int) float64 {
	xs := make([]float64, len(scoring.LeaderboardCategories))
	for i, id := range scoring.LeaderboardCategories {
		xs[i] = float64(scores[id])
	}
	return stat.Mean(xs, nil)
}

// Rank orders candidates by composite descending. Equal composites are
// ordered by id ascending, numerically when both ids are integers, so the
// result does not depend on input order. Ranks are 1-based and ordinal.
func Rank(candidates []Candidate) []Entry {
	out := make([]Entry, len(candidates))
	for i, c := range candidates {
		comp := Composite(c.Scores)
		score := int(math.Floor(comp + 0.5))
		out[i] = Entry{
			ID:        c.ID,
			Name:      c.Name,
			Icon:      c.Icon,
			Composite: comp,
			Score:     score,
			Level:     scoring.LevelFor(score),
			Scores:    c.Scores,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Composite != out[j].Composite {
			return out[i].Composite > out[j].Composite
		}
		return lessID(out[i].ID, out[j].ID)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Top returns at most limit entries; limit <= 0 means all.
func Top(entries []Entry, limit int) []Entry {
	if limit <= 0 || limit >= len(entries) {
		return entries
	}
	return entries[:limit]
}

func lessID(a, b string) bool {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
