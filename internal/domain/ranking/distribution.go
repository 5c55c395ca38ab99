package ranking

import (
	"github.com/okian/syncops/internal/domain/scoring"
)

// Segment is one slice of a distribution chart.
type Segment struct {
	Tier    scoring.Tier `json:"tier"`
	Label   string       `json:"label"`
	Color   string       `json:"color"`
	Count   int          `json:"count"`
	Percent int          `json:"percent"`
}

// Distribution counts tiers from highest to lowest. Percentages use the
// largest remainder method so they always sum to 100 for non-empty input.
func Distribution(tiers []scoring.Tier) []Segment {
	order := []scoring.Tier{scoring.Gold, scoring.Silver, scoring.Bronze, scoring.Basic}
	counts := make(map[scoring.Tier]int, len(order))
	for _, t := range tiers {
		counts[t]++
	}

	segs := make([]Segment, len(order))
	rems := make([]int, len(order))
	total := len(tiers)
	assigned := 0
	for i, t := range order {
		segs[i] = Segment{Tier: t, Label: t.String(), Color: t.Color(), Count: counts[t]}
		if total == 0 {
			continue
		}
		segs[i].Percent = counts[t] * 100 / total
		rems[i] = counts[t] * 100 % total
		assigned += segs[i].Percent
	}
	for left := 100 - assigned; total > 0 && left > 0; left-- {
		best := 0
		for i := range rems {
			if rems[i] > rems[best] {
				best = i
			}
		}
		segs[best].Percent++
		rems[best] = -1
	}
	return segs
}
