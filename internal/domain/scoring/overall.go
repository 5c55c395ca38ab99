package scoring

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Level is the qualitative reading of an overall score.
type Level int

const (
	NeedsImprovement Level = iota
	Fair
	Good
	Excellent
)

type levelInfo struct {
	min   int
	name  string
	color string
	icon  string
}

// levels is evaluated top-down; the first inclusive lower bound wins.
var levels = [...]levelInfo{
	Excellent:        {90, "Excellent", "#00D9A5", "🏆"},
	Good:             {75, "Good", "#4E9FFF", "✓"},
	Fair:             {60, "Fair", "#FFB800", "⚠"},
	NeedsImprovement: {0, "Needs Improvement", "#FF6B6B", "!"},
}

// LevelFor maps a 0..100 score to its level.
func LevelFor(score int) Level {
	for _, l := range []Level{Excellent, Good, Fair} {
		if score >= levels[l].min {
			return l
		}
	}
	return NeedsImprovement
}

func (l Level) info() levelInfo {
	if l < NeedsImprovement || l > Excellent {
		return levels[NeedsImprovement]
	}
	return levels[l]
}

func (l Level) String() string { return l.info().name }
func (l Level) Color() string  { return l.info().color }
func (l Level) Icon() string   { return l.info().icon }

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(b []byte) error {
	for i := range levels {
		if strings.EqualFold(levels[i].name, string(b)) {
			*l = Level(i)
			return nil
		}
	}
	return fmt.Errorf("unknown level %q", string(b))
}

// Overall is an aggregated score with its level.
type Overall struct {
	Score int    `json:"score"`
	Level Level  `json:"level"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// AggregateOverall averages category scores and rounds half up. An empty
// input yields 0 and NeedsImprovement.
func AggregateOverall(scores []int) Overall {
	score := 0
	if len(scores) > 0 {
		xs := make([]float64, len(scores))
		for i, s := range scores {
			xs[i] = float64(s)
		}
		score = roundHalfUp(stat.Mean(xs, nil))
	}
	lvl := LevelFor(score)
	return Overall{Score: score, Level: lvl, Color: lvl.Color(), Icon: lvl.Icon()}
}

// BadgeForScore maps a category score onto a medal tier using the level
// boundaries: Excellent is Gold, Good Silver, Fair Bronze.
func BadgeForScore(score int) Tier {
	switch LevelFor(score) {
	case Excellent:
		return Gold
	case Good:
		return Silver
	case Fair:
		return Bronze
	default:
		return Basic
	}
}

// Band is the color band of a progress bar.
type Band string

const (
	BandHigh     Band = "high"
	BandMedium   Band = "medium"
	BandLow      Band = "low"
	BandCritical Band = "critical"
)

// BandFor maps a 0..100 value to its band.
func BandFor(v int) Band {
	switch {
	case v >= 80:
		return BandHigh
	case v >= 60:
		return BandMedium
	case v >= 40:
		return BandLow
	default:
		return BandCritical
	}
}

// Color returns the bar color of the band.
func (b Band) Color() string {
	switch b {
	case BandHigh:
		return "#00D9A5"
	case BandMedium:
		return "#FFB800"
	case BandLow:
		return "#FF9500"
	default:
		return "#FF6B6B"
	}
}
