package scoring

import (
	"encoding/json"
	"math"
)

// Classify maps a value onto the highest tier whose threshold it meets.
// NaN classifies as Basic.
func Classify(def Definition, value float64) Tier {
	if math.IsNaN(value) {
		return Basic
	}
	for _, s := range def.Thresholds.steps() {
		if def.Direction.meets(value, s.value) {
			return s.tier
		}
	}
	return Basic
}

// Badge is the presentable outcome of classifying one metric value.
type Badge struct {
	Metric string  `json:"metric"`
	Name   string  `json:"name,omitempty"`
	Value  float64 `json:"value"`
	Tier   Tier    `json:"tier"`
	Label  string  `json:"label"`
	Color  string  `json:"color"`
	// Reason is set when the badge fell back to Basic because of an error.
	Reason string `json:"reason,omitempty"`
}

// NewBadge classifies value against def.
func NewBadge(def Definition, value float64) Badge {
	tier := Classify(def, value)
	return Badge{
		Metric: def.Key,
		Name:   def.Name,
		Value:  value,
		Tier:   tier,
		Label:  tier.Label(def.Scale),
		Color:  tier.Color(),
	}
}

// basicBadge is the fallback rendered for unusable input.
func basicBadge(key string, value float64, reason string) Badge {
	return Badge{
		Metric: key,
		Value:  value,
		Tier:   Basic,
		Label:  Basic.String(),
		Color:  Basic.Color(),
		Reason: reason,
	}
}

// MarshalJSON renders non-finite values as null.
func (b Badge) MarshalJSON() ([]byte, error) {
	type plain Badge
	return json.Marshal(struct {
		plain
		Value *float64 `json:"value"`
	}{plain: plain(b), Value: finite(b.Value)})
}

// finite returns nil for NaN and infinities, which JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
