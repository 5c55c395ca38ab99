package scoring

import (
	"fmt"
	"strings"
)

// Direction tells whether larger raw values are better.
type Direction int

const (
	HigherIsBetter Direction = iota
	LowerIsBetter
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	if d == LowerIsBetter {
		return "lower_is_better"
	}
	return "higher_is_better"
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "higher_is_better", "higher":
		*d = HigherIsBetter
	case "lower_is_better", "lower":
		*d = LowerIsBetter
	default:
		return fmt.Errorf("unknown direction %q", string(b))
	}
	return nil
}

// meets reports whether value satisfies threshold t. Comparisons are inclusive.
func (d Direction) meets(value, t float64) bool {
	if d == LowerIsBetter {
		return value <= t
	}
	return value >= t
}

// Tier is a badge rank. Tiers are totally ordered: Basic < Bronze < Silver < Gold.
type Tier int

const (
	Basic Tier = iota
	Bronze
	Silver
	Gold
)

// Scale selects the label set used for a tier.
type Scale int

const (
	// MedalScale labels tiers Gold/Silver/Bronze/Basic.
	MedalScale Scale = iota
	// DORAScale labels the same ranks Elite/High/Medium/Basic.
	DORAScale
)

var (
	medalLabels = [...]string{"Basic", "Bronze", "Silver", "Gold"}
	doraLabels  = [...]string{"Basic", "Medium", "High", "Elite"}
	tierColors  = [...]string{"#8B8896", "#CD7F32", "#C0C0C0", "#FFD700"}
)

func (t Tier) valid() bool { return t >= Basic && t <= Gold }

// String returns the medal label.
func (t Tier) String() string { return t.Label(MedalScale) }

// Label returns the tier name on the given scale.
func (t Tier) Label(s Scale) string {
	if !t.valid() {
		return medalLabels[Basic]
	}
	if s == DORAScale {
		return doraLabels[t]
	}
	return medalLabels[t]
}

// Color returns the badge color for the tier.
func (t Tier) Color() string {
	if !t.valid() {
		return tierColors[Basic]
	}
	return tierColors[t]
}

// MarshalText implements encoding.TextMarshaler using the medal label in lower case.
func (t Tier) MarshalText() ([]byte, error) { return []byte(strings.ToLower(t.String())), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTier accepts labels from either scale, case-insensitive.
func ParseTier(s string) (Tier, error) {
	s = strings.TrimSpace(s)
	for i := range medalLabels {
		if strings.EqualFold(s, medalLabels[i]) || strings.EqualFold(s, doraLabels[i]) {
			return Tier(i), nil
		}
	}
	return Basic, fmt.Errorf("unknown tier %q", s)
}

// String implements fmt.Stringer.
func (s Scale) String() string {
	if s == DORAScale {
		return "dora"
	}
	return "medal"
}

// MarshalText implements encoding.TextMarshaler.
func (s Scale) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
