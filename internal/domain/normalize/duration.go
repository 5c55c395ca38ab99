// Package normalize turns raw snapshots into numeric metric sets. It is the
// only place that parses strings; the scoring engine never does.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	str2duration "github.com/xhit/go-str2duration/v2"
)

var durationPart = regexp.MustCompile(`(\d+(?:\.\d*)?|\.\d+)\s*([a-zµ]+)`)

// unitSuffix maps the unit words used by dashboards to the suffixes
// str2duration understands.
func unitSuffix(word string) (string, bool) {
	switch word {
	case "ns", "us", "µs", "ms":
		return word, true
	case "s", "sec", "secs", "second", "seconds":
		return "s", true
	case "m", "min", "mins", "minute", "minutes":
		return "m", true
	case "h", "hr", "hrs", "hour", "hours":
		return "h", true
	case "d", "day", "days":
		return "d", true
	case "w", "wk", "wks", "week", "weeks":
		return "w", true
	}
	return "", false
}

// ParseDuration accepts Go durations ("1h30m"), day and week suffixes
// ("1d4h") and the human forms used by dashboards ("15 min", "2.3 days",
// "2h 30m", "1 day, 4 hours"). Negative durations are rejected.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("%w: empty duration", ErrInvalidDuration)
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("%w: negative duration %q", ErrInvalidDuration, s)
	}
	s = strings.TrimPrefix(s, "+")

	var compact strings.Builder
	last := 0
	for _, m := range durationPart.FindAllStringSubmatchIndex(s, -1) {
		if sep := strings.Trim(s[last:m[0]], " ,"); sep != "" && sep != "and" {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		unit, ok := unitSuffix(s[m[4]:m[5]])
		if !ok {
			return 0, fmt.Errorf("%w: unknown unit in %q", ErrInvalidDuration, s)
		}
		compact.WriteString(s[m[2]:m[3]])
		compact.WriteString(unit)
		last = m[1]
	}
	if compact.Len() == 0 || strings.TrimSpace(s[last:]) != "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}

	d, err := str2duration.ParseDuration(compact.String())
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidDuration, s, err)
	}
	return d, nil
}

// InUnit expresses d in a definition unit: "min", "hours", or "days".
// Any other unit is treated as minutes.
func InUnit(d time.Duration, unit string) float64 {
	switch unit {
	case "hours":
		return d.Hours()
	case "days":
		return d.Hours() / 24
	default:
		return d.Minutes()
	}
}

// Minutes parses s and returns the duration in minutes.
func Minutes(s string) (float64, error) {
	d, err := ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return d.Minutes(), nil
}
