package intersection

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// DurationsInput carries durations as an editor submitted them: numbers,
// numeric strings, blanks or garbage.
type DurationsInput struct {
	Green  any `json:"green,omitempty" jsonschema:"green light seconds"`
	Yellow any `json:"yellow,omitempty" jsonschema:"yellow light seconds"`
	Red    any `json:"red,omitempty" jsonschema:"red light seconds"`
}

// Coerce converts the submitted values to a valid triple. Missing or
// non-numeric values fall back to the defaults; numeric values are rounded and
// clamped to a minimum of one second.
func (in DurationsInput) Coerce() Durations {
	return Durations{
		Green:  CoerceSeconds(in.Green, DefaultGreen),
		Yellow: CoerceSeconds(in.Yellow, DefaultYellow),
		Red:    CoerceSeconds(in.Red, DefaultRed),
	}
}

// CoerceSeconds turns one submitted value into whole seconds >= 1.
func CoerceSeconds(v any, fallback int) int {
	f, ok := numeric(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	n := math.Round(f)
	if n < 1 {
		return 1
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

func numeric(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
