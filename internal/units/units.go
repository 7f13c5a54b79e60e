// Package units converts canonical storage values (Kelvin, meters,
// meters/second, Pascals) into a user-facing unit system.
package units

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	// ErrInvalidValue indicates the value is missing, non-numeric or not finite.
	ErrInvalidValue = errors.New("invalid value")

	// ErrUnsupportedUnit indicates the source unit is missing or unknown to the system.
	ErrUnsupportedUnit = errors.New("unsupported unit")
)

// System identifies a display unit system.
type System int

const (
	Imperial System = iota
	Metric
)

// String returns the config name of the system.
func (s System) String() string {
	switch s {
	case Imperial:
		return "imperial"
	case Metric:
		return "metric"
	}
	return fmt.Sprintf("System(%d)", int(s))
}

// ParseSystem parses "imperial" or "metric" (case-insensitive).
func ParseSystem(name string) (System, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "imperial":
		return Imperial, nil
	case "metric":
		return Metric, nil
	}
	return 0, fmt.Errorf("unknown unit system %q", name)
}

// conversion maps a source unit to a display unit.
type conversion struct {
	to string
	fn func(float64) float64
}

func identity(v float64) float64 { return v }

var conversions = map[System]map[string]conversion{
	Imperial: {
		"K":    {to: "F", fn: func(v float64) float64 { return (v-273.15)*1.8 + 32 }},
		"m":    {to: "ft", fn: func(v float64) float64 { return v * 3.2808 }},
		"m/s":  {to: "mph", fn: func(v float64) float64 { return v * 2.237 }},
		"Pa":   {to: "inHg", fn: func(v float64) float64 { return v * 0.0002953 }},
		"F":    {to: "F", fn: identity},
		"ft":   {to: "ft", fn: identity},
		"mph":  {to: "mph", fn: identity},
		"inHg": {to: "inHg", fn: identity},
	},
	Metric: {
		"K":   {to: "C", fn: func(v float64) float64 { return v - 273.15 }},
		"m":   {to: "m", fn: identity},
		"m/s": {to: "m/s", fn: identity},
		"Pa":  {to: "Pa", fn: identity},
		"C":   {to: "C", fn: identity},
	},
}

// decimalPlaces is the display precision per unit.
var decimalPlaces = map[System]map[string]int{
	Imperial: {"F": 0, "ft": 0, "mph": 0, "inHg": 2},
	Metric:   {"C": 0, "m": 0, "m/s": 0, "Pa": 2},
}

// Converter converts values for one unit system. The zero value is Imperial.
type Converter struct {
	system System
}

// NewConverter returns a converter for the given system.
func NewConverter(s System) Converter {
	return Converter{system: s}
}

// System returns the converter's unit system.
func (c Converter) System() System {
	return c.system
}

// SupportedUnits returns the source units the system accepts, sorted.
func (c Converter) SupportedUnits() []string {
	table := conversions[c.system]
	out := make([]string, 0, len(table))
	for unit := range table {
		out = append(out, unit)
	}
	sort.Strings(out)
	return out
}

// Convert converts v from sourceUnit into the system's display unit and
// rounds it to the display unit's precision.
func (c Converter) Convert(v float64, sourceUnit string) (float64, string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, "", fmt.Errorf("%w: %v", ErrInvalidValue, v)
	}
	if sourceUnit == "" {
		return 0, "", fmt.Errorf("%w: unit is empty", ErrUnsupportedUnit)
	}
	conv, ok := conversions[c.system][sourceUnit]
	if !ok {
		return 0, "", fmt.Errorf("%w: %s", ErrUnsupportedUnit, sourceUnit)
	}
	if sourceUnit == "K" && v < 0 {
		return 0, "", fmt.Errorf("%w: Kelvin cannot be negative", ErrInvalidValue)
	}
	return c.Round(conv.fn(v), conv.to), conv.to, nil
}

// ConvertValue is Convert for a raw decoded value, such as an observation
// value straight out of a JSON payload.
func (c Converter) ConvertValue(v any, sourceUnit string) (float64, string, error) {
	f, err := Number(v)
	if err != nil {
		return 0, "", err
	}
	return c.Convert(f, sourceUnit)
}

// Round rounds v half away from zero to the precision declared for unit.
// Units without a declared precision are returned unchanged.
func (c Converter) Round(v float64, unit string) float64 {
	places, ok := decimalPlaces[c.system][unit]
	if !ok {
		return v
	}
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

// Number extracts a finite float64 from a decoded value.
func Number(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: value is missing", ErrInvalidValue)
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidValue, n.String())
		}
		f = parsed
	case *float64:
		if n == nil {
			return 0, fmt.Errorf("%w: value is missing", ErrInvalidValue)
		}
		f = *n
	default:
		return 0, fmt.Errorf("%w: %T is not a number", ErrInvalidValue, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, f)
	}
	return f, nil
}
