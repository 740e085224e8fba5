// Package normalize converts source-specific wrapped representations coming
// out of the warehouse into canonical scalar types. Warehouse drivers return
// date-like columns as carrier objects exposing a "value" string and numeric
// columns either as strings or wrapped numerics; rows must be flattened before
// they reach the reconciler.
package normalize

import (
	"encoding/json"
	"strconv"
	"time"
)

// Kind classifies how a field is normalized.
type Kind int

const (
	// Passthrough leaves the value untouched.
	Passthrough Kind = iota
	// Date unwraps {value: "..."} carriers to a plain ISO-8601 string.
	Date
	// Numeric parses strings and wrapped numerics to float64. Nil stays nil.
	Numeric
)

// Spec maps field names to their normalization kind. Fields absent from the
// spec pass through unchanged.
type Spec map[string]Kind

// Apply returns a new row with every spec'd field normalized. The input row is
// not mutated.
func Apply(row map[string]any, spec Spec) map[string]any {
	out := make(map[string]any, len(row))
	for name, value := range row {
		kind, ok := spec[name]
		if !ok {
			out[name] = value
			continue
		}
		switch kind {
		case Date:
			out[name] = NormalizeDate(value)
		case Numeric:
			out[name] = NormalizeNumeric(value)
		default:
			out[name] = value
		}
	}
	return out
}

// NormalizeDate unwraps a date carrier to its ISO-8601 string. Plain strings
// and time.Time values pass through; nil stays nil.
func NormalizeDate(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case map[string]any:
		if inner, ok := v["value"]; ok {
			return NormalizeDate(inner)
		}
		return value
	default:
		return value
	}
}

// NormalizeNumeric parses string and wrapped numeric values to float64.
// Nil is preserved as nil, never coerced to zero. Unparseable strings pass
// through unchanged so the mapping layer can reject the record explicitly.
func NormalizeNumeric(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return value
		}
		return parsed
	case string:
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return value
		}
		return parsed
	case map[string]any:
		if inner, ok := v["value"]; ok {
			return NormalizeNumeric(inner)
		}
		return value
	default:
		return value
	}
}
