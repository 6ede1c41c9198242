// Package feature converts raw article-analysis payloads into validated,
// typed feature records and maps them to numeric vectors for the online
// classifier. Encoding is pure: no persistence, no network access.
package feature

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/quantlab/signalcore/internal/core"
)

// RequiredNumeric is the minimum numeric field set every payload must carry.
var RequiredNumeric = []string{"confidence", "trust", "novelty", "momentum", "volatility"}

// RequiredCategorical is the minimum categorical field set.
var RequiredCategorical = []string{"catalyst", "stance", "sector"}

// OptionalNumeric fields are captured when present but not required.
var OptionalNumeric = []string{"rsi", "volume_ratio", "gap_pct"}

// Encode validates a raw payload into a FeatureRecord. Fields outside the
// schema are ignored. Malformed input yields a VALIDATION error, never a panic.
func Encode(raw map[string]any) (core.FeatureRecord, error) {
	if raw == nil {
		return core.FeatureRecord{}, core.WrapError(core.ErrValidation, fmt.Errorf("nil payload"))
	}

	rec := core.FeatureRecord{
		Numeric:     make(map[string]float64),
		Categorical: make(map[string]string),
	}

	for _, field := range RequiredNumeric {
		v, ok := raw[field]
		if !ok {
			return core.FeatureRecord{}, core.WrapError(core.ErrValidation,
				fmt.Errorf("missing numeric field %q", field))
		}
		f, err := toFloat(v)
		if err != nil {
			return core.FeatureRecord{}, core.WrapError(core.ErrValidation,
				fmt.Errorf("field %q: %w", field, err))
		}
		rec.Numeric[field] = f
	}

	for _, field := range OptionalNumeric {
		v, ok := raw[field]
		if !ok {
			continue
		}
		f, err := toFloat(v)
		if err != nil {
			return core.FeatureRecord{}, core.WrapError(core.ErrValidation,
				fmt.Errorf("field %q: %w", field, err))
		}
		rec.Numeric[field] = f
	}

	for _, field := range RequiredCategorical {
		v, ok := raw[field]
		if !ok {
			return core.FeatureRecord{}, core.WrapError(core.ErrValidation,
				fmt.Errorf("missing categorical field %q", field))
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return core.FeatureRecord{}, core.WrapError(core.ErrValidation,
				fmt.Errorf("field %q must be a non-empty string", field))
		}
		rec.Categorical[field] = s
	}

	return rec, nil
}

// toFloat accepts the numeric shapes that survive JSON decoding and config
// plumbing. Non-finite values are rejected.
func toFloat(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, fmt.Errorf("not numeric: %v", v)
		}
		f = parsed
	default:
		return 0, fmt.Errorf("not numeric: %T", v)
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not finite: %v", f)
	}
	return f, nil
}
