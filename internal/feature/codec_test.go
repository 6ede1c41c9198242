package feature

import (
	"errors"
	"math"
	"testing"

	"github.com/quantlab/signalcore/internal/core"
)

func validPayload() map[string]any {
	return map[string]any{
		"confidence": 0.8,
		"trust":      0.7,
		"novelty":    0.9,
		"momentum":   0.02,
		"volatility": 0.015,
		"catalyst":   "EARNINGS",
		"stance":     "BULLISH",
		"sector":     "TECH",
	}
}

func TestEncode_Valid(t *testing.T) {
	rec, err := Encode(validPayload())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if rec.Numeric["confidence"] != 0.8 {
		t.Errorf("confidence = %f, want 0.8", rec.Numeric["confidence"])
	}
	if rec.Categorical["stance"] != "BULLISH" {
		t.Errorf("stance = %q, want BULLISH", rec.Categorical["stance"])
	}
}

func TestEncode_MissingRequired(t *testing.T) {
	tests := []string{"confidence", "trust", "novelty", "momentum", "volatility", "catalyst", "stance", "sector"}

	for _, field := range tests {
		t.Run(field, func(t *testing.T) {
			payload := validPayload()
			delete(payload, field)
			_, err := Encode(payload)
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("expected VALIDATION error, got %v", err)
			}
		})
	}
}

func TestEncode_WrongTypes(t *testing.T) {
	payload := validPayload()
	payload["confidence"] = "very high"
	if _, err := Encode(payload); !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected VALIDATION for string confidence, got %v", err)
	}

	payload = validPayload()
	payload["stance"] = 42
	if _, err := Encode(payload); !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected VALIDATION for numeric stance, got %v", err)
	}
}

func TestEncode_NonFinite(t *testing.T) {
	payload := validPayload()
	payload["momentum"] = math.NaN()
	if _, err := Encode(payload); !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected VALIDATION for NaN, got %v", err)
	}

	payload = validPayload()
	payload["volatility"] = math.Inf(1)
	if _, err := Encode(payload); !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected VALIDATION for Inf, got %v", err)
	}
}

func TestEncode_NilPayload(t *testing.T) {
	if _, err := Encode(nil); !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected VALIDATION for nil payload, got %v", err)
	}
}

func TestEncode_IgnoresUnknownFields(t *testing.T) {
	payload := validPayload()
	payload["headline"] = "XYZ beats earnings"
	payload["word_count"] = 742

	rec, err := Encode(payload)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if _, ok := rec.Numeric["word_count"]; ok {
		t.Error("unknown numeric field should be ignored")
	}
}

func TestEncode_OptionalFields(t *testing.T) {
	payload := validPayload()
	payload["rsi"] = 61.5

	rec, err := Encode(payload)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if rec.Numeric["rsi"] != 61.5 {
		t.Errorf("rsi = %f, want 61.5", rec.Numeric["rsi"])
	}
}

func TestEncode_IntegerNumerics(t *testing.T) {
	payload := validPayload()
	payload["confidence"] = 1

	rec, err := Encode(payload)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if rec.Numeric["confidence"] != 1.0 {
		t.Errorf("confidence = %f, want 1.0", rec.Numeric["confidence"])
	}
}
