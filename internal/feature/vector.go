package feature

import "github.com/quantlab/signalcore/internal/core"

// VectorVersion identifies the vector layout. Bump when fields or category
// vocabularies change, so persisted model state is not applied to a
// mismatched layout.
const VectorVersion = 1

// Category vocabularies. Unknown values map to an all-zero group so the
// classifier degrades gracefully instead of failing.
var (
	stanceValues   = []string{"BULLISH", "BEARISH", "NEUTRAL"}
	catalystValues = []string{"EARNINGS", "MERGER", "GUIDANCE", "PRODUCT", "REGULATORY", "MACRO", "OTHER"}
	sectorValues   = []string{"TECH", "FINANCE", "HEALTHCARE", "ENERGY", "CONSUMER", "INDUSTRIAL", "OTHER"}
)

// VectorSize is the fixed length of every encoded vector.
func VectorSize() int {
	return len(RequiredNumeric) + len(OptionalNumeric) +
		len(stanceValues) + len(catalystValues) + len(sectorValues)
}

// Vectorize maps a record to a fixed-order numeric vector. Numeric fields
// come first (missing optional fields as zero), followed by one-hot groups
// for stance, catalyst and sector. Callers never see the mapping.
func Vectorize(rec core.FeatureRecord) []float64 {
	vec := make([]float64, 0, VectorSize())

	for _, field := range RequiredNumeric {
		vec = append(vec, rec.Numeric[field])
	}
	for _, field := range OptionalNumeric {
		vec = append(vec, rec.Numeric[field])
	}

	vec = append(vec, oneHot(rec.Categorical["stance"], stanceValues)...)
	vec = append(vec, oneHot(rec.Categorical["catalyst"], catalystValues)...)
	vec = append(vec, oneHot(rec.Categorical["sector"], sectorValues)...)

	return vec
}

func oneHot(value string, vocabulary []string) []float64 {
	group := make([]float64, len(vocabulary))
	for i, v := range vocabulary {
		if v == value {
			group[i] = 1
			break
		}
	}
	return group
}
