package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/quantlab/signalcore/internal/core"
)

// ComputeConfigHash fingerprints a training configuration. The hash is a pure
// function of its inputs: the same ticker, mode, date range and indicator
// configuration always produce the same hex digest, across processes and
// machines. Callers use it as the cache key for "has this exact training
// already been done".
func ComputeConfigHash(ticker string, mode core.TrainingMode, dateRange core.DateRange, indicatorConfig string) string {
	canonical := strings.Join([]string{
		strings.ToUpper(ticker),
		string(mode),
		dateRange.String(),
		indicatorConfig,
	}, "|")

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
