package stats

import "strings"

// DefaultEstimateMultiplier applies to levels without a specific multiplier.
const DefaultEstimateMultiplier = 4

// estimateMultipliers approximate original/compressed for each level.
var estimateMultipliers = map[string]int64{
	"minimal":    10,
	"signatures": 6,
	"full":       4,
}

// EstimateOriginalSize guesses the original token count from the compressed
// count when the original could not be measured.
func EstimateOriginalSize(level string, compressedSize int64) int64 {
	m, ok := estimateMultipliers[strings.ToLower(strings.TrimSpace(level))]
	if !ok {
		m = DefaultEstimateMultiplier
	}
	return compressedSize * m
}
