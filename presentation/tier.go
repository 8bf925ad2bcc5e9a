// Package presentation turns predictions into what the form page shows:
// tiers, bilingual messages and the rendered HTML.
package presentation

import "math"

type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

const (
	highYieldThreshold   = 20
	mediumYieldThreshold = 3
)

// Classify buckets a yield for messaging only. Both thresholds are exclusive.
func Classify(yield float64) Tier {
	switch {
	case yield > highYieldThreshold:
		return TierHigh
	case yield > mediumYieldThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

// Celebrate reports whether the page should show the celebration effect.
func (t Tier) Celebrate() bool {
	return t == TierHigh || t == TierMedium
}

// Round2 rounds half away from zero to two decimals for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
