// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/initiative-sim/pkg/constants"
)

// Round rounds a value to two decimals for display and tabular output.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// AtLeast reports whether val reaches goal, tolerating float noise from
// repeated additions.
func AtLeast(val, goal float64) bool {
	return val >= goal-constants.MetricTolerance
}

// Clamp restricts val to the closed range [lo, hi].
func Clamp(val, lo, hi float64) float64 {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Max returns the maximum of two float64 values
func Max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Ratio returns value/total, or 0 when total is zero.
func Ratio(value, total float64) float64 {
	if total == 0 {
		return 0
	}
	return value / total
}

// SumDeltas adds every entry of src into dst, scaled by factor.
func SumDeltas(dst, src map[string]float64, factor float64) {
	for metric, amount := range src {
		dst[metric] += amount * factor
	}
}
