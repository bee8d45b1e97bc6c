// Package rules contains the pure calculation logic for survival mechanics.
// This package is PURE and must NOT import any infrastructure packages.
package rules

// Exhaustion is reached when either need crosses the threshold.
func IsExhausted(hunger, thirst, threshold float64) bool {
	return hunger >= threshold || thirst >= threshold
}

// IsCold reports whether the house is too cold to stay healthy.
func IsCold(temperature, threshold float64) bool {
	return temperature < threshold
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp01 bounds a need accumulator to [0, 1].
func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Intn is the slice of a random source the rules need.
type Intn interface {
	IntN(n int) int
}

// ErrandYield draws the food brought back from an errand, inclusive of both bounds.
func ErrandYield(rng Intn, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo+1)
}
