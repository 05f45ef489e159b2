package emath

import "math"

// Some functions that only operate on basic types, that are useful

func Clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

// Normalize maps f from [min,max] onto [0,1]. A flat range maps to 0.5;
// NaN stays NaN.
func Normalize(f, min, max float64) float64 {
	if math.IsNaN(f) || math.IsNaN(min) || math.IsNaN(max) {
		return math.NaN()
	}
	if max == min {
		return 0.5
	}
	return (f - min) / (max - min)
}
