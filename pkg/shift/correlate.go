package shift

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Pearson returns the Pearson product-moment correlation of a and b,
// in [-1,1]. If either sequence has zero variance the result is NaN.
// a and b must be the same length.
func Pearson(a, b []float64) float64 {
	if len(a) != len(b) {
		panic("shift: Pearson on sequences of different length")
	}
	// Checked up front: rounding in the mean can leave a constant
	// sequence with a tiny non-zero variance.
	if constant(a) || constant(b) {
		return math.NaN()
	}
	return stat.Correlation(a, b, nil)
}

// Defined reports whether a score can take part in the search.
func Defined(score float64) bool { return !math.IsNaN(score) }

func constant(s []float64) bool {
	for _, v := range s {
		if v != s[0] {
			return false
		}
	}
	return true
}
