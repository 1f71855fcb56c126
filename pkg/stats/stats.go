package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean computes the average of a slice. An empty slice has mean 0.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

// Std computes the population standard deviation (divisor n).
func Std(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	_, std := stat.PopMeanStdDev(x, nil)
	return std
}

// MeanStd returns the mean and population standard deviation in one pass.
func MeanStd(x []float64) (float64, float64) {
	if len(x) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(x, nil)
}

// IsMissing reports whether v marks a missing cell.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Present returns the non-missing values of x, in order.
func Present(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !IsMissing(v) {
			out = append(out, v)
		}
	}
	return out
}

// CountMissing returns how many cells of x are missing.
func CountMissing(x []float64) int {
	n := 0
	for _, v := range x {
		if IsMissing(v) {
			n++
		}
	}
	return n
}

// NaNMean is the mean over the non-missing values of x. ok is false when
// every value is missing, in which case the mean is undefined.
func NaNMean(x []float64) (mean float64, ok bool) {
	p := Present(x)
	if len(p) == 0 {
		return math.NaN(), false
	}
	return Mean(p), true
}
