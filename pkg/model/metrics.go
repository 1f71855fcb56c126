package model

import "gonum.org/v1/gonum/floats"

// MSE is the mean squared difference between yTrue and yPred.
func MSE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	d := floats.Distance(yTrue, yPred, 2)
	return d * d / float64(len(yTrue))
}
