package model

import "gonum.org/v1/gonum/mat"

// Transformer maps data into a fitted space and back.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (*mat.Dense, error)
	InverseTransform(Y mat.Matrix) (*mat.Dense, error)
}

// Clusterer is for unsupervised clustering.
type Clusterer interface {
	Fit(X [][]float64) ([]int, error)
	Predict(X [][]float64) ([]int, error) // cluster assignments
}

// Density is a fitted probability model that can be evaluated and sampled.
type Density interface {
	Fit(X mat.Matrix) error
	LogProb(X mat.Matrix) ([]float64, error)
}

var (
	_ Transformer = (*PCA)(nil)
	_ Clusterer   = (*KMeans)(nil)
	_ Density     = (*GaussianMixture)(nil)
)
