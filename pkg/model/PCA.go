package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
)

var (
	// ErrInvalidComponents is returned when the requested number of
	// components is outside [1, min(rows, cols)].
	ErrInvalidComponents = fmt.Errorf("model: invalid number of components: %w", core.ErrConfiguration)

	// ErrPCANotFitted is returned by Transform and InverseTransform before Fit.
	ErrPCANotFitted = fmt.Errorf("model: PCA not fitted: %w", core.ErrNotFitted)

	// ErrEmptyInput is returned for matrices without rows or columns.
	ErrEmptyInput = fmt.Errorf("model: input data cannot be empty: %w", core.ErrConfiguration)
)

// PCA projects data onto its top-K principal components, computed with a
// thin SVD of the mean-centred data.
type PCA struct {
	K     int
	Means []float64

	// Components is K x d; row k is the k-th principal axis (unit length).
	Components *mat.Dense

	SingularValues         []float64
	ExplainedVariance      []float64
	ExplainedVarianceRatio []float64
}

// NewPCA creates and returns a new PCA model keeping k components.
func NewPCA(k int) *PCA {
	return &PCA{K: k}
}

// Fitted reports whether Fit has completed.
func (pca *PCA) Fitted() bool { return pca.Components != nil }

// NFeatures is the dimensionality of the original space.
func (pca *PCA) NFeatures() int { return len(pca.Means) }

// NComponents is the dimensionality of the projected space.
func (pca *PCA) NComponents() int { return pca.K }

// Fit computes the principal components of X. The result is deterministic:
// each component is oriented so its largest-magnitude loading is positive.
func (pca *PCA) Fit(X mat.Matrix) error {
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return ErrEmptyInput
	}
	if pca.K < 1 || pca.K > d || pca.K > n {
		return fmt.Errorf("%w: k=%d with %d rows and %d columns", ErrInvalidComponents, pca.K, n, d)
	}

	means := make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, X)
		means[j] = stat.Mean(col, nil)
	}
	z := center(X, means)

	var svd mat.SVD
	if ok := svd.Factorize(z, mat.SVDThin); !ok {
		return fmt.Errorf("model: PCA: SVD factorization failed")
	}
	var v mat.Dense
	svd.VTo(&v)
	values := svd.Values(nil)

	comps := mat.NewDense(pca.K, d, nil)
	for k := 0; k < pca.K; k++ {
		axis := mat.Col(nil, k, &v)
		orient(axis)
		comps.SetRow(k, axis)
	}

	dof := float64(n - 1)
	if n == 1 {
		dof = 1
	}
	total := 0.0
	for _, s := range values {
		total += s * s / dof
	}
	pca.SingularValues = append([]float64(nil), values[:pca.K]...)
	pca.ExplainedVariance = make([]float64, pca.K)
	pca.ExplainedVarianceRatio = make([]float64, pca.K)
	for k, s := range pca.SingularValues {
		pca.ExplainedVariance[k] = s * s / dof
		if total > 0 {
			pca.ExplainedVarianceRatio[k] = pca.ExplainedVariance[k] / total
		}
	}
	pca.Means = means
	pca.Components = comps
	return nil
}

// Transform projects X onto the principal components (n x K).
func (pca *PCA) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !pca.Fitted() {
		return nil, ErrPCANotFitted
	}
	n, d := X.Dims()
	if d != pca.NFeatures() {
		return nil, fmt.Errorf("model: PCA.Transform: got %d features, fitted on %d: %w", d, pca.NFeatures(), core.ErrShapeMismatch)
	}
	if n == 0 {
		return nil, ErrEmptyInput
	}
	out := mat.NewDense(n, pca.K, nil)
	out.Mul(center(X, pca.Means), pca.Components.T())
	return out, nil
}

// InverseTransform maps projected rows (n x K) back to the original space
// using the fitted components and means.
func (pca *PCA) InverseTransform(Y mat.Matrix) (*mat.Dense, error) {
	if !pca.Fitted() {
		return nil, ErrPCANotFitted
	}
	n, k := Y.Dims()
	if k != pca.K {
		return nil, fmt.Errorf("model: PCA.InverseTransform: got %d components, fitted with %d: %w", k, pca.K, core.ErrShapeMismatch)
	}
	if n == 0 {
		return nil, ErrEmptyInput
	}
	out := mat.NewDense(n, pca.NFeatures(), nil)
	out.Mul(Y, pca.Components)
	out.Apply(func(_, j int, v float64) float64 { return v + pca.Means[j] }, out)
	return out, nil
}

// ReconstructionError is the mean squared error between X and its
// projection mapped back to the original space.
func (pca *PCA) ReconstructionError(X mat.Matrix) (float64, error) {
	y, err := pca.Transform(X)
	if err != nil {
		return 0, err
	}
	back, err := pca.InverseTransform(y)
	if err != nil {
		return 0, err
	}
	return MSE(mat.DenseCopyOf(X).RawMatrix().Data, back.RawMatrix().Data), nil
}

func center(X mat.Matrix, means []float64) *mat.Dense {
	z := mat.DenseCopyOf(X)
	z.Apply(func(_, j int, v float64) float64 { return v - means[j] }, z)
	return z
}

// orient flips v in place so that its largest-magnitude entry is positive.
func orient(v []float64) {
	best := 0
	for i := range v {
		if math.Abs(v[i]) > math.Abs(v[best]) {
			best = i
		}
	}
	if v[best] < 0 {
		for i := range v {
			v[i] = -v[i]
		}
	}
}
