package model

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
)

func parties() *mat.Dense {
	return mat.NewDense(5, 4, []float64{
		-1.2, 0.4, 0.9, -0.3,
		0.8, -1.1, 0.2, 1.4,
		0.3, 1.5, -1.6, -0.2,
		1.1, -0.2, 0.7, -1.5,
		-1.0, -0.6, -0.2, 0.6,
	})
}

// twoClusters has five points around the origin followed by five around (10, 10).
func twoClusters() *mat.Dense {
	base := []float64{0, 0, 0.1, 0.2, -0.1, 0.1, 0.2, -0.1, -0.2, -0.2}
	data := append([]float64(nil), base...)
	for _, v := range base {
		data = append(data, v+10)
	}
	return mat.NewDense(10, 2, data)
}

func rowsOf(m mat.Matrix) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = mat.Row(nil, i, m)
	}
	return out
}

func TestPCA_FitAndTransform(t *testing.T) {
	pca := NewPCA(2)
	require.False(t, pca.Fitted())
	require.NoError(t, pca.Fit(parties()))

	assert.Equal(t, 4, pca.NFeatures())
	assert.Equal(t, 2, pca.NComponents())

	var gram mat.Dense
	gram.Mul(pca.Components, pca.Components.T())
	assert.True(t, mat.EqualApprox(&gram, mat.NewDiagDense(2, []float64{1, 1}), 1e-10), "components must be orthonormal")

	y, err := pca.Transform(parties())
	require.NoError(t, err)
	r, c := y.Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 2, c)

	// Projected coordinates are centred and their variance is the explained variance.
	for k := 0; k < 2; k++ {
		col := mat.Col(nil, k, y)
		assert.InDelta(t, 0, stat.Mean(col, nil), 1e-10)
		assert.InDelta(t, pca.ExplainedVariance[k], stat.Variance(col, nil), 1e-10)
	}
	assert.GreaterOrEqual(t, pca.ExplainedVarianceRatio[0], pca.ExplainedVarianceRatio[1])
}

func TestPCA_SignConvention(t *testing.T) {
	pca := NewPCA(3)
	require.NoError(t, pca.Fit(parties()))
	for k := 0; k < 3; k++ {
		row := mat.Row(nil, k, pca.Components)
		best := 0
		for j := range row {
			if math.Abs(row[j]) > math.Abs(row[best]) {
				best = j
			}
		}
		assert.Positive(t, row[best], "component %d", k)
	}
}

func TestPCA_LineIsOneComponent(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 2, 4, 3, 6})
	pca := NewPCA(1)
	require.NoError(t, pca.Fit(X))

	assert.InDelta(t, 1/math.Sqrt(5), pca.Components.At(0, 0), 1e-12)
	assert.InDelta(t, 2/math.Sqrt(5), pca.Components.At(0, 1), 1e-12)
	assert.InDelta(t, 1, pca.ExplainedVarianceRatio[0], 1e-12)

	mse, err := pca.ReconstructionError(X)
	require.NoError(t, err)
	assert.InDelta(t, 0, mse, 1e-20)
}

func TestPCA_InverseTransform(t *testing.T) {
	X := parties()

	full := NewPCA(4)
	require.NoError(t, full.Fit(X))
	y, err := full.Transform(X)
	require.NoError(t, err)
	back, err := full.InverseTransform(y)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(back, X, 1e-10), "full rank round trip must be exact")

	total := 0.0
	for _, r := range full.ExplainedVarianceRatio {
		total += r
	}
	assert.InDelta(t, 1, total, 1e-12)

	partial := NewPCA(2)
	require.NoError(t, partial.Fit(X))
	mse, err := partial.ReconstructionError(X)
	require.NoError(t, err)
	assert.Positive(t, mse)
}

func TestPCA_Errors(t *testing.T) {
	pca := NewPCA(5)
	err := pca.Fit(parties())
	assert.True(t, errors.Is(err, ErrInvalidComponents))
	assert.True(t, errors.Is(err, core.ErrConfiguration))
	assert.False(t, pca.Fitted())

	assert.True(t, errors.Is(NewPCA(0).Fit(parties()), core.ErrConfiguration))

	_, err = NewPCA(2).Transform(parties())
	assert.True(t, errors.Is(err, core.ErrNotFitted))
	_, err = NewPCA(2).InverseTransform(mat.NewDense(1, 2, nil))
	assert.True(t, errors.Is(err, ErrPCANotFitted))

	pca = NewPCA(2)
	require.NoError(t, pca.Fit(parties()))
	_, err = pca.Transform(mat.NewDense(2, 3, nil))
	assert.True(t, errors.Is(err, core.ErrShapeMismatch))
	_, err = pca.InverseTransform(mat.NewDense(2, 3, nil))
	assert.True(t, errors.Is(err, core.ErrShapeMismatch))
}

func TestMetrics(t *testing.T) {
	assert.InDelta(t, 2.5, MSE([]float64{0, 0}, []float64{1, 2}), 1e-12)
	assert.Equal(t, 0.0, MSE(nil, nil))
}

func TestKMeans(t *testing.T) {
	X := rowsOf(twoClusters())
	km := NewKMeans(2, 50, rand.New(rand.NewSource(1)))
	labels, err := km.Fit(X)
	require.NoError(t, err)
	require.Len(t, labels, 10)

	for i := 1; i < 5; i++ {
		assert.Equal(t, labels[0], labels[i])
		assert.Equal(t, labels[5], labels[5+i])
	}
	assert.NotEqual(t, labels[0], labels[5])

	pred, err := km.Predict([][]float64{{0.05, 0}, {9.9, 10.1}})
	require.NoError(t, err)
	assert.Equal(t, []int{labels[0], labels[5]}, pred)

	_, err = NewKMeans(11, 10, rand.New(rand.NewSource(1))).Fit(X)
	assert.True(t, errors.Is(err, ErrTooFewPoints))

	_, err = NewKMeans(2, 10, rand.New(rand.NewSource(1))).Predict(X)
	assert.True(t, errors.Is(err, core.ErrNotFitted))
}

func TestGaussianMixture_SingleComponent(t *testing.T) {
	X := parties()
	g := NewGaussianMixture(1)
	require.NoError(t, g.Fit(X))
	require.True(t, g.Fitted())

	assert.Equal(t, 4, g.Dim())
	assert.InDelta(t, 1, g.Weights[0], 1e-12)
	for j := 0; j < 4; j++ {
		col := mat.Col(nil, j, X)
		assert.InDelta(t, stat.Mean(col, nil), g.Means[0][j], 1e-12)
		_, std := stat.PopMeanStdDev(col, nil)
		assert.InDelta(t, std*std+DefaultRegCovar, g.Covariances[0].At(j, j), 1e-9)
	}
	assert.True(t, g.Converged)
}

func TestGaussianMixture_TwoClusters(t *testing.T) {
	X := twoClusters()
	g := NewGaussianMixture(2)
	require.NoError(t, g.Fit(X))

	order := []int{0, 1}
	sort.Slice(order, func(a, b int) bool { return g.Means[order[a]][0] < g.Means[order[b]][0] })
	lo, hi := order[0], order[1]

	assert.InDelta(t, 0.5, g.Weights[lo], 1e-6)
	assert.InDelta(t, 0.5, g.Weights[hi], 1e-6)
	assert.InDeltaSlice(t, []float64{0, 0}, g.Means[lo], 1e-6)
	assert.InDeltaSlice(t, []float64{10, 10}, g.Means[hi], 1e-6)

	lp, err := g.LogProb(mat.NewDense(2, 2, []float64{0, 0, 5, 5}))
	require.NoError(t, err)
	assert.Greater(t, lp[0], lp[1], "cluster centre is denser than the gap")

	score, err := g.Score(X)
	require.NoError(t, err)
	assert.InDelta(t, g.LowerBound, score, 1e-3)
}

func TestGaussianMixture_Deterministic(t *testing.T) {
	a, b := NewGaussianMixture(2), NewGaussianMixture(2)
	require.NoError(t, a.Fit(twoClusters()))
	require.NoError(t, b.Fit(twoClusters()))
	assert.Equal(t, a.Means, b.Means)
	assert.Equal(t, a.Weights, b.Weights)
	assert.Equal(t, a.NIter, b.NIter)
}

func TestGaussianMixture_Sample(t *testing.T) {
	g := NewGaussianMixture(2)
	require.NoError(t, g.Fit(twoClusters()))

	s, labels, err := g.Sample(200, xrand.NewSource(7))
	require.NoError(t, err)
	r, c := s.Dims()
	assert.Equal(t, 200, r)
	assert.Equal(t, 2, c)
	require.Len(t, labels, 200)
	assert.True(t, sort.IntsAreSorted(labels), "rows are grouped by component")

	for i, k := range labels {
		assert.InDelta(t, g.Means[k][0], s.At(i, 0), 2, "row %d far from its component", i)
	}

	again, _, err := g.Sample(200, xrand.NewSource(7))
	require.NoError(t, err)
	assert.True(t, mat.Equal(s, again), "same seed, same draws")
}

func TestGaussianMixture_SampleFollowsWeights(t *testing.T) {
	g := NewGaussianMixture(2)
	require.NoError(t, g.Fit(twoClusters()))

	const n = 4000
	s, labels, err := g.Sample(n, xrand.NewSource(11))
	require.NoError(t, err)

	counts := make([]int, g.K)
	for _, k := range labels {
		counts[k]++
	}
	for k, c := range counts {
		assert.InDelta(t, g.Weights[k], float64(c)/n, 0.05, "component %d share", k)
	}

	// The first component's rows share its mean.
	var sum float64
	for i := 0; i < counts[0]; i++ {
		sum += s.At(i, 1)
	}
	assert.InDelta(t, g.Means[0][1], sum/float64(counts[0]), 0.2)
}

func TestGaussianMixture_Errors(t *testing.T) {
	g := NewGaussianMixture(2)
	_, err := g.LogProb(twoClusters())
	assert.True(t, errors.Is(err, core.ErrNotFitted))
	_, _, err = g.Sample(3, xrand.NewSource(1))
	assert.True(t, errors.Is(err, ErrMixtureNotFitted))

	assert.True(t, errors.Is(NewGaussianMixture(0).Fit(twoClusters()), core.ErrConfiguration))
	assert.True(t, errors.Is(NewGaussianMixture(11).Fit(twoClusters()), ErrTooFewPoints))

	require.NoError(t, g.Fit(twoClusters()))
	_, _, err = g.Sample(0, xrand.NewSource(1))
	assert.True(t, errors.Is(err, core.ErrConfiguration))
	_, err = g.LogProb(mat.NewDense(1, 3, nil))
	assert.True(t, errors.Is(err, core.ErrShapeMismatch))
}
