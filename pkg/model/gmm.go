package model

import (
	"fmt"
	"math"
	"math/rand"

	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
)

// Defaults for GaussianMixture, matching the usual maximum-likelihood setup.
const (
	DefaultMixtureIter = 100
	DefaultMixtureTol  = 1e-3
	DefaultRegCovar    = 1e-6
	DefaultMixtureSeed = 42
)

var (
	// ErrMixtureNotFitted is returned by LogProb and Sample before Fit.
	ErrMixtureNotFitted = fmt.Errorf("model: GaussianMixture not fitted: %w", core.ErrNotFitted)

	// ErrSingularCovariance is returned when a component covariance is not
	// positive definite even after regularisation.
	ErrSingularCovariance = fmt.Errorf("model: component covariance is not positive definite: %w", core.ErrConfiguration)
)

// GaussianMixture is a finite mixture of full-covariance Gaussians fitted
// with expectation-maximisation from k-means++ seeded labels.
type GaussianMixture struct {
	K        int
	MaxIter  int
	Tol      float64
	RegCovar float64
	Seed     int64

	Weights     []float64
	Means       [][]float64
	Covariances []*mat.SymDense

	Converged  bool
	NIter      int
	LowerBound float64 // mean log-likelihood at the last E-step

	dists []*distmv.Normal
	chol  []mat.Cholesky
}

// NewGaussianMixture returns a k-component mixture with default settings.
func NewGaussianMixture(k int) *GaussianMixture {
	return &GaussianMixture{
		K:        k,
		MaxIter:  DefaultMixtureIter,
		Tol:      DefaultMixtureTol,
		RegCovar: DefaultRegCovar,
		Seed:     DefaultMixtureSeed,
	}
}

// Fitted reports whether Fit has completed.
func (g *GaussianMixture) Fitted() bool { return g.dists != nil }

// Dim is the dimensionality of the fitted space.
func (g *GaussianMixture) Dim() int {
	if len(g.Means) == 0 {
		return 0
	}
	return len(g.Means[0])
}

// Fit estimates weights, means and covariances of the K components. Given the
// same data, K and Seed the result is identical.
func (g *GaussianMixture) Fit(X mat.Matrix) error {
	n, d := X.Dims()
	if n == 0 || d == 0 {
		return ErrEmptyInput
	}
	if g.K < 1 {
		return fmt.Errorf("%w: k=%d", ErrInvalidComponents, g.K)
	}
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, X)
	}

	km := NewKMeans(g.K, g.MaxIter, rand.New(rand.NewSource(g.Seed)))
	labels, err := km.Fit(rows)
	if err != nil {
		return err
	}
	resp := make([][]float64, n)
	for i, k := range labels {
		resp[i] = make([]float64, g.K)
		resp[i][k] = 1
	}

	g.Converged = false
	g.NIter = 0
	g.LowerBound = math.Inf(-1)
	if err := g.maximize(rows, resp); err != nil {
		return err
	}

	for it := 1; it <= g.MaxIter; it++ {
		prev := g.LowerBound
		g.LowerBound = g.expect(rows, resp)
		if err := g.maximize(rows, resp); err != nil {
			return err
		}
		g.NIter = it
		if math.Abs(g.LowerBound-prev) < g.Tol {
			g.Converged = true
			break
		}
	}
	return nil
}

// expect fills resp with posterior component probabilities and returns the
// mean log-likelihood of the data.
func (g *GaussianMixture) expect(rows [][]float64, resp [][]float64) float64 {
	total := 0.0
	for i, x := range rows {
		g.weightedLogProb(x, resp[i])
		norm := floats.LogSumExp(resp[i])
		for k := range resp[i] {
			resp[i][k] = math.Exp(resp[i][k] - norm)
		}
		total += norm
	}
	return total / float64(len(rows))
}

// maximize re-estimates the parameters from responsibilities.
func (g *GaussianMixture) maximize(rows [][]float64, resp [][]float64) error {
	n, d := len(rows), len(rows[0])
	eps := 10 * (math.Nextafter(1, 2) - 1)

	weights := make([]float64, g.K)
	means := make([][]float64, g.K)
	covs := make([]*mat.SymDense, g.K)
	for k := 0; k < g.K; k++ {
		nk := eps
		mu := make([]float64, d)
		for i, x := range rows {
			nk += resp[i][k]
			floats.AddScaled(mu, resp[i][k], x)
		}
		floats.Scale(1/nk, mu)

		cov := mat.NewSymDense(d, nil)
		diff := make([]float64, d)
		for i, x := range rows {
			r := resp[i][k]
			if r == 0 {
				continue
			}
			floats.SubTo(diff, x, mu)
			for a := 0; a < d; a++ {
				for b := a; b < d; b++ {
					cov.SetSym(a, b, cov.At(a, b)+r*diff[a]*diff[b])
				}
			}
		}
		for a := 0; a < d; a++ {
			for b := a; b < d; b++ {
				v := cov.At(a, b) / nk
				if a == b {
					v += g.RegCovar
				}
				cov.SetSym(a, b, v)
			}
		}

		weights[k] = nk / float64(n)
		means[k] = mu
		covs[k] = cov
	}
	return g.setParams(weights, means, covs)
}

// setParams installs new parameters and refreshes the cached densities and
// Cholesky factors.
func (g *GaussianMixture) setParams(weights []float64, means [][]float64, covs []*mat.SymDense) error {
	dists := make([]*distmv.Normal, len(means))
	chol := make([]mat.Cholesky, len(means))
	for k := range means {
		if ok := chol[k].Factorize(covs[k]); !ok {
			return fmt.Errorf("%w: component %d", ErrSingularCovariance, k)
		}
		dists[k] = distmv.NewNormalChol(means[k], &chol[k], nil)
	}
	g.Weights = weights
	g.Means = means
	g.Covariances = covs
	g.dists = dists
	g.chol = chol
	return nil
}

// weightedLogProb writes log(w_k) + log N(x | mu_k, Sigma_k) into dst.
func (g *GaussianMixture) weightedLogProb(x []float64, dst []float64) {
	for k, dist := range g.dists {
		dst[k] = math.Log(g.Weights[k]) + dist.LogProb(x)
	}
}

// LogProb returns the log density of the mixture at every row of X.
func (g *GaussianMixture) LogProb(X mat.Matrix) ([]float64, error) {
	if !g.Fitted() {
		return nil, ErrMixtureNotFitted
	}
	n, d := X.Dims()
	if d != g.Dim() {
		return nil, fmt.Errorf("model: GaussianMixture.LogProb: got %d columns, fitted on %d: %w", d, g.Dim(), core.ErrShapeMismatch)
	}
	out := make([]float64, n)
	buf := make([]float64, g.K)
	x := make([]float64, d)
	for i := range out {
		mat.Row(x, i, X)
		g.weightedLogProb(x, buf)
		out[i] = floats.LogSumExp(buf)
	}
	return out, nil
}

// Score is the mean log-likelihood of X under the mixture.
func (g *GaussianMixture) Score(X mat.Matrix) (float64, error) {
	lp, err := g.LogProb(X)
	if err != nil {
		return 0, err
	}
	if len(lp) == 0 {
		return 0, ErrEmptyInput
	}
	return floats.Sum(lp) / float64(len(lp)), nil
}

// Sample draws n points from src. Component counts follow a categorical
// draw over the weights and points are grouped by component; labels gives
// each row's component.
func (g *GaussianMixture) Sample(n int, src xrand.Source) (*mat.Dense, []int, error) {
	if !g.Fitted() {
		return nil, nil, ErrMixtureNotFitted
	}
	if n < 1 {
		return nil, nil, fmt.Errorf("model: GaussianMixture.Sample: n=%d: %w", n, core.ErrConfiguration)
	}

	counts := make([]int, g.K)
	pick := distuv.NewCategorical(g.Weights, src)
	for i := 0; i < n; i++ {
		counts[int(pick.Rand())]++
	}

	out := mat.NewDense(n, g.Dim(), nil)
	labels := make([]int, 0, n)
	for k, c := range counts {
		for j := 0; j < c; j++ {
			row := len(labels)
			distmv.NormalRand(out.RawRowView(row), g.Means[k], &g.chol[k], src)
			labels = append(labels, k)
		}
	}
	return out, labels, nil
}
