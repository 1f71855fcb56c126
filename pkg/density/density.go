// Package density models the distribution of parties in the reduced space,
// samples synthetic parties from it and maps them back to survey features.
package density

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/model"
)

var (
	// ErrProjectionNotFitted is returned by New when the projection has not
	// been fitted yet.
	ErrProjectionNotFitted = fmt.Errorf("density: projection not fitted: %w", core.ErrNotFitted)

	// ErrNotFitted is returned by SamplePoints and LogDensity before FitDensity.
	ErrNotFitted = fmt.Errorf("density: call FitDensity first: %w", core.ErrNotFitted)
)

// Projection is the part of a fitted reducer the density model needs.
type Projection interface {
	Fitted() bool
	NFeatures() int
	NComponents() int
	Transform(X mat.Matrix) (*mat.Dense, error)
	InverseTransform(Y mat.Matrix) (*mat.Dense, error)
}

// Model fits a Gaussian mixture over a reduced table. It holds the
// projection by reference and never modifies it.
type Model struct {
	reduced      *core.Table
	projection   Projection
	featureNames []string
	seed         int64
	src          rand.Source
	logger       *slog.Logger

	mixture *model.GaussianMixture
}

// Option configures a Model.
type Option func(*Model)

// WithSeed sets the seed of the mixture initialisation. Default 42.
func WithSeed(seed int64) Option {
	return func(m *Model) { m.seed = seed }
}

// WithSampleSeed makes SamplePoints reproducible. Without it the sampling
// stream is seeded from the clock.
func WithSampleSeed(seed int64) Option {
	return func(m *Model) { m.src = rand.NewSource(uint64(seed)) }
}

// WithLogger sets the logger; nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// New checks that reduced matches projection and that featureNames has one
// unique name per original feature.
func New(reduced *core.Table, projection Projection, featureNames []string, opts ...Option) (*Model, error) {
	if projection == nil || !projection.Fitted() {
		return nil, ErrProjectionNotFitted
	}
	if reduced == nil {
		return nil, fmt.Errorf("density: nil reduced table: %w", core.ErrConfiguration)
	}
	if _, c := reduced.Dims(); c != projection.NComponents() {
		return nil, fmt.Errorf("density: reduced table has %d columns, projection has %d components: %w",
			c, projection.NComponents(), core.ErrShapeMismatch)
	}
	if len(featureNames) != projection.NFeatures() {
		return nil, fmt.Errorf("density: %d feature names for %d projected features: %w",
			len(featureNames), projection.NFeatures(), core.ErrConfiguration)
	}
	seen := make(map[string]struct{}, len(featureNames))
	for _, n := range featureNames {
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("density: duplicate feature name %q: %w", n, core.ErrConfiguration)
		}
		seen[n] = struct{}{}
	}

	m := &Model{
		reduced:      reduced,
		projection:   projection,
		featureNames: append([]string(nil), featureNames...),
		seed:         model.DefaultMixtureSeed,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.src == nil {
		m.src = rand.NewSource(uint64(time.Now().UnixNano()))
	}
	return m, nil
}

// FeatureNames returns the names given to inverse-mapped columns.
func (m *Model) FeatureNames() []string { return append([]string(nil), m.featureNames...) }

// Fitted reports whether FitDensity has succeeded.
func (m *Model) Fitted() bool { return m.mixture != nil }

// Mixture returns the fitted mixture, nil before FitDensity.
func (m *Model) Mixture() *model.GaussianMixture { return m.mixture }

// FitDensity fits an nComponents Gaussian mixture to the reduced table and
// replaces any previous fit. On error the previous fit is kept.
func (m *Model) FitDensity(nComponents int) error {
	if nComponents < 1 {
		return fmt.Errorf("density: n_components=%d: %w", nComponents, core.ErrConfiguration)
	}
	if r, _ := m.reduced.Dims(); r == 0 {
		return fmt.Errorf("density: reduced table is empty: %w", core.ErrConfiguration)
	}

	g := model.NewGaussianMixture(nComponents)
	g.Seed = m.seed
	if err := g.Fit(m.reduced.Dense()); err != nil {
		return fmt.Errorf("density: fit: %w", err)
	}
	m.logger.Info("density fitted",
		slog.Int("components", nComponents),
		slog.Bool("converged", g.Converged),
		slog.Int("iterations", g.NIter),
		slog.Float64("mean_log_likelihood", g.LowerBound))
	if !g.Converged {
		m.logger.Warn("density fit did not converge", slog.Int("max_iter", g.MaxIter))
	}
	m.mixture = g
	return nil
}

// SamplePoints draws n synthetic points in the reduced space. Columns match
// the reduced table; rows carry no index.
func (m *Model) SamplePoints(n int) (*core.Table, error) {
	if m.mixture == nil {
		return nil, ErrNotFitted
	}
	if n < 1 {
		return nil, fmt.Errorf("density: n_samples=%d: %w", n, core.ErrConfiguration)
	}
	x, _, err := m.mixture.Sample(n, m.src)
	if err != nil {
		return nil, err
	}
	return core.FromMatrix(m.reduced.Columns(), x)
}

// InverseTransform maps sampled points back to the original feature space.
// Columns are the feature names in construction order.
func (m *Model) InverseTransform(sampled *core.Table) (*core.Table, error) {
	r, c := sampled.Dims()
	if c != m.projection.NComponents() {
		return nil, fmt.Errorf("density: InverseTransform: table has %d columns, projection expects %d: %w",
			c, m.projection.NComponents(), core.ErrShapeMismatch)
	}
	if r == 0 {
		return core.NewTable(m.featureNames, nil)
	}
	x, err := m.projection.InverseTransform(sampled.Dense())
	if err != nil {
		return nil, fmt.Errorf("density: InverseTransform: %w", err)
	}
	return core.FromMatrix(m.featureNames, x)
}

// LogDensity evaluates the fitted mixture's log pdf at every row of points,
// given in reduced coordinates.
func (m *Model) LogDensity(points *core.Table) ([]float64, error) {
	if m.mixture == nil {
		return nil, ErrNotFitted
	}
	r, c := points.Dims()
	if c != m.projection.NComponents() {
		return nil, fmt.Errorf("density: LogDensity: table has %d columns, mixture expects %d: %w",
			c, m.projection.NComponents(), core.ErrShapeMismatch)
	}
	if r == 0 {
		return nil, nil
	}
	return m.mixture.LogProb(points.Dense())
}

// Project maps a feature table into the reduced space with the same
// projection, keeping its index. Its columns must be the feature names.
func (m *Model) Project(features *core.Table) (*core.Table, error) {
	if !slices.Equal(features.Columns(), m.featureNames) {
		return nil, fmt.Errorf("density: Project: columns differ from feature names: %w", core.ErrShapeMismatch)
	}
	if r, _ := features.Dims(); r == 0 {
		return core.NewTable(m.reduced.Columns(), nil)
	}
	y, err := m.projection.Transform(features.Dense())
	if err != nil {
		return nil, fmt.Errorf("density: Project: %w", err)
	}
	out, err := core.FromMatrix(m.reduced.Columns(), y)
	if err != nil {
		return nil, err
	}
	if features.HasIndex() {
		return out.WithIndex(features.IndexNames(), features.Index())
	}
	return out, nil
}
