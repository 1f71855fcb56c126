// Package reduce projects a preprocessed feature table onto a low-dimensional
// space and keeps the fitted projection for later inversion.
package reduce

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/model"
)

// Method identifies a reduction technique.
type Method int

const (
	// MethodPCA is principal component analysis, the only supported method.
	MethodPCA Method = iota + 1
)

func (m Method) String() string {
	switch m {
	case MethodPCA:
		return "pca"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

var (
	// ErrUnsupportedMethod is returned for any method identifier other than "pca".
	ErrUnsupportedMethod = fmt.Errorf("reduce: unsupported reduction method: %w", core.ErrConfiguration)

	// ErrInvalidComponents is returned when n_components is not in
	// [1, min(rows, columns)] of the feature table.
	ErrInvalidComponents = fmt.Errorf("reduce: invalid number of components: %w", core.ErrConfiguration)

	// ErrNotTransformed is returned by Projection before Transform.
	ErrNotTransformed = fmt.Errorf("reduce: projection not fitted, call Transform first: %w", core.ErrNotFitted)
)

// ParseMethod maps a case-insensitive identifier to a Method. There is no
// fallback: unknown names fail.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pca":
		return MethodPCA, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedMethod, s)
	}
}

// Reducer fits a linear projection of a feature table.
type Reducer struct {
	method      Method
	table       *core.Table
	nComponents int
	logger      *slog.Logger

	pca     *model.PCA
	reduced *core.Table
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithLogger sets the logger; nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reducer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New validates the method and the component count against table.
func New(method string, table *core.Table, nComponents int, opts ...Option) (*Reducer, error) {
	m, err := ParseMethod(method)
	if err != nil {
		return nil, err
	}
	if table == nil {
		return nil, fmt.Errorf("reduce: nil feature table: %w", core.ErrConfiguration)
	}
	rows, cols := table.Dims()
	if nComponents < 1 || nComponents > cols {
		return nil, fmt.Errorf("%w: n_components=%d, table has %d numeric columns", ErrInvalidComponents, nComponents, cols)
	}
	if nComponents > rows {
		return nil, fmt.Errorf("%w: n_components=%d, table has %d rows", ErrInvalidComponents, nComponents, rows)
	}

	r := &Reducer{
		method:      m,
		table:       table,
		nComponents: nComponents,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Method returns the reduction method.
func (r *Reducer) Method() Method { return r.method }

// Transform fits the projection on the whole feature table the first time it
// is called and returns the reduced table, columns PC1..PCk with the feature
// table's index. Later calls return the same table.
func (r *Reducer) Transform() (*core.Table, error) {
	if r.reduced != nil {
		return r.reduced, nil
	}

	x := r.table.Dense()
	pca := model.NewPCA(r.nComponents)
	if err := pca.Fit(x); err != nil {
		return nil, fmt.Errorf("reduce: fit %s: %w", r.method, err)
	}
	y, err := pca.Transform(x)
	if err != nil {
		return nil, fmt.Errorf("reduce: transform: %w", err)
	}
	out, err := core.FromMatrix(ComponentNames(r.nComponents), y)
	if err != nil {
		return nil, err
	}
	if r.table.HasIndex() {
		if out, err = out.WithIndex(r.table.IndexNames(), r.table.Index()); err != nil {
			return nil, err
		}
	}

	mse, err := pca.ReconstructionError(x)
	if err != nil {
		return nil, err
	}
	r.logger.Info("projection fitted",
		slog.String("method", r.method.String()),
		slog.Int("components", r.nComponents),
		slog.Any("explained_variance_ratio", pca.ExplainedVarianceRatio),
		slog.Float64("reconstruction_mse", mse))

	r.pca = pca
	r.reduced = out
	return out, nil
}

// Projection returns the fitted projection. It fails before Transform.
func (r *Reducer) Projection() (*model.PCA, error) {
	if r.pca == nil {
		return nil, ErrNotTransformed
	}
	return r.pca, nil
}

// ExplainedVarianceRatio is the share of total variance carried by each
// component.
func (r *Reducer) ExplainedVarianceRatio() ([]float64, error) {
	if r.pca == nil {
		return nil, ErrNotTransformed
	}
	return append([]float64(nil), r.pca.ExplainedVarianceRatio...), nil
}

// ComponentNames returns PC1..PCk.
func ComponentNames(k int) []string {
	names := make([]string, k)
	for i := range names {
		names[i] = fmt.Sprintf("PC%d", i+1)
	}
	return names
}
