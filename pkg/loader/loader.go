package loader

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/data"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/dataprep"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/pipeline"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/stats"
)

var (
	// ErrEmptyDataset is returned when the raw table has no records.
	ErrEmptyDataset = fmt.Errorf("loader: raw dataset has no records: %w", core.ErrConfiguration)

	// ErrNoFeatures is returned when cleaning leaves no numeric column.
	ErrNoFeatures = fmt.Errorf("loader: no numeric feature columns left: %w", core.ErrConfiguration)

	// ErrNotPreprocessed is returned by Unscale before Preprocess has run.
	ErrNotPreprocessed = fmt.Errorf("loader: data not preprocessed: %w", core.ErrNotFitted)

	// ErrMissingIndexColumn is re-exported from dataprep for callers of this package.
	ErrMissingIndexColumn = dataprep.ErrMissingIndexColumn

	// ErrNonFinite is re-exported from dataprep for callers of this package.
	ErrNonFinite = dataprep.ErrNonFinite
)

// DefaultIndex identifies a party row in the CHES data.
var DefaultIndex = []string{"party_id", "party", "country"}

// DefaultNonFeatures are CHES columns that describe a party rather than
// position it: labels, family codes, survey metadata and pre-aggregated
// indices. The index columns are not listed because they are consumed by
// the index step.
var DefaultNonFeatures = []string{
	"partyabbrev", "year", "family", "famabbrev",
	"cmp", "parfam", "lhcmp", "lrcmp", "salience", "eastwest",
	"eu_position", "eu_position_n", "eu_integration", "eu_integration_n",
	"position", "position_n", "imputed", "imputationmethod",
	"survey", "survey_date",
}

// Source supplies the raw survey table.
type Source interface {
	Fetch(ctx context.Context) (*data.RawTable, error)
}

// Loader acquires the raw CHES table and turns it into a clean, scaled
// feature table indexed by party identity.
type Loader struct {
	source      Source
	nonFeatures []string
	index       []string
	logger      *slog.Logger

	partyData *core.Table
	scaler    *stats.StandardScaler
}

// Option configures a Loader.
type Option func(*Loader)

// WithNonFeatures sets the columns dropped before indexing.
func WithNonFeatures(cols []string) Option {
	return func(l *Loader) { l.nonFeatures = slices.Clone(cols) }
}

// WithIndex sets the columns forming the row identity.
func WithIndex(cols []string) Option {
	return func(l *Loader) { l.index = slices.Clone(cols) }
}

// WithLogger sets the logger; nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a Loader reading from src. src may be nil when only
// Preprocess is used.
func New(src Source, opts ...Option) *Loader {
	l := &Loader{
		source:      src,
		nonFeatures: slices.Clone(DefaultNonFeatures),
		index:       slices.Clone(DefaultIndex),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run fetches the raw table from the source and preprocesses it.
func (l *Loader) Run(ctx context.Context) (*core.Table, error) {
	if l.source == nil {
		return nil, fmt.Errorf("loader: no source configured: %w", core.ErrConfiguration)
	}
	raw, err := l.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("loader: fetch: %w", err)
	}
	l.logger.Info("raw dataset fetched",
		slog.Int("rows", len(raw.Records)),
		slog.Int("cols", len(raw.Header)))
	return l.Preprocess(raw)
}

// Preprocess runs the cleaning pipeline with the loader's column settings:
//
//  1. drop non-feature columns (unknown names ignored)
//  2. set the index columns as row identity
//  3. drop entirely missing columns
//  4. impute remaining gaps with the column mean
//  5. drop rows repeating an earlier identity
//  6. standardize every column
//
// The result and the fitted scaler are kept on the Loader.
func (l *Loader) Preprocess(raw *data.RawTable) (*core.Table, error) {
	if raw == nil || len(raw.Records) == 0 {
		return nil, ErrEmptyDataset
	}
	trimmed, err := dataprep.DropColumns(raw, l.nonFeatures)
	if err != nil {
		return nil, err
	}
	t, err := dataprep.SetIndex(trimmed, l.index, l.logger)
	if err != nil {
		return nil, err
	}

	var scaler *stats.StandardScaler
	p := pipeline.NewPipeline(l.logger,
		pipeline.StageFunc{Label: "drop-empty-columns", Fn: func(t *core.Table) (*core.Table, error) {
			return dataprep.DropEmptyColumns(t, l.logger)
		}},
		pipeline.StageFunc{Label: "impute-mean", Fn: dataprep.ImputeMean},
		pipeline.StageFunc{Label: "drop-duplicates", Fn: dataprep.DropDuplicates},
		pipeline.StageFunc{Label: "standardize", Fn: func(t *core.Table) (*core.Table, error) {
			if _, c := t.Dims(); c == 0 {
				return nil, ErrNoFeatures
			}
			out, s, err := dataprep.Standardize(t)
			scaler = s
			return out, err
		}},
	)
	out, err := p.Run(t)
	if err != nil {
		return nil, err
	}

	r, c := out.Dims()
	l.logger.Info("party data preprocessed", slog.Int("parties", r), slog.Int("features", c))
	l.partyData = out
	l.scaler = scaler
	return out, nil
}

// PartyData returns the last preprocessed table, nil before Preprocess.
func (l *Loader) PartyData() *core.Table { return l.partyData }

// Scaler returns the scaler fitted in the last Preprocess, nil before.
func (l *Loader) Scaler() *stats.StandardScaler { return l.scaler }

// Unscale maps standardized values (e.g. inverse-mapped synthetic parties)
// back to the survey's original units. t must have the feature columns of
// the preprocessed table, in the same order.
func (l *Loader) Unscale(t *core.Table) (*core.Table, error) {
	if l.scaler == nil {
		return nil, ErrNotPreprocessed
	}
	if !slices.Equal(t.Columns(), l.partyData.Columns()) {
		return nil, fmt.Errorf("loader: Unscale: columns differ from preprocessed features: %w", core.ErrShapeMismatch)
	}
	if r, _ := t.Dims(); r == 0 {
		return t, nil
	}
	x, err := l.scaler.InverseTransform(t.Dense())
	if err != nil {
		return nil, err
	}
	out, err := core.FromMatrix(t.Columns(), x)
	if err != nil {
		return nil, err
	}
	if t.HasIndex() {
		return out.WithIndex(t.IndexNames(), t.Index())
	}
	return out, nil
}

// Preprocess is the stateless form of Loader.Preprocess.
func Preprocess(raw *data.RawTable, nonFeatures, index []string) (*core.Table, error) {
	return New(nil, WithNonFeatures(nonFeatures), WithIndex(index)).Preprocess(raw)
}
