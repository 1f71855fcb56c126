package dataprep

import (
	"fmt"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/stats"
)

// Standardize scales every column to zero mean and unit variance using the
// table's current statistics. The fitted scaler is returned so values can be
// mapped back to survey units.
func Standardize(t *core.Table) (*core.Table, *stats.StandardScaler, error) {
	scaler := stats.NewStandardScaler()
	r, c := t.Dims()
	if r == 0 || c == 0 {
		return nil, nil, stats.ErrEmptyData
	}
	z, err := scaler.FitTransform(t.Dense())
	if err != nil {
		return nil, nil, err
	}
	out, err := core.FromMatrix(t.Columns(), z)
	if err != nil {
		return nil, nil, err
	}
	if t.HasIndex() {
		out, err = out.WithIndex(t.IndexNames(), t.Index())
		if err != nil {
			return nil, nil, err
		}
	}
	return out, scaler, nil
}

// FeatureSelect keeps the named columns in the given order. Unknown names are
// skipped.
func FeatureSelect(t *core.Table, names []string) *core.Table {
	var idx []int
	for _, n := range names {
		if j, ok := t.ColumnIndex(n); ok {
			idx = append(idx, j)
		}
	}
	return t.SelectColumns(idx)
}

// SelectGroup keeps the rows whose index column level equals value, e.g. the
// parties of one country.
func SelectGroup(t *core.Table, level, value string) (*core.Table, error) {
	pos := -1
	for k, n := range t.IndexNames() {
		if n == level {
			pos = k
		}
	}
	if pos < 0 {
		return nil, fmt.Errorf("%w: %q", ErrMissingIndexColumn, level)
	}
	var rows []int
	for i, key := range t.Index() {
		if key[pos] == value {
			rows = append(rows, i)
		}
	}
	return t.SelectRows(rows), nil
}
