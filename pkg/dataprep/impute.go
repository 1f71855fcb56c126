package dataprep

import (
	"fmt"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/stats"
)

// ErrUndefinedMean is returned when a column has no value to average.
// DropEmptyColumns must run first.
var ErrUndefinedMean = fmt.Errorf("dataprep: column mean undefined: %w", core.ErrConfiguration)

// ImputeMean replaces missing cells with their column's mean over the
// non-missing cells.
func ImputeMean(t *core.Table) (*core.Table, error) {
	names := t.Columns()
	var failed string
	out, err := t.MapColumns(func(j int, col []float64) []float64 {
		if stats.CountMissing(col) == 0 {
			return col
		}
		mean, ok := stats.NaNMean(col)
		if !ok && failed == "" {
			failed = names[j]
		}
		for i, v := range col {
			if stats.IsMissing(v) {
				col[i] = mean
			}
		}
		return col
	})
	if err != nil {
		return nil, err
	}
	if failed != "" {
		return nil, fmt.Errorf("%w: %q", ErrUndefinedMean, failed)
	}
	return out, nil
}
