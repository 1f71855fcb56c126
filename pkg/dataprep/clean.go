package dataprep

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/data"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/pipeline"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/stats"
)

// ErrMissingIndexColumn is returned when a requested index column is absent
// from the raw table.
var ErrMissingIndexColumn = fmt.Errorf("dataprep: index column not found: %w", core.ErrConfiguration)

// ErrNonFinite is returned when a feature cell parses to an infinity or NaN.
// Only the table's missing markers may stand for an absent value.
var ErrNonFinite = fmt.Errorf("dataprep: non-finite feature value: %w", core.ErrConfiguration)

// DropColumns returns a copy of raw without the named columns. Names that do
// not exist are ignored.
func DropColumns(raw *data.RawTable, names []string) (*data.RawTable, error) {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	var keep []int
	for j, h := range raw.Header {
		if _, ok := drop[h]; !ok {
			keep = append(keep, j)
		}
	}

	header := make([]string, len(keep))
	for k, j := range keep {
		header[k] = raw.Header[j]
	}
	records := make([][]string, len(raw.Records))
	for i, rec := range raw.Records {
		row := make([]string, len(keep))
		for k, j := range keep {
			row[k] = rec[j]
		}
		records[i] = row
	}
	return data.NewRawTable(header, records, raw.MissingMarkers()...)
}

// SetIndex moves the index columns into the row identity and converts every
// other column to float64, with NaN for missing cells. Text columns are not
// features and are left out.
func SetIndex(raw *data.RawTable, index []string, logger *slog.Logger) (*core.Table, error) {
	if logger == nil {
		logger = slog.Default()
	}
	idxPos := make([]int, len(index))
	isIndex := make(map[int]struct{}, len(index))
	for k, name := range index {
		j, ok := raw.ColumnIndex(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingIndexColumn, name)
		}
		idxPos[k] = j
		isIndex[j] = struct{}{}
	}

	schema := pipeline.Infer(raw)
	var features []int
	var names []string
	for j, h := range raw.Header {
		if _, ok := isIndex[j]; ok {
			continue
		}
		if schema.Types[j] == pipeline.Text {
			logger.Warn("dropping non-numeric column", slog.String("column", h))
			continue
		}
		features = append(features, j)
		names = append(names, h)
	}

	keys := make([]core.Key, len(raw.Records))
	rows := make([][]float64, len(raw.Records))
	for i, rec := range raw.Records {
		key := make(core.Key, len(idxPos))
		for k, j := range idxPos {
			key[k] = rec[j]
		}
		keys[i] = key

		row := make([]float64, len(features))
		for k, j := range features {
			if raw.IsMissing(rec[j]) {
				row[k] = math.NaN()
				continue
			}
			v, err := data.ParseFloat(rec[j])
			if err != nil {
				return nil, fmt.Errorf("dataprep: row %d column %q: %w", i, raw.Header[j], err)
			}
			if math.IsInf(v, 0) || math.IsNaN(v) {
				return nil, fmt.Errorf("%w: row %d column %q = %q", ErrNonFinite, i, raw.Header[j], rec[j])
			}
			row[k] = v
		}
		rows[i] = row
	}

	t, err := core.NewTable(names, rows)
	if err != nil {
		return nil, err
	}
	return t.WithIndex(index, keys)
}

// DropEmptyColumns removes every column in which all cells are missing.
func DropEmptyColumns(t *core.Table, logger *slog.Logger) (*core.Table, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rows, cols := t.Dims()
	names := t.Columns()
	var keep []int
	for j := 0; j < cols; j++ {
		if stats.CountMissing(t.Col(j)) == rows {
			logger.Info("dropping empty column", slog.String("column", names[j]))
			continue
		}
		keep = append(keep, j)
	}
	return t.SelectColumns(keep), nil
}

// DropDuplicates removes rows whose key repeats an earlier row's key, keeping
// the first occurrence and the original row order.
func DropDuplicates(t *core.Table) (*core.Table, error) {
	if !t.HasIndex() {
		return nil, fmt.Errorf("dataprep: DropDuplicates needs an indexed table: %w", core.ErrConfiguration)
	}
	seen := make(map[string]struct{})
	var keep []int
	for i, k := range t.Index() {
		id := k.ID()
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		keep = append(keep, i)
	}
	return t.SelectRows(keep), nil
}
