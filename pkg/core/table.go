package core

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Key is the composite identity of a row, e.g. (party_id, party, country).
type Key []string

// String joins the key parts for display.
func (k Key) String() string { return strings.Join(k, "/") }

// ID returns a string usable as a map key. Parts are separated by the ASCII
// unit separator so ("a/b","c") and ("a","b/c") stay distinct.
func (k Key) ID() string { return strings.Join(k, "\x1f") }

// Table is an immutable numeric table with named columns and an optional
// composite row index. Every accessor hands out copies, every transform
// builds a new Table.
type Table struct {
	indexNames []string
	index      []Key
	columns    []string
	rows       int
	data       *mat.Dense // nil when rows == 0 or len(columns) == 0
}

// NewTable builds a table from row slices. Each row must have one value per
// column and column names must be unique.
func NewTable(columns []string, rows [][]float64) (*Table, error) {
	if err := checkColumns(columns); err != nil {
		return nil, err
	}
	t := &Table{columns: append([]string(nil), columns...), rows: len(rows)}
	c := len(columns)
	if len(rows) == 0 || c == 0 {
		return t, nil
	}
	buf := make([]float64, 0, len(rows)*c)
	for i, r := range rows {
		if len(r) != c {
			return nil, fmt.Errorf("core: row %d has %d values, want %d: %w", i, len(r), c, ErrShapeMismatch)
		}
		buf = append(buf, r...)
	}
	t.data = mat.NewDense(len(rows), c, buf)
	return t, nil
}

// FromMatrix copies m into a new table with the given column names.
func FromMatrix(columns []string, m mat.Matrix) (*Table, error) {
	if err := checkColumns(columns); err != nil {
		return nil, err
	}
	r, c := m.Dims()
	if c != len(columns) {
		return nil, fmt.Errorf("core: matrix has %d columns, got %d names: %w", c, len(columns), ErrShapeMismatch)
	}
	t := &Table{columns: append([]string(nil), columns...), rows: r}
	if r > 0 && c > 0 {
		t.data = mat.DenseCopyOf(m)
	}
	return t, nil
}

func checkColumns(columns []string) error {
	seen := make(map[string]struct{}, len(columns))
	for _, name := range columns {
		if _, ok := seen[name]; ok {
			return fmt.Errorf("core: duplicate column %q: %w", name, ErrConfiguration)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// WithIndex returns a copy of t whose rows are identified by keys. names
// labels the key parts.
func (t *Table) WithIndex(names []string, keys []Key) (*Table, error) {
	if len(keys) != t.rows {
		return nil, fmt.Errorf("core: %d index keys for %d rows: %w", len(keys), t.rows, ErrShapeMismatch)
	}
	for i, k := range keys {
		if len(k) != len(names) {
			return nil, fmt.Errorf("core: key %d has %d parts, want %d: %w", i, len(k), len(names), ErrShapeMismatch)
		}
	}
	out := t.shallow()
	out.indexNames = append([]string(nil), names...)
	out.index = copyKeys(keys)
	return out, nil
}

// shallow shares the backing matrix, which is safe because no method mutates it.
func (t *Table) shallow() *Table {
	return &Table{
		indexNames: t.indexNames,
		index:      t.index,
		columns:    t.columns,
		rows:       t.rows,
		data:       t.data,
	}
}

// Dims returns the number of rows and columns.
func (t *Table) Dims() (int, int) { return t.rows, len(t.columns) }

// Columns returns the column names in order.
func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for j, c := range t.columns {
		if c == name {
			return j, true
		}
	}
	return -1, false
}

// HasIndex reports whether rows carry identity keys.
func (t *Table) HasIndex() bool { return t.index != nil }

// IndexNames returns the names of the key parts.
func (t *Table) IndexNames() []string { return append([]string(nil), t.indexNames...) }

// Index returns a copy of the row keys, nil when the table has no index.
func (t *Table) Index() []Key { return copyKeys(t.index) }

// Key returns the identity of row i.
func (t *Table) Key(i int) Key {
	if t.index == nil {
		return nil
	}
	return append(Key(nil), t.index[i]...)
}

// At returns the value at row i, column j. Like mat.Dense it panics with
// mat.ErrIndexOutOfRange for indices outside the table, including every index
// of an empty table.
func (t *Table) At(i, j int) float64 {
	if t.data == nil {
		panic(mat.ErrIndexOutOfRange)
	}
	return t.data.At(i, j)
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []float64 {
	if t.data == nil {
		return make([]float64, len(t.columns))
	}
	return mat.Row(nil, i, t.data)
}

// Col returns a copy of column j.
func (t *Table) Col(j int) []float64 {
	if t.data == nil {
		return make([]float64, t.rows)
	}
	return mat.Col(nil, j, t.data)
}

// Rows returns a copy of all rows.
func (t *Table) Rows() [][]float64 {
	out := make([][]float64, t.rows)
	for i := range out {
		out[i] = t.Row(i)
	}
	return out
}

// Dense returns a copy of the values, nil for an empty table.
func (t *Table) Dense() *mat.Dense {
	if t.data == nil {
		return nil
	}
	return mat.DenseCopyOf(t.data)
}

// Rename returns a copy of t with new column names.
func (t *Table) Rename(columns []string) (*Table, error) {
	if len(columns) != len(t.columns) {
		return nil, fmt.Errorf("core: %d names for %d columns: %w", len(columns), len(t.columns), ErrShapeMismatch)
	}
	if err := checkColumns(columns); err != nil {
		return nil, err
	}
	out := t.shallow()
	out.columns = append([]string(nil), columns...)
	return out, nil
}

// SelectColumns returns a table holding only the given columns, in the given
// order. Indices must be valid.
func (t *Table) SelectColumns(idx []int) *Table {
	out := &Table{
		indexNames: t.indexNames,
		index:      t.index,
		columns:    make([]string, len(idx)),
		rows:       t.rows,
	}
	for k, j := range idx {
		out.columns[k] = t.columns[j]
	}
	if t.rows == 0 || len(idx) == 0 {
		return out
	}
	out.data = mat.NewDense(t.rows, len(idx), nil)
	for i := 0; i < t.rows; i++ {
		for k, j := range idx {
			out.data.Set(i, k, t.data.At(i, j))
		}
	}
	return out
}

// SelectRows returns a table holding only the given rows, in the given order.
// Keys follow their rows.
func (t *Table) SelectRows(idx []int) *Table {
	out := &Table{
		indexNames: t.indexNames,
		columns:    t.columns,
		rows:       len(idx),
	}
	if t.index != nil {
		out.index = make([]Key, len(idx))
		for k, i := range idx {
			out.index[k] = t.index[i]
		}
	}
	if len(idx) == 0 || len(t.columns) == 0 {
		return out
	}
	out.data = mat.NewDense(len(idx), len(t.columns), nil)
	for k, i := range idx {
		out.data.SetRow(k, t.data.RawRowView(i))
	}
	return out
}

// MapColumns returns a copy of t where every column j is replaced by fn(j, col).
// fn receives a private copy of the column and returns the new values.
func (t *Table) MapColumns(fn func(j int, col []float64) []float64) (*Table, error) {
	out := t.shallow()
	if t.data == nil {
		return out, nil
	}
	out.data = mat.NewDense(t.rows, len(t.columns), nil)
	for j := range t.columns {
		col := fn(j, t.Col(j))
		if len(col) != t.rows {
			return nil, fmt.Errorf("core: column %q mapped to %d values, want %d: %w", t.columns[j], len(col), t.rows, ErrShapeMismatch)
		}
		out.data.SetCol(j, col)
	}
	return out, nil
}

func copyKeys(keys []Key) []Key {
	if keys == nil {
		return nil
	}
	out := make([]Key, len(keys))
	for i, k := range keys {
		out[i] = append(Key(nil), k...)
	}
	return out
}
