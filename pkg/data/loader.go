package data

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrNoHeader is returned when the input has no header row.
	ErrNoHeader = errors.New("data: missing header row")

	// ErrRaggedRecord is returned when a record's width differs from the header.
	ErrRaggedRecord = errors.New("data: record width does not match header")
)

// DefaultMissing lists the cell spellings treated as missing. "." is how
// Stata exports system missing values.
var DefaultMissing = []string{"", "NA", "NaN", "nan", "."}

// RawTable is an untyped tabular dataset: a header and string records.
type RawTable struct {
	Header  []string
	Records [][]string
	missing map[string]struct{}
}

// NewRawTable wraps header and records. missing overrides DefaultMissing when
// non-empty.
func NewRawTable(header []string, records [][]string, missing ...string) (*RawTable, error) {
	for i, rec := range records {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("record %d has %d fields, header has %d: %w", i, len(rec), len(header), ErrRaggedRecord)
		}
	}
	if len(missing) == 0 {
		missing = DefaultMissing
	}
	set := make(map[string]struct{}, len(missing))
	for _, m := range missing {
		set[m] = struct{}{}
	}
	return &RawTable{Header: header, Records: records, missing: set}, nil
}

// ColumnIndex returns the position of the named column.
func (t *RawTable) ColumnIndex(name string) (int, bool) {
	for i, h := range t.Header {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

// Column returns a copy of the cells of column j.
func (t *RawTable) Column(j int) []string {
	out := make([]string, len(t.Records))
	for i, rec := range t.Records {
		out[i] = rec[j]
	}
	return out
}

// IsMissing reports whether the cell spelling marks a missing value.
func (t *RawTable) IsMissing(cell string) bool {
	_, ok := t.missing[strings.TrimSpace(cell)]
	return ok
}

// MissingMarkers returns the spellings this table treats as missing.
func (t *RawTable) MissingMarkers() []string {
	out := make([]string, 0, len(t.missing))
	for m := range t.missing {
		out = append(out, m)
	}
	return out
}

// ParseFloat parses a non-missing cell.
func ParseFloat(cell string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(cell), 64)
}

// ReadCSV reads a header row followed by records. Every record must have as
// many fields as the header.
func ReadCSV(r io.Reader, missing ...string) (*RawTable, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = 0 // enforce header width on every record

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("data: read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, csv.ErrFieldCount) {
				return nil, fmt.Errorf("data: line %d: %w", len(records)+2, ErrRaggedRecord)
			}
			return nil, fmt.Errorf("data: read record %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return NewRawTable(header, records, missing...)
}

// FileSource reads a CSV file from the local filesystem.
type FileSource struct {
	Path    string
	Missing []string
}

// Fetch opens and parses the file. The context is checked before reading.
func (s FileSource) Fetch(ctx context.Context) (*RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("data: open %s: %w", s.Path, err)
	}
	defer f.Close()
	return ReadCSV(f, s.Missing...)
}

// ReaderSource parses CSV from an in-memory reader, mostly for tests and
// embedded fixtures.
type ReaderSource struct {
	R       io.Reader
	Missing []string
}

// Fetch parses the reader once.
func (s ReaderSource) Fetch(ctx context.Context) (*RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadCSV(s.R, s.Missing...)
}

// WriteCSV writes a header row followed by records.
func WriteCSV(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("data: write header: %w", err)
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("data: write records: %w", err)
	}
	return nil
}
