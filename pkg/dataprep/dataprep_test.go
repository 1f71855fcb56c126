package dataprep

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/data"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/stats"
)

const raw = `party_id,party,country,year,lrgen,galtan,empty,family
1,SPD,de,2019,3,.,,soc
2,CDU,de,2019,6,7,,cd
1,SPD,de,2019,9,9,,soc
3,PS,fr,2019,.,5,,soc
`

func readRaw(t *testing.T) *data.RawTable {
	t.Helper()
	r, err := data.ReadCSV(strings.NewReader(raw))
	require.NoError(t, err)
	return r
}

func indexed(t *testing.T) *core.Table {
	t.Helper()
	r, err := DropColumns(readRaw(t), []string{"year", "not-a-column"})
	require.NoError(t, err)
	tb, err := SetIndex(r, []string{"party_id", "party", "country"}, nil)
	require.NoError(t, err)
	return tb
}

func TestDropColumns_IgnoresUnknown(t *testing.T) {
	r, err := DropColumns(readRaw(t), []string{"year", "nope"})
	require.NoError(t, err)
	assert.NotContains(t, r.Header, "year")
	assert.Len(t, r.Header, 7)
	assert.True(t, r.IsMissing("."), "missing markers survive the copy")
}

func TestSetIndex(t *testing.T) {
	tb := indexed(t)

	// family is text and leaves the feature set.
	assert.Equal(t, []string{"lrgen", "galtan", "empty"}, tb.Columns())
	assert.Equal(t, []string{"party_id", "party", "country"}, tb.IndexNames())
	assert.Equal(t, core.Key{"2", "CDU", "de"}, tb.Key(1))
	assert.True(t, math.IsNaN(tb.At(0, 1)))
	assert.True(t, math.IsNaN(tb.At(3, 0)))
}

func TestSetIndex_MissingColumn(t *testing.T) {
	_, err := SetIndex(readRaw(t), []string{"party_id", "region"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingIndexColumn))
	assert.True(t, errors.Is(err, core.ErrConfiguration))
}

func TestSetIndex_NonFinite(t *testing.T) {
	r, err := data.ReadCSV(strings.NewReader("id,a\n1,2.5\n2,-inf\n"))
	require.NoError(t, err)
	_, err = SetIndex(r, []string{"id"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNonFinite))
	assert.Contains(t, err.Error(), `"a"`)
}

func TestDropEmptyColumns(t *testing.T) {
	tb, err := DropEmptyColumns(indexed(t), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"lrgen", "galtan"}, tb.Columns())
	r, _ := tb.Dims()
	assert.Equal(t, 4, r)
}

func TestImputeMean(t *testing.T) {
	tb, err := DropEmptyColumns(indexed(t), nil)
	require.NoError(t, err)
	out, err := ImputeMean(tb)
	require.NoError(t, err)

	// lrgen mean over {3,6,9} = 6; galtan mean over {7,9,5} = 7.
	assert.Equal(t, []float64{3, 6, 9, 6}, out.Col(0))
	assert.Equal(t, []float64{7, 7, 9, 5}, out.Col(1))
	assert.True(t, math.IsNaN(tb.At(0, 1)), "input must stay untouched")
}

func TestImputeMean_UndefinedMean(t *testing.T) {
	_, err := ImputeMean(indexed(t))
	assert.True(t, errors.Is(err, ErrUndefinedMean))
}

func TestDropDuplicates_KeepsFirst(t *testing.T) {
	tb, err := DropEmptyColumns(indexed(t), nil)
	require.NoError(t, err)
	tb, err = ImputeMean(tb)
	require.NoError(t, err)

	out, err := DropDuplicates(tb)
	require.NoError(t, err)
	r, _ := out.Dims()
	require.Equal(t, 3, r)
	assert.Equal(t, []core.Key{
		{"1", "SPD", "de"},
		{"2", "CDU", "de"},
		{"3", "PS", "fr"},
	}, out.Index())
	assert.Equal(t, []float64{3, 7}, out.Row(0))
}

func TestDropDuplicates_NeedsIndex(t *testing.T) {
	tb, err := core.NewTable([]string{"x"}, [][]float64{{1}})
	require.NoError(t, err)
	_, err = DropDuplicates(tb)
	assert.True(t, errors.Is(err, core.ErrConfiguration))
}

func TestStandardize(t *testing.T) {
	tb, err := core.NewTable([]string{"a", "b"}, [][]float64{{1, 5}, {2, 5}, {3, 5}, {6, 5}})
	require.NoError(t, err)
	tb, err = tb.WithIndex([]string{"id"}, []core.Key{{"w"}, {"x"}, {"y"}, {"z"}})
	require.NoError(t, err)

	out, scaler, err := Standardize(tb)
	require.NoError(t, err)
	assert.Equal(t, tb.Index(), out.Index())
	assert.Equal(t, 2, scaler.NFeatures())

	m, s := stats.MeanStd(out.Col(0))
	assert.InDelta(t, 0, m, 1e-12)
	assert.InDelta(t, 1, s, 1e-12)
	for _, v := range out.Col(1) {
		assert.InDelta(t, 0, v, 1e-12)
	}
}

func TestStandardize_Empty(t *testing.T) {
	tb, err := core.NewTable([]string{"a"}, nil)
	require.NoError(t, err)
	_, _, err = Standardize(tb)
	assert.True(t, errors.Is(err, stats.ErrEmptyData))
}

func TestFeatureSelect(t *testing.T) {
	tb := indexed(t)
	sel := FeatureSelect(tb, []string{"galtan", "unknown", "lrgen"})
	assert.Equal(t, []string{"galtan", "lrgen"}, sel.Columns())
}

func TestSelectGroup(t *testing.T) {
	tb := indexed(t)
	de, err := SelectGroup(tb, "country", "de")
	require.NoError(t, err)
	r, _ := de.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, core.Key{"2", "CDU", "de"}, de.Key(1))

	none, err := SelectGroup(tb, "country", "fi")
	require.NoError(t, err)
	r, _ = none.Dims()
	assert.Zero(t, r)

	_, err = SelectGroup(tb, "region", "x")
	assert.True(t, errors.Is(err, ErrMissingIndexColumn))
}
