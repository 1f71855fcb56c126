package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "pca", cfg.Reduce.Method)
	assert.Equal(t, 2, cfg.Reduce.Components)
	assert.Equal(t, int64(42), cfg.Density.Seed)
	assert.Nil(t, cfg.Density.SampleSeed)
	assert.Equal(t, "country", cfg.Output.HighlightLevel)
	assert.Equal(t, "14", cfg.Output.HighlightGroup)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
data:
  path: ches.csv
  index: [party_id, party]
reduce:
  components: 3
density:
  components: 2
  samples: 25
  sample_seed: 9
output:
  highlight_group: "de"
log_level: debug
`))
	require.NoError(t, err)
	assert.Equal(t, "ches.csv", cfg.Data.Path)
	assert.Equal(t, []string{"party_id", "party"}, cfg.Data.Index)
	assert.NotEmpty(t, cfg.Data.NonFeatures, "unset lists keep their defaults")
	assert.Equal(t, "pca", cfg.Reduce.Method)
	assert.Equal(t, 3, cfg.Reduce.Components)
	assert.Equal(t, 25, cfg.Density.Samples)
	require.NotNil(t, cfg.Density.SampleSeed)
	assert.Equal(t, int64(9), *cfg.Density.SampleSeed)
	assert.Equal(t, "country", cfg.Output.HighlightLevel)
	assert.Equal(t, "de", cfg.Output.HighlightGroup)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(strings.NewReader("  \n"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "zero components", yaml: "reduce:\n  components: 0\n"},
		{name: "negative samples", yaml: "density:\n  samples: -1\n"},
		{name: "bad log level", yaml: "log_level: verbose\n"},
		{name: "empty index", yaml: "data:\n  index: []\n"},
		{name: "unknown field", yaml: "reducer:\n  method: pca\n"},
		{name: "index dropped", yaml: "data:\n  non_features: [party]\n"},
		{name: "highlight without level", yaml: "output:\n  highlight_level: \"\"\n  highlight_group: fi\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.yaml))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalid))
			assert.True(t, errors.Is(err, core.ErrConfiguration))
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("reduce:\n  components: 3\n"), 0o600))

	t.Setenv("CHES_DATA_PATH", "/data/ches.csv")
	t.Setenv("CHES_SAMPLE_SEED", "5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Reduce.Components)
	assert.Equal(t, "/data/ches.csv", cfg.Data.Path)
	require.NotNil(t, cfg.Density.SampleSeed)
	assert.Equal(t, int64(5), *cfg.Density.SampleSeed)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "/data/ches.csv", cfg.Data.Path)
}

func TestLoad_BadSampleSeed(t *testing.T) {
	t.Setenv("CHES_SAMPLE_SEED", "forty-two")

	_, err := Load("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	assert.Contains(t, err.Error(), "CHES_SAMPLE_SEED")
}
