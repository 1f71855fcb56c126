// Package config holds the settings of a party analysis run.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/data"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/loader"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/model"
)

// ErrInvalid is returned when a loaded configuration fails validation.
var ErrInvalid = fmt.Errorf("config: invalid configuration: %w", core.ErrConfiguration)

var validate = validator.New()

// DefaultHighlightGroup is the CHES country code of Finland.
const DefaultHighlightGroup = "14"

// Config is the full run configuration.
type Config struct {
	Data     DataConfig    `yaml:"data"`
	Reduce   ReduceConfig  `yaml:"reduce"`
	Density  DensityConfig `yaml:"density"`
	Output   OutputConfig  `yaml:"output"`
	LogLevel string        `yaml:"log_level" validate:"oneof=debug info warn error"`
}

// DataConfig locates the survey file and names its identity columns.
type DataConfig struct {
	Path        string   `yaml:"path" validate:"required"`
	Index       []string `yaml:"index" validate:"required,min=1,dive,required"`
	NonFeatures []string `yaml:"non_features" validate:"dive,required"`
	Missing     []string `yaml:"missing"`
}

// ReduceConfig selects the projection.
type ReduceConfig struct {
	Method     string `yaml:"method" validate:"required"`
	Components int    `yaml:"components" validate:"gte=1"`
}

// DensityConfig controls the mixture fit and sampling. SampleSeed nil means
// samples differ between runs.
type DensityConfig struct {
	Components int    `yaml:"components" validate:"gte=1"`
	Samples    int    `yaml:"samples" validate:"gte=1"`
	Seed       int64  `yaml:"seed"`
	SampleSeed *int64 `yaml:"sample_seed"`
}

// OutputConfig controls where plots go. HighlightGroup selects parties whose
// HighlightLevel index value equals it for a separate plot; an empty group
// skips that plot.
type OutputConfig struct {
	PlotDir        string `yaml:"plot_dir" validate:"required"`
	HighlightLevel string `yaml:"highlight_level" validate:"required_with=HighlightGroup"`
	HighlightGroup string `yaml:"highlight_group"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Data: DataConfig{
			Path:        "CHES2019V3.csv",
			Index:       append([]string(nil), loader.DefaultIndex...),
			NonFeatures: append([]string(nil), loader.DefaultNonFeatures...),
			Missing:     append([]string(nil), data.DefaultMissing...),
		},
		Reduce: ReduceConfig{
			Method:     "pca",
			Components: 2,
		},
		Density: DensityConfig{
			Components: 1,
			Samples:    10,
			Seed:       model.DefaultMixtureSeed,
		},
		Output: OutputConfig{
			PlotDir:        "plots",
			HighlightLevel: "country",
			HighlightGroup: DefaultHighlightGroup,
		},
		LogLevel: "info",
	}
}

// Load reads path over the defaults, applies CHES_* environment overrides
// and validates the result. An empty path uses the defaults only.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("config: %w", err)
		}
		defer f.Close()
		if err := decode(f, &cfg); err != nil {
			return cfg, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates it.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	if err := decode(r, &cfg); err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("CHES_DATA_PATH"); v != "" {
		cfg.Data.Path = v
	}
	if v := os.Getenv("CHES_PLOT_DIR"); v != "" {
		cfg.Output.PlotDir = v
	}
	if v := os.Getenv("CHES_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("CHES_SAMPLE_SEED"); v != "" {
		s, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fmt.Errorf("%w: CHES_SAMPLE_SEED=%q is not an integer", ErrInvalid, v)
		}
		cfg.Density.SampleSeed = &s
	}
	return nil
}

// Validate checks the struct constraints. An index column may not also be
// listed as a non-feature, since it would be dropped before indexing.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	for _, idx := range c.Data.Index {
		for _, nf := range c.Data.NonFeatures {
			if idx == nf {
				return fmt.Errorf("%w: index column %q is also listed as a non-feature", ErrInvalid, idx)
			}
		}
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
