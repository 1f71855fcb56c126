package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/config"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/data"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/dataprep"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/density"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/loader"
	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/reduce"
)

//
// ---------------------- CLI FLAGS DOCUMENTATION ----------------------
//
// --config   : YAML run configuration. Empty = built-in defaults
// --input    : CHES CSV file, overrides data.path
// --plots    : Directory for PNG plots, overrides output.plot_dir
// --preview  : Number of rows to preview in console
// --out      : Write the synthetic parties (survey units) to this CSV
//
// Example:
//   go run ./cmd/examples/party_analysis --input CHES2019V3.csv --preview 5 --out synthetic.csv
//
// ---------------------------------------------------------------------
//

// previewColumns are printed from the preprocessed table as a sanity check.
var previewColumns = []string{"lrgen", "lrecon", "galtan", "environment", "immigrate_policy"}

func main() {
	configPath := flag.String("config", "", "YAML run configuration")
	input := flag.String("input", "", "CHES CSV file")
	plotDir := flag.String("plots", "", "directory for PNG plots")
	preview := flag.Int("preview", 5, "rows to preview")
	out := flag.String("out", "", "CSV file for synthetic parties")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *input != "" {
		cfg.Data.Path = *input
	}
	if *plotDir != "" {
		cfg.Output.PlotDir = *plotDir
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	if err := run(context.Background(), cfg, *preview, *out, logger); err != nil {
		logger.Error("analysis failed", slog.Any("error", err))
		os.Exit(1)
	}
	fmt.Println("Analysis Complete")
}

func run(ctx context.Context, cfg config.Config, preview int, out string, logger *slog.Logger) error {
	if err := os.MkdirAll(cfg.Output.PlotDir, 0o755); err != nil {
		return err
	}

	// 1. Data pre-processing
	ld := loader.New(
		data.FileSource{Path: cfg.Data.Path, Missing: cfg.Data.Missing},
		loader.WithIndex(cfg.Data.Index),
		loader.WithNonFeatures(cfg.Data.NonFeatures),
		loader.WithLogger(logger),
	)
	features, err := ld.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Println("=== Preprocessed party data ===")
	previewTable(dataprep.FeatureSelect(features, previewColumns), preview)

	// 2. Dimensionality reduction
	reducer, err := reduce.New(cfg.Reduce.Method, features, cfg.Reduce.Components, reduce.WithLogger(logger))
	if err != nil {
		return err
	}
	reduced, err := reducer.Transform()
	if err != nil {
		return err
	}
	projection, err := reducer.Projection()
	if err != nil {
		return err
	}
	if err := plotParties(reduced, "2D Representation of Political Parties", plotPath(cfg, "dim_reduced_data.png")); err != nil {
		return err
	}

	// 3. Density estimation
	opts := []density.Option{density.WithSeed(cfg.Density.Seed), density.WithLogger(logger)}
	if cfg.Density.SampleSeed != nil {
		opts = append(opts, density.WithSampleSeed(*cfg.Density.SampleSeed))
	}
	dm, err := density.New(reduced, projection, features.Columns(), opts...)
	if err != nil {
		return err
	}
	if err := dm.FitDensity(cfg.Density.Components); err != nil {
		return err
	}
	if err := plotDensity(reduced, dm, "Density Estimation of Political Parties", plotPath(cfg, "density_estimation.png")); err != nil {
		return err
	}

	// 4. Sample synthetic parties and map them back
	sampled, err := dm.SamplePoints(cfg.Density.Samples)
	if err != nil {
		return err
	}
	synthetic, err := dm.InverseTransform(sampled)
	if err != nil {
		return err
	}
	if err := plotLeftRight(sampled, synthetic, "Lefty/Righty Parties", plotPath(cfg, "left_right_parties.png")); err != nil {
		return err
	}

	survey, err := ld.Unscale(synthetic)
	if err != nil {
		return err
	}
	fmt.Println("=== Synthetic parties (survey units) ===")
	previewTable(dataprep.FeatureSelect(survey, previewColumns), preview)
	if out != "" {
		if err := writeTable(out, survey); err != nil {
			return err
		}
		logger.Info("synthetic parties written", slog.String("path", out))
	}

	// 5. One group of real parties against the rest
	if cfg.Output.HighlightGroup != "" {
		group, err := dataprep.SelectGroup(reduced, cfg.Output.HighlightLevel, cfg.Output.HighlightGroup)
		if err != nil {
			return err
		}
		title := fmt.Sprintf("%s=%s Parties in 2D Space", cfg.Output.HighlightLevel, cfg.Output.HighlightGroup)
		name := fmt.Sprintf("%s_%s_parties.png", cfg.Output.HighlightLevel, cfg.Output.HighlightGroup)
		if err := plotHighlight(reduced, group, title, plotPath(cfg, name)); err != nil {
			return err
		}
	}
	return nil
}

// previewTable prints the first n rows with headers.
func previewTable(t *core.Table, n int) {
	rows, _ := t.Dims()
	n = min(n, rows)

	if t.HasIndex() {
		fmt.Printf("%-24s", "party")
	}
	for _, h := range t.Columns() {
		fmt.Printf("%-18s", h)
	}
	fmt.Println()

	for i := 0; i < n; i++ {
		if t.HasIndex() {
			fmt.Printf("%-24s", t.Key(i))
		}
		for _, v := range t.Row(i) {
			fmt.Printf("%-18.6f", v)
		}
		fmt.Println()
	}
}

func writeTable(path string, t *core.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	records := make([][]string, 0)
	for _, row := range t.Rows() {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = strconv.FormatFloat(v, 'f', 4, 64)
		}
		records = append(records, rec)
	}
	if err := data.WriteCSV(f, t.Columns(), records); err != nil {
		return err
	}
	return f.Close()
}

func plotPath(cfg config.Config, name string) string { return filepath.Join(cfg.Output.PlotDir, name) }
