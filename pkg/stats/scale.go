package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/akshita516/CHES-Data-Cleaning-Task/pkg/core"
)

var (
	// ErrScalerNotFitted is returned by Transform/InverseTransform before Fit.
	ErrScalerNotFitted = fmt.Errorf("stats: scaler: %w", core.ErrNotFitted)

	// ErrEmptyData is returned when fitting on a matrix without rows or columns.
	ErrEmptyData = fmt.Errorf("stats: empty data: %w", core.ErrConfiguration)
)

// StandardScaler standardizes each column to zero mean and unit variance,
// using the population standard deviation. Columns with no spread keep a
// scale of 1 so they map to zero instead of dividing by zero.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
	fit   bool
}

func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

// Fitted reports whether Fit has run.
func (s *StandardScaler) Fitted() bool { return s.fit }

// NFeatures is the column count seen during Fit.
func (s *StandardScaler) NFeatures() int { return len(s.Mean) }

// Fit learns per-column mean and scale from X.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return ErrEmptyData
	}
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			col[i] = X.At(i, j)
		}
		mean, std := MeanStd(col)
		s.Mean[j] = mean
		s.Scale[j] = nonZeroScale(std, mean)
	}
	s.fit = true
	return nil
}

// nonZeroScale treats a spread lost in rounding noise as no spread at all.
func nonZeroScale(std, mean float64) float64 {
	if std <= 1e-12*math.Max(1, math.Abs(mean)) {
		return 1
	}
	return std
}

// Transform applies the learned statistics to X.
func (s *StandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.check(X, "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return out, nil
}

// InverseTransform maps standardized values back to the original units.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.check(X, "InverseTransform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return out, nil
}

// FitTransform fits on X and returns X standardized.
func (s *StandardScaler) FitTransform(X mat.Matrix) (*mat.Dense, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

func (s *StandardScaler) check(X mat.Matrix, op string) error {
	if !s.fit {
		return fmt.Errorf("StandardScaler.%s: %w", op, ErrScalerNotFitted)
	}
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return fmt.Errorf("StandardScaler.%s: %w", op, ErrEmptyData)
	}
	if c != len(s.Mean) {
		return fmt.Errorf("StandardScaler.%s: got %d columns, fitted on %d: %w", op, c, len(s.Mean), core.ErrShapeMismatch)
	}
	return nil
}
