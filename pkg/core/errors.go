package core

import "errors"

// Error taxonomy shared by every stage of the analysis. Package level
// sentinels wrap one of these with %w so callers can match either the precise
// failure or its class with errors.Is.
var (
	// ErrConfiguration covers missing columns, unsupported methods and
	// component counts outside the available dimensionality.
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFitted is returned when an operation runs before the step it
	// depends on (sampling before a density fit, inverting without a fitted
	// projection).
	ErrNotFitted = errors.New("not fitted")

	// ErrShapeMismatch is returned when a table's dimensionality does not
	// match what a fitted model expects.
	ErrShapeMismatch = errors.New("shape mismatch")
)
