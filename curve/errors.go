package curve

import "errors"

var (
	// ErrNodeCount is returned when x and y slices differ in length or are empty.
	ErrNodeCount = errors.New("curve: x and y values must be non-empty and of equal length")

	// ErrNodeOrder is returned when x values are not strictly increasing.
	ErrNodeOrder = errors.New("curve: x values must be strictly increasing")

	// ErrParameterCount is returned when a parameter vector has the wrong size.
	ErrParameterCount = errors.New("curve: parameter count mismatch")

	// ErrUnknownInterpolator is returned by the name lookups.
	ErrUnknownInterpolator = errors.New("curve: unknown interpolator")
)
