package calibration

import "errors"

var (
	// ErrInvalidDefinition covers inconsistent group and curve definitions.
	ErrInvalidDefinition = errors.New("calibration: invalid curve group definition")

	// ErrValuationDateMismatch is returned when known data and market data
	// disagree on the valuation date.
	ErrValuationDateMismatch = errors.New("calibration: valuation date mismatch")

	// ErrMissingJacobian is returned when a sensitivity touches a curve that
	// carries no calibration Jacobian.
	ErrMissingJacobian = errors.New("calibration: curve has no calibration jacobian")

	// ErrUnknownMeasures is returned by MeasuresByName.
	ErrUnknownMeasures = errors.New("calibration: unknown measures")
)
