package rootfind

import "errors"

var (
	// ErrNotConverged is returned when the tolerance is not met within MaxSteps.
	ErrNotConverged = errors.New("rootfind: failed to converge")

	// ErrNonFinite is returned when the function or Jacobian produces NaN or Inf.
	ErrNonFinite = errors.New("rootfind: non-finite value")

	// ErrDimension is returned when x0, F(x) and J(x) do not agree in size.
	ErrDimension = errors.New("rootfind: dimension mismatch")
)
