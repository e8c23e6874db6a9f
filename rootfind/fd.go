package rootfind

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const defaultBump = 1e-6

// FiniteDifferenceJacobian approximates dF/dx with central differences; the
// bump for x_i is h·max(1, |x_i|).
func FiniteDifferenceJacobian(f VectorFunction, h float64) JacobianFunction {
	return func(x []float64) (*mat.Dense, error) {
		n := len(x)
		var jac *mat.Dense
		xb := append([]float64(nil), x...)
		for i := 0; i < n; i++ {
			bump := h * math.Max(1, math.Abs(x[i]))
			xb[i] = x[i] + bump
			up, err := f(xb)
			if err != nil {
				return nil, fmt.Errorf("FiniteDifferenceJacobian: up bump %d: %w", i, err)
			}
			xb[i] = x[i] - bump
			down, err := f(xb)
			if err != nil {
				return nil, fmt.Errorf("FiniteDifferenceJacobian: down bump %d: %w", i, err)
			}
			xb[i] = x[i]
			if jac == nil {
				jac = mat.NewDense(len(up), n, nil)
			}
			for r := range up {
				jac.Set(r, i, (up[r]-down[r])/(2*bump))
			}
		}
		if jac == nil {
			return nil, fmt.Errorf("FiniteDifferenceJacobian: empty x: %w", ErrDimension)
		}
		return jac, nil
	}
}
