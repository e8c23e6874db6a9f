package calibration

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvecal/product"
	"github.com/meenmo/curvecal/rootfind"
)

// residualFunction evaluates the measure of trade i at the provider built
// from x; trade i pins parameter i.
func residualFunction(trades []product.Trade, m Measures, gen *RatesProviderGenerator) rootfind.VectorFunction {
	return func(x []float64) ([]float64, error) {
		p, err := gen.Generate(x)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(trades))
		for i, t := range trades {
			v, err := m.Value(t, p)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", t.Description(), err)
			}
			out[i] = v
		}
		return out, nil
	}
}

// derivativeFunction returns d(measure_i)/d(x_j) over the group's parameters.
func derivativeFunction(trades []product.Trade, m Measures, gen *RatesProviderGenerator) rootfind.JacobianFunction {
	order := gen.Order()
	return func(x []float64) (*mat.Dense, error) {
		p, err := gen.Generate(x)
		if err != nil {
			return nil, err
		}
		jac := mat.NewDense(len(trades), len(x), nil)
		for i, t := range trades {
			row, err := m.Derivative(t, p, order)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", t.Description(), err)
			}
			jac.SetRow(i, row)
		}
		return jac, nil
	}
}
