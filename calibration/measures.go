package calibration

import (
	"fmt"

	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/product"
	"github.com/meenmo/curvecal/provider"
)

// Measures maps a trade and a provider to the residual the solver drives to
// zero, and to the residual's derivative over the curve parameters in order.
type Measures interface {
	Name() string
	Value(t product.Trade, p *provider.RatesProvider) (float64, error)
	Derivative(t product.Trade, p *provider.RatesProvider, order []curve.ParameterSize) ([]float64, error)
}

// ParSpreadMeasures uses the par spread. Its derivative with respect to the
// quote is -1, so Jacobians built from it are d(parameter)/d(quote).
type ParSpreadMeasures struct{}

// Name is "par-spread".
func (ParSpreadMeasures) Name() string { return "par-spread" }

// Value is the par spread of t under p.
func (ParSpreadMeasures) Value(t product.Trade, p *provider.RatesProvider) (float64, error) {
	return t.ParSpread(p)
}

// Derivative is the par spread sensitivity flattened in order.
func (ParSpreadMeasures) Derivative(t product.Trade, p *provider.RatesProvider, order []curve.ParameterSize) ([]float64, error) {
	s, err := t.ParSpreadSensitivity(p)
	if err != nil {
		return nil, err
	}
	return s.Flatten(order)
}

// PresentValueMeasures uses the present value. Jacobians built from it are in
// units of PV rather than quote.
type PresentValueMeasures struct{}

// Name is "present-value".
func (PresentValueMeasures) Name() string { return "present-value" }

// Value is the present value of t under p.
func (PresentValueMeasures) Value(t product.Trade, p *provider.RatesProvider) (float64, error) {
	return t.PresentValue(p)
}

// Derivative is the PV sensitivity flattened in order.
func (PresentValueMeasures) Derivative(t product.Trade, p *provider.RatesProvider, order []curve.ParameterSize) ([]float64, error) {
	s, err := t.PresentValueSensitivity(p)
	if err != nil {
		return nil, err
	}
	return s.Flatten(order)
}

// MeasuresByName resolves "par-spread" or "present-value".
func MeasuresByName(name string) (Measures, error) {
	switch name {
	case ParSpreadMeasures{}.Name():
		return ParSpreadMeasures{}, nil
	case PresentValueMeasures{}.Name():
		return PresentValueMeasures{}, nil
	}
	return nil, fmt.Errorf("MeasuresByName: %q: %w", name, ErrUnknownMeasures)
}
