// Package product prices the calibration instruments against a RatesProvider.
//
// Every trade reports a present value and a par spread together with their
// derivatives with respect to the parameters of the curves it reads. Par
// spreads are quoted as model rate minus contract rate, so a trade built at
// its market quote has a par spread of zero on a calibrated provider.
package product

import (
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/provider"
)

// Trade is a priceable calibration instrument.
type Trade interface {
	Description() string
	PresentValue(p *provider.RatesProvider) (float64, error)
	PresentValueSensitivity(p *provider.RatesProvider) (curve.ParameterSensitivities, error)
	ParSpread(p *provider.RatesProvider) (float64, error)
	ParSpreadSensitivity(p *provider.RatesProvider) (curve.ParameterSensitivities, error)
}

// scaledSum returns a·x + b·y.
func scaledSum(a float64, x curve.ParameterSensitivities, b float64, y curve.ParameterSensitivities) (curve.ParameterSensitivities, error) {
	return x.MultipliedBy(a).Combine(y.MultipliedBy(b))
}
