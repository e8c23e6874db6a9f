// Package curve holds the calibrated objects: interpolated nodal curves, their
// parameter metadata, and the Jacobian matrices that tie parameters back to
// market quotes.
package curve

import (
	"fmt"
	"time"

	"github.com/meenmo/curvecal/utils"
)

// Name identifies a curve across groups, providers and Jacobians.
type Name string

// ValueType says what the y-values of a curve represent.
type ValueType string

const (
	ZeroRate       ValueType = "ZeroRate"
	DiscountFactor ValueType = "DiscountFactor"
)

// ParseValueType validates a value type name.
func ParseValueType(s string) (ValueType, error) {
	switch vt := ValueType(s); vt {
	case ZeroRate, DiscountFactor:
		return vt, nil
	default:
		return "", fmt.Errorf("ParseValueType: unknown value type %q", s)
	}
}

// ParameterSize is the number of parameters of one named curve.
type ParameterSize struct {
	Name           Name
	ParameterCount int
}

// ParameterMetadata describes one curve parameter (one calibration node).
type ParameterMetadata struct {
	Label string
	Date  time.Time
	Tenor string
}

// Metadata is everything known about a curve besides its parameter values.
type Metadata struct {
	Name       Name
	ValueType  ValueType
	DayCount   utils.DayCount
	Parameters []ParameterMetadata

	// Jacobian is set once the curve's group is calibrated.
	Jacobian *JacobianCalibrationMatrix
	// PVSensitivityToQuote is d(PV of calibration trade i)/d(quote i).
	PVSensitivityToQuote []float64
}

// Curve is a one-dimensional function of year fraction driven by a parameter vector.
type Curve interface {
	Name() Name
	Metadata() Metadata
	ParameterCount() int
	Parameters() []float64
	YValue(x float64) float64
	// YValueParameterSensitivity is dy(x)/dp for every parameter p.
	YValueParameterSensitivity(x float64) []float64
	WithParameters(params []float64) (Curve, error)
	WithMetadata(md Metadata) Curve
}

// RelativeYearFraction is the curve x-value of date for the given metadata.
func RelativeYearFraction(md Metadata, valuationDate, date time.Time) float64 {
	return md.DayCount.YearFraction(valuationDate, date)
}
