package marketdata

import (
	"errors"
	"fmt"
)

// ErrFxRateNotFound is returned when neither direction of a pair is known.
var ErrFxRateNotFound = errors.New("marketdata: fx rate not found")

// FxMatrix stores spot rates as units of quote currency per unit of base.
type FxMatrix struct {
	rates map[[2]string]float64
}

// NewFxMatrix returns an empty matrix.
func NewFxMatrix() FxMatrix {
	return FxMatrix{rates: map[[2]string]float64{}}
}

// With returns a copy with base/quote = rate added.
func (m FxMatrix) With(base, quote string, rate float64) FxMatrix {
	out := FxMatrix{rates: make(map[[2]string]float64, len(m.rates)+1)}
	for k, v := range m.rates {
		out.rates[k] = v
	}
	out.rates[[2]string{base, quote}] = rate
	return out
}

// Rate returns the conversion rate from base to quote, inverting if only
// the opposite pair is stored.
func (m FxMatrix) Rate(base, quote string) (float64, error) {
	if base == quote {
		return 1, nil
	}
	if v, ok := m.rates[[2]string{base, quote}]; ok {
		return v, nil
	}
	if v, ok := m.rates[[2]string{quote, base}]; ok && v != 0 {
		return 1 / v, nil
	}
	return 0, fmt.Errorf("Rate: %s/%s: %w", base, quote, ErrFxRateNotFound)
}
