package product

import (
	"fmt"
	"time"

	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/market"
	"github.com/meenmo/curvecal/provider"
	"github.com/meenmo/curvecal/utils"
)

// Fra is a forward rate agreement settled at the period start (ISDA discounting).
// A positive notional receives the floating rate.
type Fra struct {
	Currency     market.Currency
	Index        market.IborIndex
	FixingDate   time.Time
	StartDate    time.Time
	EndDate      time.Time
	PaymentDate  time.Time
	YearFraction float64
	FixedRate    float64
	Notional     float64
}

func (f Fra) Description() string {
	return fmt.Sprintf("Fra %s %s-%s @%.6f", f.Index.Name(), f.StartDate.Format(utils.DateLayout), f.EndDate.Format(utils.DateLayout), f.FixedRate)
}

// PresentValue is N·α(F-K)/(1+αF)·P(payment).
func (f Fra) PresentValue(p *provider.RatesProvider) (float64, error) {
	fwd, err := p.IborRate(f.Index, f.FixingDate)
	if err != nil {
		return 0, fmt.Errorf("Fra.PresentValue: %w", err)
	}
	pp, err := p.DiscountFactor(f.Currency, f.PaymentDate)
	if err != nil {
		return 0, fmt.Errorf("Fra.PresentValue: %w", err)
	}
	a := f.YearFraction
	return f.Notional * a * (fwd - f.FixedRate) / (1 + a*fwd) * pp, nil
}

func (f Fra) PresentValueSensitivity(p *provider.RatesProvider) (curve.ParameterSensitivities, error) {
	fwd, err := p.IborRate(f.Index, f.FixingDate)
	if err != nil {
		return nil, fmt.Errorf("Fra.PresentValueSensitivity: %w", err)
	}
	dfwd, err := p.IborRateSensitivity(f.Index, f.FixingDate)
	if err != nil {
		return nil, fmt.Errorf("Fra.PresentValueSensitivity: %w", err)
	}
	pp, err := p.DiscountFactor(f.Currency, f.PaymentDate)
	if err != nil {
		return nil, fmt.Errorf("Fra.PresentValueSensitivity: %w", err)
	}
	dpp, err := p.DiscountFactorSensitivity(f.Currency, f.PaymentDate)
	if err != nil {
		return nil, fmt.Errorf("Fra.PresentValueSensitivity: %w", err)
	}
	a := f.YearFraction
	den := 1 + a*fwd
	// d/dF of α(F-K)/(1+αF) is α(1+αK)/(1+αF)².
	dg := a * (1 + a*f.FixedRate) / (den * den)
	return scaledSum(f.Notional*dg*pp, dfwd, f.Notional*a*(fwd-f.FixedRate)/den, dpp)
}

// ParSpread is F - K.
func (f Fra) ParSpread(p *provider.RatesProvider) (float64, error) {
	fwd, err := p.IborRate(f.Index, f.FixingDate)
	if err != nil {
		return 0, fmt.Errorf("Fra.ParSpread: %w", err)
	}
	return fwd - f.FixedRate, nil
}

func (f Fra) ParSpreadSensitivity(p *provider.RatesProvider) (curve.ParameterSensitivities, error) {
	s, err := p.IborRateSensitivity(f.Index, f.FixingDate)
	if err != nil {
		return nil, fmt.Errorf("Fra.ParSpreadSensitivity: %w", err)
	}
	return s, nil
}
