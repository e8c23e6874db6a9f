package product

import (
	"fmt"
	"time"

	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/market"
	"github.com/meenmo/curvecal/provider"
	"github.com/meenmo/curvecal/utils"
)

// TermDeposit lends Notional from StartDate to EndDate at Rate.
type TermDeposit struct {
	Currency     market.Currency
	StartDate    time.Time
	EndDate      time.Time
	YearFraction float64
	Rate         float64
	Notional     float64
}

func (d TermDeposit) Description() string {
	return fmt.Sprintf("TermDeposit %s %s-%s @%.6f", d.Currency, d.StartDate.Format(utils.DateLayout), d.EndDate.Format(utils.DateLayout), d.Rate)
}

// PresentValue is N(1+rα)P(end) - N·P(start).
func (d TermDeposit) PresentValue(p *provider.RatesProvider) (float64, error) {
	ps, err := p.DiscountFactor(d.Currency, d.StartDate)
	if err != nil {
		return 0, fmt.Errorf("TermDeposit.PresentValue: %w", err)
	}
	pe, err := p.DiscountFactor(d.Currency, d.EndDate)
	if err != nil {
		return 0, fmt.Errorf("TermDeposit.PresentValue: %w", err)
	}
	return d.Notional*(1+d.Rate*d.YearFraction)*pe - d.Notional*ps, nil
}

func (d TermDeposit) PresentValueSensitivity(p *provider.RatesProvider) (curve.ParameterSensitivities, error) {
	dps, err := p.DiscountFactorSensitivity(d.Currency, d.StartDate)
	if err != nil {
		return nil, fmt.Errorf("TermDeposit.PresentValueSensitivity: %w", err)
	}
	dpe, err := p.DiscountFactorSensitivity(d.Currency, d.EndDate)
	if err != nil {
		return nil, fmt.Errorf("TermDeposit.PresentValueSensitivity: %w", err)
	}
	return scaledSum(d.Notional*(1+d.Rate*d.YearFraction), dpe, -d.Notional, dps)
}

// ParSpread is the implied simple rate minus Rate.
func (d TermDeposit) ParSpread(p *provider.RatesProvider) (float64, error) {
	ps, err := p.DiscountFactor(d.Currency, d.StartDate)
	if err != nil {
		return 0, fmt.Errorf("TermDeposit.ParSpread: %w", err)
	}
	pe, err := p.DiscountFactor(d.Currency, d.EndDate)
	if err != nil {
		return 0, fmt.Errorf("TermDeposit.ParSpread: %w", err)
	}
	return (ps/pe-1)/d.YearFraction - d.Rate, nil
}

func (d TermDeposit) ParSpreadSensitivity(p *provider.RatesProvider) (curve.ParameterSensitivities, error) {
	ps, err := p.DiscountFactor(d.Currency, d.StartDate)
	if err != nil {
		return nil, fmt.Errorf("TermDeposit.ParSpreadSensitivity: %w", err)
	}
	pe, err := p.DiscountFactor(d.Currency, d.EndDate)
	if err != nil {
		return nil, fmt.Errorf("TermDeposit.ParSpreadSensitivity: %w", err)
	}
	dps, err := p.DiscountFactorSensitivity(d.Currency, d.StartDate)
	if err != nil {
		return nil, fmt.Errorf("TermDeposit.ParSpreadSensitivity: %w", err)
	}
	dpe, err := p.DiscountFactorSensitivity(d.Currency, d.EndDate)
	if err != nil {
		return nil, fmt.Errorf("TermDeposit.ParSpreadSensitivity: %w", err)
	}
	return scaledSum(1/(pe*d.YearFraction), dps, -ps/(pe*pe*d.YearFraction), dpe)
}

// IborFixingDeposit exchanges Rate against the fixing of Index over one index period.
type IborFixingDeposit struct {
	Currency     market.Currency
	Index        market.IborIndex
	FixingDate   time.Time
	StartDate    time.Time
	EndDate      time.Time
	YearFraction float64
	Rate         float64
	Notional     float64
	// Projected reads the rate off the forward curve even when the index has
	// already fixed, so the deposit keeps pinning its curve node.
	Projected bool
}

func (d IborFixingDeposit) Description() string {
	return fmt.Sprintf("IborFixingDeposit %s fixing %s @%.6f", d.Index.Name(), d.FixingDate.Format(utils.DateLayout), d.Rate)
}

func (d IborFixingDeposit) forward(p *provider.RatesProvider) (float64, error) {
	if d.Projected {
		return p.IborForward(d.Index, d.FixingDate)
	}
	return p.IborRate(d.Index, d.FixingDate)
}

func (d IborFixingDeposit) forwardSensitivity(p *provider.RatesProvider) (curve.ParameterSensitivities, error) {
	if d.Projected {
		return p.IborForwardSensitivity(d.Index, d.FixingDate)
	}
	return p.IborRateSensitivity(d.Index, d.FixingDate)
}

// PresentValue is N·α·(r - F)·P(end).
func (d IborFixingDeposit) PresentValue(p *provider.RatesProvider) (float64, error) {
	f, err := d.forward(p)
	if err != nil {
		return 0, fmt.Errorf("IborFixingDeposit.PresentValue: %w", err)
	}
	pe, err := p.DiscountFactor(d.Currency, d.EndDate)
	if err != nil {
		return 0, fmt.Errorf("IborFixingDeposit.PresentValue: %w", err)
	}
	return d.Notional * d.YearFraction * (d.Rate - f) * pe, nil
}

func (d IborFixingDeposit) PresentValueSensitivity(p *provider.RatesProvider) (curve.ParameterSensitivities, error) {
	f, err := d.forward(p)
	if err != nil {
		return nil, fmt.Errorf("IborFixingDeposit.PresentValueSensitivity: %w", err)
	}
	df, err := d.forwardSensitivity(p)
	if err != nil {
		return nil, fmt.Errorf("IborFixingDeposit.PresentValueSensitivity: %w", err)
	}
	pe, err := p.DiscountFactor(d.Currency, d.EndDate)
	if err != nil {
		return nil, fmt.Errorf("IborFixingDeposit.PresentValueSensitivity: %w", err)
	}
	dpe, err := p.DiscountFactorSensitivity(d.Currency, d.EndDate)
	if err != nil {
		return nil, fmt.Errorf("IborFixingDeposit.PresentValueSensitivity: %w", err)
	}
	na := d.Notional * d.YearFraction
	return scaledSum(-na*pe, df, na*(d.Rate-f), dpe)
}

// ParSpread is F - r.
func (d IborFixingDeposit) ParSpread(p *provider.RatesProvider) (float64, error) {
	f, err := d.forward(p)
	if err != nil {
		return 0, fmt.Errorf("IborFixingDeposit.ParSpread: %w", err)
	}
	return f - d.Rate, nil
}

func (d IborFixingDeposit) ParSpreadSensitivity(p *provider.RatesProvider) (curve.ParameterSensitivities, error) {
	s, err := d.forwardSensitivity(p)
	if err != nil {
		return nil, fmt.Errorf("IborFixingDeposit.ParSpreadSensitivity: %w", err)
	}
	return s, nil
}
