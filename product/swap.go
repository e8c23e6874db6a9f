package product

import (
	"errors"
	"fmt"
	"strings"

	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/market"
	"github.com/meenmo/curvecal/provider"
)

// ErrZeroAnnuity is returned when the fixed leg has no value per unit rate.
var ErrZeroAnnuity = errors.New("product: fixed leg annuity is zero")

// Leg is one side of a swap. Pay legs carry a negative sign.
type Leg interface {
	Currency() market.Currency
	PresentValue(p *provider.RatesProvider) (float64, error)
	PresentValueSensitivity(p *provider.RatesProvider) (curve.ParameterSensitivities, error)
}

func legSign(pay bool) float64 {
	if pay {
		return -1
	}
	return 1
}

// live reports whether the period still pays on or after the valuation date.
func live(p *provider.RatesProvider, period SchedulePeriod) bool {
	return !period.PayDate.Before(p.ValuationDate())
}

// FixedLeg pays Rate on every period.
type FixedLeg struct {
	Ccy      market.Currency
	Periods  []SchedulePeriod
	Rate     float64
	Notional float64
	Pay      bool
}

func (l FixedLeg) Currency() market.Currency { return l.Ccy }

// Annuity is the signed PV of one unit of rate, Σ ±N·α·P(pay).
func (l FixedLeg) Annuity(p *provider.RatesProvider) (float64, error) {
	sum := 0.0
	for _, period := range l.Periods {
		if !live(p, period) {
			continue
		}
		df, err := p.DiscountFactor(l.Ccy, period.PayDate)
		if err != nil {
			return 0, fmt.Errorf("FixedLeg.Annuity: %w", err)
		}
		sum += period.YearFraction * df
	}
	return legSign(l.Pay) * l.Notional * sum, nil
}

// AnnuitySensitivity is d(Annuity)/dp.
func (l FixedLeg) AnnuitySensitivity(p *provider.RatesProvider) (curve.ParameterSensitivities, error) {
	out := curve.ParameterSensitivities{}
	scale := legSign(l.Pay) * l.Notional
	for _, period := range l.Periods {
		if !live(p, period) {
			continue
		}
		d, err := p.DiscountFactorSensitivity(l.Ccy, period.PayDate)
		if err != nil {
			return nil, fmt.Errorf("FixedLeg.AnnuitySensitivity: %w", err)
		}
		for name, s := range d.MultipliedBy(scale * period.YearFraction) {
			if err := out.Add(name, s); err != nil {
				return nil, fmt.Errorf("FixedLeg.AnnuitySensitivity: %w", err)
			}
		}
	}
	return out, nil
}

func (l FixedLeg) PresentValue(p *provider.RatesProvider) (float64, error) {
	a, err := l.Annuity(p)
	if err != nil {
		return 0, err
	}
	return l.Rate * a, nil
}

func (l FixedLeg) PresentValueSensitivity(p *provider.RatesProvider) (curve.ParameterSensitivities, error) {
	s, err := l.AnnuitySensitivity(p)
	if err != nil {
		return nil, err
	}
	return s.MultipliedBy(l.Rate), nil
}

// IborLeg pays the index fixing plus Spread on every period.
type IborLeg struct {
	Ccy      market.Currency
	Index    market.IborIndex
	Periods  []SchedulePeriod
	Spread   float64
	Notional float64
	Pay      bool
}

func (l IborLeg) Currency() market.Currency { return l.Ccy }

func (l IborLeg) PresentValue(p *provider.RatesProvider) (float64, error) {
	total := 0.0
	for _, period := range l.Periods {
		if !live(p, period) {
			continue
		}
		rate, err := p.IborRate(l.Index, period.FixingDate)
		if err != nil {
			return 0, fmt.Errorf("IborLeg.PresentValue: %w", err)
		}
		df, err := p.DiscountFactor(l.Ccy, period.PayDate)
		if err != nil {
			return 0, fmt.Errorf("IborLeg.PresentValue: %w", err)
		}
		total += (rate + l.Spread) * period.YearFraction * df
	}
	return legSign(l.Pay) * l.Notional * total, nil
}

func (l IborLeg) PresentValueSensitivity(p *provider.RatesProvider) (curve.ParameterSensitivities, error) {
	out := curve.ParameterSensitivities{}
	scale := legSign(l.Pay) * l.Notional
	for _, period := range l.Periods {
		if !live(p, period) {
			continue
		}
		rate, err := p.IborRate(l.Index, period.FixingDate)
		if err != nil {
			return nil, fmt.Errorf("IborLeg.PresentValueSensitivity: %w", err)
		}
		drate, err := p.IborRateSensitivity(l.Index, period.FixingDate)
		if err != nil {
			return nil, fmt.Errorf("IborLeg.PresentValueSensitivity: %w", err)
		}
		df, err := p.DiscountFactor(l.Ccy, period.PayDate)
		if err != nil {
			return nil, fmt.Errorf("IborLeg.PresentValueSensitivity: %w", err)
		}
		ddf, err := p.DiscountFactorSensitivity(l.Ccy, period.PayDate)
		if err != nil {
			return nil, fmt.Errorf("IborLeg.PresentValueSensitivity: %w", err)
		}
		a := scale * period.YearFraction
		if out, err = accumulate(out, a*df, drate, a*(rate+l.Spread), ddf); err != nil {
			return nil, fmt.Errorf("IborLeg.PresentValueSensitivity: %w", err)
		}
	}
	return out, nil
}

// OvernightLeg pays the compounded overnight rate plus Spread on every period.
type OvernightLeg struct {
	Ccy      market.Currency
	Index    market.OvernightIndex
	Periods  []SchedulePeriod
	Spread   float64
	Notional float64
	Pay      bool
}

func (l OvernightLeg) Currency() market.Currency { return l.Ccy }

func (l OvernightLeg) PresentValue(p *provider.RatesProvider) (float64, error) {
	total := 0.0
	for _, period := range l.Periods {
		if !live(p, period) {
			continue
		}
		rate, err := p.OvernightRate(l.Index, period.StartDate, period.EndDate)
		if err != nil {
			return 0, fmt.Errorf("OvernightLeg.PresentValue: %w", err)
		}
		df, err := p.DiscountFactor(l.Ccy, period.PayDate)
		if err != nil {
			return 0, fmt.Errorf("OvernightLeg.PresentValue: %w", err)
		}
		total += (rate + l.Spread) * period.YearFraction * df
	}
	return legSign(l.Pay) * l.Notional * total, nil
}

func (l OvernightLeg) PresentValueSensitivity(p *provider.RatesProvider) (curve.ParameterSensitivities, error) {
	out := curve.ParameterSensitivities{}
	scale := legSign(l.Pay) * l.Notional
	for _, period := range l.Periods {
		if !live(p, period) {
			continue
		}
		rate, err := p.OvernightRate(l.Index, period.StartDate, period.EndDate)
		if err != nil {
			return nil, fmt.Errorf("OvernightLeg.PresentValueSensitivity: %w", err)
		}
		drate, err := p.OvernightRateSensitivity(l.Index, period.StartDate, period.EndDate)
		if err != nil {
			return nil, fmt.Errorf("OvernightLeg.PresentValueSensitivity: %w", err)
		}
		df, err := p.DiscountFactor(l.Ccy, period.PayDate)
		if err != nil {
			return nil, fmt.Errorf("OvernightLeg.PresentValueSensitivity: %w", err)
		}
		ddf, err := p.DiscountFactorSensitivity(l.Ccy, period.PayDate)
		if err != nil {
			return nil, fmt.Errorf("OvernightLeg.PresentValueSensitivity: %w", err)
		}
		a := scale * period.YearFraction
		if out, err = accumulate(out, a*df, drate, a*(rate+l.Spread), ddf); err != nil {
			return nil, fmt.Errorf("OvernightLeg.PresentValueSensitivity: %w", err)
		}
	}
	return out, nil
}

func accumulate(out curve.ParameterSensitivities, a float64, x curve.ParameterSensitivities, b float64, y curve.ParameterSensitivities) (curve.ParameterSensitivities, error) {
	s, err := scaledSum(a, x, b, y)
	if err != nil {
		return nil, err
	}
	return out.Combine(s)
}

// Swap exchanges a fixed leg against a floating leg.
type Swap struct {
	Name     string
	Fixed    FixedLeg
	Floating Leg
}

func (s Swap) Description() string {
	dir := "receiver"
	if s.Fixed.Pay {
		dir = "payer"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Swap %s %s @%.6f", s.Name, dir, s.Fixed.Rate)
	if n := len(s.Fixed.Periods); n > 0 {
		fmt.Fprintf(&b, " to %s", s.Fixed.Periods[n-1].EndDate.Format("2006-01-02"))
	}
	return b.String()
}

func (s Swap) PresentValue(p *provider.RatesProvider) (float64, error) {
	fixed, err := s.Fixed.PresentValue(p)
	if err != nil {
		return 0, fmt.Errorf("Swap.PresentValue: %w", err)
	}
	float, err := s.Floating.PresentValue(p)
	if err != nil {
		return 0, fmt.Errorf("Swap.PresentValue: %w", err)
	}
	return fixed + float, nil
}

func (s Swap) PresentValueSensitivity(p *provider.RatesProvider) (curve.ParameterSensitivities, error) {
	fixed, err := s.Fixed.PresentValueSensitivity(p)
	if err != nil {
		return nil, fmt.Errorf("Swap.PresentValueSensitivity: %w", err)
	}
	float, err := s.Floating.PresentValueSensitivity(p)
	if err != nil {
		return nil, fmt.Errorf("Swap.PresentValueSensitivity: %w", err)
	}
	return fixed.Combine(float)
}

// ParSpread is -PV/B with B the fixed leg annuity, i.e. the par rate minus
// the fixed rate.
func (s Swap) ParSpread(p *provider.RatesProvider) (float64, error) {
	pv, err := s.PresentValue(p)
	if err != nil {
		return 0, fmt.Errorf("Swap.ParSpread: %w", err)
	}
	b, err := s.Fixed.Annuity(p)
	if err != nil {
		return 0, fmt.Errorf("Swap.ParSpread: %w", err)
	}
	if b == 0 {
		return 0, fmt.Errorf("Swap.ParSpread: %s: %w", s.Name, ErrZeroAnnuity)
	}
	return -pv / b, nil
}

// ParSpreadSensitivity is -dPV/B + PV·dB/B².
func (s Swap) ParSpreadSensitivity(p *provider.RatesProvider) (curve.ParameterSensitivities, error) {
	pv, err := s.PresentValue(p)
	if err != nil {
		return nil, fmt.Errorf("Swap.ParSpreadSensitivity: %w", err)
	}
	b, err := s.Fixed.Annuity(p)
	if err != nil {
		return nil, fmt.Errorf("Swap.ParSpreadSensitivity: %w", err)
	}
	if b == 0 {
		return nil, fmt.Errorf("Swap.ParSpreadSensitivity: %s: %w", s.Name, ErrZeroAnnuity)
	}
	dpv, err := s.PresentValueSensitivity(p)
	if err != nil {
		return nil, fmt.Errorf("Swap.ParSpreadSensitivity: %w", err)
	}
	db, err := s.Fixed.AnnuitySensitivity(p)
	if err != nil {
		return nil, fmt.Errorf("Swap.ParSpreadSensitivity: %w", err)
	}
	return scaledSum(-1/b, dpv, pv/(b*b), db)
}
