package provider

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/market"
)

// discountFactor reads a discount factor and its parameter sensitivity off c.
func discountFactor(c curve.Curve, valuationDate, date time.Time) (float64, []float64) {
	md := c.Metadata()
	t := curve.RelativeYearFraction(md, valuationDate, date)
	y := c.YValue(t)
	dy := c.YValueParameterSensitivity(t)
	if md.ValueType == curve.DiscountFactor {
		if t == 0 {
			// P(t, t) = 1 whatever the nodes say.
			return 1, make([]float64, len(dy))
		}
		return y, dy
	}
	df := math.Exp(-y * t)
	floats.Scale(-t*df, dy)
	return df, dy
}

// DiscountFactor is P(valuationDate, date) in currency ccy.
func (p *RatesProvider) DiscountFactor(ccy market.Currency, date time.Time) (float64, error) {
	c, err := p.DiscountCurve(ccy)
	if err != nil {
		return 0, err
	}
	df, _ := discountFactor(c, p.valuationDate, date)
	return df, nil
}

// DiscountFactorSensitivity is dP(date)/dp over the discount curve parameters.
func (p *RatesProvider) DiscountFactorSensitivity(ccy market.Currency, date time.Time) (curve.ParameterSensitivities, error) {
	c, err := p.DiscountCurve(ccy)
	if err != nil {
		return nil, err
	}
	_, dp := discountFactor(c, p.valuationDate, date)
	return curve.Single(c.Name(), dp), nil
}

// simpleForward is (P(s)/P(e) - 1)/α on c and its parameter sensitivity.
func simpleForward(c curve.Curve, valuationDate, start, end time.Time, accrual float64) (float64, curve.ParameterSensitivities) {
	ps, dps := discountFactor(c, valuationDate, start)
	pe, dpe := discountFactor(c, valuationDate, end)
	rate := (ps/pe - 1) / accrual
	sens := make([]float64, len(dps))
	for i := range sens {
		sens[i] = (dps[i]/pe - ps*dpe[i]/(pe*pe)) / accrual
	}
	return rate, curve.Single(c.Name(), sens)
}

// IborRate is the fixing or forward of index for fixingDate. Fixings before the
// valuation date must be in the time series; on the valuation date a fixing
// is used when present.
func (p *RatesProvider) IborRate(index market.IborIndex, fixingDate time.Time) (float64, error) {
	rate, _, err := p.iborRate(index, fixingDate, false)
	return rate, err
}

// IborRateSensitivity is d(IborRate)/dp; empty once the rate has fixed.
func (p *RatesProvider) IborRateSensitivity(index market.IborIndex, fixingDate time.Time) (curve.ParameterSensitivities, error) {
	_, sens, err := p.iborRate(index, fixingDate, true)
	return sens, err
}

// IborForward is the forward of index for fixingDate read off the forward
// curve, ignoring any fixing on or after the valuation date.
func (p *RatesProvider) IborForward(index market.IborIndex, fixingDate time.Time) (float64, error) {
	rate, _, err := p.iborForward(index, fixingDate, false)
	return rate, err
}

// IborForwardSensitivity is d(IborForward)/dp.
func (p *RatesProvider) IborForwardSensitivity(index market.IborIndex, fixingDate time.Time) (curve.ParameterSensitivities, error) {
	_, sens, err := p.iborForward(index, fixingDate, true)
	return sens, err
}

func (p *RatesProvider) iborRate(index market.IborIndex, fixingDate time.Time, withSens bool) (float64, curve.ParameterSensitivities, error) {
	if fixingDate.Before(p.valuationDate) {
		v, ok := p.fixings[index.Name()].Get(fixingDate)
		if !ok {
			return 0, nil, fmt.Errorf("IborRate: %s on %s: %w", index.Name(), fixingDate.Format("2006-01-02"), ErrFixingNotFound)
		}
		return v, curve.ParameterSensitivities{}, nil
	}
	if fixingDate.Equal(p.valuationDate) {
		if v, ok := p.fixings[index.Name()].Get(fixingDate); ok {
			return v, curve.ParameterSensitivities{}, nil
		}
	}
	return p.iborForward(index, fixingDate, withSens)
}

func (p *RatesProvider) iborForward(index market.IborIndex, fixingDate time.Time, withSens bool) (float64, curve.ParameterSensitivities, error) {
	if fixingDate.Before(p.valuationDate) {
		return 0, nil, fmt.Errorf("IborForward: %s on %s is before the valuation date: %w",
			index.Name(), fixingDate.Format("2006-01-02"), ErrFixingNotFound)
	}
	c, err := p.ForwardCurve(index.Name())
	if err != nil {
		return 0, nil, fmt.Errorf("IborRate: %w", err)
	}
	start := index.EffectiveDate(fixingDate)
	end := index.MaturityDate(start)
	rate, sens := simpleForward(c, p.valuationDate, start, end, index.DayCount.YearFraction(start, end))
	if !withSens {
		sens = nil
	}
	return rate, sens, nil
}

// OvernightRate is the compounded overnight rate over [start, end) implied by
// the index forward curve.
func (p *RatesProvider) OvernightRate(index market.OvernightIndex, start, end time.Time) (float64, error) {
	rate, _, err := p.overnightRate(index, start, end)
	return rate, err
}

// OvernightRateSensitivity is d(OvernightRate)/dp.
func (p *RatesProvider) OvernightRateSensitivity(index market.OvernightIndex, start, end time.Time) (curve.ParameterSensitivities, error) {
	_, sens, err := p.overnightRate(index, start, end)
	return sens, err
}

func (p *RatesProvider) overnightRate(index market.OvernightIndex, start, end time.Time) (float64, curve.ParameterSensitivities, error) {
	if start.Before(p.valuationDate) {
		return 0, nil, fmt.Errorf("OvernightRate: %s from %s: %w", index.Name(), start.Format("2006-01-02"), ErrPastPeriod)
	}
	c, err := p.ForwardCurve(index.Name())
	if err != nil {
		return 0, nil, fmt.Errorf("OvernightRate: %w", err)
	}
	rate, sens := simpleForward(c, p.valuationDate, start, end, index.DayCount.YearFraction(start, end))
	return rate, sens, nil
}
