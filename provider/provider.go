// Package provider bundles calibrated curves, fixings and FX rates into the
// immutable view that products price against.
package provider

import (
	"fmt"
	"sort"
	"time"

	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/market"
	"github.com/meenmo/curvecal/marketdata"
)

// Params are the inputs of New.
type Params struct {
	ValuationDate  time.Time
	DiscountCurves map[market.Currency]curve.Curve
	// ForwardCurves are keyed by index name.
	ForwardCurves map[string]curve.Curve
	Fx            marketdata.FxMatrix
	Fixings       map[string]marketdata.TimeSeries
}

// RatesProvider is an immutable set of curves and known market data.
type RatesProvider struct {
	valuationDate time.Time
	discount      map[market.Currency]curve.Curve
	forward       map[string]curve.Curve
	fx            marketdata.FxMatrix
	fixings       map[string]marketdata.TimeSeries
}

// New copies p into a provider.
func New(p Params) *RatesProvider {
	rp := &RatesProvider{
		valuationDate: p.ValuationDate,
		discount:      make(map[market.Currency]curve.Curve, len(p.DiscountCurves)),
		forward:       make(map[string]curve.Curve, len(p.ForwardCurves)),
		fx:            p.Fx,
		fixings:       make(map[string]marketdata.TimeSeries, len(p.Fixings)),
	}
	for k, v := range p.DiscountCurves {
		rp.discount[k] = v
	}
	for k, v := range p.ForwardCurves {
		rp.forward[k] = v
	}
	for k, v := range p.Fixings {
		rp.fixings[k] = v
	}
	return rp
}

// Empty returns a provider with no curves.
func Empty(valuationDate time.Time) *RatesProvider {
	return New(Params{ValuationDate: valuationDate, Fx: marketdata.NewFxMatrix()})
}

func (p *RatesProvider) ValuationDate() time.Time { return p.valuationDate }

// WithCurves returns a copy where the given curves replace existing entries.
func (p *RatesProvider) WithCurves(discount map[market.Currency]curve.Curve, forward map[string]curve.Curve) *RatesProvider {
	out := New(p.params())
	for k, v := range discount {
		out.discount[k] = v
	}
	for k, v := range forward {
		out.forward[k] = v
	}
	return out
}

// WithFixings returns a copy with the time series of index replaced.
func (p *RatesProvider) WithFixings(index string, ts marketdata.TimeSeries) *RatesProvider {
	out := New(p.params())
	out.fixings[index] = ts
	return out
}

func (p *RatesProvider) params() Params {
	return Params{
		ValuationDate:  p.valuationDate,
		DiscountCurves: p.discount,
		ForwardCurves:  p.forward,
		Fx:             p.fx,
		Fixings:        p.fixings,
	}
}

// DiscountCurve returns the curve discounting ccy.
func (p *RatesProvider) DiscountCurve(ccy market.Currency) (curve.Curve, error) {
	c, ok := p.discount[ccy]
	if !ok {
		return nil, fmt.Errorf("DiscountCurve: %s: %w", ccy, ErrCurveNotFound)
	}
	return c, nil
}

// ForwardCurve returns the curve projecting index.
func (p *RatesProvider) ForwardCurve(index string) (curve.Curve, error) {
	c, ok := p.forward[index]
	if !ok {
		return nil, fmt.Errorf("ForwardCurve: %s: %w", index, ErrCurveNotFound)
	}
	return c, nil
}

// Curves returns every distinct curve keyed by name.
func (p *RatesProvider) Curves() map[curve.Name]curve.Curve {
	out := map[curve.Name]curve.Curve{}
	for _, c := range p.discount {
		out[c.Name()] = c
	}
	for _, c := range p.forward {
		out[c.Name()] = c
	}
	return out
}

// CurveNames returns the sorted names of every curve.
func (p *RatesProvider) CurveNames() []curve.Name {
	curves := p.Curves()
	names := make([]curve.Name, 0, len(curves))
	for n := range curves {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Curve finds a curve by name.
func (p *RatesProvider) Curve(name curve.Name) (curve.Curve, error) {
	c, ok := p.Curves()[name]
	if !ok {
		return nil, fmt.Errorf("Curve: %s: %w", name, ErrCurveNotFound)
	}
	return c, nil
}

// Fixings returns the time series of index, empty if unknown.
func (p *RatesProvider) Fixings(index string) marketdata.TimeSeries {
	return p.fixings[index]
}

// FxRate converts one unit of base into quote.
func (p *RatesProvider) FxRate(base, quote market.Currency) (float64, error) {
	return p.fx.Rate(string(base), string(quote))
}
