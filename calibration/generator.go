package calibration

import (
	"fmt"

	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/market"
	"github.com/meenmo/curvecal/provider"
)

// RatesProviderGenerator turns a flat group parameter vector into a provider
// holding the group's curves on top of the known data.
type RatesProviderGenerator struct {
	known     *provider.RatesProvider
	templates []*curve.InterpolatedNodalCurve
	entries   []CurveGroupEntry
	order     []curve.ParameterSize
}

// NewRatesProviderGenerator prepares curve templates for the group.
func NewRatesProviderGenerator(known *provider.RatesProvider, group CurveGroupDefinition) (*RatesProviderGenerator, error) {
	g := &RatesProviderGenerator{known: known, order: group.Order()}
	for _, def := range group.Curves {
		tmpl, err := def.Template(known.ValuationDate())
		if err != nil {
			return nil, fmt.Errorf("NewRatesProviderGenerator: %w", err)
		}
		e, _ := group.entry(def.Name)
		g.templates = append(g.templates, tmpl)
		g.entries = append(g.entries, e)
	}
	return g, nil
}

// Order is the parameter layout of the vectors Generate accepts.
func (g *RatesProviderGenerator) Order() []curve.ParameterSize {
	return append([]curve.ParameterSize(nil), g.order...)
}

// Generate builds the provider for params.
func (g *RatesProviderGenerator) Generate(params []float64) (*provider.RatesProvider, error) {
	return g.GenerateWithJacobians(params, nil, nil)
}

// GenerateWithJacobians also attaches calibration Jacobians and PV
// sensitivities to the curves' metadata.
func (g *RatesProviderGenerator) GenerateWithJacobians(params []float64, jacobians map[curve.Name]*curve.JacobianCalibrationMatrix, sensToQuote map[curve.Name][]float64) (*provider.RatesProvider, error) {
	total := curve.NewParameterLayout(g.order).Total()
	if len(params) != total {
		return nil, fmt.Errorf("Generate: %d parameters for %d nodes: %w", len(params), total, curve.ErrParameterCount)
	}
	discount := map[market.Currency]curve.Curve{}
	forward := map[string]curve.Curve{}
	offset := 0
	for i, tmpl := range g.templates {
		n := tmpl.ParameterCount()
		c, err := tmpl.WithParameters(params[offset : offset+n])
		if err != nil {
			return nil, fmt.Errorf("Generate: %w", err)
		}
		offset += n
		if jac, ok := jacobians[c.Name()]; ok {
			md := c.Metadata()
			md.Jacobian = jac
			if s, ok := sensToQuote[c.Name()]; ok {
				md.PVSensitivityToQuote = append([]float64(nil), s...)
			}
			c = c.WithMetadata(md)
		}
		for _, ccy := range g.entries[i].DiscountCurrencies {
			discount[ccy] = c
		}
		for _, idx := range g.entries[i].Indices {
			forward[idx.Name()] = c
		}
	}
	return g.known.WithCurves(discount, forward), nil
}
