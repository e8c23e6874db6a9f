// Package request decodes calibration requests and turns them into curve
// group definitions, market data and known data.
package request

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meenmo/curvecal/calibration"
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/market"
	"github.com/meenmo/curvecal/marketdata"
	"github.com/meenmo/curvecal/node"
	"github.com/meenmo/curvecal/provider"
	"github.com/meenmo/curvecal/utils"
)

// Request is the calibration input. Rates are decimals (0.042 is 4.2%).
type Request struct {
	ValuationDate string                        `json:"valuation_date" yaml:"valuation_date"`
	Quotes        map[string]float64            `json:"quotes" yaml:"quotes"`
	Fixings       map[string]map[string]float64 `json:"fixings" yaml:"fixings"`
	FxRates       []FxRate                      `json:"fx_rates" yaml:"fx_rates"`
	Groups        []Group                       `json:"groups" yaml:"groups"`
	Trades        []Trade                       `json:"trades" yaml:"trades"`
}

type FxRate struct {
	Base  string  `json:"base" yaml:"base"`
	Quote string  `json:"quote" yaml:"quote"`
	Rate  float64 `json:"rate" yaml:"rate"`
}

type Group struct {
	Name            string  `json:"name" yaml:"name"`
	Curves          []Curve `json:"curves" yaml:"curves"`
	ComputeJacobian *bool   `json:"compute_jacobian" yaml:"compute_jacobian"`
	PVSensitivity   bool    `json:"pv_sensitivity_to_quote" yaml:"pv_sensitivity_to_quote"`
}

type Curve struct {
	Name               string   `json:"name" yaml:"name"`
	ValueType          string   `json:"value_type" yaml:"value_type"`
	DayCount           string   `json:"day_count" yaml:"day_count"`
	Interpolator       string   `json:"interpolator" yaml:"interpolator"`
	ExtrapolatorLeft   string   `json:"extrapolator_left" yaml:"extrapolator_left"`
	ExtrapolatorRight  string   `json:"extrapolator_right" yaml:"extrapolator_right"`
	DiscountCurrencies []string `json:"discount" yaml:"discount"`
	Indices            []string `json:"indices" yaml:"indices"`
	Nodes              []Node   `json:"nodes" yaml:"nodes"`
}

// Node kinds.
const (
	KindTermDeposit        = "term-deposit"
	KindIborFixingDeposit  = "ibor-fixing-deposit"
	KindFra                = "fra"
	KindFixedIborSwap      = "fixed-ibor-swap"
	KindFixedOvernightSwap = "fixed-overnight-swap"
)

type Node struct {
	Kind string `json:"kind" yaml:"kind"`
	// Convention names a deposit or swap convention, or an index for
	// fixing deposits and FRAs.
	Convention    string  `json:"convention" yaml:"convention"`
	Tenor         string  `json:"tenor" yaml:"tenor"`
	PeriodToStart string  `json:"period_to_start" yaml:"period_to_start"`
	Quote         string  `json:"quote" yaml:"quote"`
	Field         string  `json:"field" yaml:"field"`
	Spread        float64 `json:"spread" yaml:"spread"`
	Label         string  `json:"label" yaml:"label"`
}

// Decode parses JSON or YAML.
func Decode(data []byte) (Request, error) {
	var r Request
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Request{}, fmt.Errorf("Decode: %w", err)
	}
	return r, nil
}

// Date parses the valuation date.
func (r Request) Date() (time.Time, error) {
	d, err := utils.ParseDate(strings.TrimSpace(r.ValuationDate))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid valuation_date: %w", err)
	}
	return d, nil
}

// MarketData builds the quote snapshot; base may be nil or hold stored quotes
// that the request overrides.
func (r Request) MarketData(valuationDate time.Time, base *marketdata.ImmutableMarketData) *marketdata.ImmutableMarketData {
	md := base
	if md == nil {
		md = marketdata.NewImmutableMarketData(valuationDate, nil)
	}
	for name, v := range r.Quotes {
		md = md.WithValue(marketdata.NewQuoteID(name), v)
	}
	return md
}

// KnownData builds the starting provider with fixings and FX rates.
func (r Request) KnownData(valuationDate time.Time, stored map[string]marketdata.TimeSeries) (*provider.RatesProvider, error) {
	fixings := map[string]marketdata.TimeSeries{}
	for k, v := range stored {
		fixings[k] = v
	}
	for index, points := range r.Fixings {
		ts, err := marketdata.NewTimeSeriesFromStrings(points)
		if err != nil {
			return nil, fmt.Errorf("fixings %s: %w", index, err)
		}
		fixings[index] = ts
	}
	fx := marketdata.NewFxMatrix()
	for _, f := range r.FxRates {
		fx = fx.With(f.Base, f.Quote, f.Rate)
	}
	return provider.New(provider.Params{ValuationDate: valuationDate, Fx: fx, Fixings: fixings}), nil
}

// ForwardIndices lists every index name projected by a requested curve.
func (r Request) ForwardIndices() []string {
	seen := map[string]bool{}
	var out []string
	for _, g := range r.Groups {
		for _, c := range g.Curves {
			for _, idx := range c.Indices {
				if !seen[idx] {
					seen[idx] = true
					out = append(out, idx)
				}
			}
		}
	}
	return out
}

// CurveGroups builds validated group definitions.
func (r Request) CurveGroups() ([]calibration.CurveGroupDefinition, error) {
	out := make([]calibration.CurveGroupDefinition, 0, len(r.Groups))
	for _, g := range r.Groups {
		var entries []calibration.CurveGroupEntry
		var defs []calibration.CurveDefinition
		for _, c := range g.Curves {
			def, entry, err := buildCurve(c)
			if err != nil {
				return nil, fmt.Errorf("group %q: %w", g.Name, err)
			}
			defs = append(defs, def)
			entries = append(entries, entry)
		}
		opts := []calibration.GroupOption{calibration.WithPVSensitivityToMarketQuote(g.PVSensitivity)}
		if g.ComputeJacobian != nil {
			opts = append(opts, calibration.WithJacobian(*g.ComputeJacobian))
		}
		def, err := calibration.NewCurveGroupDefinition(g.Name, entries, defs, opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	return out, nil
}

func buildCurve(c Curve) (calibration.CurveDefinition, calibration.CurveGroupEntry, error) {
	var def calibration.CurveDefinition
	var entry calibration.CurveGroupEntry

	vt, err := curve.ParseValueType(orDefault(c.ValueType, string(curve.ZeroRate)))
	if err != nil {
		return def, entry, fmt.Errorf("curve %s: %w", c.Name, err)
	}
	dc, err := utils.ParseDayCount(orDefault(c.DayCount, string(utils.Act365F)))
	if err != nil {
		return def, entry, fmt.Errorf("curve %s: %w", c.Name, err)
	}
	interp, err := curve.InterpolatorByName(orDefault(c.Interpolator, curve.Linear.Name()))
	if err != nil {
		return def, entry, fmt.Errorf("curve %s: %w", c.Name, err)
	}
	left, err := curve.ExtrapolatorByName(orDefault(c.ExtrapolatorLeft, curve.Flat.Name()))
	if err != nil {
		return def, entry, fmt.Errorf("curve %s: %w", c.Name, err)
	}
	right, err := curve.ExtrapolatorByName(orDefault(c.ExtrapolatorRight, curve.Flat.Name()))
	if err != nil {
		return def, entry, fmt.Errorf("curve %s: %w", c.Name, err)
	}

	nodes := make([]node.CurveNode, 0, len(c.Nodes))
	for i, n := range c.Nodes {
		cn, err := BuildNode(n)
		if err != nil {
			return def, entry, fmt.Errorf("curve %s node %d: %w", c.Name, i, err)
		}
		nodes = append(nodes, cn)
	}

	entry.CurveName = curve.Name(c.Name)
	for _, ccy := range c.DiscountCurrencies {
		entry.DiscountCurrencies = append(entry.DiscountCurrencies, market.Currency(strings.ToUpper(ccy)))
	}
	for _, name := range c.Indices {
		idx, err := market.IndexByName(name)
		if err != nil {
			return def, entry, fmt.Errorf("curve %s: %w", c.Name, err)
		}
		entry.Indices = append(entry.Indices, idx)
	}
	def = calibration.CurveDefinition{
		Name:              curve.Name(c.Name),
		ValueType:         vt,
		DayCount:          dc,
		Interpolator:      interp,
		ExtrapolatorLeft:  left,
		ExtrapolatorRight: right,
		Nodes:             nodes,
	}
	return def, entry, nil
}

// BuildNode resolves conventions and tenors of one node.
func BuildNode(n Node) (node.CurveNode, error) {
	id := marketdata.QuoteID{Name: n.Quote, Field: marketdata.FieldName(orDefault(n.Field, string(marketdata.MarketValue)))}
	if n.Quote == "" {
		return nil, fmt.Errorf("BuildNode: %s: quote is required", n.Kind)
	}
	var periodToStart utils.Tenor
	if n.PeriodToStart != "" {
		t, err := utils.ParseTenor(n.PeriodToStart)
		if err != nil {
			return nil, fmt.Errorf("BuildNode: %w", err)
		}
		periodToStart = t
	}

	switch n.Kind {
	case KindTermDeposit:
		conv, err := market.TermDepositConventionByName(n.Convention)
		if err != nil {
			return nil, fmt.Errorf("BuildNode: %w", err)
		}
		tenor, err := utils.ParseTenor(n.Tenor)
		if err != nil {
			return nil, fmt.Errorf("BuildNode: %w", err)
		}
		return node.NewTermDepositNode(node.TermDepositTemplate{Convention: conv, Tenor: tenor}, id, n.Spread, n.Label), nil
	case KindIborFixingDeposit:
		idx, err := iborIndex(n.Convention)
		if err != nil {
			return nil, err
		}
		return node.NewIborFixingDepositNode(node.IborFixingDepositTemplate{Index: idx}, id, n.Spread, n.Label), nil
	case KindFra:
		idx, err := iborIndex(n.Convention)
		if err != nil {
			return nil, err
		}
		return node.NewFraNode(node.FraTemplate{Index: idx, PeriodToStart: periodToStart}, id, n.Spread, n.Label), nil
	case KindFixedIborSwap:
		conv, err := market.FixedIborSwapConventionByName(n.Convention)
		if err != nil {
			return nil, fmt.Errorf("BuildNode: %w", err)
		}
		tenor, err := utils.ParseTenor(n.Tenor)
		if err != nil {
			return nil, fmt.Errorf("BuildNode: %w", err)
		}
		tmpl := node.FixedIborSwapTemplate{Convention: conv, PeriodToStart: periodToStart, Tenor: tenor}
		return node.NewFixedIborSwapNode(tmpl, id, n.Spread, n.Label), nil
	case KindFixedOvernightSwap:
		conv, err := market.FixedOvernightSwapConventionByName(n.Convention)
		if err != nil {
			return nil, fmt.Errorf("BuildNode: %w", err)
		}
		tenor, err := utils.ParseTenor(n.Tenor)
		if err != nil {
			return nil, fmt.Errorf("BuildNode: %w", err)
		}
		tmpl := node.FixedOvernightSwapTemplate{Convention: conv, PeriodToStart: periodToStart, Tenor: tenor}
		return node.NewFixedOvernightSwapNode(tmpl, id, n.Spread, n.Label), nil
	default:
		return nil, fmt.Errorf("BuildNode: unknown node kind %q", n.Kind)
	}
}

func iborIndex(name string) (market.IborIndex, error) {
	idx, err := market.IndexByName(name)
	if err != nil {
		return market.IborIndex{}, fmt.Errorf("BuildNode: %w", err)
	}
	ibor, ok := idx.(market.IborIndex)
	if !ok {
		return market.IborIndex{}, fmt.Errorf("BuildNode: %s is not an IBOR index", name)
	}
	return ibor, nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}
