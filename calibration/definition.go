package calibration

import (
	"fmt"
	"time"

	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/market"
	"github.com/meenmo/curvecal/node"
	"github.com/meenmo/curvecal/utils"
)

// CurveDefinition describes one interpolated curve and the nodes calibrating it.
type CurveDefinition struct {
	Name              curve.Name
	ValueType         curve.ValueType
	DayCount          utils.DayCount
	Interpolator      curve.Interpolator
	ExtrapolatorLeft  curve.Extrapolator
	ExtrapolatorRight curve.Extrapolator
	Nodes             []node.CurveNode
}

// ParameterCount is one parameter per node.
func (d CurveDefinition) ParameterCount() int { return len(d.Nodes) }

// ParameterSize names the curve with its parameter count.
func (d CurveDefinition) ParameterSize() curve.ParameterSize {
	return curve.ParameterSize{Name: d.Name, ParameterCount: len(d.Nodes)}
}

// Template builds the curve at the node dates with zero parameters.
func (d CurveDefinition) Template(valuationDate time.Time) (*curve.InterpolatedNodalCurve, error) {
	if err := node.CheckDateOrder(valuationDate, d.Nodes); err != nil {
		return nil, fmt.Errorf("Template: %s: %w", d.Name, err)
	}
	xs := make([]float64, len(d.Nodes))
	params := make([]curve.ParameterMetadata, len(d.Nodes))
	for i, n := range d.Nodes {
		xs[i] = d.DayCount.YearFraction(valuationDate, n.Date(valuationDate))
		params[i] = n.Metadata(valuationDate)
	}
	md := curve.Metadata{
		Name:       d.Name,
		ValueType:  d.ValueType,
		DayCount:   d.DayCount,
		Parameters: params,
	}
	c, err := curve.NewInterpolatedNodalCurve(md, xs, make([]float64, len(xs)), d.Interpolator, d.ExtrapolatorLeft, d.ExtrapolatorRight)
	if err != nil {
		return nil, fmt.Errorf("Template: %w", err)
	}
	return c, nil
}

// CurveGroupEntry says which currencies a curve discounts and which indices it projects.
type CurveGroupEntry struct {
	CurveName          curve.Name
	DiscountCurrencies []market.Currency
	Indices            []market.Index
}

// CurveGroupDefinition is a set of curves solved simultaneously.
type CurveGroupDefinition struct {
	Name                              string
	Entries                           []CurveGroupEntry
	Curves                            []CurveDefinition
	ComputeJacobian                   bool
	ComputePVSensitivityToMarketQuote bool
}

// GroupOption tweaks a CurveGroupDefinition.
type GroupOption func(*CurveGroupDefinition)

// WithJacobian toggles Jacobian computation; it is on by default.
func WithJacobian(on bool) GroupOption {
	return func(g *CurveGroupDefinition) { g.ComputeJacobian = on }
}

// WithPVSensitivityToMarketQuote toggles the per-node PV-to-quote sensitivity.
func WithPVSensitivityToMarketQuote(on bool) GroupOption {
	return func(g *CurveGroupDefinition) { g.ComputePVSensitivityToMarketQuote = on }
}

// NewCurveGroupDefinition validates and builds a group.
func NewCurveGroupDefinition(name string, entries []CurveGroupEntry, curves []CurveDefinition, opts ...GroupOption) (CurveGroupDefinition, error) {
	g := CurveGroupDefinition{
		Name:            name,
		Entries:         append([]CurveGroupEntry(nil), entries...),
		Curves:          append([]CurveDefinition(nil), curves...),
		ComputeJacobian: true,
	}
	for _, opt := range opts {
		opt(&g)
	}
	if err := g.Validate(); err != nil {
		return CurveGroupDefinition{}, err
	}
	return g, nil
}

// Validate checks that curves and entries match one to one.
func (g CurveGroupDefinition) Validate() error {
	defs := make(map[curve.Name]bool, len(g.Curves))
	for _, c := range g.Curves {
		if c.Name == "" {
			return fmt.Errorf("Validate: group %q: curve without name: %w", g.Name, ErrInvalidDefinition)
		}
		if defs[c.Name] {
			return fmt.Errorf("Validate: group %q: duplicate curve %s: %w", g.Name, c.Name, ErrInvalidDefinition)
		}
		if len(c.Nodes) == 0 {
			return fmt.Errorf("Validate: group %q: curve %s has no nodes: %w", g.Name, c.Name, ErrInvalidDefinition)
		}
		defs[c.Name] = true
	}
	used := make(map[curve.Name]bool, len(g.Entries))
	for _, e := range g.Entries {
		if !defs[e.CurveName] {
			return fmt.Errorf("Validate: group %q: entry %s has no curve definition: %w", g.Name, e.CurveName, ErrInvalidDefinition)
		}
		if used[e.CurveName] {
			return fmt.Errorf("Validate: group %q: duplicate entry %s: %w", g.Name, e.CurveName, ErrInvalidDefinition)
		}
		if len(e.DiscountCurrencies) == 0 && len(e.Indices) == 0 {
			return fmt.Errorf("Validate: group %q: entry %s neither discounts nor projects: %w", g.Name, e.CurveName, ErrInvalidDefinition)
		}
		used[e.CurveName] = true
	}
	for name := range defs {
		if !used[name] {
			return fmt.Errorf("Validate: group %q: curve %s is in no entry: %w", g.Name, name, ErrInvalidDefinition)
		}
	}
	if g.ComputePVSensitivityToMarketQuote && !g.ComputeJacobian {
		return fmt.Errorf("Validate: group %q: PV sensitivity to market quotes needs the jacobian: %w", g.Name, ErrInvalidDefinition)
	}
	return nil
}

// ParameterCount is the total number of parameters in the group.
func (g CurveGroupDefinition) ParameterCount() int {
	n := 0
	for _, c := range g.Curves {
		n += c.ParameterCount()
	}
	return n
}

// Order lists the group's curves in definition order.
func (g CurveGroupDefinition) Order() []curve.ParameterSize {
	out := make([]curve.ParameterSize, len(g.Curves))
	for i, c := range g.Curves {
		out[i] = c.ParameterSize()
	}
	return out
}

func (g CurveGroupDefinition) entry(name curve.Name) (CurveGroupEntry, bool) {
	for _, e := range g.Entries {
		if e.CurveName == name {
			return e, true
		}
	}
	return CurveGroupEntry{}, false
}
