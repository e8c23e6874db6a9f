// Package calibration solves groups of interest rate curves to market quotes
// and propagates the calibration Jacobians from one group to the next.
package calibration

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/marketdata"
	"github.com/meenmo/curvecal/node"
	"github.com/meenmo/curvecal/product"
	"github.com/meenmo/curvecal/provider"
	"github.com/meenmo/curvecal/rootfind"
	"github.com/meenmo/curvecal/utils"
)

// Config holds the solver settings and the measures used as residuals.
type Config struct {
	AbsoluteTolerance float64
	RelativeTolerance float64
	MaxSteps          int
	Measures          Measures
}

// DefaultConfig uses 1e-9 tolerances, 1000 steps and par spreads.
func DefaultConfig() Config {
	tol := rootfind.DefaultTolerances()
	return Config{
		AbsoluteTolerance: tol.Absolute,
		RelativeTolerance: tol.Relative,
		MaxSteps:          tol.MaxSteps,
		Measures:          ParSpreadMeasures{},
	}
}

// CurveCalibrator calibrates curve groups in order.
type CurveCalibrator struct {
	cfg    Config
	finder *rootfind.BroydenVectorRootFinder
	logger *zap.Logger
}

// Option configures a CurveCalibrator.
type Option func(*CurveCalibrator)

// WithLogger sets the logger; the root finder logs under "rootfind".
func WithLogger(l *zap.Logger) Option {
	return func(c *CurveCalibrator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCurveCalibrator validates cfg.
func NewCurveCalibrator(cfg Config, opts ...Option) (*CurveCalibrator, error) {
	if cfg.AbsoluteTolerance <= 0 || cfg.RelativeTolerance <= 0 {
		return nil, errors.New("NewCurveCalibrator: tolerances must be positive")
	}
	if cfg.MaxSteps <= 0 {
		return nil, errors.New("NewCurveCalibrator: max steps must be positive")
	}
	if cfg.Measures == nil {
		cfg.Measures = ParSpreadMeasures{}
	}
	c := &CurveCalibrator{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("calibration")
	c.finder = rootfind.NewBroydenVectorRootFinder(
		rootfind.Tolerances{Absolute: cfg.AbsoluteTolerance, Relative: cfg.RelativeTolerance, MaxSteps: cfg.MaxSteps},
		rootfind.WithLogger(c.logger.Named("rootfind")),
	)
	return c, nil
}

// Measures returns the configured measures.
func (c *CurveCalibrator) Measures() Measures { return c.cfg.Measures }

// Calibrate solves every group in order on top of knownData. The returned
// provider holds the known data plus all calibrated curves, each carrying its
// Jacobian when the group asked for one. Any failure aborts the whole run.
func (c *CurveCalibrator) Calibrate(
	groups []CurveGroupDefinition,
	knownData *provider.RatesProvider,
	md marketdata.MarketData,
) (*provider.RatesProvider, map[curve.Name]*curve.JacobianCalibrationMatrix, error) {
	if !knownData.ValuationDate().Equal(md.ValuationDate()) {
		return nil, nil, fmt.Errorf("Calibrate: known data %s, market data %s: %w",
			knownData.ValuationDate().Format(utils.DateLayout), md.ValuationDate().Format(utils.DateLayout), ErrValuationDateMismatch)
	}
	if err := checkDistinctCurves(groups); err != nil {
		return nil, nil, err
	}

	inputs, err := c.prepare(groups, knownData, md)
	if err != nil {
		return nil, nil, err
	}

	current := knownData
	jacobians := map[curve.Name]*curve.JacobianCalibrationMatrix{}
	var orderPrev []curve.ParameterSize

	for i, group := range groups {
		if len(group.Curves) == 0 {
			continue
		}
		next, groupJacobians, err := c.calibrateGroup(group, inputs[i], current, orderPrev, jacobians)
		if err != nil {
			return nil, nil, fmt.Errorf("Calibrate: group %q: %w", group.Name, err)
		}
		current = next
		for name, j := range groupJacobians {
			jacobians[name] = j
		}
		if group.ComputeJacobian {
			orderPrev = append(orderPrev, group.Order()...)
		}
	}
	return current, jacobians, nil
}

// groupInputs holds the trades and initial guesses of one group in curve then
// node order.
type groupInputs struct {
	trades  []product.Trade
	guesses []float64
}

// prepare checks every group before any of them is solved: definitions,
// quotes, node date order, and a pricing pass of each group's trades at the
// initial guesses on top of the earlier groups' initial curves. A quote,
// fixing or curve the run cannot supply fails here.
func (c *CurveCalibrator) prepare(
	groups []CurveGroupDefinition,
	knownData *provider.RatesProvider,
	md marketdata.MarketData,
) ([]groupInputs, error) {
	valDate := knownData.ValuationDate()
	out := make([]groupInputs, len(groups))
	current := knownData
	for i, group := range groups {
		if len(group.Curves) == 0 {
			continue
		}
		if err := group.Validate(); err != nil {
			return nil, fmt.Errorf("Calibrate: %w", err)
		}
		for _, def := range group.Curves {
			if err := checkRequirements(def, md); err != nil {
				return nil, fmt.Errorf("Calibrate: group %q: %w", group.Name, err)
			}
			if err := node.CheckDateOrder(valDate, def.Nodes); err != nil {
				return nil, fmt.Errorf("Calibrate: group %q: curve %s: %w", group.Name, def.Name, err)
			}
		}
		trades, guesses, err := groupTrades(group, valDate, md)
		if err != nil {
			return nil, fmt.Errorf("Calibrate: group %q: %w", group.Name, err)
		}
		gen, err := NewRatesProviderGenerator(current, group)
		if err != nil {
			return nil, fmt.Errorf("Calibrate: group %q: %w", group.Name, err)
		}
		p, err := gen.Generate(guesses)
		if err != nil {
			return nil, fmt.Errorf("Calibrate: group %q: %w", group.Name, err)
		}
		for _, t := range trades {
			if _, err := c.cfg.Measures.Value(t, p); err != nil {
				return nil, fmt.Errorf("Calibrate: group %q: %s: %w", group.Name, t.Description(), err)
			}
		}
		out[i] = groupInputs{trades: trades, guesses: guesses}
		current = p
	}
	return out, nil
}

// checkRequirements looks up every quote the curve's nodes need.
func checkRequirements(def CurveDefinition, md marketdata.MarketData) error {
	for _, n := range def.Nodes {
		for _, id := range n.Requirements() {
			if _, err := md.Value(id); err != nil {
				return fmt.Errorf("curve %s node %s: %w", def.Name, n.Label(), err)
			}
		}
	}
	return nil
}

func (c *CurveCalibrator) calibrateGroup(
	group CurveGroupDefinition,
	in groupInputs,
	current *provider.RatesProvider,
	orderPrev []curve.ParameterSize,
	jacobians map[curve.Name]*curve.JacobianCalibrationMatrix,
) (*provider.RatesProvider, map[curve.Name]*curve.JacobianCalibrationMatrix, error) {
	trades, guesses := in.trades, in.guesses
	gen, err := NewRatesProviderGenerator(current, group)
	if err != nil {
		return nil, nil, err
	}
	log := c.logger.With(zap.String("group", group.Name), zap.Int("parameters", len(guesses)))
	log.Info("calibrating group")

	res, err := c.finder.Solve(
		residualFunction(trades, c.cfg.Measures, gen),
		derivativeFunction(trades, c.cfg.Measures, gen),
		guesses,
	)
	if err != nil {
		log.Error("root finding failed", zap.Error(err))
		return nil, nil, err
	}
	log.Info("group calibrated",
		zap.Int("steps", res.Steps),
		zap.Int("jacobianEvaluations", res.JacobianEvaluations),
		zap.Float64("residual", res.ResidualNorm),
	)

	if !group.ComputeJacobian {
		p, err := gen.Generate(res.X)
		return p, nil, err
	}

	groupProvider, err := gen.Generate(res.X)
	if err != nil {
		return nil, nil, err
	}
	orderGroup := gen.Order()
	orderAll := append(append([]curve.ParameterSize(nil), orderPrev...), orderGroup...)
	derivatives := mat.NewDense(len(trades), curve.NewParameterLayout(orderAll).Total(), nil)
	for i, t := range trades {
		row, err := c.cfg.Measures.Derivative(t, groupProvider, orderAll)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", t.Description(), err)
		}
		derivatives.SetRow(i, row)
	}
	groupJacobians, err := ComposeJacobians(derivatives, orderGroup, orderPrev, jacobians)
	if err != nil {
		return nil, nil, err
	}

	combined, err := gen.GenerateWithJacobians(res.X, groupJacobians, nil)
	if err != nil {
		return nil, nil, err
	}
	if group.ComputePVSensitivityToMarketQuote {
		sens, err := pvSensitivityToMarketQuote(trades, orderGroup, combined)
		if err != nil {
			return nil, nil, err
		}
		if combined, err = gen.GenerateWithJacobians(res.X, groupJacobians, sens); err != nil {
			return nil, nil, err
		}
	}
	return combined, groupJacobians, nil
}

// groupTrades flattens trades and initial guesses in curve then node order.
func groupTrades(group CurveGroupDefinition, valDate time.Time, md marketdata.MarketData) ([]product.Trade, []float64, error) {
	var trades []product.Trade
	var guesses []float64
	for _, def := range group.Curves {
		for _, n := range def.Nodes {
			t, err := n.Trade(valDate, md)
			if err != nil {
				return nil, nil, fmt.Errorf("curve %s: %w", def.Name, err)
			}
			g, err := n.InitialGuess(valDate, md, def.ValueType)
			if err != nil {
				return nil, nil, fmt.Errorf("curve %s: %w", def.Name, err)
			}
			trades = append(trades, t)
			guesses = append(guesses, g)
		}
	}
	return trades, guesses, nil
}

// pvSensitivityToMarketQuote is d(PV of trade i)/d(quote i) for every node.
func pvSensitivityToMarketQuote(trades []product.Trade, orderGroup []curve.ParameterSize, p *provider.RatesProvider) (map[curve.Name][]float64, error) {
	out := make(map[curve.Name][]float64, len(orderGroup))
	i := 0
	for _, ps := range orderGroup {
		values := make([]float64, ps.ParameterCount)
		for k := range values {
			pvSens, err := trades[i].PresentValueSensitivity(p)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", trades[i].Description(), err)
			}
			// Known curves without a Jacobian are not driven by any quote.
			for name := range pvSens {
				if c, err := p.Curve(name); err != nil || c.Metadata().Jacobian == nil {
					delete(pvSens, name)
				}
			}
			mqs, err := MarketQuoteSensitivity(pvSens, p)
			if err != nil {
				return nil, err
			}
			if s, ok := mqs[ps.Name]; ok {
				values[k] = s[k]
			}
			i++
		}
		out[ps.Name] = values
	}
	return out, nil
}

func checkDistinctCurves(groups []CurveGroupDefinition) error {
	seen := map[curve.Name]string{}
	for _, g := range groups {
		for _, def := range g.Curves {
			if other, ok := seen[def.Name]; ok {
				return fmt.Errorf("Calibrate: curve %s in groups %q and %q: %w", def.Name, other, g.Name, ErrInvalidDefinition)
			}
			seen[def.Name] = g.Name
		}
	}
	return nil
}
