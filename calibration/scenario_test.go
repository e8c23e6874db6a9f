package calibration_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvecal/calibration"
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/market"
	"github.com/meenmo/curvecal/marketdata"
	"github.com/meenmo/curvecal/node"
	"github.com/meenmo/curvecal/provider"
	"github.com/meenmo/curvecal/utils"
)

// USDScenarioSuite calibrates the 9-node USD LIBOR 3M curve once and checks
// the calibrated curve from several angles.
type USDScenarioSuite struct {
	suite.Suite
	md   marketdata.MarketData
	p    *provider.RatesProvider
	jacs map[curve.Name]*curve.JacobianCalibrationMatrix
}

func (s *USDScenarioSuite) SetupSuite() {
	s.md = libor3MQuotes().add(emptyMarket())
	c, err := calibration.NewCurveCalibrator(tightConfig(calibration.ParSpreadMeasures{}))
	require.NoError(s.T(), err)
	s.p, s.jacs, err = c.Calibrate([]calibration.CurveGroupDefinition{singleCurveGroup(s.T(), curve.ZeroRate)}, provider.Empty(valDate), s.md)
	require.NoError(s.T(), err)
}

// TestRepricesEveryNode: PV and par spread vanish for all nine trades.
func (s *USDScenarioSuite) TestRepricesEveryNode() {
	assertReprices(s.T(), libor3MNodes(), s.md, s.p)
}

// TestJacobianInvertsDerivatives: J·D is the identity at the solution.
func (s *USDScenarioSuite) TestJacobianInvertsDerivatives() {
	gen, err := calibration.NewRatesProviderGenerator(provider.Empty(valDate), singleCurveGroup(s.T(), curve.ZeroRate))
	require.NoError(s.T(), err)
	p, err := gen.Generate(params(s.T(), s.p, usdCurve))
	require.NoError(s.T(), err)

	d := mat.NewDense(9, 9, nil)
	for i, n := range libor3MNodes() {
		tr, err := n.Trade(valDate, s.md)
		require.NoError(s.T(), err)
		row, err := calibration.ParSpreadMeasures{}.Derivative(tr, p, gen.Order())
		require.NoError(s.T(), err)
		d.SetRow(i, row)
	}
	var prod mat.Dense
	prod.Mul(s.jacs[usdCurve].Matrix, d)
	id := mat.NewDiagDense(9, []float64{1, 1, 1, 1, 1, 1, 1, 1, 1})
	require.True(s.T(), mat.EqualApprox(&prod, id, 1e-9))
}

// TestDiscountFactorsDecrease: positive rates give decreasing discount factors.
func (s *USDScenarioSuite) TestDiscountFactorsDecrease() {
	prev := 1.0
	for _, n := range libor3MNodes() {
		df, err := s.p.DiscountFactor(market.USD, n.Date(valDate))
		require.NoError(s.T(), err)
		require.Less(s.T(), df, prev, n.Label())
		prev = df
	}
}

// TestLaterGroupLeavesEarlierUnchanged: bumping a forward quote moves only the forward curve.
func (s *USDScenarioSuite) TestLaterGroupLeavesEarlierUnchanged() {
	groups := []calibration.CurveGroupDefinition{oisGroup(s.T()), forwardGroup(s.T())}
	cfg := tightConfig(calibration.ParSpreadMeasures{})
	base, _ := run(s.T(), cfg, groups, forwardQuotes().add(oisQuotes().add(emptyMarket())))
	bumped, _ := run(s.T(), cfg, groups, forwardQuotes().bumped(3, 0.0010).add(oisQuotes().add(emptyMarket())))

	require.Equal(s.T(), params(s.T(), base, oisCurve), params(s.T(), bumped, oisCurve))
	require.NotEqual(s.T(), params(s.T(), base, usdCurve), params(s.T(), bumped, usdCurve))
}

// TestSingleNodeGroup: a same-day deposit priced by PV on a discount factor
// node is linear in that node, so one Newton step solves it.
func (s *USDScenarioSuite) TestSingleNodeGroup() {
	core, logs := observer.New(zapcore.InfoLevel)
	cfg := calibration.Config{AbsoluteTolerance: 1e-12, RelativeTolerance: 1e-6, MaxSteps: 100, Measures: calibration.PresentValueMeasures{}}
	c, err := calibration.NewCurveCalibrator(cfg, calibration.WithLogger(zap.New(core)))
	require.NoError(s.T(), err)

	conv := market.USDDepositT2
	conv.Name, conv.SpotLagDays = "USD-DEPOSIT-T0", 0
	dep := node.NewTermDepositNode(node.TermDepositTemplate{Convention: conv, Tenor: utils.TenorOfMonths(6)}, marketdata.NewQuoteID("D6M"), 0, "")
	g, err := calibration.NewCurveGroupDefinition("USD-DEP",
		[]calibration.CurveGroupEntry{{CurveName: "USD-DEP", DiscountCurrencies: []market.Currency{market.USD}}},
		[]calibration.CurveDefinition{curveDef("USD-DEP", curve.DiscountFactor, []node.CurveNode{dep})},
	)
	require.NoError(s.T(), err)
	md := marketdata.NewImmutableMarketData(valDate, map[marketdata.QuoteID]float64{marketdata.NewQuoteID("D6M"): 0.05})

	p, jacs, err := c.Calibrate([]calibration.CurveGroupDefinition{g}, provider.Empty(valDate), md)
	require.NoError(s.T(), err)
	assertReprices(s.T(), []node.CurveNode{dep}, md, p)
	require.Equal(s.T(), []curve.ParameterSize{{Name: "USD-DEP", ParameterCount: 1}}, jacs["USD-DEP"].Order)

	done := logs.FilterMessage("group calibrated").All()
	require.Len(s.T(), done, 1)
	require.Equal(s.T(), int64(1), done[0].ContextMap()["steps"])
}

func TestUSDScenarioSuite(t *testing.T) {
	suite.Run(t, new(USDScenarioSuite))
}
