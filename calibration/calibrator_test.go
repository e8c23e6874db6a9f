package calibration_test

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/meenmo/curvecal/calibration"
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/market"
	"github.com/meenmo/curvecal/marketdata"
	"github.com/meenmo/curvecal/node"
	"github.com/meenmo/curvecal/provider"
	"github.com/meenmo/curvecal/utils"
)

var valDate = utils.Date(2024, 7, 16)

const (
	usdCurve curve.Name = "USD-LIBOR-3M"
	oisCurve curve.Name = "USD-OIS"
)

// quoteSet pairs quote names with values in node order.
type quoteSet struct {
	names  []string
	values []float64
}

func (q quoteSet) add(md *marketdata.ImmutableMarketData) *marketdata.ImmutableMarketData {
	for i, n := range q.names {
		md = md.WithValue(marketdata.NewQuoteID(n), q.values[i])
	}
	return md
}

func (q quoteSet) bumped(k int, h float64) quoteSet {
	v := append([]float64(nil), q.values...)
	v[k] += h
	return quoteSet{names: q.names, values: v}
}

func libor3MQuotes() quoteSet {
	return quoteSet{
		names:  []string{"L3M", "FRA3X6", "FRA6X9", "S1Y", "S2Y", "S3Y", "S5Y", "S7Y", "S10Y"},
		values: []float64{0.0420, 0.0420, 0.0420, 0.0420, 0.0430, 0.0470, 0.0540, 0.0570, 0.0600},
	}
}

func libor3MNodes() []node.CurveNode {
	q := libor3MQuotes().names
	nodes := []node.CurveNode{
		node.NewIborFixingDepositNode(node.IborFixingDepositTemplate{Index: market.USDLibor3M}, marketdata.NewQuoteID(q[0]), 0, ""),
		node.NewFraNode(node.FraTemplate{Index: market.USDLibor3M, PeriodToStart: utils.TenorOfMonths(3)}, marketdata.NewQuoteID(q[1]), 0, ""),
		node.NewFraNode(node.FraTemplate{Index: market.USDLibor3M, PeriodToStart: utils.TenorOfMonths(6)}, marketdata.NewQuoteID(q[2]), 0, ""),
	}
	for i, y := range []int{1, 2, 3, 5, 7, 10} {
		tmpl := node.FixedIborSwapTemplate{Convention: market.USDFixed6MLibor3M, Tenor: utils.TenorOfYears(y)}
		nodes = append(nodes, node.NewFixedIborSwapNode(tmpl, marketdata.NewQuoteID(q[3+i]), 0, ""))
	}
	return nodes
}

func curveDef(name curve.Name, vt curve.ValueType, nodes []node.CurveNode) calibration.CurveDefinition {
	return calibration.CurveDefinition{
		Name:              name,
		ValueType:         vt,
		DayCount:          utils.Act365F,
		Interpolator:      curve.Linear,
		ExtrapolatorLeft:  curve.Flat,
		ExtrapolatorRight: curve.Flat,
		Nodes:             nodes,
	}
}

// singleCurveGroup discounts USD and projects LIBOR 3M off one curve.
func singleCurveGroup(t *testing.T, vt curve.ValueType, opts ...calibration.GroupOption) calibration.CurveGroupDefinition {
	t.Helper()
	g, err := calibration.NewCurveGroupDefinition("USD-SINGLE",
		[]calibration.CurveGroupEntry{{
			CurveName:          usdCurve,
			DiscountCurrencies: []market.Currency{market.USD},
			Indices:            []market.Index{market.USDLibor3M},
		}},
		[]calibration.CurveDefinition{curveDef(usdCurve, vt, libor3MNodes())},
		opts...,
	)
	require.NoError(t, err)
	return g
}

func oisQuotes() quoteSet {
	return quoteSet{
		names:  []string{"OIS1Y", "OIS2Y", "OIS3Y", "OIS5Y", "OIS10Y"},
		values: []float64{0.0500, 0.0450, 0.0420, 0.0400, 0.0390},
	}
}

func oisGroup(t *testing.T, opts ...calibration.GroupOption) calibration.CurveGroupDefinition {
	t.Helper()
	var nodes []node.CurveNode
	for i, y := range []int{1, 2, 3, 5, 10} {
		tmpl := node.FixedOvernightSwapTemplate{Convention: market.USDFixed1YSOFR, Tenor: utils.TenorOfYears(y)}
		nodes = append(nodes, node.NewFixedOvernightSwapNode(tmpl, marketdata.NewQuoteID(oisQuotes().names[i]), 0, ""))
	}
	g, err := calibration.NewCurveGroupDefinition("USD-OIS",
		[]calibration.CurveGroupEntry{{
			CurveName:          oisCurve,
			DiscountCurrencies: []market.Currency{market.USD},
			Indices:            []market.Index{market.SOFR},
		}},
		[]calibration.CurveDefinition{curveDef(oisCurve, curve.ZeroRate, nodes)},
		opts...,
	)
	require.NoError(t, err)
	return g
}

func forwardQuotes() quoteSet {
	return quoteSet{
		names:  []string{"FWD-L3M", "FWD-3X6", "FWD-S1Y", "FWD-S2Y", "FWD-S5Y", "FWD-S10Y"},
		values: []float64{0.0545, 0.0520, 0.0510, 0.0470, 0.0430, 0.0415},
	}
}

// forwardGroup projects LIBOR 3M only; swaps discount off the OIS curve.
func forwardGroup(t *testing.T) calibration.CurveGroupDefinition {
	t.Helper()
	q := forwardQuotes().names
	nodes := []node.CurveNode{
		node.NewIborFixingDepositNode(node.IborFixingDepositTemplate{Index: market.USDLibor3M}, marketdata.NewQuoteID(q[0]), 0, ""),
		node.NewFraNode(node.FraTemplate{Index: market.USDLibor3M, PeriodToStart: utils.TenorOfMonths(3)}, marketdata.NewQuoteID(q[1]), 0, ""),
	}
	for i, y := range []int{1, 2, 5, 10} {
		tmpl := node.FixedIborSwapTemplate{Convention: market.USDFixed6MLibor3M, Tenor: utils.TenorOfYears(y)}
		nodes = append(nodes, node.NewFixedIborSwapNode(tmpl, marketdata.NewQuoteID(q[2+i]), 0, ""))
	}
	g, err := calibration.NewCurveGroupDefinition("USD-LIBOR-3M",
		[]calibration.CurveGroupEntry{{CurveName: usdCurve, Indices: []market.Index{market.USDLibor3M}}},
		[]calibration.CurveDefinition{curveDef(usdCurve, curve.ZeroRate, nodes)},
	)
	require.NoError(t, err)
	return g
}

func tightConfig(m calibration.Measures) calibration.Config {
	return calibration.Config{AbsoluteTolerance: 1e-12, RelativeTolerance: 1e-12, MaxSteps: 100, Measures: m}
}

func run(t *testing.T, cfg calibration.Config, groups []calibration.CurveGroupDefinition, md marketdata.MarketData) (*provider.RatesProvider, map[curve.Name]*curve.JacobianCalibrationMatrix) {
	t.Helper()
	c, err := calibration.NewCurveCalibrator(cfg)
	require.NoError(t, err)
	p, jacs, err := c.Calibrate(groups, provider.Empty(valDate), md)
	require.NoError(t, err)
	return p, jacs
}

func emptyMarket() *marketdata.ImmutableMarketData {
	return marketdata.NewImmutableMarketData(valDate, nil)
}

func params(t *testing.T, p *provider.RatesProvider, name curve.Name) []float64 {
	t.Helper()
	c, err := p.Curve(name)
	require.NoError(t, err)
	return c.Parameters()
}

func assertReprices(t *testing.T, nodes []node.CurveNode, md marketdata.MarketData, p *provider.RatesProvider) {
	t.Helper()
	for _, n := range nodes {
		tr, err := n.Trade(valDate, md)
		require.NoError(t, err)
		pv, err := tr.PresentValue(p)
		require.NoError(t, err)
		assert.LessOrEqual(t, math.Abs(pv), 1e-6, n.Label())
		ps, err := tr.ParSpread(p)
		require.NoError(t, err)
		assert.InDelta(t, 0, ps, 1e-8, n.Label())
	}
}

func TestCalibrate_SingleCurveReprices(t *testing.T) {
	t.Parallel()

	md := libor3MQuotes().add(emptyMarket())
	p, jacs := run(t, calibration.DefaultConfig(), nil, md)
	assert.Empty(t, jacs)
	assert.Empty(t, p.Curves())

	for _, m := range []calibration.Measures{calibration.ParSpreadMeasures{}, calibration.PresentValueMeasures{}} {
		for _, vt := range []curve.ValueType{curve.ZeroRate, curve.DiscountFactor} {
			cfg := calibration.DefaultConfig()
			cfg.Measures = m
			p, jacs := run(t, cfg, []calibration.CurveGroupDefinition{singleCurveGroup(t, vt)}, md)
			assertReprices(t, libor3MNodes(), md, p)
			require.Contains(t, jacs, usdCurve)

			c, err := p.Curve(usdCurve)
			require.NoError(t, err)
			meta := c.Metadata()
			assert.Equal(t, vt, meta.ValueType)
			require.Len(t, meta.Parameters, 9)
			assert.Equal(t, "3x6", meta.Parameters[1].Label)
			assert.Equal(t, "10Y", meta.Parameters[8].Label)
			assert.Same(t, jacs[usdCurve], meta.Jacobian)
		}
	}
}

func TestCalibrate_Idempotent(t *testing.T) {
	t.Parallel()

	md := libor3MQuotes().add(emptyMarket())
	groups := []calibration.CurveGroupDefinition{singleCurveGroup(t, curve.ZeroRate)}
	p1, j1 := run(t, calibration.DefaultConfig(), groups, md)
	p2, j2 := run(t, calibration.DefaultConfig(), groups, md)
	assert.Equal(t, params(t, p1, usdCurve), params(t, p2, usdCurve))
	assert.Equal(t, j1[usdCurve].Matrix.RawMatrix().Data, j2[usdCurve].Matrix.RawMatrix().Data)
}

func TestCalibrate_ZeroRatesNearQuotes(t *testing.T) {
	t.Parallel()

	md := libor3MQuotes().add(emptyMarket())
	p, _ := run(t, calibration.DefaultConfig(), []calibration.CurveGroupDefinition{singleCurveGroup(t, curve.ZeroRate)}, md)
	for i, z := range params(t, p, usdCurve) {
		// Continuously compounded zero rates sit within 50bp of the par quotes.
		assert.InDelta(t, libor3MQuotes().values[i], z, 0.005, "node %d", i)
	}
	df, err := p.DiscountFactor(market.USD, utils.Date(2034, 7, 18))
	require.NoError(t, err)
	assert.Greater(t, df, 0.5)
	assert.Less(t, df, 0.6)
}

func TestCalibrate_JacobianMatchesRecalibration(t *testing.T) {
	t.Parallel()

	cfg := tightConfig(calibration.ParSpreadMeasures{})
	quotes := libor3MQuotes()
	group := []calibration.CurveGroupDefinition{singleCurveGroup(t, curve.ZeroRate)}
	_, jacs := run(t, cfg, group, quotes.add(emptyMarket()))
	jac := jacs[usdCurve]
	require.NotNil(t, jac)
	require.Equal(t, []curve.ParameterSize{{Name: usdCurve, ParameterCount: 9}}, jac.Order)

	const h = 1e-5
	for k := range quotes.values {
		up, _ := run(t, cfg, group, quotes.bumped(k, h).add(emptyMarket()))
		dn, _ := run(t, cfg, group, quotes.bumped(k, -h).add(emptyMarket()))
		pu, pd := params(t, up, usdCurve), params(t, dn, usdCurve)
		for i := range pu {
			fd := (pu[i] - pd[i]) / (2 * h)
			assert.InDelta(t, fd, jac.Matrix.At(i, k), 1e-6, "d param %d / d quote %d", i, k)
		}
	}
}

func TestCalibrate_TwoGroupsChainJacobians(t *testing.T) {
	t.Parallel()

	cfg := tightConfig(calibration.ParSpreadMeasures{})
	groups := []calibration.CurveGroupDefinition{oisGroup(t), forwardGroup(t)}
	quotesFor := func(ois quoteSet) marketdata.MarketData {
		return forwardQuotes().add(ois.add(emptyMarket()))
	}

	p, jacs := run(t, cfg, groups, quotesFor(oisQuotes()))
	assert.ElementsMatch(t, []curve.Name{oisCurve, usdCurve}, p.CurveNames())
	assertReprices(t, groups[0].Curves[0].Nodes, quotesFor(oisQuotes()), p)
	assertReprices(t, groups[1].Curves[0].Nodes, quotesFor(oisQuotes()), p)

	require.Contains(t, jacs, oisCurve)
	require.Contains(t, jacs, usdCurve)
	assert.Equal(t, []curve.ParameterSize{{Name: oisCurve, ParameterCount: 5}}, jacs[oisCurve].Order)
	assert.Equal(t, []curve.ParameterSize{{Name: oisCurve, ParameterCount: 5}, {Name: usdCurve, ParameterCount: 6}}, jacs[usdCurve].Order)
	r, c := jacs[usdCurve].Matrix.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 11, c)

	// Moving an OIS quote moves the LIBOR curve through discounting.
	const h = 1e-5
	for k := range oisQuotes().values {
		up, _ := run(t, cfg, groups, quotesFor(oisQuotes().bumped(k, h)))
		dn, _ := run(t, cfg, groups, quotesFor(oisQuotes().bumped(k, -h)))
		pu, pd := params(t, up, usdCurve), params(t, dn, usdCurve)
		for i := range pu {
			fd := (pu[i] - pd[i]) / (2 * h)
			assert.InDelta(t, fd, jacs[usdCurve].Matrix.At(i, k), 1e-6, "d libor %d / d ois quote %d", i, k)
		}
	}
}

func TestCalibrate_GroupWithoutJacobianIsNotChained(t *testing.T) {
	t.Parallel()

	groups := []calibration.CurveGroupDefinition{oisGroup(t, calibration.WithJacobian(false)), forwardGroup(t)}
	md := forwardQuotes().add(oisQuotes().add(emptyMarket()))
	p, jacs := run(t, calibration.DefaultConfig(), groups, md)

	assert.NotContains(t, jacs, oisCurve)
	require.Contains(t, jacs, usdCurve)
	assert.Equal(t, []curve.ParameterSize{{Name: usdCurve, ParameterCount: 6}}, jacs[usdCurve].Order)

	c, err := p.Curve(oisCurve)
	require.NoError(t, err)
	assert.Nil(t, c.Metadata().Jacobian)
}

func TestCalibrate_PVSensitivityToQuote(t *testing.T) {
	t.Parallel()

	cfg := tightConfig(calibration.ParSpreadMeasures{})
	quotes := oisQuotes()
	group := oisGroup(t, calibration.WithPVSensitivityToMarketQuote(true))
	md := quotes.add(emptyMarket())
	p, _ := run(t, cfg, []calibration.CurveGroupDefinition{group}, md)

	c, err := p.Curve(oisCurve)
	require.NoError(t, err)
	sens := c.Metadata().PVSensitivityToQuote
	require.Len(t, sens, 5)

	const h = 1e-5
	for k, n := range group.Curves[0].Nodes {
		tr, err := n.Trade(valDate, md)
		require.NoError(t, err)
		up, _ := run(t, cfg, []calibration.CurveGroupDefinition{group}, quotes.bumped(k, h).add(emptyMarket()))
		dn, _ := run(t, cfg, []calibration.CurveGroupDefinition{group}, quotes.bumped(k, -h).add(emptyMarket()))
		pvUp, err := tr.PresentValue(up)
		require.NoError(t, err)
		pvDn, err := tr.PresentValue(dn)
		require.NoError(t, err)
		assert.InDelta(t, (pvUp-pvDn)/(2*h), sens[k], 1e-6, n.Label())
		// A payer swap gains the annuity per unit of quote.
		assert.Greater(t, sens[k], 0.0)
	}
}

func TestCalibrate_Errors(t *testing.T) {
	t.Parallel()

	c, err := calibration.NewCurveCalibrator(calibration.DefaultConfig())
	require.NoError(t, err)
	md := libor3MQuotes().add(emptyMarket())

	_, _, err = c.Calibrate(nil, provider.Empty(valDate.AddDate(0, 0, 1)), md)
	assert.ErrorIs(t, err, calibration.ErrValuationDateMismatch)

	g := singleCurveGroup(t, curve.ZeroRate)
	_, _, err = c.Calibrate([]calibration.CurveGroupDefinition{g, g}, provider.Empty(valDate), md)
	assert.ErrorIs(t, err, calibration.ErrInvalidDefinition)

	_, _, err = c.Calibrate([]calibration.CurveGroupDefinition{g}, provider.Empty(valDate), emptyMarket())
	assert.ErrorIs(t, err, marketdata.ErrQuoteNotFound)

	// Swaps in the forward group need a USD discount curve.
	_, _, err = c.Calibrate([]calibration.CurveGroupDefinition{forwardGroup(t)}, provider.Empty(valDate), forwardQuotes().add(emptyMarket()))
	assert.ErrorIs(t, err, provider.ErrCurveNotFound)

	_, err = calibration.NewCurveCalibrator(calibration.Config{AbsoluteTolerance: 0, RelativeTolerance: 1e-9, MaxSteps: 10})
	assert.Error(t, err)
	_, err = calibration.NewCurveCalibrator(calibration.Config{AbsoluteTolerance: 1e-9, RelativeTolerance: 1e-9})
	assert.Error(t, err)
}

func TestCalibrate_ConfigErrorsBeforeSolving(t *testing.T) {
	t.Parallel()

	bid := marketdata.NewImmutableMarketData(valDate, nil)
	for i, n := range forwardQuotes().names {
		bid = bid.WithValue(marketdata.QuoteID{Name: n, Field: marketdata.Bid}, forwardQuotes().values[i])
	}

	cases := []struct {
		name   string
		groups func(t *testing.T) []calibration.CurveGroupDefinition
		md     *marketdata.ImmutableMarketData
		want   error
	}{
		{
			name:   "second group quotes missing",
			groups: func(t *testing.T) []calibration.CurveGroupDefinition { return []calibration.CurveGroupDefinition{oisGroup(t), forwardGroup(t)} },
			md:     oisQuotes().add(emptyMarket()),
			want:   marketdata.ErrQuoteNotFound,
		},
		{
			name:   "second group quotes under another field",
			groups: func(t *testing.T) []calibration.CurveGroupDefinition { return []calibration.CurveGroupDefinition{oisGroup(t), forwardGroup(t)} },
			md:     oisQuotes().add(bid),
			want:   marketdata.ErrQuoteFieldMismatch,
		},
		{
			name:   "discount curve only in a later group",
			groups: func(t *testing.T) []calibration.CurveGroupDefinition { return []calibration.CurveGroupDefinition{forwardGroup(t), oisGroup(t)} },
			md:     forwardQuotes().add(oisQuotes().add(emptyMarket())),
			want:   provider.ErrCurveNotFound,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			core, logs := observer.New(zap.InfoLevel)
			c, err := calibration.NewCurveCalibrator(calibration.DefaultConfig(), calibration.WithLogger(zap.New(core)))
			require.NoError(t, err)
			_, _, err = c.Calibrate(tc.groups(t), provider.Empty(valDate), tc.md)
			assert.ErrorIs(t, err, tc.want)
			assert.Zero(t, logs.FilterMessage("calibrating group").Len())
		})
	}
}

func TestCalibrate_ValuationDateFixingKeepsDepositNode(t *testing.T) {
	t.Parallel()

	fixings := marketdata.NewTimeSeries(map[time.Time]float64{valDate: 0.0555})
	known := provider.Empty(valDate).WithFixings(market.USDLibor3M.Name(), fixings)
	md := libor3MQuotes().add(emptyMarket())

	c, err := calibration.NewCurveCalibrator(tightConfig(calibration.ParSpreadMeasures{}))
	require.NoError(t, err)
	p, jacs, err := c.Calibrate([]calibration.CurveGroupDefinition{singleCurveGroup(t, curve.ZeroRate)}, known, md)
	require.NoError(t, err)
	assertReprices(t, libor3MNodes(), md, p)
	require.Contains(t, jacs, usdCurve)

	// The deposit quote, not the published fixing, pins the first node.
	fwd, err := p.IborForward(market.USDLibor3M, valDate)
	require.NoError(t, err)
	assert.InDelta(t, 0.0420, fwd, 1e-10)
}

func TestCalibrate_Logging(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	c, err := calibration.NewCurveCalibrator(calibration.DefaultConfig(), calibration.WithLogger(zap.New(core)))
	require.NoError(t, err)
	_, _, err = c.Calibrate([]calibration.CurveGroupDefinition{oisGroup(t)}, provider.Empty(valDate), oisQuotes().add(emptyMarket()))
	require.NoError(t, err)

	done := logs.FilterMessage("group calibrated").All()
	require.Len(t, done, 1)
	assert.Equal(t, "calibration", done[0].LoggerName)
	assert.Equal(t, "USD-OIS", done[0].ContextMap()["group"])
	assert.Equal(t, 1, logs.FilterMessage("calibrating group").Len())
}
