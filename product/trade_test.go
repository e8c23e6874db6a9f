package product_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvecal/calendar"
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/market"
	"github.com/meenmo/curvecal/product"
	"github.com/meenmo/curvecal/provider"
	"github.com/meenmo/curvecal/utils"
)

var valDate = utils.Date(2024, 7, 16)

var (
	dscParams = []float64{0.053, 0.051, 0.047, 0.043, 0.041}
	fwdParams = []float64{0.055, 0.053, 0.049, 0.045, 0.043}
)

// marketProvider builds a provider with USD-OIS discounting SOFR and USD-3M projecting LIBOR.
func marketProvider(t *testing.T, dsc, fwd []float64) *provider.RatesProvider {
	t.Helper()
	xs := []float64{0.25, 1, 2, 5, 10}
	d, err := curve.NewInterpolatedNodalCurve(curve.Metadata{Name: "USD-OIS", ValueType: curve.ZeroRate, DayCount: utils.Act365F}, xs, dsc, curve.Linear, curve.Flat, curve.Flat)
	require.NoError(t, err)
	f, err := curve.NewInterpolatedNodalCurve(curve.Metadata{Name: "USD-3M", ValueType: curve.ZeroRate, DayCount: utils.Act365F}, xs, fwd, curve.Linear, curve.Flat, curve.Flat)
	require.NoError(t, err)
	return provider.New(provider.Params{
		ValuationDate:  valDate,
		DiscountCurves: map[market.Currency]curve.Curve{market.USD: d},
		ForwardCurves:  map[string]curve.Curve{market.SOFR.Name(): d, market.USDLibor3M.Name(): f},
	})
}

type measure func(product.Trade, *provider.RatesProvider) (float64, error)

func presentValue(tr product.Trade, p *provider.RatesProvider) (float64, error) { return tr.PresentValue(p) }
func parSpread(tr product.Trade, p *provider.RatesProvider) (float64, error)    { return tr.ParSpread(p) }

// bumpGradient differentiates m by central differences over both curves.
func bumpGradient(t *testing.T, tr product.Trade, m measure) curve.ParameterSensitivities {
	t.Helper()
	const h = 1e-6
	out := curve.ParameterSensitivities{}
	for _, name := range []curve.Name{"USD-OIS", "USD-3M"} {
		base := dscParams
		if name == "USD-3M" {
			base = fwdParams
		}
		grad := make([]float64, len(base))
		for i := range base {
			up := append([]float64(nil), base...)
			dn := append([]float64(nil), base...)
			up[i] += h
			dn[i] -= h
			var pu, pd *provider.RatesProvider
			if name == "USD-OIS" {
				pu, pd = marketProvider(t, up, fwdParams), marketProvider(t, dn, fwdParams)
			} else {
				pu, pd = marketProvider(t, dscParams, up), marketProvider(t, dscParams, dn)
			}
			vu, err := m(tr, pu)
			require.NoError(t, err)
			vd, err := m(tr, pd)
			require.NoError(t, err)
			grad[i] = (vu - vd) / (2 * h)
		}
		out[name] = grad
	}
	return out
}

func assertSensitivity(t *testing.T, want, got curve.ParameterSensitivities, tol float64, msg string) {
	t.Helper()
	for name, w := range want {
		g, ok := got[name]
		if !ok {
			for i, v := range w {
				assert.InDelta(t, 0, v, tol, "%s %s[%d] missing", msg, name, i)
			}
			continue
		}
		assert.InDeltaSlice(t, w, g, tol, "%s %s", msg, name)
	}
}

func trades(t *testing.T) []product.Trade {
	t.Helper()
	start, end := utils.Date(2024, 7, 18), utils.Date(2024, 10, 18)
	fraFixing := utils.Date(2024, 10, 16)
	fraStart := market.USDLibor3M.EffectiveDate(fraFixing)
	fraEnd := market.USDLibor3M.MaturityDate(fraStart)

	fixedSched, err := product.GenerateSchedule(start, utils.Date(2026, 7, 20), product.ScheduleParams{
		Frequency: market.FreqSemi, Calendar: calendar.USD, DayCount: utils.Thirty360, Direction: market.ScheduleBackward,
	})
	require.NoError(t, err)
	floatSched, err := product.GenerateSchedule(start, utils.Date(2026, 7, 20), product.ScheduleParams{
		Frequency: market.FreqQuarterly, Calendar: calendar.USD, DayCount: utils.Act360, FixingLagDays: 2, Direction: market.ScheduleBackward,
	})
	require.NoError(t, err)
	oisSched, err := product.GenerateSchedule(start, utils.Date(2027, 7, 19), product.ScheduleParams{
		Frequency: market.FreqAnnual, Calendar: calendar.USD, DayCount: utils.Act360, PayDelayDays: 2, Direction: market.ScheduleBackward,
	})
	require.NoError(t, err)

	return []product.Trade{
		product.TermDeposit{Currency: market.USD, StartDate: start, EndDate: end, YearFraction: utils.Act360.YearFraction(start, end), Rate: 0.05, Notional: 1},
		product.IborFixingDeposit{
			Currency: market.USD, Index: market.USDLibor3M, FixingDate: utils.Date(2024, 7, 17),
			StartDate: utils.Date(2024, 7, 19), EndDate: utils.Date(2024, 10, 21), YearFraction: 94.0 / 360, Rate: 0.054, Notional: 1,
		},
		product.Fra{
			Currency: market.USD, Index: market.USDLibor3M, FixingDate: fraFixing, StartDate: fraStart, EndDate: fraEnd,
			PaymentDate: fraStart, YearFraction: utils.Act360.YearFraction(fraStart, fraEnd), FixedRate: 0.05, Notional: 1,
		},
		product.Swap{
			Name:     "2Y",
			Fixed:    product.FixedLeg{Ccy: market.USD, Periods: fixedSched, Rate: 0.046, Notional: 1, Pay: true},
			Floating: product.IborLeg{Ccy: market.USD, Index: market.USDLibor3M, Periods: floatSched, Notional: 1},
		},
		product.Swap{
			Name:     "3Y-OIS",
			Fixed:    product.FixedLeg{Ccy: market.USD, Periods: oisSched, Rate: 0.045, Notional: 1},
			Floating: product.OvernightLeg{Ccy: market.USD, Index: market.SOFR, Periods: oisSched, Notional: 1, Pay: true},
		},
	}
}

func TestTrades_SensitivitiesMatchBump(t *testing.T) {
	t.Parallel()

	p := marketProvider(t, dscParams, fwdParams)
	for _, tr := range trades(t) {
		pvs, err := tr.PresentValueSensitivity(p)
		require.NoError(t, err, tr.Description())
		assertSensitivity(t, bumpGradient(t, tr, presentValue), pvs, 1e-7, tr.Description()+" pv")

		pss, err := tr.ParSpreadSensitivity(p)
		require.NoError(t, err, tr.Description())
		assertSensitivity(t, bumpGradient(t, tr, parSpread), pss, 1e-7, tr.Description()+" par spread")
	}
}

func TestTrades_ZeroParSpreadMeansZeroPV(t *testing.T) {
	t.Parallel()

	p := marketProvider(t, dscParams, fwdParams)
	for _, tr := range trades(t) {
		ps, err := tr.ParSpread(p)
		require.NoError(t, err)

		var atPar product.Trade
		switch v := tr.(type) {
		case product.TermDeposit:
			v.Rate += ps
			atPar = v
		case product.IborFixingDeposit:
			v.Rate += ps
			atPar = v
		case product.Fra:
			v.FixedRate += ps
			atPar = v
		case product.Swap:
			v.Fixed.Rate += ps
			atPar = v
		}
		pv, err := atPar.PresentValue(p)
		require.NoError(t, err)
		assert.InDelta(t, 0, pv, 1e-14, tr.Description())

		ps, err = atPar.ParSpread(p)
		require.NoError(t, err)
		assert.InDelta(t, 0, ps, 1e-14, tr.Description())
	}
}

func TestTermDeposit_Values(t *testing.T) {
	t.Parallel()

	p := marketProvider(t, dscParams, fwdParams)
	d := trades(t)[0].(product.TermDeposit)
	ps, err := p.DiscountFactor(market.USD, d.StartDate)
	require.NoError(t, err)
	pe, err := p.DiscountFactor(market.USD, d.EndDate)
	require.NoError(t, err)

	pv, err := d.PresentValue(p)
	require.NoError(t, err)
	assert.InDelta(t, (1+0.05*d.YearFraction)*pe-ps, pv, 1e-15)

	spread, err := d.ParSpread(p)
	require.NoError(t, err)
	assert.InDelta(t, (ps/pe-1)/d.YearFraction-0.05, spread, 1e-15)
}

func TestSwap_ParSpreadSignConvention(t *testing.T) {
	t.Parallel()

	p := marketProvider(t, dscParams, fwdParams)
	payer := trades(t)[3].(product.Swap)
	receiver := payer
	receiver.Fixed.Pay = false
	receiver.Floating = product.IborLeg{Ccy: market.USD, Index: market.USDLibor3M, Periods: payer.Floating.(product.IborLeg).Periods, Notional: 1, Pay: true}

	pp, err := payer.ParSpread(p)
	require.NoError(t, err)
	pr, err := receiver.ParSpread(p)
	require.NoError(t, err)
	assert.InDelta(t, pp, pr, 1e-15)

	assert.Contains(t, payer.Description(), "payer")
	assert.Contains(t, receiver.Description(), "receiver")
}

func TestSwap_ZeroAnnuity(t *testing.T) {
	t.Parallel()

	p := marketProvider(t, dscParams, fwdParams)
	s := trades(t)[3].(product.Swap)
	s.Fixed.Periods = nil
	_, err := s.ParSpread(p)
	assert.ErrorIs(t, err, product.ErrZeroAnnuity)
	_, err = s.ParSpreadSensitivity(p)
	assert.ErrorIs(t, err, product.ErrZeroAnnuity)
}

func TestTrades_MissingCurve(t *testing.T) {
	t.Parallel()

	empty := provider.Empty(valDate)
	for _, tr := range trades(t) {
		_, err := tr.PresentValue(empty)
		assert.ErrorIs(t, err, provider.ErrCurveNotFound, tr.Description())
	}
}
