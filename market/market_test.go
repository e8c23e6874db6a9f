package market_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvecal/market"
)

func TestIndexByName(t *testing.T) {
	t.Parallel()

	idx, err := market.IndexByName("USD-LIBOR-3M")
	require.NoError(t, err)
	assert.Equal(t, market.USDLibor3M, idx)
	assert.False(t, market.IsOvernight(idx))

	sofr, err := market.IndexByName("SOFR")
	require.NoError(t, err)
	assert.True(t, market.IsOvernight(sofr))
	assert.Equal(t, market.USD, sofr.Currency())

	_, err = market.IndexByName("TONAR")
	assert.Error(t, err)

	names := market.IndexNames()
	assert.Contains(t, names, "EURIBOR6M")
	assert.IsIncreasing(t, names)
}

func TestIborIndexDates(t *testing.T) {
	t.Parallel()

	fixing := time.Date(2024, 7, 16, 0, 0, 0, 0, time.UTC)
	effective := market.USDLibor3M.EffectiveDate(fixing)
	assert.True(t, effective.Equal(time.Date(2024, 7, 18, 0, 0, 0, 0, time.UTC)))
	assert.True(t, market.USDLibor3M.MaturityDate(effective).Equal(time.Date(2024, 10, 18, 0, 0, 0, 0, time.UTC)))
	assert.True(t, market.USDLibor3M.FixingDate(effective).Equal(fixing))

	// Jul 4 sits inside the fixing lag.
	fixing = time.Date(2024, 7, 3, 0, 0, 0, 0, time.UTC)
	assert.True(t, market.USDLibor3M.EffectiveDate(fixing).Equal(time.Date(2024, 7, 8, 0, 0, 0, 0, time.UTC)))
}

func TestConventionLookups(t *testing.T) {
	t.Parallel()

	c, err := market.FixedIborSwapConventionByName("USD-FIXED-6M-LIBOR-3M")
	require.NoError(t, err)
	assert.Equal(t, market.FreqSemi, c.FixedLeg.PayFrequency)
	assert.Equal(t, market.USDLibor3M, c.FloatLeg.Index)

	o, err := market.FixedOvernightSwapConventionByName("USD-FIXED-1Y-SOFR-OIS")
	require.NoError(t, err)
	assert.Equal(t, market.SOFR, o.FloatLeg.Index)

	dep, err := market.TermDepositConventionByName("EUR-DEPOSIT-T2")
	require.NoError(t, err)
	assert.Equal(t, market.EUR, dep.Currency)

	_, err = market.FixedIborSwapConventionByName("USD-FIXED-6M-SOFR")
	assert.Error(t, err)
	_, err = market.FixedOvernightSwapConventionByName("")
	assert.Error(t, err)
	_, err = market.TermDepositConventionByName("GBP-DEPOSIT-T0")
	assert.Error(t, err)

	names := market.ConventionNames()
	assert.Len(t, names["fixed-ibor-swap"], 4)
	assert.Len(t, names["fixed-overnight-swap"], 2)
	assert.Len(t, names["term-deposit"], 2)
}
