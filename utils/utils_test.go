package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/curvecal/utils"
)

func TestAddMonth_EndOfMonthClamp(t *testing.T) {
	t.Parallel()

	cases := []struct {
		start  time.Time
		months int
		want   time.Time
	}{
		{utils.Date(2024, 1, 31), 1, utils.Date(2024, 2, 29)},
		{utils.Date(2023, 1, 31), 1, utils.Date(2023, 2, 28)},
		{utils.Date(2024, 3, 31), -1, utils.Date(2024, 2, 29)},
		{utils.Date(2024, 7, 16), 12, utils.Date(2025, 7, 16)},
		{utils.Date(2024, 8, 31), 3, utils.Date(2024, 11, 30)},
	}
	for _, tc := range cases {
		got := utils.AddMonth(tc.start, tc.months)
		assert.True(t, got.Equal(tc.want), "AddMonth(%s, %d) = %s, want %s",
			tc.start.Format(utils.DateLayout), tc.months, got.Format(utils.DateLayout), tc.want.Format(utils.DateLayout))
	}
}

func TestLastDayOfMonth(t *testing.T) {
	t.Parallel()

	assert.True(t, utils.LastDayOfMonth(utils.Date(2024, 2, 10)).Equal(utils.Date(2024, 2, 29)))
	assert.True(t, utils.IsLastDayOfMonth(utils.Date(2023, 2, 28)))
	assert.False(t, utils.IsLastDayOfMonth(utils.Date(2024, 2, 28)))
}

func TestParseTenor(t *testing.T) {
	t.Parallel()

	cases := map[string]utils.Tenor{
		"3M":  {Months: 3},
		"10y": {Months: 120},
		"1W":  {Days: 7},
		"2D":  {Days: 2},
		" 6M": {Months: 6},
	}
	for in, want := range cases {
		got, err := utils.ParseTenor(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "M", "X3", "-1M", "3Q"} {
		_, err := utils.ParseTenor(bad)
		assert.Error(t, err, bad)
	}
}

func TestTenorString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "5Y", utils.TenorOfYears(5).String())
	assert.Equal(t, "18M", utils.TenorOfMonths(18).String())
	assert.Equal(t, "2W", utils.Tenor{Days: 14}.String())
	assert.Equal(t, "3D", utils.Tenor{Days: 3}.String())
	assert.Equal(t, "0D", utils.Tenor{}.String())
	assert.Equal(t, "1M2D", utils.Tenor{Months: 1, Days: 2}.String())
}

func TestTenorAddTo(t *testing.T) {
	t.Parallel()

	start := utils.Date(2024, 1, 31)
	assert.True(t, utils.TenorOfMonths(1).AddTo(start).Equal(utils.Date(2024, 2, 29)))
	assert.True(t, utils.Tenor{Days: 7}.AddTo(start).Equal(utils.Date(2024, 2, 7)))
	assert.True(t, utils.TenorOfMonths(3).Plus(utils.TenorOfMonths(3)).AddTo(start).Equal(utils.Date(2024, 7, 31)))
	assert.InDelta(t, 0.5, utils.TenorOfMonths(6).ApproxYears(), 1e-15)
}

func TestYearFraction(t *testing.T) {
	t.Parallel()

	cases := []struct {
		dc         utils.DayCount
		start, end time.Time
		want       float64
	}{
		{utils.Act360, utils.Date(2024, 1, 1), utils.Date(2024, 7, 1), 182.0 / 360.0},
		{utils.Act365F, utils.Date(2024, 1, 1), utils.Date(2025, 1, 1), 366.0 / 365.0},
		{utils.Thirty360, utils.Date(2024, 1, 31), utils.Date(2024, 3, 31), 60.0 / 360.0},
		{utils.Thirty360, utils.Date(2024, 1, 15), utils.Date(2024, 7, 31), 196.0 / 360.0},
		{utils.ThirtyE360, utils.Date(2024, 2, 29), utils.Date(2024, 8, 31), 181.0 / 360.0},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, tc.dc.YearFraction(tc.start, tc.end), 1e-14, string(tc.dc))
	}
}

func TestParseDayCount(t *testing.T) {
	t.Parallel()

	dc, err := utils.ParseDayCount("ACT/360")
	require.NoError(t, err)
	assert.Equal(t, utils.Act360, dc)

	_, err = utils.ParseDayCount("ACT/ACT")
	assert.Error(t, err)
}

func TestParseDateAndSort(t *testing.T) {
	t.Parallel()

	d, err := utils.ParseDate("2024-07-16")
	require.NoError(t, err)
	assert.True(t, d.Equal(utils.Date(2024, 7, 16)))

	_, err = utils.ParseDate("16/07/2024")
	assert.Error(t, err)

	dates := []time.Time{utils.Date(2025, 1, 1), utils.Date(2024, 1, 1), utils.Date(2024, 6, 1)}
	utils.SortDates(dates)
	assert.True(t, dates[0].Equal(utils.Date(2024, 1, 1)))
	assert.True(t, dates[2].Equal(utils.Date(2025, 1, 1)))
	assert.InDelta(t, 366.0, utils.Days(utils.Date(2024, 1, 1), utils.Date(2025, 1, 1)), 1e-12)
}
