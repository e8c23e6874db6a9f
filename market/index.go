package market

import (
	"fmt"
	"sort"
	"time"

	"github.com/meenmo/curvecal/calendar"
	"github.com/meenmo/curvecal/utils"
)

// Currency is an ISO-4217 currency code.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	JPY Currency = "JPY"
)

// Index is a floating rate benchmark that a forward curve can serve.
type Index interface {
	Name() string
	Currency() Currency
}

// IborIndex is a term rate benchmark (e.g. USD-LIBOR-3M, EURIBOR6M).
type IborIndex struct {
	IndexName     string
	Ccy           Currency
	Tenor         utils.Tenor
	DayCount      utils.DayCount
	Calendar      calendar.CalendarID
	FixingLagDays int
}

func (idx IborIndex) Name() string       { return idx.IndexName }
func (idx IborIndex) Currency() Currency { return idx.Ccy }

// EffectiveDate is the start of the deposit period fixed on fixingDate.
func (idx IborIndex) EffectiveDate(fixingDate time.Time) time.Time {
	return calendar.AddBusinessDays(idx.Calendar, fixingDate, idx.FixingLagDays)
}

// MaturityDate is the end of the deposit period starting on effective.
func (idx IborIndex) MaturityDate(effective time.Time) time.Time {
	return calendar.Adjust(idx.Calendar, idx.Tenor.AddTo(effective))
}

// FixingDate is the fixing date of a period starting on effective.
func (idx IborIndex) FixingDate(effective time.Time) time.Time {
	return calendar.AddBusinessDays(idx.Calendar, effective, -idx.FixingLagDays)
}

// OvernightIndex is a compounded overnight benchmark (e.g. SOFR, ESTR).
type OvernightIndex struct {
	IndexName string
	Ccy       Currency
	DayCount  utils.DayCount
	Calendar  calendar.CalendarID
}

func (idx OvernightIndex) Name() string       { return idx.IndexName }
func (idx OvernightIndex) Currency() Currency { return idx.Ccy }

var (
	USDLibor3M = IborIndex{
		IndexName:     "USD-LIBOR-3M",
		Ccy:           USD,
		Tenor:         utils.TenorOfMonths(3),
		DayCount:      utils.Act360,
		Calendar:      calendar.USD,
		FixingLagDays: 2,
	}
	USDLibor6M = IborIndex{
		IndexName:     "USD-LIBOR-6M",
		Ccy:           USD,
		Tenor:         utils.TenorOfMonths(6),
		DayCount:      utils.Act360,
		Calendar:      calendar.USD,
		FixingLagDays: 2,
	}
	EURIBOR3M = IborIndex{
		IndexName:     "EURIBOR3M",
		Ccy:           EUR,
		Tenor:         utils.TenorOfMonths(3),
		DayCount:      utils.Act360,
		Calendar:      calendar.TARGET,
		FixingLagDays: 2,
	}
	EURIBOR6M = IborIndex{
		IndexName:     "EURIBOR6M",
		Ccy:           EUR,
		Tenor:         utils.TenorOfMonths(6),
		DayCount:      utils.Act360,
		Calendar:      calendar.TARGET,
		FixingLagDays: 2,
	}

	SOFR = OvernightIndex{
		IndexName: "SOFR",
		Ccy:       USD,
		DayCount:  utils.Act360,
		Calendar:  calendar.USD,
	}
	ESTR = OvernightIndex{
		IndexName: "ESTR",
		Ccy:       EUR,
		DayCount:  utils.Act360,
		Calendar:  calendar.TARGET,
	}
	SONIA = OvernightIndex{
		IndexName: "SONIA",
		Ccy:       GBP,
		DayCount:  utils.Act365F,
		Calendar:  calendar.GBP,
	}
)

var indices = map[string]Index{}

func init() {
	for _, idx := range []Index{USDLibor3M, USDLibor6M, EURIBOR3M, EURIBOR6M, SOFR, ESTR, SONIA} {
		indices[idx.Name()] = idx
	}
}

// IndexByName looks up a built-in index.
func IndexByName(name string) (Index, error) {
	idx, ok := indices[name]
	if !ok {
		return nil, fmt.Errorf("IndexByName: unknown index %q", name)
	}
	return idx, nil
}

// IndexNames lists the built-in indices in name order.
func IndexNames() []string {
	names := make([]string, 0, len(indices))
	for n := range indices {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// IsOvernight reports whether the index is an overnight benchmark.
func IsOvernight(idx Index) bool {
	_, ok := idx.(OvernightIndex)
	return ok
}
