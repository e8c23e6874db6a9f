package market

import (
	"fmt"

	"github.com/meenmo/curvecal/calendar"
	"github.com/meenmo/curvecal/utils"
)

// Frequency enumerates payment frequencies in months.
type Frequency int

const (
	FreqAnnual    Frequency = 12
	FreqSemi      Frequency = 6
	FreqQuarterly Frequency = 3
	FreqMonthly   Frequency = 1
	// FreqTerm pays once at maturity.
	FreqTerm Frequency = 0
)

// ScheduleDirection controls whether periods roll forward from the effective
// date (back stub) or backward from maturity (front stub).
type ScheduleDirection string

const (
	ScheduleForward  ScheduleDirection = "FORWARD"
	ScheduleBackward ScheduleDirection = "BACKWARD"
)

// FixedLegConvention captures the fixed leg of a vanilla swap.
type FixedLegConvention struct {
	Currency     Currency
	DayCount     utils.DayCount
	PayFrequency Frequency
	Calendar     calendar.CalendarID
	PayDelayDays int
	EndOfMonth   bool
}

// IborLegConvention captures an IBOR floating leg; resets follow the pay frequency.
type IborLegConvention struct {
	Index        IborIndex
	PayFrequency Frequency
	PayDelayDays int
	EndOfMonth   bool
}

// OvernightLegConvention captures a compounded overnight leg.
type OvernightLegConvention struct {
	Index        OvernightIndex
	PayFrequency Frequency
	PayDelayDays int
	EndOfMonth   bool
}

// FixedIborSwapConvention is a market convention for fixed-vs-IBOR swaps.
type FixedIborSwapConvention struct {
	Name        string
	FixedLeg    FixedLegConvention
	FloatLeg    IborLegConvention
	SpotLagDays int
	Direction   ScheduleDirection
}

// FixedOvernightSwapConvention is a market convention for OIS.
type FixedOvernightSwapConvention struct {
	Name        string
	FixedLeg    FixedLegConvention
	FloatLeg    OvernightLegConvention
	SpotLagDays int
	Direction   ScheduleDirection
}

// TermDepositConvention describes a cash deposit.
type TermDepositConvention struct {
	Name        string
	Currency    Currency
	DayCount    utils.DayCount
	Calendar    calendar.CalendarID
	SpotLagDays int
}

var (
	USDFixed6MLibor3M = FixedIborSwapConvention{
		Name: "USD-FIXED-6M-LIBOR-3M",
		FixedLeg: FixedLegConvention{
			Currency:     USD,
			DayCount:     utils.Thirty360,
			PayFrequency: FreqSemi,
			Calendar:     calendar.USD,
		},
		FloatLeg: IborLegConvention{
			Index:        USDLibor3M,
			PayFrequency: FreqQuarterly,
		},
		SpotLagDays: 2,
		Direction:   ScheduleBackward,
	}
	USDFixed1YLibor3M = FixedIborSwapConvention{
		Name: "USD-FIXED-1Y-LIBOR-3M",
		FixedLeg: FixedLegConvention{
			Currency:     USD,
			DayCount:     utils.Act360,
			PayFrequency: FreqAnnual,
			Calendar:     calendar.USD,
		},
		FloatLeg: IborLegConvention{
			Index:        USDLibor3M,
			PayFrequency: FreqQuarterly,
		},
		SpotLagDays: 2,
		Direction:   ScheduleBackward,
	}
	EURFixed1YEuribor6M = FixedIborSwapConvention{
		Name: "EUR-FIXED-1Y-EURIBOR-6M",
		FixedLeg: FixedLegConvention{
			Currency:     EUR,
			DayCount:     utils.ThirtyE360,
			PayFrequency: FreqAnnual,
			Calendar:     calendar.TARGET,
		},
		FloatLeg: IborLegConvention{
			Index:        EURIBOR6M,
			PayFrequency: FreqSemi,
		},
		SpotLagDays: 2,
		Direction:   ScheduleBackward,
	}
	EURFixed1YEuribor3M = FixedIborSwapConvention{
		Name: "EUR-FIXED-1Y-EURIBOR-3M",
		FixedLeg: FixedLegConvention{
			Currency:     EUR,
			DayCount:     utils.ThirtyE360,
			PayFrequency: FreqAnnual,
			Calendar:     calendar.TARGET,
		},
		FloatLeg: IborLegConvention{
			Index:        EURIBOR3M,
			PayFrequency: FreqQuarterly,
		},
		SpotLagDays: 2,
		Direction:   ScheduleBackward,
	}

	// USDFixed1YSOFR pays annually with a T+2 payment lag on both legs.
	USDFixed1YSOFR = FixedOvernightSwapConvention{
		Name: "USD-FIXED-1Y-SOFR-OIS",
		FixedLeg: FixedLegConvention{
			Currency:     USD,
			DayCount:     utils.Act360,
			PayFrequency: FreqAnnual,
			Calendar:     calendar.USD,
			PayDelayDays: 2,
		},
		FloatLeg: OvernightLegConvention{
			Index:        SOFR,
			PayFrequency: FreqAnnual,
			PayDelayDays: 2,
		},
		SpotLagDays: 2,
		Direction:   ScheduleBackward,
	}
	EURFixed1YESTR = FixedOvernightSwapConvention{
		Name: "EUR-FIXED-1Y-ESTR-OIS",
		FixedLeg: FixedLegConvention{
			Currency:     EUR,
			DayCount:     utils.Act360,
			PayFrequency: FreqAnnual,
			Calendar:     calendar.TARGET,
			PayDelayDays: 1,
		},
		FloatLeg: OvernightLegConvention{
			Index:        ESTR,
			PayFrequency: FreqAnnual,
			PayDelayDays: 1,
		},
		SpotLagDays: 2,
		Direction:   ScheduleBackward,
	}

	USDDepositT2 = TermDepositConvention{
		Name:        "USD-DEPOSIT-T2",
		Currency:    USD,
		DayCount:    utils.Act360,
		Calendar:    calendar.USD,
		SpotLagDays: 2,
	}
	EURDepositT2 = TermDepositConvention{
		Name:        "EUR-DEPOSIT-T2",
		Currency:    EUR,
		DayCount:    utils.Act360,
		Calendar:    calendar.TARGET,
		SpotLagDays: 2,
	}
)

var (
	fixedIborConventions      = []FixedIborSwapConvention{USDFixed6MLibor3M, USDFixed1YLibor3M, EURFixed1YEuribor6M, EURFixed1YEuribor3M}
	fixedOvernightConventions = []FixedOvernightSwapConvention{USDFixed1YSOFR, EURFixed1YESTR}
	depositConventions        = []TermDepositConvention{USDDepositT2, EURDepositT2}
)

// ConventionNames lists the built-in conventions by kind.
func ConventionNames() map[string][]string {
	out := map[string][]string{}
	for _, c := range fixedIborConventions {
		out["fixed-ibor-swap"] = append(out["fixed-ibor-swap"], c.Name)
	}
	for _, c := range fixedOvernightConventions {
		out["fixed-overnight-swap"] = append(out["fixed-overnight-swap"], c.Name)
	}
	for _, c := range depositConventions {
		out["term-deposit"] = append(out["term-deposit"], c.Name)
	}
	return out
}

// FixedIborSwapConventionByName looks up a built-in fixed-vs-IBOR convention.
func FixedIborSwapConventionByName(name string) (FixedIborSwapConvention, error) {
	for _, c := range fixedIborConventions {
		if c.Name == name {
			return c, nil
		}
	}
	return FixedIborSwapConvention{}, fmt.Errorf("FixedIborSwapConventionByName: unknown convention %q", name)
}

// FixedOvernightSwapConventionByName looks up a built-in OIS convention.
func FixedOvernightSwapConventionByName(name string) (FixedOvernightSwapConvention, error) {
	for _, c := range fixedOvernightConventions {
		if c.Name == name {
			return c, nil
		}
	}
	return FixedOvernightSwapConvention{}, fmt.Errorf("FixedOvernightSwapConventionByName: unknown convention %q", name)
}

// TermDepositConventionByName looks up a built-in deposit convention.
func TermDepositConventionByName(name string) (TermDepositConvention, error) {
	for _, c := range depositConventions {
		if c.Name == name {
			return c, nil
		}
	}
	return TermDepositConvention{}, fmt.Errorf("TermDepositConventionByName: unknown convention %q", name)
}
