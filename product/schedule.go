package product

import (
	"fmt"
	"time"

	"github.com/meenmo/curvecal/calendar"
	"github.com/meenmo/curvecal/market"
	"github.com/meenmo/curvecal/utils"
)

// SchedulePeriod is one accrual period of a leg.
type SchedulePeriod struct {
	StartDate    time.Time
	EndDate      time.Time
	PayDate      time.Time
	FixingDate   time.Time
	YearFraction float64
}

// ScheduleParams describes how a leg rolls and pays.
type ScheduleParams struct {
	Frequency     market.Frequency
	Calendar      calendar.CalendarID
	DayCount      utils.DayCount
	PayDelayDays  int
	FixingLagDays int
	EndOfMonth    bool
	Direction     market.ScheduleDirection
}

// stubThresholdDays folds a first stub shorter than this into the next period.
const stubThresholdDays = 7

// GenerateSchedule builds adjusted accrual periods between effective and maturity.
func GenerateSchedule(effective, maturity time.Time, sp ScheduleParams) ([]SchedulePeriod, error) {
	if !maturity.After(effective) {
		return nil, fmt.Errorf("GenerateSchedule: maturity %s not after effective %s", maturity.Format(utils.DateLayout), effective.Format(utils.DateLayout))
	}
	if sp.Frequency < 0 {
		return nil, fmt.Errorf("GenerateSchedule: unsupported pay frequency %d", sp.Frequency)
	}

	var dates []time.Time
	switch {
	case sp.Frequency == market.FreqTerm:
		dates = []time.Time{effective, maturity}
	case sp.Direction == market.ScheduleForward:
		dates = rollForward(effective, maturity, int(sp.Frequency), sp.EndOfMonth)
	default:
		dates = rollBackward(effective, maturity, int(sp.Frequency), sp.EndOfMonth)
	}

	periods := make([]SchedulePeriod, 0, len(dates)-1)
	for i := 0; i < len(dates)-1; i++ {
		start := calendar.Adjust(sp.Calendar, dates[i])
		end := calendar.Adjust(sp.Calendar, dates[i+1])
		periods = append(periods, SchedulePeriod{
			StartDate:    start,
			EndDate:      end,
			PayDate:      calendar.AddBusinessDays(sp.Calendar, end, sp.PayDelayDays),
			FixingDate:   calendar.AddBusinessDays(sp.Calendar, start, -sp.FixingLagDays),
			YearFraction: sp.DayCount.YearFraction(start, end),
		})
	}
	return periods, nil
}

func roll(t time.Time, months int, eom bool) time.Time {
	if eom && utils.IsLastDayOfMonth(t) {
		return utils.LastDayOfMonth(utils.AddMonth(t, months))
	}
	return utils.AddMonth(t, months)
}

// rollForward rolls from effective; a short final stub ends on maturity.
func rollForward(effective, maturity time.Time, months int, eom bool) []time.Time {
	dates := []time.Time{effective}
	for k := 1; ; k++ {
		next := roll(effective, k*months, eom)
		if !next.Before(maturity) {
			break
		}
		if utils.Days(next, maturity) <= stubThresholdDays {
			break
		}
		dates = append(dates, next)
	}
	return append(dates, maturity)
}

// rollBackward rolls from maturity; a stub shorter than a week is merged
// into the first regular period.
func rollBackward(effective, maturity time.Time, months int, eom bool) []time.Time {
	var unadjusted []time.Time
	for k := 1; ; k++ {
		prev := roll(maturity, -k*months, eom)
		if !prev.After(effective) {
			break
		}
		unadjusted = append([]time.Time{prev}, unadjusted...)
	}
	if len(unadjusted) > 0 {
		if d := utils.Days(effective, unadjusted[0]); d > 0 && d <= stubThresholdDays {
			unadjusted = unadjusted[1:]
		}
	}
	dates := append([]time.Time{effective}, unadjusted...)
	return append(dates, maturity)
}
