package calendar

import (
	"fmt"
	"sync"
	"time"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	TARGET       CalendarID = "TARGET"
	USD          CalendarID = "USD"
	GBP          CalendarID = "GBP"
	WeekendsOnly CalendarID = "WEEKENDS"
)

// ParseCalendarID validates a calendar name.
func ParseCalendarID(s string) (CalendarID, error) {
	switch id := CalendarID(s); id {
	case TARGET, USD, GBP, WeekendsOnly:
		return id, nil
	default:
		return "", fmt.Errorf("ParseCalendarID: unknown calendar %q", s)
	}
}

type yearKey struct {
	cal  CalendarID
	year int
}

// holidays caches generated holiday sets per (calendar, year).
var holidays sync.Map

func holidaySet(cal CalendarID, year int) map[time.Time]struct{} {
	key := yearKey{cal: cal, year: year}
	if v, ok := holidays.Load(key); ok {
		return v.(map[time.Time]struct{})
	}
	var dates []time.Time
	switch cal {
	case TARGET:
		dates = targetHolidays(year)
	case USD:
		dates = usdHolidays(year)
	case GBP:
		dates = gbpHolidays(year)
	}
	set := make(map[time.Time]struct{}, len(dates))
	for _, d := range dates {
		set[d] = struct{}{}
	}
	v, _ := holidays.LoadOrStore(key, set)
	return v.(map[time.Time]struct{})
}

func isHoliday(cal CalendarID, t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	_, ok := holidaySet(cal, t.Year())[day]
	return ok
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AdjustPreceding moves t back to the nearest business day.
func AdjustPreceding(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func LastBusinessDayOfMonth(cal CalendarID, t time.Time) time.Time {
	nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return AddBusinessDays(cal, nextMonth, -1)
}

// IsEndOfMonth checks if t is the last business day of its month.
func IsEndOfMonth(cal CalendarID, t time.Time) bool {
	return t.Equal(LastBusinessDayOfMonth(cal, t))
}
