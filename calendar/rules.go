package calendar

import "time"

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// nthWeekday returns the n-th given weekday of a month; n < 0 counts from the end.
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	if n > 0 {
		d := date(year, month, 1)
		for d.Weekday() != wd {
			d = d.AddDate(0, 0, 1)
		}
		return d.AddDate(0, 0, 7*(n-1))
	}
	d := date(year, month+1, 0)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, -1)
	}
	return d.AddDate(0, 0, 7*(n+1))
}

// observedUS moves Saturday holidays to Friday and Sunday holidays to Monday.
func observedUS(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

// observedUK moves weekend holidays to the following Monday.
func observedUK(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, 2)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

// easterSunday uses the anonymous Gregorian algorithm.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return date(year, time.Month(month), day)
}

func targetHolidays(year int) []time.Time {
	easter := easterSunday(year)
	return []time.Time{
		date(year, time.January, 1),
		easter.AddDate(0, 0, -2),
		easter.AddDate(0, 0, 1),
		date(year, time.May, 1),
		date(year, time.December, 25),
		date(year, time.December, 26),
	}
}

// usdHolidays follows the SIFMA/Federal Reserve schedule used for USD swaps.
func usdHolidays(year int) []time.Time {
	out := []time.Time{
		observedUS(date(year, time.January, 1)),
		nthWeekday(year, time.January, time.Monday, 3),
		nthWeekday(year, time.February, time.Monday, 3),
		nthWeekday(year, time.May, time.Monday, -1),
		observedUS(date(year, time.July, 4)),
		nthWeekday(year, time.September, time.Monday, 1),
		nthWeekday(year, time.October, time.Monday, 2),
		observedUS(date(year, time.November, 11)),
		nthWeekday(year, time.November, time.Thursday, 4),
		observedUS(date(year, time.December, 25)),
	}
	if year >= 2022 {
		out = append(out, observedUS(date(year, time.June, 19)))
	}
	// New Year's Day of the following year observed on Dec 31.
	if next := date(year+1, time.January, 1); next.Weekday() == time.Saturday {
		out = append(out, date(year, time.December, 31))
	}
	return out
}

func gbpHolidays(year int) []time.Time {
	easter := easterSunday(year)
	christmas := date(year, time.December, 25)
	boxing := date(year, time.December, 26)
	var xmasObs, boxingObs time.Time
	switch christmas.Weekday() {
	case time.Friday:
		xmasObs, boxingObs = christmas, date(year, time.December, 28)
	case time.Saturday:
		xmasObs, boxingObs = date(year, time.December, 27), date(year, time.December, 28)
	case time.Sunday:
		xmasObs, boxingObs = date(year, time.December, 27), boxing
	default:
		xmasObs, boxingObs = christmas, boxing
	}
	return []time.Time{
		observedUK(date(year, time.January, 1)),
		easter.AddDate(0, 0, -2),
		easter.AddDate(0, 0, 1),
		nthWeekday(year, time.May, time.Monday, 1),
		nthWeekday(year, time.May, time.Monday, -1),
		nthWeekday(year, time.August, time.Monday, -1),
		xmasObs,
		boxingObs,
	}
}
