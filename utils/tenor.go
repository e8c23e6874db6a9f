package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Tenor is a period expressed in months or days ("3M", "10Y", "1W", "2D").
type Tenor struct {
	Months int
	Days   int
}

// TenorOfMonths returns a month-based tenor.
func TenorOfMonths(m int) Tenor { return Tenor{Months: m} }

// TenorOfYears returns a year-based tenor.
func TenorOfYears(y int) Tenor { return Tenor{Months: 12 * y} }

// ParseTenor converts tenor strings like "1W", "3M", "10Y" to a Tenor.
func ParseTenor(s string) (Tenor, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if len(s) < 2 {
		return Tenor{}, fmt.Errorf("ParseTenor: invalid tenor %q", s)
	}
	v, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || v < 0 {
		return Tenor{}, fmt.Errorf("ParseTenor: invalid tenor %q", s)
	}
	switch s[len(s)-1] {
	case 'D':
		return Tenor{Days: v}, nil
	case 'W':
		return Tenor{Days: 7 * v}, nil
	case 'M':
		return Tenor{Months: v}, nil
	case 'Y':
		return Tenor{Months: 12 * v}, nil
	default:
		return Tenor{}, fmt.Errorf("ParseTenor: invalid tenor %q", s)
	}
}

// AddTo adds the tenor to t without business-day adjustment.
// Month-based tenors use EDATE semantics.
func (p Tenor) AddTo(t time.Time) time.Time {
	if p.Months != 0 {
		t = AddMonth(t, p.Months)
	}
	if p.Days != 0 {
		t = t.AddDate(0, 0, p.Days)
	}
	return t
}

// IsZero reports whether the tenor has no length.
func (p Tenor) IsZero() bool { return p.Months == 0 && p.Days == 0 }

// ApproxYears is the tenor length in years (months/12 + days/365).
func (p Tenor) ApproxYears() float64 {
	return float64(p.Months)/12.0 + float64(p.Days)/365.0
}

// Plus adds two tenors component-wise.
func (p Tenor) Plus(o Tenor) Tenor {
	return Tenor{Months: p.Months + o.Months, Days: p.Days + o.Days}
}

func (p Tenor) String() string {
	switch {
	case p.Months == 0 && p.Days == 0:
		return "0D"
	case p.Days == 0 && p.Months%12 == 0:
		return fmt.Sprintf("%dY", p.Months/12)
	case p.Days == 0:
		return fmt.Sprintf("%dM", p.Months)
	case p.Months == 0 && p.Days%7 == 0:
		return fmt.Sprintf("%dW", p.Days/7)
	case p.Months == 0:
		return fmt.Sprintf("%dD", p.Days)
	default:
		return fmt.Sprintf("%dM%dD", p.Months, p.Days)
	}
}
