package marketdata

import (
	"time"

	"github.com/meenmo/curvecal/utils"
)

// TimeSeries holds historical fixings keyed by calendar date.
type TimeSeries struct {
	points map[string]float64
}

// NewTimeSeries builds a series from date-keyed values.
func NewTimeSeries(values map[time.Time]float64) TimeSeries {
	points := make(map[string]float64, len(values))
	for d, v := range values {
		points[d.Format(utils.DateLayout)] = v
	}
	return TimeSeries{points: points}
}

// NewTimeSeriesFromStrings builds a series from "YYYY-MM-DD" keyed values.
func NewTimeSeriesFromStrings(values map[string]float64) (TimeSeries, error) {
	points := make(map[string]float64, len(values))
	for s, v := range values {
		d, err := utils.ParseDate(s)
		if err != nil {
			return TimeSeries{}, err
		}
		points[d.Format(utils.DateLayout)] = v
	}
	return TimeSeries{points: points}, nil
}

// Get returns the fixing on date, if any.
func (ts TimeSeries) Get(date time.Time) (float64, bool) {
	v, ok := ts.points[date.Format(utils.DateLayout)]
	return v, ok
}

// Len is the number of fixings.
func (ts TimeSeries) Len() int { return len(ts.points) }

// Dates returns the fixing dates in ascending order.
func (ts TimeSeries) Dates() []time.Time {
	out := make([]time.Time, 0, len(ts.points))
	for s := range ts.points {
		d, _ := utils.ParseDate(s)
		out = append(out, d)
	}
	utils.SortDates(out)
	return out
}
