package provider

import "errors"

var (
	// ErrCurveNotFound is returned when no curve serves a currency or index.
	ErrCurveNotFound = errors.New("provider: curve not found")

	// ErrFixingNotFound is returned when a past fixing is missing from the time series.
	ErrFixingNotFound = errors.New("provider: fixing not found")

	// ErrPastPeriod is returned when a forward rate is requested for a period
	// that starts before the valuation date.
	ErrPastPeriod = errors.New("provider: period starts before valuation date")
)
