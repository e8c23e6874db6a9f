package marketdata

import "errors"

var (
	// ErrQuoteNotFound is returned when market data has no value for a quote id.
	ErrQuoteNotFound = errors.New("marketdata: quote not found")

	// ErrQuoteFieldMismatch is returned when the quote name is present under a
	// different field than the one requested.
	ErrQuoteFieldMismatch = errors.New("marketdata: quote present under a different field")
)
