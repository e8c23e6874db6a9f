// Package node turns market quotes into calibration trades. Each node pins one
// curve parameter: it knows its quote, the trade it builds from that quote,
// a starting value for the solver and the date at which it sits on the curve.
package node

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/marketdata"
	"github.com/meenmo/curvecal/product"
	"github.com/meenmo/curvecal/utils"
)

// ErrNodeDateOrder is returned when nodes of a curve are not in strictly
// increasing date order.
var ErrNodeDateOrder = errors.New("node: node dates must be strictly increasing")

// CurveNode builds one calibration trade from one quote.
type CurveNode interface {
	Label() string
	Requirements() []marketdata.QuoteID
	// Date is where the node sits on the curve.
	Date(valuationDate time.Time) time.Time
	Metadata(valuationDate time.Time) curve.ParameterMetadata
	Trade(valuationDate time.Time, md marketdata.MarketData) (product.Trade, error)
	InitialGuess(valuationDate time.Time, md marketdata.MarketData, vt curve.ValueType) (float64, error)
}

// quoted holds what every node kind shares.
type quoted struct {
	QuoteID          marketdata.QuoteID
	AdditionalSpread float64
	NodeLabel        string
}

// Requirements is the single quote the node reads.
func (q quoted) Requirements() []marketdata.QuoteID {
	return []marketdata.QuoteID{q.QuoteID}
}

func (q quoted) quote(md marketdata.MarketData) (float64, error) {
	v, err := md.Value(q.QuoteID)
	if err != nil {
		return 0, fmt.Errorf("node %s: %w", q.NodeLabel, err)
	}
	return v, nil
}

// rate is the contract rate of the trade: quote plus additional spread.
func (q quoted) rate(md marketdata.MarketData) (float64, error) {
	v, err := q.quote(md)
	if err != nil {
		return 0, err
	}
	return v + q.AdditionalSpread, nil
}

// initialGuess seeds zero-rate curves with the quote and discount-factor
// curves with exp(-t·quote), t in days/365 to the node date.
func (q quoted) initialGuess(valuationDate, nodeDate time.Time, md marketdata.MarketData, vt curve.ValueType) (float64, error) {
	v, err := q.quote(md)
	if err != nil {
		return 0, err
	}
	if vt == curve.DiscountFactor {
		return math.Exp(-utils.Days(valuationDate, nodeDate) / 365.0 * v), nil
	}
	return v, nil
}

func (q quoted) metadata(date time.Time, tenor string) curve.ParameterMetadata {
	return curve.ParameterMetadata{Label: q.NodeLabel, Date: date, Tenor: tenor}
}

// CheckDateOrder verifies that node dates increase strictly.
func CheckDateOrder(valuationDate time.Time, nodes []CurveNode) error {
	for i := 1; i < len(nodes); i++ {
		prev, cur := nodes[i-1].Date(valuationDate), nodes[i].Date(valuationDate)
		if !cur.After(prev) {
			return fmt.Errorf("CheckDateOrder: %s (%s) not after %s (%s): %w",
				nodes[i].Label(), cur.Format(utils.DateLayout), nodes[i-1].Label(), prev.Format(utils.DateLayout), ErrNodeDateOrder)
		}
	}
	return nil
}
