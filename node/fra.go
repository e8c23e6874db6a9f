package node

import (
	"fmt"
	"time"

	"github.com/meenmo/curvecal/calendar"
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/market"
	"github.com/meenmo/curvecal/marketdata"
	"github.com/meenmo/curvecal/product"
	"github.com/meenmo/curvecal/utils"
)

// FraTemplate starts PeriodToStart after spot; "3x6" on a 3M index is
// PeriodToStart 3M.
type FraTemplate struct {
	Index         market.IborIndex
	PeriodToStart utils.Tenor
}

func (t FraTemplate) dates(valuationDate time.Time) (fixing, start, end time.Time) {
	spot := t.Index.EffectiveDate(calendar.AdjustFollowing(t.Index.Calendar, valuationDate))
	start = calendar.Adjust(t.Index.Calendar, t.PeriodToStart.AddTo(spot))
	end = t.Index.MaturityDate(start)
	fixing = t.Index.FixingDate(start)
	return fixing, start, end
}

func (t FraTemplate) name() string {
	m := t.PeriodToStart.Months
	return fmt.Sprintf("%dx%d", m, m+t.Index.Tenor.Months)
}

// FraNode is a forward rate agreement node.
type FraNode struct {
	quoted
	Template FraTemplate
}

// NewFraNode builds a node; an empty label defaults to the FRA period.
func NewFraNode(tmpl FraTemplate, id marketdata.QuoteID, spread float64, label string) FraNode {
	if label == "" {
		label = tmpl.name()
	}
	return FraNode{quoted: quoted{QuoteID: id, AdditionalSpread: spread, NodeLabel: label}, Template: tmpl}
}

// Label names the node in metadata and errors.
func (n FraNode) Label() string { return n.NodeLabel }

// Date is the node date the curve parameter sits at.
func (n FraNode) Date(valuationDate time.Time) time.Time {
	_, _, end := n.Template.dates(valuationDate)
	return end
}

// Metadata describes the parameter for Jacobian and risk output.
func (n FraNode) Metadata(valuationDate time.Time) curve.ParameterMetadata {
	return n.metadata(n.Date(valuationDate), n.Template.name())
}

// Trade builds the calibration trade at the quoted rate plus spread.
func (n FraNode) Trade(valuationDate time.Time, md marketdata.MarketData) (product.Trade, error) {
	r, err := n.rate(md)
	if err != nil {
		return nil, err
	}
	fixing, start, end := n.Template.dates(valuationDate)
	idx := n.Template.Index
	return product.Fra{
		Currency:     idx.Currency(),
		Index:        idx,
		FixingDate:   fixing,
		StartDate:    start,
		EndDate:      end,
		PaymentDate:  start,
		YearFraction: idx.DayCount.YearFraction(start, end),
		FixedRate:    r,
		Notional:     1,
	}, nil
}

// InitialGuess is the quoted rate converted to the curve value type.
func (n FraNode) InitialGuess(valuationDate time.Time, md marketdata.MarketData, vt curve.ValueType) (float64, error) {
	return n.initialGuess(valuationDate, n.Date(valuationDate), md, vt)
}
