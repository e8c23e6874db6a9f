package node

import (
	"time"

	"github.com/meenmo/curvecal/calendar"
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/market"
	"github.com/meenmo/curvecal/marketdata"
	"github.com/meenmo/curvecal/product"
	"github.com/meenmo/curvecal/utils"
)

// TermDepositTemplate starts a deposit at spot and runs for Tenor.
type TermDepositTemplate struct {
	Convention market.TermDepositConvention
	Tenor      utils.Tenor
}

func (t TermDepositTemplate) dates(valuationDate time.Time) (time.Time, time.Time) {
	start := calendar.AddBusinessDays(t.Convention.Calendar, valuationDate, t.Convention.SpotLagDays)
	end := calendar.Adjust(t.Convention.Calendar, t.Tenor.AddTo(start))
	return start, end
}

// TermDepositNode is a cash deposit node.
type TermDepositNode struct {
	quoted
	Template TermDepositTemplate
}

// NewTermDepositNode builds a node; an empty label defaults to the tenor.
func NewTermDepositNode(tmpl TermDepositTemplate, id marketdata.QuoteID, spread float64, label string) TermDepositNode {
	if label == "" {
		label = tmpl.Tenor.String()
	}
	return TermDepositNode{quoted: quoted{QuoteID: id, AdditionalSpread: spread, NodeLabel: label}, Template: tmpl}
}

// Label names the node in metadata and errors.
func (n TermDepositNode) Label() string { return n.NodeLabel }

// Date is the node date the curve parameter sits at.
func (n TermDepositNode) Date(valuationDate time.Time) time.Time {
	_, end := n.Template.dates(valuationDate)
	return end
}

// Metadata describes the parameter for Jacobian and risk output.
func (n TermDepositNode) Metadata(valuationDate time.Time) curve.ParameterMetadata {
	return n.metadata(n.Date(valuationDate), n.Template.Tenor.String())
}

// Trade builds the calibration trade at the quoted rate plus spread.
func (n TermDepositNode) Trade(valuationDate time.Time, md marketdata.MarketData) (product.Trade, error) {
	r, err := n.rate(md)
	if err != nil {
		return nil, err
	}
	start, end := n.Template.dates(valuationDate)
	c := n.Template.Convention
	return product.TermDeposit{
		Currency:     c.Currency,
		StartDate:    start,
		EndDate:      end,
		YearFraction: c.DayCount.YearFraction(start, end),
		Rate:         r,
		Notional:     1,
	}, nil
}

// InitialGuess is the quoted rate converted to the curve value type.
func (n TermDepositNode) InitialGuess(valuationDate time.Time, md marketdata.MarketData, vt curve.ValueType) (float64, error) {
	return n.initialGuess(valuationDate, n.Date(valuationDate), md, vt)
}

// IborFixingDepositTemplate is a deposit over one period of Index fixed today.
type IborFixingDepositTemplate struct {
	Index market.IborIndex
}

func (t IborFixingDepositTemplate) dates(valuationDate time.Time) (fixing, start, end time.Time) {
	fixing = calendar.AdjustFollowing(t.Index.Calendar, valuationDate)
	start = t.Index.EffectiveDate(fixing)
	end = t.Index.MaturityDate(start)
	return fixing, start, end
}

// IborFixingDepositNode pins the forward curve at the first index fixing.
type IborFixingDepositNode struct {
	quoted
	Template IborFixingDepositTemplate
}

// NewIborFixingDepositNode builds a node; an empty label defaults to the index name.
func NewIborFixingDepositNode(tmpl IborFixingDepositTemplate, id marketdata.QuoteID, spread float64, label string) IborFixingDepositNode {
	if label == "" {
		label = tmpl.Index.Name()
	}
	return IborFixingDepositNode{quoted: quoted{QuoteID: id, AdditionalSpread: spread, NodeLabel: label}, Template: tmpl}
}

// Label names the node in metadata and errors.
func (n IborFixingDepositNode) Label() string { return n.NodeLabel }

// Date is the node date the curve parameter sits at.
func (n IborFixingDepositNode) Date(valuationDate time.Time) time.Time {
	_, _, end := n.Template.dates(valuationDate)
	return end
}

// Metadata describes the parameter for Jacobian and risk output.
func (n IborFixingDepositNode) Metadata(valuationDate time.Time) curve.ParameterMetadata {
	return n.metadata(n.Date(valuationDate), n.Template.Index.Tenor.String())
}

// Trade builds the calibration trade at the quoted rate plus spread.
func (n IborFixingDepositNode) Trade(valuationDate time.Time, md marketdata.MarketData) (product.Trade, error) {
	r, err := n.rate(md)
	if err != nil {
		return nil, err
	}
	fixing, start, end := n.Template.dates(valuationDate)
	idx := n.Template.Index
	return product.IborFixingDeposit{
		Currency:     idx.Currency(),
		Index:        idx,
		FixingDate:   fixing,
		StartDate:    start,
		EndDate:      end,
		YearFraction: idx.DayCount.YearFraction(start, end),
		Rate:         r,
		Notional:     1,
		Projected:    true,
	}, nil
}

// InitialGuess is the quoted rate converted to the curve value type.
func (n IborFixingDepositNode) InitialGuess(valuationDate time.Time, md marketdata.MarketData, vt curve.ValueType) (float64, error) {
	return n.initialGuess(valuationDate, n.Date(valuationDate), md, vt)
}
