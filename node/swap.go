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

// swapDates returns the unadjusted effective and maturity dates of a spot or
// forward-starting swap.
func swapDates(valuationDate time.Time, cal calendar.CalendarID, spotLag int, periodToStart, tenor utils.Tenor) (time.Time, time.Time) {
	effective := calendar.AddBusinessDays(cal, valuationDate, spotLag)
	if !periodToStart.IsZero() {
		effective = calendar.Adjust(cal, periodToStart.AddTo(effective))
	}
	return effective, tenor.AddTo(effective)
}

func tenorLabel(periodToStart, tenor utils.Tenor) string {
	if periodToStart.IsZero() {
		return tenor.String()
	}
	return fmt.Sprintf("%sx%s", periodToStart, periodToStart.Plus(tenor))
}

func fixedSchedule(c market.FixedLegConvention, dir market.ScheduleDirection, effective, maturity time.Time) ([]product.SchedulePeriod, error) {
	return product.GenerateSchedule(effective, maturity, product.ScheduleParams{
		Frequency:    c.PayFrequency,
		Calendar:     c.Calendar,
		DayCount:     c.DayCount,
		PayDelayDays: c.PayDelayDays,
		EndOfMonth:   c.EndOfMonth,
		Direction:    dir,
	})
}

// SwapTradeParams sizes a swap built from a template. The floating leg takes
// the opposite direction of the fixed leg.
type SwapTradeParams struct {
	Name        string
	FixedRate   float64
	FloatSpread float64
	Notional    float64
	PayFixed    bool
}

// FixedIborSwapTemplate is a spot or forward-starting fixed-vs-IBOR swap.
type FixedIborSwapTemplate struct {
	Convention    market.FixedIborSwapConvention
	PeriodToStart utils.Tenor
	Tenor         utils.Tenor
}

// Dates returns the effective date and the adjusted maturity date.
func (t FixedIborSwapTemplate) Dates(valuationDate time.Time) (time.Time, time.Time) {
	c := t.Convention
	effective, maturity := swapDates(valuationDate, c.FixedLeg.Calendar, c.SpotLagDays, t.PeriodToStart, t.Tenor)
	return effective, calendar.Adjust(c.FixedLeg.Calendar, maturity)
}

// CreateTrade builds the swap for the valuation date.
func (t FixedIborSwapTemplate) CreateTrade(valuationDate time.Time, tp SwapTradeParams) (product.Swap, error) {
	c := t.Convention
	effective, maturity := swapDates(valuationDate, c.FixedLeg.Calendar, c.SpotLagDays, t.PeriodToStart, t.Tenor)
	fixedPeriods, err := fixedSchedule(c.FixedLeg, c.Direction, effective, maturity)
	if err != nil {
		return product.Swap{}, fmt.Errorf("CreateTrade: fixed leg: %w", err)
	}
	idx := c.FloatLeg.Index
	floatPeriods, err := product.GenerateSchedule(effective, maturity, product.ScheduleParams{
		Frequency:     c.FloatLeg.PayFrequency,
		Calendar:      idx.Calendar,
		DayCount:      idx.DayCount,
		PayDelayDays:  c.FloatLeg.PayDelayDays,
		FixingLagDays: idx.FixingLagDays,
		EndOfMonth:    c.FloatLeg.EndOfMonth,
		Direction:     c.Direction,
	})
	if err != nil {
		return product.Swap{}, fmt.Errorf("CreateTrade: floating leg: %w", err)
	}
	return product.Swap{
		Name:  tp.Name,
		Fixed: product.FixedLeg{Ccy: c.FixedLeg.Currency, Periods: fixedPeriods, Rate: tp.FixedRate, Notional: tp.Notional, Pay: tp.PayFixed},
		Floating: product.IborLeg{
			Ccy:      idx.Currency(),
			Index:    idx,
			Periods:  floatPeriods,
			Spread:   tp.FloatSpread,
			Notional: tp.Notional,
			Pay:      !tp.PayFixed,
		},
	}, nil
}

// FixedIborSwapNode quotes the fixed rate of a payer swap.
type FixedIborSwapNode struct {
	quoted
	Template FixedIborSwapTemplate
}

// NewFixedIborSwapNode builds a node; an empty label defaults to the swap tenor.
func NewFixedIborSwapNode(tmpl FixedIborSwapTemplate, id marketdata.QuoteID, spread float64, label string) FixedIborSwapNode {
	if label == "" {
		label = tenorLabel(tmpl.PeriodToStart, tmpl.Tenor)
	}
	return FixedIborSwapNode{quoted: quoted{QuoteID: id, AdditionalSpread: spread, NodeLabel: label}, Template: tmpl}
}

// Label names the node in metadata and errors.
func (n FixedIborSwapNode) Label() string { return n.NodeLabel }

// Date is the node date the curve parameter sits at.
func (n FixedIborSwapNode) Date(valuationDate time.Time) time.Time {
	_, maturity := n.Template.Dates(valuationDate)
	return maturity
}

// Metadata describes the parameter for Jacobian and risk output.
func (n FixedIborSwapNode) Metadata(valuationDate time.Time) curve.ParameterMetadata {
	return n.metadata(n.Date(valuationDate), tenorLabel(n.Template.PeriodToStart, n.Template.Tenor))
}

// Trade builds the calibration trade at the quoted rate plus spread.
func (n FixedIborSwapNode) Trade(valuationDate time.Time, md marketdata.MarketData) (product.Trade, error) {
	r, err := n.rate(md)
	if err != nil {
		return nil, err
	}
	s, err := n.Template.CreateTrade(valuationDate, SwapTradeParams{Name: n.NodeLabel, FixedRate: r, Notional: 1, PayFixed: true})
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", n.NodeLabel, err)
	}
	return s, nil
}

// InitialGuess is the quoted rate converted to the curve value type.
func (n FixedIborSwapNode) InitialGuess(valuationDate time.Time, md marketdata.MarketData, vt curve.ValueType) (float64, error) {
	return n.initialGuess(valuationDate, n.Date(valuationDate), md, vt)
}

// FixedOvernightSwapTemplate is a spot or forward-starting OIS.
type FixedOvernightSwapTemplate struct {
	Convention    market.FixedOvernightSwapConvention
	PeriodToStart utils.Tenor
	Tenor         utils.Tenor
}

// Dates returns the effective date and the adjusted maturity date.
func (t FixedOvernightSwapTemplate) Dates(valuationDate time.Time) (time.Time, time.Time) {
	c := t.Convention
	effective, maturity := swapDates(valuationDate, c.FixedLeg.Calendar, c.SpotLagDays, t.PeriodToStart, t.Tenor)
	return effective, calendar.Adjust(c.FixedLeg.Calendar, maturity)
}

// CreateTrade builds the OIS for the valuation date.
func (t FixedOvernightSwapTemplate) CreateTrade(valuationDate time.Time, tp SwapTradeParams) (product.Swap, error) {
	c := t.Convention
	effective, maturity := swapDates(valuationDate, c.FixedLeg.Calendar, c.SpotLagDays, t.PeriodToStart, t.Tenor)
	fixedPeriods, err := fixedSchedule(c.FixedLeg, c.Direction, effective, maturity)
	if err != nil {
		return product.Swap{}, fmt.Errorf("CreateTrade: fixed leg: %w", err)
	}
	idx := c.FloatLeg.Index
	floatPeriods, err := product.GenerateSchedule(effective, maturity, product.ScheduleParams{
		Frequency:    c.FloatLeg.PayFrequency,
		Calendar:     idx.Calendar,
		DayCount:     idx.DayCount,
		PayDelayDays: c.FloatLeg.PayDelayDays,
		EndOfMonth:   c.FloatLeg.EndOfMonth,
		Direction:    c.Direction,
	})
	if err != nil {
		return product.Swap{}, fmt.Errorf("CreateTrade: overnight leg: %w", err)
	}
	return product.Swap{
		Name:  tp.Name,
		Fixed: product.FixedLeg{Ccy: c.FixedLeg.Currency, Periods: fixedPeriods, Rate: tp.FixedRate, Notional: tp.Notional, Pay: tp.PayFixed},
		Floating: product.OvernightLeg{
			Ccy:      idx.Currency(),
			Index:    idx,
			Periods:  floatPeriods,
			Spread:   tp.FloatSpread,
			Notional: tp.Notional,
			Pay:      !tp.PayFixed,
		},
	}, nil
}

// FixedOvernightSwapNode quotes the fixed rate of a payer OIS.
type FixedOvernightSwapNode struct {
	quoted
	Template FixedOvernightSwapTemplate
}

// NewFixedOvernightSwapNode builds a node; an empty label defaults to the swap tenor.
func NewFixedOvernightSwapNode(tmpl FixedOvernightSwapTemplate, id marketdata.QuoteID, spread float64, label string) FixedOvernightSwapNode {
	if label == "" {
		label = tenorLabel(tmpl.PeriodToStart, tmpl.Tenor)
	}
	return FixedOvernightSwapNode{quoted: quoted{QuoteID: id, AdditionalSpread: spread, NodeLabel: label}, Template: tmpl}
}

// Label names the node in metadata and errors.
func (n FixedOvernightSwapNode) Label() string { return n.NodeLabel }

// Date is the node date the curve parameter sits at.
func (n FixedOvernightSwapNode) Date(valuationDate time.Time) time.Time {
	_, maturity := n.Template.Dates(valuationDate)
	return maturity
}

// Metadata describes the parameter for Jacobian and risk output.
func (n FixedOvernightSwapNode) Metadata(valuationDate time.Time) curve.ParameterMetadata {
	return n.metadata(n.Date(valuationDate), tenorLabel(n.Template.PeriodToStart, n.Template.Tenor))
}

// Trade builds the calibration trade at the quoted rate plus spread.
func (n FixedOvernightSwapNode) Trade(valuationDate time.Time, md marketdata.MarketData) (product.Trade, error) {
	r, err := n.rate(md)
	if err != nil {
		return nil, err
	}
	s, err := n.Template.CreateTrade(valuationDate, SwapTradeParams{Name: n.NodeLabel, FixedRate: r, Notional: 1, PayFixed: true})
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", n.NodeLabel, err)
	}
	return s, nil
}

// InitialGuess is the quoted rate converted to the curve value type.
func (n FixedOvernightSwapNode) InitialGuess(valuationDate time.Time, md marketdata.MarketData, vt curve.ValueType) (float64, error) {
	return n.initialGuess(valuationDate, n.Date(valuationDate), md, vt)
}
