package request

import (
	"fmt"
	"strings"
	"time"

	"github.com/meenmo/curvecal/market"
	"github.com/meenmo/curvecal/node"
	"github.com/meenmo/curvecal/product"
	"github.com/meenmo/curvecal/utils"
)

// Trade is a swap to price on calibrated curves. Rates and spreads are
// decimals. Direction is PAY (pay fixed) or REC (receive fixed).
type Trade struct {
	Name          string  `json:"name" yaml:"name"`
	Kind          string  `json:"kind" yaml:"kind"`
	Convention    string  `json:"convention" yaml:"convention"`
	PeriodToStart string  `json:"period_to_start" yaml:"period_to_start"`
	Tenor         string  `json:"tenor" yaml:"tenor"`
	Notional      float64 `json:"notional" yaml:"notional"`
	Direction     string  `json:"direction" yaml:"direction"`
	FixedRate     float64 `json:"fixed_rate" yaml:"fixed_rate"`
	FloatSpread   float64 `json:"float_spread" yaml:"float_spread"`
}

// PricedSwap is a trade resolved against a valuation date.
type PricedSwap struct {
	Swap          product.Swap
	EffectiveDate time.Time
	MaturityDate  time.Time
}

type swapTemplate interface {
	Dates(valuationDate time.Time) (time.Time, time.Time)
	CreateTrade(valuationDate time.Time, tp node.SwapTradeParams) (product.Swap, error)
}

// BuildSwap resolves the convention and tenors of t and creates the swap.
func (t Trade) BuildSwap(valuationDate time.Time) (PricedSwap, error) {
	if t.Notional == 0 {
		return PricedSwap{}, fmt.Errorf("trade %q: notional is required", t.Name)
	}
	payFixed, err := parseDirection(t.Direction)
	if err != nil {
		return PricedSwap{}, fmt.Errorf("trade %q: %w", t.Name, err)
	}
	tmpl, err := t.template()
	if err != nil {
		return PricedSwap{}, fmt.Errorf("trade %q: %w", t.Name, err)
	}
	s, err := tmpl.CreateTrade(valuationDate, node.SwapTradeParams{
		Name:        t.Name,
		FixedRate:   t.FixedRate,
		FloatSpread: t.FloatSpread,
		Notional:    t.Notional,
		PayFixed:    payFixed,
	})
	if err != nil {
		return PricedSwap{}, fmt.Errorf("trade %q: %w", t.Name, err)
	}
	effective, maturity := tmpl.Dates(valuationDate)
	return PricedSwap{Swap: s, EffectiveDate: effective, MaturityDate: maturity}, nil
}

func (t Trade) template() (swapTemplate, error) {
	tenor, err := utils.ParseTenor(t.Tenor)
	if err != nil {
		return nil, err
	}
	var periodToStart utils.Tenor
	if t.PeriodToStart != "" {
		if periodToStart, err = utils.ParseTenor(t.PeriodToStart); err != nil {
			return nil, err
		}
	}

	switch t.Kind {
	case KindFixedIborSwap:
		conv, err := market.FixedIborSwapConventionByName(t.Convention)
		if err != nil {
			return nil, err
		}
		return node.FixedIborSwapTemplate{Convention: conv, PeriodToStart: periodToStart, Tenor: tenor}, nil
	case KindFixedOvernightSwap:
		conv, err := market.FixedOvernightSwapConventionByName(t.Convention)
		if err != nil {
			return nil, err
		}
		return node.FixedOvernightSwapTemplate{Convention: conv, PeriodToStart: periodToStart, Tenor: tenor}, nil
	default:
		return nil, fmt.Errorf("unsupported trade kind %q", t.Kind)
	}
}

func parseDirection(s string) (bool, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "PAY", "PAY_FIXED":
		return true, nil
	case "REC", "REC_FIXED":
		return false, nil
	default:
		return false, fmt.Errorf("invalid direction %q (use PAY or REC)", s)
	}
}
