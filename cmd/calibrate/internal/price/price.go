package price

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/meenmo/curvecal/calibration"
	"github.com/meenmo/curvecal/cmd/calibrate/internal/curves"
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/internal/request"
	"github.com/meenmo/curvecal/internal/runner"
	"github.com/meenmo/curvecal/provider"
	"github.com/meenmo/curvecal/utils"
)

// Output is the JSON written to stdout.
type Output struct {
	RunID         string        `json:"run_id,omitempty"`
	ValuationDate string        `json:"valuation_date,omitempty"`
	Trades        []TradeOutput `json:"trades,omitempty"`
	Error         string        `json:"error,omitempty"`
}

type TradeOutput struct {
	Name          string  `json:"name"`
	PayLegPV      float64 `json:"pay_leg_pv"`
	RecLegPV      float64 `json:"rec_leg_pv"`
	TotalNPV      float64 `json:"total_npv"`
	ParRate       float64 `json:"par_rate"`
	EffectiveDate string  `json:"effective_date"`
	MaturityDate  string  `json:"maturity_date"`
	// QuoteDeltas is dNPV/dquote per calibrated curve, one entry per node.
	QuoteDeltas []CurveDelta `json:"quote_deltas,omitempty"`
}

type CurveDelta struct {
	Curve  string      `json:"curve"`
	Deltas []NodeDelta `json:"deltas"`
}

type NodeDelta struct {
	Label string  `json:"label"`
	Delta float64 `json:"delta"`
}

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("price", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "JSON or YAML input path (optional; if set, ignores stdin)")
	configPath := fs.String("config", "", "YAML config path (optional)")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *help {
		usage(stderr)
		return 0
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" {
		if f, ok := stdin.(*os.File); ok {
			if stat, err := f.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
				usage(stderr)
				return 2
			}
		}
	}

	env, err := runner.Setup(*configPath, nil)
	if err != nil {
		return writeError(stdout, err.Error())
	}
	defer env.Logger.Sync()

	inputBytes, err := curves.ReadInput(stdin, path)
	if err != nil {
		return writeError(stdout, fmt.Sprintf("failed to read input: %v", err))
	}
	req, err := request.Decode(inputBytes)
	if err != nil {
		return writeError(stdout, fmt.Sprintf("failed to parse input: %v", err))
	}
	if len(req.Trades) == 0 {
		return writeError(stdout, "no trades to price")
	}

	res, err := env.Calibrate(req)
	if err != nil {
		return writeError(stdout, err.Error())
	}

	output := Output{RunID: env.RunID, ValuationDate: res.ValuationDate.Format(utils.DateLayout)}
	for _, t := range req.Trades {
		to, err := priceTrade(t, res.Provider, env.Logger)
		if err != nil {
			return writeError(stdout, err.Error())
		}
		output.Trades = append(output.Trades, to)
	}

	outputBytes, _ := json.Marshal(output)
	fmt.Fprintln(stdout, string(outputBytes))
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  calibrate price < request.json")
	fmt.Fprintln(w, "  calibrate price -input request.yaml -config curvecal.yaml")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Calibrate the request's curve groups, then price its trades on them.")
	fmt.Fprintln(w, "Output JSON holds leg PVs, NPV, par rate and market quote deltas per trade.")
}

func writeError(stdout io.Writer, msg string) int {
	outputBytes, _ := json.Marshal(Output{Error: msg})
	fmt.Fprintln(stdout, string(outputBytes))
	return 1
}

func priceTrade(t request.Trade, p *provider.RatesProvider, logger *zap.Logger) (TradeOutput, error) {
	ps, err := t.BuildSwap(p.ValuationDate())
	if err != nil {
		return TradeOutput{}, err
	}
	s := ps.Swap

	fixedPV, err := s.Fixed.PresentValue(p)
	if err != nil {
		return TradeOutput{}, fmt.Errorf("trade %q: %w", t.Name, err)
	}
	floatPV, err := s.Floating.PresentValue(p)
	if err != nil {
		return TradeOutput{}, fmt.Errorf("trade %q: %w", t.Name, err)
	}
	spread, err := s.ParSpread(p)
	if err != nil {
		return TradeOutput{}, fmt.Errorf("trade %q: %w", t.Name, err)
	}

	out := TradeOutput{
		Name:          t.Name,
		TotalNPV:      fixedPV + floatPV,
		ParRate:       s.Fixed.Rate + spread,
		EffectiveDate: ps.EffectiveDate.Format(utils.DateLayout),
		MaturityDate:  ps.MaturityDate.Format(utils.DateLayout),
	}
	if s.Fixed.Pay {
		out.PayLegPV, out.RecLegPV = fixedPV, floatPV
	} else {
		out.PayLegPV, out.RecLegPV = floatPV, fixedPV
	}

	sens, err := s.PresentValueSensitivity(p)
	if err != nil {
		return TradeOutput{}, fmt.Errorf("trade %q: %w", t.Name, err)
	}
	quoteSens, err := calibration.MarketQuoteSensitivity(sens, p)
	if errors.Is(err, calibration.ErrMissingJacobian) {
		logger.Warn("quote deltas skipped", zap.String("trade", t.Name), zap.Error(err))
		return out, nil
	}
	if err != nil {
		return TradeOutput{}, fmt.Errorf("trade %q: %w", t.Name, err)
	}
	out.QuoteDeltas = curveDeltas(quoteSens, p)
	return out, nil
}

func curveDeltas(sens curve.ParameterSensitivities, p *provider.RatesProvider) []CurveDelta {
	var out []CurveDelta
	for _, name := range sens.Names() {
		var params []curve.ParameterMetadata
		if c, err := p.Curve(name); err == nil {
			params = c.Metadata().Parameters
		}
		cd := CurveDelta{Curve: string(name)}
		for i, v := range sens[name] {
			nd := NodeDelta{Delta: v}
			if i < len(params) {
				nd.Label = params[i].Label
			}
			cd.Deltas = append(cd.Deltas, nd)
		}
		out = append(out, cd)
	}
	return out
}
