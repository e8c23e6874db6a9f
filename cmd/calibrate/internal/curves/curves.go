package curves

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/meenmo/curvecal/config"
	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/internal/export"
	"github.com/meenmo/curvecal/internal/request"
	"github.com/meenmo/curvecal/internal/runner"
	"github.com/meenmo/curvecal/provider"
	"github.com/meenmo/curvecal/utils"
)

// Output is the JSON written to stdout.
type Output struct {
	RunID         string        `json:"run_id,omitempty"`
	ValuationDate string        `json:"valuation_date,omitempty"`
	Measures      string        `json:"measures,omitempty"`
	Curves        []CurveOutput `json:"curves,omitempty"`
	Error         string        `json:"error,omitempty"`
}

type CurveOutput struct {
	Name                 string        `json:"name"`
	ValueType            string        `json:"value_type"`
	Nodes                []NodeOutput  `json:"nodes"`
	JacobianOrder        []OrderOutput `json:"jacobian_order,omitempty"`
	Jacobian             [][]float64   `json:"jacobian,omitempty"`
	PVSensitivityToQuote []float64     `json:"pv_sensitivity_to_quote,omitempty"`
}

type NodeOutput struct {
	Label string  `json:"label"`
	Date  string  `json:"date"`
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

type OrderOutput struct {
	Curve      string `json:"curve"`
	Parameters int    `json:"parameters"`
}

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("curves", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "JSON or YAML input path (optional; if set, ignores stdin)")
	configPath := fs.String("config", "", "YAML config path (optional)")
	parquetPath := fs.String("jacobian-parquet", "", "Write Jacobians as parquet to this path (optional)")
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

	env, err := runner.Setup(*configPath, func(c *config.Config) {
		if p := strings.TrimSpace(*parquetPath); p != "" {
			c.Output.JacobianParquet = p
		}
	})
	if err != nil {
		return writeError(stdout, err.Error())
	}
	defer env.Logger.Sync()

	inputBytes, err := ReadInput(stdin, path)
	if err != nil {
		return writeError(stdout, fmt.Sprintf("failed to read input: %v", err))
	}
	req, err := request.Decode(inputBytes)
	if err != nil {
		return writeError(stdout, fmt.Sprintf("failed to parse input: %v", err))
	}

	res, err := env.Calibrate(req)
	if err != nil {
		return writeError(stdout, err.Error())
	}

	if p := env.Config.Output.JacobianParquet; p != "" {
		if err := writeParquet(p, env.RunID, res.Jacobians); err != nil {
			return writeError(stdout, err.Error())
		}
		env.Logger.Info("jacobians written", zap.String("path", p))
	}

	output := Output{
		RunID:         env.RunID,
		ValuationDate: res.ValuationDate.Format(utils.DateLayout),
		Measures:      res.Measures.Name(),
		Curves:        CurveOutputs(res.Provider),
	}
	outputBytes, _ := json.Marshal(output)
	fmt.Fprintln(stdout, string(outputBytes))
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  calibrate curves < request.json")
	fmt.Fprintln(w, "  calibrate curves -input request.yaml -config curvecal.yaml")
	fmt.Fprintln(w, "  calibrate curves -input request.json -jacobian-parquet jacobians.parquet")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Read a JSON or YAML request, calibrate its curve groups, output JSON to stdout.")
	fmt.Fprintln(w, "Quotes and fixings are also read from PostgreSQL when CURVECAL_DSN is set.")
}

// ReadInput reads path, or stdin when path is empty.
func ReadInput(stdin io.Reader, path string) ([]byte, error) {
	if path != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

func writeError(stdout io.Writer, msg string) int {
	outputBytes, _ := json.Marshal(Output{Error: msg})
	fmt.Fprintln(stdout, string(outputBytes))
	return 1
}

// CurveOutputs lists the provider's curves in name order.
func CurveOutputs(p *provider.RatesProvider) []CurveOutput {
	curves := p.Curves()
	names := make([]curve.Name, 0, len(curves))
	for n := range curves {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	out := make([]CurveOutput, 0, len(names))
	for _, name := range names {
		c := curves[name]
		md := c.Metadata()
		params := c.Parameters()
		var xs []float64
		if nodal, ok := c.(*curve.InterpolatedNodalCurve); ok {
			xs = nodal.XValues()
		}

		co := CurveOutput{
			Name:                 string(name),
			ValueType:            string(md.ValueType),
			PVSensitivityToQuote: md.PVSensitivityToQuote,
		}
		for i, v := range params {
			n := NodeOutput{Value: v}
			if i < len(md.Parameters) {
				n.Label = md.Parameters[i].Label
				n.Date = md.Parameters[i].Date.Format(utils.DateLayout)
			}
			if i < len(xs) {
				n.Time = xs[i]
			}
			co.Nodes = append(co.Nodes, n)
		}
		if jac := md.Jacobian; jac != nil {
			for _, ps := range jac.Order {
				co.JacobianOrder = append(co.JacobianOrder, OrderOutput{Curve: string(ps.Name), Parameters: ps.ParameterCount})
			}
			r, _ := jac.Matrix.Dims()
			for i := 0; i < r; i++ {
				co.Jacobian = append(co.Jacobian, jac.Matrix.RawRowView(i))
			}
		}
		out = append(out, co)
	}
	return out
}

func writeParquet(path, runID string, jacobians map[curve.Name]*curve.JacobianCalibrationMatrix) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteJacobians(f, runID, jacobians); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
