package calibration

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvecal/curve"
	"github.com/meenmo/curvecal/linalg"
)

// TransitionMatrix stacks the Jacobians of previously calibrated curves into
// one square matrix over orderPrev. Block (i, j) holds the columns of J_i
// that belong to curve j, or zeros when J_i was calibrated without j.
func TransitionMatrix(orderPrev []curve.ParameterSize, jacobians map[curve.Name]*curve.JacobianCalibrationMatrix) (*mat.Dense, error) {
	layout := curve.NewParameterLayout(orderPrev)
	n := layout.Total()
	if n == 0 {
		return nil, nil
	}
	t := mat.NewDense(n, n, nil)
	for _, row := range orderPrev {
		jac, ok := jacobians[row.Name]
		if !ok || jac == nil {
			return nil, fmt.Errorf("TransitionMatrix: %s: %w", row.Name, ErrMissingJacobian)
		}
		r0, r1, _ := layout.Range(row.Name)
		for _, col := range orderPrev {
			block := jac.ColumnBlock(col.Name)
			if block == nil {
				continue
			}
			c0, c1, _ := layout.Range(col.Name)
			br, bc := block.Dims()
			if br != r1-r0 || bc != c1-c0 {
				return nil, fmt.Errorf("TransitionMatrix: block %s/%s is %dx%d, want %dx%d: %w",
					row.Name, col.Name, br, bc, r1-r0, c1-c0, curve.ErrParameterCount)
			}
			t.Slice(r0, r1, c0, c1).(*mat.Dense).Copy(block)
		}
	}
	return t, nil
}

// ComposeJacobians computes d(parameters)/d(quotes) for the curves of a newly
// calibrated group. derivatives has one row per group trade and columns laid
// out as orderPrev followed by orderGroup. With D the block over the group
// parameters and C the block over earlier parameters, the group Jacobian is
// [-D⁻¹·C·T | D⁻¹] where T is the transition matrix of orderPrev.
func ComposeJacobians(
	derivatives *mat.Dense,
	orderGroup, orderPrev []curve.ParameterSize,
	jacobians map[curve.Name]*curve.JacobianCalibrationMatrix,
) (map[curve.Name]*curve.JacobianCalibrationMatrix, error) {
	nPrev := curve.NewParameterLayout(orderPrev).Total()
	groupLayout := curve.NewParameterLayout(orderGroup)
	nGroup := groupLayout.Total()
	rows, cols := derivatives.Dims()
	if rows != nGroup || cols != nPrev+nGroup {
		return nil, fmt.Errorf("ComposeJacobians: derivatives %dx%d, want %dx%d: %w", rows, cols, nGroup, nPrev+nGroup, curve.ErrParameterCount)
	}

	direct, err := linalg.Inverse(derivatives.Slice(0, nGroup, nPrev, nPrev+nGroup))
	if err != nil {
		return nil, fmt.Errorf("ComposeJacobians: direct block: %w", err)
	}

	full := mat.NewDense(nGroup, nPrev+nGroup, nil)
	full.Slice(0, nGroup, nPrev, nPrev+nGroup).(*mat.Dense).Copy(direct)
	if nPrev > 0 {
		t, err := TransitionMatrix(orderPrev, jacobians)
		if err != nil {
			return nil, fmt.Errorf("ComposeJacobians: %w", err)
		}
		var ct, indirect mat.Dense
		ct.Mul(derivatives.Slice(0, nGroup, 0, nPrev), t)
		indirect.Mul(direct, &ct)
		indirect.Scale(-1, &indirect)
		full.Slice(0, nGroup, 0, nPrev).(*mat.Dense).Copy(&indirect)
	}

	order := append(append([]curve.ParameterSize(nil), orderPrev...), orderGroup...)
	out := make(map[curve.Name]*curve.JacobianCalibrationMatrix, len(orderGroup))
	for _, ps := range orderGroup {
		r0, r1, _ := groupLayout.Range(ps.Name)
		jac, err := curve.NewJacobianCalibrationMatrix(order, mat.DenseCopyOf(full.Slice(r0, r1, 0, nPrev+nGroup)))
		if err != nil {
			return nil, fmt.Errorf("ComposeJacobians: %s: %w", ps.Name, err)
		}
		out[ps.Name] = jac
	}
	return out, nil
}

// MarketQuoteSensitivity converts a sensitivity to curve parameters into a
// sensitivity to the market quotes the curves were calibrated on, keyed by
// the curve whose nodes hold the quotes.
func MarketQuoteSensitivity(paramSens curve.ParameterSensitivities, p providerCurves) (curve.ParameterSensitivities, error) {
	out := curve.ParameterSensitivities{}
	for _, name := range paramSens.Names() {
		c, err := p.Curve(name)
		if err != nil {
			return nil, fmt.Errorf("MarketQuoteSensitivity: %w", err)
		}
		jac := c.Metadata().Jacobian
		if jac == nil {
			return nil, fmt.Errorf("MarketQuoteSensitivity: %s: %w", name, ErrMissingJacobian)
		}
		row, err := jac.MultiplyLeft(paramSens[name])
		if err != nil {
			return nil, fmt.Errorf("MarketQuoteSensitivity: %s: %w", name, err)
		}
		layout := jac.Layout()
		for _, ps := range jac.Order {
			start, end, _ := layout.Range(ps.Name)
			if err := out.Add(ps.Name, row[start:end]); err != nil {
				return nil, fmt.Errorf("MarketQuoteSensitivity: %w", err)
			}
		}
	}
	return out, nil
}

// providerCurves is the part of provider.RatesProvider MarketQuoteSensitivity reads.
type providerCurves interface {
	Curve(name curve.Name) (curve.Curve, error)
}
