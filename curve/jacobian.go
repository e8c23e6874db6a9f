package curve

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ParameterLayout maps curve names to contiguous column ranges.
type ParameterLayout struct {
	order  []ParameterSize
	starts map[Name]int
	total  int
}

// NewParameterLayout lays out the curves in the given order.
func NewParameterLayout(order []ParameterSize) ParameterLayout {
	l := ParameterLayout{
		order:  append([]ParameterSize(nil), order...),
		starts: make(map[Name]int, len(order)),
	}
	for _, ps := range order {
		l.starts[ps.Name] = l.total
		l.total += ps.ParameterCount
	}
	return l
}

// Range returns the half-open column range [start, end) of a curve.
func (l ParameterLayout) Range(name Name) (start, end int, ok bool) {
	start, ok = l.starts[name]
	if !ok {
		return 0, 0, false
	}
	for _, ps := range l.order {
		if ps.Name == name {
			return start, start + ps.ParameterCount, true
		}
	}
	return 0, 0, false
}

// Total is the sum of all parameter counts.
func (l ParameterLayout) Total() int { return l.total }

// Order returns a copy of the layout order.
func (l ParameterLayout) Order() []ParameterSize {
	return append([]ParameterSize(nil), l.order...)
}

// JacobianCalibrationMatrix is d(curve parameters)/d(market quotes) for one
// curve. Rows follow the curve's parameters; columns follow Order.
type JacobianCalibrationMatrix struct {
	Order  []ParameterSize
	Matrix *mat.Dense
}

// NewJacobianCalibrationMatrix checks that the column count matches order.
func NewJacobianCalibrationMatrix(order []ParameterSize, m *mat.Dense) (*JacobianCalibrationMatrix, error) {
	l := NewParameterLayout(order)
	if _, c := m.Dims(); c != l.Total() {
		return nil, fmt.Errorf("NewJacobianCalibrationMatrix: %d columns for %d parameters: %w", c, l.Total(), ErrParameterCount)
	}
	return &JacobianCalibrationMatrix{
		Order:  append([]ParameterSize(nil), order...),
		Matrix: mat.DenseCopyOf(m),
	}, nil
}

// Layout returns the column layout.
func (j *JacobianCalibrationMatrix) Layout() ParameterLayout {
	return NewParameterLayout(j.Order)
}

// Contains reports whether the Jacobian has columns for name.
func (j *JacobianCalibrationMatrix) Contains(name Name) bool {
	for _, ps := range j.Order {
		if ps.Name == name {
			return true
		}
	}
	return false
}

// ColumnBlock returns a copy of the columns belonging to name, or nil.
func (j *JacobianCalibrationMatrix) ColumnBlock(name Name) *mat.Dense {
	start, end, ok := j.Layout().Range(name)
	if !ok || end == start {
		return nil
	}
	r, _ := j.Matrix.Dims()
	return mat.DenseCopyOf(j.Matrix.Slice(0, r, start, end))
}

// MultiplyLeft returns sᵀ·J, the sensitivity to every column of the Jacobian.
func (j *JacobianCalibrationMatrix) MultiplyLeft(s []float64) ([]float64, error) {
	r, c := j.Matrix.Dims()
	if len(s) != r {
		return nil, fmt.Errorf("MultiplyLeft: %d values for %d rows: %w", len(s), r, ErrParameterCount)
	}
	out := mat.NewVecDense(c, nil)
	out.MulVec(j.Matrix.T(), mat.NewVecDense(r, append([]float64(nil), s...)))
	return out.RawVector().Data, nil
}
