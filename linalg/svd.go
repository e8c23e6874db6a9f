// Package linalg wraps the gonum SVD used for the calibration solves.
package linalg

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrSingular is returned when the smallest singular value is negligible
// relative to the largest.
var ErrSingular = errors.New("linalg: matrix is singular")

// ErrNotSquare is returned by Inverse for non-square input.
var ErrNotSquare = errors.New("linalg: matrix is not square")

// SVDDecomposition is the thin SVD A = U·Σ·Vᵀ of a square or tall matrix.
type SVDDecomposition struct {
	u, v mat.Dense
	sv   []float64
	rows int
	cols int
	cond float64
}

// DefaultConditionTolerance scales the singularity threshold n·eps·σ_max.
const DefaultConditionTolerance = 1.0

const eps = 2.220446049250313e-16

// Decompose factorizes a and rejects rank-deficient input.
func Decompose(a mat.Matrix) (*SVDDecomposition, error) {
	r, c := a.Dims()
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("Decompose: %dx%d factorization failed: %w", r, c, ErrSingular)
	}
	d := &SVDDecomposition{sv: svd.Values(nil), rows: r, cols: c}
	svd.UTo(&d.u)
	svd.VTo(&d.v)

	n := r
	if c > n {
		n = c
	}
	smax := d.sv[0]
	smin := d.sv[len(d.sv)-1]
	if math.IsNaN(smax) || math.IsInf(smax, 0) {
		return nil, fmt.Errorf("Decompose: non-finite singular values: %w", ErrSingular)
	}
	threshold := DefaultConditionTolerance * float64(n) * eps * smax
	if smax == 0 || smin <= threshold {
		return nil, fmt.Errorf("Decompose: smallest singular value %g <= %g: %w", smin, threshold, ErrSingular)
	}
	d.cond = smax / smin
	return d, nil
}

// Condition is σ_max/σ_min.
func (d *SVDDecomposition) Condition() float64 { return d.cond }

// SingularValues returns a copy of σ in descending order.
func (d *SVDDecomposition) SingularValues() []float64 {
	return append([]float64(nil), d.sv...)
}

// Solve returns the least-squares solution x of A·x = b, i.e. V·Σ⁻¹·Uᵀ·b.
func (d *SVDDecomposition) Solve(b []float64) ([]float64, error) {
	if len(b) != d.rows {
		return nil, fmt.Errorf("Solve: rhs length %d, want %d", len(b), d.rows)
	}
	utb := mat.NewVecDense(len(d.sv), nil)
	utb.MulVec(d.u.T(), mat.NewVecDense(len(b), append([]float64(nil), b...)))
	for i, s := range d.sv {
		utb.SetVec(i, utb.AtVec(i)/s)
	}
	x := mat.NewVecDense(d.cols, nil)
	x.MulVec(&d.v, utb)
	return x.RawVector().Data, nil
}

// Inverse returns V·Σ⁻¹·Uᵀ; A must be square.
func (d *SVDDecomposition) Inverse() (*mat.Dense, error) {
	if d.rows != d.cols {
		return nil, fmt.Errorf("Inverse: %dx%d: %w", d.rows, d.cols, ErrNotSquare)
	}
	k := len(d.sv)
	vs := mat.NewDense(d.cols, k, nil)
	vs.Apply(func(_, j int, v float64) float64 { return v / d.sv[j] }, &d.v)
	inv := mat.NewDense(d.cols, d.rows, nil)
	inv.Mul(vs, d.u.T())
	return inv, nil
}

// Solve factorizes a and solves a·x = b in one call.
func Solve(a mat.Matrix, b []float64) ([]float64, error) {
	d, err := Decompose(a)
	if err != nil {
		return nil, err
	}
	return d.Solve(b)
}

// Inverse factorizes a and returns its inverse.
func Inverse(a mat.Matrix) (*mat.Dense, error) {
	d, err := Decompose(a)
	if err != nil {
		return nil, err
	}
	return d.Inverse()
}
