// Package rootfind solves F(x) = 0 for vector functions.
package rootfind

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/meenmo/curvecal/linalg"
)

// VectorFunction is the residual F(x).
type VectorFunction func(x []float64) ([]float64, error)

// JacobianFunction is dF/dx at x, rows follow F and columns follow x.
type JacobianFunction func(x []float64) (*mat.Dense, error)

// Tolerances bound the solve.
type Tolerances struct {
	Absolute float64
	Relative float64
	MaxSteps int
}

// DefaultTolerances returns 1e-9 absolute and relative residual tolerances
// with at most 1000 steps.
func DefaultTolerances() Tolerances {
	return Tolerances{Absolute: 1e-9, Relative: 1e-9, MaxSteps: 1000}
}

const (
	armijo         = 1e-4
	maxLineSearch  = 30
	backtrackRatio = 0.5
)

// Result is a converged root and how it was reached.
type Result struct {
	X                   []float64
	Steps               int
	JacobianEvaluations int
	ResidualNorm        float64
}

// BroydenVectorRootFinder is a quasi-Newton solver. Each step solves
// J·Δx = -F through an SVD, backtracks on ½‖F‖², then applies the rank-one
// Broyden update. The exact Jacobian is re-evaluated whenever an updated
// Jacobian fails to produce a decreasing step.
type BroydenVectorRootFinder struct {
	AbsoluteTolerance float64
	RelativeTolerance float64
	MaxSteps          int

	logger *zap.Logger
}

// Option configures a BroydenVectorRootFinder.
type Option func(*BroydenVectorRootFinder)

// WithLogger sets the logger used for per-step diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(b *BroydenVectorRootFinder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBroydenVectorRootFinder builds a solver from tolerances.
func NewBroydenVectorRootFinder(tol Tolerances, opts ...Option) *BroydenVectorRootFinder {
	b := &BroydenVectorRootFinder{
		AbsoluteTolerance: tol.Absolute,
		RelativeTolerance: tol.Relative,
		MaxSteps:          tol.MaxSteps,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// FindRoot returns x with F(x) ≈ 0. A nil j uses central finite differences.
func (b *BroydenVectorRootFinder) FindRoot(f VectorFunction, j JacobianFunction, x0 []float64) ([]float64, error) {
	res, err := b.Solve(f, j, x0)
	if err != nil {
		return nil, err
	}
	return res.X, nil
}

// Solve is FindRoot with iteration statistics.
func (b *BroydenVectorRootFinder) Solve(f VectorFunction, j JacobianFunction, x0 []float64) (Result, error) {
	if j == nil {
		j = FiniteDifferenceJacobian(f, defaultBump)
	}
	n := len(x0)
	x := append([]float64(nil), x0...)
	fx, err := evaluate(f, x, n)
	if err != nil {
		return Result{}, fmt.Errorf("FindRoot: initial point: %w", err)
	}
	norm := floats.Norm(fx, 2)
	target := b.target(norm)
	if norm <= target {
		return Result{X: x, ResidualNorm: norm}, nil
	}

	jac, err := jacobian(j, x, n)
	if err != nil {
		return Result{}, fmt.Errorf("FindRoot: %w", err)
	}
	jevals := 1
	updated := false

	for step := 1; step <= b.MaxSteps; step++ {
		dx, err := linalg.Solve(jac, scaled(-1, fx))
		if err != nil {
			if updated && errors.Is(err, linalg.ErrSingular) {
				if jac, err = jacobian(j, x, n); err != nil {
					return Result{}, fmt.Errorf("FindRoot: step %d: %w", step, err)
				}
				jevals++
				updated = false
				continue
			}
			return Result{}, fmt.Errorf("FindRoot: step %d: %w", step, err)
		}

		xn, fn, lambda, err := lineSearch(f, x, dx, fx, n)
		if err != nil {
			return Result{}, fmt.Errorf("FindRoot: step %d: %w", step, err)
		}
		if fn == nil {
			if !updated && norm <= b.AbsoluteTolerance {
				// The relative target is below the rounding floor of F.
				b.logger.Debug("stalled under absolute tolerance", zap.Int("step", step), zap.Float64("residual", norm))
				return Result{X: x, Steps: step - 1, JacobianEvaluations: jevals, ResidualNorm: norm}, nil
			}
			if !updated {
				return Result{}, fmt.Errorf("FindRoot: step %d: no decrease along Newton direction, residual %g: %w", step, norm, ErrNotConverged)
			}
			b.logger.Debug("line search failed, recomputing jacobian", zap.Int("step", step), zap.Float64("residual", norm))
			if jac, err = jacobian(j, x, n); err != nil {
				return Result{}, fmt.Errorf("FindRoot: step %d: %w", step, err)
			}
			jevals++
			updated = false
			continue
		}

		broydenUpdate(jac, floats.ScaleTo(make([]float64, n), lambda, dx), floats.SubTo(make([]float64, len(fn)), fn, fx))
		updated = true
		x, fx = xn, fn
		norm = floats.Norm(fx, 2)
		b.logger.Debug("broyden step", zap.Int("step", step), zap.Float64("residual", norm), zap.Float64("lambda", lambda))
		if norm <= target {
			return Result{X: x, Steps: step, JacobianEvaluations: jevals, ResidualNorm: norm}, nil
		}
	}
	return Result{}, fmt.Errorf("FindRoot: %d steps, residual %g above %g: %w", b.MaxSteps, norm, target, ErrNotConverged)
}

// target is the residual norm under which both ‖F‖ ≤ absolute and
// ‖F‖/‖F(x0)‖ ≤ relative hold.
func (b *BroydenVectorRootFinder) target(norm0 float64) float64 {
	return math.Min(b.AbsoluteTolerance, b.RelativeTolerance*norm0)
}

// lineSearch backtracks from the full step until the Armijo condition holds on
// g = ½‖F‖². A nil residual means no acceptable step was found.
func lineSearch(f VectorFunction, x, dx, fx []float64, n int) ([]float64, []float64, float64, error) {
	g0 := 0.5 * floats.Dot(fx, fx)
	lambda := 1.0
	var lastErr error
	nonFinite := 0
	for i := 0; i < maxLineSearch; i++ {
		xn := floats.AddScaledTo(make([]float64, n), x, lambda, dx)
		fn, err := evaluate(f, xn, n)
		switch {
		case err == nil:
			if 0.5*floats.Dot(fn, fn) <= (1-2*armijo*lambda)*g0 {
				return xn, fn, lambda, nil
			}
		case errors.Is(err, ErrNonFinite):
			lastErr = err
			nonFinite++
		default:
			return nil, nil, 0, err
		}
		lambda *= backtrackRatio
	}
	if nonFinite == maxLineSearch {
		return nil, nil, 0, lastErr
	}
	return nil, nil, 0, nil
}

// broydenUpdate applies J += (dy - J·dx)·dxᵀ / (dx·dx) in place.
func broydenUpdate(jac *mat.Dense, dx, dy []float64) {
	dd := floats.Dot(dx, dx)
	if dd == 0 {
		return
	}
	r, _ := jac.Dims()
	jdx := mat.NewVecDense(r, nil)
	jdx.MulVec(jac, mat.NewVecDense(len(dx), dx))
	u := mat.NewVecDense(r, nil)
	u.SubVec(mat.NewVecDense(r, dy), jdx)
	jac.RankOne(jac, 1/dd, u, mat.NewVecDense(len(dx), dx))
}

func evaluate(f VectorFunction, x []float64, n int) ([]float64, error) {
	fx, err := f(x)
	if err != nil {
		return nil, err
	}
	if len(fx) != n {
		return nil, fmt.Errorf("residual length %d for %d unknowns: %w", len(fx), n, ErrDimension)
	}
	if floats.HasNaN(fx) || hasInf(fx) {
		return nil, fmt.Errorf("residual %v: %w", fx, ErrNonFinite)
	}
	return fx, nil
}

func jacobian(j JacobianFunction, x []float64, n int) (*mat.Dense, error) {
	jac, err := j(x)
	if err != nil {
		return nil, err
	}
	if r, c := jac.Dims(); r != n || c != n {
		return nil, fmt.Errorf("jacobian %dx%d for %d unknowns: %w", r, c, n, ErrDimension)
	}
	raw := jac.RawMatrix()
	for i := 0; i < raw.Rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+raw.Cols]
		if floats.HasNaN(row) || hasInf(row) {
			return nil, fmt.Errorf("jacobian row %d: %w", i, ErrNonFinite)
		}
	}
	return mat.DenseCopyOf(jac), nil
}

func hasInf(s []float64) bool {
	for _, v := range s {
		if math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func scaled(c float64, s []float64) []float64 {
	return floats.ScaleTo(make([]float64, len(s)), c, s)
}
