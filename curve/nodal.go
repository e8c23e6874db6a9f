package curve

import (
	"fmt"
)

// InterpolatedNodalCurve interpolates parameter values placed at fixed x-values.
type InterpolatedNodalCurve struct {
	md     Metadata
	xs     []float64
	ys     []float64
	interp Interpolator
	left   Extrapolator
	right  Extrapolator
}

// NewInterpolatedNodalCurve validates the nodes and copies the slices.
func NewInterpolatedNodalCurve(md Metadata, xs, ys []float64, interp Interpolator, left, right Extrapolator) (*InterpolatedNodalCurve, error) {
	if len(xs) == 0 || len(xs) != len(ys) {
		return nil, fmt.Errorf("NewInterpolatedNodalCurve: %s: %d x, %d y: %w", md.Name, len(xs), len(ys), ErrNodeCount)
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return nil, fmt.Errorf("NewInterpolatedNodalCurve: %s: x[%d]=%g after %g: %w", md.Name, i, xs[i], xs[i-1], ErrNodeOrder)
		}
	}
	if interp == nil {
		interp = Linear
	}
	if left == nil {
		left = Flat
	}
	if right == nil {
		right = Flat
	}
	return &InterpolatedNodalCurve{
		md:     md,
		xs:     append([]float64(nil), xs...),
		ys:     append([]float64(nil), ys...),
		interp: interp,
		left:   left,
		right:  right,
	}, nil
}

func (c *InterpolatedNodalCurve) Name() Name          { return c.md.Name }
func (c *InterpolatedNodalCurve) Metadata() Metadata  { return c.md }
func (c *InterpolatedNodalCurve) ParameterCount() int { return len(c.ys) }

func (c *InterpolatedNodalCurve) Parameters() []float64 {
	return append([]float64(nil), c.ys...)
}

// XValues returns a copy of the node x-values.
func (c *InterpolatedNodalCurve) XValues() []float64 {
	return append([]float64(nil), c.xs...)
}

func (c *InterpolatedNodalCurve) YValue(x float64) float64 {
	y, _ := c.evaluate(x)
	return y
}

func (c *InterpolatedNodalCurve) YValueParameterSensitivity(x float64) []float64 {
	_, s := c.evaluate(x)
	return s
}

func (c *InterpolatedNodalCurve) evaluate(x float64) (float64, []float64) {
	n := len(c.xs)
	if n == 1 {
		return c.ys[0], []float64{1}
	}
	switch {
	case x < c.xs[0]:
		return c.left.extrapolate(c, x, true)
	case x > c.xs[n-1]:
		return c.right.extrapolate(c, x, false)
	}
	return c.segment(findSegment(c.xs, x), x)
}

// segment applies the interpolator on [xs[i], xs[i+1]] for any x.
func (c *InterpolatedNodalCurve) segment(i int, x float64) (float64, []float64) {
	w := (x - c.xs[i]) / (c.xs[i+1] - c.xs[i])
	yl, yr := c.ys[i], c.ys[i+1]
	sens := make([]float64, len(c.ys))
	sens[i], sens[i+1] = c.interp.weights(yl, yr, w)
	return c.interp.interpolate(yl, yr, w), sens
}

func (c *InterpolatedNodalCurve) WithParameters(params []float64) (Curve, error) {
	if len(params) != len(c.ys) {
		return nil, fmt.Errorf("WithParameters: %s: got %d want %d: %w", c.md.Name, len(params), len(c.ys), ErrParameterCount)
	}
	out := *c
	out.ys = append([]float64(nil), params...)
	return &out, nil
}

func (c *InterpolatedNodalCurve) WithMetadata(md Metadata) Curve {
	out := *c
	out.md = md
	return &out
}

// ConstantCurve has a single parameter and the same value everywhere.
type ConstantCurve struct {
	md    Metadata
	value float64
}

func NewConstantCurve(md Metadata, value float64) *ConstantCurve {
	return &ConstantCurve{md: md, value: value}
}

func (c *ConstantCurve) Name() Name                                   { return c.md.Name }
func (c *ConstantCurve) Metadata() Metadata                           { return c.md }
func (c *ConstantCurve) ParameterCount() int                          { return 1 }
func (c *ConstantCurve) Parameters() []float64                        { return []float64{c.value} }
func (c *ConstantCurve) YValue(float64) float64                       { return c.value }
func (c *ConstantCurve) YValueParameterSensitivity(float64) []float64 { return []float64{1} }

func (c *ConstantCurve) WithParameters(params []float64) (Curve, error) {
	if len(params) != 1 {
		return nil, fmt.Errorf("WithParameters: %s: got %d want 1: %w", c.md.Name, len(params), ErrParameterCount)
	}
	return &ConstantCurve{md: c.md, value: params[0]}, nil
}

func (c *ConstantCurve) WithMetadata(md Metadata) Curve {
	return &ConstantCurve{md: md, value: c.value}
}
