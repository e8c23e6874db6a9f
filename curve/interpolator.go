package curve

import (
	"fmt"
	"math"
	"sort"
)

// Interpolator computes a value and its node weights inside segment [i, i+1].
// w is the position in the segment; extrapolators may pass w outside [0, 1].
type Interpolator interface {
	Name() string
	interpolate(yl, yr, w float64) float64
	// weights returns dy/dyl and dy/dyr.
	weights(yl, yr, w float64) (float64, float64)
}

// Extrapolator handles x outside the node range on one side.
type Extrapolator interface {
	Name() string
	extrapolate(c *InterpolatedNodalCurve, x float64, left bool) (float64, []float64)
}

type linearInterpolator struct{}

func (linearInterpolator) Name() string { return "linear" }

func (linearInterpolator) interpolate(yl, yr, w float64) float64 {
	return (1-w)*yl + w*yr
}

func (linearInterpolator) weights(_, _, w float64) (float64, float64) {
	return 1 - w, w
}

// logLinearInterpolator is linear in log(y); y must be positive.
type logLinearInterpolator struct{}

func (logLinearInterpolator) Name() string { return "log-linear" }

func (logLinearInterpolator) interpolate(yl, yr, w float64) float64 {
	return math.Exp((1-w)*math.Log(yl) + w*math.Log(yr))
}

func (l logLinearInterpolator) weights(yl, yr, w float64) (float64, float64) {
	v := l.interpolate(yl, yr, w)
	return (1 - w) * v / yl, w * v / yr
}

var (
	Linear    Interpolator = linearInterpolator{}
	LogLinear Interpolator = logLinearInterpolator{}
)

// InterpolatorByName resolves "linear" or "log-linear".
func InterpolatorByName(name string) (Interpolator, error) {
	switch name {
	case Linear.Name():
		return Linear, nil
	case LogLinear.Name():
		return LogLinear, nil
	}
	return nil, fmt.Errorf("InterpolatorByName: %q: %w", name, ErrUnknownInterpolator)
}

type flatExtrapolator struct{}

func (flatExtrapolator) Name() string { return "flat" }

func (flatExtrapolator) extrapolate(c *InterpolatedNodalCurve, _ float64, left bool) (float64, []float64) {
	sens := make([]float64, len(c.ys))
	i := 0
	if !left {
		i = len(c.ys) - 1
	}
	sens[i] = 1
	return c.ys[i], sens
}

// linearExtrapolator extends the end segment with the curve's own interpolator.
type linearExtrapolator struct{}

func (linearExtrapolator) Name() string { return "linear" }

func (linearExtrapolator) extrapolate(c *InterpolatedNodalCurve, x float64, left bool) (float64, []float64) {
	if len(c.xs) == 1 {
		return flatExtrapolator{}.extrapolate(c, x, left)
	}
	i := 0
	if !left {
		i = len(c.xs) - 2
	}
	return c.segment(i, x)
}

var (
	Flat         Extrapolator = flatExtrapolator{}
	LinearExtrap Extrapolator = linearExtrapolator{}
)

// ExtrapolatorByName resolves "flat" or "linear".
func ExtrapolatorByName(name string) (Extrapolator, error) {
	switch name {
	case Flat.Name():
		return Flat, nil
	case LinearExtrap.Name():
		return LinearExtrap, nil
	}
	return nil, fmt.Errorf("ExtrapolatorByName: %q: %w", name, ErrUnknownInterpolator)
}

// findSegment returns i with xs[i] <= x <= xs[i+1], clamped to the first and
// last segments; xs must have at least two points.
func findSegment(xs []float64, x float64) int {
	i := sort.Search(len(xs), func(k int) bool { return xs[k] > x }) - 1
	if i < 0 {
		return 0
	}
	if i > len(xs)-2 {
		return len(xs) - 2
	}
	return i
}
