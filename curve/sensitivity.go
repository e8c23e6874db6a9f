package curve

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// ParameterSensitivities holds a derivative with respect to the parameters of
// each curve it touches.
type ParameterSensitivities map[Name][]float64

// Single returns a sensitivity to one curve.
func Single(name Name, s []float64) ParameterSensitivities {
	return ParameterSensitivities{name: append([]float64(nil), s...)}
}

// Add accumulates s into the entry for name.
func (ps ParameterSensitivities) Add(name Name, s []float64) error {
	cur, ok := ps[name]
	if !ok {
		ps[name] = append([]float64(nil), s...)
		return nil
	}
	if len(cur) != len(s) {
		return fmt.Errorf("Add: %s: %d vs %d: %w", name, len(cur), len(s), ErrParameterCount)
	}
	floats.Add(cur, s)
	return nil
}

// Combine returns a new set holding the sum of ps and other.
func (ps ParameterSensitivities) Combine(other ParameterSensitivities) (ParameterSensitivities, error) {
	out := ps.Clone()
	for name, s := range other {
		if err := out.Add(name, s); err != nil {
			return nil, fmt.Errorf("Combine: %w", err)
		}
	}
	return out, nil
}

// MultipliedBy returns a new set scaled by f.
func (ps ParameterSensitivities) MultipliedBy(f float64) ParameterSensitivities {
	out := ps.Clone()
	for _, s := range out {
		floats.Scale(f, s)
	}
	return out
}

// Clone deep-copies the set.
func (ps ParameterSensitivities) Clone() ParameterSensitivities {
	out := make(ParameterSensitivities, len(ps))
	for name, s := range ps {
		out[name] = append([]float64(nil), s...)
	}
	return out
}

// Flatten lays the sensitivities out in order. Curves outside order are
// dropped; curves in order without an entry contribute zeros.
func (ps ParameterSensitivities) Flatten(order []ParameterSize) ([]float64, error) {
	l := NewParameterLayout(order)
	out := make([]float64, l.Total())
	for _, p := range order {
		s, ok := ps[p.Name]
		if !ok {
			continue
		}
		if len(s) != p.ParameterCount {
			return nil, fmt.Errorf("Flatten: %s: %d values for %d parameters: %w", p.Name, len(s), p.ParameterCount, ErrParameterCount)
		}
		start, _, _ := l.Range(p.Name)
		copy(out[start:], s)
	}
	return out, nil
}

// Names returns the curve names in sorted order.
func (ps ParameterSensitivities) Names() []Name {
	names := make([]Name, 0, len(ps))
	for n := range ps {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
