package descriptor

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Real is a fixed-length floating-point descriptor (e.g. SIFT/SURF).
// Distance is Euclidean (L2).
type Real []float64

// Distance returns the L2 distance between r and other.
//
// Panics if other is not a Real of the same length as r.
func (r Real) Distance(other Descriptor) float64 {
	o, ok := other.(Real)
	if !ok {
		panic(fmt.Sprintf("descriptor: Real.Distance called with %T", other))
	}
	if len(r) != len(o) {
		panic(fmt.Sprintf("descriptor: Real length mismatch %d vs %d", len(r), len(o)))
	}
	var sum float64
	for i := range r {
		d := r[i] - o[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// String renders r as space-separated floats.
func (r Real) String() string {
	parts := make([]string, len(r))
	for i, v := range r {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// RealTrait implements Trait[Real].
type RealTrait struct{}

// MeanOf computes the componentwise arithmetic mean across set. set must
// be non-empty and every element must share the same dimension.
func (RealTrait) MeanOf(set []Real) Real {
	if len(set) == 0 {
		panic("descriptor: MeanOf called with empty set")
	}
	n := len(set[0])
	sum := make(Real, n)
	for _, d := range set {
		for i, v := range d {
			sum[i] += v
		}
	}
	inv := 1.0 / float64(len(set))
	for i := range sum {
		sum[i] *= inv
	}
	return sum
}

// Parse reconstructs a Real from its space-separated float form.
func (RealTrait) Parse(s string) (Real, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Real{}, nil
	}
	fields := strings.Fields(s)
	out := make(Real, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("descriptor: invalid real component %q", f)
		}
		out[i] = v
	}
	return out, nil
}
