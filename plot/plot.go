// Package plot samples an integrand and its antiderivative into
// plot-ready arrays, isolating evaluation failures to single points.
package plot

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	gi "github.com/njchilds90/gointegral"
)

const (
	DefaultPoints     = 400
	DefaultAreaPoints = 150
	DefaultRange      = "-10,10"
)

// Domain is the closed x interval that is plotted.
type Domain struct {
	Min, Max float64
}

// DefaultDomain is used whenever a requested range cannot be read.
var DefaultDomain = Domain{Min: -10, Max: 10}

// ParseDomain reads "min,max". Anything other than exactly two finite
// numbers with min < max yields DefaultDomain.
func ParseDomain(text string) Domain {
	parts := strings.Split(text, ",")
	if len(parts) != 2 {
		return DefaultDomain
	}
	lo, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	hi, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil || !isFinite(lo) || !isFinite(hi) || lo >= hi {
		return DefaultDomain
	}
	return Domain{Min: lo, Max: hi}
}

// Bounds are the limits of a definite integral, in request order.
type Bounds struct {
	Lower, Upper float64
}

// Widen extends d by one unit past any bound that falls outside it.
func (d Domain) Widen(b Bounds) Domain {
	lo, hi := math.Min(b.Lower, b.Upper), math.Max(b.Lower, b.Upper)
	if lo < d.Min {
		d.Min = lo - 1
	}
	if hi > d.Max {
		d.Max = hi + 1
	}
	return d
}

// SampleSet is the graph payload. A nil entry of Y or YInt marks a point
// where the curve has no finite real value. YInt is nil when the
// antiderivative curve is not requested; AreaX and AreaY are nil for
// indefinite integrals.
type SampleSet struct {
	X     []float64  `json:"x"`
	Y     []*float64 `json:"y"`
	YInt  []*float64 `json:"y_int,omitzero"`
	AreaX []float64  `json:"area_x,omitzero"`
	AreaY []float64  `json:"area_y,omitzero"`

	// Failures counts points dropped or marked absent, per curve.
	Failures Failures `json:"-"`
}

type Failures struct {
	Y, YInt, Area int
}

func (f Failures) Total() int { return f.Y + f.YInt + f.Area }

// Sampler evaluates curves over evenly spaced points.
type Sampler struct {
	Points     int
	AreaPoints int
}

func NewSampler() *Sampler {
	return &Sampler{Points: DefaultPoints, AreaPoints: DefaultAreaPoints}
}

// Sample evaluates f, and F when it is non-nil, at Points evenly spaced
// values over d, endpoints included. When b is non-nil it also evaluates f
// at AreaPoints values over [b.Lower, b.Upper], keeping only the points
// that succeed. Sample is deterministic and does not widen d; callers do.
func (s *Sampler) Sample(f, F gi.Lambda, d Domain, b *Bounds) SampleSet {
	xs := floats.Span(make([]float64, s.Points), d.Min, d.Max)
	set := SampleSet{X: xs, Y: make([]*float64, len(xs))}
	if F != nil {
		set.YInt = make([]*float64, len(xs))
	}
	for i, x := range xs {
		set.Y[i] = eval(f, x)
		if set.Y[i] == nil {
			set.Failures.Y++
		}
		if F == nil {
			continue
		}
		set.YInt[i] = eval(F, x)
		if set.YInt[i] == nil {
			set.Failures.YInt++
		}
	}

	if b == nil {
		return set
	}
	set.AreaX = make([]float64, 0, s.AreaPoints)
	set.AreaY = make([]float64, 0, s.AreaPoints)
	for _, x := range floats.Span(make([]float64, s.AreaPoints), b.Lower, b.Upper) {
		y := eval(f, x)
		if y == nil {
			set.Failures.Area++
			continue
		}
		set.AreaX = append(set.AreaX, x)
		set.AreaY = append(set.AreaY, *y)
	}
	return set
}

// eval returns nil when fn fails or its value is not finite.
func eval(fn gi.Lambda, x float64) *float64 {
	y, err := fn(x)
	if err != nil || !isFinite(y) {
		return nil
	}
	return &y
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// AreaEstimate integrates the area samples with the trapezoidal rule. It
// reports false when fewer than two points survived.
func (s SampleSet) AreaEstimate() (float64, bool) {
	if len(s.AreaX) < 2 {
		return 0, false
	}
	xs, ys := s.AreaX, s.AreaY
	sign := 1.0
	if xs[0] > xs[len(xs)-1] {
		xs, ys = slices.Clone(xs), slices.Clone(ys)
		slices.Reverse(xs)
		slices.Reverse(ys)
		sign = -1
	}
	return sign * integrate.Trapezoidal(xs, ys), true
}
