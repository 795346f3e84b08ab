package gointegral

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// singularityGrid is the number of points scanned for sign changes of a
// candidate denominator.
const singularityGrid = 2001

// poleCandidates collects the sub-expressions whose real zeros make e
// singular: bases raised to negative powers, cos(u) under tan and sec,
// sin(u) under cot and csc, and logarithm arguments.
func poleCandidates(e Expr, v string, out []Expr) []Expr {
	if FreeOf(e, v) {
		return out
	}
	switch t := e.(type) {
	case *Add:
		for _, term := range t.terms {
			out = poleCandidates(term, v, out)
		}
	case *Mul:
		for _, f := range t.factors {
			out = poleCandidates(f, v, out)
		}
	case *Pow:
		if FreeOf(t.exp, v) && !FreeOf(t.base, v) {
			if p, err := Value(t.exp); err == nil && p < 0 {
				out = append(out, t.base)
			}
		}
		out = poleCandidates(t.base, v, out)
		out = poleCandidates(t.exp, v, out)
	case *Func:
		switch t.name {
		case "tan", "sec":
			out = append(out, CosOf(t.arg))
		case "cot", "csc":
			out = append(out, SinOf(t.arg))
		case "ln":
			out = append(out, t.arg)
		}
		out = poleCandidates(t.arg, v, out)
	}
	return out
}

// singularities returns the sorted points of [lo, hi] where e is singular.
// Zeros are found by sign changes on a uniform grid, so a root of even
// multiplicity is only seen when it lands on the grid.
func singularities(e Expr, v string, lo, hi float64) []float64 {
	candidates := poleCandidates(e, v, nil)
	if len(candidates) == 0 {
		return nil
	}
	xs := floats.Span(make([]float64, singularityGrid), lo, hi)
	ys := make([]float64, len(xs))
	ok := make([]bool, len(xs))

	var roots []float64
	for _, d := range candidates {
		fn := Lambdify(d, v)
		for i, x := range xs {
			y, err := fn(x)
			ys[i], ok[i] = y, err == nil
		}
		for i := range xs {
			if ok[i] && ys[i] == 0 {
				roots = append(roots, xs[i])
				continue
			}
			if i > 0 && ok[i-1] && ok[i] && ys[i-1] != 0 && (ys[i-1] < 0) != (ys[i] < 0) {
				if r, found := bisect(fn, xs[i-1], xs[i], ys[i-1]); found {
					roots = append(roots, r)
				}
			}
		}
	}
	if len(roots) == 0 {
		return nil
	}

	sort.Float64s(roots)
	tol := closeTolerance(lo, hi)
	uniq := roots[:1]
	for _, r := range roots[1:] {
		if r-uniq[len(uniq)-1] > tol {
			uniq = append(uniq, r)
		}
	}
	return uniq
}

// bisect narrows a sign change of fn on [a, b] down to a zero. A sign
// change across a pole of fn is rejected.
func bisect(fn Lambda, a, b, fa float64) (float64, bool) {
	for range 200 {
		m := a + (b-a)/2
		if m <= a || m >= b {
			break
		}
		fm, err := fn(m)
		if err != nil {
			return 0, false
		}
		if fm == 0 {
			return m, true
		}
		if (fm < 0) == (fa < 0) {
			a, fa = m, fm
		} else {
			b = m
		}
	}
	c := a + (b-a)/2
	fc, err := fn(c)
	if err != nil || math.Abs(fc) > 1e-6 {
		return 0, false
	}
	return c, true
}

func closeTolerance(lo, hi float64) float64 {
	return 1e-9 * math.Max(1, hi-lo)
}

// sideLimit estimates the limit of F at c approached from the side of dir
// (+1 from above, -1 from below). Samples at c + dir*eps for shrinking eps
// must contract; Aitken's extrapolation then removes the power-law tail.
func sideLimit(F Lambda, c, dir float64) (float64, error) {
	h := math.Max(1, math.Abs(c))
	var v [3]float64
	for i, eps := range [3]float64{1e-6, 1e-8, 1e-10} {
		y, err := F(c + dir*eps*h)
		if err != nil {
			return 0, err
		}
		v[i] = y
	}
	d1, d2 := v[1]-v[0], v[2]-v[1]
	switch {
	case math.Abs(d2) <= 1e-12*math.Max(1, math.Abs(v[2])):
		return v[2], nil
	case math.Abs(d2) >= 0.9*math.Abs(d1):
		return 0, ErrDivergent
	}
	return checkFinite(v[2] - d2*d2/(d2-d1))
}
