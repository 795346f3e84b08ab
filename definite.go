package gointegral

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// quadratureNodes is the number of Gauss-Legendre nodes used by Quadrature.
const quadratureNodes = 64

// DefiniteIntegral returns the integral of expr over [a, b]. See
// DefiniteWith for how the antiderivative, when one is found, is used.
func DefiniteIntegral(expr Expr, varName string, a, b float64) (float64, error) {
	anti, _, err := Integrate(expr, varName)
	if err != nil {
		anti = nil
	}
	return DefiniteWith(expr, anti, varName, a, b)
}

// DefiniteWith integrates expr over [a, b] given its antiderivative, which
// may be nil. The interval is split at the singular points of expr and
// F(b) - F(a) is summed over the pieces, taking one-sided limits of F at
// each singular point; an unbounded limit is ErrDivergent. Without an
// antiderivative, or when F cannot be evaluated at a regular limit, the
// value comes from Gauss-Legendre quadrature, which is refused with
// ErrSingular when expr is unbounded inside the interval.
func DefiniteWith(expr, anti Expr, varName string, a, b float64) (float64, error) {
	switch {
	case a == b:
		return 0, nil
	case a > b:
		v, err := DefiniteWith(expr, anti, varName, b, a)
		return -v, err
	}

	f := Lambdify(expr, varName)
	poles := singularities(expr, varName, a, b)
	tol := closeTolerance(a, b)
	var interior []float64
	for _, p := range poles {
		if p-a > tol && b-p > tol {
			interior = append(interior, p)
		}
	}

	if anti != nil {
		v, err := improper(Lambdify(anti, varName), a, b, poles, interior, tol)
		switch {
		case err == nil:
			return v, nil
		case errors.Is(err, ErrDivergent):
			return 0, fmt.Errorf("integral over [%g, %g]: %w", a, b, err)
		case errors.Is(err, ErrUnbound), len(interior) > 0:
			return 0, err
		}
	}

	for _, p := range interior {
		if _, err := sideLimit(f, p, -1); err != nil {
			return 0, fmt.Errorf("%w: %s = %g", ErrSingular, varName, p)
		}
		if _, err := sideLimit(f, p, 1); err != nil {
			return 0, fmt.Errorf("%w: %s = %g", ErrSingular, varName, p)
		}
	}
	return Quadrature(f, a, b)
}

// improper sums F(hi) - F(lo) over [a, b] cut at the interior singular
// points.
func improper(F Lambda, a, b float64, poles, interior []float64, tol float64) (float64, error) {
	isPole := func(x float64) bool {
		for _, p := range poles {
			if math.Abs(p-x) <= tol {
				return true
			}
		}
		return false
	}
	cuts := append(append([]float64{a}, interior...), b)

	var total float64
	for i := 0; i+1 < len(cuts); i++ {
		lo, hi := cuts[i], cuts[i+1]
		fhi, err := boundary(F, hi, -1, isPole(hi))
		if err != nil {
			return 0, err
		}
		flo, err := boundary(F, lo, 1, isPole(lo))
		if err != nil {
			return 0, err
		}
		total += fhi - flo
	}
	return checkFinite(total)
}

// boundary evaluates F at c, or its limit from the side of dir when c is
// singular or F is undefined there.
func boundary(F Lambda, c, dir float64, pole bool) (float64, error) {
	if pole {
		return sideLimit(F, c, dir)
	}
	v, err := F(c)
	if err == nil {
		return v, nil
	}
	if lim, lerr := sideLimit(F, c, dir); lerr == nil {
		return lim, nil
	}
	return 0, fmt.Errorf("F(%g): %w", c, err)
}

// Quadrature integrates f over [a, b] with fixed Gauss-Legendre nodes.
// Reversed limits flip the sign.
func Quadrature(f Lambda, a, b float64) (float64, error) {
	switch {
	case a == b:
		return 0, nil
	case a > b:
		v, err := Quadrature(f, b, a)
		return -v, err
	}
	var failure error
	g := func(x float64) float64 {
		y, err := f(x)
		if err != nil {
			if failure == nil {
				failure = err
			}
			return math.NaN()
		}
		return y
	}
	v := quad.Fixed(g, a, b, quadratureNodes, quad.Legendre{}, 0)
	if failure != nil {
		return 0, fmt.Errorf("quadrature over [%g, %g]: %w", a, b, failure)
	}
	return checkFinite(v)
}
