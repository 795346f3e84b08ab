package gointegral

import (
	"fmt"
	"math"
)

// Lambda evaluates a compiled expression at one point. A point where the
// expression has no finite real value yields an error instead of NaN or Inf.
type Lambda func(x float64) (float64, error)

type evalFn func(x float64) (float64, error)

// Lambdify compiles e into a closure of the single variable varName.
// Any other free symbol makes every call fail with ErrUnbound.
func Lambdify(e Expr, varName string) Lambda {
	fn := compile(e, varName)
	return func(x float64) (float64, error) {
		v, err := fn(x)
		if err != nil {
			return 0, err
		}
		return checkFinite(v)
	}
}

// Value evaluates an expression with no free symbols.
func Value(e Expr) (float64, error) {
	return Lambdify(e, "")(0)
}

func checkFinite(v float64) (float64, error) {
	switch {
	case math.IsNaN(v):
		return 0, ErrUndefined
	case math.IsInf(v, 0):
		return 0, ErrNonFinite
	}
	return v, nil
}

func compile(e Expr, varName string) evalFn {
	switch v := e.(type) {
	case *Num:
		f := v.Float64()
		return func(float64) (float64, error) { return f, nil }
	case *Const:
		f := v.value
		return func(float64) (float64, error) { return f, nil }
	case *Sym:
		if v.name == varName {
			return func(x float64) (float64, error) { return x, nil }
		}
		err := fmt.Errorf("%w: %s", ErrUnbound, v.name)
		return func(float64) (float64, error) { return 0, err }
	case *Add:
		terms := make([]evalFn, len(v.terms))
		for i, t := range v.terms {
			terms[i] = compile(t, varName)
		}
		return func(x float64) (float64, error) {
			sum := 0.0
			for _, t := range terms {
				tv, err := t(x)
				if err != nil {
					return 0, err
				}
				sum += tv
			}
			return sum, nil
		}
	case *Mul:
		factors := make([]evalFn, len(v.factors))
		for i, f := range v.factors {
			factors[i] = compile(f, varName)
		}
		return func(x float64) (float64, error) {
			prod := 1.0
			for _, f := range factors {
				fv, err := f(x)
				if err != nil {
					return 0, err
				}
				prod *= fv
			}
			return prod, nil
		}
	case *Pow:
		base, exp := compile(v.base, varName), compile(v.exp, varName)
		return func(x float64) (float64, error) {
			b, err := base(x)
			if err != nil {
				return 0, err
			}
			p, err := exp(x)
			if err != nil {
				return 0, err
			}
			return power(b, p)
		}
	case *Func:
		arg := compile(v.arg, varName)
		apply := funcEval(v.name)
		return func(x float64) (float64, error) {
			a, err := arg(x)
			if err != nil {
				return 0, err
			}
			return apply(a)
		}
	}
	err := fmt.Errorf("%w: cannot evaluate %s", ErrUndefined, e.String())
	return func(float64) (float64, error) { return 0, err }
}

func power(b, p float64) (float64, error) {
	if b == 0 && p < 0 {
		return 0, fmt.Errorf("%w: division by zero", ErrUndefined)
	}
	if b < 0 && p != math.Trunc(p) {
		return 0, fmt.Errorf("%w: %g^%g", ErrNonReal, b, p)
	}
	return math.Pow(b, p), nil
}

func funcEval(name string) func(float64) (float64, error) {
	plain := func(f func(float64) float64) func(float64) (float64, error) {
		return func(a float64) (float64, error) { return f(a), nil }
	}
	recip := func(f func(float64) float64, label string) func(float64) (float64, error) {
		return func(a float64) (float64, error) {
			d := f(a)
			if d == 0 {
				return 0, fmt.Errorf("%w: %s(%g)", ErrUndefined, label, a)
			}
			return 1 / d, nil
		}
	}
	unit := func(f func(float64) float64, label string) func(float64) (float64, error) {
		return func(a float64) (float64, error) {
			if a < -1 || a > 1 {
				return 0, fmt.Errorf("%w: %s(%g)", ErrNonReal, label, a)
			}
			return f(a), nil
		}
	}
	switch name {
	case "sin":
		return plain(math.Sin)
	case "cos":
		return plain(math.Cos)
	case "tan":
		return plain(math.Tan)
	case "sec":
		return recip(math.Cos, name)
	case "csc":
		return recip(math.Sin, name)
	case "cot":
		return recip(math.Tan, name)
	case "asin":
		return unit(math.Asin, name)
	case "acos":
		return unit(math.Acos, name)
	case "atan":
		return plain(math.Atan)
	case "sinh":
		return plain(math.Sinh)
	case "cosh":
		return plain(math.Cosh)
	case "tanh":
		return plain(math.Tanh)
	case "exp":
		return plain(math.Exp)
	case "abs":
		return plain(math.Abs)
	case "ln":
		return func(a float64) (float64, error) {
			switch {
			case a < 0:
				return 0, fmt.Errorf("%w: ln(%g)", ErrNonReal, a)
			case a == 0:
				return 0, fmt.Errorf("%w: ln(0)", ErrUndefined)
			}
			return math.Log(a), nil
		}
	}
	return func(float64) (float64, error) {
		return 0, fmt.Errorf("%w: unknown function %s", ErrUndefined, name)
	}
}
