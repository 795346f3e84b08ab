package gointegral

import (
	"fmt"
	"strconv"
)

// maxIntegrationDepth bounds nested rule applications, so cyclic
// integrations by parts such as ∫e^x sin(x) dx give up instead of looping.
const maxIntegrationDepth = 12

// maxSubstitutionCandidates bounds how many sub-expressions are tried as u.
const maxSubstitutionCandidates = 8

// Integrate returns an antiderivative of expr with respect to varName,
// without the constant of integration, and the derivation tree of the rules
// applied to reach it.
func Integrate(expr Expr, varName string) (Expr, Rule, error) {
	in := &integrator{}
	res, rule, ok := in.integrate(expr.Simplify(), varName, 0)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoClosedForm, expr.String())
	}
	return res.Simplify(), rule, nil
}

type integrator struct {
	fresh int
}

func (in *integrator) integrate(e Expr, v string, depth int) (Expr, Rule, bool) {
	if depth > maxIntegrationDepth {
		return nil, nil, false
	}
	x := S(v)

	if FreeOf(e, v) {
		return MulOf(e, x), &ConstantRule{Integrand: e, Var: v, Value: e}, true
	}

	switch t := e.(type) {
	case *Sym:
		return MulOf(F(1, 2), PowOf(x, N(2))), &PowerRule{Integrand: e, Var: v, Base: x, Exp: N(1)}, true
	case *Add:
		terms := make([]Expr, len(t.terms))
		rules := make([]Rule, len(t.terms))
		for i, term := range t.terms {
			res, rule, ok := in.integrate(term, v, depth+1)
			if !ok {
				return in.fallback(e, v, depth)
			}
			terms[i], rules[i] = res, rule
		}
		return AddOf(terms...), &SumRule{Integrand: e, Var: v, Terms: rules}, true
	case *Mul:
		var consts, rest []Expr
		for _, f := range t.factors {
			if FreeOf(f, v) {
				consts = append(consts, f)
			} else {
				rest = append(rest, f)
			}
		}
		if len(consts) > 0 {
			c, other := MulOf(consts...), MulOf(rest...)
			res, inner, ok := in.integrate(other, v, depth+1)
			if !ok {
				return nil, nil, false
			}
			return MulOf(c, res), &ConstantMultipleRule{Integrand: e, Var: v, Constant: c, Other: other, Inner: inner}, true
		}
	}

	if res, rule, ok := tableIntegral(e, v); ok {
		return res, rule, true
	}
	return in.fallback(e, v, depth)
}

// fallback tries the rules that transform the integrand rather than match it.
func (in *integrator) fallback(e Expr, v string, depth int) (Expr, Rule, bool) {
	if res, rule, ok := in.substitute(e, v, depth); ok {
		return res, rule, true
	}
	if res, rule, ok := in.rewrite(e, v, depth); ok {
		return res, rule, true
	}
	return in.parts(e, v, depth)
}

// ============================================================
// Table integrals
// ============================================================

func tableIntegral(e Expr, v string) (Expr, Rule, bool) {
	x := S(v)
	switch t := e.(type) {
	case *Pow:
		if isVar(t.base, v) && FreeOf(t.exp, v) {
			if isNumEqual(t.exp, -1) {
				return LnOf(AbsOf(x)), &GenericRule{Integrand: e, Var: v, Name: "reciprocal"}, true
			}
			// A symbolic exponent is assumed to differ from -1.
			n1 := AddOf(t.exp, N(1))
			return MulOf(PowOf(n1, N(-1)), PowOf(x, n1)), &PowerRule{Integrand: e, Var: v, Base: x, Exp: t.exp}, true
		}
		if isVar(t.exp, v) && isPositiveBase(t.base) {
			return MulOf(e, PowOf(LnOf(t.base), N(-1))), &ExpRule{Integrand: e, Var: v, Base: t.base}, true
		}
		if n, ok := t.exp.(*Num); ok {
			onePlusX2 := AddOf(PowOf(x, N(2)), N(1))
			oneMinusX2 := AddOf(MulOf(N(-1), PowOf(x, N(2))), N(1))
			switch {
			case n.IsNegOne() && t.base.Equal(onePlusX2):
				return AtanOf(x), &GenericRule{Integrand: e, Var: v, Name: "arctan"}, true
			case n.Equal(F(-1, 2)) && t.base.Equal(oneMinusX2):
				return AsinOf(x), &GenericRule{Integrand: e, Var: v, Name: "arcsin"}, true
			case n.Equal(N(2)):
				if f, ok := t.base.(*Func); ok && isVar(f.arg, v) {
					switch f.name {
					case "sec":
						return TanOf(x), &TrigRule{Integrand: e, Var: v, Func: "sec^2"}, true
					case "csc":
						return MulOf(N(-1), CotOf(x)), &TrigRule{Integrand: e, Var: v, Func: "csc^2"}, true
					}
				}
			}
		}
	case *Func:
		if !isVar(t.arg, v) {
			break
		}
		trig := func(res Expr) (Expr, Rule, bool) {
			return res, &TrigRule{Integrand: e, Var: v, Func: t.name}, true
		}
		hyper := func(res Expr) (Expr, Rule, bool) {
			return res, &GenericRule{Integrand: e, Var: v, Name: "hyperbolic"}, true
		}
		switch t.name {
		case "exp":
			return e, &ExpRule{Integrand: e, Var: v, Base: E}, true
		case "sin":
			return trig(MulOf(N(-1), CosOf(x)))
		case "cos":
			return trig(SinOf(x))
		case "tan":
			return trig(MulOf(N(-1), LnOf(AbsOf(CosOf(x)))))
		case "sec":
			return trig(LnOf(AbsOf(AddOf(SecOf(x), TanOf(x)))))
		case "csc":
			return trig(MulOf(N(-1), LnOf(AbsOf(AddOf(CscOf(x), CotOf(x))))))
		case "cot":
			return trig(LnOf(AbsOf(SinOf(x))))
		case "sinh":
			return hyper(CoshOf(x))
		case "cosh":
			return hyper(SinhOf(x))
		case "tanh":
			return hyper(LnOf(CoshOf(x)))
		}
	}
	return nil, nil, false
}

func isVar(e Expr, v string) bool {
	s, ok := e.(*Sym)
	return ok && s.name == v
}

func isPositiveBase(e Expr) bool {
	switch b := e.(type) {
	case *Num:
		return b.IsPositive() && !b.IsOne()
	case *Const:
		return true
	}
	return false
}

// ============================================================
// Substitution
// ============================================================

func (in *integrator) substitute(e Expr, v string, depth int) (Expr, Rule, bool) {
	for _, g := range substitutionCandidates(e, v) {
		dg := Diff(g, v)
		if isNumEqual(dg, 0) {
			continue
		}
		u := in.freshSymbol(e, v)
		q := replace(MulOf(e, PowOf(dg, N(-1))), g, S(u))
		if !FreeOf(q, v) {
			continue
		}
		res, inner, ok := in.integrate(q, u, depth+1)
		if !ok {
			continue
		}
		rule := &SubstitutionRule{Integrand: e, Var: v, Symbol: u, Func: g, Derivative: dg, Inner: inner}
		return Sub(res, u, g), rule, true
	}
	return nil, nil, false
}

// substitutionCandidates lists inner sub-expressions first (function
// arguments, power bases and exponents), then whole function applications.
func substitutionCandidates(e Expr, v string) []Expr {
	var inner, funcs []Expr
	seen := map[string]bool{e.String(): true, v: true}
	add := func(list *[]Expr, c Expr) {
		key := c.String()
		if seen[key] || FreeOf(c, v) {
			return
		}
		seen[key] = true
		*list = append(*list, c)
	}
	var walk func(Expr)
	walk = func(n Expr) {
		switch t := n.(type) {
		case *Add:
			for _, term := range t.terms {
				walk(term)
			}
		case *Mul:
			for _, f := range t.factors {
				walk(f)
			}
		case *Pow:
			add(&inner, t.base)
			add(&inner, t.exp)
			walk(t.base)
			walk(t.exp)
		case *Func:
			add(&inner, t.arg)
			add(&funcs, t)
			walk(t.arg)
		}
	}
	walk(e)
	all := append(inner, funcs...)
	if len(all) > maxSubstitutionCandidates {
		all = all[:maxSubstitutionCandidates]
	}
	return all
}

func (in *integrator) freshSymbol(e Expr, v string) string {
	free := FreeSymbols(e)
	for {
		name := "u"
		if in.fresh > 0 {
			name += strconv.Itoa(in.fresh)
		}
		in.fresh++
		if _, taken := free[name]; !taken && name != v {
			return name
		}
	}
}

// ============================================================
// Rewrites
// ============================================================

func (in *integrator) rewrite(e Expr, v string, depth int) (Expr, Rule, bool) {
	rewritten := trigRewrite(e, v)
	if rewritten == nil {
		if expanded := Expand(e); expanded.String() != e.String() {
			rewritten = expanded
		}
	}
	if rewritten == nil {
		return nil, nil, false
	}
	res, inner, ok := in.integrate(rewritten, v, depth+1)
	if !ok {
		return nil, nil, false
	}
	return res, &GenericRule{Integrand: e, Var: v, Name: "rewrite", Children: []Rule{inner}}, true
}

// trigRewrite applies the half-angle identities to sin(x)^2 and cos(x)^2.
func trigRewrite(e Expr, v string) Expr {
	p, ok := e.(*Pow)
	if !ok || !isNumEqual(p.exp, 2) {
		return nil
	}
	f, ok := p.base.(*Func)
	if !ok || FreeOf(f.arg, v) {
		return nil
	}
	double := CosOf(MulOf(N(2), f.arg))
	switch f.name {
	case "sin":
		return AddOf(F(1, 2), MulOf(F(-1, 2), double))
	case "cos":
		return AddOf(F(1, 2), MulOf(F(1, 2), double))
	}
	return nil
}

// ============================================================
// Integration by parts
// ============================================================

// liatePriority ranks candidates for u: logarithmic, inverse trigonometric,
// algebraic, trigonometric, exponential. Zero means never u.
func liatePriority(e Expr, v string) int {
	switch t := e.(type) {
	case *Func:
		switch t.name {
		case "ln":
			return 5
		case "asin", "acos", "atan":
			return 4
		case "sin", "cos", "tan", "sec", "csc", "cot":
			return 2
		case "exp":
			return 1
		}
	case *Sym:
		if t.name == v {
			return 3
		}
	case *Pow:
		if isVar(t.base, v) {
			if n, ok := t.exp.(*Num); ok && n.IsInteger() && n.IsPositive() {
				return 3
			}
		}
		if isVar(t.exp, v) {
			return 1
		}
	}
	return 0
}

func (in *integrator) parts(e Expr, v string, depth int) (Expr, Rule, bool) {
	var u, dv Expr
	switch t := e.(type) {
	case *Func:
		if p := liatePriority(t, v); p == 5 || p == 4 {
			u, dv = t, N(1)
		}
	case *Mul:
		best, bestIdx := 0, -1
		for i, f := range t.factors {
			if p := liatePriority(f, v); p > best {
				best, bestIdx = p, i
			}
		}
		if bestIdx < 0 {
			break
		}
		rest := make([]Expr, 0, len(t.factors)-1)
		for i, f := range t.factors {
			if i != bestIdx {
				rest = append(rest, f)
			}
		}
		u, dv = t.factors[bestIdx], MulOf(rest...)
	}
	if u == nil {
		return nil, nil, false
	}

	antiDV, _, ok := in.integrate(dv, v, depth+1)
	if !ok {
		return nil, nil, false
	}
	vdu := MulOf(antiDV, Diff(u, v))
	second, inner, ok := in.integrate(vdu, v, depth+1)
	if !ok {
		return nil, nil, false
	}
	res := AddOf(MulOf(u, antiDV), MulOf(N(-1), second))
	return res, &PartsRule{Integrand: e, Var: v, U: u, DV: dv, Inner: inner}, true
}
