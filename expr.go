// Package gointegral is a deterministic symbolic kernel for integrating
// single-variable real functions.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat)
//   - Deterministic simplification and stable output
//   - Integration that records the derivation tree of the rules it applied
//   - Numeric evaluation that reports failures per point instead of panicking
package gointegral

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Diff(varName string) Expr
	Equal(other Expr) bool
	exprType() string
}

// ============================================================
// Num: exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("gointegral: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NFloat converts f through its shortest decimal form, so 0.1 becomes 1/10.
func NFloat(f float64) *Num {
	r, ok := new(big.Rat).SetString(strconv.FormatFloat(f, 'g', -1, 64))
	if !ok {
		panic("gointegral: non-finite number")
	}
	return &Num{val: r}
}

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string      { return "num" }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(new(big.Rat).SetInt64(1)) == 0 }
func (n *Num) IsNegOne() bool        { return n.val.Cmp(new(big.Rat).SetInt64(-1)) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }
func (n *Num) IsPositive() bool      { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "- "
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("gointegral: division by zero")
	}
	return &Num{val: new(big.Rat).Inv(a.val)}
}

// numPow raises a to a small integer power exactly.
func numPow(a *Num, e int64) *Num {
	result := N(1)
	k := e
	if k < 0 {
		k = -k
	}
	for i := int64(0); i < k; i++ {
		result = numMul(result, a)
	}
	if e < 0 {
		return numRecip(result)
	}
	return result
}

// ============================================================
// Sym: symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym             { return &Sym{name: name} }
func (s *Sym) Simplify() Expr        { return s }
func (s *Sym) String() string        { return s.name }
func (s *Sym) LaTeX() string         { return s.name }
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string      { return "sym" }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}
func (s *Sym) Diff(varName string) Expr {
	if s.name == varName {
		return N(1)
	}
	return N(0)
}

// ============================================================
// Const: named real constants (pi, E)
// ============================================================

type Const struct {
	name  string
	latex string
	value float64
}

var (
	Pi = &Const{name: "pi", latex: `\pi`, value: math.Pi}
	E  = &Const{name: "E", latex: "e", value: math.E}
)

func (c *Const) Simplify() Expr        { return c }
func (c *Const) String() string        { return c.name }
func (c *Const) LaTeX() string         { return c.latex }
func (c *Const) Sub(string, Expr) Expr { return c }
func (c *Const) Diff(string) Expr      { return N(0) }
func (c *Const) Equal(other Expr) bool { o, ok := other.(*Const); return ok && c.name == o.name }
func (c *Const) exprType() string      { return "const" }
func (c *Const) Value() float64        { return c.value }

// ============================================================
// Add: sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}

	// Like terms merge on their non-numeric part; first appearance fixes the order.
	numAccum := N(0)
	coeffs := map[string]*Num{}
	rests := map[string]Expr{}
	order := []string{}
	for _, t := range flat {
		if n, ok := t.(*Num); ok {
			numAccum = numAdd(numAccum, n)
			continue
		}
		coeff, rest := extractCoefficient(t)
		key := rest.String()
		if _, seen := coeffs[key]; !seen {
			order = append(order, key)
			coeffs[key] = N(0)
			rests[key] = rest
		}
		coeffs[key] = numAdd(coeffs[key], coeff)
	}

	result := make([]Expr, 0, len(order)+1)
	for _, key := range order {
		coeff := coeffs[key]
		switch {
		case coeff.IsZero():
		case coeff.IsOne():
			result = append(result, rests[key])
		default:
			result = append(result, MulOf(coeff, rests[key]))
		}
	}
	if !numAccum.IsZero() {
		result = append(result, numAccum)
	}
	if len(result) == 0 {
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

func (a *Add) String() string {
	var sb strings.Builder
	for i, t := range a.terms {
		neg, abs := splitSign(t)
		switch {
		case i == 0 && neg:
			sb.WriteString("-" + abs.String())
		case i == 0:
			sb.WriteString(t.String())
		case neg:
			sb.WriteString(" - " + abs.String())
		default:
			sb.WriteString(" + " + t.String())
		}
	}
	return sb.String()
}

func (a *Add) LaTeX() string {
	var sb strings.Builder
	for i, t := range a.terms {
		neg, abs := splitSign(t)
		switch {
		case i == 0 && neg:
			sb.WriteString("- " + abs.LaTeX())
		case i == 0:
			sb.WriteString(t.LaTeX())
		case neg:
			sb.WriteString(" - " + abs.LaTeX())
		default:
			sb.WriteString(" + " + t.LaTeX())
		}
	}
	return sb.String()
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Diff(varName string) Expr {
	dTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		dTerms[i] = t.Diff(varName)
	}
	return AddOf(dTerms...)
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) exprType() string { return "add" }
func (a *Add) Terms() []Expr    { return a.terms }

// splitSign reports whether e carries a negative leading coefficient and
// returns e with that sign removed.
func splitSign(e Expr) (bool, Expr) {
	switch v := e.(type) {
	case *Num:
		if v.IsNegative() {
			return true, numNeg(v)
		}
	case *Mul:
		if c, ok := v.factors[0].(*Num); ok && c.IsNegative() {
			rest := append([]Expr{numNeg(c)}, v.factors[1:]...)
			return true, MulOf(rest...)
		}
	}
	return false, e
}

// ============================================================
// Mul: product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	// Powers of the same base are merged by summing exponents.
	type group struct {
		base Expr
		exps []Expr
	}
	coeff := N(1)
	groups := map[string]*group{}
	keys := []string{}
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
			continue
		}
		base, exp := f, Expr(N(1))
		if p, ok := f.(*Pow); ok {
			base, exp = p.base, p.exp
		}
		key := base.String()
		g, ok := groups[key]
		if !ok {
			g = &group{base: base}
			groups[key] = g
			keys = append(keys, key)
		}
		g.exps = append(g.exps, exp)
	}
	if coeff.IsZero() {
		return N(0)
	}

	others := make([]Expr, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		var merged Expr
		if len(g.exps) == 1 {
			merged = PowOf(g.base, g.exps[0])
		} else {
			merged = PowOf(g.base, AddOf(g.exps...))
		}
		switch v := merged.(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Mul:
			for _, inner := range v.factors {
				if n, ok := inner.(*Num); ok {
					coeff = numMul(coeff, n)
				} else {
					others = append(others, inner)
				}
			}
		default:
			others = append(others, merged)
		}
	}
	if coeff.IsZero() {
		return N(0)
	}
	if len(others) == 0 {
		return coeff
	}

	// Precompute sort keys to avoid repeated String() calls in comparator.
	type keyed struct {
		e    Expr
		rank int
		key  string
	}
	ks := make([]keyed, len(others))
	for i, e := range others {
		ks[i] = keyed{e: e, rank: factorRank(e), key: e.String()}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].rank != ks[j].rank {
			return ks[i].rank < ks[j].rank
		}
		return ks[i].key < ks[j].key
	})
	sorted := make([]Expr, len(ks))
	for i := range ks {
		sorted[i] = ks[i].e
	}

	if coeff.IsOne() {
		if len(sorted) == 1 {
			return sorted[0]
		}
		return &Mul{factors: sorted}
	}
	return &Mul{factors: append([]Expr{coeff}, sorted...)}
}

// factorRank orders product factors: symbols and their powers first, then
// constants, then sums, then function applications.
func factorRank(e Expr) int {
	switch v := e.(type) {
	case *Sym:
		return 0
	case *Pow:
		return factorRank(v.base)
	case *Const:
		return 1
	case *Add:
		return 2
	}
	return 3
}

func (m *Mul) String() string {
	prefix, factors := "", m.factors
	if c, ok := factors[0].(*Num); ok && c.IsNegOne() {
		prefix, factors = "-", factors[1:]
	}
	parts := make([]string, len(factors))
	for i, f := range factors {
		if _, isAdd := f.(*Add); isAdd {
			parts[i] = "(" + f.String() + ")"
		} else {
			parts[i] = f.String()
		}
	}
	return prefix + strings.Join(parts, "*")
}

func (m *Mul) LaTeX() string {
	coeff, factors := N(1), m.factors
	if c, ok := m.factors[0].(*Num); ok {
		coeff, factors = c, m.factors[1:]
	}
	var num, den []string
	for _, f := range factors {
		if p, ok := f.(*Pow); ok {
			if e, ok := p.exp.(*Num); ok && e.IsNegative() {
				den = append(den, latexFactor(PowOf(p.base, numNeg(e))))
				continue
			}
		}
		num = append(num, latexFactor(f))
	}
	sign := ""
	r := coeff.Rat()
	if r.Sign() < 0 {
		sign = "- "
		r.Neg(r)
	}
	if p := r.Num(); !p.IsInt64() || p.Int64() != 1 {
		num = append([]string{p.String()}, num...)
	}
	if q := r.Denom(); !q.IsInt64() || q.Int64() != 1 {
		den = append([]string{q.String()}, den...)
	}
	top := strings.Join(num, " ")
	if top == "" {
		top = "1"
	}
	if len(den) == 0 {
		return sign + top
	}
	return sign + "\\frac{" + top + "}{" + strings.Join(den, " ") + "}"
}

func latexFactor(e Expr) string {
	if _, ok := e.(*Add); ok {
		return "\\left(" + e.LaTeX() + "\\right)"
	}
	return e.LaTeX()
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

func (m *Mul) Diff(varName string) Expr {
	terms := make([]Expr, len(m.factors))
	for i, fi := range m.factors {
		dfi := fi.Diff(varName)
		others := make([]Expr, 0, len(m.factors)-1)
		for j, fj := range m.factors {
			if j != i {
				others = append(others, fj)
			}
		}
		terms[i] = MulOf(append([]Expr{dfi}, others...)...)
	}
	return AddOf(terms...)
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) Factors() []Expr  { return m.factors }

func extractCoefficient(e Expr) (*Num, Expr) {
	if m, ok := e.(*Mul); ok && len(m.factors) >= 2 {
		if coeff, ok2 := m.factors[0].(*Num); ok2 {
			rest := m.factors[1:]
			if len(rest) == 1 {
				return coeff, rest[0]
			}
			return coeff, &Mul{factors: rest}
		}
	}
	return N(1), e
}

// ============================================================
// Pow: base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if c, ok := base.(*Const); ok && c.name == E.name {
		return ExpOf(exp)
	}
	en, expIsNum := exp.(*Num)
	if expIsNum && en.IsZero() {
		return N(1)
	}
	if expIsNum && en.IsOne() {
		return base
	}

	if bn, ok := base.(*Num); ok {
		// 0^0 is indeterminate and 0^negative is a pole; both stay unevaluated.
		if bn.IsZero() {
			if expIsNum && !en.IsPositive() {
				return &Pow{base: base, exp: exp}
			}
			return N(0)
		}
		if bn.IsOne() {
			return N(1)
		}
		if expIsNum && en.IsInteger() {
			if e := en.val.Num().Int64(); e >= -20 && e <= 20 {
				return numPow(bn, e)
			}
		}
	}
	if expIsNum && en.IsInteger() {
		switch b := base.(type) {
		case *Pow:
			return PowOf(b.base, MulOf(b.exp, exp))
		case *Mul:
			factors := make([]Expr, len(b.factors))
			for i, f := range b.factors {
				factors[i] = PowOf(f, exp)
			}
			return MulOf(factors...)
		}
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) String() string {
	baseStr := p.base.String()
	switch b := p.base.(type) {
	case *Add, *Mul, *Pow:
		baseStr = "(" + baseStr + ")"
	case *Num:
		if !b.IsInteger() || b.IsNegative() {
			baseStr = "(" + baseStr + ")"
		}
	}
	expStr := p.exp.String()
	switch e := p.exp.(type) {
	case *Sym, *Const:
	case *Num:
		if !e.IsInteger() || e.IsNegative() {
			expStr = "(" + expStr + ")"
		}
	default:
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	if e, ok := p.exp.(*Num); ok {
		if e.IsNegative() {
			return "\\frac{1}{" + PowOf(p.base, numNeg(e)).LaTeX() + "}"
		}
		if e.Equal(F(1, 2)) {
			return "\\sqrt{" + p.base.LaTeX() + "}"
		}
	}
	baseStr := p.base.LaTeX()
	switch b := p.base.(type) {
	case *Add, *Mul, *Pow, *Func:
		baseStr = "\\left(" + baseStr + "\\right)"
	case *Num:
		if !b.IsInteger() || b.IsNegative() {
			baseStr = "\\left(" + baseStr + "\\right)"
		}
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) Expr {
	du := p.base.Diff(varName)
	dv := p.exp.Diff(varName)
	if isNumEqual(dv, 0) {
		newExp := AddOf(p.exp, N(-1))
		return MulOf(p.exp, PowOf(p.base, newExp), du)
	}
	if isNumEqual(du, 0) {
		return MulOf(PowOf(p.base, p.exp), LnOf(p.base), dv)
	}
	logTerm := MulOf(dv, LnOf(p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(PowOf(p.base, p.exp), AddOf(logTerm, divTerm))
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) Base() Expr       { return p.base }
func (p *Pow) ExpExpr() Expr    { return p.exp }

// ============================================================
// Func: named function applications
// ============================================================

type Func struct {
	name string
	arg  Expr
}

func funcOf(name string, arg Expr) *Func { return &Func{name: name, arg: arg} }

func SinOf(arg Expr) Expr  { return funcOf("sin", arg).Simplify() }
func CosOf(arg Expr) Expr  { return funcOf("cos", arg).Simplify() }
func TanOf(arg Expr) Expr  { return funcOf("tan", arg).Simplify() }
func SecOf(arg Expr) Expr  { return funcOf("sec", arg).Simplify() }
func CscOf(arg Expr) Expr  { return funcOf("csc", arg).Simplify() }
func CotOf(arg Expr) Expr  { return funcOf("cot", arg).Simplify() }
func ExpOf(arg Expr) Expr  { return funcOf("exp", arg).Simplify() }
func LnOf(arg Expr) Expr   { return funcOf("ln", arg).Simplify() }
func SqrtOf(arg Expr) Expr { return PowOf(arg, F(1, 2)) }
func AbsOf(arg Expr) Expr  { return funcOf("abs", arg).Simplify() }
func AsinOf(arg Expr) Expr { return funcOf("asin", arg).Simplify() }
func AcosOf(arg Expr) Expr { return funcOf("acos", arg).Simplify() }
func AtanOf(arg Expr) Expr { return funcOf("atan", arg).Simplify() }
func SinhOf(arg Expr) Expr { return funcOf("sinh", arg).Simplify() }
func CoshOf(arg Expr) Expr { return funcOf("cosh", arg).Simplify() }
func TanhOf(arg Expr) Expr { return funcOf("tanh", arg).Simplify() }

// Only exact identities are applied; numeric arguments stay symbolic so
// LaTeX output keeps sin(2) rather than a float.
func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()
	zero := isNumEqual(arg, 0)
	switch f.name {
	case "sin", "tan", "asin", "atan", "sinh", "tanh":
		if zero {
			return N(0)
		}
	case "cos", "cosh", "sec":
		if zero {
			return N(1)
		}
	case "exp":
		if zero {
			return N(1)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "ln" {
			return inner.arg
		}
	case "ln":
		if isNumEqual(arg, 1) {
			return N(0)
		}
		if c, ok := arg.(*Const); ok && c.name == E.name {
			return N(1)
		}
		if inner, ok := arg.(*Func); ok && inner.name == "exp" {
			return inner.arg
		}
	case "abs":
		if n, ok := arg.(*Num); ok {
			if n.IsNegative() {
				return numNeg(n)
			}
			return n
		}
		if m, ok := arg.(*Mul); ok {
			if coeff, ok2 := m.factors[0].(*Num); ok2 && coeff.IsNegative() {
				rest := append([]Expr{numNeg(coeff)}, m.factors[1:]...)
				return AbsOf(MulOf(rest...))
			}
		}
	}
	return &Func{name: f.name, arg: arg}
}

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) LaTeX() string {
	switch f.name {
	case "exp":
		return "e^{" + f.arg.LaTeX() + "}"
	case "sin", "cos", "tan", "sec", "csc", "cot", "ln", "sinh", "cosh", "tanh":
		return "\\" + f.name + "\\left(" + f.arg.LaTeX() + "\\right)"
	case "asin":
		return "\\arcsin\\left(" + f.arg.LaTeX() + "\\right)"
	case "acos":
		return "\\arccos\\left(" + f.arg.LaTeX() + "\\right)"
	case "atan":
		return "\\arctan\\left(" + f.arg.LaTeX() + "\\right)"
	case "abs":
		return "\\left|" + f.arg.LaTeX() + "\\right|"
	}
	return "\\operatorname{" + f.name + "}\\left(" + f.arg.LaTeX() + "\\right)"
}

func (f *Func) Sub(varName string, value Expr) Expr {
	return funcOf(f.name, f.arg.Sub(varName, value)).Simplify()
}

func (f *Func) Diff(varName string) Expr {
	du := f.arg.Diff(varName)
	var outer Expr
	switch f.name {
	case "sin":
		outer = CosOf(f.arg)
	case "cos":
		outer = MulOf(N(-1), SinOf(f.arg))
	case "tan":
		outer = PowOf(SecOf(f.arg), N(2))
	case "sec":
		outer = MulOf(SecOf(f.arg), TanOf(f.arg))
	case "csc":
		outer = MulOf(N(-1), CscOf(f.arg), CotOf(f.arg))
	case "cot":
		outer = MulOf(N(-1), PowOf(CscOf(f.arg), N(2)))
	case "exp":
		outer = ExpOf(f.arg)
	case "ln":
		outer = PowOf(f.arg, N(-1))
	case "abs":
		outer = MulOf(f.arg, PowOf(AbsOf(f.arg), N(-1)))
	case "asin":
		outer = PowOf(AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2)))), F(-1, 2))
	case "acos":
		outer = MulOf(N(-1), PowOf(AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2)))), F(-1, 2)))
	case "atan":
		outer = PowOf(AddOf(N(1), PowOf(f.arg, N(2))), N(-1))
	case "sinh":
		outer = CoshOf(f.arg)
	case "cosh":
		outer = SinhOf(f.arg)
	case "tanh":
		outer = AddOf(N(1), MulOf(N(-1), PowOf(TanhOf(f.arg), N(2))))
	default:
		return MulOf(funcOf("D["+f.name+"]", f.arg), du)
	}
	return MulOf(outer, du)
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) exprType() string { return "func" }
func (f *Func) FuncName() string { return f.name }
func (f *Func) Arg() Expr        { return f.arg }

func isNumEqual(e Expr, v int64) bool {
	n, ok := e.(*Num)
	return ok && n.Equal(N(v))
}

// ============================================================
// Top-level helpers
// ============================================================

func Simplify(e Expr) Expr { return e.Simplify() }
func String(e Expr) string { return e.String() }
func LaTeX(e Expr) string  { return e.LaTeX() }

func Sub(expr Expr, varName string, value Expr) Expr {
	return expr.Sub(varName, value).Simplify()
}

func Diff(expr Expr, varName string) Expr {
	return expr.Diff(varName).Simplify()
}

func Expand(e Expr) Expr { return expandExpr(e).Simplify() }

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Mul:
		result := Expr(N(1))
		for _, f := range v.factors {
			result = distribute(result, expandExpr(f))
		}
		return result
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = expandExpr(t)
		}
		return AddOf(newTerms...)
	case *Pow:
		base := expandExpr(v.base)
		if _, isSum := base.(*Add); isSum {
			if n, ok := v.exp.(*Num); ok && n.IsInteger() {
				if k := n.val.Num().Int64(); k >= 2 && k <= 10 {
					result := base
					for i := int64(1); i < k; i++ {
						result = distribute(result, base)
					}
					return result
				}
			}
		}
		return PowOf(base, expandExpr(v.exp))
	}
	return e
}

// distribute multiplies two expanded expressions term by term. The products
// are not expanded again, so merges such as x*x -> x^2 terminate.
func distribute(a, b Expr) Expr {
	as, bs := addends(a), addends(b)
	if len(as) == 1 && len(bs) == 1 {
		return MulOf(a, b)
	}
	terms := make([]Expr, 0, len(as)*len(bs))
	for _, l := range as {
		for _, r := range bs {
			terms = append(terms, MulOf(l, r))
		}
	}
	return AddOf(terms...)
}

func addends(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.terms
	}
	return []Expr{e}
}

// ============================================================
// Free Symbols
// ============================================================

func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	return result
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		collectSymbols(v.arg, out)
	}
}

// FreeOf reports whether e does not depend on varName.
func FreeOf(e Expr, varName string) bool {
	_, found := FreeSymbols(e)[varName]
	return !found
}

// replace swaps every occurrence of target inside e for with. Occurrences are
// matched on their canonical string form.
func replace(e, target, with Expr) Expr {
	if e.String() == target.String() {
		return with
	}
	switch v := e.(type) {
	case *Add:
		terms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			terms[i] = replace(t, target, with)
		}
		return AddOf(terms...)
	case *Mul:
		factors := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			factors[i] = replace(f, target, with)
		}
		return MulOf(factors...)
	case *Pow:
		return PowOf(replace(v.base, target, with), replace(v.exp, target, with))
	case *Func:
		return funcOf(v.name, replace(v.arg, target, with)).Simplify()
	}
	return e
}
