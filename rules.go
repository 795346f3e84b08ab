package gointegral

// ============================================================
// Derivation tree
// ============================================================

// Rule is one node of the derivation tree recorded by Integrate. The set of
// variants is closed; a nil Rule means no derivation is available.
type Rule interface {
	// Context is the integrand this rule operates on.
	Context() Expr
	isRule()
}

// ConstantMultipleRule factors Constant out of Constant*Other.
type ConstantMultipleRule struct {
	Integrand Expr
	Var       string
	Constant  Expr
	Other     Expr
	Inner     Rule
}

// SumRule integrates each term of a sum separately.
type SumRule struct {
	Integrand Expr
	Var       string
	Terms     []Rule
}

// PowerRule integrates Base^Exp with Exp != -1.
type PowerRule struct {
	Integrand Expr
	Var       string
	Base      Expr
	Exp       Expr
}

// SubstitutionRule replaces Func with the fresh symbol Symbol, where
// Derivative is d(Func)/dVar. Inner integrates the rewritten integrand in Symbol.
type SubstitutionRule struct {
	Integrand  Expr
	Var        string
	Symbol     string
	Func       Expr
	Derivative Expr
	Inner      Rule
}

// PartsRule integrates U*DV as U*V - ∫V dU. Inner integrates V*dU.
type PartsRule struct {
	Integrand Expr
	Var       string
	U         Expr
	DV        Expr
	Inner     Rule
}

// TrigRule is a table integral of a trigonometric function.
type TrigRule struct {
	Integrand Expr
	Var       string
	Func      string
}

// ExpRule integrates Base^Var, with Base = E for the natural exponential.
type ExpRule struct {
	Integrand Expr
	Var       string
	Base      Expr
}

// ConstantRule integrates an integrand free of the variable.
type ConstantRule struct {
	Integrand Expr
	Var       string
	Value     Expr
}

// GenericRule covers every other step. Children holds zero, one or many
// sub-derivations.
type GenericRule struct {
	Integrand Expr
	Var       string
	Name      string
	Children  []Rule
}

func (r *ConstantMultipleRule) Context() Expr { return r.Integrand }
func (r *SumRule) Context() Expr              { return r.Integrand }
func (r *PowerRule) Context() Expr            { return r.Integrand }
func (r *SubstitutionRule) Context() Expr     { return r.Integrand }
func (r *PartsRule) Context() Expr            { return r.Integrand }
func (r *TrigRule) Context() Expr             { return r.Integrand }
func (r *ExpRule) Context() Expr              { return r.Integrand }
func (r *ConstantRule) Context() Expr         { return r.Integrand }
func (r *GenericRule) Context() Expr          { return r.Integrand }

func (*ConstantMultipleRule) isRule() {}
func (*SumRule) isRule()              {}
func (*PowerRule) isRule()            {}
func (*SubstitutionRule) isRule()     {}
func (*PartsRule) isRule()            {}
func (*TrigRule) isRule()             {}
func (*ExpRule) isRule()              {}
func (*ConstantRule) isRule()         {}
func (*GenericRule) isRule()          {}

// Absent reports whether r is nil, including a nil pointer of one of the
// rule types stored in a Rule.
func Absent(r Rule) bool {
	switch v := r.(type) {
	case nil:
		return true
	case *ConstantMultipleRule:
		return v == nil
	case *SumRule:
		return v == nil
	case *PowerRule:
		return v == nil
	case *SubstitutionRule:
		return v == nil
	case *PartsRule:
		return v == nil
	case *TrigRule:
		return v == nil
	case *ExpRule:
		return v == nil
	case *ConstantRule:
		return v == nil
	case *GenericRule:
		return v == nil
	}
	return false
}

// RuleName returns a short stable name for r, used in tool output and logs.
func RuleName(r Rule) string {
	if Absent(r) {
		return ""
	}
	switch v := r.(type) {
	case *ConstantMultipleRule:
		return "constant_multiple"
	case *SumRule:
		return "sum"
	case *PowerRule:
		return "power"
	case *SubstitutionRule:
		return "substitution"
	case *PartsRule:
		return "parts"
	case *TrigRule:
		return "trig"
	case *ExpRule:
		return "exp"
	case *ConstantRule:
		return "constant"
	case *GenericRule:
		return v.Name
	}
	return "unknown"
}

// RuleCount returns the number of nodes in the tree rooted at r.
func RuleCount(r Rule) int {
	if Absent(r) {
		return 0
	}
	switch v := r.(type) {
	case *ConstantMultipleRule:
		return 1 + RuleCount(v.Inner)
	case *SumRule:
		n := 1
		for _, t := range v.Terms {
			n += RuleCount(t)
		}
		return n
	case *SubstitutionRule:
		return 1 + RuleCount(v.Inner)
	case *PartsRule:
		return 1 + RuleCount(v.Inner)
	case *GenericRule:
		n := 1
		for _, c := range v.Children {
			n += RuleCount(c)
		}
		return n
	}
	return 1
}
