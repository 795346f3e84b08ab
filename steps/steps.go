// Package steps turns an integration derivation tree into numbered,
// human-readable explanation sentences.
package steps

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	gi "github.com/njchilds90/gointegral"
)

// Step is one numbered sentence of an explanation.
type Step struct {
	Index int
	Text  string
}

func (s Step) String() string { return strconv.Itoa(s.Index) + ". " + s.Text }

// Strings renders steps in order.
func Strings(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.String()
	}
	return out
}

// Explainer narrates derivations with one phrasebook. It holds no mutable
// state and is safe for concurrent use.
type Explainer struct {
	book *Phrasebook
}

func New(lang Language) *Explainer { return &Explainer{book: Lookup(lang)} }

var defaultExplainer = New(English)

// Explain narrates rule in English; see (*Explainer).Explain.
func Explain(rule gi.Rule, start int) ([]Step, int) { return defaultExplainer.Explain(rule, start) }

// Explain walks rule in pre-order and numbers its sentences from start.
// It returns the sentences and the next unused index, so next-start is the
// number of sentences emitted. A nil rule, or a nil pointer of a rule type,
// yields no sentences.
func (e *Explainer) Explain(rule gi.Rule, start int) ([]Step, int) {
	return e.explain(rule, start, nil)
}

func (e *Explainer) explain(rule gi.Rule, i int, out []Step) ([]Step, int) {
	if gi.Absent(rule) {
		return out, i
	}
	b := e.book
	switch r := rule.(type) {
	case *gi.ConstantMultipleRule:
		c := tex(r.Constant)
		out = append(out, Step{i, fmt.Sprintf(b.ConstantMultiple, c, c, tex(r.Other), r.Var)})
		return e.explain(r.Inner, i+1, out)
	case *gi.SumRule:
		out = append(out, Step{i, b.Sum})
		i++
		for _, term := range r.Terms {
			out, i = e.explain(term, i, out)
		}
		return out, i
	case *gi.PowerRule:
		out = append(out, Step{i, fmt.Sprintf(b.Power, tex(r.Context()))})
		return out, i + 1
	case *gi.SubstitutionRule:
		out = append(out, Step{i, fmt.Sprintf(b.Substitution, r.Symbol, tex(r.Func), tex(r.Derivative), r.Var)})
		return e.explain(r.Inner, i+1, out)
	case *gi.PartsRule:
		out = append(out, Step{i, fmt.Sprintf(b.Parts, tex(r.U), tex(r.DV), r.Var)})
		return e.explain(r.Inner, i+1, out)
	case *gi.TrigRule:
		out = append(out, Step{i, fmt.Sprintf(b.Trig, tex(r.Context()))})
		return out, i + 1
	case *gi.ExpRule:
		out = append(out, Step{i, fmt.Sprintf(b.Exp, tex(r.Context()))})
		return out, i + 1
	case *gi.ConstantRule:
		var anti string
		if r.Value != nil {
			anti = gi.MulOf(r.Value, gi.S(r.Var)).LaTeX()
		}
		out = append(out, Step{i, fmt.Sprintf(b.Constant, tex(r.Value), anti)})
		return out, i + 1
	}

	out = append(out, Step{i, fmt.Sprintf(b.Generic, tex(rule.Context()))})
	var children []gi.Rule
	if g, ok := rule.(*gi.GenericRule); ok {
		children = g.Children
	}
	switch len(children) {
	case 0:
		return out, i + 1
	case 1:
		return e.explain(children[0], i+1, out)
	}
	i++
	for _, child := range children {
		out, i = e.explain(child, i, out)
	}
	return out, i
}

func tex(e gi.Expr) string {
	if e == nil {
		return ""
	}
	return e.LaTeX()
}

// ============================================================
// Top-level narration
// ============================================================

func (e *Explainer) Intro(i int, varName string, f gi.Expr) Step {
	return Step{i, fmt.Sprintf(e.book.Intro, varName, tex(f))}
}

func (e *Explainer) Limits(i int, lower, upper float64) Step {
	return Step{i, fmt.Sprintf(e.book.Limits, FormatFloat(lower), FormatFloat(upper))}
}

func (e *Explainer) Antiderivative(i int, varName string, anti gi.Expr) Step {
	return Step{i, fmt.Sprintf(e.book.Antiderivative, varName, tex(anti))}
}

func (e *Explainer) FundamentalTheorem(i int, lower, upper float64) Step {
	return Step{i, fmt.Sprintf(e.book.FundamentalTheorem, FormatFloat(upper), FormatFloat(lower))}
}

func (e *Explainer) FinalValue(i int, v float64) Step {
	return Step{i, fmt.Sprintf(e.book.FinalValue, FormatFloat(v))}
}

func (e *Explainer) Family(i int, anti gi.Expr) Step {
	return Step{i, fmt.Sprintf(e.book.Family, tex(anti))}
}

// ErrorMessage is the user-facing text for a failed calculation.
func (e *Explainer) ErrorMessage(err error) string {
	return e.book.ErrorPrefix + err.Error()
}

// FormatFloat renders v the way a float literal is usually echoed back to
// users: shortest round-trip digits, always with a decimal point or an
// exponent (1 -> "1.0", 2.5 -> "2.5", 1e-7 -> "1e-07").
func FormatFloat(v float64) string {
	var s string
	if a := math.Abs(v); a == 0 || (a >= 1e-4 && a < 1e16) {
		s = strconv.FormatFloat(v, 'f', -1, 64)
	} else {
		s = strconv.FormatFloat(v, 'g', -1, 64)
	}
	switch s {
	case "NaN":
		return "nan"
	case "+Inf":
		return "inf"
	case "-Inf":
		return "-inf"
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
