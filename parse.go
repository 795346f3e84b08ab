package gointegral

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// unaryFuncs maps accepted function names to their constructors.
var unaryFuncs = map[string]func(Expr) Expr{
	"sin":  SinOf,
	"cos":  CosOf,
	"tan":  TanOf,
	"sec":  SecOf,
	"csc":  CscOf,
	"cot":  CotOf,
	"asin": AsinOf,
	"acos": AcosOf,
	"atan": AtanOf,
	"sinh": SinhOf,
	"cosh": CoshOf,
	"tanh": TanhOf,
	"exp":  ExpOf,
	"log":  LnOf,
	"ln":   LnOf,
	"sqrt": SqrtOf,
	"abs":  AbsOf,
}

// Parse reads text written with + - * / ** ^, parentheses, numbers,
// identifiers, the constants pi and E, and the functions in unaryFuncs.
// Any other identifier becomes a symbol.
func Parse(text string) (Expr, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrSyntax)
	}
	tree, err := parser.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	e, err := fromNode(tree.Node)
	if err != nil {
		return nil, err
	}
	return e.Simplify(), nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(text string) Expr {
	e, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return e
}

func fromNode(node ast.Node) (Expr, error) {
	switch n := node.(type) {
	case *ast.IntegerNode:
		return N(int64(n.Value)), nil
	case *ast.FloatNode:
		return NFloat(n.Value), nil
	case *ast.IdentifierNode:
		switch n.Value {
		case "pi":
			return Pi, nil
		case "E":
			return E, nil
		}
		return S(n.Value), nil
	case *ast.UnaryNode:
		operand, err := fromNode(n.Node)
		if err != nil {
			return nil, err
		}
		switch n.Operator {
		case "-":
			return MulOf(N(-1), operand), nil
		case "+":
			return operand, nil
		}
		return nil, fmt.Errorf("%w: unsupported operator %q", ErrSyntax, n.Operator)
	case *ast.BinaryNode:
		return fromBinary(n)
	case *ast.CallNode:
		callee, ok := n.Callee.(*ast.IdentifierNode)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported call", ErrSyntax)
		}
		return fromCall(callee.Value, n.Arguments)
	case *ast.BuiltinNode:
		return fromCall(n.Name, n.Arguments)
	}
	return nil, fmt.Errorf("%w: unsupported term %q", ErrSyntax, node.String())
}

func fromBinary(n *ast.BinaryNode) (Expr, error) {
	left, err := fromNode(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := fromNode(n.Right)
	if err != nil {
		return nil, err
	}
	switch n.Operator {
	case "+":
		return AddOf(left, right), nil
	case "-":
		return AddOf(left, MulOf(N(-1), right)), nil
	case "*":
		return MulOf(left, right), nil
	case "/":
		if isNumEqual(right, 0) {
			return nil, fmt.Errorf("%w: division by zero", ErrSyntax)
		}
		return MulOf(left, PowOf(right, N(-1))), nil
	case "**", "^":
		return PowOf(left, right), nil
	}
	return nil, fmt.Errorf("%w: unsupported operator %q", ErrSyntax, n.Operator)
}

func fromCall(name string, args []ast.Node) (Expr, error) {
	fn, ok := unaryFuncs[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown function %q", ErrSyntax, name)
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: %s takes one argument, got %d", ErrSyntax, name, len(args))
	}
	arg, err := fromNode(args[0])
	if err != nil {
		return nil, err
	}
	return fn(arg), nil
}
