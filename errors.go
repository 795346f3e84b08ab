package gointegral

import "errors"

var (
	// ErrSyntax is returned when text cannot be read as a real expression.
	ErrSyntax = errors.New("invalid expression")
	// ErrNoClosedForm is returned when no integration rule matches.
	ErrNoClosedForm = errors.New("no closed-form antiderivative found")
	ErrUndefined    = errors.New("undefined value")
	ErrNonReal      = errors.New("non-real value")
	ErrNonFinite    = errors.New("non-finite value")
	ErrUnbound      = errors.New("unbound symbol")
	// ErrDivergent is returned when an improper integral has no finite value.
	ErrDivergent = errors.New("integral does not converge")
	// ErrSingular is returned when the integrand is unbounded inside the
	// interval and no antiderivative is available to decide convergence.
	ErrSingular = errors.New("integrand is unbounded inside the interval")
)
