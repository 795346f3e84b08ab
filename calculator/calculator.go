// Package calculator answers integration requests: it parses the function,
// integrates it, narrates the steps and samples the graph.
package calculator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	gi "github.com/njchilds90/gointegral"
	"github.com/njchilds90/gointegral/plot"
	"github.com/njchilds90/gointegral/steps"
)

var tracer = otel.Tracer("gointegral.calculator")

const (
	TypeDefinite   = "definite"
	TypeIndefinite = "indefinite"

	// Variable is the integration variable of every request.
	Variable = "x"

	// areaTolerance is the relative gap between the definite value and the
	// sampled area above which a warning is logged.
	areaTolerance = 0.05
)

// Request is the calculation input. Limits are expressions such as "pi/2".
type Request struct {
	Function   string `json:"function"`
	Type       string `json:"type" binding:"omitempty,oneof=definite indefinite"`
	LowerLimit string `json:"lower_limit"`
	UpperLimit string `json:"upper_limit"`
	GraphRange string `json:"graph_range"`
}

func (r Request) Definite() bool { return r.Type == TypeDefinite }

// Response is the calculation output. On failure only Success and Error are set.
type Response struct {
	Success     bool            `json:"success"`
	ResultLaTeX string          `json:"result_latex,omitempty"`
	Steps       []string        `json:"steps,omitempty"`
	Graph       *plot.SampleSet `json:"graph,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Options configure a Calculator.
type Options struct {
	Language              steps.Language
	ReplaceLn             bool
	IncludeAntiderivative bool
	Points                int
	AreaPoints            int
}

func DefaultOptions() Options {
	return Options{
		Language:              steps.English,
		ReplaceLn:             true,
		IncludeAntiderivative: true,
		Points:                plot.DefaultPoints,
		AreaPoints:            plot.DefaultAreaPoints,
	}
}

// Recorder receives calculation outcomes. The metrics package implements it.
type Recorder interface {
	ObserveCalculation(kind string, success bool, elapsed time.Duration)
	ObserveSampleFailures(curve string, n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveCalculation(string, bool, time.Duration) {}
func (nopRecorder) ObserveSampleFailures(string, int)              {}

// Calculator is safe for concurrent use; every call works on its own data.
type Calculator struct {
	opts      Options
	explainer *steps.Explainer
	sampler   *plot.Sampler
	recorder  Recorder
	logger    *slog.Logger
}

// Option customizes a Calculator.
type Option func(*Calculator)

func WithRecorder(r Recorder) Option { return func(c *Calculator) { c.recorder = r } }
func WithLogger(l *slog.Logger) Option { return func(c *Calculator) { c.logger = l } }

func New(opts Options, options ...Option) *Calculator {
	if opts.Points < 2 {
		opts.Points = plot.DefaultPoints
	}
	if opts.AreaPoints < 2 {
		opts.AreaPoints = plot.DefaultAreaPoints
	}
	c := &Calculator{
		opts:      opts,
		explainer: steps.New(opts.Language),
		sampler:   &plot.Sampler{Points: opts.Points, AreaPoints: opts.AreaPoints},
		recorder:  nopRecorder{},
		logger:    slog.Default(),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Calculate runs one request. Failures are reported inside the Response.
func (c *Calculator) Calculate(ctx context.Context, req Request) Response {
	kind := TypeIndefinite
	if req.Definite() {
		kind = TypeDefinite
	}
	ctx, span := tracer.Start(ctx, "Calculator.Calculate",
		trace.WithAttributes(
			attribute.String("calculation.type", kind),
			attribute.String("calculation.function", req.Function),
		),
	)
	defer span.End()

	start := time.Now()
	resp, err := c.calculate(ctx, req)
	c.recorder.ObserveCalculation(kind, err == nil, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.InfoContext(ctx, "calculation failed", "type", kind, "function", req.Function, "error", err)
		return Response{Success: false, Error: c.explainer.ErrorMessage(err)}
	}
	span.SetAttributes(attribute.Int("calculation.steps", len(resp.Steps)))
	return resp
}

func (c *Calculator) calculate(ctx context.Context, req Request) (Response, error) {
	pre := PreprocessOptions{ReplaceLn: c.opts.ReplaceLn}
	f, err := gi.Parse(Preprocess(req.Function, pre))
	if err != nil {
		return Response{}, err
	}
	ex := c.explainer
	out := []steps.Step{ex.Intro(1, Variable, f)}

	_, span := tracer.Start(ctx, "Calculator.integrate")
	anti, rule, intErr := gi.Integrate(f, Variable)
	span.SetAttributes(
		attribute.String("integration.rule", gi.RuleName(rule)),
		attribute.Int("integration.rule_count", gi.RuleCount(rule)),
	)
	span.End()
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	var result string
	var value float64
	var bounds *plot.Bounds
	if req.Definite() {
		lower, err := c.limit(req.LowerLimit, pre)
		if err != nil {
			return Response{}, fmt.Errorf("lower limit: %w", err)
		}
		upper, err := c.limit(req.UpperLimit, pre)
		if err != nil {
			return Response{}, fmt.Errorf("upper limit: %w", err)
		}
		bounds = &plot.Bounds{Lower: lower, Upper: upper}
		out = append(out, ex.Limits(2, lower, upper))

		explained, next := ex.Explain(rule, 3)
		out = append(out, explained...)

		var known gi.Expr
		if intErr == nil {
			known = anti
			out = append(out, ex.Antiderivative(next, Variable, anti), ex.FundamentalTheorem(next+1, lower, upper))
			next += 2
		} else {
			c.logger.DebugContext(ctx, "no antiderivative, using quadrature", "function", req.Function, "error", intErr)
		}
		value, err = gi.DefiniteWith(f, known, Variable, lower, upper)
		if err != nil {
			return Response{}, err
		}
		out = append(out, ex.FinalValue(next, value))
		result = steps.FormatFloat(value)
	} else {
		if intErr != nil {
			return Response{}, intErr
		}
		explained, next := ex.Explain(rule, 2)
		out = append(out, explained...)
		out = append(out, ex.Family(next, anti))
		result = anti.LaTeX() + " + C"
	}

	graph := c.sample(f, anti, intErr == nil, req.GraphRange, bounds)
	if bounds != nil {
		c.crossCheck(ctx, value, graph)
	}
	return Response{
		Success:     true,
		ResultLaTeX: result,
		Steps:       steps.Strings(out),
		Graph:       &graph,
	}, nil
}

// limit reads an integration limit, which may be any constant expression.
func (c *Calculator) limit(text string, pre PreprocessOptions) (float64, error) {
	e, err := gi.Parse(Preprocess(text, pre))
	if err != nil {
		return 0, err
	}
	v, err := gi.Value(e)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a real number: %v", gi.ErrSyntax, text, err)
	}
	return v, nil
}

// crossCheck compares the definite value with the trapezoid estimate over
// the area samples; a large gap usually means a singularity the scan missed.
func (c *Calculator) crossCheck(ctx context.Context, value float64, graph plot.SampleSet) {
	estimate, ok := graph.AreaEstimate()
	if !ok {
		return
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Float64("integral.area_estimate", estimate))
	if math.Abs(estimate-value) > areaTolerance*math.Max(1, math.Abs(value)) {
		c.logger.WarnContext(ctx, "definite value disagrees with sampled area",
			"value", value, "area_estimate", estimate)
	}
}

func (c *Calculator) sample(f, anti gi.Expr, haveAnti bool, graphRange string, bounds *plot.Bounds) plot.SampleSet {
	if graphRange == "" {
		graphRange = plot.DefaultRange
	}
	domain := plot.ParseDomain(graphRange)
	if bounds != nil {
		domain = domain.Widen(*bounds)
	}

	var F gi.Lambda
	if c.opts.IncludeAntiderivative {
		if haveAnti {
			F = gi.Lambdify(anti, Variable)
		} else {
			F = func(float64) (float64, error) { return 0, gi.ErrNoClosedForm }
		}
	}
	set := c.sampler.Sample(gi.Lambdify(f, Variable), F, domain, bounds)
	c.recorder.ObserveSampleFailures("y", set.Failures.Y)
	c.recorder.ObserveSampleFailures("y_int", set.Failures.YInt)
	c.recorder.ObserveSampleFailures("area", set.Failures.Area)
	return set
}
