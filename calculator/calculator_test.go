package calculator_test

import (
	"context"
	"encoding/json"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/njchilds90/gointegral/calculator"
	"github.com/njchilds90/gointegral/steps"
)

const errPrefix = "Error processing the mathematical function. Check the syntax. Technical details: "

type fakeRecorder struct {
	mu       sync.Mutex
	calls    map[string]int
	failures map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{calls: map[string]int{}, failures: map[string]int{}}
}

func (f *fakeRecorder) ObserveCalculation(kind string, success bool, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := kind + ":ok"
	if !success {
		key = kind + ":error"
	}
	f.calls[key]++
}

func (f *fakeRecorder) ObserveSampleFailures(curve string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[curve] += n
}

func newCalculator(opts ...func(*calculator.Options)) *calculator.Calculator {
	o := calculator.DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return calculator.New(o)
}

func TestPreprocess(t *testing.T) {
	assert.Equal(t, "x**2 + log(x)", calculator.Preprocess("x^2 + ln(x)", calculator.PreprocessOptions{ReplaceLn: true}))
	assert.Equal(t, "x**2 + ln(x)", calculator.Preprocess("x^2 + ln(x)", calculator.PreprocessOptions{}))
}

func TestCalculate_IndefiniteScenario(t *testing.T) {
	resp := newCalculator().Calculate(context.Background(), calculator.Request{
		Function: "6*x^2 + sin(x)",
		Type:     calculator.TypeIndefinite,
	})
	require.True(t, resp.Success, resp.Error)

	assert.Equal(t, `2 x^{3} - \cos\left(x\right) + C`, resp.ResultLaTeX)
	assert.Equal(t, []string{
		`1. Identify the function to integrate: \( f(x) = 6 x^{2} + \sin\left(x\right) \)`,
		"2. Apply the sum rule, integrating each term separately.",
		`3. Factor out the constant \( 6 \): \( 6 \int x^{2} \, dx \)`,
		`4. Apply the power rule to \( x^{2} \).`,
		`5. Apply a trigonometric integral to \( \sin\left(x\right) \).`,
		`6. Write the family of antiderivatives (remember the constant C): \( 2 x^{3} - \cos\left(x\right) + C \)`,
	}, resp.Steps)

	require.NotNil(t, resp.Graph)
	assert.Len(t, resp.Graph.X, 400)
	assert.Len(t, resp.Graph.Y, 400)
	assert.Len(t, resp.Graph.YInt, 400)
	assert.Nil(t, resp.Graph.AreaX)
	assert.Equal(t, -10.0, resp.Graph.X[0])
}

func TestCalculate_DefiniteScenario(t *testing.T) {
	resp := newCalculator().Calculate(context.Background(), calculator.Request{
		Function:   "x",
		Type:       calculator.TypeDefinite,
		LowerLimit: "0",
		UpperLimit: "1",
	})
	require.True(t, resp.Success, resp.Error)

	assert.Equal(t, "0.5", resp.ResultLaTeX)
	assert.Equal(t, []string{
		`1. Identify the function to integrate: \( f(x) = x \)`,
		`2. Evaluate the limits of integration: from \( a = 0.0 \) to \( b = 1.0 \).`,
		`3. Apply the power rule to \( x \).`,
		`4. Antiderivative obtained: \( F(x) = \frac{x^{2}}{2} \)`,
		`5. Apply the Fundamental Theorem of Calculus: \( F(1.0) - F(0.0) \)`,
		`6. Final numeric result: \( 0.5 \)`,
	}, resp.Steps)
	assert.Len(t, resp.Graph.AreaX, 150)
	assert.Len(t, resp.Graph.AreaY, 150)
	assert.Equal(t, 0.0, resp.Graph.AreaX[0])
	assert.Equal(t, 1.0, resp.Graph.AreaX[149])
}

func TestCalculate_DefiniteWidensDomain(t *testing.T) {
	resp := newCalculator().Calculate(context.Background(), calculator.Request{
		Function:   "x^2",
		Type:       calculator.TypeDefinite,
		LowerLimit: "-2",
		UpperLimit: "5",
		GraphRange: "-1,3",
	})
	require.True(t, resp.Success, resp.Error)
	assert.Equal(t, -3.0, resp.Graph.X[0])
	assert.Equal(t, 6.0, resp.Graph.X[399])
	assert.InDelta(t, 133.0/3, mustFloat(t, resp.ResultLaTeX), 1e-9)
}

func TestCalculate_ExpressionLimits(t *testing.T) {
	resp := newCalculator().Calculate(context.Background(), calculator.Request{
		Function:   "sin(x)",
		Type:       calculator.TypeDefinite,
		LowerLimit: "0",
		UpperLimit: "pi/2",
	})
	require.True(t, resp.Success, resp.Error)
	assert.InDelta(t, 1.0, mustFloat(t, resp.ResultLaTeX), 1e-12)
	assert.Contains(t, resp.Steps[1], `b = 1.5707963267948966`)
}

func TestCalculate_DefiniteWithoutAntiderivative(t *testing.T) {
	resp := newCalculator().Calculate(context.Background(), calculator.Request{
		Function:   "exp(-x^2)",
		Type:       calculator.TypeDefinite,
		LowerLimit: "0",
		UpperLimit: "1",
	})
	require.True(t, resp.Success, resp.Error)
	assert.InDelta(t, 0.746824132812427, mustFloat(t, resp.ResultLaTeX), 1e-9)
	require.Len(t, resp.Steps, 3)
	assert.True(t, strings.HasPrefix(resp.Steps[2], "3. Final numeric result"))

	require.Len(t, resp.Graph.YInt, 400)
	for _, y := range resp.Graph.YInt {
		assert.Nil(t, y)
	}
}

func TestCalculate_ProductsByParts(t *testing.T) {
	c := newCalculator()
	for _, fn := range []string{"x^2*exp(x)", "x^2*cos(x)", "x^2*sin(x)"} {
		resp := c.Calculate(context.Background(), calculator.Request{Function: fn})
		require.True(t, resp.Success, fn+": "+resp.Error)
		assert.True(t, strings.HasSuffix(resp.ResultLaTeX, " + C"), resp.ResultLaTeX)
		assert.Contains(t, strings.Join(resp.Steps, "\n"), "Integrate by parts", fn)
	}

	cases := []struct {
		fn, lower, upper string
		want             float64
	}{
		{"x^2*exp(x)", "0", "1", math.E - 2},
		{"x^2*cos(x)", "0", "pi", -2 * math.Pi},
	}
	for _, tc := range cases {
		resp := c.Calculate(context.Background(), calculator.Request{
			Function: tc.fn, Type: calculator.TypeDefinite, LowerLimit: tc.lower, UpperLimit: tc.upper,
		})
		require.True(t, resp.Success, tc.fn+": "+resp.Error)
		assert.InDelta(t, tc.want, mustFloat(t, resp.ResultLaTeX), 1e-9, tc.fn)
	}
}

func TestCalculate_DivergentDefinite(t *testing.T) {
	c := newCalculator()
	for _, fn := range []string{"1/x^2", "1/x"} {
		resp := c.Calculate(context.Background(), calculator.Request{
			Function: fn, Type: calculator.TypeDefinite, LowerLimit: "-1", UpperLimit: "1",
		})
		assert.False(t, resp.Success, fn)
		assert.True(t, strings.HasPrefix(resp.Error, errPrefix), resp.Error)
		assert.Contains(t, resp.Error, "does not converge", fn)
		assert.Nil(t, resp.Graph)
	}
}

func TestCalculate_ConvergentImproper(t *testing.T) {
	resp := newCalculator().Calculate(context.Background(), calculator.Request{
		Function: "1/sqrt(x)", Type: calculator.TypeDefinite, LowerLimit: "0", UpperLimit: "1",
	})
	require.True(t, resp.Success, resp.Error)
	assert.InDelta(t, 2.0, mustFloat(t, resp.ResultLaTeX), 1e-6)
}

func TestCalculate_RecordsSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	before := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	// latest maps each span name to the attributes of its last ended span.
	latest := func() map[string]map[attribute.Key]attribute.Value {
		attrs := map[string]map[attribute.Key]attribute.Value{}
		for _, span := range sr.Ended() {
			attrs[span.Name()] = map[attribute.Key]attribute.Value{}
			for _, kv := range span.Attributes() {
				attrs[span.Name()][kv.Key] = kv.Value
			}
		}
		return attrs
	}

	c := newCalculator()
	resp := c.Calculate(context.Background(), calculator.Request{Function: "x^2*exp(x)"})
	require.True(t, resp.Success, resp.Error)

	attrs := latest()
	require.Contains(t, attrs, "Calculator.Calculate")
	require.Contains(t, attrs, "Calculator.integrate")
	assert.Equal(t, "indefinite", attrs["Calculator.Calculate"]["calculation.type"].AsString())
	assert.Equal(t, "parts", attrs["Calculator.integrate"]["integration.rule"].AsString())
	assert.Greater(t, attrs["Calculator.integrate"]["integration.rule_count"].AsInt64(), int64(1))

	resp = c.Calculate(context.Background(), calculator.Request{
		Function: "x", Type: calculator.TypeDefinite, LowerLimit: "0", UpperLimit: "1",
	})
	require.True(t, resp.Success, resp.Error)
	attrs = latest()
	assert.InDelta(t, 0.5, attrs["Calculator.Calculate"]["integral.area_estimate"].AsFloat64(), 1e-9)
}

func TestCalculate_IndefiniteWithoutAntiderivative(t *testing.T) {
	resp := newCalculator().Calculate(context.Background(), calculator.Request{Function: "exp(-x^2)"})
	assert.False(t, resp.Success)
	assert.True(t, strings.HasPrefix(resp.Error, errPrefix), resp.Error)
	assert.Nil(t, resp.Graph)
	assert.Empty(t, resp.Steps)
}

func TestCalculate_SyntaxErrors(t *testing.T) {
	c := newCalculator()
	for _, req := range []calculator.Request{
		{Function: "sin("},
		{Function: ""},
		{Function: "x", Type: calculator.TypeDefinite, LowerLimit: "abc", UpperLimit: "1"},
		{Function: "x", Type: calculator.TypeDefinite, LowerLimit: "0", UpperLimit: ""},
		{Function: "x", Type: calculator.TypeDefinite, LowerLimit: "sqrt(-1)", UpperLimit: "1"},
	} {
		resp := c.Calculate(context.Background(), req)
		assert.False(t, resp.Success, "%+v", req)
		assert.True(t, strings.HasPrefix(resp.Error, errPrefix), resp.Error)
	}
}

func TestCalculate_FailureJSON(t *testing.T) {
	resp := newCalculator().Calculate(context.Background(), calculator.Request{Function: "2x"})
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Len(t, decoded, 2)
	assert.Equal(t, false, decoded["success"])
	assert.Contains(t, decoded, "error")
}

func TestCalculate_MalformedRangeFallsBack(t *testing.T) {
	resp := newCalculator().Calculate(context.Background(), calculator.Request{Function: "x", GraphRange: "oops"})
	require.True(t, resp.Success)
	assert.Equal(t, -10.0, resp.Graph.X[0])
	assert.Equal(t, 10.0, resp.Graph.X[399])
}

func TestCalculate_WithoutAntiderivativeCurve(t *testing.T) {
	c := newCalculator(func(o *calculator.Options) { o.IncludeAntiderivative = false })
	resp := c.Calculate(context.Background(), calculator.Request{Function: "x"})
	require.True(t, resp.Success)
	assert.Nil(t, resp.Graph.YInt)

	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "y_int")
}

func TestCalculate_Spanish(t *testing.T) {
	c := newCalculator(func(o *calculator.Options) { o.Language = steps.Spanish })
	resp := c.Calculate(context.Background(), calculator.Request{Function: "x"})
	require.True(t, resp.Success)
	assert.Equal(t, `1. Identificamos la función a integrar: \( f(x) = x \)`, resp.Steps[0])

	bad := c.Calculate(context.Background(), calculator.Request{Function: "sin("})
	assert.True(t, strings.HasPrefix(bad.Error, "Error al procesar la función matemática. Revisa la sintaxis. Detalles técnicos: "))
}

func TestCalculate_RecordsOutcomes(t *testing.T) {
	rec := newFakeRecorder()
	c := calculator.New(calculator.DefaultOptions(), calculator.WithRecorder(rec))

	c.Calculate(context.Background(), calculator.Request{Function: "1/x", GraphRange: "-100,299"})
	c.Calculate(context.Background(), calculator.Request{Function: "sin(", Type: calculator.TypeDefinite})

	assert.Equal(t, 1, rec.calls["indefinite:ok"])
	assert.Equal(t, 1, rec.calls["definite:error"])
	assert.Equal(t, 1, rec.failures["y"])
	assert.Equal(t, 1, rec.failures["y_int"])
}

func TestCalculate_Idempotent(t *testing.T) {
	c := newCalculator()
	req := calculator.Request{Function: "x*exp(x)", Type: calculator.TypeDefinite, LowerLimit: "-1", UpperLimit: "2"}
	first, err := json.Marshal(c.Calculate(context.Background(), req))
	require.NoError(t, err)
	second, err := json.Marshal(c.Calculate(context.Background(), req))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestCalculate_Concurrent(t *testing.T) {
	c := newCalculator()
	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Calculate(context.Background(), calculator.Request{Function: "x*sin(x)"}).ResultLaTeX
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
}

func TestCalculate_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := newCalculator().Calculate(ctx, calculator.Request{Function: "x"})
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, context.Canceled.Error())
}

func mustFloat(t *testing.T, s string) float64 {
	t.Helper()
	var v float64
	require.NoError(t, json.Unmarshal([]byte(s), &v), s)
	return v
}
