package calculator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	gi "github.com/njchilds90/gointegral"
	"github.com/njchilds90/gointegral/steps"
)

// ============================================================
// Tool calls
// ============================================================

type ToolRequest struct {
	Tool   string         `json:"tool" binding:"required"`
	Params map[string]any `json:"params"`
}

type ToolResponse struct {
	Result any      `json:"result,omitempty"`
	LaTeX  string   `json:"latex,omitempty"`
	String string   `json:"string,omitempty"`
	Steps  []string `json:"steps,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// HandleTool runs one tool call. Expressions are passed as text in the
// calculator notation; the variable defaults to x.
func (c *Calculator) HandleTool(ctx context.Context, req ToolRequest) ToolResponse {
	pre := PreprocessOptions{ReplaceLn: c.opts.ReplaceLn}
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return s, nil
	}
	getOptional := func(key, def string) (string, error) {
		if _, ok := req.Params[key]; !ok {
			return def, nil
		}
		return getString(key)
	}
	getExpr := func(key string) (gi.Expr, error) {
		s, err := getString(key)
		if err != nil {
			return nil, err
		}
		return gi.Parse(Preprocess(s, pre))
	}
	getNumber := func(key string) (float64, error) {
		v, ok := req.Params[key]
		if !ok {
			return 0, fmt.Errorf("missing param: %s", key)
		}
		switch n := v.(type) {
		case float64:
			return n, nil
		case string:
			return c.limit(n, pre)
		}
		return 0, fmt.Errorf("param %s must be a number or expression", key)
	}
	respond := func(e gi.Expr) ToolResponse {
		return ToolResponse{Result: e.String(), LaTeX: e.LaTeX(), String: e.String()}
	}
	fail := func(err error) ToolResponse { return ToolResponse{Error: err.Error()} }

	switch req.Tool {
	case "simplify", "latex":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(e)

	case "expand":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(gi.Expand(e))

	case "free_symbols":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		names := make([]string, 0)
		for name := range gi.FreeSymbols(e) {
			names = append(names, name)
		}
		sort.Strings(names)
		return ToolResponse{Result: names}

	case "diff":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := getOptional("var", Variable)
		if err != nil {
			return fail(err)
		}
		return respond(gi.Diff(e, v))

	case "integrate":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := getOptional("var", Variable)
		if err != nil {
			return fail(err)
		}
		anti, rule, err := gi.Integrate(e, v)
		if err != nil {
			return fail(err)
		}
		explained, _ := c.explainer.Explain(rule, 1)
		resp := respond(anti)
		resp.Steps = steps.Strings(explained)
		return resp

	case "definite":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := getOptional("var", Variable)
		if err != nil {
			return fail(err)
		}
		a, err := getNumber("a")
		if err != nil {
			return fail(err)
		}
		b, err := getNumber("b")
		if err != nil {
			return fail(err)
		}
		value, err := gi.DefiniteIntegral(e, v, a, b)
		if err != nil {
			return fail(err)
		}
		text := steps.FormatFloat(value)
		return ToolResponse{Result: value, LaTeX: text, String: text}

	case "evaluate":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := getOptional("var", Variable)
		if err != nil {
			return fail(err)
		}
		at, err := getNumber("at")
		if err != nil {
			return fail(err)
		}
		y, err := gi.Lambdify(e, v)(at)
		if err != nil {
			return fail(err)
		}
		return ToolResponse{Result: y, String: strconv.FormatFloat(y, 'g', -1, 64)}

	case "calculate":
		var calc Request
		raw, err := json.Marshal(req.Params)
		if err == nil {
			err = json.Unmarshal(raw, &calc)
		}
		if err != nil {
			return fail(fmt.Errorf("invalid calculate params: %w", err))
		}
		resp := c.Calculate(ctx, calc)
		if !resp.Success {
			return ToolResponse{Error: resp.Error}
		}
		return ToolResponse{Result: resp, LaTeX: resp.ResultLaTeX, Steps: resp.Steps}

	case "schema":
		return ToolResponse{Result: ToolSpec(), String: "tool specification"}
	}

	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// ToolSpec describes the tools accepted by HandleTool as JSON.
func ToolSpec() string {
	tools := []map[string]any{
		ts("simplify", "Parse and simplify an expression", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("latex", "Render an expression as LaTeX", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("expand", "Algebraically expand an expression", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("free_symbols", "Return free symbol names", []string{"expr"}, map[string]string{"expr": "string"}),
		ts("diff", "First derivative d/dvar", []string{"expr"}, map[string]string{"expr": "string", "var": "string"}),
		ts("integrate", "Antiderivative with explained steps", []string{"expr"}, map[string]string{"expr": "string", "var": "string"}),
		ts("definite", "Definite integral over [a, b]. Limits may be expressions", []string{"expr", "a", "b"}, map[string]string{"expr": "string", "var": "string", "a": "number", "b": "number"}),
		ts("evaluate", "Evaluate an expression at var = at", []string{"expr", "at"}, map[string]string{"expr": "string", "var": "string", "at": "number"}),
		ts("calculate", "Full calculation: steps, result and graph samples", []string{"function"}, map[string]string{"function": "string", "type": "string", "lower_limit": "string", "upper_limit": "string", "graph_range": "string"}),
		ts("schema", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]any{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]any {
	properties := map[string]any{}
	for k, typ := range props {
		properties[k] = map[string]any{"type": typ}
	}
	return map[string]any{
		"name":        name,
		"description": description,
		"inputSchema": map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
