package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSolveIndefinite(t *testing.T) {
	out, err := run(t, "solve", "6*x^2 + sin(x)")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Identify the function to integrate")
	assert.Contains(t, out, `Result: 2 x^{3} - \cos\left(x\right) + C`)
}

func TestSolveDefiniteJSON(t *testing.T) {
	out, err := run(t, "solve", "x", "--type", "definite", "--lower", "0", "--upper", "1", "--json")
	require.NoError(t, err)

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "0.5", resp["result_latex"])
	assert.Contains(t, resp, "graph")
}

func TestSolveErrors(t *testing.T) {
	_, err := run(t, "solve", "sin(")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Technical details")

	_, err = run(t, "solve", "x", "--type", "improper")
	require.Error(t, err)

	_, err = run(t, "solve")
	require.Error(t, err)
}

func TestSchema(t *testing.T) {
	out, err := run(t, "schema")
	require.NoError(t, err)
	assert.True(t, json.Valid([]byte(out)))
	assert.Contains(t, out, `"integrate"`)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := run(t, "solve", "x", "--config", "does-not-exist.yaml")
	require.Error(t, err)
}
