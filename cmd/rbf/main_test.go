package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gorbf/internal/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEval_JSON(t *testing.T) {
	out, err := run(t, "eval", "--expr", "R", "--points", "-1;0;1", "--centers", "0", "--eps", "2", "--json")
	require.NoError(t, err, out)
	var got [][]float64
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, [][]float64{{2}, {0}, {2}}, got)
}

func TestEval_Table(t *testing.T) {
	out, err := run(t, "eval", "ga", "--points", "0,0;1,0", "--centers", "0,0;0,1", "--diff", "1,0")
	require.NoError(t, err, out)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "C1")
	assert.Contains(t, lines[2], "(1, 0)")
}

func TestEval_ConfigFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Basis = "exp"
	cfg.Eval = config.EvalConfig{Points: [][]float64{{1}}, Centers: [][]float64{{0}}, Diff: []int{1}}
	path := filepath.Join(t.TempDir(), "rbf.yaml")
	require.NoError(t, config.Save(path, cfg))

	out, err := run(t, "eval", "--config", path, "--json")
	require.NoError(t, err, out)
	var got [][]float64
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.InDelta(t, -0.36787944117144233, got[0][0], 1e-12)

	out, err = run(t, "eval", "--config", path, "--json", "--diff", "0")
	require.NoError(t, err, out)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.InDelta(t, 0.36787944117144233, got[0][0], 1e-12)
}

func TestEval_Errors(t *testing.T) {
	_, err := run(t, "eval", "--expr", "R")
	assert.Error(t, err)
	_, err = run(t, "eval", "--expr", "R", "--points", "0,a", "--centers", "0")
	assert.Error(t, err)
	_, err = run(t, "eval", "--expr", "R", "--points", "0", "--centers", "0", "--diff", "1,1")
	assert.Error(t, err)
	_, err = run(t, "eval", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestDerive(t *testing.T) {
	out, err := run(t, "derive", "--expr", "R^2", "--diff", "2")
	require.NoError(t, err, out)
	assert.Equal(t, "2*EPS^2", strings.TrimSpace(out))

	out, err = run(t, "derive", "--expr", "sin(EPS*R)/(EPS*R)", "--tol", "0.01", "--dim", "2")
	require.NoError(t, err, out)
	assert.True(t, strings.HasPrefix(out, "Piecewise((1, "), out)

	out, err = run(t, "derive", "phs1", "--json")
	require.NoError(t, err, out)
	assert.True(t, json.Valid([]byte(out)))
}

func TestCatalog(t *testing.T) {
	out, err := run(t, "catalog")
	require.NoError(t, err)
	for _, name := range []string{"phs1", "phs8", "mq", "imq", "iq", "ga", "exp"} {
		assert.Contains(t, out, name)
	}
}

func TestPlot(t *testing.T) {
	out, err := run(t, "plot", "ga", "--samples", "21", "--height", "5", "--eps", "1.5")
	require.NoError(t, err, out)
	assert.Contains(t, out, "derivative 0")
	assert.Greater(t, strings.Count(out, "\n"), 5)

	_, err = run(t, "plot", "ga", "--from", "1", "--to", "0")
	assert.Error(t, err)
}

func TestParseMatrix(t *testing.T) {
	m, err := parseMatrix("1, 2; 3,4;")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}}, m)
	_, err = parseMatrix("1;x")
	assert.Error(t, err)
}
