package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/gorbf/internal/server"
	"github.com/njchilds90/gorbf/numeric"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultBasis, cfg.Basis)
	assert.Equal(t, numeric.Native, cfg.Backend)
	require.NoError(t, cfg.Validate())
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rbf.yaml")
	cfg := DefaultConfig()
	cfg.Expression = "sin(EPS*R)/(EPS*R)"
	cfg.Tolerance = 1e-6
	cfg.Eval = EvalConfig{
		Points:  [][]float64{{0, 0}, {1, 2}},
		Centers: [][]float64{{0, 0}},
		Shape:   []float64{2},
		Diff:    []int{1, 0},
	}
	require.NoError(t, Save(path, cfg))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestLoad_KeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rbf.yaml")
	require.NoError(t, os.WriteFile(path, []byte("basis: ga\ntolerance: 0.001\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ga", cfg.Basis)
	assert.Equal(t, 0.001, cfg.Tolerance)
	assert.Equal(t, DefaultSamples, cfg.Plot.Samples)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, server.DefaultLimits(), cfg.Server.Limits())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("basis: [unterminated"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no basis", func(c *Config) { c.Basis = "" }},
		{"bad expression", func(c *Config) { c.Expression = "R +" }},
		{"backend", func(c *Config) { c.Backend = "fortran" }},
		{"tolerance", func(c *Config) { c.Tolerance = -1 }},
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"plot range", func(c *Config) { c.Plot.From, c.Plot.To = 1, 1 }},
		{"samples", func(c *Config) { c.Plot.Samples = 1 }},
		{"diff", func(c *Config) { c.Eval.Diff = []int{0, -1} }},
		{"server engines", func(c *Config) { c.Server.MaxEngines = 0 }},
		{"server dimensions", func(c *Config) { c.Server.MaxDim = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestEngine(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Basis = "phs1"
	e, err := cfg.Engine(nil)
	require.NoError(t, err)
	assert.Equal(t, numeric.Native, e.Backend())

	cfg.Expression = "R^2"
	expr, err := cfg.Expr()
	require.NoError(t, err)
	assert.Equal(t, "R^2", expr.String())

	cfg.Expression = ""
	cfg.Basis = "nope"
	_, err = cfg.Engine(nil)
	assert.Error(t, err)
}
