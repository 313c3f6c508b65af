package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/njchilds90/gorbf"
	"github.com/njchilds90/gorbf/internal/archivist"
	"github.com/njchilds90/gorbf/internal/server"
	"github.com/njchilds90/gorbf/numeric"
	"github.com/njchilds90/gorbf/symbolic"
)

// Defaults for fields missing from a config file.
const (
	DefaultBasis    = "phs3"
	DefaultAddr     = ":8080"
	DefaultFrom     = -2.0
	DefaultTo       = 2.0
	DefaultSamples  = 81
	DefaultHeight   = 15
	DefaultLogLevel = "warning"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the YAML configuration shared by every rbf command.
type Config struct {
	Basis      string       `yaml:"basis"`
	Expression string       `yaml:"expression,omitempty"`
	Backend    string       `yaml:"backend"`
	Tolerance  float64      `yaml:"tolerance"`
	LogLevel   string       `yaml:"log_level"`
	DebugLevel int          `yaml:"debug_level"`
	Eval       EvalConfig   `yaml:"eval"`
	Plot       PlotConfig   `yaml:"plot"`
	Server     ServerConfig `yaml:"server"`
}

// EvalConfig holds the inputs of rbf eval.
type EvalConfig struct {
	Points  [][]float64 `yaml:"points,omitempty"`
	Centers [][]float64 `yaml:"centers,omitempty"`
	Shape   []float64   `yaml:"shape,omitempty"`
	Diff    []int       `yaml:"diff,omitempty"`
}

// PlotConfig is the sampling window of rbf plot.
type PlotConfig struct {
	From    float64 `yaml:"from"`
	To      float64 `yaml:"to"`
	Samples int     `yaml:"samples"`
	Height  int     `yaml:"height"`
}

// ServerConfig configures rbf serve.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	MaxEngines int    `yaml:"max_engines"`
	MaxDim     int    `yaml:"max_dim"`
	MaxOrder   int    `yaml:"max_order"`
}

// Limits returns the request limits of the HTTP server.
func (s ServerConfig) Limits() server.Limits {
	return server.Limits{MaxEngines: s.MaxEngines, MaxDim: s.MaxDim, MaxOrder: s.MaxOrder}
}

// DefaultConfig returns the configuration used without a config file.
func DefaultConfig() *Config {
	return &Config{
		Basis:    DefaultBasis,
		Backend:  numeric.Native,
		LogLevel: DefaultLogLevel,
		Plot: PlotConfig{
			From:    DefaultFrom,
			To:      DefaultTo,
			Samples: DefaultSamples,
			Height:  DefaultHeight,
		},
		Server: ServerConfig{
			Addr:       DefaultAddr,
			MaxEngines: server.DefaultMaxEngines,
			MaxDim:     server.DefaultMaxDim,
			MaxOrder:   server.DefaultMaxOrder,
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that can be checked without building an
// engine. An expression, when set, takes precedence over the basis name.
func (c *Config) Validate() error {
	if c.Expression == "" && c.Basis == "" {
		return fmt.Errorf("%w: basis or expression is required", ErrInvalid)
	}
	if c.Expression != "" {
		if _, err := symbolic.Parse(c.Expression); err != nil {
			return fmt.Errorf("%w: expression: %w", ErrInvalid, err)
		}
	}
	if !slices.Contains(numeric.Names(), c.Backend) {
		return fmt.Errorf("%w: unknown backend %q", ErrInvalid, c.Backend)
	}
	if c.Tolerance < 0 {
		return fmt.Errorf("%w: negative tolerance %g", ErrInvalid, c.Tolerance)
	}
	if _, err := archivist.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Plot.Samples < 2 || c.Plot.From >= c.Plot.To {
		return fmt.Errorf("%w: plot range [%g, %g] with %d samples", ErrInvalid, c.Plot.From, c.Plot.To, c.Plot.Samples)
	}
	if c.Server.MaxEngines < 1 || c.Server.MaxDim < 1 || c.Server.MaxOrder < 1 {
		return fmt.Errorf("%w: server limits %d engines, %d dimensions, order %d",
			ErrInvalid, c.Server.MaxEngines, c.Server.MaxDim, c.Server.MaxOrder)
	}
	for _, k := range c.Eval.Diff {
		if k < 0 {
			return fmt.Errorf("%w: negative derivative order %d", ErrInvalid, k)
		}
	}
	return nil
}

// Expr returns the configured expression, or the catalog entry's.
func (c *Config) Expr() (symbolic.Expr, error) {
	if c.Expression != "" {
		return symbolic.Parse(c.Expression)
	}
	b, err := gorbf.Lookup(c.Basis)
	if err != nil {
		return nil, err
	}
	return b.Expr, nil
}

// Engine builds an engine for the configured basis and policy.
func (c *Config) Engine(log *archivist.Archivist) (*gorbf.Engine, error) {
	expr, err := c.Expr()
	if err != nil {
		return nil, err
	}
	return gorbf.New(expr,
		gorbf.WithBackend(c.Backend),
		gorbf.WithTolerance(c.Tolerance),
		gorbf.WithLogger(log),
	)
}

// Logger builds the logger for the configured levels.
func (c *Config) Logger(out archivist.Logger) *archivist.Archivist {
	level, err := archivist.ParseLevel(c.LogLevel)
	if err != nil {
		level = archivist.LEVEL_WARNING
	}
	return archivist.New(&archivist.Config{Logger: out, LogLevel: level, DebugLevel: c.DebugLevel})
}
