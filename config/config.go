package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/meenmo/curvecal/calibration"
)

// Config holds solver, logging and I/O settings for a calibration run.
// Nothing here is global: callers load a Config and pass it down.
type Config struct {
	Solver     SolverConfig     `yaml:"solver"`
	Measures   string           `yaml:"measures"`
	Logging    LoggingConfig    `yaml:"logging"`
	QuoteStore QuoteStoreConfig `yaml:"quote_store"`
	Output     OutputConfig     `yaml:"output"`
}

type SolverConfig struct {
	// AbsoluteTolerance bounds the residual norm.
	AbsoluteTolerance float64 `yaml:"absolute_tolerance"`

	// RelativeTolerance bounds the residual norm relative to the starting residual.
	RelativeTolerance float64 `yaml:"relative_tolerance"`

	// MaxIterations is the Broyden step budget per curve group.
	MaxIterations int `yaml:"max_iterations"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type QuoteStoreConfig struct {
	DSN   string `yaml:"dsn"`
	Table string `yaml:"table"`
}

type OutputConfig struct {
	JacobianParquet string `yaml:"jacobian_parquet"`
}

// Default returns production defaults.
func Default() Config {
	cc := calibration.DefaultConfig()
	return Config{
		Solver: SolverConfig{
			AbsoluteTolerance: cc.AbsoluteTolerance,
			RelativeTolerance: cc.RelativeTolerance,
			MaxIterations:     cc.MaxSteps,
		},
		Measures: cc.Measures.Name(),
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSizeMB:  100,
			MaxBackups: 3,
		},
		QuoteStore: QuoteStoreConfig{Table: "quotes"},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("Load: read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("Load: parse config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from CURVECAL_* environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv("CURVECAL_LOG_LEVEL")); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("CURVECAL_DSN")); v != "" {
		c.QuoteStore.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv("CURVECAL_MEASURES")); v != "" {
		c.Measures = v
	}
}

// Validate rejects settings the calibrator cannot run with.
func (c Config) Validate() error {
	if c.Solver.AbsoluteTolerance <= 0 {
		return fmt.Errorf("solver.absolute_tolerance must be greater than 0")
	}
	if c.Solver.RelativeTolerance <= 0 {
		return fmt.Errorf("solver.relative_tolerance must be greater than 0")
	}
	if c.Solver.MaxIterations <= 0 {
		return fmt.Errorf("solver.max_iterations must be greater than 0")
	}
	if _, err := calibration.MeasuresByName(c.Measures); err != nil {
		return fmt.Errorf("measures: %w", err)
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	if c.QuoteStore.DSN != "" && c.QuoteStore.Table == "" {
		return fmt.Errorf("quote_store.table is required when quote_store.dsn is set")
	}
	return nil
}

// CalibratorConfig maps the solver section onto calibration.Config.
func (c Config) CalibratorConfig() (calibration.Config, error) {
	m, err := calibration.MeasuresByName(c.Measures)
	if err != nil {
		return calibration.Config{}, fmt.Errorf("CalibratorConfig: %w", err)
	}
	return calibration.Config{
		AbsoluteTolerance: c.Solver.AbsoluteTolerance,
		RelativeTolerance: c.Solver.RelativeTolerance,
		MaxSteps:          c.Solver.MaxIterations,
		Measures:          m,
	}, nil
}
