// Package config loads stylo settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/stylo/pkg/stylo/classify"
	"github.com/cognicore/stylo/pkg/stylo/internalerr"
	"github.com/cognicore/stylo/pkg/stylo/likelihood"
)

// Store drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the top-level configuration.
type Config struct {
	Store      StoreConfig       `yaml:"store"`
	Weights    WeightsConfig     `yaml:"weights"`
	Likelihood likelihood.Config `yaml:"likelihood"`
	Logging    LoggingConfig     `yaml:"logging"`
}

// StoreConfig selects where models and decisions are persisted.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	// Path is the model directory for the file driver and the database file
	// for sqlite.
	Path            string        `yaml:"path"`
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// WeightsConfig holds the per-channel classifier weights.
type WeightsConfig struct {
	Words           float64 `yaml:"words"`
	WordLengths     float64 `yaml:"word_lengths"`
	Stems           float64 `yaml:"stems"`
	SentenceLengths float64 `yaml:"sentence_lengths"`
	Punctuations    float64 `yaml:"punctuations"`
}

// ToWeights converts to the classifier's channel-ordered vector.
func (w WeightsConfig) ToWeights() classify.Weights {
	return classify.Weights{w.Words, w.WordLengths, w.Stems, w.SentenceLengths, w.Punctuations}
}

// LoggingConfig controls log level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	w := classify.DefaultWeights()
	return &Config{
		Store: StoreConfig{
			Driver:          DriverFile,
			Path:            "./models",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Weights: WeightsConfig{
			Words:           w[0],
			WordLengths:     w[1],
			Stems:           w[2],
			SentenceLengths: w[3],
			Punctuations:    w[4],
		},
		Likelihood: likelihood.DefaultConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path (if non-empty) over the defaults and applies STYLO_*
// environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %v: %w", path, err, internalerr.ErrInvalidConfig)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STYLO_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("STYLO_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("STYLO_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("STYLO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STYLO_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

// Validate checks the store driver, weights and smoothing settings.
func (c *Config) Validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverFile, DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for driver %q: %w", c.Store.Driver, internalerr.ErrInvalidConfig)
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for driver postgres: %w", internalerr.ErrInvalidConfig)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q: %w", c.Store.Driver, internalerr.ErrInvalidConfig)
	}

	if err := c.Weights.ToWeights().Validate(); err != nil {
		return err
	}
	if c.Likelihood.Unseen <= 0 {
		return fmt.Errorf("likelihood.unseen must be positive: %w", internalerr.ErrInvalidConfig)
	}
	return nil
}
