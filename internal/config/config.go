// Package config loads antpair settings from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lumais/antpair/internal/pairing"
	"gopkg.in/yaml.v3"
)

// DefaultPath is looked up in the working directory when --config is not given.
const DefaultPath = "antpair.yaml"

// Config holds all antpair configuration.
type Config struct {
	Resolver ResolverConfig `yaml:"resolver"`
	Classes  []ClassEntry   `yaml:"classes"`
	Export   ExportConfig   `yaml:"export"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ResolverConfig configures body/head association.
type ResolverConfig struct {
	Strategy string `yaml:"strategy"`  // passes, matching
	Passes   int    `yaml:"passes"`    // sweeps for the passes strategy
	TieBreak string `yaml:"tie_break"` // none, lowest-id
}

// ExportConfig configures YOLO label export.
type ExportConfig struct {
	// Objects carrying this classification answer are left out of training labels.
	SkipAnswer string `yaml:"skip_answer"`
	OutputDir  string `yaml:"output_dir"`
}

// DatabaseConfig configures the run history store.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Resolver: ResolverConfig{
			Strategy: string(pairing.StrategyPasses),
			Passes:   pairing.DefaultPasses,
			TieBreak: string(pairing.TieBreakNone),
		},
		Classes: DefaultClasses(),
		Export: ExportConfig{
			SkipAnswer: "low-confidence",
			OutputDir:  "labels",
		},
		Database: DatabaseConfig{
			URL: "postgres://localhost:5432/antpair",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults; environment variables override both.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes configuration to a YAML file.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("ANTPAIR_DB"); url != "" {
		c.Database.URL = url
	} else if host := os.Getenv("POSTGRES_HOST"); host != "" {
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		name := os.Getenv("POSTGRES_DB")
		port := os.Getenv("POSTGRES_PORT")
		if port == "" {
			port = "5432"
		}
		c.Database.URL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s", user, pass, host, port, name)
	}

	if level := os.Getenv("ANTPAIR_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks the configuration for values the commands can not use.
func (c *Config) Validate() error {
	if err := c.Resolver.Options().Validate(); err != nil {
		return fmt.Errorf("resolver: %w", err)
	}
	if _, err := NewClassTable(c.Classes); err != nil {
		return fmt.Errorf("classes: %w", err)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging: unknown format %q", c.Logging.Format)
	}
	return nil
}

// Options converts the resolver section for the pairing package.
func (r ResolverConfig) Options() pairing.Options {
	return pairing.Options{
		Strategy: pairing.Strategy(r.Strategy),
		Passes:   r.Passes,
		TieBreak: pairing.TieBreak(r.TieBreak),
	}
}
