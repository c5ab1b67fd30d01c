package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/ersim/core/metrics"
	"github.com/kilianp07/ersim/core/simulation"
	"github.com/kilianp07/ersim/core/ticklog"
	"github.com/kilianp07/ersim/core/topology"
	"github.com/kilianp07/ersim/infra/logger"
	"github.com/kilianp07/ersim/infra/monitoring"
)

// EnvPrefix marks environment overrides; "__" separates nested keys, e.g.
// ERSIM_SIMULATION__DEFAULT_SPEED=2.
const EnvPrefix = "ERSIM_"

type Config struct {
	Simulation simulation.Config         `json:"simulation"`
	Stations   []topology.StationConfig `json:"stations"`
	Metrics    metrics.Config            `json:"metrics"`
	TickLog    ticklog.Config            `json:"tick_log"`
	Sentry     monitoring.Config         `json:"sentry"`
	LogLevel   string                    `json:"log_level"`
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.TickLog.SetDefaults()
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks every section. An empty station list is accepted here
// and rejected when the topology is built.
func (c Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if err := c.TickLog.Validate(); err != nil {
		return err
	}
	if err := c.Sentry.Validate(); err != nil {
		return err
	}
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics.sinks[%d]: type is required", i)
		}
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// Load reads the file at path, applies environment overrides, defaults and
// validation. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
