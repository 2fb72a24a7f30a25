package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"amsd/internal/common/fsutil"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr     string `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel string `json:"log_level" yaml:"log_level" toml:"log_level"`

	// AMS type to drive: simulation, happy_hare, afc, valgace, toolchanger.
	// Empty selects simulation.
	AMSType string `json:"ams_type" yaml:"ams_type" toml:"ams_type"`
	// Tool object names for toolchanger configurations.
	ToolNames []string `json:"tool_names" yaml:"tool_names" toml:"tool_names"`

	// Demo forces the simulation backend regardless of detection.
	Demo bool `json:"demo" yaml:"demo" toml:"demo"`

	// Simulation shape, used in demo mode and as the fallback.
	Units        int    `json:"units" yaml:"units" toml:"units"`
	GatesPerUnit int    `json:"gates_per_unit" yaml:"gates_per_unit" toml:"gates_per_unit"`
	Topology     string `json:"topology" yaml:"topology" toml:"topology"`
	Scenario     string `json:"scenario" yaml:"scenario" toml:"scenario"`
	Dryer        bool   `json:"dryer" yaml:"dryer" toml:"dryer"`
	BypassSensor bool   `json:"bypass_sensor" yaml:"bypass_sensor" toml:"bypass_sensor"`
	// Total simulated operation duration, e.g. "3s". Negative means
	// instantaneous.
	OpDelay string `json:"op_delay" yaml:"op_delay" toml:"op_delay"`

	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	path, err := fsutil.ExpandHome(path)
	if err != nil {
		return cfg, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ParseOpDelay resolves the OpDelay string. Empty keeps the backend default
// (zero duration); "0" and negative values mean instantaneous.
func (c Config) ParseOpDelay() (time.Duration, error) {
	if c.OpDelay == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.OpDelay)
	if err != nil {
		return 0, fmt.Errorf("op_delay: %w", err)
	}
	if d <= 0 {
		return -1, nil
	}
	return d, nil
}
