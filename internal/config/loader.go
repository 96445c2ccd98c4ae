package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config holds runtime parameters for the service.
// Zero values mean "unspecified" and will be replaced by defaults in main.
type Config struct {
	Addr          string  `json:"addr" yaml:"addr" toml:"addr"`
	UpstreamHost  string  `json:"upstream_host" yaml:"upstream_host" toml:"upstream_host"`
	APIKey        string  `json:"api_key" yaml:"api_key" toml:"api_key"`
	DefaultModel  string  `json:"default_model" yaml:"default_model" toml:"default_model"`
	SystemPrompt  string  `json:"system_prompt" yaml:"system_prompt" toml:"system_prompt"`
	Temperature   float64 `json:"temperature" yaml:"temperature" toml:"temperature"`
	DBPath        string  `json:"db_path" yaml:"db_path" toml:"db_path"`
	MaxBodyBytes  int64   `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	// Pointer so an explicit false in the file is distinguishable from unset.
	CORSEnabled   *bool   `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins   string  `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	LogLevel      string  `json:"log_level" yaml:"log_level" toml:"log_level"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
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
