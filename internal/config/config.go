// Package config loads the mediameta settings from the environment and an
// optional YAML file.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"
)

// Config holds the settings shared by every mediameta command.
// Environment variables override values read from the file.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LogConfig selects the zerolog level and writer.
type LogConfig struct {
	Level  string `yaml:"level" env:"MEDIAMETA_LOG_LEVEL" env-default:"info" env-description:"debug, info, warn or error"`
	Format string `yaml:"format" env:"MEDIAMETA_LOG_FORMAT" env-default:"console" env-description:"console or json"`
}

// MetricsConfig controls the EMF line written per inspected file.
type MetricsConfig struct {
	Namespace string `yaml:"namespace" env:"MEDIAMETA_METRICS_NAMESPACE" env-default:"MediaMeta"`
	Emit      bool   `yaml:"emit" env:"MEDIAMETA_EMIT_METRICS" env-default:"false"`
}

// Load reads the YAML file at path, if any, then applies environment
// overrides and defaults. A leading ~ in path is expanded.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read config from environment: %w", err)
		}
		return cfg, nil
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand config path %q: %w", path, err)
	}
	if err := cleanenv.ReadConfig(expanded, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", expanded, err)
	}
	return cfg, nil
}

// Usage describes the supported environment variables.
func Usage() string {
	desc, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return ""
	}
	return desc
}
