// Package config loads ragent's declarative configuration and binds it into
// live objects: named model instances (deduplicated by model class) and named
// prompt texts. Configuration is read with viper from a YAML file plus
// RAGENT_ prefixed environment overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ModelRoles maps logical model roles to model class names, split into
// required and optional groups.
type ModelRoles struct {
	Required map[string]string `mapstructure:"required"`
	Optional map[string]string `mapstructure:"optional"`
}

// PromptPaths maps logical prompt roles to prompt file paths, split into
// required and optional groups. A missing required prompt aborts binding; a
// missing optional prompt is skipped with a warning.
type PromptPaths struct {
	Required map[string]string `mapstructure:"required"`
	Optional map[string]string `mapstructure:"optional"`
}

// ModelClass describes how to construct one model binding. Provider selects
// the factory; the remaining fields are passed through to it.
type ModelClass struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
}

// Pipeline is the declarative description of one agent pipeline.
type Pipeline struct {
	// StepLimit is kept untyped on purpose: it is validated per run by the
	// pipeline's budget resolution, which falls back to a default on any
	// absent, non-positive or non-numeric value.
	StepLimit     any                   `mapstructure:"step_limit"`
	Models        ModelRoles            `mapstructure:"models"`
	ModelClassMap map[string]ModelClass `mapstructure:"model_class_map"`
	Prompts       PromptPaths           `mapstructure:"prompts"`
}

// Config is the root configuration document.
type Config struct {
	LogLevel string   `mapstructure:"log_level"`
	Pipeline Pipeline `mapstructure:"pipeline"`

	v *viper.Viper
}

// Load reads the configuration from cfgFile, or from the default search
// paths (working directory, then $HOME/.ragent) when cfgFile is empty.
// Environment variables prefixed with RAGENT_ override file values.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.ragent")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("RAGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// No config file found; defaults plus env vars still apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.v = v

	return &cfg, nil
}

// StepLimitValue returns the configured step limit, re-read from the live
// viper instance when one backs this config so changes between runs are
// observed. The value is intentionally raw; validation happens at run time.
func (c *Config) StepLimitValue() any {
	if c.v != nil {
		return c.v.Get("pipeline.step_limit")
	}
	return c.Pipeline.StepLimit
}
