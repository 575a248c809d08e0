// Package config loads application configuration from, in order of
// precedence: command-line flags, MEMOVAULT_* environment variables, an
// optional YAML file, and built-in defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "MEMOVAULT_"

// Config is the resolved application configuration.
type Config struct {
	DBPath   string `koanf:"db_path" validate:"required"`
	Listen   string `koanf:"listen" validate:"required,hostname_port"`
	ReposDir string `koanf:"repos_dir" validate:"required"`
	PageSize int    `koanf:"page_size" validate:"min=1,max=1000"`
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:   "memovault.db",
		Listen:   "127.0.0.1:8645",
		ReposDir: "repos",
		PageSize: 100,
		LogLevel: "info",
	}
}

// Load resolves the configuration. path may be empty (no config file);
// flags may be nil (no flag overrides). The result is validated before
// being returned.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(key string) string {
		return strings.ToLower(strings.TrimPrefix(key, envPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("load flags: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
