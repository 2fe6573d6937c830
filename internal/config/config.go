// Package config loads process configuration: defaults first, then
// AGENTBOARD_* environment variables on top. The result is validated once
// at startup and passed by reference into each component's constructor —
// nothing reads configuration ambiently after that.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces the process's environment variables.
const EnvPrefix = "AGENTBOARD_"

// Config holds all process configuration.
type Config struct {
	// Transport selects the protocol variant: stdio, streamable, sse, or
	// dual (both HTTP variants on one listener).
	Transport string `koanf:"transport" validate:"oneof=stdio streamable sse dual"`
	Host      string `koanf:"host" validate:"required"`
	Port      int    `koanf:"port" validate:"min=1,max=65535"`
	DBPath    string `koanf:"db_path" validate:"required"`
	LogLevel  string `koanf:"log_level" validate:"oneof=debug info warn error"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Transport: "stdio",
		Host:      "127.0.0.1",
		Port:      8371,
		DBPath:    "agentboard.db",
		LogLevel:  "info",
	}
}

// Load builds the effective configuration from defaults and environment.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	// AGENTBOARD_DB_PATH -> db_path, AGENTBOARD_LOG_LEVEL -> log_level.
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SlogLevel maps the configured verbosity to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
