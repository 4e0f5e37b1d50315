// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Errors returned by this package match ErrInvalidConfig or ErrLoadConfig.
package config

import (
	"fmt"
	"time"

	"github.com/okian/vinlookup/internal/adapters/repository"
	"github.com/okian/vinlookup/internal/domain/decoder"
	"github.com/okian/vinlookup/internal/domain/export"
	"github.com/okian/vinlookup/internal/domain/vin"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ShutdownTimeoutMS bounds graceful HTTP shutdown.
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`

	Decoder    DecoderConfig    `koanf:"decoder"`
	Validation ValidationConfig `koanf:"validation"`
	Store      StoreConfig      `koanf:"store"`
	Export     ExportConfig     `koanf:"export"`
	Batch      BatchConfig      `koanf:"batch"`
}

// DecoderConfig selects and tunes the VIN decoder.
type DecoderConfig struct {
	// Mode is static, vpic or vpic_fallback.
	Mode         string            `koanf:"mode"`
	VPICBaseURL  string            `koanf:"vpic_base_url"`
	TimeoutMS    int               `koanf:"timeout_ms"`
	WMIOverrides map[string]string `koanf:"wmi_overrides"`
}

// ValidationConfig tunes VIN validation.
type ValidationConfig struct {
	// CheckDigit is always, north_america or never.
	CheckDigit string `koanf:"check_digit"`
}

// StoreConfig selects the record store backend.
type StoreConfig struct {
	// Backend is memory, postgres or redis.
	Backend       string `koanf:"backend"`
	PostgresDSN   string `koanf:"postgres_dsn"`
	PostgresTable string `koanf:"postgres_table"`
	RedisURL      string `koanf:"redis_url"`
	RedisKey      string `koanf:"redis_key"`
}

// ExportConfig tunes GET /export.
type ExportConfig struct {
	DefaultFormat string `koanf:"default_format"`
	// AllowEmpty serves a header-only file instead of 404 for an empty store.
	AllowEmpty bool `koanf:"allow_empty"`
}

// BatchConfig bounds POST /lookup/batch.
type BatchConfig struct {
	MaxSize     int `koanf:"max_size"`
	Concurrency int `koanf:"concurrency"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		ShutdownTimeoutMS: 10_000,
		Decoder: DecoderConfig{
			Mode:        string(decoder.ModeVPICFallback),
			VPICBaseURL: decoder.DefaultVPICBaseURL,
			TimeoutMS:   10_000,
		},
		Validation: ValidationConfig{
			CheckDigit: string(vin.CheckDigitNorthAmerica),
		},
		Store: StoreConfig{
			Backend:       string(repository.BackendMemory),
			PostgresTable: repository.DefaultTable,
			RedisKey:      repository.DefaultRedisKey,
		},
		Export: ExportConfig{
			DefaultFormat: string(export.FormatCSV),
		},
		Batch: BatchConfig{
			MaxSize:     100,
			Concurrency: 8,
		},
	}
}

// DecoderTimeout returns the remote decoder timeout.
func (c *Config) DecoderTimeout() time.Duration {
	return time.Duration(c.Decoder.TimeoutMS) * time.Millisecond
}

// ShutdownTimeout returns the graceful shutdown bound.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := decoder.ParseMode(c.Decoder.Mode); err != nil {
		return fmt.Errorf("%w: decoder.mode: %v", ErrInvalidConfig, err)
	}
	if c.Decoder.TimeoutMS <= 0 {
		return fmt.Errorf("%w: decoder.timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.ShutdownTimeoutMS <= 0 {
		return fmt.Errorf("%w: shutdown_timeout_ms must be positive", ErrInvalidConfig)
	}
	if _, err := vin.ParseCheckDigitMode(c.Validation.CheckDigit); err != nil {
		return fmt.Errorf("%w: validation.check_digit: %v", ErrInvalidConfig, err)
	}
	backend, err := repository.ParseBackend(c.Store.Backend)
	if err != nil {
		return fmt.Errorf("%w: store.backend: %v", ErrInvalidConfig, err)
	}
	switch {
	case backend == repository.BackendPostgres && c.Store.PostgresDSN == "":
		return fmt.Errorf("%w: store.postgres_dsn is required for the postgres backend", ErrInvalidConfig)
	case backend == repository.BackendRedis && c.Store.RedisURL == "":
		return fmt.Errorf("%w: store.redis_url is required for the redis backend", ErrInvalidConfig)
	}
	if _, err := export.ParseFormat(c.Export.DefaultFormat); err != nil {
		return fmt.Errorf("%w: export.default_format: %v", ErrInvalidConfig, err)
	}
	if c.Batch.MaxSize <= 0 || c.Batch.Concurrency <= 0 {
		return fmt.Errorf("%w: batch.max_size and batch.concurrency must be positive", ErrInvalidConfig)
	}
	return nil
}
