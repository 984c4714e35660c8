// Package config loads the depfresh configuration file.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/depfresh/depfresh/internal/npm"
)

// Duration wraps time.Duration so TOML values can be written as "30m".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config carries every tunable of the freshness pipeline.
type Config struct {
	RegistryURL    string   `toml:"registry_url"`
	UserAgent      string   `toml:"user_agent"`
	TTL            Duration `toml:"ttl"`
	BatchSize      int      `toml:"batch_size"`
	BatchDelay     Duration `toml:"batch_delay"`
	RequestTimeout Duration `toml:"request_timeout"`
	MaxAttempts    int      `toml:"max_attempts"`
	RetryDelay     Duration `toml:"retry_delay"`
}

// Default returns the stock configuration: public npm registry, 30m
// cache TTL, batches of 5 a second apart, 10s request timeout, and a
// 30s backoff window after 3 consecutive failures.
func Default() Config {
	return Config{
		RegistryURL:    npm.DefaultURL,
		UserAgent:      "depfresh/1.0",
		TTL:            Duration{30 * time.Minute},
		BatchSize:      5,
		BatchDelay:     Duration{time.Second},
		RequestTimeout: Duration{10 * time.Second},
		MaxAttempts:    3,
		RetryDelay:     Duration{30 * time.Second},
	}
}

// Load overlays the TOML file at path on the defaults. An empty path
// yields the defaults; a named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.TTL.Duration <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", c.TTL.Duration)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive, got %d", c.MaxAttempts)
	}
	if c.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout.Duration)
	}
	if c.BatchDelay.Duration < 0 {
		return fmt.Errorf("batch_delay must not be negative, got %s", c.BatchDelay.Duration)
	}
	if c.RetryDelay.Duration < 0 {
		return fmt.Errorf("retry_delay must not be negative, got %s", c.RetryDelay.Duration)
	}
	return nil
}
