// Package config loads server settings from defaults, an optional YAML file and TASKBOARD_* variables, in that order.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Storage backends.
const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
)

// EnvProduction enables the production-only checks.
const EnvProduction = "production"

// Config is the full server configuration.
type Config struct {
	Addr               string   `yaml:"addr"`
	Env                string   `yaml:"env"`
	Storage            string   `yaml:"storage"`
	LogLevel           string   `yaml:"log_level"`
	LogFormat          string   `yaml:"log_format"`
	CSRFKey            string   `yaml:"csrf_key"`
	TrustedOrigins     []string `yaml:"trusted_origins"`
	SlowRequestMs      int      `yaml:"slow_request_ms"`
	SlowQueryMs        int      `yaml:"slow_query_ms"`
	RateLimitPerSecond int      `yaml:"rate_limit_per_second"`
	PerfRingSize       int      `yaml:"perf_ring_size"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		Addr:               ":8080",
		Env:                "development",
		Storage:            StorageMemory,
		LogLevel:           "info",
		LogFormat:          "text",
		SlowRequestMs:      200,
		SlowQueryMs:        50,
		RateLimitPerSecond: 10,
		PerfRingSize:       4096,
	}
}

// Load builds a Config. path may be empty, in which case only defaults and the environment apply.
// PRE: none
// POST: Returns a validated Config, or an error naming the bad key
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return Config{}, fmt.Errorf("open config: %w", err)
		}
		defer f.Close()
		if err := decode(f, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	cfg.Addr = envOrDefault(getenv, "TASKBOARD_ADDR", cfg.Addr)
	cfg.Env = envOrDefault(getenv, "TASKBOARD_ENV", cfg.Env)
	cfg.Storage = envOrDefault(getenv, "TASKBOARD_STORAGE", cfg.Storage)
	cfg.LogLevel = envOrDefault(getenv, "TASKBOARD_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOrDefault(getenv, "TASKBOARD_LOG_FORMAT", cfg.LogFormat)
	cfg.CSRFKey = envOrDefault(getenv, "TASKBOARD_CSRF_KEY", cfg.CSRFKey)
	if v := getenv("TASKBOARD_TRUSTED_ORIGINS"); v != "" {
		cfg.TrustedOrigins = strings.Split(v, ",")
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"TASKBOARD_SLOW_REQUEST_MS", &cfg.SlowRequestMs},
		{"TASKBOARD_SLOW_QUERY_MS", &cfg.SlowQueryMs},
		{"TASKBOARD_RATE_LIMIT_PER_SECOND", &cfg.RateLimitPerSecond},
		{"TASKBOARD_PERF_RING_SIZE", &cfg.PerfRingSize},
	}
	for _, in := range ints {
		v := getenv(in.key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not an integer", ErrInvalidConfig, in.key, v)
		}
		*in.dst = n
	}
	return nil
}

func envOrDefault(getenv func(string) string, key, fallback string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate checks value ranges and the production requirements.
func (c Config) Validate() error {
	if c.Storage != StorageMemory && c.Storage != StorageSQLite {
		return fmt.Errorf("%w: storage must be %q or %q, got %q", ErrInvalidConfig, StorageMemory, StorageSQLite, c.Storage)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	if c.SlowRequestMs <= 0 || c.SlowQueryMs <= 0 || c.RateLimitPerSecond <= 0 {
		return fmt.Errorf("%w: thresholds and rate limit must be positive", ErrInvalidConfig)
	}
	if c.CSRFKey != "" {
		if key, err := hex.DecodeString(c.CSRFKey); err != nil || len(key) != 32 {
			return fmt.Errorf("%w: csrf_key must be 64 hex characters (32 bytes)", ErrInvalidConfig)
		}
	} else if c.IsProduction() {
		return fmt.Errorf("%w: csrf_key is required in production", ErrInvalidConfig)
	}
	return nil
}

// IsProduction reports whether env is production.
func (c Config) IsProduction() bool { return c.Env == EnvProduction }

// SlowRequest returns the slow request threshold.
func (c Config) SlowRequest() time.Duration { return time.Duration(c.SlowRequestMs) * time.Millisecond }

// SlowQuery returns the slow query threshold.
func (c Config) SlowQuery() time.Duration { return time.Duration(c.SlowQueryMs) * time.Millisecond }

// CSRFSecret decodes the configured key, or generates a per-process key when none is set.
// The second result reports whether the key was generated.
func (c Config) CSRFSecret() ([]byte, bool, error) {
	if c.CSRFKey != "" {
		key, err := hex.DecodeString(c.CSRFKey)
		return key, false, err
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate csrf key: %w", err)
	}
	return key, true, nil
}

// Origins returns the trusted CSRF origins, adding localhost forms of Addr for a bare ":port".
func (c Config) Origins() []string {
	origins := append([]string(nil), c.TrustedOrigins...)
	if strings.HasPrefix(c.Addr, ":") {
		origins = append(origins, "localhost"+c.Addr, "127.0.0.1"+c.Addr)
	} else if c.Addr != "" {
		origins = append(origins, c.Addr)
	}
	return origins
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	return lvl, nil
}

// NewLogger builds the process logger writing to w.
// PRE: c passed Validate
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	lvl, _ := c.SlogLevel()
	opts := &slog.HandlerOptions{Level: lvl}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
