// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig lists the cross-origin options applied to every route.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int // seconds
}

type Config struct {
	HTTPAddr        string
	LogLevel        string
	StoreBackend    string
	DatabasePath    string
	ShutdownTimeout time.Duration

	TelemetryEnabled bool
	OTelLogsEnabled  bool

	CORS CORSConfig
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		HTTPAddr:         ":8080",
		LogLevel:         "info",
		StoreBackend:     "sqlite",
		DatabasePath:     "./calculator.db",
		ShutdownTimeout:  5 * time.Second,
		TelemetryEnabled: true,
		OTelLogsEnabled:  false,
		CORS: CORSConfig{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
			MaxAge:           300,
		},
	}
}

// Load overlays environment variables on Default. Call after loading .env.
func Load() (Config, error) {
	cfg := Default()

	cfg.HTTPAddr = stringVar("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = stringVar("LOG_LEVEL", cfg.LogLevel)
	cfg.StoreBackend = strings.ToLower(stringVar("STORE_BACKEND", cfg.StoreBackend))
	cfg.DatabasePath = stringVar("DATABASE_PATH", cfg.DatabasePath)
	cfg.CORS.AllowedOrigins = listVar("CORS_ALLOWED_ORIGINS", cfg.CORS.AllowedOrigins)
	cfg.CORS.AllowedMethods = listVar("CORS_ALLOWED_METHODS", cfg.CORS.AllowedMethods)
	cfg.CORS.AllowedHeaders = listVar("CORS_ALLOWED_HEADERS", cfg.CORS.AllowedHeaders)

	var err error
	if cfg.ShutdownTimeout, err = durationVar("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.TelemetryEnabled, err = boolVar("TELEMETRY_ENABLED", cfg.TelemetryEnabled); err != nil {
		return Config{}, err
	}
	if cfg.OTelLogsEnabled, err = boolVar("OTEL_LOGS_ENABLED", cfg.OTelLogsEnabled); err != nil {
		return Config{}, err
	}
	if cfg.CORS.AllowCredentials, err = boolVar("CORS_ALLOW_CREDENTIALS", cfg.CORS.AllowCredentials); err != nil {
		return Config{}, err
	}
	if cfg.CORS.MaxAge, err = intVar("CORS_MAX_AGE", cfg.CORS.MaxAge); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case "sqlite":
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required for the sqlite backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q", c.StoreBackend)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	if c.CORS.MaxAge < 0 {
		return fmt.Errorf("CORS_MAX_AGE must not be negative, got %d", c.CORS.MaxAge)
	}
	return nil
}

func stringVar(name, def string) string {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	return strings.TrimSpace(v)
}

// listVar splits a comma separated variable, dropping empty items.
func listVar(name string, def []string) []string {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func boolVar(name string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parse %s: %w", name, err)
	}
	return b, nil
}

func intVar(name string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return i, nil
}

func durationVar(name string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	return d, nil
}
