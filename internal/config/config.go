// Package config provides application configuration management.
// It loads settings from environment variables (optionally seeded from a
// .env file) and provides defaults for the server, the data source and the
// optional telemetry sinks.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default values for optional settings.
const (
	DefaultPort            = "10000"
	DefaultLogLevel        = "info"
	DefaultDataSource      = "data/programs.json"
	DefaultMetricsUsername = "prometheus"
	DefaultRateLimitRPS    = 10.0
	DefaultRateLimitBurst  = 20.0
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Source Configuration
	DataSource   string        // File path, http(s) URL, r2://key, or a path relative to DataBaseURL
	DataBaseURL  string        // Base URL that relative DataSource values are fetched from
	FetchTimeout time.Duration // Timeout for the single data retrieval

	// R2 Configuration (used by r2:// data sources)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string

	// Sentry (Better Stack errors)
	SentryToken       string
	SentryHost        string
	SentryEnvironment string
	SentrySampleRate  float64

	// Better Stack logs
	BetterStackToken    string
	BetterStackEndpoint string

	// Per-client rate limiting (RateLimitRPS 0 disables)
	RateLimitRPS   float64
	RateLimitBurst float64

	// Reverse proxies whose X-Forwarded-For is honored (IPs or CIDRs).
	// Empty means the client IP is always the connection's remote address.
	TrustedProxies []string

	// Metrics Authentication
	MetricsAuthEnabled bool
	MetricsUsername    string
	MetricsPassword    string
}

// Load reads configuration from environment variables.
// It attempts to load a .env file first, then reads from env vars.
func Load() (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv(EnvPort, DefaultPort),
		LogLevel:        getEnv(EnvLogLevel, DefaultLogLevel),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		DataSource:   getEnv(EnvDataSource, DefaultDataSource),
		DataBaseURL:  getEnv(EnvDataBaseURL, ""),
		FetchTimeout: getDurationEnv(EnvFetchTimeout, FetchRequest),

		R2AccountID:       getEnv(EnvR2AccountID, ""),
		R2AccessKeyID:     getEnv(EnvR2AccessKeyID, ""),
		R2SecretAccessKey: getEnv(EnvR2SecretAccessKey, ""),
		R2BucketName:      getEnv(EnvR2BucketName, ""),

		SentryToken:       getEnv(EnvSentryToken, ""),
		SentryHost:        getEnv(EnvSentryHost, ""),
		SentryEnvironment: getEnv(EnvSentryEnvironment, "production"),
		SentrySampleRate:  getFloatEnv(EnvSentrySampleRate, 1.0),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),

		RateLimitRPS:   getFloatEnv(EnvRateLimitRPS, DefaultRateLimitRPS),
		RateLimitBurst: getFloatEnv(EnvRateLimitBurst, DefaultRateLimitBurst),
		TrustedProxies: getListEnv(EnvTrustedProxies),

		MetricsAuthEnabled: getBoolEnv(EnvMetricsAuthEnabled, false),
		MetricsUsername:    getEnv(EnvMetricsUsername, DefaultMetricsUsername),
		MetricsPassword:    getEnv(EnvMetricsPassword, ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are usable.
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New(EnvPort+" is required"))
	}
	if c.DataSource == "" {
		errs = append(errs, errors.New(EnvDataSource+" is required"))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvFetchTimeout, c.FetchTimeout))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvShutdownTimeout, c.ShutdownTimeout))
	}
	if c.UsesR2() && !c.HasR2Credentials() {
		errs = append(errs, errors.New("r2:// data source requires "+EnvR2AccountID+", "+EnvR2AccessKeyID+", "+EnvR2SecretAccessKey+" and "+EnvR2BucketName))
	}
	if c.SentryToken != "" && c.SentryHost == "" {
		errs = append(errs, errors.New(EnvSentryHost+" is required when "+EnvSentryToken+" is set"))
	}
	if c.SentrySampleRate < 0 || c.SentrySampleRate > 1 {
		errs = append(errs, fmt.Errorf("%s must be within [0, 1], got %v", EnvSentrySampleRate, c.SentrySampleRate))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %v", EnvRateLimitRPS, c.RateLimitRPS))
	}
	if c.RateLimitEnabled() && c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %v", EnvRateLimitBurst, c.RateLimitBurst))
	}
	for _, proxy := range c.TrustedProxies {
		if !validProxy(proxy) {
			errs = append(errs, fmt.Errorf("%s entry %q is not an IP or CIDR", EnvTrustedProxies, proxy))
		}
	}
	if c.MetricsAuthEnabled && c.MetricsPassword == "" {
		errs = append(errs, errors.New(EnvMetricsPassword+" is required when "+EnvMetricsAuthEnabled+" is true"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// RateLimitEnabled reports whether per-client rate limiting is on.
func (c *Config) RateLimitEnabled() bool {
	return c.RateLimitRPS > 0
}

// UsesR2 reports whether the data source points at an R2 object.
func (c *Config) UsesR2() bool {
	return strings.HasPrefix(c.DataSource, "r2://")
}

// HasR2Credentials reports whether every R2 setting is present.
func (c *Config) HasR2Credentials() bool {
	return c.R2AccountID != "" && c.R2AccessKeyID != "" && c.R2SecretAccessKey != "" && c.R2BucketName != ""
}

// R2Endpoint returns the account-scoped R2 S3 endpoint.
func (c *Config) R2Endpoint() string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.R2AccountID)
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getListEnv splits a comma-separated environment variable, dropping blanks.
func getListEnv(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func validProxy(s string) bool {
	if net.ParseIP(s) != nil {
		return true
	}
	_, _, err := net.ParseCIDR(s)
	return err == nil
}

// getBoolEnv retrieves bool environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
