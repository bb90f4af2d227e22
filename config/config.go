package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the full application configuration loaded from environment variables or .env file.
//
// It is loaded once at startup and passed by value to every component that
// needs it; nothing mutates it afterwards.
//
// Example ENV equivalent:
//
//	NASA_API_KEY=DEMO_KEY
//	SERVER_PORT=5000
//	NEO_API_BASE_URL=https://api.nasa.gov/neo/rest/v1
//	NEO_HTTP_TIMEOUT=30s
//	NEO_MAX_RANGE_DAYS=7
//	NEO_MAX_HISTORICAL_DAYS=31
//	NEO_BREAKER_FAILURES=0
//	RETRY_MAX_ATTEMPTS=3
//	RETRY_BACKOFF=120s
//	CONSUMER_BASE_URL=http://localhost:5000
//	RATE_LIMIT_PER_MINUTE=60
//	REQUEST_TIMEOUT=60s
//	CORS_ALLOWED_ORIGINS=http://localhost:3000,https://neo.example.org
type Config struct {
	Server   ServerConfig   // HTTP server configuration
	Upstream UpstreamConfig // NEO feed provider settings
	Consumer ConsumerConfig // settings of the dashboard-side client (watch mode)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string        // The TCP port the HTTP server will listen on (e.g., "5000")
	RateLimitPerMinute int           // Requests allowed per client IP per minute
	RequestTimeout     time.Duration // Deadline applied to every request context
	AllowedOrigins     []string      // CORS origins; empty allows any origin
}

// UpstreamConfig defines how the provider is reached.
//
// Fields:
//   - APIKey: provider credential. May be empty; requests then fail with a configuration error.
//   - BaseURL: provider REST root, without trailing slash.
//   - Timeout: timeout of a single round trip.
//   - MaxRangeDays: widest window requested in one round trip.
//   - MaxHistoricalDays: widest range one historical request may ask for.
//   - BreakerFailures: consecutive failures that open the circuit (0 disables it).
type UpstreamConfig struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	MaxRangeDays      int
	MaxHistoricalDays int
	BreakerFailures   int
}

// ConsumerConfig configures the retrying client used in watch mode.
type ConsumerConfig struct {
	BaseURL      string
	MaxAttempts  int
	BackoffDelay time.Duration
}

// LoadConfig builds a Config from .env (if present) and environment variables.
//
// Precedence (from lowest to highest):
//  1. Defaults set in this function.
//  2. Values from .env file (if present). Variables already set in the environment are not overridden.
//  3. Environment variables.
//
// PORT, when set, overrides SERVER_PORT so the service runs unchanged on hosts
// that inject PORT.
func LoadConfig() (Config, error) {
	// Optionally read from .env if present (common in local dev)
	_ = godotenv.Load()

	v := viper.New()

	// Default values
	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 60)
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")

	v.SetDefault("NASA_API_KEY", "")
	v.SetDefault("NEO_API_BASE_URL", "https://api.nasa.gov/neo/rest/v1")
	v.SetDefault("NEO_HTTP_TIMEOUT", "30s")
	v.SetDefault("NEO_MAX_RANGE_DAYS", 7)
	v.SetDefault("NEO_MAX_HISTORICAL_DAYS", 31)
	v.SetDefault("NEO_BREAKER_FAILURES", 0)

	v.SetDefault("CONSUMER_BASE_URL", "http://localhost:5000")
	v.SetDefault("RETRY_MAX_ATTEMPTS", 3)
	v.SetDefault("RETRY_BACKOFF", "120s")

	// Read environment variables automatically
	v.AutomaticEnv()

	port := v.GetString("SERVER_PORT")
	if p := v.GetString("PORT"); p != "" {
		port = p
	}

	cfg := Config{
		Server: ServerConfig{
			Port:               port,
			RateLimitPerMinute: v.GetInt("RATE_LIMIT_PER_MINUTE"),
			RequestTimeout:     v.GetDuration("REQUEST_TIMEOUT"),
			AllowedOrigins:     splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Upstream: UpstreamConfig{
			APIKey:            v.GetString("NASA_API_KEY"),
			BaseURL:           v.GetString("NEO_API_BASE_URL"),
			Timeout:           v.GetDuration("NEO_HTTP_TIMEOUT"),
			MaxRangeDays:      v.GetInt("NEO_MAX_RANGE_DAYS"),
			MaxHistoricalDays: v.GetInt("NEO_MAX_HISTORICAL_DAYS"),
			BreakerFailures:   v.GetInt("NEO_BREAKER_FAILURES"),
		},
		Consumer: ConsumerConfig{
			BaseURL:      v.GetString("CONSUMER_BASE_URL"),
			MaxAttempts:  v.GetInt("RETRY_MAX_ATTEMPTS"),
			BackoffDelay: v.GetDuration("RETRY_BACKOFF"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every field that has no safe fallback.
//
// The provider credential is not checked here; its absence is
// reported per request as a configuration error.
func (c Config) Validate() error {
	var errs []error

	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be numeric, got %q", c.Server.Port))
	}
	if c.Server.RateLimitPerMinute < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be at least 1"))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if c.Upstream.BaseURL == "" {
		errs = append(errs, errors.New("NEO_API_BASE_URL is required"))
	}
	if c.Upstream.Timeout <= 0 {
		errs = append(errs, errors.New("NEO_HTTP_TIMEOUT must be positive"))
	}
	if c.Upstream.MaxRangeDays < 1 {
		errs = append(errs, errors.New("NEO_MAX_RANGE_DAYS must be at least 1"))
	}
	if c.Upstream.MaxHistoricalDays < 1 {
		errs = append(errs, errors.New("NEO_MAX_HISTORICAL_DAYS must be at least 1"))
	}
	if c.Upstream.BreakerFailures < 0 {
		errs = append(errs, errors.New("NEO_BREAKER_FAILURES must not be negative"))
	}
	if c.Consumer.MaxAttempts < 1 {
		errs = append(errs, errors.New("RETRY_MAX_ATTEMPTS must be at least 1"))
	}
	if c.Consumer.BackoffDelay <= 0 {
		errs = append(errs, errors.New("RETRY_BACKOFF must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// HasCredential reports whether a provider credential was supplied.
func (c Config) HasCredential() bool {
	return c.Upstream.APIKey != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
