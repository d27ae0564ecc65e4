package internal

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env      string `envconfig:"ENV" default:"development"`
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"debug"`

	// Application base URL (for absolute redirects and cookie scoping)
	BaseURL string `envconfig:"BASE_URL" default:"http://localhost:8080"`

	// Auth screens
	SubmitLatency time.Duration `envconfig:"SUBMIT_LATENCY" default:"1500ms"`
	ScreenTTL     time.Duration `envconfig:"SCREEN_TTL" default:"30m"`
	MaxScreens    int           `envconfig:"MAX_SCREENS" default:"10000"`
	DashboardPath string        `envconfig:"DASHBOARD_PATH" default:"/dashboard"`

	// Signs the flash cookie carrying toasts across redirects.
	// Required outside development.
	SessionSecret string `envconfig:"SESSION_SECRET"`

	// Auth POST throttling, requests per minute per client IP
	LoginRatePerMinute  int `envconfig:"LOGIN_RATE_PER_MINUTE" default:"10"`
	SignupRatePerMinute int `envconfig:"SIGNUP_RATE_PER_MINUTE" default:"5"`

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string `envconfig:"METRICS_USERNAME"`
	MetricsPassword string `envconfig:"METRICS_PASSWORD"`
}

// devSessionSecret keeps `go run` working without a .env file.
const devSessionSecret = "hypes-development-session-secret-change-me"

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the server runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) validate() error {
	if c.SessionSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("SESSION_SECRET is required when ENV is %q", c.Env)
		}
		c.SessionSecret = devSessionSecret
	}
	if len(c.SessionSecret) < 32 && !c.IsDevelopment() {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes")
	}

	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.SubmitLatency <= 0 {
		return fmt.Errorf("SUBMIT_LATENCY must be positive, got %v", c.SubmitLatency)
	}
	if c.ScreenTTL < time.Second {
		return fmt.Errorf("SCREEN_TTL must be at least 1s, got %v", c.ScreenTTL)
	}
	if c.MaxScreens < 1 {
		return fmt.Errorf("MAX_SCREENS must be at least 1, got %d", c.MaxScreens)
	}
	if c.LoginRatePerMinute < 1 || c.SignupRatePerMinute < 1 {
		return fmt.Errorf("rate limits must be at least 1 per minute")
	}
	if !strings.HasPrefix(c.DashboardPath, "/") {
		return fmt.Errorf("DASHBOARD_PATH must be an absolute path, got %q", c.DashboardPath)
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("BASE_URL: %w", err)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", c.LogLevel)
	}

	return nil
}

// SecureCookies reports whether cookies should carry the Secure flag.
func (c *Config) SecureCookies() bool {
	return strings.HasPrefix(c.BaseURL, "https://")
}
