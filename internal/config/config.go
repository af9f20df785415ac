package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// EnvDevelopment is the APP_ENV value that marks a local development run.
const EnvDevelopment = "development"

// Config represents the full runtime configuration tree.
type Config struct {
	App       AppConfig
	Google    GoogleConfig
	Flow      FlowConfig
	Backend   BackendConfig
	RateLimit RateLimitConfig
	Tracing   TracingConfig
}

// AppConfig captures application-level settings.
type AppConfig struct {
	Name    string `env:"APP_NAME" envDefault:"googlesignin"`
	Env     string `env:"APP_ENV" envDefault:"development"`
	Version string `env:"APP_VERSION" envDefault:"0.1.0"`
	Addr    string `env:"HTTP_ADDR" envDefault:":8080"`
	SiteURL string `env:"SITE_URL" envDefault:"http://localhost:3000" validate:"required,url"`
	DevMode bool   `env:"AUTH_DEV_MODE" envDefault:"false"`
}

// GoogleConfig holds the OAuth client registration.
type GoogleConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	RedirectBase string `env:"GOOGLE_REDIRECT_BASE" validate:"omitempty,url"`
	Scope        string `env:"GOOGLE_SCOPE" envDefault:"openid email profile"`
}

// FlowConfig tunes the login flow timings and popup browser.
type FlowConfig struct {
	DemoDelay       time.Duration `env:"AUTH_DEMO_DELAY" envDefault:"2s"`
	PollInterval    time.Duration `env:"AUTH_POLL_INTERVAL" envDefault:"1s"`
	FallbackTimeout time.Duration `env:"AUTH_FALLBACK_TIMEOUT" envDefault:"5s"`
	PopupBrowser    string        `env:"POPUP_BROWSER" envDefault:"chromium"`
}

// BackendConfig points at the API that completes the code exchange.
type BackendConfig struct {
	URL     string        `env:"BACKEND_URL" envDefault:"http://localhost:8000" validate:"required,url"`
	Timeout time.Duration `env:"CALLBACK_TIMEOUT" envDefault:"10s"`
}

// RateLimitConfig manages throttling of the redirect callback.
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	Burst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`
}

// TracingConfig enables OTLP export when an endpoint is set.
type TracingConfig struct {
	OTLPEndpoint string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SampleRatio  float64 `env:"OTEL_SAMPLE_RATIO" envDefault:"1"`
}

// Load reads the environment and builds a validated Config.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field formats and timing relations.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Flow.DemoDelay < 0 {
		return fmt.Errorf("invalid config: AUTH_DEMO_DELAY must not be negative")
	}
	if c.Flow.PollInterval <= 0 || c.Flow.FallbackTimeout <= 0 {
		return fmt.Errorf("invalid config: poll interval and fallback timeout must be positive")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("invalid config: rate limit must be positive")
	}
	return nil
}

// IsDevelopment reports whether the process runs in a local development
// environment: AUTH_DEV_MODE, APP_ENV=development, or a site served from localhost.
func (c *Config) IsDevelopment() bool {
	return c.App.DevMode || strings.EqualFold(c.App.Env, EnvDevelopment) || c.servedFromLocalhost()
}

func (c *Config) servedFromLocalhost() bool {
	u, err := url.Parse(c.App.SiteURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Hostname(), "localhost")
}

// RedirectURI is the callback address registered with Google.
// It falls back to the site URL when no explicit redirect base is set.
func (c *Config) RedirectURI() string {
	base := c.Google.RedirectBase
	if base == "" {
		base = c.App.SiteURL
	}
	return strings.TrimRight(base, "/") + "/auth/google/callback"
}
