package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Google.Scope != "openid email profile" {
		t.Fatalf("unexpected scope %q", cfg.Google.Scope)
	}
	if cfg.Flow.DemoDelay != 2*time.Second || cfg.Flow.PollInterval != time.Second || cfg.Flow.FallbackTimeout != 5*time.Second {
		t.Fatalf("unexpected flow timings: %+v", cfg.Flow)
	}
	if got := cfg.RedirectURI(); got != "http://localhost:3000/auth/google/callback" {
		t.Fatalf("unexpected redirect uri %q", got)
	}
}

func TestRedirectBaseOverridesSiteURL(t *testing.T) {
	t.Setenv("SITE_URL", "https://app.example.com")
	t.Setenv("GOOGLE_REDIRECT_BASE", "https://auth.example.com/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := cfg.RedirectURI(); got != "https://auth.example.com/auth/google/callback" {
		t.Fatalf("unexpected redirect uri %q", got)
	}
}

func TestIsDevelopment(t *testing.T) {
	cases := []struct {
		env     string
		devMode bool
		siteURL string
		want    bool
	}{
		{"development", false, "https://app.example.com", true},
		{"Development", false, "https://app.example.com", true},
		{"production", false, "https://app.example.com", false},
		{"production", true, "https://app.example.com", true},
		{"production", false, "http://localhost:3000", true},
		{"production", false, "http://LOCALHOST", true},
		{"production", false, "https://localhost.example.com", false},
		{"production", false, "", false},
	}
	for _, tc := range cases {
		cfg := Config{App: AppConfig{Env: tc.env, DevMode: tc.devMode, SiteURL: tc.siteURL}}
		if got := cfg.IsDevelopment(); got != tc.want {
			t.Errorf("env=%q dev=%v site=%q: expected %v, got %v", tc.env, tc.devMode, tc.siteURL, tc.want, got)
		}
	}
}

func TestLoadRejectsInvalidBackendURL(t *testing.T) {
	t.Setenv("BACKEND_URL", "not a url")
	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRejectsNonPositiveFallback(t *testing.T) {
	t.Setenv("AUTH_FALLBACK_TIMEOUT", "0s")
	if _, err := Load(); err == nil {
		t.Fatalf("expected validation error")
	}
}
