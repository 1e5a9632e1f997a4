package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "LOG_LEVEL", "LOG_FORMAT", "API_TIMEOUT", "SESSION_TTL_DURABLE", "SESSION_TTL_EPHEMERAL", "STATIC_USERS", "CORS_ALLOWED_ORIGINS", "SESSION_COOKIE_SECURE"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.LogFormat != "text" {
		t.Fatalf("expected text logs in development, got %s", cfg.LogFormat)
	}
	if cfg.APITimeout != 0 {
		t.Fatalf("expected no upstream timeout by default, got %s", cfg.APITimeout)
	}
	if cfg.SessionTTLDurable != 30*24*time.Hour {
		t.Fatalf("unexpected durable ttl %s", cfg.SessionTTLDurable)
	}
	if cfg.SessionTTLEphemeral != 12*time.Hour {
		t.Fatalf("unexpected ephemeral ttl %s", cfg.SessionTTLEphemeral)
	}
	if cfg.SessionCookieSecure {
		t.Fatalf("expected insecure cookies in development")
	}
	if len(cfg.StaticUsers) != 0 {
		t.Fatalf("expected no static users, got %v", cfg.StaticUsers)
	}
	if cfg.AdminRole != "admin" {
		t.Fatalf("unexpected admin role %s", cfg.AdminRole)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("API_BASE_URL", "https://api.example.com/v1/")
	t.Setenv("API_TIMEOUT", "20s")
	t.Setenv("AUTH_PROVIDER", "STATIC")
	t.Setenv("STATIC_USERS", "Admin@Example.com:$2a$10$abc, broken, staff@example.com:$2a$10$def")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://admin.example.com, https://staging.example.com")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "5")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("expected json logs outside development, got %s", cfg.LogFormat)
	}
	if cfg.APIBaseURL != "https://api.example.com/v1" {
		t.Fatalf("expected trimmed base url, got %s", cfg.APIBaseURL)
	}
	if cfg.APITimeout != 20*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.APITimeout)
	}
	if cfg.AuthProvider != "static" {
		t.Fatalf("expected lowercased provider, got %s", cfg.AuthProvider)
	}
	if len(cfg.StaticUsers) != 2 || cfg.StaticUsers["admin@example.com"] != "$2a$10$abc" {
		t.Fatalf("unexpected static users %v", cfg.StaticUsers)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("unexpected origins %v", cfg.CORSAllowedOrigins)
	}
	if cfg.RateLimitRPS != 2.5 || cfg.RateLimitBurst != 5 {
		t.Fatalf("unexpected rate limit %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if !cfg.SessionCookieSecure {
		t.Fatalf("expected secure cookies in production")
	}
}
