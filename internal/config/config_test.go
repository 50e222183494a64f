package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_PORT", "")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_SECONDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.Addr() != "0.0.0.0:8080" {
		t.Fatalf("Addr = %q", cfg.App.Addr())
	}
	if cfg.Auth.AccessTTL() != time.Hour {
		t.Fatalf("AccessTTL = %v, want 1h", cfg.Auth.AccessTTL())
	}
	if cfg.Auth.RefreshTTL() != 7*24*time.Hour {
		t.Fatalf("RefreshTTL = %v", cfg.Auth.RefreshTTL())
	}
	if cfg.Notification.Retention() != 30*24*time.Hour {
		t.Fatalf("Retention = %v", cfg.Notification.Retention())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_SECONDS", "90")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "10")
	t.Setenv("SCHEDULER_ENABLED", "true")
	t.Setenv("POSTGRES_MAX_CONNS", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.AccessTTL() != 90*time.Second {
		t.Fatalf("AccessTTL = %v", cfg.Auth.AccessTTL())
	}
	if cfg.RateLimit.Window() != 10*time.Second {
		t.Fatalf("Window = %v", cfg.RateLimit.Window())
	}
	if !cfg.Scheduler.Enabled {
		t.Fatal("scheduler should be enabled")
	}
	if cfg.Postgres.MaxConns != 10 {
		t.Fatalf("MaxConns fallback = %d, want 10", cfg.Postgres.MaxConns)
	}
}

func TestLoadRejectsDevSecretInProduction(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for default secret in production")
	}
}

func TestLoadInvalidRedisDB(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("REDIS_DB", "x")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid REDIS_DB")
	}
}
