package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Addr != ":8788" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.DigestSchedule != "0 * * * *" {
		t.Errorf("DigestSchedule = %q", cfg.DigestSchedule)
	}
	if cfg.DigestWindow != time.Hour {
		t.Errorf("DigestWindow = %v", cfg.DigestWindow)
	}
	if cfg.SMTPHost != "" {
		t.Errorf("SMTP must be disabled by default, host = %q", cfg.SMTPHost)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PADHUB_ADDR", ":9000")
	t.Setenv("REDIS_URL", "redis://example:6380/1")
	t.Setenv("PADHUB_DIGEST_WINDOW_SECONDS", "120")
	t.Setenv("MEILI_URL", "http://meili:7700")

	cfg := Load()
	if cfg.Addr != ":9000" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.RedisURL != "redis://example:6380/1" {
		t.Errorf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.DigestWindow != 2*time.Minute {
		t.Errorf("DigestWindow = %v", cfg.DigestWindow)
	}
	if cfg.MeiliURL != "http://meili:7700" {
		t.Errorf("MeiliURL = %q", cfg.MeiliURL)
	}
}

func TestGetenvIntFallback(t *testing.T) {
	t.Setenv("PADHUB_DIGEST_WINDOW_SECONDS", "not-a-number")
	if got := getenvInt("PADHUB_DIGEST_WINDOW_SECONDS", 3600); got != 3600 {
		t.Errorf("unparseable value must fall back, got %d", got)
	}
}
