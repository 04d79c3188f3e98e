package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr       string
	RedisURL   string
	RootURL    string
	CORSOrigin string
	// Search
	MeiliURL       string
	MeiliMasterKey string
	// SMTP Configuration
	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	// Watchlist digest
	DigestSchedule string
	DigestWindow   time.Duration
}

func Load() Config {
	return Config{
		Addr:           getenv("PADHUB_ADDR", ":8788"),
		RedisURL:       getenv("REDIS_URL", "redis://localhost:6379/0"),
		RootURL:        getenv("PADHUB_ROOT_URL", "http://localhost:8788"),
		CORSOrigin:     getenv("PADHUB_CORS_ORIGIN", "*"),
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),
		// SMTP - empty by default, digest mail disabled if not configured
		SMTPHost:       getenv("SMTP_HOST", ""),
		SMTPPort:       getenv("SMTP_PORT", "587"),
		SMTPUsername:   getenv("SMTP_USERNAME", ""),
		SMTPPassword:   getenv("SMTP_PASSWORD", ""),
		SMTPFrom:       getenv("SMTP_FROM", ""),
		SMTPFromName:   getenv("SMTP_FROM_NAME", "Padhub"),
		DigestSchedule: getenv("PADHUB_DIGEST_SCHEDULE", "0 * * * *"),
		DigestWindow:   time.Duration(getenvInt("PADHUB_DIGEST_WINDOW_SECONDS", 3600)) * time.Second,
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
