// Package config reads the engine's environment configuration.
// Every knob has a safe default; the only validation failure is an
// autonomy level outside 1-4, which fails closed at startup rather than
// defaulting silently.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config is the engine's environment-driven configuration.
type Config struct {
	AutonomyLevel      int           // WARDEN_AUTONOMY_LEVEL, 1-4
	ApprovalExpiry     time.Duration // WARDEN_APPROVAL_EXPIRY_HOURS
	MaxPending         int           // WARDEN_MAX_PENDING
	NotifyRatePerMin   int           // WARDEN_NOTIFY_RATE
	WebhookURL         string        // WARDEN_WEBHOOK_URL
	WebhookFormat      string        // WARDEN_WEBHOOK_FORMAT
	PubSubProject      string        // WARDEN_PUBSUB_PROJECT
	PubSubTopic        string        // WARDEN_PUBSUB_TOPIC
	AuditRetentionDays int           // WARDEN_AUDIT_RETENTION_DAYS
	BoundaryConfigPath string        // WARDEN_BOUNDARY_CONFIG
	DataDir            string        // WARDEN_DATA_DIR
	Listen             string        // WARDEN_LISTEN
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		AutonomyLevel:      2,
		ApprovalExpiry:     24 * time.Hour,
		MaxPending:         100,
		NotifyRatePerMin:   10,
		WebhookFormat:      "generic",
		AuditRetentionDays: 30,
		DataDir:            defaultDataDir(),
		Listen:             ":8787",
	}
}

// FromEnv loads configuration from the environment over the defaults.
func FromEnv() (Config, error) {
	cfg := Defaults()

	if v := os.Getenv("WARDEN_AUTONOMY_LEVEL"); v != "" {
		level, err := strconv.Atoi(v)
		if err != nil || level < 1 || level > 4 {
			return cfg, fmt.Errorf("config: WARDEN_AUTONOMY_LEVEL must be 1-4, got %q", v)
		}
		cfg.AutonomyLevel = level
	}
	if v := os.Getenv("WARDEN_APPROVAL_EXPIRY_HOURS"); v != "" {
		hours, err := strconv.Atoi(v)
		if err != nil || hours <= 0 {
			return cfg, fmt.Errorf("config: WARDEN_APPROVAL_EXPIRY_HOURS must be a positive integer, got %q", v)
		}
		cfg.ApprovalExpiry = time.Duration(hours) * time.Hour
	}
	cfg.MaxPending = intEnv("WARDEN_MAX_PENDING", cfg.MaxPending)
	cfg.NotifyRatePerMin = intEnv("WARDEN_NOTIFY_RATE", cfg.NotifyRatePerMin)
	cfg.AuditRetentionDays = intEnv("WARDEN_AUDIT_RETENTION_DAYS", cfg.AuditRetentionDays)

	cfg.WebhookURL = stringEnv("WARDEN_WEBHOOK_URL", cfg.WebhookURL)
	cfg.WebhookFormat = stringEnv("WARDEN_WEBHOOK_FORMAT", cfg.WebhookFormat)
	cfg.PubSubProject = stringEnv("WARDEN_PUBSUB_PROJECT", cfg.PubSubProject)
	cfg.PubSubTopic = stringEnv("WARDEN_PUBSUB_TOPIC", cfg.PubSubTopic)
	cfg.BoundaryConfigPath = stringEnv("WARDEN_BOUNDARY_CONFIG", cfg.BoundaryConfigPath)
	cfg.DataDir = stringEnv("WARDEN_DATA_DIR", cfg.DataDir)
	cfg.Listen = stringEnv("WARDEN_LISTEN", cfg.Listen)

	return cfg, nil
}

// AuditLogPath returns the active audit chain location.
func (c Config) AuditLogPath() string {
	return filepath.Join(c.DataDir, "audit.jsonl")
}

// ApprovalDir returns the approval store location.
func (c Config) ApprovalDir() string {
	return filepath.Join(c.DataDir, "approvals")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "warden")
	}
	return filepath.Join(home, ".warden")
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
