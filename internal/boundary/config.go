// Package boundary holds per-category numeric limits, keyword/path hard
// blocks, and the rolling usage counters those limits are enforced against.
package boundary

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/avrelio/warden/internal/model"
)

// Limits is the category-scoped boundary configuration. Zero values mean
// no limit for that dimension.
type Limits struct {
	MaxAutoExpense     float64  `yaml:"max_auto_expense"`
	MaxDailySpend      float64  `yaml:"max_daily_spend"`
	MaxWeeklySpend     float64  `yaml:"max_weekly_spend"`
	MaxTradeSize       float64  `yaml:"max_trade_size"`
	MaxAutoPostsPerDay int      `yaml:"max_auto_posts_per_day"`
	MaxAutoCommitLines int      `yaml:"max_auto_commit_lines"`
	BlockedKeywords    []string `yaml:"blocked_keywords"`
	BlockedPaths       []string `yaml:"blocked_paths"`

	// autoDeployToProduction is hard-wired false. It has no yaml tag on
	// purpose: production deploys always escalate, and no configuration
	// file can change that (the floor lives in route, not here).
}

// Config is the full boundary configuration: one Limits block per
// category plus the category base-risk table consumed by the classifier.
type Config struct {
	Categories map[model.Category]*Limits `yaml:"categories"`
	BaseRisk   map[model.Category]int     `yaml:"base_risk"`
}

// LimitsFor returns the limits for a category, falling back to an empty
// (unlimited) block when the category is not configured.
func (c *Config) LimitsFor(category model.Category) *Limits {
	if c == nil || c.Categories == nil {
		return &Limits{}
	}
	if l := c.Categories[category]; l != nil {
		return l
	}
	return &Limits{}
}

// DefaultConfig returns the built-in boundary configuration.
func DefaultConfig() *Config {
	return &Config{
		Categories: map[model.Category]*Limits{
			model.CategoryTrading: {
				MaxAutoExpense: 50,
				MaxDailySpend:  200,
				MaxWeeklySpend: 1000,
				MaxTradeSize:   100,
			},
			model.CategoryContent: {
				MaxAutoPostsPerDay: 10,
				BlockedKeywords: []string{
					"guaranteed returns", "financial advice", "insider",
					"pump", "giveaway", "airdrop",
				},
			},
			model.CategoryDevelopment: {
				MaxAutoCommitLines: 500,
				BlockedPaths: []string{
					".env", "secrets/", "*.pem", "*.key",
					"credentials", "wallet",
				},
			},
			model.CategoryOther: {
				MaxAutoExpense: 25,
				MaxDailySpend:  100,
			},
		},
		BaseRisk: map[model.Category]int{
			model.CategoryTrading:     70,
			model.CategoryDevelopment: 55,
			model.CategoryOther:       45,
			model.CategoryContent:     35,
		},
	}
}

// DefaultPath returns the default boundary config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "warden-boundaries.yaml")
	}
	return filepath.Join(home, ".warden", "boundaries.yaml")
}

// LoadConfig loads boundary configuration from a YAML file.
// Missing file returns defaults. Invalid YAML returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg, _, err := LoadConfigWithHash(path)
	return cfg, err
}

// LoadConfigWithHash loads boundary configuration and returns the SHA-256
// of the raw YAML bytes, recorded in audit entries so every decision is
// traceable to the exact configuration that produced it. When no file
// exists (defaults used), the hash is the SHA-256 of empty input.
func LoadConfigWithHash(path string) (*Config, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			h := sha256.Sum256(nil)
			return DefaultConfig(), "sha256:" + hex.EncodeToString(h[:]), nil
		}
		return nil, "", fmt.Errorf("boundary: read config: %w", err)
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified fields.
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, "", fmt.Errorf("boundary: parse config: %w", err)
	}

	return cfg, hash, nil
}
