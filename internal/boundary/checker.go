package boundary

import (
	"fmt"
	"strings"
	"time"

	"github.com/avrelio/warden/internal/model"
)

// TypeDeployProduction is the one action type that is hard-blocked in
// code: no configuration, and no autonomy level, can auto-execute it.
const TypeDeployProduction = "deploy_production"

// Payload keys the checker inspects. Adapters populate these when the
// domain request carries content or file paths.
const (
	keyText  = "text"
	keyBody  = "body"
	keyTitle = "title"
	keyFiles = "files"
	keyLines = "lines_changed"
)

// Checker compares actions against configured limits and current usage.
// Checking is read-only: counters advance only after execution.
type Checker struct {
	cfg   *Config
	state *State
}

// NewChecker creates a Checker over the given config and usage state.
func NewChecker(cfg *Config, state *State) *Checker {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Checker{cfg: cfg, state: state}
}

// SetConfig swaps the boundary configuration (hot reload).
func (c *Checker) SetConfig(cfg *Config) {
	if cfg != nil {
		c.cfg = cfg
	}
}

// Config returns the active boundary configuration.
func (c *Checker) Config() *Config { return c.cfg }

// State returns the usage state the checker reads from.
func (c *Checker) State() *State { return c.state }

// Check returns every violation the action would cause. An empty list
// means the action is within bounds. Violations are an input to routing,
// not a verdict: only Hard violations force escalation on their own.
func (c *Checker) Check(a *model.Action, now time.Time) []model.Violation {
	var violations []model.Violation
	limits := c.cfg.LimitsFor(a.Category)
	usage := c.state.Snapshot(a.Category, now)
	value := a.Value()

	// Hard block: production deploys never auto-execute.
	if a.Type == TypeDeployProduction {
		violations = append(violations, model.Violation{
			Limit:  "auto_deploy_to_production",
			Detail: "production deploys always require a human",
			Hard:   true,
		})
	}

	// Absolute per-action caps.
	if limits.MaxTradeSize > 0 && value > limits.MaxTradeSize {
		violations = append(violations, model.Violation{
			Limit:    "max_trade_size",
			Detail:   fmt.Sprintf("trade of $%.2f exceeds per-trade cap $%.2f", value, limits.MaxTradeSize),
			Observed: value,
			Allowed:  limits.MaxTradeSize,
		})
	}
	if limits.MaxAutoExpense > 0 && value > limits.MaxAutoExpense {
		violations = append(violations, model.Violation{
			Limit:    "max_auto_expense",
			Detail:   fmt.Sprintf("expense of $%.2f exceeds auto-approval cap $%.2f", value, limits.MaxAutoExpense),
			Observed: value,
			Allowed:  limits.MaxAutoExpense,
		})
	}

	// Cumulative caps: current counter plus the proposed action.
	if limits.MaxDailySpend > 0 && value > 0 && usage.DailySpend+value > limits.MaxDailySpend {
		violations = append(violations, model.Violation{
			Limit: "max_daily_spend",
			Detail: fmt.Sprintf("daily spend $%.2f + $%.2f would exceed cap $%.2f",
				usage.DailySpend, value, limits.MaxDailySpend),
			Observed: usage.DailySpend + value,
			Allowed:  limits.MaxDailySpend,
		})
	}
	if limits.MaxWeeklySpend > 0 && value > 0 && usage.WeeklySpend+value > limits.MaxWeeklySpend {
		violations = append(violations, model.Violation{
			Limit: "max_weekly_spend",
			Detail: fmt.Sprintf("weekly spend $%.2f + $%.2f would exceed cap $%.2f",
				usage.WeeklySpend, value, limits.MaxWeeklySpend),
			Observed: usage.WeeklySpend + value,
			Allowed:  limits.MaxWeeklySpend,
		})
	}

	// Categorical caps.
	if limits.MaxAutoPostsPerDay > 0 && a.Category == model.CategoryContent &&
		usage.DailyPosts+1 > limits.MaxAutoPostsPerDay {
		violations = append(violations, model.Violation{
			Limit: "max_auto_posts_per_day",
			Detail: fmt.Sprintf("post %d of the day exceeds cap %d",
				usage.DailyPosts+1, limits.MaxAutoPostsPerDay),
			Observed: float64(usage.DailyPosts + 1),
			Allowed:  float64(limits.MaxAutoPostsPerDay),
		})
	}
	if limits.MaxAutoCommitLines > 0 {
		if lines := payloadInt(a.Payload, keyLines); lines > limits.MaxAutoCommitLines {
			violations = append(violations, model.Violation{
				Limit:    "max_auto_commit_lines",
				Detail:   fmt.Sprintf("commit touches %d lines, cap is %d", lines, limits.MaxAutoCommitLines),
				Observed: float64(lines),
				Allowed:  float64(limits.MaxAutoCommitLines),
			})
		}
	}

	// Content keyword hard blocks.
	if len(limits.BlockedKeywords) > 0 {
		if kw, hit := blockedKeyword(payloadText(a.Payload), limits.BlockedKeywords); hit {
			violations = append(violations, model.Violation{
				Limit:  "blocked_keyword",
				Detail: fmt.Sprintf("content contains blocked keyword %q", kw),
				Hard:   true,
			})
		}
	}

	// Path hard blocks.
	if len(limits.BlockedPaths) > 0 {
		if path, pat, hit := blockedPath(payloadPaths(a.Payload), limits.BlockedPaths); hit {
			violations = append(violations, model.Violation{
				Limit:  "blocked_path",
				Detail: fmt.Sprintf("path %q matches blocked pattern %q", path, pat),
				Hard:   true,
			})
		}
	}

	return violations
}

// payloadText concatenates the text-bearing payload fields.
func payloadText(payload map[string]any) string {
	if payload == nil {
		return ""
	}
	var parts []string
	for _, key := range []string{keyTitle, keyText, keyBody} {
		if s, ok := payload[key].(string); ok && s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// payloadPaths extracts the file path list from a payload.
func payloadPaths(payload map[string]any) []string {
	if payload == nil {
		return nil
	}
	switch v := payload[keyFiles].(type) {
	case []string:
		return v
	case []any:
		var out []string
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func payloadInt(payload map[string]any, key string) int {
	if payload == nil {
		return 0
	}
	switch n := payload[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
