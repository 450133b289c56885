package boundary

import (
	"os"
	"testing"
	"time"

	"github.com/avrelio/warden/internal/model"
)

var checkTime = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

func newChecker(t *testing.T) *Checker {
	t.Helper()
	return NewChecker(DefaultConfig(), NewState(checkTime))
}

func findViolation(violations []model.Violation, limit string) *model.Violation {
	for i := range violations {
		if violations[i].Limit == limit {
			return &violations[i]
		}
	}
	return nil
}

func TestWithinBoundsNoViolations(t *testing.T) {
	c := newChecker(t)
	a := tradeAction(10)
	if v := c.Check(a, checkTime); len(v) != 0 {
		t.Errorf("expected no violations for $10 trade, got %+v", v)
	}
}

func TestPerActionTradeCap(t *testing.T) {
	c := newChecker(t)
	a := tradeAction(150) // default max_trade_size is 100
	v := c.Check(a, checkTime)
	hit := findViolation(v, "max_trade_size")
	if hit == nil {
		t.Fatalf("expected max_trade_size violation, got %+v", v)
	}
	if hit.Hard {
		t.Error("numeric cap violations are soft, not hard")
	}
}

func TestCumulativeDailySpend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Categories[model.CategoryTrading].MaxDailySpend = 100
	cfg.Categories[model.CategoryTrading].MaxTradeSize = 0
	cfg.Categories[model.CategoryTrading].MaxAutoExpense = 0
	state := NewState(checkTime)
	c := NewChecker(cfg, state)

	// First $80 passes and is committed after execution.
	first := tradeAction(80)
	if v := c.Check(first, checkTime); len(v) != 0 {
		t.Fatalf("first $80 should be clean, got %+v", v)
	}
	state.Commit(first, checkTime)

	// $30 more would breach the $100 daily cap.
	second := tradeAction(30)
	v := c.Check(second, checkTime)
	hit := findViolation(v, "max_daily_spend")
	if hit == nil {
		t.Fatalf("expected max_daily_spend violation for 80+30 > 100, got %+v", v)
	}
	if hit.Observed != 110 || hit.Allowed != 100 {
		t.Errorf("expected observed 110 / allowed 100, got %f / %f", hit.Observed, hit.Allowed)
	}
}

func TestCheckDoesNotMutateCounters(t *testing.T) {
	c := newChecker(t)
	a := tradeAction(40)
	for i := 0; i < 5; i++ {
		c.Check(a, checkTime)
	}
	u := c.State().Snapshot(model.CategoryTrading, checkTime)
	if u.DailySpend != 0 {
		t.Errorf("Check must not advance counters, daily spend = %f", u.DailySpend)
	}
}

func TestDailyPostCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Categories[model.CategoryContent].MaxAutoPostsPerDay = 2
	state := NewState(checkTime)
	c := NewChecker(cfg, state)

	post := model.NewAction(model.CategoryContent, "tweet_post", "publisher")
	post.Payload = map[string]any{"text": "gm"}

	for i := 0; i < 2; i++ {
		if v := c.Check(post, checkTime); len(v) != 0 {
			t.Fatalf("post %d should be clean, got %+v", i+1, v)
		}
		state.Commit(post, checkTime)
	}

	v := c.Check(post, checkTime)
	if findViolation(v, "max_auto_posts_per_day") == nil {
		t.Errorf("third post should trip the daily cap, got %+v", v)
	}
}

func TestBlockedKeywordIsHard(t *testing.T) {
	c := newChecker(t)
	post := model.NewAction(model.CategoryContent, "tweet_post", "publisher")
	post.Payload = map[string]any{"text": "Join now for GUARANTEED RETURNS on every trade"}

	v := c.Check(post, checkTime)
	hit := findViolation(v, "blocked_keyword")
	if hit == nil {
		t.Fatalf("expected blocked_keyword violation, got %+v", v)
	}
	if !hit.Hard {
		t.Error("keyword blocks must be hard")
	}
}

func TestBlockedPathIsHard(t *testing.T) {
	c := newChecker(t)
	commit := model.NewAction(model.CategoryDevelopment, "commit_push", "builder")
	commit.Payload = map[string]any{
		"files":         []any{"cmd/main.go", "deploy/secrets/prod.yaml"},
		"lines_changed": 12,
	}

	v := c.Check(commit, checkTime)
	hit := findViolation(v, "blocked_path")
	if hit == nil {
		t.Fatalf("expected blocked_path violation, got %+v", v)
	}
	if !hit.Hard {
		t.Error("path blocks must be hard")
	}
}

func TestCommitLinesCap(t *testing.T) {
	c := newChecker(t)
	commit := model.NewAction(model.CategoryDevelopment, "commit_push", "builder")
	commit.Payload = map[string]any{"files": []any{"main.go"}, "lines_changed": 900}

	v := c.Check(commit, checkTime)
	if findViolation(v, "max_auto_commit_lines") == nil {
		t.Errorf("expected max_auto_commit_lines violation, got %+v", v)
	}
}

func TestDeployProductionAlwaysHardBlocked(t *testing.T) {
	c := newChecker(t)
	deploy := model.NewAction(model.CategoryDevelopment, TypeDeployProduction, "builder")

	v := c.Check(deploy, checkTime)
	hit := findViolation(v, "auto_deploy_to_production")
	if hit == nil || !hit.Hard {
		t.Fatalf("deploy_production must always produce a hard violation, got %+v", v)
	}
}

func TestMatchPathForms(t *testing.T) {
	cases := []struct {
		path, pattern string
		want          bool
	}{
		{"config/prod.pem", "*.pem", true},
		{"config/prod.pem.bak", "*.pem", false},
		{"deploy/secrets/key.yaml", "secrets/", true},
		{"src/app.go", "secrets/", false},
		{".env.local", ".env", true},
		{"wallet/keys.json", "wallet", true},
	}
	for _, c := range cases {
		if got := MatchPath(c.path, c.pattern); got != c.want {
			t.Errorf("MatchPath(%q, %q) = %v, want %v", c.path, c.pattern, got, c.want)
		}
	}
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, hash, err := LoadConfigWithHash(t.TempDir() + "/nope.yaml")
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.LimitsFor(model.CategoryTrading).MaxTradeSize != 100 {
		t.Error("expected default trading limits")
	}
	if hash == "" {
		t.Error("expected a hash even for defaults")
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := t.TempDir() + "/boundaries.yaml"
	data := "categories:\n  trading:\n    max_trade_size: 5\n"
	if err := writeFile(path, data); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.LimitsFor(model.CategoryTrading).MaxTradeSize; got != 5 {
		t.Errorf("expected override 5, got %f", got)
	}
	// Unrelated categories keep their defaults.
	if cfg.LimitsFor(model.CategoryContent).MaxAutoPostsPerDay != 10 {
		t.Error("content defaults should survive a partial override")
	}
}

func writeFile(path, data string) error {
	return os.WriteFile(path, []byte(data), 0o644)
}
