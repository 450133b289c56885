package risk

import (
	"testing"

	"github.com/avrelio/warden/internal/model"
)

func action(category model.Category, value float64, reversible bool, urgency model.Urgency, visible bool) *model.Action {
	a := model.NewAction(category, "test_action", "test")
	if value > 0 {
		a.FinancialValue = &value
	}
	a.Reversible = reversible
	a.Urgency = urgency
	a.ExternallyVisible = visible
	return a
}

func TestClassifyDeterministic(t *testing.T) {
	a := action(model.CategoryTrading, 500, true, model.UrgencyNormal, false)
	first := Classify(a, nil)
	for i := 0; i < 10; i++ {
		if got := Classify(a, nil); got != first {
			t.Fatalf("classification not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestBreakdownSumsToScore(t *testing.T) {
	actions := []*model.Action{
		action(model.CategoryTrading, 10, true, model.UrgencyNormal, false),
		action(model.CategoryContent, 0, true, model.UrgencyLow, true),
		action(model.CategoryDevelopment, 25_000, false, model.UrgencyCritical, false),
		action(model.CategoryOther, 99.99, false, model.UrgencyHigh, true),
	}
	for _, a := range actions {
		got := Classify(a, nil)
		if got.Breakdown.Total() != got.Score {
			t.Errorf("%s: breakdown total %d != score %d", a.Category, got.Breakdown.Total(), got.Score)
		}
		if got.Score < 0 || got.Score > 100 {
			t.Errorf("%s: score %d out of range", a.Category, got.Score)
		}
	}
}

func TestFinancialSubScoreMonotonic(t *testing.T) {
	values := []float64{0, 0.5, 1, 10, 100, 500, 1_000, 5_000, 10_000, 50_000, 100_000, 1_000_000}
	prev := -1.0
	for _, v := range values {
		s := financialSubScore(v)
		if s < prev {
			t.Fatalf("financial sub-score not monotonic at $%v: %f < %f", v, s, prev)
		}
		if s < 0 || s > 100 {
			t.Fatalf("financial sub-score out of bounds at $%v: %f", v, s)
		}
		prev = s
	}
	if financialSubScore(1_000_000) != 100 {
		t.Errorf("expected cap at 100 for $1M, got %f", financialSubScore(1_000_000))
	}
}

func TestIrreversibleScoresHigher(t *testing.T) {
	reversible := Classify(action(model.CategoryTrading, 1_000, true, model.UrgencyNormal, false), nil)
	irreversible := Classify(action(model.CategoryTrading, 1_000, false, model.UrgencyNormal, false), nil)
	if irreversible.Score <= reversible.Score {
		t.Errorf("irreversible (%d) should outscore reversible (%d)", irreversible.Score, reversible.Score)
	}
}

func TestCategoryOrdering(t *testing.T) {
	trading := Classify(action(model.CategoryTrading, 0, true, model.UrgencyNormal, false), nil)
	dev := Classify(action(model.CategoryDevelopment, 0, true, model.UrgencyNormal, false), nil)
	content := Classify(action(model.CategoryContent, 0, true, model.UrgencyNormal, false), nil)
	if !(trading.Score > dev.Score && dev.Score > content.Score) {
		t.Errorf("expected trading > development > content, got %d / %d / %d",
			trading.Score, dev.Score, content.Score)
	}
}

func TestSmallTradeIsLowRisk(t *testing.T) {
	// The canonical end-to-end action: $10 reversible DCA buy, normal
	// urgency, not externally visible. Must land in the low band so that
	// the default autonomy level auto-executes it.
	a := action(model.CategoryTrading, 10, true, model.UrgencyNormal, false)
	got := Classify(a, nil)
	if got.Level != model.RiskLow && got.Level != model.RiskSafe {
		t.Errorf("expected safe/low for $10 reversible trade, got %s (score %d)", got.Level, got.Score)
	}
}

func TestWorstCaseIsCritical(t *testing.T) {
	a := action(model.CategoryTrading, 500_000, false, model.UrgencyCritical, true)
	got := Classify(a, nil)
	if got.Level != model.RiskCritical {
		t.Errorf("expected critical for worst case, got %s (score %d)", got.Level, got.Score)
	}
}

func TestConfigDrivenBaseRisk(t *testing.T) {
	base := BaseRiskTable{model.CategoryContent: 90}
	hot := Classify(action(model.CategoryContent, 0, true, model.UrgencyNormal, false), base)
	def := Classify(action(model.CategoryContent, 0, true, model.UrgencyNormal, false), nil)
	if hot.Score <= def.Score {
		t.Errorf("raised base risk should raise score: %d vs %d", hot.Score, def.Score)
	}
}
