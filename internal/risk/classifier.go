// Package risk scores actions with a deterministic, explainable weighted
// model. This is NOT anomaly detection: identical inputs always produce
// identical scores, and every point in the final score is attributable to
// one of five factors.
package risk

import (
	"math"

	"github.com/avrelio/warden/internal/model"
)

// Factor weights, in percent. Fixed constants: tuning happens in the
// sub-score tables, never in the weights.
const (
	WeightFinancial     = 35
	WeightReversibility = 20
	WeightCategory      = 15
	WeightUrgency       = 15
	WeightVisibility    = 15
)

// BaseRiskTable maps a category to its base risk sub-score (0-100).
type BaseRiskTable map[model.Category]int

// DefaultBaseRisk returns the built-in category base-risk table.
// Ordering is deliberate: trading > development > other > content.
func DefaultBaseRisk() BaseRiskTable {
	return BaseRiskTable{
		model.CategoryTrading:     70,
		model.CategoryDevelopment: 55,
		model.CategoryOther:       45,
		model.CategoryContent:     35,
	}
}

// financialKnots define the piecewise log-linear financial sub-score:
// $1→5, $100→25, $1k→50, $10k→75, $100k→100. Between knots the score is
// interpolated linearly in log10(value) space, which keeps it monotonic
// and bounded while spreading resolution across orders of magnitude.
var financialKnots = []struct {
	value float64
	score float64
}{
	{1, 5},
	{100, 25},
	{1_000, 50},
	{10_000, 75},
	{100_000, 100},
}

// financialSubScore returns the 0-100 financial risk for a USD value.
func financialSubScore(value float64) float64 {
	if value <= 0 {
		return 0
	}
	first := financialKnots[0]
	if value < first.value {
		// Sub-dollar values ramp linearly from 0 to the first knot.
		return value * first.score
	}
	last := financialKnots[len(financialKnots)-1]
	if value >= last.value {
		return last.score
	}
	for i := 1; i < len(financialKnots); i++ {
		lo, hi := financialKnots[i-1], financialKnots[i]
		if value <= hi.value {
			frac := (math.Log10(value) - math.Log10(lo.value)) / (math.Log10(hi.value) - math.Log10(lo.value))
			return lo.score + frac*(hi.score-lo.score)
		}
	}
	return last.score
}

// reversibilitySubScore: irreversible actions score near the ceiling.
func reversibilitySubScore(reversible bool) float64 {
	if reversible {
		return 10
	}
	return 95
}

// urgencySubScore: higher urgency raises risk; urgent actions get less
// scrutiny from humans, so the engine compensates.
func urgencySubScore(u model.Urgency) float64 {
	switch u {
	case model.UrgencyLow:
		return 10
	case model.UrgencyHigh:
		return 65
	case model.UrgencyCritical:
		return 95
	default: // normal (and empty, pre-validation)
		return 30
	}
}

// visibilitySubScore: publicly visible actions are harder to walk back.
func visibilitySubScore(visible bool) float64 {
	if visible {
		return 80
	}
	return 15
}

// weighted converts a 0-100 sub-score into its weighted contribution.
// Rounding happens per factor so the breakdown sums exactly to the score.
func weighted(sub float64, weight int) int {
	return int(math.Round(sub * float64(weight) / 100))
}

// Classify produces a RiskAssessment for an action. Pure function of the
// action and the base-risk table: no clock, no I/O, no shared state.
func Classify(a *model.Action, base BaseRiskTable) model.RiskAssessment {
	if base == nil {
		base = DefaultBaseRisk()
	}
	categorySub, ok := base[a.Category]
	if !ok {
		categorySub = DefaultBaseRisk()[model.CategoryOther]
	}

	breakdown := model.RiskBreakdown{
		Financial:     weighted(financialSubScore(a.Value()), WeightFinancial),
		Reversibility: weighted(reversibilitySubScore(a.Reversible), WeightReversibility),
		CategoryBase:  weighted(float64(categorySub), WeightCategory),
		Urgency:       weighted(urgencySubScore(a.Urgency), WeightUrgency),
		Visibility:    weighted(visibilitySubScore(a.ExternallyVisible), WeightVisibility),
	}

	score := breakdown.Total()
	return model.RiskAssessment{
		ActionID:  a.ID,
		Score:     score,
		Breakdown: breakdown,
		Level:     model.LevelForScore(score),
	}
}
