package model

// RiskLevel is the banded risk classification derived from a score.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "safe"
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskRank maps risk levels to comparable integers for ordering.
var RiskRank = map[RiskLevel]int{
	RiskSafe:     0,
	RiskLow:      1,
	RiskMedium:   2,
	RiskHigh:     3,
	RiskCritical: 4,
}

// LevelForScore maps a 0-100 score to its fixed band.
// Bands: 0-20 safe, 21-40 low, 41-60 medium, 61-80 high, 81-100 critical.
func LevelForScore(score int) RiskLevel {
	switch {
	case score <= 20:
		return RiskSafe
	case score <= 40:
		return RiskLow
	case score <= 60:
		return RiskMedium
	case score <= 80:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// RiskBreakdown holds the weighted per-factor contributions to a score.
// The five contributions sum to the final score (modulo integer rounding,
// which is applied per factor so the sum is exact).
type RiskBreakdown struct {
	Financial     int `json:"financial"`
	Reversibility int `json:"reversibility"`
	CategoryBase  int `json:"category_base"`
	Urgency       int `json:"urgency"`
	Visibility    int `json:"visibility"`
}

// Total returns the sum of all weighted contributions.
func (b RiskBreakdown) Total() int {
	return b.Financial + b.Reversibility + b.CategoryBase + b.Urgency + b.Visibility
}

// RiskAssessment is the classifier's verdict on a single action.
// Created once per action, immutable.
type RiskAssessment struct {
	ActionID  string        `json:"action_id"`
	Score     int           `json:"score"`
	Breakdown RiskBreakdown `json:"breakdown"`
	Level     RiskLevel     `json:"level"`
}
