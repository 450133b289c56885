// Package route turns a risk assessment and a violation list into one of
// four outcomes, governed by the global autonomy level. The hard-block
// floor lives here, in code: no autonomy level and no configuration can
// route a hard-blocked action to auto_execute.
package route

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avrelio/warden/internal/model"
)

// Autonomy levels. Higher level = more aggressive auto-execution.
const (
	LevelManual     = 1 // everything queues for a human
	LevelBounded    = 2 // default: safe/low auto-executes within bounds
	LevelSupervised = 3 // medium risk auto-executes within bounds
	LevelAutonomous = 4 // everything but critical auto-executes
)

// LevelLabel returns a human-readable label for an autonomy level.
func LevelLabel(level int) string {
	switch level {
	case LevelManual:
		return "manual"
	case LevelBounded:
		return "bounded"
	case LevelSupervised:
		return "supervised"
	case LevelAutonomous:
		return "autonomous"
	default:
		return fmt.Sprintf("unknown(%d)", level)
	}
}

// ValidLevel reports whether level is within the configured range.
func ValidLevel(level int) bool {
	return level >= LevelManual && level <= LevelAutonomous
}

// Route decides the outcome for an assessed, checked action.
//
// Decision order (must not be changed):
//  1. Hard violations: escalate, at every level
//  2. Critical urgency: escalate, at every level
//  3. Critical risk: escalate, at every level (final safety valve)
//  4. Level table over (risk level, soft violations)
//
// Routing never mutates usage counters; those advance only after a
// successful execution.
func Route(a *model.Action, assessment model.RiskAssessment, violations []model.Violation, level int) *model.Decision {
	outcome, reason := decide(a, assessment, violations, level)
	return &model.Decision{
		ID:            uuid.NewString(),
		ActionID:      a.ID,
		Assessment:    assessment,
		Outcome:       outcome,
		Reason:        reason,
		Violations:    violations,
		AutonomyLevel: level,
		CreatedAt:     time.Now().UTC(),
	}
}

func decide(a *model.Action, assessment model.RiskAssessment, violations []model.Violation, level int) (model.Outcome, string) {
	if model.HasHard(violations) {
		return model.OutcomeEscalate, fmt.Sprintf("hard block: %s", firstHard(violations).Detail)
	}

	if a.Urgency == model.UrgencyCritical {
		return model.OutcomeEscalate, "critical urgency always goes to a human"
	}

	if assessment.Level == model.RiskCritical {
		return model.OutcomeEscalate, fmt.Sprintf("critical risk (score %d)", assessment.Score)
	}

	violated := len(violations) > 0

	switch level {
	case LevelManual:
		return model.OutcomeQueueApproval, "manual mode queues everything"

	case LevelSupervised:
		switch assessment.Level {
		case model.RiskSafe, model.RiskLow, model.RiskMedium:
			if violated {
				return model.OutcomeQueueApproval, violationReason(violations)
			}
			return model.OutcomeAutoExecute, fmt.Sprintf("%s risk within bounds at %s level", assessment.Level, LevelLabel(level))
		default: // high
			return model.OutcomeQueueApproval, fmt.Sprintf("high risk (score %d) queued for review", assessment.Score)
		}

	case LevelAutonomous:
		if violated {
			// Boundary breaches still need a human even in autonomous
			// mode; the level only widens the risk bands, never the
			// numeric limits.
			return model.OutcomeQueueApproval, violationReason(violations)
		}
		return model.OutcomeAutoExecute, fmt.Sprintf("%s risk auto-approved at %s level", assessment.Level, LevelLabel(level))

	default: // LevelBounded, and anything unrecognized falls back to it
		switch assessment.Level {
		case model.RiskSafe, model.RiskLow:
			if violated {
				return model.OutcomeQueueApproval, violationReason(violations)
			}
			return model.OutcomeAutoExecute, fmt.Sprintf("%s risk within bounds", assessment.Level)
		case model.RiskMedium:
			return model.OutcomeQueueApproval, fmt.Sprintf("medium risk (score %d) queued for review", assessment.Score)
		default: // high
			return model.OutcomeEscalate, fmt.Sprintf("high risk (score %d) escalated", assessment.Score)
		}
	}
}

func firstHard(violations []model.Violation) model.Violation {
	for _, v := range violations {
		if v.Hard {
			return v
		}
	}
	return model.Violation{}
}

func violationReason(violations []model.Violation) string {
	return fmt.Sprintf("boundary violation: %s", violations[0].Detail)
}
