package model

import "time"

// Outcome is the router's verdict for an action.
type Outcome string

const (
	OutcomeAutoExecute   Outcome = "auto_execute"
	OutcomeQueueApproval Outcome = "queue_approval"
	OutcomeEscalate      Outcome = "escalate"
	OutcomeReject        Outcome = "reject"
)

// Violation records one boundary limit exceeded or blocklist hit.
// Hard violations can never reach auto_execute at any autonomy level.
type Violation struct {
	Limit    string  `json:"limit"`              // e.g. "max_daily_spend", "blocked_keyword"
	Detail   string  `json:"detail"`             // human-readable explanation
	Observed float64 `json:"observed,omitempty"` // value that tripped the limit, when numeric
	Allowed  float64 `json:"allowed,omitempty"`  // configured limit, when numeric
	Hard     bool    `json:"hard"`
}

// HasHard reports whether any violation in the list is a hard block.
func HasHard(violations []Violation) bool {
	for _, v := range violations {
		if v.Hard {
			return true
		}
	}
	return false
}

// Decision is the immutable record of how an action was routed.
type Decision struct {
	ID            string         `json:"id"`
	ActionID      string         `json:"action_id"`
	Assessment    RiskAssessment `json:"assessment"`
	Outcome       Outcome        `json:"outcome"`
	Reason        string         `json:"reason"`
	Violations    []Violation    `json:"violations,omitempty"`
	AutonomyLevel int            `json:"autonomy_level"`
	CreatedAt     time.Time      `json:"created_at"`
}
