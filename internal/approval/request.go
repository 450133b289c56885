// Package approval holds actions awaiting a human decision: a priority
// queue with expiry over a file-backed store.
package approval

import (
	"time"

	"github.com/google/uuid"

	"github.com/avrelio/warden/internal/model"
)

// Status represents the state of an approval request. A request leaves
// pending exactly once; terminal states never change again.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
)

// Terminal reports whether s is a terminal status.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusExpired
}

// Priority orders pending requests for human review.
// critical > high > medium > low; priority is exactly the risk level,
// with safe folded into low.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	default:
		return "low"
	}
}

// PriorityForLevel maps a risk level to a queue priority.
func PriorityForLevel(level model.RiskLevel) Priority {
	switch level {
	case model.RiskCritical:
		return PriorityCritical
	case model.RiskHigh:
		return PriorityHigh
	case model.RiskMedium:
		return PriorityMedium
	default: // low and safe
		return PriorityLow
	}
}

// DefaultExpiry is how long a request waits for a human before it
// expires without executing.
const DefaultExpiry = 24 * time.Hour

// Request is one action waiting for a human decision.
type Request struct {
	ID         string         `json:"id"`
	Action     *model.Action  `json:"action"`
	Decision   model.Decision `json:"decision"`
	Priority   Priority       `json:"priority"`
	Status     Status         `json:"status"`
	CreatedAt  time.Time      `json:"created_at"`
	ExpiresAt  time.Time      `json:"expires_at"`
	ResolvedAt *time.Time     `json:"resolved_at,omitempty"`
	Feedback   string         `json:"feedback,omitempty"` // operator note on approve
	Reason     string         `json:"reason,omitempty"`   // operator reason on reject
}

// NewRequest builds a pending request for a queued decision.
func NewRequest(a *model.Action, d model.Decision, now time.Time, expiry time.Duration) *Request {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Request{
		ID:        uuid.NewString(),
		Action:    a,
		Decision:  d,
		Priority:  PriorityForLevel(d.Assessment.Level),
		Status:    StatusPending,
		CreatedAt: now,
		ExpiresAt: now.Add(expiry),
	}
}
