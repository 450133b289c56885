// Package notify fans governance events out to external channels.
// Delivery is best effort and fire-and-forget: the decision path never
// blocks on, or fails because of, a notification.
package notify

import (
	"encoding/json"
	"log"
)

// Event is the payload sent to notification channels when an action is
// queued for approval or escalated.
type Event struct {
	Timestamp  string `json:"timestamp"`
	ActionID   string `json:"action_id"`
	Category   string `json:"category"`
	ActionType string `json:"action_type"`
	Outcome    string `json:"outcome"`
	RiskLevel  string `json:"risk_level"`
	RiskScore  int    `json:"risk_score"`
	Reason     string `json:"reason"`
	RequestID  string `json:"request_id,omitempty"` // approval request, when queued
}

// Emitter delivers one event to a channel. Implementations must not
// block the caller and must swallow their own failures.
type Emitter interface {
	Emit(event Event)
}

// LogEmitter writes events to the process log. Always configured as the
// fallback channel.
type LogEmitter struct{}

func NewLogEmitter() *LogEmitter {
	return &LogEmitter{}
}

func (e *LogEmitter) Emit(event Event) {
	b, err := json.Marshal(event)
	if err != nil {
		log.Printf("notify: event marshal failed: %v", err)
		return
	}
	log.Printf("GOVERNANCE EVENT: %s", string(b))
}

// Multi fans one event out to several emitters.
type Multi struct {
	emitters []Emitter
}

func NewMulti(emitters ...Emitter) *Multi {
	return &Multi{emitters: emitters}
}

func (m *Multi) Emit(event Event) {
	for _, e := range m.emitters {
		e.Emit(event)
	}
}
