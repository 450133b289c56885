package audit

// EntryType tags which state transition an audit entry records.
type EntryType string

const (
	TypeActionReceived    EntryType = "action_received"
	TypeRiskAssessed      EntryType = "risk_assessed"
	TypeDecisionMade      EntryType = "decision_made"
	TypeBoundaryViolation EntryType = "boundary_violation"
	TypeValidationError   EntryType = "validation_error"
	TypeQueuedApproval    EntryType = "queued_approval"
	TypeApproved          EntryType = "approved"
	TypeRejected          EntryType = "rejected"
	TypeExpired           EntryType = "expired"
	TypeExecuted          EntryType = "executed"
	TypeExecutionFailed   EntryType = "execution_failed"
	TypeRolledBack        EntryType = "rolled_back"
	TypeEscalated         EntryType = "escalated"
)

// Entry is one line in the hash-chained JSONL audit log. Metadata is a
// flat string map (never map[string]any) so json.Marshal output is
// deterministic and hashes are reproducible.
type Entry struct {
	ID         string            `json:"id"`
	Seq        int               `json:"seq"`
	Timestamp  string            `json:"ts"`
	Type       EntryType         `json:"type"`
	ActionID   string            `json:"action_id,omitempty"`
	DecisionID string            `json:"decision_id,omitempty"`
	Outcome    string            `json:"outcome,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	ConfigHash string            `json:"config_hash,omitempty"`
	PrevHash   string            `json:"prev_hash"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}
