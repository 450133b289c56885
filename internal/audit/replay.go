package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// TimestampFormat is the layout used in audit entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// TraceFilter selects the entries for one action's lifecycle.
type TraceFilter struct {
	ActionID string
	From     time.Time // zero value = no lower bound
	To       time.Time // zero value = no upper bound
}

// TraceSummary aggregates what happened to the traced action.
type TraceSummary struct {
	Total          int    `json:"total"`
	AutoExecuted   int    `json:"auto_executed"`
	Queued         int    `json:"queued"`
	Escalated      int    `json:"escalated"`
	Rejected       int    `json:"rejected"`
	Executed       int    `json:"executed"`
	Failed         int    `json:"failed"`
	RolledBack     int    `json:"rolled_back"`
	Expired        int    `json:"expired"`
	MaxScore       int    `json:"max_score"`
	FirstTimestamp string `json:"first_timestamp"`
	LastTimestamp  string `json:"last_timestamp"`
}

// TraceResult holds the filtered entries and summary for one action.
type TraceResult struct {
	ActionID string       `json:"action_id"`
	Entries  []Entry      `json:"entries"`
	Summary  TraceSummary `json:"summary"`
}

// Trace reads the audit log and returns the lifecycle of one action:
// every entry carrying its action id, in chain order.
func Trace(path string, filter TraceFilter) (*TraceResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audit: open log: %w", err)
	}
	defer f.Close()

	result := &TraceResult{ActionID: filter.ActionID}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		var entry Entry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue // skip malformed lines
		}

		if entry.ActionID != filter.ActionID {
			continue
		}

		if !filter.From.IsZero() || !filter.To.IsZero() {
			ts, err := time.Parse(TimestampFormat, entry.Timestamp)
			if err != nil {
				continue // skip unparseable timestamps
			}
			if !filter.From.IsZero() && ts.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && ts.After(filter.To) {
				continue
			}
		}

		result.Entries = append(result.Entries, entry)
		updateSummary(&result.Summary, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: read log: %w", err)
	}

	return result, nil
}

func updateSummary(s *TraceSummary, entry Entry) {
	s.Total++

	if entry.Type == TypeDecisionMade {
		switch entry.Outcome {
		case "auto_execute":
			s.AutoExecuted++
		case "queue_approval":
			s.Queued++
		case "escalate":
			s.Escalated++
		case "reject":
			s.Rejected++
		}
	}

	switch entry.Type {
	case TypeExecuted:
		s.Executed++
	case TypeExecutionFailed:
		s.Failed++
	case TypeRolledBack:
		s.RolledBack++
	case TypeExpired:
		s.Expired++
	}

	if raw, ok := entry.Metadata["score"]; ok {
		if score, err := strconv.Atoi(raw); err == nil && score > s.MaxScore {
			s.MaxScore = score
		}
	}

	if s.FirstTimestamp == "" {
		s.FirstTimestamp = entry.Timestamp
	}
	s.LastTimestamp = entry.Timestamp
}
