package audit

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a TraceResult as a human-readable text timeline.
func FormatTimeline(result *TraceResult) string {
	if len(result.Entries) == 0 {
		return fmt.Sprintf("Action: %s | No entries found.\n", result.ActionID)
	}

	var b strings.Builder

	first := formatDateRange(result.Summary.FirstTimestamp)
	last := formatTimeOnly(result.Summary.LastTimestamp)
	b.WriteString(fmt.Sprintf("Action: %s | %s–%s UTC\n", result.ActionID, first, last))
	b.WriteString(separator + "\n")

	for _, e := range result.Entries {
		ts := formatTimeOnly(e.Timestamp)
		typ := truncate(string(e.Type), 18)
		outcome := strings.ToUpper(e.Outcome)
		reason := truncate(e.Reason, 44)

		b.WriteString(fmt.Sprintf("%-10s #%-5d %-18s %-15s %s\n",
			ts, e.Seq, typ, outcome, reason))
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))

	return b.String()
}

// FormatJSON renders a TraceResult as indented JSON.
func FormatJSON(result *TraceResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("audit: marshal trace result: %w", err)
	}
	return string(data), nil
}

func formatDateRange(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func formatSummary(s TraceSummary) string {
	parts := []string{}
	if s.AutoExecuted > 0 {
		parts = append(parts, fmt.Sprintf("%d auto-execute", s.AutoExecuted))
	}
	if s.Queued > 0 {
		parts = append(parts, fmt.Sprintf("%d queued", s.Queued))
	}
	if s.Escalated > 0 {
		parts = append(parts, fmt.Sprintf("%d escalated", s.Escalated))
	}
	if s.Rejected > 0 {
		parts = append(parts, fmt.Sprintf("%d rejected", s.Rejected))
	}
	if s.Executed > 0 {
		parts = append(parts, fmt.Sprintf("%d executed", s.Executed))
	}
	if s.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", s.Failed))
	}
	if s.RolledBack > 0 {
		parts = append(parts, fmt.Sprintf("%d rolled back", s.RolledBack))
	}
	if s.Expired > 0 {
		parts = append(parts, fmt.Sprintf("%d expired", s.Expired))
	}
	if len(parts) == 0 {
		parts = append(parts, "no terminal state")
	}

	return fmt.Sprintf("Summary: %s | Max risk score: %d\n",
		strings.Join(parts, ", "), s.MaxScore)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
