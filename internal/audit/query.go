package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Tail returns the last n entries, newest last. When entryType is
// non-empty, only entries of that type count toward n.
func Tail(path string, n int, entryType EntryType) ([]Entry, error) {
	entries, err := readAll(path)
	if err != nil {
		return nil, err
	}

	if entryType != "" {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Type == entryType {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	if n > 0 && len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// CountByType returns entry counts per type for the whole log.
func CountByType(path string) (map[EntryType]int, error) {
	entries, err := readAll(path)
	if err != nil {
		return nil, err
	}
	counts := make(map[EntryType]int)
	for _, e := range entries {
		counts[e.Type]++
	}
	return counts, nil
}

// Archive copies entries older than cutoff to a dated archive file next
// to the log. The active chain is never truncated or rewritten; archival
// is external retention only, and the chain stays verifiable from genesis.
func Archive(path string, cutoff time.Time) (string, int, error) {
	entries, err := readAll(path)
	if err != nil {
		return "", 0, err
	}

	var old []Entry
	for _, e := range entries {
		ts, err := time.Parse(TimestampFormat, e.Timestamp)
		if err != nil {
			continue
		}
		if ts.Before(cutoff) {
			old = append(old, e)
		}
	}
	if len(old) == 0 {
		return "", 0, nil
	}

	archivePath := filepath.Join(filepath.Dir(path),
		fmt.Sprintf("audit-archive-%s.jsonl", cutoff.UTC().Format("2006-01-02")))
	f, err := os.OpenFile(archivePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return "", 0, fmt.Errorf("audit: open archive: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, e := range old {
		line, err := json.Marshal(e)
		if err != nil {
			return "", 0, fmt.Errorf("audit: marshal archive entry: %w", err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return "", 0, fmt.Errorf("audit: write archive: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return "", 0, fmt.Errorf("audit: flush archive: %w", err)
	}
	return archivePath, len(old), nil
}

func readAll(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("audit: open log: %w", err)
	}
	defer f.Close()

	var entries []Entry
	r := bufio.NewReader(f)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		var e Entry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("audit: parse entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("audit: scan log: %w", err)
	}
	return entries, nil
}
