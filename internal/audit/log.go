// Package audit implements the tamper-evident record of every engine
// transition: an append-only JSONL file where each entry embeds the
// SHA-256 of the previous line. Any retroactive edit invalidates every
// subsequent hash.
package audit

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GenesisHash is the prev_hash for the first entry in a new audit log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// Log is an append-only JSONL audit log with SHA-256 hash chaining.
// Appends are serialized and fsynced: a state transition is not complete
// until its entry is durably on disk.
type Log struct {
	path     string
	file     *os.File
	prevHash string
	seq      int
	mu       sync.Mutex
}

// Open opens (or creates) an audit log file for appending.
// If the file already exists, it scans to the last line to recover the
// chain tail and sequence number.
func Open(path string) (*Log, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	prevHash := GenesisHash
	seq := 0

	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("audit: read existing log: %w", err)
		}
		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
		var lastLine []byte
		for scanner.Scan() {
			lastLine = append(lastLine[:0], scanner.Bytes()...)
			seq++
		}
		f.Close()
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("audit: scan existing log: %w", err)
		}
		if len(lastLine) > 0 {
			prevHash = HashLine(lastLine)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}

	return &Log{
		path:     path,
		file:     file,
		prevHash: prevHash,
		seq:      seq,
	}, nil
}

const maxLineSize = 1 << 20

// Record appends an entry with hash chaining. It assigns ID, Seq,
// Timestamp (if empty) and PrevHash, marshals to one JSON line, writes
// and syncs. Returns the recorded entry.
func (l *Log) Record(entry Entry) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(TimestampFormat)
	}
	entry.Seq = l.seq + 1
	entry.PrevHash = l.prevHash

	line, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("audit: marshal entry: %w", err)
	}

	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return Entry{}, fmt.Errorf("audit: write entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return Entry{}, fmt.Errorf("audit: sync: %w", err)
	}

	l.seq = entry.Seq
	l.prevHash = HashLine(line)
	return entry, nil
}

// Path returns the log's file path.
func (l *Log) Path() string { return l.path }

// Seq returns the sequence number of the last recorded entry.
func (l *Log) Seq() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

// Close flushes and closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// HashLine returns "sha256:<hex>" of the given bytes.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}
