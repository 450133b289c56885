package approval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// validID matches alphanumeric, dash, underscore, and dot characters only.
var validID = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// validateID rejects ids that could cause path traversal.
func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("id must not be empty")
	}
	if strings.Contains(id, "..") {
		return fmt.Errorf("id must not contain '..'")
	}
	if !validID.MatchString(id) {
		return fmt.Errorf("id contains invalid characters")
	}
	return nil
}

// Store persists approval requests as one JSON file per request.
// Writes are atomic (write temp file, rename). The Queue serializes
// access; Store itself does no locking.
type Store struct {
	dir string
}

// NewStore creates a Store backed by the given directory.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("approval: create store directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// DefaultDir returns the default approval store directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "warden-approvals")
	}
	return filepath.Join(home, ".warden", "approvals")
}

// Put writes a request to disk atomically.
func (s *Store) Put(r *Request) error {
	if err := validateID(r.ID); err != nil {
		return fmt.Errorf("approval: invalid request id: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("approval: marshal request: %w", err)
	}
	path := s.path(r.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("approval: write request: %w", err)
	}
	return os.Rename(tmp, path)
}

// Get reads one request by id.
func (s *Store) Get(id string) (*Request, error) {
	if err := validateID(id); err != nil {
		return nil, fmt.Errorf("approval: invalid request id: %w", err)
	}
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, err
	}
	var r Request
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("approval: parse request %s: %w", id, err)
	}
	return &r, nil
}

// LoadAll reads every request in the store. Unparseable files are
// skipped rather than failing the whole load.
func (s *Store) LoadAll() ([]*Request, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("approval: read store directory: %w", err)
	}

	var requests []*Request
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		id := strings.TrimSuffix(e.Name(), ".json")
		r, err := s.Get(id)
		if err != nil {
			continue
		}
		requests = append(requests, r)
	}
	return requests, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}
