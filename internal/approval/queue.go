package approval

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/avrelio/warden/internal/model"
)

// ErrQueueFull is returned when the pending queue is at capacity.
// The producer should back off; nothing is recorded.
var ErrQueueFull = fmt.Errorf("approval: queue full")

// ErrNotFound is returned for an unknown request id.
var ErrNotFound = fmt.Errorf("approval: request not found")

// Filter selects pending requests for batch operations. Zero values
// match everything; set fields narrow the match.
type Filter struct {
	MaxLevel model.RiskLevel // requests at or below this risk level
	Category model.Category  // requests from this category only
	SafeOnly bool            // shorthand for safe and low risk
}

func (f Filter) matches(r *Request) bool {
	level := r.Decision.Assessment.Level
	if f.SafeOnly && level != model.RiskSafe && level != model.RiskLow {
		return false
	}
	if f.MaxLevel != "" && model.RiskRank[level] > model.RiskRank[f.MaxLevel] {
		return false
	}
	if f.Category != "" && r.Action.Category != f.Category {
		return false
	}
	return true
}

// Queue is the in-memory priority view over the file-backed store.
// All operations are serialized; resolve operations are idempotent:
// the first transition wins and later calls report the existing state.
type Queue struct {
	mu         sync.Mutex
	store      *Store // nil means memory-only (tests)
	byID       map[string]*Request
	maxPending int
}

// NewQueue creates a Queue, loading any persisted requests from store.
func NewQueue(store *Store, maxPending int) (*Queue, error) {
	q := &Queue{
		store:      store,
		byID:       make(map[string]*Request),
		maxPending: maxPending,
	}
	if store != nil {
		requests, err := store.LoadAll()
		if err != nil {
			return nil, err
		}
		for _, r := range requests {
			q.byID[r.ID] = r
		}
	}
	return q, nil
}

// Enqueue adds a pending request. Fails with ErrQueueFull at capacity.
func (q *Queue) Enqueue(r *Request) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.maxPending > 0 && q.pendingCountLocked() >= q.maxPending {
		return ErrQueueFull
	}
	if _, exists := q.byID[r.ID]; exists {
		return fmt.Errorf("approval: duplicate request id %s", r.ID)
	}
	q.byID[r.ID] = r
	return q.persistLocked(r)
}

// Get returns a request by id.
func (q *Queue) Get(id string) (*Request, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	r, ok := q.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r, nil
}

// Pending returns pending requests ordered critical→high→medium→low,
// ties broken by creation time (FIFO). Overdue requests are expired
// before the view is built, so a stale request is never presented.
func (q *Queue) Pending(now time.Time) []*Request {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.sweepLocked(now)

	var pending []*Request
	for _, r := range q.byID {
		if r.Status == StatusPending {
			pending = append(pending, r)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].Priority != pending[j].Priority {
			return pending[i].Priority > pending[j].Priority
		}
		if !pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].CreatedAt.Before(pending[j].CreatedAt)
		}
		return pending[i].ID < pending[j].ID
	})
	return pending
}

// Approve transitions a pending request to approved. Returns the request
// and whether this call performed the transition; resolving an already
// resolved request is a no-op reporting its current state.
func (q *Queue) Approve(id, feedback string, now time.Time) (*Request, bool, error) {
	return q.resolve(id, StatusApproved, feedback, now)
}

// Reject transitions a pending request to rejected with a reason.
func (q *Queue) Reject(id, reason string, now time.Time) (*Request, bool, error) {
	return q.resolve(id, StatusRejected, reason, now)
}

func (q *Queue) resolve(id string, target Status, note string, now time.Time) (*Request, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	r, ok := q.byID[id]
	if !ok {
		return nil, false, ErrNotFound
	}

	// Expiry beats a late human decision.
	q.expireIfOverdueLocked(r, now)

	if r.Status.Terminal() {
		return r, false, nil
	}

	r.Status = target
	resolved := now
	r.ResolvedAt = &resolved
	switch target {
	case StatusApproved:
		r.Feedback = note
	case StatusRejected:
		r.Reason = note
	}
	return r, true, q.persistLocked(r)
}

// BatchApprove approves every pending request matching the filter and
// returns the requests transitioned by this call.
func (q *Queue) BatchApprove(f Filter, feedback string, now time.Time) ([]*Request, error) {
	// Snapshot ids first; resolve re-locks per request.
	var ids []string
	for _, r := range q.Pending(now) {
		if f.matches(r) {
			ids = append(ids, r.ID)
		}
	}

	var approved []*Request
	for _, id := range ids {
		r, changed, err := q.Approve(id, feedback, now)
		if err != nil {
			return approved, err
		}
		if changed {
			approved = append(approved, r)
		}
	}
	return approved, nil
}

// Sweep expires every pending request whose deadline has passed and
// returns the requests expired by this call. Expiry is terminal and
// non-executing: it records "no human ever looked at this", distinct
// from a rejection.
func (q *Queue) Sweep(now time.Time) []*Request {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sweepLocked(now)
}

// Counts returns the number of requests per status.
func (q *Queue) Counts() map[Status]int {
	q.mu.Lock()
	defer q.mu.Unlock()
	counts := make(map[Status]int)
	for _, r := range q.byID {
		counts[r.Status]++
	}
	return counts
}

func (q *Queue) sweepLocked(now time.Time) []*Request {
	var expired []*Request
	for _, r := range q.byID {
		if q.expireIfOverdueLocked(r, now) {
			expired = append(expired, r)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].CreatedAt.Before(expired[j].CreatedAt) })
	return expired
}

func (q *Queue) expireIfOverdueLocked(r *Request, now time.Time) bool {
	if r.Status != StatusPending || now.Before(r.ExpiresAt) {
		return false
	}
	r.Status = StatusExpired
	resolved := now
	r.ResolvedAt = &resolved
	// Best effort: an unpersisted expiry re-expires on next load.
	_ = q.persistLocked(r)
	return true
}

func (q *Queue) pendingCountLocked() int {
	n := 0
	for _, r := range q.byID {
		if r.Status == StatusPending {
			n++
		}
	}
	return n
}

func (q *Queue) persistLocked(r *Request) error {
	if q.store == nil {
		return nil
	}
	return q.store.Put(r)
}
