package notify

import (
	"sync"
	"time"
)

// DefaultRatePerMinute caps outbound notifications when no rate is
// configured.
const DefaultRatePerMinute = 10

// RateLimited wraps an emitter with a per-minute cap. Events over the
// cap are dropped, not queued; a notification storm must not build a
// backlog, and a dropped notification never affects the decision or the
// audit trail, which stay authoritative.
type RateLimited struct {
	inner       Emitter
	maxPerMin   int
	mu          sync.Mutex
	windowStart time.Time
	sent        int
	dropped     int
	now         func() time.Time
}

// NewRateLimited wraps inner with a cap of maxPerMin events per minute.
func NewRateLimited(inner Emitter, maxPerMin int) *RateLimited {
	if maxPerMin <= 0 {
		maxPerMin = DefaultRatePerMinute
	}
	return &RateLimited{
		inner:     inner,
		maxPerMin: maxPerMin,
		now:       time.Now,
	}
}

func (r *RateLimited) Emit(event Event) {
	if !r.allow() {
		return
	}
	r.inner.Emit(event)
}

func (r *RateLimited) allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.windowStart) >= time.Minute {
		r.windowStart = now
		r.sent = 0
	}
	if r.sent >= r.maxPerMin {
		r.dropped++
		return false
	}
	r.sent++
	return true
}

// Dropped returns how many events have been dropped since startup.
func (r *RateLimited) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
