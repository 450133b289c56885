package boundary

import (
	"sync"
	"time"

	"github.com/avrelio/warden/internal/model"
)

// Usage is a snapshot of one category's rolling consumption.
type Usage struct {
	DailySpend   float64   `json:"daily_spend"`
	WeeklySpend  float64   `json:"weekly_spend"`
	DailyPosts   int       `json:"daily_posts"`
	DailyActions int       `json:"daily_actions"`
	DayStart     time.Time `json:"day_start"`
	WeekStart    time.Time `json:"week_start"`
}

type categoryUsage struct {
	dailySpend   float64
	weeklySpend  float64
	dailyPosts   int
	dailyActions int
}

// State owns the per-category usage counters. All reads and writes go
// through one mutex so a scheduled reset can never interleave with an
// in-flight increment (atomic reset-or-increment).
//
// Counters only advance after a successful execution; routing an action
// never mutates State, which prevents double-counting on rejected or
// queued-then-rejected actions.
type State struct {
	mu        sync.Mutex
	usage     map[model.Category]*categoryUsage
	dayStart  time.Time
	weekStart time.Time
}

// NewState creates a State anchored at the windows containing now.
func NewState(now time.Time) *State {
	return &State{
		usage:     make(map[model.Category]*categoryUsage),
		dayStart:  DayStart(now),
		weekStart: WeekStart(now),
	}
}

// DayStart returns UTC midnight of the day containing t.
func DayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns UTC midnight of the Monday of the week containing t.
func WeekStart(t time.Time) time.Time {
	day := DayStart(t)
	// time.Weekday: Sunday == 0, Monday == 1.
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// rollLocked resets any counters whose window has passed. Callers hold mu.
func (s *State) rollLocked(now time.Time) {
	day := DayStart(now)
	if day.After(s.dayStart) {
		for _, u := range s.usage {
			u.dailySpend = 0
			u.dailyPosts = 0
			u.dailyActions = 0
		}
		s.dayStart = day
	}
	week := WeekStart(now)
	if week.After(s.weekStart) {
		for _, u := range s.usage {
			u.weeklySpend = 0
		}
		s.weekStart = week
	}
}

func (s *State) categoryLocked(c model.Category) *categoryUsage {
	u, ok := s.usage[c]
	if !ok {
		u = &categoryUsage{}
		s.usage[c] = u
	}
	return u
}

// Snapshot returns the current usage for a category, rolling stale
// windows first.
func (s *State) Snapshot(category model.Category, now time.Time) Usage {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollLocked(now)
	u := s.categoryLocked(category)
	return Usage{
		DailySpend:   u.dailySpend,
		WeeklySpend:  u.weeklySpend,
		DailyPosts:   u.dailyPosts,
		DailyActions: u.dailyActions,
		DayStart:     s.dayStart,
		WeekStart:    s.weekStart,
	}
}

// Commit records a successfully executed action against its category's
// counters. Called by the executor only after the handler succeeds.
func (s *State) Commit(a *model.Action, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollLocked(now)
	u := s.categoryLocked(a.Category)
	u.dailyActions++
	if v := a.Value(); v > 0 {
		u.dailySpend += v
		u.weeklySpend += v
	}
	if a.Category == model.CategoryContent {
		u.dailyPosts++
	}
}

// Reset is the explicit scheduled entry point for window rollover.
// Rolling is also performed lazily on every Snapshot/Commit, so Reset
// only makes the rollover prompt; it is never required for correctness.
func (s *State) Reset(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollLocked(now)
}

// All returns a snapshot of every known category's usage.
func (s *State) All(now time.Time) map[model.Category]Usage {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rollLocked(now)
	out := make(map[model.Category]Usage, len(s.usage))
	for c, u := range s.usage {
		out[c] = Usage{
			DailySpend:   u.dailySpend,
			WeeklySpend:  u.weeklySpend,
			DailyPosts:   u.dailyPosts,
			DailyActions: u.dailyActions,
			DayStart:     s.dayStart,
			WeekStart:    s.weekStart,
		}
	}
	return out
}
