package assignment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Snapshot maps an agent to its remaining capacity for the current day.
type Snapshot map[uuid.UUID]int

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for id, remaining := range s {
		out[id] = remaining
	}
	return out
}

// CapacityTracker owns every agent's daily assignment budget.
//
// TryReserve is the only mutator of an agent's assigned counter. ResetIfNewDay
// must never interleave with a reservation.
type CapacityTracker interface {
	Snapshot(ctx context.Context) (Snapshot, error)
	TryReserve(ctx context.Context, agentID uuid.UUID, n int) (bool, error)
	ResetIfNewDay(ctx context.Context) (bool, error)
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }

// DayKey formats the calendar day of t in loc.
func DayKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.DateOnly)
}

type counter struct {
	max      int
	assigned int
}

// MemoryTracker is an in-process CapacityTracker guarded by a single mutex.
type MemoryTracker struct {
	mu       sync.Mutex
	counters map[uuid.UUID]*counter
	clock    Clock
	loc      *time.Location
	day      string
}

var _ CapacityTracker = (*MemoryTracker)(nil)

// NewMemoryTracker creates a tracker whose day boundary is computed in loc.
func NewMemoryTracker(clock Clock, loc *time.Location) *MemoryTracker {
	if clock == nil {
		clock = SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &MemoryTracker{
		counters: make(map[uuid.UUID]*counter),
		clock:    clock,
		loc:      loc,
		day:      DayKey(clock.Now(), loc),
	}
}

// Track registers or refreshes an agent's maximum. The assigned counter is
// seeded from the agent only the first time it is seen.
func (t *MemoryTracker) Track(agent Agent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if c, ok := t.counters[agent.ID]; ok {
		c.max = agent.MaxDailyClaims
		return
	}
	assigned := agent.AssignedToday
	if assigned < 0 {
		assigned = 0
	}
	t.counters[agent.ID] = &counter{max: agent.MaxDailyClaims, assigned: assigned}
}

// Assigned returns the current assigned counter of an agent.
func (t *MemoryTracker) Assigned(agentID uuid.UUID) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.counters[agentID]
	if !ok {
		return 0, false
	}
	return c.assigned, true
}

// Snapshot returns the remaining capacity of every tracked agent.
func (t *MemoryTracker) Snapshot(_ context.Context) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(Snapshot, len(t.counters))
	for id, c := range t.counters {
		if c.assigned > c.max {
			return nil, &InvariantError{AgentID: id, AssignedToday: c.assigned, Max: c.max}
		}
		out[id] = c.max - c.assigned
	}
	return out, nil
}

// TryReserve increments the agent's counter by n iff the result stays within its maximum.
func (t *MemoryTracker) TryReserve(_ context.Context, agentID uuid.UUID, n int) (bool, error) {
	if n < 1 {
		return false, fmt.Errorf("reserve %d slots: count must be positive", n)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.counters[agentID]
	if !ok {
		return false, ErrAgentNotFound
	}
	if c.assigned+n > c.max {
		return false, nil
	}
	c.assigned += n
	return true, nil
}

// ResetIfNewDay zeroes every counter when the clock has crossed into a new day.
func (t *MemoryTracker) ResetIfNewDay(_ context.Context) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	today := DayKey(t.clock.Now(), t.loc)
	if today == t.day {
		return false, nil
	}
	for _, c := range t.counters {
		c.assigned = 0
	}
	t.day = today
	return true, nil
}
