package assignment

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Candidate is an eligible agent together with its remaining capacity in the
// snapshot the planner is working against.
type Candidate struct {
	Agent     Agent
	Remaining int
}

// Load is the number of claims the candidate already carries today.
func (c Candidate) Load() int {
	load := c.Agent.MaxDailyClaims - c.Remaining
	if load < 0 {
		return 0
	}
	return load
}

// CursorStore persists the per-payer round robin position: the last agent
// that received a claim for each payer.
type CursorStore interface {
	Cursors(ctx context.Context) (map[string]uuid.UUID, error)
	Advance(ctx context.Context, payer string, agentID uuid.UUID) error
}

// MemoryCursors is an in-process CursorStore.
type MemoryCursors struct {
	mu   sync.Mutex
	last map[string]uuid.UUID
}

var _ CursorStore = (*MemoryCursors)(nil)

// NewMemoryCursors creates an empty cursor store.
func NewMemoryCursors() *MemoryCursors {
	return &MemoryCursors{last: make(map[string]uuid.UUID)}
}

// Cursors returns a copy of every cursor.
func (m *MemoryCursors) Cursors(_ context.Context) (map[string]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uuid.UUID, len(m.last))
	for payer, id := range m.last {
		out[payer] = id
	}
	return out, nil
}

// Advance records agentID as the last agent to receive a claim for payer.
func (m *MemoryCursors) Advance(_ context.Context, payer string, agentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[payer] = agentID
	return nil
}

// StrategyResolver picks one agent from an eligible pool.
//
// It owns a working copy of the payer cursors; resolving a payer claim moves
// the local cursor so consecutive claims of the same payer fan out. The copy
// is never written back, which keeps planning free of side effects.
type StrategyResolver struct {
	cursors map[string]uuid.UUID
}

// NewStrategyResolver creates a resolver starting from the given cursors.
func NewStrategyResolver(cursors map[string]uuid.UUID) *StrategyResolver {
	local := make(map[string]uuid.UUID, len(cursors))
	for payer, id := range cursors {
		local[payer] = id
	}
	return &StrategyResolver{cursors: local}
}

// Resolve returns the agent that should receive claim under strategy.
func (r *StrategyResolver) Resolve(claim Claim, strategy Strategy, eligible []Candidate) (*Agent, bool) {
	if len(eligible) == 0 {
		return nil, false
	}

	var chosen Candidate
	switch strategy {
	case StrategyPayer:
		chosen = r.nextInRing(claim.Payer, eligible)
	case StrategyAge:
		chosen = leastLoaded(eligible)
	case StrategySeniority:
		chosen = mostSenior(eligible)
	default:
		return nil, false
	}

	agent := chosen.Agent
	return &agent, true
}

func (r *StrategyResolver) nextInRing(payer string, eligible []Candidate) Candidate {
	ring := make([]Candidate, len(eligible))
	copy(ring, eligible)
	sort.Slice(ring, func(i, j int) bool {
		return idLess(ring[i].Agent.ID, ring[j].Agent.ID)
	})

	chosen := ring[0]
	if last, ok := r.cursors[payer]; ok {
		for _, c := range ring {
			if idLess(last, c.Agent.ID) {
				chosen = c
				break
			}
		}
	}
	r.cursors[payer] = chosen.Agent.ID
	return chosen
}

func leastLoaded(eligible []Candidate) Candidate {
	best := eligible[0]
	for _, c := range eligible[1:] {
		if c.Load() < best.Load() || (c.Load() == best.Load() && idLess(c.Agent.ID, best.Agent.ID)) {
			best = c
		}
	}
	return best
}

func mostSenior(eligible []Candidate) Candidate {
	best := eligible[0]
	for _, c := range eligible[1:] {
		switch {
		case c.Agent.Seniority > best.Agent.Seniority:
			best = c
		case c.Agent.Seniority < best.Agent.Seniority:
		case c.Load() < best.Load():
			best = c
		case c.Load() == best.Load() && idLess(c.Agent.ID, best.Agent.ID):
			best = c
		}
	}
	return best
}

func idLess(a, b uuid.UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
