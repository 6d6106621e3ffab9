package assignment

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryState is an in-process LiveState backed by a MemoryTracker. Commits
// are serialized by one mutex so reservation and assignment happen together.
type MemoryState struct {
	mu      sync.Mutex
	tracker *MemoryTracker
	agents  map[uuid.UUID]Agent
	claims  map[string]*Claim
}

var _ LiveState = (*MemoryState)(nil)

// NewMemoryState creates an empty state using tracker for capacity.
func NewMemoryState(tracker *MemoryTracker) *MemoryState {
	return &MemoryState{
		tracker: tracker,
		agents:  make(map[uuid.UUID]Agent),
		claims:  make(map[string]*Claim),
	}
}

// PutAgent inserts or replaces an agent and registers it with the tracker.
func (s *MemoryState) PutAgent(agent Agent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[agent.ID] = agent
	s.tracker.Track(agent)
}

// PutClaim inserts or replaces a claim.
func (s *MemoryState) PutClaim(claim Claim) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := claim
	s.claims[claim.ClaimID] = &c
}

// Agents returns every agent with its live assigned counter.
func (s *MemoryState) Agents() []Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Agent, 0, len(s.agents))
	for _, agent := range s.agents {
		if assigned, ok := s.tracker.Assigned(agent.ID); ok {
			agent.AssignedToday = assigned
		}
		out = append(out, agent)
	}
	return out
}

// Agent returns the agent with id.
func (s *MemoryState) Agent(_ context.Context, id uuid.UUID) (Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agent, ok := s.agents[id]
	if !ok {
		return Agent{}, ErrAgentNotFound
	}
	if assigned, ok := s.tracker.Assigned(id); ok {
		agent.AssignedToday = assigned
	}
	return agent, nil
}

// Claim returns a copy of the claim with claimID.
func (s *MemoryState) Claim(_ context.Context, claimID string) (Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[claimID]
	if !ok {
		return Claim{}, ErrClaimNotFound
	}
	return *claim, nil
}

// Commit reserves capacity and assigns the claim.
func (s *MemoryState) Commit(ctx context.Context, claimID string, agentID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	claim, ok := s.claims[claimID]
	if !ok {
		return ErrClaimNotFound
	}
	if claim.AssigneeID != nil {
		return ErrClaimAlreadyAssigned
	}
	agent, ok := s.agents[agentID]
	if !ok {
		return ErrAgentNotFound
	}
	if !agent.Active {
		return ErrAgentInactive
	}
	if !agent.HasSkill(claim.RequiredSkill) {
		return ErrAgentLacksSkill
	}

	reserved, err := s.tracker.TryReserve(ctx, agentID, 1)
	if err != nil {
		return err
	}
	if !reserved {
		return ErrCapacityExhausted
	}

	id := agentID
	claim.AssigneeID = &id
	if claim.Status == StatusNew || claim.Status == "" {
		claim.Status = StatusAssigned
	}
	return nil
}
