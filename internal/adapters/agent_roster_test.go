package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	agentsrepo "claims_portal_backend/internal/agents/repository"
	"claims_portal_backend/internal/assignment"

	"github.com/google/uuid"
)

type stubAgentReader struct {
	agentsrepo.AgentReader
	agents []agentsrepo.Agent
	err    error
}

func (s stubAgentReader) List(context.Context) ([]agentsrepo.Agent, error) {
	return s.agents, s.err
}

func TestAgentRosterZeroesStaleCounters(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)
	fresh := agentsrepo.Agent{
		ID: uuid.New(), Name: "Ana", Role: "Member", MaxDailyClaims: 5, AssignedToday: 3,
		CapacityDay: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), DefaultStrategy: "age", IsActive: true,
		Skills: []agentsrepo.Skill{{Name: "dental"}, {Name: "ortho"}},
	}
	stale := agentsrepo.Agent{
		ID: uuid.New(), Name: "Bo", Role: "Admin", MaxDailyClaims: 5, AssignedToday: 5,
		CapacityDay: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC), DefaultStrategy: "payer",
	}

	roster := NewAgentRoster(stubAgentReader{agents: []agentsrepo.Agent{fresh, stale}},
		assignment.ClockFunc(func() time.Time { return now }), time.UTC)

	got, err := roster.AssignmentAgents(context.Background())
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(got))
	}
	if got[0].AssignedToday != 3 || got[0].DefaultStrategy != assignment.StrategyAge || !got[0].HasSkill("ortho") {
		t.Fatalf("unexpected fresh agent %+v", got[0])
	}
	if got[1].AssignedToday != 0 || got[1].Role != assignment.RoleAdmin || got[1].Active {
		t.Fatalf("unexpected stale agent %+v", got[1])
	}
}

func TestAgentRosterRejectsUnknownStrategy(t *testing.T) {
	reader := stubAgentReader{agents: []agentsrepo.Agent{{ID: uuid.New(), DefaultStrategy: "random"}}}
	if _, err := NewAgentRoster(reader, nil, nil).AssignmentAgents(context.Background()); err == nil {
		t.Fatal("expected unknown strategy to fail")
	}
}

func TestAgentRosterPropagatesListError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewAgentRoster(stubAgentReader{err: boom}, nil, nil).AssignmentAgents(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected list error, got %v", err)
	}
}
