// Package adapters contains adapters that bridge different bounded contexts
// and back the assignment engine's ports with Postgres and Redis.
package adapters

import (
	"context"
	"fmt"
	"time"

	agentsrepo "claims_portal_backend/internal/agents/repository"
	"claims_portal_backend/internal/assignment"
)

// AgentRoster adapts the agents repository to the claims domain's AgentRoster port.
type AgentRoster struct {
	agents agentsrepo.AgentReader
	clock  assignment.Clock
	loc    *time.Location
}

// NewAgentRoster creates a roster over the agents repository. Counters recorded
// for an earlier capacity day are reported as zero.
func NewAgentRoster(agents agentsrepo.AgentReader, clock assignment.Clock, loc *time.Location) *AgentRoster {
	if clock == nil {
		clock = assignment.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AgentRoster{agents: agents, clock: clock, loc: loc}
}

// AssignmentAgents returns every agent in the engine's form.
func (r *AgentRoster) AssignmentAgents(ctx context.Context) ([]assignment.Agent, error) {
	stored, err := r.agents.List(ctx)
	if err != nil {
		return nil, err
	}

	today := assignment.DayKey(r.clock.Now(), r.loc)
	out := make([]assignment.Agent, 0, len(stored))
	for _, a := range stored {
		agent, err := toAssignmentAgent(a, today)
		if err != nil {
			return nil, err
		}
		out = append(out, agent)
	}
	return out, nil
}

func toAssignmentAgent(a agentsrepo.Agent, today string) (assignment.Agent, error) {
	strategy, err := assignment.ParseStrategy(a.DefaultStrategy)
	if err != nil {
		return assignment.Agent{}, fmt.Errorf("agent %s: %w", a.ID, err)
	}

	skills := make([]string, 0, len(a.Skills))
	for _, s := range a.Skills {
		skills = append(skills, s.Name)
	}

	assigned := a.AssignedToday
	if a.CapacityDay.Format(time.DateOnly) != today {
		assigned = 0
	}

	return assignment.Agent{
		ID:              a.ID,
		Name:            a.Name,
		Role:            assignment.Role(a.Role),
		Skills:          skills,
		Seniority:       a.Seniority,
		MaxDailyClaims:  a.MaxDailyClaims,
		AssignedToday:   assigned,
		DefaultStrategy: strategy,
		Active:          a.IsActive,
	}, nil
}
