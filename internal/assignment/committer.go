package assignment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"claims_portal_backend/platform/logger"
)

// LiveState is the committer's view of current persisted state.
type LiveState interface {
	Agent(ctx context.Context, id uuid.UUID) (Agent, error)
	Claim(ctx context.Context, claimID string) (Claim, error)
	// Commit reserves one unit of the agent's capacity and assigns the claim
	// in a single atomic step. A NEW claim moves to StatusAssigned. The agent's
	// skills are checked again inside that step and a missing one is reported
	// as ErrAgentLacksSkill.
	Commit(ctx context.Context, claimID string, agentID uuid.UUID) error
}

const stalePrefix = "plan stale: "

// Committer applies previously validated plan entries against live state.
type Committer struct {
	state   LiveState
	cursors CursorStore
	log     *logger.Logger
}

// NewCommitter creates a committer. cursors may be nil.
func NewCommitter(state LiveState, cursors CursorStore) *Committer {
	return &Committer{state: state, cursors: cursors, log: logger.Discard()}
}

// SetLogger sets the logger for best-effort failures after a commit.
func (c *Committer) SetLogger(log *logger.Logger) {
	if log != nil {
		c.log = log
	}
}

// Execute commits each entry in order. Entries fail individually; a failure
// never rolls back an entry that was already committed. The only error
// returned is an InvariantError.
func (c *Committer) Execute(ctx context.Context, entries []PlanEntry) (ExecuteResult, error) {
	results := make([]CommitResult, 0, len(entries))
	for _, entry := range entries {
		result, err := c.commitOne(ctx, entry)
		if err != nil {
			return ExecuteResult{}, err
		}
		results = append(results, result)
	}

	out := ExecuteResult{PerClaim: results}
	out.Message = fmt.Sprintf("Committed %d of %d claims.", out.CommittedCount(), len(results))
	return out, nil
}

func (c *Committer) commitOne(ctx context.Context, entry PlanEntry) (CommitResult, error) {
	claimID := strings.TrimSpace(entry.ClaimID)
	result := CommitResult{ClaimID: claimID, AgentID: entry.AssignTo}

	agent, err := c.state.Agent(ctx, entry.AssignTo)
	if err != nil {
		result.Reason = staleReason(err)
		return result, nil
	}
	if !agent.Active {
		result.Reason = stalePrefix + "agent deactivated"
		return result, nil
	}

	claim, err := c.state.Claim(ctx, claimID)
	if err != nil {
		result.Reason = staleReason(err)
		return result, nil
	}
	if claim.AssigneeID != nil {
		result.Reason = stalePrefix + "claim already assigned"
		return result, nil
	}
	if !agent.HasSkill(claim.RequiredSkill) {
		result.Reason = stalePrefix + "agent lacks required skill " + claim.RequiredSkill
		return result, nil
	}

	if err := c.state.Commit(ctx, claimID, agent.ID); err != nil {
		if IsInvariantViolation(err) {
			return CommitResult{}, err
		}
		result.Reason = staleReason(err)
		return result, nil
	}

	result.Committed = true
	if entry.Strategy == StrategyPayer && c.cursors != nil {
		// The claim stays committed; the next payer claim restarts from a stale cursor.
		if err := c.cursors.Advance(ctx, claim.Payer, agent.ID); err != nil {
			c.log.Warn("failed to advance payer cursor", "claimId", claimID, "payer", claim.Payer, "agentId", agent.ID, "error", err)
		}
	}
	return result, nil
}

func staleReason(err error) string {
	switch {
	case errors.Is(err, ErrAgentNotFound):
		return stalePrefix + "agent no longer exists"
	case errors.Is(err, ErrAgentInactive):
		return stalePrefix + "agent deactivated"
	case errors.Is(err, ErrClaimNotFound):
		return stalePrefix + "claim not found"
	case errors.Is(err, ErrClaimAlreadyAssigned):
		return stalePrefix + "claim already assigned"
	case errors.Is(err, ErrCapacityExhausted):
		return stalePrefix + "agent at capacity"
	case errors.Is(err, ErrAgentLacksSkill):
		return stalePrefix + "agent lacks required skill"
	default:
		return "commit failed: " + err.Error()
	}
}
