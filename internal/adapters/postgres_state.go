package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"claims_portal_backend/internal/assignment"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	liveAgentQuery = `
		SELECT a.id, a.name, a.role, a.seniority, a.max_daily_claims,
			(CASE WHEN a.capacity_day = $2::date THEN a.assigned_today ELSE 0 END),
			a.default_strategy, a.is_active,
			COALESCE(array_agg(s.name ORDER BY s.name) FILTER (WHERE s.id IS NOT NULL), '{}')
		FROM agents a
		LEFT JOIN agent_skills ak ON ak.agent_id = a.id
		LEFT JOIN skills s ON s.id = ak.skill_id
		WHERE a.id = $1
		GROUP BY a.id`

	liveClaimQuery = `
		SELECT claim_id, payer, amount_cents, date_of_service, status, COALESCE(required_skill, ''),
			cpt_codes, icd10_codes, assigned_to_id
		FROM claims
		WHERE claim_id = $1`

	// holdsRequiredSkill is true when agent $2 holds the claim's required skill.
	holdsRequiredSkill = `(COALESCE(c.required_skill, '') = '' OR EXISTS (
			SELECT 1 FROM agent_skills ak
			JOIN skills s ON s.id = ak.skill_id
			WHERE ak.agent_id = $2 AND s.name = c.required_skill))`

	assignClaimQuery = `
		UPDATE claims c
		SET assigned_to_id = $2,
			assigned_at = now(),
			status = CASE WHEN c.status = 'NEW' THEN 'Assigned' ELSE c.status END,
			updated_at = now()
		WHERE c.claim_id = $1 AND c.assigned_to_id IS NULL
			AND ` + holdsRequiredSkill

	claimAssigneeQuery = `SELECT c.assigned_to_id, ` + holdsRequiredSkill + ` FROM claims c WHERE c.claim_id = $1`
)

// PostgresState is the committer's LiveState over the agents and claims tables.
type PostgresState struct {
	pool  *pgxpool.Pool
	clock assignment.Clock
	loc   *time.Location
}

var _ assignment.LiveState = (*PostgresState)(nil)

// NewPostgresState creates the live state; clock and loc must match the capacity tracker's.
func NewPostgresState(pool *pgxpool.Pool, clock assignment.Clock, loc *time.Location) *PostgresState {
	if clock == nil {
		clock = assignment.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PostgresState{pool: pool, clock: clock, loc: loc}
}

// Agent loads the current agent record.
func (s *PostgresState) Agent(ctx context.Context, id uuid.UUID) (assignment.Agent, error) {
	var (
		a        assignment.Agent
		role     string
		strategy string
	)
	err := s.pool.QueryRow(ctx, liveAgentQuery, id, calendarDay(s.clock.Now(), s.loc)).Scan(
		&a.ID, &a.Name, &role, &a.Seniority, &a.MaxDailyClaims, &a.AssignedToday, &strategy, &a.Active, &a.Skills,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return assignment.Agent{}, assignment.ErrAgentNotFound
		}
		return assignment.Agent{}, fmt.Errorf("load agent: %w", err)
	}
	a.Role = assignment.Role(role)
	if a.DefaultStrategy, err = assignment.ParseStrategy(strategy); err != nil {
		return assignment.Agent{}, fmt.Errorf("agent %s: %w", id, err)
	}
	if a.AssignedToday > a.MaxDailyClaims {
		return assignment.Agent{}, &assignment.InvariantError{AgentID: a.ID, AssignedToday: a.AssignedToday, Max: a.MaxDailyClaims}
	}
	return a, nil
}

// Claim loads the current claim record by business id.
func (s *PostgresState) Claim(ctx context.Context, claimID string) (assignment.Claim, error) {
	var c assignment.Claim
	err := s.pool.QueryRow(ctx, liveClaimQuery, claimID).Scan(
		&c.ClaimID, &c.Payer, &c.Amount, &c.DateOfService, &c.Status, &c.RequiredSkill,
		&c.CPTCodes, &c.ICD10Codes, &c.AssigneeID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return assignment.Claim{}, assignment.ErrClaimNotFound
		}
		return assignment.Claim{}, fmt.Errorf("load claim: %w", err)
	}
	return c, nil
}

// Commit reserves one unit of the agent's capacity and assigns the claim in a
// single transaction. Either both happen or neither does.
//
// The reservation goes first: its row lock on the agent waits out a concurrent
// profile update, so the skill check in the assignment sees committed skills.
func (s *PostgresState) Commit(ctx context.Context, claimID string, agentID uuid.UUID) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := reserve(ctx, tx, calendarDay(s.clock.Now(), s.loc), agentID, 1); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, assignClaimQuery, claimID, agentID)
	if err != nil {
		return fmt.Errorf("assign claim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return explainAssignRefusal(ctx, tx, claimID, agentID)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit assignment: %w", err)
	}
	return nil
}

func explainAssignRefusal(ctx context.Context, tx pgx.Tx, claimID string, agentID uuid.UUID) error {
	var (
		assignee   *uuid.UUID
		holdsSkill bool
	)
	if err := tx.QueryRow(ctx, claimAssigneeQuery, claimID, agentID).Scan(&assignee, &holdsSkill); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return assignment.ErrClaimNotFound
		}
		return fmt.Errorf("load claim assignee: %w", err)
	}
	switch {
	case assignee != nil:
		return assignment.ErrClaimAlreadyAssigned
	case !holdsSkill:
		return assignment.ErrAgentLacksSkill
	default:
		return fmt.Errorf("assign claim %s: no row updated", claimID)
	}
}
