package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	"claims_portal_backend/internal/assignment"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// effectiveAssigned is today's counter: a row still stamped with an earlier
// capacity day counts as zero. $1 is always today's date.
const effectiveAssigned = `(CASE WHEN capacity_day = $1::date THEN assigned_today ELSE 0 END)`

const (
	capacitySnapshotQuery = `
		SELECT id, max_daily_claims, ` + effectiveAssigned + `
		FROM agents`

	// Compare-and-increment: the row lock taken by UPDATE serializes
	// reservations with each other and with the daily reset.
	reserveCapacityQuery = `
		UPDATE agents
		SET assigned_today = ` + effectiveAssigned + ` + $3,
			capacity_day = $1::date,
			updated_at = now()
		WHERE id = $2
			AND is_active
			AND ` + effectiveAssigned + ` + $3 <= max_daily_claims`

	agentCapacityStateQuery = `SELECT is_active FROM agents WHERE id = $1`

	resetCapacityQuery = `
		UPDATE agents
		SET assigned_today = 0, capacity_day = $1::date, updated_at = now()
		WHERE capacity_day <> $1::date`
)

type execQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCapacity is the CapacityTracker backed by the agents table.
type PostgresCapacity struct {
	pool  *pgxpool.Pool
	clock assignment.Clock
	loc   *time.Location
}

var _ assignment.CapacityTracker = (*PostgresCapacity)(nil)

// NewPostgresCapacity creates a tracker whose calendar day is computed in loc.
func NewPostgresCapacity(pool *pgxpool.Pool, clock assignment.Clock, loc *time.Location) *PostgresCapacity {
	if clock == nil {
		clock = assignment.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PostgresCapacity{pool: pool, clock: clock, loc: loc}
}

func (p *PostgresCapacity) today() time.Time {
	return calendarDay(p.clock.Now(), p.loc)
}

// calendarDay is midnight UTC of t's date in loc, the value stored in capacity_day.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Snapshot returns every agent's remaining capacity for today.
func (p *PostgresCapacity) Snapshot(ctx context.Context) (assignment.Snapshot, error) {
	rows, err := p.pool.Query(ctx, capacitySnapshotQuery, p.today())
	if err != nil {
		return nil, fmt.Errorf("capacity snapshot: %w", err)
	}
	defer rows.Close()

	out := make(assignment.Snapshot)
	for rows.Next() {
		var (
			id                  uuid.UUID
			maxClaims, assigned int
		)
		if err := rows.Scan(&id, &maxClaims, &assigned); err != nil {
			return nil, fmt.Errorf("scan capacity: %w", err)
		}
		if assigned > maxClaims {
			return nil, &assignment.InvariantError{AgentID: id, AssignedToday: assigned, Max: maxClaims}
		}
		out[id] = maxClaims - assigned
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("capacity snapshot: %w", err)
	}
	return out, nil
}

// TryReserve increments the agent's counter by n iff it stays within the maximum.
func (p *PostgresCapacity) TryReserve(ctx context.Context, agentID uuid.UUID, n int) (bool, error) {
	err := reserve(ctx, p.pool, p.today(), agentID, n)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, assignment.ErrCapacityExhausted), errors.Is(err, assignment.ErrAgentInactive):
		return false, nil
	default:
		return false, err
	}
}

// ResetIfNewDay zeroes every counter stamped with an earlier day.
func (p *PostgresCapacity) ResetIfNewDay(ctx context.Context) (bool, error) {
	tag, err := p.pool.Exec(ctx, resetCapacityQuery, p.today())
	if err != nil {
		return false, fmt.Errorf("reset capacity: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// reserve runs the compare-and-increment on q and explains a refusal.
func reserve(ctx context.Context, q execQuerier, today time.Time, agentID uuid.UUID, n int) error {
	if n < 1 {
		return fmt.Errorf("reserve %d slots: count must be positive", n)
	}

	tag, err := q.Exec(ctx, reserveCapacityQuery, today, agentID, n)
	if err != nil {
		return fmt.Errorf("reserve capacity: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var active bool
	if err := q.QueryRow(ctx, agentCapacityStateQuery, agentID).Scan(&active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return assignment.ErrAgentNotFound
		}
		return fmt.Errorf("load agent capacity state: %w", err)
	}
	if !active {
		return assignment.ErrAgentInactive
	}
	return assignment.ErrCapacityExhausted
}
