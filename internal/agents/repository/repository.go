package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"claims_portal_backend/platform/apperr"
)

const (
	agentNotFoundMessage = "agent not found"

	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

const agentSelect = `
	SELECT a.id, a.name, a.username, a.role, a.seniority, a.max_daily_claims, a.assigned_today,
		a.capacity_day, a.default_strategy, a.is_active, a.created_at, a.updated_at,
		COALESCE(array_agg(s.id::text ORDER BY s.name) FILTER (WHERE s.id IS NOT NULL), '{}') AS skill_ids,
		COALESCE(array_agg(s.name ORDER BY s.name) FILTER (WHERE s.id IS NOT NULL), '{}') AS skill_names
	FROM agents a
	LEFT JOIN agent_skills ak ON ak.agent_id = a.id
	LEFT JOIN skills s ON s.id = ak.skill_id`

const (
	getAgentQuery   = agentSelect + ` WHERE a.id = $1 GROUP BY a.id`
	listAgentsQuery = agentSelect + ` GROUP BY a.id ORDER BY a.name ASC, a.id ASC`

	insertAgentQuery = `
		INSERT INTO agents (name, username, role, seniority, max_daily_claims, default_strategy)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	// A counter stamped with an earlier capacity day ($6) is rolled over first,
	// so the agents_capacity_within_max check only sees today's count.
	updateAgentQuery = `
		UPDATE agents
		SET role = $2, seniority = $3, max_daily_claims = $4, default_strategy = $5,
			assigned_today = CASE WHEN capacity_day = $6::date THEN assigned_today ELSE 0 END,
			capacity_day = $6::date,
			updated_at = now()
		WHERE id = $1`

	setActiveQuery = `UPDATE agents SET is_active = $2, updated_at = now() WHERE id = $1`

	deleteAgentSkillsQuery = `DELETE FROM agent_skills WHERE agent_id = $1`
	insertAgentSkillsQuery = `
		INSERT INTO agent_skills (agent_id, skill_id)
		SELECT $1, unnest($2::text[])::uuid
		ON CONFLICT DO NOTHING`

	listSkillsQuery  = `SELECT id, name, created_at FROM skills ORDER BY name ASC`
	insertSkillQuery = `INSERT INTO skills (name) VALUES ($1) RETURNING id, name, created_at`
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new agents repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves an agent with its skills.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Agent, error) {
	agent, err := scanAgent(r.pool.QueryRow(ctx, getAgentQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agent{}, apperr.NotFound(agentNotFoundMessage)
		}
		return Agent{}, fmt.Errorf("get agent by id: %w", err)
	}
	return agent, nil
}

// List retrieves all agents ordered by name.
func (r *Repo) List(ctx context.Context) ([]Agent, error) {
	rows, err := r.pool.Query(ctx, listAgentsQuery)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	agents := make([]Agent, 0)
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}
	return agents, nil
}

// Create inserts an agent and its skills in one transaction.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Agent, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Agent{}, fmt.Errorf("begin create agent: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id uuid.UUID
	err = tx.QueryRow(ctx, insertAgentQuery,
		params.Name, params.Username, params.Role, params.Seniority, params.MaxDailyClaims, params.DefaultStrategy,
	).Scan(&id)
	if err != nil {
		return Agent{}, mapWriteError("create agent", "username already exists", err)
	}

	if err := replaceSkills(ctx, tx, id, params.SkillIDs); err != nil {
		return Agent{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Agent{}, fmt.Errorf("commit create agent: %w", err)
	}

	return r.GetByID(ctx, id)
}

// Update replaces an agent's assignment profile and skill set.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Agent, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Agent{}, fmt.Errorf("begin update agent: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, updateAgentQuery,
		params.ID, params.Role, params.Seniority, params.MaxDailyClaims, params.DefaultStrategy, params.CapacityDay,
	)
	if err != nil {
		return Agent{}, mapWriteError("update agent", "agent already exists", err)
	}
	if tag.RowsAffected() == 0 {
		return Agent{}, apperr.NotFound(agentNotFoundMessage)
	}

	if err := replaceSkills(ctx, tx, params.ID, params.SkillIDs); err != nil {
		return Agent{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Agent{}, fmt.Errorf("commit update agent: %w", err)
	}

	return r.GetByID(ctx, params.ID)
}

// SetActive sets the is_active flag for an agent.
func (r *Repo) SetActive(ctx context.Context, id uuid.UUID, isActive bool) error {
	tag, err := r.pool.Exec(ctx, setActiveQuery, id, isActive)
	if err != nil {
		return fmt.Errorf("set agent active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(agentNotFoundMessage)
	}
	return nil
}

// ListSkills retrieves the skill catalogue ordered by name.
func (r *Repo) ListSkills(ctx context.Context) ([]Skill, error) {
	rows, err := r.pool.Query(ctx, listSkillsQuery)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	skills := make([]Skill, 0)
	for rows.Next() {
		var s Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		skills = append(skills, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skills: %w", err)
	}
	return skills, nil
}

// CreateSkill adds a skill to the catalogue.
func (r *Repo) CreateSkill(ctx context.Context, name string) (Skill, error) {
	var s Skill
	if err := r.pool.QueryRow(ctx, insertSkillQuery, name).Scan(&s.ID, &s.Name, &s.CreatedAt); err != nil {
		return Skill{}, mapWriteError("create skill", "skill already exists", err)
	}
	return s, nil
}

func replaceSkills(ctx context.Context, tx pgx.Tx, agentID uuid.UUID, skillIDs []uuid.UUID) error {
	if _, err := tx.Exec(ctx, deleteAgentSkillsQuery, agentID); err != nil {
		return fmt.Errorf("clear agent skills: %w", err)
	}
	if len(skillIDs) == 0 {
		return nil
	}
	if _, err := tx.Exec(ctx, insertAgentSkillsQuery, agentID, uuidStrings(skillIDs)); err != nil {
		return mapWriteError("insert agent skills", "skill already assigned", err)
	}
	return nil
}

func mapWriteError(op, conflictMessage string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperr.Conflict(conflictMessage).WithOp(op)
		case pgForeignKeyViolation:
			return apperr.Validation("unknown skill").WithOp(op)
		case pgCheckViolation:
			return apperr.Conflict("max daily claims is below claims already assigned today").WithOp(op)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanAgent(row pgx.Row) (Agent, error) {
	var (
		a          Agent
		skillIDs   []string
		skillNames []string
	)
	err := row.Scan(
		&a.ID, &a.Name, &a.Username, &a.Role, &a.Seniority, &a.MaxDailyClaims, &a.AssignedToday,
		&a.CapacityDay, &a.DefaultStrategy, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
		&skillIDs, &skillNames,
	)
	if err != nil {
		return Agent{}, err
	}

	a.Skills = make([]Skill, 0, len(skillIDs))
	for i, raw := range skillIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return Agent{}, fmt.Errorf("parse skill id: %w", err)
		}
		a.Skills = append(a.Skills, Skill{ID: id, Name: skillNames[i]})
	}
	return a, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
