package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"claims_portal_backend/platform/apperr"
)

const ruleNotFoundMessage = "rule not found"

const ruleColumns = `id, criteria_type, criteria_value, strategy, priority, created_at, updated_at`

const (
	getRuleQuery   = `SELECT ` + ruleColumns + ` FROM assignment_rules WHERE id = $1`
	listRulesQuery = `SELECT ` + ruleColumns + ` FROM assignment_rules ORDER BY priority DESC, created_at ASC, id ASC`

	insertRuleQuery = `
		INSERT INTO assignment_rules (criteria_type, criteria_value, strategy, priority)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + ruleColumns

	updateRuleQuery = `
		UPDATE assignment_rules
		SET criteria_type = $2, criteria_value = $3, strategy = $4, priority = $5, updated_at = now()
		WHERE id = $1
		RETURNING ` + ruleColumns

	deleteRuleQuery = `DELETE FROM assignment_rules WHERE id = $1`
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new rules repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetByID retrieves a rule by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Rule, error) {
	rule, err := scanRule(r.pool.QueryRow(ctx, getRuleQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rule{}, apperr.NotFound(ruleNotFoundMessage)
		}
		return Rule{}, fmt.Errorf("get rule by id: %w", err)
	}
	return rule, nil
}

// List retrieves all rules in evaluation order.
func (r *Repo) List(ctx context.Context) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, listRulesQuery)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	rules := make([]Rule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return rules, nil
}

// Create inserts a rule.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Rule, error) {
	rule, err := scanRule(r.pool.QueryRow(ctx, insertRuleQuery,
		params.CriteriaType, params.CriteriaValue, params.Strategy, params.Priority,
	))
	if err != nil {
		return Rule{}, fmt.Errorf("create rule: %w", err)
	}
	return rule, nil
}

// Update replaces a rule's criteria, strategy and priority.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Rule, error) {
	rule, err := scanRule(r.pool.QueryRow(ctx, updateRuleQuery,
		params.ID, params.CriteriaType, params.CriteriaValue, params.Strategy, params.Priority,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Rule{}, apperr.NotFound(ruleNotFoundMessage)
		}
		return Rule{}, fmt.Errorf("update rule: %w", err)
	}
	return rule, nil
}

// Delete removes a rule.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, deleteRuleQuery, id)
	if err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(ruleNotFoundMessage)
	}
	return nil
}

func scanRule(row pgx.Row) (Rule, error) {
	var rule Rule
	err := row.Scan(&rule.ID, &rule.CriteriaType, &rule.CriteriaValue, &rule.Strategy, &rule.Priority, &rule.CreatedAt, &rule.UpdatedAt)
	return rule, err
}
