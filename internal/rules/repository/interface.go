package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Rule is a persisted assignment rule.
type Rule struct {
	ID            uuid.UUID
	CriteriaType  string
	CriteriaValue string
	Strategy      string
	Priority      int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateParams contains parameters for creating a rule.
type CreateParams struct {
	CriteriaType  string
	CriteriaValue string
	Strategy      string
	Priority      int
}

// UpdateParams contains parameters for replacing a rule.
type UpdateParams struct {
	ID            uuid.UUID
	CriteriaType  string
	CriteriaValue string
	Strategy      string
	Priority      int
}

// Repository provides rule persistence.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (Rule, error)
	// List returns rules in evaluation order: priority descending, then creation order.
	List(ctx context.Context) ([]Rule, error)
	Create(ctx context.Context, params CreateParams) (Rule, error)
	Update(ctx context.Context, params UpdateParams) (Rule, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
