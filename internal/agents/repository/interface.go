package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Skill is a capability an agent may hold and a claim may require.
type Skill struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

// Agent is a persisted agent with its skills.
type Agent struct {
	ID              uuid.UUID
	Name            string
	Username        string
	Role            string
	Seniority       int
	MaxDailyClaims  int
	AssignedToday   int
	CapacityDay     time.Time
	DefaultStrategy string
	IsActive        bool
	Skills          []Skill
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateParams contains parameters for creating an agent.
type CreateParams struct {
	Name            string
	Username        string
	Role            string
	Seniority       int
	MaxDailyClaims  int
	DefaultStrategy string
	SkillIDs        []uuid.UUID
}

// UpdateParams contains parameters for updating an agent's assignment profile.
type UpdateParams struct {
	ID              uuid.UUID
	Role            string
	Seniority       int
	MaxDailyClaims  int
	DefaultStrategy string
	SkillIDs        []uuid.UUID

	// CapacityDay is today's date at midnight UTC. A counter stamped with
	// another day is reset to zero by the update.
	CapacityDay time.Time
}

// AgentReader provides read operations for agents.
type AgentReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Agent, error)
	List(ctx context.Context) ([]Agent, error)
}

// AgentWriter provides write operations for agents.
type AgentWriter interface {
	Create(ctx context.Context, params CreateParams) (Agent, error)
	Update(ctx context.Context, params UpdateParams) (Agent, error)
	SetActive(ctx context.Context, id uuid.UUID, isActive bool) error
}

// SkillStore provides operations on the skill catalogue.
type SkillStore interface {
	ListSkills(ctx context.Context) ([]Skill, error)
	CreateSkill(ctx context.Context, name string) (Skill, error)
}

// Repository combines all agent repository operations.
type Repository interface {
	AgentReader
	AgentWriter
	SkillStore
}
