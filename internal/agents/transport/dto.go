package transport

import "github.com/google/uuid"

// CreateAgentRequest contains data for registering an agent.
type CreateAgentRequest struct {
	Name            string      `json:"name" validate:"required,notblank,max=200"`
	Username        string      `json:"username" validate:"required,notblank,max=100"`
	Role            string      `json:"role" validate:"required,oneof=Admin Member"`
	Seniority       int         `json:"seniority" validate:"min=0"`
	MaxDailyClaims  int         `json:"maxDailyClaims" validate:"min=0"`
	DefaultStrategy string      `json:"defaultStrategy" validate:"required,oneof=payer age seniority"`
	SkillIDs        []uuid.UUID `json:"skillIds" validate:"omitempty,dive,required"`
}

// UpdateAgentRequest replaces an agent's assignment profile.
type UpdateAgentRequest struct {
	Role            string      `json:"role" validate:"required,oneof=Admin Member"`
	MaxDailyClaims  int         `json:"maxDailyClaims" validate:"min=0"`
	Seniority       int         `json:"seniority" validate:"min=0"`
	DefaultStrategy string      `json:"defaultStrategy" validate:"required,oneof=payer age seniority"`
	SkillIDs        []uuid.UUID `json:"skillIds" validate:"omitempty,dive,required"`
}

// SetActiveRequest toggles an agent's availability.
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// CreateSkillRequest adds a skill to the catalogue.
type CreateSkillRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

// SkillResponse represents a skill in API responses.
type SkillResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// AgentResponse represents an agent in API responses.
type AgentResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Username        string          `json:"username"`
	Role            string          `json:"role"`
	Seniority       int             `json:"seniority"`
	MaxDailyClaims  int             `json:"maxDailyClaims"`
	AssignedToday   int             `json:"assignedToday"`
	DefaultStrategy string          `json:"defaultStrategy"`
	IsActive        bool            `json:"isActive"`
	Skills          []SkillResponse `json:"skills"`
	CreatedAt       string          `json:"createdAt"`
	UpdatedAt       string          `json:"updatedAt"`
}

// AgentListResponse wraps a list of agents.
type AgentListResponse struct {
	Items []AgentResponse `json:"items"`
	Total int             `json:"total"`
}

// SkillListResponse wraps a list of skills.
type SkillListResponse struct {
	Items []SkillResponse `json:"items"`
	Total int             `json:"total"`
}
