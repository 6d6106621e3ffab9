package transport

import "github.com/google/uuid"

// RuleRequest creates or replaces a rule.
type RuleRequest struct {
	CriteriaType  string `json:"criteriaType" validate:"required,oneof=payer status skill cpt_code icd10_code"`
	CriteriaValue string `json:"criteriaValue" validate:"required,notblank,max=200"`
	Strategy      string `json:"strategy" validate:"required,oneof=payer age seniority"`
	Priority      int    `json:"priority" validate:"min=0,max=10000"`
}

// RuleResponse represents a rule in API responses.
type RuleResponse struct {
	ID            uuid.UUID `json:"id"`
	CriteriaType  string    `json:"criteriaType"`
	CriteriaValue string    `json:"criteriaValue"`
	Strategy      string    `json:"strategy"`
	Priority      int       `json:"priority"`
	CreatedAt     string    `json:"createdAt"`
	UpdatedAt     string    `json:"updatedAt"`
}

// RuleListResponse wraps a list of rules ordered by priority.
type RuleListResponse struct {
	Items []RuleResponse `json:"items"`
	Total int            `json:"total"`
}
