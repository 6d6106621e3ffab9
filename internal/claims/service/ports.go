package service

import (
	"context"

	"claims_portal_backend/internal/assignment"
)

// AgentRoster supplies every agent in the engine's form.
type AgentRoster interface {
	AssignmentAgents(ctx context.Context) ([]assignment.Agent, error)
}

// RuleSource supplies the current rule set.
type RuleSource interface {
	AssignmentRules(ctx context.Context) ([]assignment.Rule, error)
}

// AssignmentEngine plans and commits assignments.
type AssignmentEngine interface {
	Validate(ctx context.Context, claims []assignment.Claim, agents []assignment.Agent, rules []assignment.Rule) (assignment.Plan, error)
	Execute(ctx context.Context, entries []assignment.PlanEntry) (assignment.ExecuteResult, error)
	ResetIfNewDay(ctx context.Context) (bool, error)
}

var _ AssignmentEngine = (*assignment.Engine)(nil)
