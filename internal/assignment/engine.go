package assignment

import (
	"context"
	"fmt"

	"claims_portal_backend/platform/logger"
)

// Engine ties the planner and committer to one capacity tracker and cursor store.
type Engine struct {
	capacity  CapacityTracker
	planner   *Planner
	committer *Committer
}

// NewEngine wires an engine. cursors may be nil.
func NewEngine(capacity CapacityTracker, cursors CursorStore, state LiveState) *Engine {
	return &Engine{
		capacity:  capacity,
		planner:   NewPlanner(capacity, cursors),
		committer: NewCommitter(state, cursors),
	}
}

// SetLogger routes the committer's warnings to log.
func (e *Engine) SetLogger(log *logger.Logger) {
	e.committer.SetLogger(log)
}

// Validate rolls the capacity day over if needed and returns a plan for claims.
func (e *Engine) Validate(ctx context.Context, claims []Claim, agents []Agent, rules []Rule) (Plan, error) {
	if _, err := e.capacity.ResetIfNewDay(ctx); err != nil {
		return Plan{}, fmt.Errorf("reset capacity: %w", err)
	}
	return e.planner.Plan(ctx, claims, agents, rules)
}

// Execute rolls the capacity day over if needed and commits entries.
func (e *Engine) Execute(ctx context.Context, entries []PlanEntry) (ExecuteResult, error) {
	if _, err := e.capacity.ResetIfNewDay(ctx); err != nil {
		return ExecuteResult{}, fmt.Errorf("reset capacity: %w", err)
	}
	return e.committer.Execute(ctx, entries)
}

// ResetIfNewDay exposes the tracker's day rollover for maintenance callers.
func (e *Engine) ResetIfNewDay(ctx context.Context) (bool, error) {
	return e.capacity.ResetIfNewDay(ctx)
}
