package assignment

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrCapacityExhausted is returned when a reservation would exceed an agent's daily maximum.
	ErrCapacityExhausted = errors.New("agent capacity exhausted")
	// ErrClaimAlreadyAssigned is returned when a claim already has an assignee.
	ErrClaimAlreadyAssigned = errors.New("claim already assigned")
	// ErrAgentNotFound is returned when an agent does not exist.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrClaimNotFound is returned when a claim does not exist.
	ErrClaimNotFound = errors.New("claim not found")
	// ErrAgentInactive is returned when an inactive agent is asked to take a claim.
	ErrAgentInactive = errors.New("agent inactive")
	// ErrAgentLacksSkill is returned when the agent does not hold the claim's required skill.
	ErrAgentLacksSkill = errors.New("agent lacks required skill")
)

// InvariantError reports an assigned counter found above its maximum.
// It indicates a broken reservation path and is never a user-facing outcome.
type InvariantError struct {
	AgentID       uuid.UUID
	AssignedToday int
	Max           int
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("capacity invariant violated for agent %s: assigned %d > max %d", e.AgentID, e.AssignedToday, e.Max)
}

// IsInvariantViolation reports whether err wraps an InvariantError.
func IsInvariantViolation(err error) bool {
	var target *InvariantError
	return errors.As(err, &target)
}
