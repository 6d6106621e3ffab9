// Package events defines the domain events published by the agents, rules
// and claims modules. The bus itself lives in platform/events.
package events

import (
	"claims_portal_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Rules Domain Events
// =============================================================================

// RulesChanged is published after any rule is created, updated or deleted.
type RulesChanged struct {
	BaseEvent
	RuleID uuid.UUID `json:"ruleId"`
	Action string    `json:"action"` // "created", "updated", "deleted"
}

func (e RulesChanged) EventName() string { return "rules.changed" }

// =============================================================================
// Agents Domain Events
// =============================================================================

// AgentUpdated is published when an agent's profile, capacity or activation changes.
type AgentUpdated struct {
	BaseEvent
	AgentID uuid.UUID `json:"agentId"`
	Active  bool      `json:"active"`
}

func (e AgentUpdated) EventName() string { return "agents.updated" }

// =============================================================================
// Claims Domain Events
// =============================================================================

// ClaimsAssigned is published after an execution committed at least one claim.
type ClaimsAssigned struct {
	BaseEvent
	ActorID   uuid.UUID `json:"actorId"`
	ClaimIDs  []string  `json:"claimIds"`
	Submitted int       `json:"submitted"`
}

func (e ClaimsAssigned) EventName() string { return "claims.assigned" }

// CapacityReset is published when daily counters were zeroed.
type CapacityReset struct {
	BaseEvent
	Day    string `json:"day"`
	Source string `json:"source"` // "scheduler", "api", "manual"
}

func (e CapacityReset) EventName() string { return "capacity.reset" }
