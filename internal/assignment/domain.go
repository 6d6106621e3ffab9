// Package assignment decides which agent receives which claim.
//
// The package is free of I/O: persisted state reaches it through the
// CapacityTracker, CursorStore and LiveState interfaces. Planning is read-only
// and works against a single capacity snapshot; committing re-checks live state
// claim by claim.
package assignment

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role is the administrative role of an agent.
type Role string

const (
	RoleAdmin  Role = "Admin"
	RoleMember Role = "Member"
)

// Strategy selects how an agent is picked from an eligible pool.
type Strategy int

const (
	StrategyPayer Strategy = iota
	StrategyAge
	StrategySeniority
)

var strategyNames = [...]string{
	StrategyPayer:     "payer",
	StrategyAge:       "age",
	StrategySeniority: "seniority",
}

// Strategies lists every strategy in declaration order.
func Strategies() []Strategy {
	return []Strategy{StrategyPayer, StrategyAge, StrategySeniority}
}

func (s Strategy) String() string {
	if s < 0 || int(s) >= len(strategyNames) {
		return fmt.Sprintf("strategy(%d)", int(s))
	}
	return strategyNames[s]
}

// Valid reports whether s is one of the declared strategies.
func (s Strategy) Valid() bool {
	return s >= StrategyPayer && s <= StrategySeniority
}

// ParseStrategy parses the lowercase wire name of a strategy.
func ParseStrategy(value string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "payer":
		return StrategyPayer, nil
	case "age":
		return StrategyAge, nil
	case "seniority":
		return StrategySeniority, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q", value)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid strategy %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Claim statuses.
const (
	StatusNew        = "NEW"
	StatusAssigned   = "Assigned"
	StatusInProgress = "In Progress"
	StatusOnHold     = "On Hold"
	StatusSubmitted  = "Submitted"
)

// Criteria types understood by the rule matcher.
const (
	CriteriaPayer     = "payer"
	CriteriaStatus    = "status"
	CriteriaSkill     = "skill"
	CriteriaCPTCode   = "cpt_code"
	CriteriaICD10Code = "icd10_code"
)

// CriteriaTypes lists the criteria types a rule may use.
func CriteriaTypes() []string {
	return []string{CriteriaPayer, CriteriaStatus, CriteriaSkill, CriteriaCPTCode, CriteriaICD10Code}
}

// Agent is a member eligible to receive claims.
type Agent struct {
	ID              uuid.UUID
	Name            string
	Role            Role
	Skills          []string
	Seniority       int
	MaxDailyClaims  int
	AssignedToday   int
	DefaultStrategy Strategy
	Active          bool
}

// HasSkill reports whether the agent holds skill, compared exactly like a skill
// rule's value. An empty skill is held by everyone.
func (a Agent) HasSkill(skill string) bool {
	if skill == "" {
		return true
	}
	for _, s := range a.Skills {
		if s == skill {
			return true
		}
	}
	return false
}

// Note is an append-only remark on a claim.
type Note struct {
	Content   string
	Timestamp time.Time
	AuthorID  uuid.UUID
}

// Claim is a billing record awaiting assignment.
type Claim struct {
	ClaimID       string
	Payer         string
	Amount        int64
	DateOfService time.Time
	Status        string
	RequiredSkill string
	CPTCodes      []string
	ICD10Codes    []string
	AssigneeID    *uuid.UUID
	Notes         []Note
}

// Rule maps a claim attribute to a strategy.
type Rule struct {
	ID            uuid.UUID
	CriteriaType  string
	CriteriaValue string
	Strategy      Strategy
	Priority      int
	CreatedAt     time.Time
}

// PlanEntry is a claim the planner could place.
type PlanEntry struct {
	ClaimID      string
	AssignTo     uuid.UUID
	AssignToName string
	Strategy     Strategy
	RuleID       *uuid.UUID
}

// Rejection is a claim the planner could not place.
type Rejection struct {
	ClaimID string
	Reason  string
}

// Plan is the read-only output of validation.
type Plan struct {
	Assignable   []PlanEntry
	Unassignable []Rejection
}

// CommitResult is the outcome of committing a single plan entry.
type CommitResult struct {
	ClaimID   string
	AgentID   uuid.UUID
	Committed bool
	Reason    string
}

// ExecuteResult reports per-claim outcomes of an execution.
type ExecuteResult struct {
	PerClaim []CommitResult
	Message  string
}

// CommittedCount returns the number of entries that were committed.
func (r ExecuteResult) CommittedCount() int {
	n := 0
	for _, item := range r.PerClaim {
		if item.Committed {
			n++
		}
	}
	return n
}
