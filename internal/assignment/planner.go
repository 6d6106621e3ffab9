package assignment

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Unassignable reasons.
const (
	ReasonNoRuleNoAgent     = "no matching rule and no eligible agent"
	ReasonNoSkill           = "no agent has required skill"
	ReasonAtCapacity        = "all eligible agents at capacity"
	ReasonNoActiveAgent     = "no active agent"
	ReasonDuplicateInBatch  = "duplicate claim in batch"
	ReasonAlreadyAssigned   = "claim already assigned"
	invalidClaimReasonShape = "invalid claim: %s"
)

// Planner produces assignment plans without touching persisted state.
type Planner struct {
	capacity CapacityTracker
	cursors  CursorStore
}

// NewPlanner creates a planner. cursors may be nil, in which case every
// payer ring starts from the lowest agent ID.
func NewPlanner(capacity CapacityTracker, cursors CursorStore) *Planner {
	return &Planner{capacity: capacity, cursors: cursors}
}

type planSlot struct {
	claim    Claim
	rule     *Rule
	strategy Strategy
	pool     []Agent
	reason   string
	entry    *PlanEntry
}

// Plan decides an assignee for every claim. Each input claim appears exactly
// once in either Assignable or Unassignable, in input order. An error is only
// returned when the capacity snapshot or cursors cannot be read.
func (p *Planner) Plan(ctx context.Context, claims []Claim, agents []Agent, rules []Rule) (Plan, error) {
	snapshot, err := p.capacity.Snapshot(ctx)
	if err != nil {
		return Plan{}, fmt.Errorf("capacity snapshot: %w", err)
	}
	local := snapshot.Clone()

	cursorState, err := p.loadCursors(ctx)
	if err != nil {
		return Plan{}, err
	}
	resolver := NewStrategyResolver(cursorState)
	matcher := NewRuleMatcher(rules)

	active := activeAgents(agents)
	for _, agent := range active {
		if _, ok := local[agent.ID]; !ok {
			local[agent.ID] = fallbackRemaining(agent)
		}
	}

	slots := make([]*planSlot, len(claims))
	seen := make(map[string]struct{}, len(claims))
	for i, claim := range claims {
		slot := &planSlot{claim: claim}
		slots[i] = slot

		if reason := validateClaim(claim); reason != "" {
			slot.reason = reason
			continue
		}
		key := strings.TrimSpace(claim.ClaimID)
		if _, dup := seen[key]; dup {
			slot.reason = ReasonDuplicateInBatch
			continue
		}
		seen[key] = struct{}{}
		if claim.AssigneeID != nil {
			slot.reason = ReasonAlreadyAssigned
			continue
		}

		slot.rule, _ = matcher.Match(claim)
		slot.pool = skilledAgents(active, claim.RequiredSkill)
		if len(slot.pool) == 0 {
			slot.reason = emptyPoolReason(claim, slot.rule)
			continue
		}
		if slot.rule != nil {
			slot.strategy = slot.rule.Strategy
		} else {
			slot.strategy = majorityDefault(slot.pool)
		}
	}

	for _, slot := range processingOrder(slots) {
		candidates := make([]Candidate, 0, len(slot.pool))
		for _, agent := range slot.pool {
			if remaining := local[agent.ID]; remaining > 0 {
				candidates = append(candidates, Candidate{Agent: agent, Remaining: remaining})
			}
		}
		if len(candidates) == 0 {
			slot.reason = ReasonAtCapacity
			continue
		}

		agent, ok := resolver.Resolve(slot.claim, slot.strategy, candidates)
		if !ok {
			slot.reason = ReasonAtCapacity
			continue
		}
		local[agent.ID]--

		entry := PlanEntry{
			ClaimID:      strings.TrimSpace(slot.claim.ClaimID),
			AssignTo:     agent.ID,
			AssignToName: agent.Name,
			Strategy:     slot.strategy,
		}
		if slot.rule != nil {
			ruleID := slot.rule.ID
			entry.RuleID = &ruleID
		}
		slot.entry = &entry
	}

	plan := Plan{
		Assignable:   make([]PlanEntry, 0, len(slots)),
		Unassignable: make([]Rejection, 0),
	}
	for _, slot := range slots {
		if slot.entry != nil {
			plan.Assignable = append(plan.Assignable, *slot.entry)
			continue
		}
		plan.Unassignable = append(plan.Unassignable, Rejection{ClaimID: strings.TrimSpace(slot.claim.ClaimID), Reason: slot.reason})
	}
	return plan, nil
}

func (p *Planner) loadCursors(ctx context.Context) (map[string]uuid.UUID, error) {
	if p.cursors == nil {
		return map[string]uuid.UUID{}, nil
	}
	cursors, err := p.cursors.Cursors(ctx)
	if err != nil {
		return nil, fmt.Errorf("load payer cursors: %w", err)
	}
	return cursors, nil
}

// processingOrder keeps input order for every slot still waiting for an agent,
// except that age-strategy claims are permuted among their own positions so
// the oldest date of service is served first.
func processingOrder(slots []*planSlot) []*planSlot {
	pending := make([]*planSlot, 0, len(slots))
	for _, slot := range slots {
		if slot.reason == "" {
			pending = append(pending, slot)
		}
	}

	positions := make([]int, 0)
	aged := make([]*planSlot, 0)
	for i, slot := range pending {
		if slot.strategy == StrategyAge {
			positions = append(positions, i)
			aged = append(aged, slot)
		}
	}
	sort.SliceStable(aged, func(i, j int) bool {
		return aged[i].claim.DateOfService.Before(aged[j].claim.DateOfService)
	})
	for k, pos := range positions {
		pending[pos] = aged[k]
	}
	return pending
}

func validateClaim(claim Claim) string {
	switch {
	case strings.TrimSpace(claim.ClaimID) == "":
		return fmt.Sprintf(invalidClaimReasonShape, "missing claim id")
	case strings.TrimSpace(claim.Payer) == "":
		return fmt.Sprintf(invalidClaimReasonShape, "missing payer")
	case claim.Amount < 0:
		return fmt.Sprintf(invalidClaimReasonShape, "negative amount")
	case claim.DateOfService.IsZero():
		return fmt.Sprintf(invalidClaimReasonShape, "missing date of service")
	}
	return ""
}

func activeAgents(agents []Agent) []Agent {
	out := make([]Agent, 0, len(agents))
	for _, agent := range agents {
		if agent.Active {
			out = append(out, agent)
		}
	}
	sort.Slice(out, func(i, j int) bool { return idLess(out[i].ID, out[j].ID) })
	return out
}

func skilledAgents(agents []Agent, skill string) []Agent {
	out := make([]Agent, 0, len(agents))
	for _, agent := range agents {
		if agent.HasSkill(skill) {
			out = append(out, agent)
		}
	}
	return out
}

func emptyPoolReason(claim Claim, rule *Rule) string {
	if claim.RequiredSkill != "" {
		return ReasonNoSkill
	}
	if rule == nil {
		return ReasonNoRuleNoAgent
	}
	return ReasonNoActiveAgent
}

// majorityDefault returns the most common default strategy in the pool; ties
// resolve to the strategy declared first.
func majorityDefault(pool []Agent) Strategy {
	counts := make(map[Strategy]int, 3)
	for _, agent := range pool {
		if agent.DefaultStrategy.Valid() {
			counts[agent.DefaultStrategy]++
		}
	}
	best := StrategyPayer
	bestCount := -1
	for _, s := range Strategies() {
		if counts[s] > bestCount {
			best = s
			bestCount = counts[s]
		}
	}
	return best
}

func fallbackRemaining(agent Agent) int {
	remaining := agent.MaxDailyClaims - agent.AssignedToday
	if remaining < 0 {
		return 0
	}
	return remaining
}
