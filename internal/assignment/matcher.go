package assignment

import (
	"bytes"
	"sort"
	"strings"
)

// RuleMatcher selects the governing rule for a claim.
type RuleMatcher struct {
	rules []Rule
}

// NewRuleMatcher orders rules by precedence: highest priority first, then
// earliest creation, then lowest ID. The input slice is not modified.
func NewRuleMatcher(rules []Rule) *RuleMatcher {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return rulePrecedes(ordered[i], ordered[j])
	})
	return &RuleMatcher{rules: ordered}
}

// Match returns the highest precedence rule whose criteria equals the claim's field.
func (m *RuleMatcher) Match(claim Claim) (*Rule, bool) {
	for i := range m.rules {
		if ruleMatches(m.rules[i], claim) {
			rule := m.rules[i]
			return &rule, true
		}
	}
	return nil, false
}

func rulePrecedes(a, b Rule) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return bytes.Compare(a.ID[:], b.ID[:]) < 0
}

func ruleMatches(rule Rule, claim Claim) bool {
	value := strings.TrimSpace(rule.CriteriaValue)
	switch strings.ToLower(strings.TrimSpace(rule.CriteriaType)) {
	case CriteriaPayer:
		return claim.Payer == value
	case CriteriaStatus:
		return claim.Status == value
	case CriteriaSkill:
		return claim.RequiredSkill != "" && claim.RequiredSkill == value
	case CriteriaCPTCode:
		return containsExact(claim.CPTCodes, value)
	case CriteriaICD10Code:
		return containsExact(claim.ICD10Codes, value)
	default:
		return false
	}
}

// IsKnownCriteriaType reports whether the matcher understands criteriaType.
func IsKnownCriteriaType(criteriaType string) bool {
	normalized := strings.ToLower(strings.TrimSpace(criteriaType))
	for _, known := range CriteriaTypes() {
		if normalized == known {
			return true
		}
	}
	return false
}

func containsExact(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
