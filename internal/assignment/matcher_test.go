package assignment

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func testID(n int) uuid.UUID {
	var id uuid.UUID
	id[14] = byte(n >> 8)
	id[15] = byte(n)
	return id
}

func TestRuleMatcherHighestPriorityWins(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rules := []Rule{
		{ID: testID(1), CriteriaType: CriteriaPayer, CriteriaValue: "Acme", Strategy: StrategyPayer, Priority: 1, CreatedAt: base},
		{ID: testID(2), CriteriaType: CriteriaPayer, CriteriaValue: "Acme", Strategy: StrategySeniority, Priority: 10, CreatedAt: base.Add(time.Hour)},
		{ID: testID(3), CriteriaType: CriteriaPayer, CriteriaValue: "Other", Strategy: StrategyAge, Priority: 99, CreatedAt: base},
	}

	rule, ok := NewRuleMatcher(rules).Match(Claim{ClaimID: "C1", Payer: "Acme"})
	if !ok {
		t.Fatal("expected a rule to match")
	}
	if rule.ID != testID(2) {
		t.Fatalf("expected rule %s, got %s", testID(2), rule.ID)
	}
}

func TestRuleMatcherTieBreaksByCreationOrder(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rules := []Rule{
		{ID: testID(1), CriteriaType: CriteriaPayer, CriteriaValue: "Acme", Strategy: StrategyAge, Priority: 5, CreatedAt: base.Add(time.Minute)},
		{ID: testID(2), CriteriaType: CriteriaPayer, CriteriaValue: "Acme", Strategy: StrategySeniority, Priority: 5, CreatedAt: base},
	}

	rule, ok := NewRuleMatcher(rules).Match(Claim{Payer: "Acme"})
	if !ok || rule.ID != testID(2) {
		t.Fatalf("expected earliest rule to win, got %+v", rule)
	}

	sameInstant := []Rule{
		{ID: testID(9), CriteriaType: CriteriaPayer, CriteriaValue: "Acme", Priority: 5, CreatedAt: base},
		{ID: testID(4), CriteriaType: CriteriaPayer, CriteriaValue: "Acme", Priority: 5, CreatedAt: base},
	}
	rule, ok = NewRuleMatcher(sameInstant).Match(Claim{Payer: "Acme"})
	if !ok || rule.ID != testID(4) {
		t.Fatalf("expected lowest id to win, got %+v", rule)
	}
}

func TestRuleMatcherIsExactAndIgnoresUnknownCriteria(t *testing.T) {
	rules := []Rule{
		{ID: testID(1), CriteriaType: CriteriaPayer, CriteriaValue: "acme", Priority: 1},
		{ID: testID(2), CriteriaType: "amount_over", CriteriaValue: "100", Priority: 50},
	}
	if rule, ok := NewRuleMatcher(rules).Match(Claim{Payer: "Acme", Amount: 500}); ok {
		t.Fatalf("expected no match, got %+v", rule)
	}
}

func TestRuleMatcherCodeCriteria(t *testing.T) {
	rules := []Rule{
		{ID: testID(1), CriteriaType: CriteriaCPTCode, CriteriaValue: "99213", Strategy: StrategyAge, Priority: 1},
		{ID: testID(2), CriteriaType: CriteriaSkill, CriteriaValue: "Medicare", Strategy: StrategySeniority, Priority: 0},
	}
	matcher := NewRuleMatcher(rules)

	rule, ok := matcher.Match(Claim{Payer: "X", CPTCodes: []string{"99214", "99213"}})
	if !ok || rule.ID != testID(1) {
		t.Fatalf("expected cpt rule to match, got %+v", rule)
	}

	rule, ok = matcher.Match(Claim{Payer: "X", RequiredSkill: "Medicare"})
	if !ok || rule.ID != testID(2) {
		t.Fatalf("expected skill rule to match, got %+v", rule)
	}

	if _, ok := matcher.Match(Claim{Payer: "X"}); ok {
		t.Fatal("expected claim without skill or codes to match nothing")
	}
}

func TestRuleMatcherDoesNotMutateInput(t *testing.T) {
	rules := []Rule{
		{ID: testID(1), Priority: 1},
		{ID: testID(2), Priority: 2},
	}
	NewRuleMatcher(rules)
	if rules[0].ID != testID(1) || rules[1].ID != testID(2) {
		t.Fatalf("input rules were reordered: %+v", rules)
	}
}

func TestParseStrategy(t *testing.T) {
	cases := map[string]Strategy{"payer": StrategyPayer, " Age ": StrategyAge, "SENIORITY": StrategySeniority}
	for input, want := range cases {
		got, err := ParseStrategy(input)
		if err != nil || got != want {
			t.Fatalf("ParseStrategy(%q) = %v, %v; want %v", input, got, err, want)
		}
	}
	if _, err := ParseStrategy("submitter"); err == nil {
		t.Fatal("expected unknown strategy to fail")
	}
}

func TestSkillComparisonAgreesWithSkillRules(t *testing.T) {
	rules := []Rule{{ID: testID(1), CriteriaType: CriteriaSkill, CriteriaValue: "Cardiology", Strategy: StrategyAge, Priority: 1}}
	agent := Agent{ID: testID(2), Skills: []string{"cardiology"}}

	for _, skill := range []string{"Cardiology", "cardiology"} {
		_, ruleMatched := NewRuleMatcher(rules).Match(Claim{RequiredSkill: skill})
		if ruleMatched != (skill == "Cardiology") {
			t.Fatalf("skill %q: unexpected rule match %v", skill, ruleMatched)
		}
		if agent.HasSkill(skill) != (skill == "cardiology") {
			t.Fatalf("skill %q: agent skill check must be exact", skill)
		}
	}
	if !agent.HasSkill("") {
		t.Fatal("a claim without a required skill fits every agent")
	}
}
