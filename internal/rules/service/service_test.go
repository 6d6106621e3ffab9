package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"claims_portal_backend/internal/assignment"
	"claims_portal_backend/internal/events"
	"claims_portal_backend/internal/rules/repository"
	"claims_portal_backend/internal/rules/transport"
	"claims_portal_backend/platform/apperr"
	"claims_portal_backend/platform/cache"
	"claims_portal_backend/platform/logger"
)

type fakeRepo struct {
	rules     []repository.Rule
	listCalls int
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Rule, error) {
	for _, rule := range r.rules {
		if rule.ID == id {
			return rule, nil
		}
	}
	return repository.Rule{}, apperr.NotFound("rule not found")
}

func (r *fakeRepo) List(context.Context) ([]repository.Rule, error) {
	r.listCalls++
	return append([]repository.Rule(nil), r.rules...), nil
}

func (r *fakeRepo) Create(_ context.Context, p repository.CreateParams) (repository.Rule, error) {
	rule := repository.Rule{ID: uuid.New(), CriteriaType: p.CriteriaType, CriteriaValue: p.CriteriaValue,
		Strategy: p.Strategy, Priority: p.Priority, CreatedAt: time.Now()}
	r.rules = append(r.rules, rule)
	return rule, nil
}

func (r *fakeRepo) Update(_ context.Context, p repository.UpdateParams) (repository.Rule, error) {
	for i, rule := range r.rules {
		if rule.ID == p.ID {
			rule.CriteriaType, rule.CriteriaValue, rule.Strategy, rule.Priority = p.CriteriaType, p.CriteriaValue, p.Strategy, p.Priority
			r.rules[i] = rule
			return rule, nil
		}
	}
	return repository.Rule{}, apperr.NotFound("rule not found")
}

func (r *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, rule := range r.rules {
		if rule.ID == id {
			r.rules = append(r.rules[:i], r.rules[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("rule not found")
}

type countingBus struct{ names []string }

func (b *countingBus) Publish(_ context.Context, e events.Event) { b.names = append(b.names, e.EventName()) }
func (b *countingBus) Subscribe(string, events.Handler)         {}

func (b *countingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func newService(t *testing.T, repo *fakeRepo, bus events.Bus) *Service {
	t.Helper()
	return newServiceWithGeneration(t, repo, nil, bus)
}

func newServiceWithGeneration(t *testing.T, repo repository.Repository, gen Generation, bus events.Bus) *Service {
	t.Helper()
	c, err := cache.New[RuleSet](8)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	t.Cleanup(c.Close)
	return New(repo, c, time.Minute, gen, bus, logger.Discard())
}

// pausingRepo holds the first List after it has read the rows, until release
// is closed.
type pausingRepo struct {
	*fakeRepo
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (r *pausingRepo) List(ctx context.Context) ([]repository.Rule, error) {
	rows, err := r.fakeRepo.List(ctx)
	paused := false
	r.once.Do(func() { paused = true })
	if paused {
		close(r.read)
		<-r.release
	}
	return rows, err
}

type failingGeneration struct{}

func (failingGeneration) Current(context.Context) (uint64, error) {
	return 0, errors.New("redis: connection refused")
}

func (failingGeneration) Bump(context.Context) error { return errors.New("redis: connection refused") }

func TestAssignmentRulesCachedUntilChange(t *testing.T) {
	repo := &fakeRepo{rules: []repository.Rule{
		{ID: uuid.New(), CriteriaType: "payer", CriteriaValue: "Acme", Strategy: "seniority", Priority: 10},
	}}
	bus := &countingBus{}
	svc := newService(t, repo, bus)
	ctx := context.Background()

	first, err := svc.AssignmentRules(ctx)
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if len(first) != 1 || first[0].Strategy != assignment.StrategySeniority {
		t.Fatalf("unexpected conversion %+v", first)
	}
	if _, err := svc.AssignmentRules(ctx); err != nil {
		t.Fatalf("rules: %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected cached read, repository listed %d times", repo.listCalls)
	}

	if _, err := svc.Create(ctx, transport.RuleRequest{CriteriaType: "status", CriteriaValue: " NEW ", Strategy: "age"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := svc.AssignmentRules(ctx)
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if len(second) != 2 || repo.listCalls != 2 {
		t.Fatalf("expected cache invalidated after create, got %d rules and %d lists", len(second), repo.listCalls)
	}
	if second[1].CriteriaValue != "NEW" {
		t.Fatalf("expected trimmed criteria value, got %q", second[1].CriteriaValue)
	}
	if len(bus.names) != 1 || bus.names[0] != "rules.changed" {
		t.Fatalf("expected rules.changed event, got %v", bus.names)
	}
}

func TestDeleteUnknownRuleKeepsCache(t *testing.T) {
	repo := &fakeRepo{}
	bus := &countingBus{}
	svc := newService(t, repo, bus)

	err := svc.Delete(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if len(bus.names) != 0 {
		t.Fatal("failed delete must not publish")
	}
}

func TestAssignmentRulesRejectsCorruptStrategy(t *testing.T) {
	repo := &fakeRepo{rules: []repository.Rule{{ID: uuid.New(), CriteriaType: "payer", CriteriaValue: "Acme", Strategy: "random"}}}
	svc := New(repo, nil, 0, nil, nil, logger.Discard())
	if _, err := svc.AssignmentRules(context.Background()); err == nil {
		t.Fatal("expected unknown stored strategy to fail")
	}
}

func TestAssignmentRulesDoesNotCacheReadOverlappingChange(t *testing.T) {
	repo := &pausingRepo{fakeRepo: &fakeRepo{}, read: make(chan struct{}), release: make(chan struct{})}
	svc := newServiceWithGeneration(t, repo, nil, &countingBus{})
	ctx := context.Background()

	type result struct {
		rules []assignment.Rule
		err   error
	}
	done := make(chan result, 1)
	go func() {
		rules, err := svc.AssignmentRules(ctx)
		done <- result{rules, err}
	}()

	<-repo.read
	if _, err := svc.Create(ctx, transport.RuleRequest{CriteriaType: "payer", CriteriaValue: "Acme", Strategy: "age", Priority: 5}); err != nil {
		t.Fatalf("create: %v", err)
	}
	close(repo.release)

	first := <-done
	if first.err != nil {
		t.Fatalf("rules: %v", first.err)
	}
	if len(first.rules) != 0 {
		t.Fatalf("the overlapping read started before the create, got %d rules", len(first.rules))
	}

	after, err := svc.AssignmentRules(ctx)
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if len(after) != 1 {
		t.Fatalf("expected the created rule once the write finished, got %d", len(after))
	}
}

func TestAssignmentRulesSeesChangesFromOtherReplica(t *testing.T) {
	repo := &fakeRepo{}
	gen := &LocalGeneration{}
	reader := newServiceWithGeneration(t, repo, gen, &countingBus{})
	writer := newServiceWithGeneration(t, repo, gen, &countingBus{})
	ctx := context.Background()

	if rules, err := reader.AssignmentRules(ctx); err != nil || len(rules) != 0 {
		t.Fatalf("expected empty rule set, got %v (%v)", rules, err)
	}
	if _, err := writer.Create(ctx, transport.RuleRequest{CriteriaType: "status", CriteriaValue: "NEW", Strategy: "payer"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	rules, err := reader.AssignmentRules(ctx)
	if err != nil {
		t.Fatalf("rules: %v", err)
	}
	if len(rules) != 1 || repo.listCalls != 2 {
		t.Fatalf("expected the reader to reload after the shared generation moved, got %d rules and %d lists", len(rules), repo.listCalls)
	}
}

func TestAssignmentRulesBypassesCacheWithoutGeneration(t *testing.T) {
	repo := &fakeRepo{rules: []repository.Rule{{ID: uuid.New(), CriteriaType: "payer", CriteriaValue: "Acme", Strategy: "age"}}}
	svc := newServiceWithGeneration(t, repo, failingGeneration{}, &countingBus{})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.AssignmentRules(ctx); err != nil {
			t.Fatalf("rules: %v", err)
		}
	}
	if repo.listCalls != 2 {
		t.Fatalf("expected every read to hit the repository, got %d lists", repo.listCalls)
	}
}
