package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"claims_portal_backend/internal/assignment"
	"claims_portal_backend/internal/events"
	"claims_portal_backend/internal/rules/repository"
	"claims_portal_backend/internal/rules/transport"
	"claims_portal_backend/platform/cache"
	"claims_portal_backend/platform/logger"
)

const activeRulesKey = "rules:active"

// RuleSet is a cached rule list tagged with the generation it was read under.
type RuleSet struct {
	Generation uint64
	Rules      []assignment.Rule
}

// Generation counts rule changes. Every replica sharing the rules table must
// observe the same counter for cached rule sets to be discarded everywhere.
type Generation interface {
	Current(ctx context.Context) (uint64, error)
	Bump(ctx context.Context) error
}

// LocalGeneration is a process-local Generation.
type LocalGeneration struct {
	n atomic.Uint64
}

// Current returns the counter.
func (g *LocalGeneration) Current(context.Context) (uint64, error) { return g.n.Load(), nil }

// Bump increments the counter.
func (g *LocalGeneration) Bump(context.Context) error {
	g.n.Add(1)
	return nil
}

// Service provides business logic for assignment rules.
type Service struct {
	repo     repository.Repository
	cache    *cache.Cache[RuleSet]
	ttl      time.Duration
	gen      Generation
	eventBus events.Bus
	log      *logger.Logger
}

// New creates a new rules service. rulesCache may be nil to disable caching;
// gen defaults to a LocalGeneration.
func New(repo repository.Repository, rulesCache *cache.Cache[RuleSet], ttl time.Duration, gen Generation, eventBus events.Bus, log *logger.Logger) *Service {
	if gen == nil {
		gen = &LocalGeneration{}
	}
	return &Service{repo: repo, cache: rulesCache, ttl: ttl, gen: gen, eventBus: eventBus, log: log}
}

// List retrieves all rules ordered by priority descending.
func (s *Service) List(ctx context.Context) (transport.RuleListResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return transport.RuleListResponse{}, err
	}
	resp := transport.RuleListResponse{Items: make([]transport.RuleResponse, 0, len(items)), Total: len(items)}
	for _, r := range items {
		resp.Items = append(resp.Items, toResponse(r))
	}
	return resp, nil
}

// Create adds a rule.
func (s *Service) Create(ctx context.Context, req transport.RuleRequest) (transport.RuleResponse, error) {
	rule, err := s.repo.Create(ctx, repository.CreateParams{
		CriteriaType:  req.CriteriaType,
		CriteriaValue: strings.TrimSpace(req.CriteriaValue),
		Strategy:      req.Strategy,
		Priority:      req.Priority,
	})
	if err != nil {
		return transport.RuleResponse{}, err
	}

	s.log.Info("rule created", "id", rule.ID, "criteriaType", rule.CriteriaType, "priority", rule.Priority)
	s.changed(ctx, rule.ID, "created")
	return toResponse(rule), nil
}

// Update replaces a rule.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.RuleRequest) (transport.RuleResponse, error) {
	rule, err := s.repo.Update(ctx, repository.UpdateParams{
		ID:            id,
		CriteriaType:  req.CriteriaType,
		CriteriaValue: strings.TrimSpace(req.CriteriaValue),
		Strategy:      req.Strategy,
		Priority:      req.Priority,
	})
	if err != nil {
		return transport.RuleResponse{}, err
	}

	s.log.Info("rule updated", "id", rule.ID, "priority", rule.Priority)
	s.changed(ctx, rule.ID, "updated")
	return toResponse(rule), nil
}

// Delete removes a rule.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("rule deleted", "id", id)
	s.changed(ctx, id, "deleted")
	return nil
}

// AssignmentRules returns the rule set in the engine's form. A cached set is
// served only while no rule has changed since it was read.
func (s *Service) AssignmentRules(ctx context.Context) ([]assignment.Rule, error) {
	if s.cache == nil {
		return s.loadRules(ctx)
	}

	gen, err := s.gen.Current(ctx)
	if err != nil {
		s.log.Warn("rule generation unavailable; reading rules uncached", "error", err)
		return s.loadRules(ctx)
	}
	if cached, ok := s.cache.Get(activeRulesKey); ok && cached.Generation == gen {
		return cached.Rules, nil
	}

	out, err := s.loadRules(ctx)
	if err != nil {
		return nil, err
	}

	// A change that landed while the list was read must not be hidden behind
	// the result of that read.
	if after, err := s.gen.Current(ctx); err == nil && after == gen {
		s.cache.Set(activeRulesKey, RuleSet{Generation: gen, Rules: out}, s.ttl)
	}
	return out, nil
}

func (s *Service) loadRules(ctx context.Context) ([]assignment.Rule, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]assignment.Rule, 0, len(items))
	for _, r := range items {
		strategy, err := assignment.ParseStrategy(r.Strategy)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", r.ID, err)
		}
		out = append(out, assignment.Rule{
			ID:            r.ID,
			CriteriaType:  r.CriteriaType,
			CriteriaValue: r.CriteriaValue,
			Strategy:      strategy,
			Priority:      r.Priority,
			CreatedAt:     r.CreatedAt,
		})
	}
	return out, nil
}

// InvalidateCache drops the cached rule set on every replica sharing the generation.
func (s *Service) InvalidateCache(ctx context.Context) {
	if err := s.gen.Bump(ctx); err != nil {
		s.log.Error("failed to bump rule generation; other replicas may serve stale rules until the cache expires", "error", err)
	}
	if s.cache != nil {
		s.cache.Delete(activeRulesKey)
	}
}

func (s *Service) changed(ctx context.Context, id uuid.UUID, action string) {
	s.InvalidateCache(ctx)
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, events.RulesChanged{
		BaseEvent: events.NewBaseEvent(),
		RuleID:    id,
		Action:    action,
	})
}

func toResponse(r repository.Rule) transport.RuleResponse {
	return transport.RuleResponse{
		ID:            r.ID,
		CriteriaType:  r.CriteriaType,
		CriteriaValue: r.CriteriaValue,
		Strategy:      r.Strategy,
		Priority:      r.Priority,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     r.UpdatedAt.Format(time.RFC3339),
	}
}
