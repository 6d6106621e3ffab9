package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"claims_portal_backend/internal/agents/repository"
	"claims_portal_backend/internal/agents/transport"
	"claims_portal_backend/internal/assignment"
	"claims_portal_backend/internal/events"
	"claims_portal_backend/platform/apperr"
	"claims_portal_backend/platform/logger"
)

// Service provides business logic for agents and skills.
type Service struct {
	repo     repository.Repository
	eventBus events.Bus
	log      *logger.Logger
	now      func() time.Time
	loc      *time.Location
}

// New creates a new agents service.
func New(repo repository.Repository, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, log: log, now: time.Now, loc: time.UTC}
}

// SetCapacityLocation sets the zone whose calendar day bounds the assigned counter.
func (s *Service) SetCapacityLocation(loc *time.Location) {
	if loc != nil {
		s.loc = loc
	}
}

// today returns the capacity day as a key and as the date stored in capacity_day.
func (s *Service) today() (string, time.Time) {
	now := s.now()
	local := now.In(s.loc)
	return assignment.DayKey(now, s.loc), time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// assignedToday is the agent's counter for the current day; one stamped with an
// earlier day has been rolled over lazily and counts as zero.
func assignedToday(a repository.Agent, today string) int {
	if a.CapacityDay.Format(time.DateOnly) != today {
		return 0
	}
	return a.AssignedToday
}

// List retrieves all agents.
func (s *Service) List(ctx context.Context) (transport.AgentListResponse, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return transport.AgentListResponse{}, err
	}
	today, _ := s.today()
	resp := transport.AgentListResponse{Items: make([]transport.AgentResponse, 0, len(items)), Total: len(items)}
	for _, a := range items {
		resp.Items = append(resp.Items, toResponse(a, today))
	}
	return resp, nil
}

// GetByID retrieves one agent.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.AgentResponse, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	today, _ := s.today()
	return toResponse(a, today), nil
}

// Create registers a new agent.
func (s *Service) Create(ctx context.Context, req transport.CreateAgentRequest) (transport.AgentResponse, error) {
	a, err := s.repo.Create(ctx, repository.CreateParams{
		Name:            strings.TrimSpace(req.Name),
		Username:        strings.ToLower(strings.TrimSpace(req.Username)),
		Role:            req.Role,
		Seniority:       req.Seniority,
		MaxDailyClaims:  req.MaxDailyClaims,
		DefaultStrategy: req.DefaultStrategy,
		SkillIDs:        dedupe(req.SkillIDs),
	})
	if err != nil {
		return transport.AgentResponse{}, err
	}

	s.log.Info("agent created", "id", a.ID, "username", a.Username, "maxDailyClaims", a.MaxDailyClaims)
	s.publish(ctx, a)
	today, _ := s.today()
	return toResponse(a, today), nil
}

// Update replaces an agent's role, capacity, seniority, default strategy and skills.
// The daily maximum may not drop below the number of claims already assigned today.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateAgentRequest) (transport.AgentResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.AgentResponse{}, err
	}
	today, day := s.today()
	if assigned := assignedToday(current, today); req.MaxDailyClaims < assigned {
		return transport.AgentResponse{}, apperr.Validation(
			fmt.Sprintf("maxDailyClaims cannot be below claims already assigned today (%d)", assigned),
		)
	}

	a, err := s.repo.Update(ctx, repository.UpdateParams{
		ID:              id,
		Role:            req.Role,
		Seniority:       req.Seniority,
		MaxDailyClaims:  req.MaxDailyClaims,
		DefaultStrategy: req.DefaultStrategy,
		SkillIDs:        dedupe(req.SkillIDs),
		CapacityDay:     day,
	})
	if err != nil {
		return transport.AgentResponse{}, err
	}

	s.log.Info("agent updated", "id", a.ID, "maxDailyClaims", a.MaxDailyClaims, "skills", len(a.Skills))
	s.publish(ctx, a)
	return toResponse(a, today), nil
}

// SetActive activates or deactivates an agent. Inactive agents receive no claims.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (transport.AgentResponse, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return transport.AgentResponse{}, err
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.AgentResponse{}, err
	}

	s.log.Info("agent active toggled", "id", id, "isActive", active)
	s.publish(ctx, a)
	today, _ := s.today()
	return toResponse(a, today), nil
}

// ListSkills retrieves the skill catalogue.
func (s *Service) ListSkills(ctx context.Context) (transport.SkillListResponse, error) {
	skills, err := s.repo.ListSkills(ctx)
	if err != nil {
		return transport.SkillListResponse{}, err
	}
	resp := transport.SkillListResponse{Items: make([]transport.SkillResponse, 0, len(skills)), Total: len(skills)}
	for _, sk := range skills {
		resp.Items = append(resp.Items, transport.SkillResponse{ID: sk.ID, Name: sk.Name})
	}
	return resp, nil
}

// CreateSkill adds a skill to the catalogue.
func (s *Service) CreateSkill(ctx context.Context, req transport.CreateSkillRequest) (transport.SkillResponse, error) {
	sk, err := s.repo.CreateSkill(ctx, strings.TrimSpace(req.Name))
	if err != nil {
		return transport.SkillResponse{}, err
	}
	s.log.Info("skill created", "id", sk.ID, "name", sk.Name)
	return transport.SkillResponse{ID: sk.ID, Name: sk.Name}, nil
}

func (s *Service) publish(ctx context.Context, a repository.Agent) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, events.AgentUpdated{
		BaseEvent: events.NewBaseEvent(),
		AgentID:   a.ID,
		Active:    a.IsActive,
	})
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toResponse(a repository.Agent, today string) transport.AgentResponse {
	skills := make([]transport.SkillResponse, 0, len(a.Skills))
	for _, sk := range a.Skills {
		skills = append(skills, transport.SkillResponse{ID: sk.ID, Name: sk.Name})
	}
	return transport.AgentResponse{
		ID:              a.ID,
		Name:            a.Name,
		Username:        a.Username,
		Role:            a.Role,
		Seniority:       a.Seniority,
		MaxDailyClaims:  a.MaxDailyClaims,
		AssignedToday:   assignedToday(a, today),
		DefaultStrategy: a.DefaultStrategy,
		IsActive:        a.IsActive,
		Skills:          skills,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       a.UpdatedAt.Format(time.RFC3339),
	}
}
