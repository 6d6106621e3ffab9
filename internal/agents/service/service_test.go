package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"claims_portal_backend/internal/agents/repository"
	"claims_portal_backend/internal/agents/transport"
	"claims_portal_backend/internal/events"
	"claims_portal_backend/platform/apperr"
	"claims_portal_backend/platform/logger"
)

type fakeRepo struct {
	agents map[uuid.UUID]repository.Agent
	skills []repository.Skill

	lastCreate repository.CreateParams
	lastUpdate repository.UpdateParams
	updates    int
}

var _ repository.Repository = (*fakeRepo)(nil)

func newFakeRepo(agents ...repository.Agent) *fakeRepo {
	r := &fakeRepo{agents: make(map[uuid.UUID]repository.Agent)}
	for _, a := range agents {
		r.agents[a.ID] = a
	}
	return r
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Agent, error) {
	a, ok := r.agents[id]
	if !ok {
		return repository.Agent{}, apperr.NotFound("agent not found")
	}
	return a, nil
}

func (r *fakeRepo) List(context.Context) ([]repository.Agent, error) {
	out := make([]repository.Agent, 0, len(r.agents))
	for _, a := range r.agents {
		out = append(out, a)
	}
	return out, nil
}

func (r *fakeRepo) Create(_ context.Context, p repository.CreateParams) (repository.Agent, error) {
	r.lastCreate = p
	a := repository.Agent{ID: uuid.New(), Name: p.Name, Username: p.Username, Role: p.Role,
		MaxDailyClaims: p.MaxDailyClaims, DefaultStrategy: p.DefaultStrategy, IsActive: true}
	r.agents[a.ID] = a
	return a, nil
}

func (r *fakeRepo) Update(_ context.Context, p repository.UpdateParams) (repository.Agent, error) {
	r.updates++
	r.lastUpdate = p
	a := r.agents[p.ID]
	a.Role, a.Seniority, a.MaxDailyClaims, a.DefaultStrategy = p.Role, p.Seniority, p.MaxDailyClaims, p.DefaultStrategy
	if !a.CapacityDay.Equal(p.CapacityDay) {
		a.AssignedToday, a.CapacityDay = 0, p.CapacityDay
	}
	r.agents[p.ID] = a
	return a, nil
}

func (r *fakeRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	a, ok := r.agents[id]
	if !ok {
		return apperr.NotFound("agent not found")
	}
	a.IsActive = active
	r.agents[id] = a
	return nil
}

func (r *fakeRepo) ListSkills(context.Context) ([]repository.Skill, error) { return r.skills, nil }

func (r *fakeRepo) CreateSkill(_ context.Context, name string) (repository.Skill, error) {
	sk := repository.Skill{ID: uuid.New(), Name: name, CreatedAt: time.Now()}
	r.skills = append(r.skills, sk)
	return sk, nil
}

type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, e events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
}

func (b *recordingBus) PublishSync(ctx context.Context, e events.Event) error {
	b.Publish(ctx, e)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

var fixedNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestService(repo repository.Repository, bus events.Bus) *Service {
	svc := New(repo, bus, logger.Discard())
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func capacityDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func TestUpdateRejectsMaxBelowAssignedToday(t *testing.T) {
	agent := repository.Agent{ID: uuid.New(), MaxDailyClaims: 10, AssignedToday: 6, CapacityDay: capacityDay(fixedNow), IsActive: true}
	repo := newFakeRepo(agent)
	bus := &recordingBus{}
	svc := newTestService(repo, bus)

	_, err := svc.Update(context.Background(), agent.ID, transport.UpdateAgentRequest{
		Role: "Member", MaxDailyClaims: 5, DefaultStrategy: "payer",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.updates != 0 || len(bus.events) != 0 {
		t.Fatal("rejected update must not reach the repository or publish")
	}

	resp, err := svc.Update(context.Background(), agent.ID, transport.UpdateAgentRequest{
		Role: "Member", MaxDailyClaims: 6, DefaultStrategy: "age",
	})
	if err != nil {
		t.Fatalf("update at the boundary: %v", err)
	}
	if resp.MaxDailyClaims != 6 || resp.DefaultStrategy != "age" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(bus.events) != 1 || bus.events[0].EventName() != "agents.updated" {
		t.Fatalf("expected one agents.updated event, got %v", bus.events)
	}
}

func TestUpdateIgnoresCounterFromEarlierDay(t *testing.T) {
	agent := repository.Agent{
		ID: uuid.New(), MaxDailyClaims: 5, AssignedToday: 5,
		CapacityDay: capacityDay(fixedNow.AddDate(0, 0, -3)), IsActive: true,
	}
	repo := newFakeRepo(agent)
	svc := newTestService(repo, &recordingBus{})

	resp, err := svc.Update(context.Background(), agent.ID, transport.UpdateAgentRequest{
		Role: "Member", MaxDailyClaims: 2, DefaultStrategy: "payer",
	})
	if err != nil {
		t.Fatalf("lowering the maximum after rollover: %v", err)
	}
	if !repo.lastUpdate.CapacityDay.Equal(capacityDay(fixedNow)) {
		t.Fatalf("expected today's capacity day passed to the repository, got %v", repo.lastUpdate.CapacityDay)
	}
	if resp.MaxDailyClaims != 2 || resp.AssignedToday != 0 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestUpdateUsesCapacityLocationForToday(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skipf("zoneinfo unavailable: %v", err)
	}
	agent := repository.Agent{
		ID: uuid.New(), MaxDailyClaims: 5, AssignedToday: 4,
		CapacityDay: capacityDay(fixedNow.AddDate(0, 0, -1)), IsActive: true,
	}
	svc := newTestService(newFakeRepo(agent), nil)
	svc.SetCapacityLocation(la)
	// 05:30 UTC on the 10th is still the evening of the 9th in Los Angeles.
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 5, 30, 0, 0, time.UTC) }

	_, err = svc.Update(context.Background(), agent.ID, transport.UpdateAgentRequest{
		Role: "Member", MaxDailyClaims: 3, DefaultStrategy: "payer",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected the local day's counter to block the update, got %v", err)
	}
}

func TestListReportsTodaysCounter(t *testing.T) {
	fresh := repository.Agent{ID: uuid.New(), MaxDailyClaims: 5, AssignedToday: 3, CapacityDay: capacityDay(fixedNow)}
	stale := repository.Agent{ID: uuid.New(), MaxDailyClaims: 5, AssignedToday: 4, CapacityDay: capacityDay(fixedNow.AddDate(0, 0, -1))}
	svc := newTestService(newFakeRepo(fresh, stale), nil)

	resp, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := make(map[uuid.UUID]int, len(resp.Items))
	for _, item := range resp.Items {
		got[item.ID] = item.AssignedToday
	}
	if got[fresh.ID] != 3 || got[stale.ID] != 0 {
		t.Fatalf("expected 3 for today and 0 for the stale row, got %v", got)
	}
}

func TestUpdateUnknownAgent(t *testing.T) {
	svc := New(newFakeRepo(), nil, logger.Discard())
	_, err := svc.Update(context.Background(), uuid.New(), transport.UpdateAgentRequest{Role: "Member", DefaultStrategy: "payer"})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateNormalizesInput(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, &recordingBus{}, logger.Discard())
	skill := uuid.New()

	_, err := svc.Create(context.Background(), transport.CreateAgentRequest{
		Name: "  Ana Ruiz ", Username: " ARuiz ", Role: "Member", DefaultStrategy: "payer",
		SkillIDs: []uuid.UUID{skill, skill},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if repo.lastCreate.Name != "Ana Ruiz" || repo.lastCreate.Username != "aruiz" {
		t.Fatalf("expected trimmed name and lowercased username, got %+v", repo.lastCreate)
	}
	if len(repo.lastCreate.SkillIDs) != 1 {
		t.Fatalf("expected duplicate skills collapsed, got %v", repo.lastCreate.SkillIDs)
	}
}

func TestSetActivePublishesState(t *testing.T) {
	agent := repository.Agent{ID: uuid.New(), IsActive: true}
	bus := &recordingBus{}
	svc := New(newFakeRepo(agent), bus, logger.Discard())

	resp, err := svc.SetActive(context.Background(), agent.ID, false)
	if err != nil {
		t.Fatalf("set active: %v", err)
	}
	if resp.IsActive {
		t.Fatal("expected agent to be inactive")
	}
	evt, ok := bus.events[0].(events.AgentUpdated)
	if !ok || evt.AgentID != agent.ID || evt.Active {
		t.Fatalf("unexpected event %#v", bus.events[0])
	}
}
