package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"claims_portal_backend/internal/assignment"
	"claims_portal_backend/internal/events"
	"claims_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type fakeResetter struct {
	calls int
	reset bool
	err   error
}

func (f *fakeResetter) ResetIfNewDay(context.Context) (bool, error) {
	f.calls++
	return f.reset, f.err
}

type fakeGuard struct {
	taken    map[string]bool
	released []string
}

func (g *fakeGuard) Acquire(_ context.Context, day string) (bool, error) {
	if g.taken[day] {
		return false, nil
	}
	g.taken[day] = true
	return true, nil
}

func (g *fakeGuard) Release(_ context.Context, day string) error {
	delete(g.taken, day)
	g.released = append(g.released, day)
	return nil
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

var resetDay = assignment.ClockFunc(func() time.Time {
	return time.Date(2026, 10, 19, 0, 0, 5, 0, time.UTC)
})

func resetTask(t *testing.T, source string) *asynq.Task {
	t.Helper()
	task, err := NewCapacityResetTask(CapacityResetPayload{Source: source})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	return task
}

func TestCapacityResetPublishesWhenCountersRolled(t *testing.T) {
	resetter := &fakeResetter{reset: true}
	bus := &recordingBus{}
	h := NewCapacityResetHandler(resetter, &fakeGuard{taken: map[string]bool{}}, bus, resetDay, time.UTC, logger.Discard())

	if err := h.ProcessTask(context.Background(), resetTask(t, SourceCron)); err != nil {
		t.Fatalf("process: %v", err)
	}

	if resetter.calls != 1 {
		t.Fatalf("expected one reset, got %d", resetter.calls)
	}
	if len(bus.events) != 1 {
		t.Fatalf("expected one event, got %d", len(bus.events))
	}
	evt, ok := bus.events[0].(events.CapacityReset)
	if !ok || evt.Day != "2026-10-19" || evt.Source != SourceCron {
		t.Fatalf("unexpected event %+v", bus.events[0])
	}
}

func TestCapacityResetSkipsWhenGuardHeld(t *testing.T) {
	resetter := &fakeResetter{reset: true}
	guard := &fakeGuard{taken: map[string]bool{"2026-10-19": true}}
	bus := &recordingBus{}
	h := NewCapacityResetHandler(resetter, guard, bus, resetDay, time.UTC, logger.Discard())

	if err := h.ProcessTask(context.Background(), resetTask(t, SourceStartup)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if resetter.calls != 0 || len(bus.events) != 0 {
		t.Fatalf("expected no reset while another worker holds the day, got %d calls", resetter.calls)
	}
}

func TestCapacityResetReleasesGuardOnFailure(t *testing.T) {
	boom := errors.New("db down")
	guard := &fakeGuard{taken: map[string]bool{}}
	h := NewCapacityResetHandler(&fakeResetter{err: boom}, guard, nil, resetDay, time.UTC, logger.Discard())

	err := h.ProcessTask(context.Background(), resetTask(t, SourceCron))
	if !errors.Is(err, boom) {
		t.Fatalf("expected reset error, got %v", err)
	}
	if len(guard.released) != 1 || guard.taken["2026-10-19"] {
		t.Fatal("expected guard to be released so the retry can run")
	}
}

func TestCapacityResetWithoutRolloverIsQuiet(t *testing.T) {
	bus := &recordingBus{}
	h := NewCapacityResetHandler(&fakeResetter{}, nil, bus, resetDay, time.UTC, logger.Discard())

	if err := h.ProcessTask(context.Background(), asynq.NewTask(TaskCapacityReset, nil)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(bus.events) != 0 {
		t.Fatal("expected no event when nothing was reset")
	}
}

func TestCapacityResetRejectsBadPayload(t *testing.T) {
	h := NewCapacityResetHandler(&fakeResetter{}, nil, nil, resetDay, time.UTC, logger.Discard())
	if err := h.ProcessTask(context.Background(), asynq.NewTask(TaskCapacityReset, []byte("{"))); err == nil {
		t.Fatal("expected malformed payload to fail")
	}
}
