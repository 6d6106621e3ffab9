package scheduler

import (
	"context"
	"fmt"
	"time"

	"claims_portal_backend/internal/assignment"
	"claims_portal_backend/internal/events"
	"claims_portal_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// CapacityResetter rolls daily capacity counters over.
type CapacityResetter interface {
	ResetIfNewDay(ctx context.Context) (bool, error)
}

// ResetGuard elects one worker per calendar day. Optional.
type ResetGuard interface {
	Acquire(ctx context.Context, day string) (bool, error)
	Release(ctx context.Context, day string) error
}

// CapacityResetHandler processes TaskCapacityReset.
type CapacityResetHandler struct {
	resetter CapacityResetter
	guard    ResetGuard
	bus      events.Bus
	clock    assignment.Clock
	loc      *time.Location
	log      *logger.Logger
}

var _ asynq.Handler = (*CapacityResetHandler)(nil)

func NewCapacityResetHandler(resetter CapacityResetter, guard ResetGuard, bus events.Bus, clock assignment.Clock, loc *time.Location, log *logger.Logger) *CapacityResetHandler {
	if clock == nil {
		clock = assignment.SystemClock{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CapacityResetHandler{resetter: resetter, guard: guard, bus: bus, clock: clock, loc: loc, log: log}
}

func (h *CapacityResetHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCapacityResetPayload(task)
	if err != nil {
		return fmt.Errorf("parse capacity reset payload: %w", err)
	}
	source := payload.Source
	if source == "" {
		source = SourceCron
	}

	day := assignment.DayKey(h.clock.Now(), h.loc)
	if h.guard != nil {
		acquired, err := h.guard.Acquire(ctx, day)
		if err != nil {
			return err
		}
		if !acquired {
			h.log.Debug("capacity reset already claimed", "day", day, "source", source)
			return nil
		}
	}

	reset, err := h.resetter.ResetIfNewDay(ctx)
	if err != nil {
		if h.guard != nil {
			if releaseErr := h.guard.Release(ctx, day); releaseErr != nil {
				h.log.Warn("failed to release capacity reset guard", "day", day, "error", releaseErr)
			}
		}
		return fmt.Errorf("reset capacity: %w", err)
	}

	h.log.CapacityReset(source, reset)
	if reset && h.bus != nil {
		h.bus.Publish(ctx, events.CapacityReset{
			BaseEvent: events.NewBaseEvent(),
			Day:       day,
			Source:    source,
		})
	}
	return nil
}
