package events

import (
	"context"
	"encoding/json"

	"claims_portal_backend/platform/logger"
)

// Names of every domain event, in publish order of their modules.
func Names() []string {
	return []string{
		RulesChanged{}.EventName(),
		AgentUpdated{}.EventName(),
		ClaimsAssigned{}.EventName(),
		CapacityReset{}.EventName(),
	}
}

// Subscriber is the subscribing half of a Bus.
type Subscriber interface {
	Subscribe(eventName string, handler Handler)
}

// AuditLog writes every domain event as one structured log line.
type AuditLog struct {
	log *logger.Logger
}

func NewAuditLog(log *logger.Logger) *AuditLog {
	return &AuditLog{log: log}
}

// Register subscribes the audit log to every domain event.
func (a *AuditLog) Register(bus Subscriber) {
	for _, name := range Names() {
		bus.Subscribe(name, a)
	}
}

func (a *AuditLog) Handle(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	a.log.Info("domain_event",
		"event", event.EventName(),
		"occurredAt", event.OccurredAt(),
		"payload", json.RawMessage(payload),
	)
	return nil
}
