// Package notify delivers monitoring alerts, webhook events and batch job
// lifecycle notifications to the outer notification pipeline. Delivery
// semantics end at the broker: signing, fan-out and retries belong to the
// consumer side.
package notify

import (
	"time"

	id "personlens/pkg/domain"
)

// Event is the wire envelope for every published notification.
type Event struct {
	Type       string         `json:"type"`
	UserID     string         `json:"userId"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload"`
}

// Event types emitted by this service.
const (
	EventMonitoringAlert = "monitoring.alert"
	EventWebhook         = "webhook.event"
	EventJobProgress     = "job.progress"
	EventJobFinished     = "job.finished"
)

func newEvent(eventType string, userID id.UserID, payload map[string]any) Event {
	return Event{
		Type:       eventType,
		UserID:     userID.String(),
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}
