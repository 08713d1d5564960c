package notify

import (
	"context"
	"sync"

	"personlens/internal/batch"
	id "personlens/pkg/domain"
)

// InMemoryNotifier records events instead of delivering them. It satisfies
// the same ports as the Kafka publisher and is used in tests and local runs
// without a broker.
type InMemoryNotifier struct {
	mu     sync.Mutex
	events []Event
}

// NewInMemory constructs an empty recording notifier.
func NewInMemory() *InMemoryNotifier {
	return &InMemoryNotifier{}
}

func (n *InMemoryNotifier) SendMonitoringAlert(_ context.Context, userID id.UserID, subID id.SubscriptionID, targetType, targetValue string, changeDescriptions []string) error {
	n.record(newEvent(EventMonitoringAlert, userID, map[string]any{
		"subscriptionId": subID.String(),
		"targetType":     targetType,
		"targetValue":    targetValue,
		"changes":        changeDescriptions,
	}))
	return nil
}

func (n *InMemoryNotifier) SendWebhookNotification(_ context.Context, userID id.UserID, event string, payload map[string]any) error {
	n.record(newEvent(EventWebhook, userID, map[string]any{
		"event":   event,
		"payload": payload,
	}))
	return nil
}

func (n *InMemoryNotifier) JobProgress(_ context.Context, job *batch.Job) error {
	n.record(newEvent(EventJobProgress, job.UserID, jobPayload(job)))
	return nil
}

func (n *InMemoryNotifier) JobFinished(_ context.Context, job *batch.Job) error {
	n.record(newEvent(EventJobFinished, job.UserID, jobPayload(job)))
	return nil
}

// Events returns a snapshot of everything recorded so far.
func (n *InMemoryNotifier) Events() []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Event(nil), n.events...)
}

// EventsOfType returns the recorded events with the given type.
func (n *InMemoryNotifier) EventsOfType(eventType string) []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Event
	for _, e := range n.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (n *InMemoryNotifier) record(e Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}
