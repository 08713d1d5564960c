package monitor

import (
	"context"
	"time"

	"personlens/internal/failover"
	"personlens/internal/providers"
	id "personlens/pkg/domain"
)

// SubscriptionStore persists monitoring subscriptions.
type SubscriptionStore interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, subID id.SubscriptionID) (*Subscription, error)

	// ListDue returns active subscriptions whose next check time is at or
	// before now.
	ListDue(ctx context.Context, now time.Time) ([]*Subscription, error)

	// Update persists schedule fields and the last observed profile.
	Update(ctx context.Context, sub *Subscription) error
}

// Searcher runs one provider search with failover. Satisfied by
// *failover.Orchestrator.
type Searcher interface {
	Search(ctx context.Context, kind providers.SearchKind, params map[string]string) (*failover.Result, error)
}

// AlertNotifier delivers monitoring outcomes. Delivery, signing and retries
// belong to the implementation, not the scheduler.
type AlertNotifier interface {
	SendMonitoringAlert(ctx context.Context, userID id.UserID, subID id.SubscriptionID, targetType, targetValue string, changeDescriptions []string) error
	SendWebhookNotification(ctx context.Context, userID id.UserID, event string, payload map[string]any) error
}
