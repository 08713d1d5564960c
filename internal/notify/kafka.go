package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"personlens/internal/batch"
	"personlens/internal/platform/metrics"
	id "personlens/pkg/domain"
)

// Default topics. Alerts and webhook events go to separate topics so the
// consumer side can apply different delivery policies.
const (
	DefaultAlertTopic = "personlens.monitoring.alerts"
	DefaultEventTopic = "personlens.webhook.events"
)

// KafkaPublisher publishes notification events to Kafka. It satisfies both
// the monitoring AlertNotifier and the batch Notifier ports. Records are
// keyed by user ID so per-user ordering survives partitioning.
type KafkaPublisher struct {
	client     *kgo.Client
	alertTopic string
	eventTopic string
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// KafkaOption configures the publisher.
type KafkaOption func(*KafkaPublisher)

// WithAlertTopic overrides the monitoring alert topic.
func WithAlertTopic(topic string) KafkaOption {
	return func(p *KafkaPublisher) {
		if topic != "" {
			p.alertTopic = topic
		}
	}
}

// WithEventTopic overrides the webhook/job event topic.
func WithEventTopic(topic string) KafkaOption {
	return func(p *KafkaPublisher) {
		if topic != "" {
			p.eventTopic = topic
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) KafkaOption {
	return func(p *KafkaPublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Metrics) KafkaOption {
	return func(p *KafkaPublisher) { p.metrics = m }
}

// NewKafka connects a publisher to the given brokers.
func NewKafka(brokers []string, opts ...KafkaOption) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	p := &KafkaPublisher{
		client:     client,
		alertTopic: DefaultAlertTopic,
		eventTopic: DefaultEventTopic,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Close flushes buffered records and releases the client.
func (p *KafkaPublisher) Close() {
	p.client.Close()
}

// SendMonitoringAlert publishes a monitoring alert for a watched target.
func (p *KafkaPublisher) SendMonitoringAlert(ctx context.Context, userID id.UserID, subID id.SubscriptionID, targetType, targetValue string, changeDescriptions []string) error {
	return p.publish(ctx, p.alertTopic, newEvent(EventMonitoringAlert, userID, map[string]any{
		"subscriptionId": subID.String(),
		"targetType":     targetType,
		"targetValue":    targetValue,
		"changes":        changeDescriptions,
	}))
}

// SendWebhookNotification publishes a user-facing webhook event.
func (p *KafkaPublisher) SendWebhookNotification(ctx context.Context, userID id.UserID, event string, payload map[string]any) error {
	return p.publish(ctx, p.eventTopic, newEvent(EventWebhook, userID, map[string]any{
		"event":   event,
		"payload": payload,
	}))
}

// JobProgress publishes a chunk-granular progress update for a batch job.
func (p *KafkaPublisher) JobProgress(ctx context.Context, job *batch.Job) error {
	return p.publish(ctx, p.eventTopic, newEvent(EventJobProgress, job.UserID, jobPayload(job)))
}

// JobFinished publishes the terminal state of a batch job.
func (p *KafkaPublisher) JobFinished(ctx context.Context, job *batch.Job) error {
	return p.publish(ctx, p.eventTopic, newEvent(EventJobFinished, job.UserID, jobPayload(job)))
}

func jobPayload(job *batch.Job) map[string]any {
	return map[string]any{
		"jobId":          job.ID.String(),
		"status":         string(job.Status),
		"processedCount": job.ProcessedCount,
		"successCount":   job.SuccessCount,
		"errorCount":     job.ErrorCount,
		"total":          len(job.Inputs),
	}
}

// publish produces one record synchronously so callers learn about broker
// failures; they treat delivery as best-effort and log.
func (p *KafkaPublisher) publish(ctx context.Context, topic string, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Type, err)
	}
	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(event.UserID),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish %s event: %w", event.Type, err)
	}
	if p.metrics != nil {
		p.metrics.RecordNotification(event.Type)
	}
	p.logger.DebugContext(ctx, "notification published",
		slog.String("topic", topic),
		slog.String("type", event.Type))
	return nil
}
