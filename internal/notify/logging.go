package notify

import (
	"context"
	"log/slog"

	"personlens/internal/batch"
	id "personlens/pkg/domain"
)

// LoggingNotifier writes notifications to the log instead of a broker. It is
// the fallback when no Kafka brokers are configured.
type LoggingNotifier struct {
	logger *slog.Logger
}

// NewLogging constructs a log-only notifier.
func NewLogging(logger *slog.Logger) *LoggingNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingNotifier{logger: logger}
}

func (n *LoggingNotifier) SendMonitoringAlert(ctx context.Context, userID id.UserID, subID id.SubscriptionID, targetType, targetValue string, changeDescriptions []string) error {
	n.logger.InfoContext(ctx, "monitoring alert",
		slog.String("user_id", userID.String()),
		slog.String("subscription_id", subID.String()),
		slog.String("target_type", targetType),
		slog.String("target_value", targetValue),
		slog.Any("changes", changeDescriptions))
	return nil
}

func (n *LoggingNotifier) SendWebhookNotification(ctx context.Context, userID id.UserID, event string, payload map[string]any) error {
	n.logger.InfoContext(ctx, "webhook event",
		slog.String("user_id", userID.String()),
		slog.String("event", event),
		slog.Any("payload", payload))
	return nil
}

func (n *LoggingNotifier) JobProgress(ctx context.Context, job *batch.Job) error {
	n.logger.InfoContext(ctx, "job progress",
		slog.String("job_id", job.ID.String()),
		slog.Int("processed", job.ProcessedCount),
		slog.Int("total", len(job.Inputs)))
	return nil
}

func (n *LoggingNotifier) JobFinished(ctx context.Context, job *batch.Job) error {
	n.logger.InfoContext(ctx, "job finished",
		slog.String("job_id", job.ID.String()),
		slog.String("status", string(job.Status)),
		slog.Int("success", job.SuccessCount),
		slog.Int("errors", job.ErrorCount))
	return nil
}
