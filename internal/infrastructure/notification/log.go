package notification

import (
	"context"
	"log/slog"

	"github.com/coffee-roulette/roulette-hub/internal/domain/notification"
	"github.com/coffee-roulette/roulette-hub/internal/infrastructure/metrics"
)

// LogNotifier writes messages to the log. Used when no webhook is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger.With(slog.String("component", "log_notifier"))}
}

// Send implements notification.Notifier.
func (n *LogNotifier) Send(ctx context.Context, msg notification.Message) error {
	attrs := []any{
		"message_id", msg.ID,
		"kind", msg.Kind,
		"roulette_id", msg.RouletteID,
		"text", msg.Text,
	}
	if msg.Recipient != nil {
		attrs = append(attrs, "user_id", msg.Recipient.UserID, "email", msg.Recipient.Email)
	}
	n.logger.InfoContext(ctx, "notification", attrs...)
	metrics.RecordNotification(string(msg.Kind), nil)
	return nil
}
