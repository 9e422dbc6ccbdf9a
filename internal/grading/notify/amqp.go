package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Pavan-Hosatti/Farm2Market/shared/rabbitmq"
)

// AMQPNotifier publishes outcomes to a RabbitMQ exchange instead of a
// webhook, for deployments where downstream consumers subscribe to grading
// results. Same best-effort contract: publish failures are logged only.
type AMQPNotifier struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

// NewAMQPNotifier creates a notifier over an established RabbitMQ client.
func NewAMQPNotifier(client *rabbitmq.Client, logger *slog.Logger) *AMQPNotifier {
	return &AMQPNotifier{client: client, logger: logger}
}

func (n *AMQPNotifier) Notify(ctx context.Context, outcome Outcome) {
	body, err := json.Marshal(outcome)
	if err != nil {
		n.logger.Warn("Failed to encode outcome for publish",
			slog.String("job_id", outcome.JobID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := n.client.Publish(ctx, body, "application/json"); err != nil {
		n.logger.Warn("Outcome publish failed",
			slog.String("job_id", outcome.JobID),
			slog.String("error", err.Error()),
		)
		return
	}

	n.logger.Debug("Outcome published",
		slog.String("job_id", outcome.JobID),
		slog.String("status", outcome.Status),
	)
}
