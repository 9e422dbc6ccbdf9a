package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookNotifier posts outcomes as JSON to a configured callback URL.
// Timeouts and non-2xx responses are logged and discarded.
type WebhookNotifier struct {
	client      *resty.Client
	callbackURL string
	logger      *slog.Logger
}

// NewWebhookNotifier creates a notifier for the given callback URL.
// A timeout of zero falls back to 10 seconds.
func NewWebhookNotifier(callbackURL string, timeout time.Duration, logger *slog.Logger) *WebhookNotifier {
	if timeout <= 0 {
		timeout = defaultWebhookTimeout
	}

	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(timeout)

	return &WebhookNotifier{
		client:      client,
		callbackURL: callbackURL,
		logger:      logger,
	}
}

func (n *WebhookNotifier) Notify(ctx context.Context, outcome Outcome) {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(outcome).
		Post(n.callbackURL)

	if err != nil {
		n.logger.Warn("Webhook notification failed",
			slog.String("job_id", outcome.JobID),
			slog.String("callback_url", n.callbackURL),
			slog.String("error", err.Error()),
		)
		return
	}

	if resp.IsError() {
		n.logger.Warn("Webhook notification rejected",
			slog.String("job_id", outcome.JobID),
			slog.String("callback_url", n.callbackURL),
			slog.String("status", resp.Status()),
		)
		return
	}

	n.logger.Debug("Webhook notification delivered",
		slog.String("job_id", outcome.JobID),
		slog.String("status", outcome.Status),
	)
}
