// Package notify delivers job outcomes to an external collaborator.
// Delivery is best effort: implementations log failures and never surface
// them to the job runner.
package notify

import (
	"context"

	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/domain"
)

// Outcome is the payload delivered once a job reaches a terminal status.
type Outcome struct {
	JobID  string              `json:"job_id"`
	Status string              `json:"status"`
	Result *domain.GradeResult `json:"result,omitempty"`
	Error  string              `json:"error,omitempty"`
}

// Notifier pushes a terminal outcome to a configured sink. Implementations
// must swallow every failure: no retries, no queuing, no error returns.
type Notifier interface {
	Notify(ctx context.Context, outcome Outcome)
}

// Noop is the Notifier used when no callback sink is configured.
type Noop struct{}

func (Noop) Notify(context.Context, Outcome) {}
