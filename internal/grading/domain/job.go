package domain

import "time"

// Job status constants
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// TerminalStatus reports whether a status is absorbing (no further transitions)
func TerminalStatus(status string) bool {
	return status == JobStatusCompleted || status == JobStatusFailed
}

// Job represents one asynchronous grading request, tracked from submission
// to terminal outcome. Exactly one of Result/Error is set, and only in the
// matching terminal status.
type Job struct {
	ID        string       `json:"job_id" db:"job_id"`
	CropType  string       `json:"crop_type" db:"crop_type"`
	Status    string       `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	Result    *GradeResult `json:"result,omitempty"`
	Error     string       `json:"error,omitempty" db:"error_message"`
}

// Active reports whether the job is still pending or processing
func (j *Job) Active() bool {
	return !TerminalStatus(j.Status)
}
