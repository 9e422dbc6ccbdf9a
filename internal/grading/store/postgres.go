package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/domain"
	"github.com/Pavan-Hosatti/Farm2Market/shared/postgresql"
)

// PostgresStore is a durable JobStore backed by PostgreSQL. It satisfies the
// same contract as MemoryStore; atomicity of Transition relies on a single
// conditional UPDATE instead of a process lock. EnsureSchema creates the
// backing table on startup.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a JobStore over an established PostgreSQL client.
func NewPostgresStore(pg *postgresql.Client) *PostgresStore {
	return &PostgresStore{db: pg.GetDB()}
}

// EnsureSchema creates the jobs table if it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS grading_jobs (
		    job_id        TEXT PRIMARY KEY,
		    crop_type     TEXT NOT NULL,
		    status        TEXT NOT NULL,
		    created_at    TIMESTAMPTZ NOT NULL,
		    result        JSONB,
		    error_message TEXT NOT NULL DEFAULT ''
		)
	`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure jobs table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO grading_jobs (job_id, crop_type, status, created_at, error_message)
		VALUES ($1, $2, $3, $4, '')
		ON CONFLICT (job_id) DO NOTHING
	`

	res, err := s.db.ExecContext(ctx, query, job.ID, job.CropType, job.Status, job.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	if rows == 0 {
		return domain.ErrDuplicateJob
	}

	return nil
}

type jobRow struct {
	JobID        string         `db:"job_id"`
	CropType     string         `db:"crop_type"`
	Status       string         `db:"status"`
	CreatedAt    sql.NullTime   `db:"created_at"`
	Result       sql.NullString `db:"result"`
	ErrorMessage string         `db:"error_message"`
}

func (r *jobRow) toDomain() (*domain.Job, error) {
	job := &domain.Job{
		ID:       r.JobID,
		CropType: r.CropType,
		Status:   r.Status,
		Error:    r.ErrorMessage,
	}
	if r.CreatedAt.Valid {
		job.CreatedAt = r.CreatedAt.Time
	}
	if r.Result.Valid && r.Result.String != "" {
		var result domain.GradeResult
		if err := json.Unmarshal([]byte(r.Result.String), &result); err != nil {
			return nil, fmt.Errorf("failed to decode stored result: %w", err)
		}
		job.Result = &result
	}
	return job, nil
}

func (s *PostgresStore) Get(ctx context.Context, jobID string) (*domain.Job, error) {
	query := `
		SELECT job_id, crop_type, status, created_at, result, error_message
		FROM grading_jobs
		WHERE job_id = $1
	`

	var row jobRow
	if err := s.db.GetContext(ctx, &row, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return row.toDomain()
}

func (s *PostgresStore) Transition(ctx context.Context, jobID, status string, result *domain.GradeResult, errMsg string) error {
	var resultJSON sql.NullString
	if result != nil {
		encoded, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		resultJSON = sql.NullString{String: string(encoded), Valid: true}
	}

	query := `
		UPDATE grading_jobs
		SET status = $1, result = $2, error_message = $3
		WHERE job_id = $4
		  AND status NOT IN ($5, $6)
	`

	res, err := s.db.ExecContext(ctx, query,
		status, resultJSON, errMsg, jobID,
		domain.JobStatusCompleted, domain.JobStatusFailed,
	)
	if err != nil {
		return fmt.Errorf("failed to transition job: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to transition job: %w", err)
	}
	if rows == 0 {
		// Either the job never existed or it already reached a terminal
		// status; disambiguate for the caller.
		if _, getErr := s.Get(ctx, jobID); getErr != nil {
			return getErr
		}
		return domain.ErrTerminalState
	}

	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*domain.Job, error) {
	query := `
		SELECT job_id, crop_type, status, created_at, result, error_message
		FROM grading_jobs
		ORDER BY created_at DESC, job_id DESC
	`

	var rows []jobRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]*domain.Job, 0, len(rows))
	for i := range rows {
		job, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status IN ($1, $2)) AS active
		FROM grading_jobs
	`

	var row struct {
		Total  int `db:"total"`
		Active int `db:"active"`
	}
	if err := s.db.GetContext(ctx, &row, query, domain.JobStatusPending, domain.JobStatusProcessing); err != nil {
		return Stats{}, fmt.Errorf("failed to count jobs: %w", err)
	}

	return Stats{ActiveJobs: row.Active, TotalJobs: row.Total}, nil
}
