package dto

import "github.com/Pavan-Hosatti/Farm2Market/internal/grading/domain"

type SubmitJobResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

type JobStatusResponse struct {
	JobID     string              `json:"job_id"`
	Status    string              `json:"status"`
	CropType  string              `json:"crop_type"`
	CreatedAt string              `json:"created_at"`
	Result    *domain.GradeResult `json:"result,omitempty"`
	Error     string              `json:"error,omitempty"`
}

type JobSummary struct {
	JobID     string `json:"job_id"`
	Status    string `json:"status"`
	CropType  string `json:"crop_type"`
	CreatedAt string `json:"created_at"`
}

type ListJobsResponse struct {
	TotalJobs int          `json:"total_jobs"`
	Jobs      []JobSummary `json:"jobs"`
}

type HealthResponse struct {
	Status       string   `json:"status"`
	ModelsLoaded []string `json:"models_loaded"`
	TotalModels  int      `json:"total_models"`
	ActiveJobs   int      `json:"active_jobs"`
	TotalJobs    int      `json:"total_jobs"`
}
