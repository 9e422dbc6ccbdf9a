package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Pavan-Hosatti/Farm2Market/internal/api/dto"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/domain"
)

// SubmitJob handles POST /api/v1/grading/jobs
// Accepts a multipart video upload plus a crop_type field, records a pending
// job and kicks off background grading. Processing is not complete when this
// returns.
func (h *GradingHandler) SubmitJob(c *gin.Context) {
	file, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No video file uploaded",
		})
		return
	}

	if file.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Uploaded video file is empty",
		})
		return
	}

	cropType := strings.ToLower(c.PostForm("crop_type"))
	if cropType == "" {
		// Older clients send the camel-cased field name
		cropType = strings.ToLower(c.PostForm("cropType"))
	}
	if cropType == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "crop_type is required",
		})
		return
	}

	// Unknown crop types fail fast, before any job id is generated
	if _, err := h.registry.Lookup(cropType); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Model not available for crop: " + cropType,
		})
		return
	}

	jobID := uuid.New().String()
	videoPath := filepath.Join(h.tempDir, "upload_"+jobID+"_"+sanitizeFilename(file.Filename))

	if err := c.SaveUploadedFile(file, videoPath); err != nil {
		h.logger.Error("Failed to save uploaded video",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save uploaded video",
		})
		return
	}

	h.logger.Info("Video upload received",
		slog.String("job_id", jobID),
		slog.String("crop_type", cropType),
		slog.Int64("size_bytes", file.Size),
	)

	if err := h.runner.Dispatch(c.Request.Context(), jobID, cropType, videoPath); err != nil {
		h.logger.Error("Failed to dispatch job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		// The job never existed; remove the orphaned artifact
		_ = os.Remove(videoPath)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to submit job",
		})
		return
	}

	c.JSON(http.StatusAccepted, dto.SubmitJobResponse{
		JobID:   jobID,
		Message: "Video submitted for processing",
	})
}

// GetJob handles GET /api/v1/grading/jobs/:job_id
// Returns current status plus result or error once terminal.
func (h *GradingHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.store.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Job not found",
			})
			return
		}
		h.logger.Error("Failed to get job",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get job",
		})
		return
	}

	c.JSON(http.StatusOK, dto.JobStatusResponse{
		JobID:     job.ID,
		Status:    job.Status,
		CropType:  job.CropType,
		CreatedAt: job.CreatedAt.Format(time.RFC3339),
		Result:    job.Result,
		Error:     job.Error,
	})
}

// ListJobs handles GET /api/v1/grading/jobs
// Returns summaries of all known jobs, newest first.
func (h *GradingHandler) ListJobs(c *gin.Context) {
	jobs, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list jobs", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list jobs",
		})
		return
	}

	summaries := make([]dto.JobSummary, len(jobs))
	for i, job := range jobs {
		summaries[i] = dto.JobSummary{
			JobID:     job.ID,
			Status:    job.Status,
			CropType:  job.CropType,
			CreatedAt: job.CreatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		TotalJobs: len(summaries),
		Jobs:      summaries,
	})
}

// Health handles GET /health
// Reports loaded classifier variants and job counts.
func (h *GradingHandler) Health(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to read job stats", slog.String("error", err.Error()))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "job store unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, dto.HealthResponse{
		Status:       "healthy",
		ModelsLoaded: h.registry.CropTypes(),
		TotalModels:  h.registry.Len(),
		ActiveJobs:   stats.ActiveJobs,
		TotalJobs:    stats.TotalJobs,
	})
}

// sanitizeFilename strips everything but alphanumerics, '_', '.' and '-'
// so the upload name cannot escape the temp directory.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '.' || r == '-':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "video"
	}
	return b.String()
}
