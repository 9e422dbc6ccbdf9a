package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Pavan-Hosatti/Farm2Market/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies, maxUploadBytes int64) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	if maxUploadBytes > 0 {
		r.MaxMultipartMemory = maxUploadBytes
	}

	gradingHandler := handler.NewGradingHandler(deps)

	// Health check endpoint
	r.GET("/health", gradingHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/grading/jobs")
		{
			// POST /api/v1/grading/jobs - Submit a video for grading
			jobs.POST("", gradingHandler.SubmitJob)

			// GET /api/v1/grading/jobs - List job summaries
			jobs.GET("", gradingHandler.ListJobs)

			// GET /api/v1/grading/jobs/:job_id - Poll job status
			jobs.GET("/:job_id", gradingHandler.GetJob)
		}
	}

	return r
}
