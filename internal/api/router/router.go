package router

import (
	"github.com/gin-gonic/gin"

	"github.com/davidtran-dev/jobmatch-be/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	jobHandler := handler.NewJobHandler(deps)
	statsHandler := handler.NewStatsHandler(deps)
	healthHandler := handler.NewHealthHandler(deps)

	// Health check endpoint
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			// POST /api/v1/jobs - Submit a batch of scraped postings
			jobs.POST("", jobHandler.SubmitJobs)

			// GET /api/v1/jobs/dead-letters - Inspect dead-lettered jobs
			jobs.GET("/dead-letters", jobHandler.ListDeadLetters)

			// GET /api/v1/jobs/:job_id - Get job details
			jobs.GET("/:job_id", jobHandler.GetJob)
		}

		// GET /api/v1/stats - Dashboard snapshot
		v1.GET("/stats", statsHandler.GetStats)
	}

	return r
}
