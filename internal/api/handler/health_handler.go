package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// DBChecker verifies database connectivity.
type DBChecker interface {
	HealthCheck(ctx context.Context) error
}

// BrokerChecker reports broker connectivity.
type BrokerChecker interface {
	IsConnected() bool
}

// HealthHandler serves the liveness endpoint
type HealthHandler struct {
	logger *slog.Logger
	db     DBChecker
	broker BrokerChecker
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(deps *Dependencies) *HealthHandler {
	return &HealthHandler{
		logger: deps.Logger,
		db:     deps.DB,
		broker: deps.Broker,
	}
}

// Health handles GET /health
// Reports per-dependency status; 503 when any dependency is down.
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{}

	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context()); err != nil {
			h.logger.Warn("Database health check failed",
				slog.String("error", err.Error()),
			)
			checks["database"] = "unhealthy"
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "healthy"
		}
	}

	if h.broker != nil {
		if h.broker.IsConnected() {
			checks["rabbitmq"] = "healthy"
		} else {
			checks["rabbitmq"] = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "jobmatch-queue-service",
		"checks":  checks,
	})
}
