package handler

import (
	"log/slog"

	"github.com/davidtran-dev/jobmatch-be/internal/cache"
	"github.com/davidtran-dev/jobmatch-be/internal/queue"
	"github.com/davidtran-dev/jobmatch-be/internal/queue/storage"
)

// Dependencies holds everything handlers need
type Dependencies struct {
	Logger     *slog.Logger
	Controller *queue.Controller
	Storage    *storage.Storage
	Cache      cache.Cache
	DB         DBChecker
	Broker     BrokerChecker
}

// JobHandler serves the producer submission and job lookup endpoints
type JobHandler struct {
	logger     *slog.Logger
	controller *queue.Controller
	storage    *storage.Storage
	cache      cache.Cache
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(deps *Dependencies) *JobHandler {
	return &JobHandler{
		logger:     deps.Logger,
		controller: deps.Controller,
		storage:    deps.Storage,
		cache:      deps.Cache,
	}
}

// StatsHandler serves the dashboard snapshot endpoint
type StatsHandler struct {
	logger     *slog.Logger
	controller *queue.Controller
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(deps *Dependencies) *StatsHandler {
	return &StatsHandler{
		logger:     deps.Logger,
		controller: deps.Controller,
	}
}
