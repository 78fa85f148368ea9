package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/davidtran-dev/jobmatch-be/internal/analysis"
	"github.com/davidtran-dev/jobmatch-be/internal/analysis/factory"
	"github.com/davidtran-dev/jobmatch-be/internal/analysis/rulebased"
	"github.com/davidtran-dev/jobmatch-be/internal/api/handler"
	"github.com/davidtran-dev/jobmatch-be/internal/api/router"
	"github.com/davidtran-dev/jobmatch-be/internal/cache"
	"github.com/davidtran-dev/jobmatch-be/internal/config"
	"github.com/davidtran-dev/jobmatch-be/internal/ingest"
	"github.com/davidtran-dev/jobmatch-be/internal/queue"
	"github.com/davidtran-dev/jobmatch-be/internal/queue/domain"
	"github.com/davidtran-dev/jobmatch-be/internal/queue/storage"
	"github.com/davidtran-dev/jobmatch-be/shared/logger"
	"github.com/davidtran-dev/jobmatch-be/shared/postgresql"
	"github.com/davidtran-dev/jobmatch-be/shared/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("QUEUE_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/queue-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := logger.New(&logger.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       cfg.Logging.Output,
		EnableSource: cfg.Logging.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting queue service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// PostgreSQL
	dbClient, err := postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	// Redis status cache (optional)
	var statusCache cache.Cache
	if cfg.Redis.Addr != "" {
		statusCache, err = cache.New(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.StatusTTL)
		if err != nil {
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer statusCache.Close()
		appLogger.Info("Redis status cache connected", slog.String("addr", cfg.Redis.Addr))
	} else {
		appLogger.Warn("Redis not configured, status cache disabled")
	}

	// RabbitMQ
	rabbitClient, err := rabbitmq.NewClient(&rabbitmq.Config{
		Host:               cfg.RabbitMQ.Host,
		Port:               cfg.RabbitMQ.Port,
		User:               cfg.RabbitMQ.User,
		Password:           cfg.RabbitMQ.Password,
		VHost:              cfg.RabbitMQ.VHost,
		ExchangeName:       cfg.RabbitMQ.Exchange.Name,
		ExchangeType:       cfg.RabbitMQ.Exchange.Type,
		ExchangeDurable:    cfg.RabbitMQ.Exchange.Durable,
		ExchangeAutoDelete: cfg.RabbitMQ.Exchange.AutoDelete,
		QueueName:          cfg.RabbitMQ.Queue.Name,
		QueueDurable:       cfg.RabbitMQ.Queue.Durable,
		QueueAutoDelete:    cfg.RabbitMQ.Queue.AutoDelete,
		QueueExclusive:     cfg.RabbitMQ.Queue.Exclusive,
		RoutingKey:         cfg.RabbitMQ.RoutingKey,
		RetryAttempts:      cfg.RabbitMQ.Connection.RetryAttempts,
		RetryInterval:      cfg.RabbitMQ.Connection.RetryInterval,
		Heartbeat:          cfg.RabbitMQ.Connection.Heartbeat,
		ConnectionTimeout:  cfg.RabbitMQ.Connection.ConnectionTimeout,
	}, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer rabbitClient.Close()

	// Analysis tiers
	primary, err := factory.NewScorer(cfg.Analysis.Primary, cfg.Analysis)
	if err != nil {
		return fmt.Errorf("failed to build primary scorer: %w", err)
	}
	secondary, err := factory.NewScorer(cfg.Analysis.Secondary, cfg.Analysis)
	if err != nil {
		return fmt.Errorf("failed to build secondary scorer: %w", err)
	}

	coordinator := analysis.NewCoordinator(appLogger.Logger, analysis.CoordinatorConfig{
		Tier1Timeout:     cfg.Analysis.Tier1Timeout,
		Tier2Timeout:     cfg.Analysis.Tier2Timeout,
		BreakerThreshold: cfg.Analysis.BreakerThreshold,
		BreakerCooldown:  cfg.Analysis.BreakerCooldown,
	}, primary, secondary, rulebased.NewScorer())

	// Dashboard callback: snapshots are pushed asynchronously by the
	// stats aggregator; here they go to the structured log.
	dashboardCallback := func(view queue.StatsView) {
		appLogger.Info("Processing stats",
			slog.Int64("total_processed", view.TotalProcessed),
			slog.Int64("succeeded", view.Succeeded),
			slog.Int64("dead_lettered", view.DeadLettered),
			slog.Int64("primary", view.PrimaryCount),
			slog.Int64("secondary", view.SecondaryCount),
			slog.Int64("rule_based", view.RuleBasedCount),
			slog.Int("queue_depth", view.QueueDepth),
		)
	}

	store := storage.NewStorage(dbClient.GetDB(), appLogger.Logger)

	var workerCache queue.StatusCache
	if statusCache != nil {
		workerCache = statusCache
	}

	controller := queue.NewController(
		appLogger.Logger,
		queue.Config{
			NumWorkers:         cfg.Queue.NumWorkers,
			QueueCapacity:      cfg.Queue.QueueCapacity,
			MaxAttempts:        cfg.Queue.MaxAttempts,
			BaseBackoff:        cfg.Queue.BaseBackoff,
			MaxBackoff:         cfg.Queue.MaxBackoff,
			StatsFlushInterval: cfg.Queue.StatsFlushInterval,
			StatsFlushEvery:    cfg.Queue.StatsFlushEvery,
		},
		profileAnalyzer{coordinator: coordinator, profile: cfg.Analysis.Profile},
		store,
		workerCache,
		dashboardCallback,
	)

	if err := controller.Start(); err != nil {
		return fmt.Errorf("failed to start queue controller: %w", err)
	}

	// Ingest consumer for scraped postings
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := ingest.NewConsumer(appLogger.Logger, rabbitClient, controller, cfg.RabbitMQ.Consumer.PrefetchCount)
	consumerErr := make(chan error, 1)
	go func() {
		if err := consumer.Start(ctx); err != nil {
			consumerErr <- err
		}
	}()

	// HTTP API
	engine := router.SetupRouter(&handler.Dependencies{
		Logger:     appLogger.Logger,
		Controller: controller,
		Storage:    store,
		Cache:      statusCache,
		DB:         dbClient,
		Broker:     rabbitClient,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	appLogger.Info("Queue service started",
		slog.Int("port", cfg.Server.Port),
		slog.Int("num_workers", cfg.Queue.NumWorkers),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-consumerErr:
		appLogger.Error("Consumer error", slog.Any("error", err))
	case err := <-serverErr:
		appLogger.Error("HTTP server error", slog.Any("error", err))
	}

	// Stop accepting new work, then drain.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("HTTP server shutdown error", slog.Any("error", err))
	}

	done := make(chan struct{})
	go func() {
		controller.Stop()
		close(done)
	}()

	select {
	case <-done:
		appLogger.Info("Queue controller stopped gracefully")
	case <-shutdownCtx.Done():
		appLogger.Warn("Controller shutdown timeout exceeded, forcing exit")
	}

	appLogger.Info("Queue service shutdown complete")
	return nil
}

// profileAnalyzer binds the configured candidate profile to the scoring
// coordinator, satisfying the worker pool's Analyzer interface.
type profileAnalyzer struct {
	coordinator *analysis.Coordinator
	profile     analysis.CandidateProfile
}

func (a profileAnalyzer) Analyze(ctx context.Context, task *domain.JobTask) domain.AnalysisResult {
	return a.coordinator.Score(ctx, analysis.ScoreRequest{
		Title:       task.Title,
		Company:     task.Company,
		Description: task.Description,
		Profile:     a.profile,
	})
}
