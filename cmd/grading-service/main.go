package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/Pavan-Hosatti/Farm2Market/internal/api/handler"
	"github.com/Pavan-Hosatti/Farm2Market/internal/api/router"
	"github.com/Pavan-Hosatti/Farm2Market/internal/config"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/classifier"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/notify"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/runner"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/sampler"
	"github.com/Pavan-Hosatti/Farm2Market/internal/grading/store"
	"github.com/Pavan-Hosatti/Farm2Market/shared/logger"
	"github.com/Pavan-Hosatti/Farm2Market/shared/postgresql"
	"github.com/Pavan-Hosatti/Farm2Market/shared/rabbitmq"
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

	// Parse command-line flags
	defaultConfigPath := os.Getenv("GRADING_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/grading-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting grading service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Temp artifact directory, one file per in-flight job
	if err := os.MkdirAll(cfg.Grading.TempDir, 0o755); err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}

	// Initialize job store
	var dbClient *postgresql.Client
	var jobStore store.JobStore

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		dbClient, err = initPostgreSQL(&cfg.Store.Database, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		pgStore := store.NewPostgresStore(dbClient)
		if err := pgStore.EnsureSchema(context.Background()); err != nil {
			return fmt.Errorf("failed to prepare job store schema: %w", err)
		}
		jobStore = pgStore
		appLogger.Info("Using PostgreSQL job store")
	default:
		jobStore = store.NewMemoryStore()
		appLogger.Info("Using in-memory job store")
	}

	// Build the classifier registry from configured models
	registry := classifier.NewRegistry()
	for _, m := range cfg.Models {
		registry.Register(m.CropType, classifier.NewHTTPClassifier(&classifier.HTTPConfig{
			Endpoint:  m.Endpoint,
			Timeout:   m.Timeout,
			InputSize: m.InputSize,
		}))
		appLogger.Info("Loaded classifier variant",
			slog.String("crop_type", m.CropType),
			slog.String("endpoint", m.Endpoint),
		)
	}

	// Initialize notifier
	var rabbitClient *rabbitmq.Client
	var notifier notify.Notifier = notify.Noop{}

	switch cfg.Notifier.Kind {
	case config.NotifierKindWebhook:
		notifier = notify.NewWebhookNotifier(cfg.Notifier.CallbackURL, cfg.Notifier.Timeout, appLogger.Logger)
		appLogger.Info("Using webhook notifier",
			slog.String("callback_url", cfg.Notifier.CallbackURL),
		)
	case config.NotifierKindAMQP:
		rabbitClient, err = initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		notifier = notify.NewAMQPNotifier(rabbitClient, appLogger.Logger)
		appLogger.Info("Using AMQP notifier",
			slog.String("exchange", cfg.RabbitMQ.Exchange.Name),
		)
	}

	// Frame sampler over ffmpeg
	frameSampler := sampler.New(sampler.NewFFmpegDecoder(cfg.Grading.FFmpegPath), appLogger.Logger)

	samplingParams := sampler.Params{
		Stride:    cfg.Grading.SampleStride,
		MaxFrames: cfg.Grading.MaxFrames,
	}

	// Job runner
	jobRunner := runner.New(&runner.Config{
		Logger:        appLogger.Logger,
		Store:         jobStore,
		Sampler:       frameSampler,
		Registry:      registry,
		Notifier:      notifier,
		Sampling:      samplingParams,
		MaxConcurrent: cfg.Grading.MaxConcurrentJobs,
	})

	// Initialize router
	r := initRouter(cfg, appLogger.Logger, jobStore, registry, jobRunner)

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start",
				slog.Any("error", err),
			)
			os.Exit(1)
		}
	}()

	appLogger.Info("Grading service is running",
		slog.String("address", addr),
		slog.Any("models", registry.CropTypes()),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
	}

	// Let in-flight jobs reach a terminal state before closing resources
	if err := jobRunner.Shutdown(ctx); err != nil {
		appLogger.Warn("Abandoning in-flight jobs",
			slog.Any("error", err),
		)
	}

	if dbClient != nil {
		dbClient.Close()
	}
	if rabbitClient != nil {
		rabbitClient.Close()
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}

// initRabbitMQ initializes the RabbitMQ client for outcome publishing
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(
	cfg *config.Config,
	logger *slog.Logger,
	jobStore store.JobStore,
	registry *classifier.Registry,
	jobRunner *runner.Runner,
) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	handlerDeps := &handler.Dependencies{
		Logger:   logger,
		Store:    jobStore,
		Registry: registry,
		Runner:   jobRunner,
		TempDir:  cfg.Grading.TempDir,
	}

	return router.SetupRouter(handlerDeps, cfg.Server.MaxUploadBytes)
}
