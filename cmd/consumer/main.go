package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	httpAdapter "github.com/michaelwybraniec/bankly/internal/adapter/http"
	"github.com/michaelwybraniec/bankly/internal/adapter/http/handler"
	kafkaAdapter "github.com/michaelwybraniec/bankly/internal/adapter/kafka"
	postgresRepo "github.com/michaelwybraniec/bankly/internal/adapter/repository/postgres"
	redisRepo "github.com/michaelwybraniec/bankly/internal/adapter/repository/redis"
	"github.com/michaelwybraniec/bankly/internal/consumer"
	"github.com/michaelwybraniec/bankly/internal/infrastructure/auditlog"
	"github.com/michaelwybraniec/bankly/internal/infrastructure/config"
	"github.com/michaelwybraniec/bankly/internal/infrastructure/logger"
	"github.com/michaelwybraniec/bankly/internal/infrastructure/metrics"
	"github.com/michaelwybraniec/bankly/internal/infrastructure/postgres"
	"github.com/michaelwybraniec/bankly/internal/infrastructure/redis"
	"github.com/michaelwybraniec/bankly/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "bankly-audit",
	})
	log.Logger = appLogger

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, "migrations"); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Open the local append-only audit log
	logWriter, err := auditlog.Open(cfg.AuditLogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.AuditLogPath).Msg("failed to open audit log")
	}
	defer logWriter.Close()

	// Initialize metrics
	m := metrics.New()

	// Initialize repositories
	auditRepo := postgresRepo.NewAuditRepository(pool)
	dedupeCache := redisRepo.NewDedupeCache(redisClient)
	retrier := postgresRepo.NewRetrier()

	// Initialize use case
	auditUC := usecase.NewAuditUseCase(usecase.AuditConfig{
		AuditRepo: auditRepo,
		LogWriter: logWriter,
		Dedupe:    dedupeCache,
		Retrier:   retrier,
		Counters:  m,
		Logger:    appLogger,
		DedupeTTL: cfg.DedupeTTL,
	})

	// Initialize consumer
	reader := kafkaAdapter.NewReader(kafkaAdapter.ReaderConfig{
		Brokers:       cfg.KafkaBrokers,
		Topic:         cfg.KafkaTopic,
		GroupID:       cfg.KafkaGroupID,
		FromBeginning: cfg.KafkaFromBeginning,
	})
	c := consumer.New(consumer.Config{
		Reader:   reader,
		Recorder: auditUC,
		Metrics:  m,
		Logger:   appLogger,
	})

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		if err := c.Run(consumerCtx); err != nil {
			log.Error().Err(err).Msg("consumer exited with error")
		}
	}()

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(pool, redisClient)
	auditHandler := handler.NewAuditHandler(auditUC)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		HealthHandler: healthHandler,
		AuditHandler:  auditHandler,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	// Drain the consumer: the in-flight message finishes and commits.
	stopConsumer()
	<-consumerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("stopped")
}
