package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Rocketman2178/kairo-platform/cmd/mainconfig"
	"github.com/Rocketman2178/kairo-platform/internal/api/router"
	"github.com/Rocketman2178/kairo-platform/internal/app/bootstrap"
	appconfig "github.com/Rocketman2178/kairo-platform/internal/config"
	"github.com/Rocketman2178/kairo-platform/internal/conversation"
	"github.com/Rocketman2178/kairo-platform/internal/observability/metrics"
	"github.com/Rocketman2178/kairo-platform/internal/waitlist"
	"github.com/Rocketman2178/kairo-platform/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting kairo-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	m := metrics.NewMatchingMetrics(prometheus.DefaultRegisterer)

	catalogRepo, pool, err := bootstrap.BuildCatalogRepository(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect catalog database", "error", err)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	waitlistSvc, waitlistDB, err := bootstrap.BuildWaitlistService(cfg, logger, m)
	if err != nil {
		logger.Error("failed to open waitlist database", "error", err)
		os.Exit(1)
	}
	if waitlistDB != nil {
		defer waitlistDB.Close()
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, false)
	if redisClient == nil {
		logger.Error("redis is required for conversation state", "addr", cfg.RedisAddr)
		os.Exit(1)
	}
	defer redisClient.Close()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	llm := bootstrap.BuildLLMClient(ctx, cfg, awsCfg, logger)
	matcher := bootstrap.BuildMatchingEngine(catalogRepo, cfg, logger, m)
	engine, err := bootstrap.BuildConversationEngine(ctx, cfg, matcher, catalogRepo, waitlistSvc, redisClient, llm, logger, m)
	if err != nil {
		logger.Error("failed to build conversation engine", "error", err)
		os.Exit(1)
	}

	// In memory-queue mode turns are processed in-process and the HTTP API is
	// synchronous. Otherwise jobs go through SQS and callers poll job status.
	var conversationHandler *conversation.Handler
	var orchestrator *conversation.Orchestrator
	if cfg.UseMemoryQueue {
		logger.Info("using in-memory conversation queue", "workers", cfg.WorkerCount)
		orchestrator = conversation.NewOrchestrator(engine, conversation.NewMemoryQueue(64), logger,
			conversation.WithWorkerCount(cfg.WorkerCount),
		)
		conversationHandler = conversation.NewHandler(orchestrator, nil, nil, logger)
	} else {
		sqsClient := sqs.NewFromConfig(awsCfg)
		queue := conversation.NewSQSQueue(sqsClient, cfg.MatchQueueURL)
		publisher := conversation.NewPublisher(queue, logger)
		dynamoClient := dynamodb.NewFromConfig(awsCfg)
		jobStore := conversation.NewJobStore(dynamoClient, cfg.ConversationJobsTable, logger)
		conversationHandler = conversation.NewHandler(engine, publisher, jobStore, logger)
	}

	var waitlistHandler *waitlist.Handler
	if waitlistDB != nil {
		waitlistHandler = waitlist.NewHandler(waitlist.NewRepository(waitlistDB), logger)
	}

	r := router.New(&router.Config{
		Logger:              logger,
		ConversationHandler: conversationHandler,
		WaitlistHandler:     waitlistHandler,
		MetricsHandler:      promhttp.Handler(),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  cfg.RateLimitPerSecond,
		RateLimitBurst:      cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if orchestrator != nil {
		if err := orchestrator.Shutdown(shutdownCtx); err != nil {
			logger.Error("orchestrator shutdown error", "error", err)
		}
	}

	logger.Info("server stopped")
}
