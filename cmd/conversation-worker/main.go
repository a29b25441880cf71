package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/Rocketman2178/kairo-platform/cmd/mainconfig"
	"github.com/Rocketman2178/kairo-platform/internal/app/bootstrap"
	appconfig "github.com/Rocketman2178/kairo-platform/internal/config"
	"github.com/Rocketman2178/kairo-platform/internal/conversation"
	"github.com/Rocketman2178/kairo-platform/internal/observability/metrics"
	"github.com/Rocketman2178/kairo-platform/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting kairo-platform conversation worker", "env", cfg.Env)

	ctx := context.Background()
	m := metrics.NewMatchingMetrics(nil)

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

	sqsClient := sqs.NewFromConfig(awsCfg)
	queue := conversation.NewSQSQueue(sqsClient, cfg.MatchQueueURL)
	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	jobStore := conversation.NewJobStore(dynamoClient, cfg.ConversationJobsTable, logger)

	worker := conversation.NewWorker(engine, queue, jobStore, logger,
		conversation.WithWorkerPoolSize(cfg.WorkerCount),
	)
	worker.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down conversation worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := worker.Shutdown(shutdownCtx); err != nil {
		logger.Error("conversation worker shutdown timed out", "error", err)
		os.Exit(1)
	}
	logger.Info("conversation worker stopped")
}
