package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/signalhouse/triage/internal/app/bootstrap"
	appconfig "github.com/signalhouse/triage/internal/config"
	"github.com/signalhouse/triage/internal/observability/metrics"
	"github.com/signalhouse/triage/internal/pipeline"
	"github.com/signalhouse/triage/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting triage worker",
		"env", cfg.Env,
		"workers", cfg.WorkerCount,
	)

	if cfg.UseMemoryQueue {
		logger.Error("worker cannot run with USE_MEMORY_QUEUE=true; run inline workers via the API process instead")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		p, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		pool = p
		defer pool.Close()
	} else {
		logger.Warn("DATABASE_URL not set, using in-memory stores")
	}

	client := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if client == nil {
		logger.Error("redis is required for the worker")
		os.Exit(1)
	}
	defer client.Close()

	stores := bootstrap.BuildStores(pool)
	service, err := bootstrap.BuildPipeline(cfg, stores, metrics.NewPipelineMetrics(nil), logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	queue := pipeline.NewRedisQueue(client, cfg.IngestQueueKey)

	worker := pipeline.NewWorker(queue, service, cfg.WorkerCount, logger)
	worker.Run(ctx)

	logger.Info("worker stopped")
}
