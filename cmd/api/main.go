package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalhouse/triage/internal/api/router"
	"github.com/signalhouse/triage/internal/app/bootstrap"
	"github.com/signalhouse/triage/internal/classification"
	appconfig "github.com/signalhouse/triage/internal/config"
	"github.com/signalhouse/triage/internal/ledger"
	"github.com/signalhouse/triage/internal/observability/metrics"
	"github.com/signalhouse/triage/internal/pipeline"
	"github.com/signalhouse/triage/internal/routing"
	"github.com/signalhouse/triage/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting triage API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

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

	stores := bootstrap.BuildStores(pool)
	pipelineMetrics := metrics.NewPipelineMetrics(nil)
	service, err := bootstrap.BuildPipeline(cfg, stores, pipelineMetrics, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	queue := bootstrap.BuildQueue(ctx, cfg, logger)

	// When the queue is in-memory, the API process must also drain it.
	if _, ok := queue.(*pipeline.MemoryQueue); ok {
		worker := pipeline.NewWorker(queue, service, cfg.WorkerCount, logger)
		workerCtx, stopWorkers := context.WithCancel(ctx)
		defer stopWorkers()
		go worker.Run(workerCtx)
	}

	r := router.New(&router.Config{
		Logger:          logger,
		IngestHandler:   pipeline.NewIngestHandler(queue, service, logger),
		MessagesHandler: classification.NewHandler(stores.MessageReads, logger),
		UsageHandler:    ledger.NewHandler(stores.UsageStats, logger),
		RoutingHandler:  routing.NewHandler(stores.Registry, &http.Client{Timeout: cfg.DeliveryTimeout}, logger),
		AdminAuthSecret: cfg.AdminJWTSecret,
		MetricsHandler:  promhttp.Handler(),
		CORSOrigins:     cfg.CORSOrigins,
		IngestRateLimit: cfg.IngestRateLimit,
		IngestBurst:     cfg.IngestBurst,
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

	logger.Info("server stopped")
}
