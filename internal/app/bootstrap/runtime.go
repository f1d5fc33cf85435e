package bootstrap

import (
	"context"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/signalhouse/triage/internal/analysis"
	"github.com/signalhouse/triage/internal/classification"
	appconfig "github.com/signalhouse/triage/internal/config"
	"github.com/signalhouse/triage/internal/delivery"
	"github.com/signalhouse/triage/internal/ledger"
	"github.com/signalhouse/triage/internal/observability/metrics"
	"github.com/signalhouse/triage/internal/pipeline"
	"github.com/signalhouse/triage/internal/routing"
	"github.com/signalhouse/triage/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildQueue picks the ingest queue: in-memory when USE_MEMORY_QUEUE=true or
// Redis is unreachable, Redis otherwise.
func BuildQueue(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) pipeline.Queue {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.UseMemoryQueue {
		logger.Info("using in-memory ingest queue")
		return pipeline.NewMemoryQueue(0)
	}
	client := BuildRedisClient(ctx, cfg, logger, true)
	if client == nil {
		logger.Warn("falling back to in-memory ingest queue")
		return pipeline.NewMemoryQueue(0)
	}
	return pipeline.NewRedisQueue(client, cfg.IngestQueueKey)
}

// DestinationRegistry is the full registry surface: admin CRUD plus the
// enabled-set snapshot the router consumes.
type DestinationRegistry interface {
	routing.RegistryAPI
	ListEnabled(ctx context.Context) ([]routing.Destination, error)
}

// Stores bundles the persistence layer behind the pipeline.
type Stores struct {
	Usage        ledger.Writer
	UsageStats   ledger.StatsReader
	Messages     classification.Writer
	MessageReads classification.Reader
	Registry     DestinationRegistry
	DeliveryLog  delivery.Logger
}

// BuildStores wires Postgres-backed stores when a pool is given, in-memory
// stores otherwise.
func BuildStores(pool *pgxpool.Pool) Stores {
	if pool == nil {
		usage := ledger.NewMemoryStore()
		msgs := classification.NewMemoryStore()
		return Stores{
			Usage:        usage,
			UsageStats:   usage,
			Messages:     msgs,
			MessageReads: msgs,
			Registry:     routing.NewMemoryRegistry(),
			DeliveryLog:  delivery.NewMemoryLogStore(),
		}
	}
	usage := ledger.NewStore(pool)
	msgs := classification.NewStore(pool)
	return Stores{
		Usage:        usage,
		UsageStats:   usage,
		Messages:     msgs,
		MessageReads: msgs,
		Registry:     routing.NewRegistry(pool),
		DeliveryLog:  delivery.NewLogStore(pool),
	}
}

// BuildPipeline assembles the full message pipeline from configuration.
func BuildPipeline(cfg *appconfig.Config, stores Stores, m *metrics.PipelineMetrics, logger *logging.Logger) (*pipeline.Service, error) {
	pricing := ledger.Pricing{
		InputPerMillion:  cfg.InputPricePerMillion,
		OutputPerMillion: cfg.OutputPricePerMillion,
	}

	client, err := analysis.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	if err != nil {
		return nil, err
	}
	engine := analysis.NewEngine(client, cfg.OpenAIModel, cfg.MaxTokens, cfg.AnalyzeTimeout, logger)

	dispatcher := delivery.NewDispatcher(
		&http.Client{Timeout: cfg.DeliveryTimeout},
		stores.DeliveryLog,
		logger,
	)

	svc := pipeline.NewService(pipeline.ServiceParams{
		Filter:         pipeline.NewChannelFilter(splitChannels(cfg.MonitoredChannelIDs)),
		Analyzer:       engine,
		Ledger:         ledger.NewService(stores.Usage, pricing, logger),
		Classification: classification.NewService(stores.Messages, pricing, logger),
		Destinations:   stores.Registry,
		Router:         routing.NewRouter(logger),
		Dispatcher:     dispatcher,
		Metrics:        m,
		Model:          cfg.OpenAIModel,
		Logger:         logger,
	})
	return svc, nil
}

func splitChannels(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
