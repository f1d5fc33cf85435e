package pipeline

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalhouse/triage/internal/analysis"
	"github.com/signalhouse/triage/internal/delivery"
	"github.com/signalhouse/triage/internal/observability/metrics"
	"github.com/signalhouse/triage/internal/routing"
	"github.com/signalhouse/triage/pkg/logging"
)

var pipelineTracer = otel.Tracer("triage/pipeline")

// Analyzer produces a classification for one message.
type Analyzer interface {
	Analyze(ctx context.Context, msg analysis.Message, destinations []analysis.DestinationInfo) (analysis.Analysis, analysis.TokenUsage, time.Duration, error)
}

// UsageRecorder appends ledger entries for analysis attempts.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, msg analysis.Message, a analysis.Analysis, usage analysis.TokenUsage, model string, duration time.Duration, attemptErr error)
}

// ClassificationWriter upserts the persisted classification.
type ClassificationWriter interface {
	UpsertAnalysis(ctx context.Context, msg analysis.Message, a analysis.Analysis, usage analysis.TokenUsage, model string, duration time.Duration)
}

// DestinationSource exposes the routing configuration snapshot.
type DestinationSource interface {
	ListEnabled(ctx context.Context) ([]routing.Destination, error)
	LegacySettings(ctx context.Context) (routing.LegacySettings, error)
}

// Dispatcher sends the delivery plan.
type Dispatcher interface {
	Deliver(ctx context.Context, msg analysis.Message, a analysis.Analysis, plan routing.Plan) []delivery.Record
}

// Service runs the full pipeline for one message: analyze, persist, route,
// deliver.
type Service struct {
	filter         *ChannelFilter
	analyzer       Analyzer
	ledger         UsageRecorder
	classification ClassificationWriter
	destinations   DestinationSource
	router         *routing.Router
	dispatcher     Dispatcher
	metrics        *metrics.PipelineMetrics
	model          string
	logger         *logging.Logger
}

// ServiceParams bundles the pipeline dependencies.
type ServiceParams struct {
	Filter         *ChannelFilter
	Analyzer       Analyzer
	Ledger         UsageRecorder
	Classification ClassificationWriter
	Destinations   DestinationSource
	Router         *routing.Router
	Dispatcher     Dispatcher
	Metrics        *metrics.PipelineMetrics
	Model          string
	Logger         *logging.Logger
}

// NewService wires the pipeline.
func NewService(p ServiceParams) *Service {
	if p.Analyzer == nil {
		panic("pipeline: analyzer required")
	}
	if p.Ledger == nil {
		panic("pipeline: usage recorder required")
	}
	if p.Classification == nil {
		panic("pipeline: classification writer required")
	}
	if p.Destinations == nil {
		panic("pipeline: destination source required")
	}
	if p.Dispatcher == nil {
		panic("pipeline: dispatcher required")
	}
	if p.Filter == nil {
		p.Filter = NewChannelFilter(nil)
	}
	if p.Router == nil {
		p.Router = routing.NewRouter(p.Logger)
	}
	if p.Logger == nil {
		p.Logger = logging.Default()
	}
	return &Service{
		filter:         p.Filter,
		analyzer:       p.Analyzer,
		ledger:         p.Ledger,
		classification: p.Classification,
		destinations:   p.Destinations,
		router:         p.Router,
		dispatcher:     p.Dispatcher,
		metrics:        p.Metrics,
		model:          p.Model,
		logger:         p.Logger,
	}
}

// Accepts reports whether the service would process the message at all.
// Bot-authored messages and messages from unmonitored channels are ignored.
func (s *Service) Accepts(msg analysis.Message) bool {
	if msg.Author.Bot {
		return false
	}
	return s.filter.Allows(msg)
}

// Process runs one message through the pipeline. The destination set is read
// once at the start so the prompt and the routing pass agree on it.
func (s *Service) Process(ctx context.Context, msg analysis.Message) []delivery.Record {
	ctx, span := pipelineTracer.Start(ctx, "pipeline.Process",
		trace.WithAttributes(attribute.String("message.id", msg.ID)))
	defer span.End()

	if !s.Accepts(msg) {
		s.logger.Debug("message skipped", "message_id", msg.ID, "channel_id", msg.Channel.ID, "bot", msg.Author.Bot)
		return nil
	}

	destinations, err := s.destinations.ListEnabled(ctx)
	if err != nil {
		s.logger.Error("failed to load destinations, routing without them", "message_id", msg.ID, "error", err)
		destinations = nil
	}

	infos := make([]analysis.DestinationInfo, 0, len(destinations))
	for _, d := range destinations {
		infos = append(infos, analysis.DestinationInfo{Name: d.Name, Description: d.Description})
	}

	a, usage, took, analyzeErr := s.analyzer.Analyze(ctx, msg, infos)
	if analyzeErr != nil {
		s.logger.Warn("analysis failed, using defaults", "message_id", msg.ID, "error", analyzeErr)
	}
	s.metrics.ObserveAnalysisLatency(s.model, took.Seconds())
	s.metrics.ObserveTokens(s.model, usage.PromptTokens, usage.CompletionTokens)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.ledger.RecordUsage(ctx, msg, a, usage, s.model, took, analyzeErr)
	}()
	go func() {
		defer wg.Done()
		s.classification.UpsertAnalysis(ctx, msg, a, usage, s.model, took)
	}()
	wg.Wait()

	legacy, err := s.destinations.LegacySettings(ctx)
	if err != nil {
		s.logger.Error("failed to load legacy webhook settings", "message_id", msg.ID, "error", err)
		legacy = routing.LegacySettings{}
	}

	plan := s.router.Route(destinations, legacy, a)
	records := s.dispatcher.Deliver(ctx, msg, a, plan)

	status := "analyzed"
	if analyzeErr != nil {
		status = "defaulted"
	}
	s.metrics.ObserveMessage(status, string(a.Priority))
	for _, rec := range records {
		s.metrics.ObserveDelivery(rec.DestinationName, rec.Success)
	}

	s.logger.Info("message processed",
		"message_id", msg.ID,
		"priority", a.Priority,
		"status", a.SupportStatus,
		"deliveries", len(records),
		"duration_ms", took.Milliseconds())
	return records
}
