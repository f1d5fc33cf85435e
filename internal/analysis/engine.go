package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/signalhouse/triage/pkg/logging"
)

var engineTracer = otel.Tracer("triage/analysis")

// Engine turns one message into a structured Analysis via an LLM call.
type Engine struct {
	client    LLMClient
	model     string
	maxTokens int
	timeout   time.Duration
	logger    *logging.Logger
}

// NewEngine creates an analysis engine. timeout bounds each inference call;
// there is exactly one attempt, no internal retries.
func NewEngine(client LLMClient, model string, maxTokens int, timeout time.Duration, logger *logging.Logger) *Engine {
	if client == nil {
		panic("analysis: llm client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Engine{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
		logger:    logger,
	}
}

// Model returns the configured model identifier.
func (e *Engine) Model() string {
	return e.model
}

// Analyze classifies a message. On provider error, timeout, or a malformed
// response it returns the default Analysis with zero usage and a non-nil
// error describing the failure; callers forward that error to the usage
// ledger and continue. The returned Analysis is always usable.
func (e *Engine) Analyze(ctx context.Context, msg Message, destinations []DestinationInfo) (Analysis, TokenUsage, time.Duration, error) {
	ctx, span := engineTracer.Start(ctx, "analysis.Analyze")
	defer span.End()

	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.Complete(ctx, LLMRequest{
		Model:     e.model,
		System:    buildSystemPrompt(destinations),
		Prompt:    buildPrompt(msg, destinations),
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		e.logger.Error("analysis failed, using default classification",
			"message_id", msg.ID, "error", err)
		return DefaultAnalysis(msg), TokenUsage{}, time.Since(start), err
	}

	parsed, err := parseAnalysis(resp.Text, len(destinations) > 0)
	if err != nil {
		e.logger.Error("analysis response malformed, using default classification",
			"message_id", msg.ID, "error", err)
		return DefaultAnalysis(msg), TokenUsage{}, time.Since(start), err
	}

	return parsed, normalizeUsage(resp.Usage), time.Since(start), nil
}

// parseAnalysis decodes and validates the model's JSON reply. A reply that
// fails enum validation counts as a failed attempt, same as a provider error.
func parseAnalysis(text string, routingRequested bool) (Analysis, error) {
	var a Analysis
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return Analysis{}, fmt.Errorf("analysis: decode response: %w", err)
	}

	if !a.SupportStatus.Valid() {
		return Analysis{}, fmt.Errorf("analysis: invalid support status %q", a.SupportStatus)
	}
	if !a.Tone.Valid() {
		return Analysis{}, fmt.Errorf("analysis: invalid tone %q", a.Tone)
	}
	if !a.Priority.Valid() {
		return Analysis{}, fmt.Errorf("analysis: invalid priority %q", a.Priority)
	}

	a.Sentiment.Score = clamp(a.Sentiment.Score, -1, 1)
	a.Sentiment.Confidence = clamp(a.Sentiment.Confidence, 0, 1)
	if a.Topics == nil {
		a.Topics = []string{}
	}
	if a.SuggestedActions == nil {
		a.SuggestedActions = []string{}
	}

	// The schema only includes routing when destinations exist; drop any
	// suggestion the model volunteers outside that contract.
	if !routingRequested {
		a.Routing = nil
	} else if a.Routing != nil {
		a.Routing.Confidence = clamp(a.Routing.Confidence, 0, 1)
	}

	return a, nil
}

// normalizeUsage computes the total as prompt+completion when both are
// reported, otherwise keeps the provider-reported total.
func normalizeUsage(u TokenUsage) TokenUsage {
	if u.PromptTokens > 0 && u.CompletionTokens > 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
