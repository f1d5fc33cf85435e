package ledger

import (
	"context"
	"time"

	"github.com/signalhouse/triage/internal/analysis"
	"github.com/signalhouse/triage/pkg/logging"
)

// Writer appends usage rows.
type Writer interface {
	Insert(ctx context.Context, rec UsageRecord) error
}

// Service records every inference attempt for billing visibility.
type Service struct {
	writer  Writer
	pricing Pricing
	logger  *logging.Logger
}

// NewService creates a ledger service.
func NewService(writer Writer, pricing Pricing, logger *logging.Logger) *Service {
	if writer == nil {
		panic("ledger: writer required")
	}
	if pricing == (Pricing{}) {
		pricing = DefaultPricing
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{writer: writer, pricing: pricing, logger: logger}
}

// Pricing returns the configured token pricing.
func (s *Service) Pricing() Pricing {
	return s.pricing
}

// RecordUsage appends one attempt row, computing costs from token counts.
// attemptErr marks the attempt as failed. A ledger write failure is logged
// and swallowed so message processing continues.
func (s *Service) RecordUsage(ctx context.Context, msg analysis.Message, a analysis.Analysis, usage analysis.TokenUsage, model string, duration time.Duration, attemptErr error) {
	cost := s.pricing.Calculate(usage.PromptTokens, usage.CompletionTokens)

	rec := UsageRecord{
		MessageID:        msg.ID,
		AuthorID:         msg.Author.ID,
		AuthorTag:        msg.Author.Tag,
		ChannelID:        msg.Channel.ID,
		ChannelName:      msg.Channel.Name,
		ServerID:         msg.Server.ID,
		ServerName:       msg.Server.Name,
		Model:            model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		InputCost:        cost.Input,
		OutputCost:       cost.Output,
		TotalCost:        cost.Total,
		SupportStatus:    string(a.SupportStatus),
		Tone:             string(a.Tone),
		Priority:         string(a.Priority),
		SentimentScore:   a.Sentiment.Score,
		NeedsResponse:    a.NeedsResponse,
		Summary:          a.Summary,
		ProcessingMs:     duration.Milliseconds(),
	}
	if attemptErr != nil {
		rec.ErrorOccurred = true
		rec.ErrorMessage = attemptErr.Error()
	}

	if err := s.writer.Insert(ctx, rec); err != nil {
		s.logger.Error("failed to record usage", "message_id", msg.ID, "error", err)
		return
	}
	s.logger.Debug("usage recorded",
		"message_id", msg.ID,
		"total_tokens", usage.TotalTokens,
		"total_cost", cost.Total,
	)
}
