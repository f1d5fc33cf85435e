package classification

import (
	"context"
	"time"

	"github.com/signalhouse/triage/internal/analysis"
	"github.com/signalhouse/triage/internal/ledger"
	"github.com/signalhouse/triage/pkg/logging"
)

// Writer upserts classification rows.
type Writer interface {
	Upsert(ctx context.Context, log MessageLog) error
}

// Service persists the latest analysis for each message. A store failure is
// logged and swallowed so routing still happens for the message.
type Service struct {
	writer  Writer
	pricing ledger.Pricing
	logger  *logging.Logger
}

// NewService creates a classification service.
func NewService(writer Writer, pricing ledger.Pricing, logger *logging.Logger) *Service {
	if writer == nil {
		panic("classification: writer required")
	}
	if pricing == (ledger.Pricing{}) {
		pricing = ledger.DefaultPricing
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{writer: writer, pricing: pricing, logger: logger}
}

// UpsertAnalysis saves the classification keyed by message id.
func (s *Service) UpsertAnalysis(ctx context.Context, msg analysis.Message, a analysis.Analysis, usage analysis.TokenUsage, model string, duration time.Duration) {
	cost := s.pricing.Calculate(usage.PromptTokens, usage.CompletionTokens)

	log := MessageLog{
		MessageID:      msg.ID,
		MessageContent: msg.Content,
		AuthorID:       msg.Author.ID,
		AuthorTag:      msg.Author.Tag,
		AuthorAvatar:   msg.Author.Avatar,
		ChannelID:      msg.Channel.ID,
		ChannelName:    msg.Channel.Name,
		ServerID:       msg.Server.ID,
		ServerName:     msg.Server.Name,

		SupportStatus:       string(a.SupportStatus),
		Tone:                string(a.Tone),
		Priority:            string(a.Priority),
		SentimentScore:      a.Sentiment.Score,
		SentimentConfidence: a.Sentiment.Confidence,
		NeedsResponse:       a.NeedsResponse,
		Summary:             a.Summary,
		Topics:              a.Topics,
		SuggestedActions:    a.SuggestedActions,
		MoodDescription:     a.CustomerMood.Description,
		MoodEmoji:           a.CustomerMood.Emoji,

		HasCode:         a.TechnicalDetails.HasCode,
		HasError:        a.TechnicalDetails.HasError,
		HasScreenshot:   a.TechnicalDetails.HasScreenshot,
		MentionsVersion: a.TechnicalDetails.MentionsVersion,
		AttachmentCount: len(msg.Attachments),

		Model:            model,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
		ProcessingCost:   cost.Total,
		ProcessingMs:     duration.Milliseconds(),

		IsThread:         msg.Channel.IsThread,
		ParentChannelID:  msg.Channel.ParentID,
		MentionedUsers:   msg.Mentions.Users,
		MentionedRoles:   msg.Mentions.Roles,
		MentionsEveryone: msg.Mentions.Everyone,
	}

	if err := s.writer.Upsert(ctx, log); err != nil {
		s.logger.Error("failed to save message log", "message_id", msg.ID, "error", err)
		return
	}
	s.logger.Debug("message log saved", "message_id", msg.ID)
}
