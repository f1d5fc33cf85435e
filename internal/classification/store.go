package classification

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists message classifications in Postgres, one row per message id.
type Store struct {
	pool rowQuerier
}

// NewStore creates a classification store backed by pgxpool.
func NewStore(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("classification: pgx pool required")
	}
	return &Store{pool: pool}
}

func newStoreWithQuerier(q rowQuerier) *Store {
	if q == nil {
		panic("classification: querier required")
	}
	return &Store{pool: q}
}

const logColumns = `
	id, created_at, message_id, message_content,
	author_id, author_tag, author_avatar,
	channel_id, channel_name, server_id, server_name,
	support_status, tone, priority, sentiment_score, sentiment_confidence,
	needs_response, summary, topics, suggested_actions,
	customer_mood_description, customer_mood_emoji,
	has_code, has_error, has_screenshot, mentions_version, attachment_count,
	model_used, prompt_tokens, completion_tokens, total_tokens,
	processing_cost, processing_time_ms,
	is_thread, parent_channel_id, mentioned_users, mentioned_roles, mentions_everyone
`

// Upsert inserts a classification row, or overwrites every analysis-derived
// column when the message id already exists. The row id and creation
// timestamp are never touched, so reprocessing is idempotent.
func (s *Store) Upsert(ctx context.Context, log MessageLog) error {
	query := `
		INSERT INTO message_logs (
			message_id, message_content,
			author_id, author_tag, author_avatar,
			channel_id, channel_name, server_id, server_name,
			support_status, tone, priority, sentiment_score, sentiment_confidence,
			needs_response, summary, topics, suggested_actions,
			customer_mood_description, customer_mood_emoji,
			has_code, has_error, has_screenshot, mentions_version, attachment_count,
			model_used, prompt_tokens, completion_tokens, total_tokens,
			processing_cost, processing_time_ms,
			is_thread, parent_channel_id, mentioned_users, mentioned_roles, mentions_everyone
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
			$31, $32, $33, $34, $35, $36
		)
		ON CONFLICT (message_id) DO UPDATE SET
			support_status = EXCLUDED.support_status,
			tone = EXCLUDED.tone,
			priority = EXCLUDED.priority,
			sentiment_score = EXCLUDED.sentiment_score,
			sentiment_confidence = EXCLUDED.sentiment_confidence,
			needs_response = EXCLUDED.needs_response,
			summary = EXCLUDED.summary,
			topics = EXCLUDED.topics,
			suggested_actions = EXCLUDED.suggested_actions,
			customer_mood_description = EXCLUDED.customer_mood_description,
			customer_mood_emoji = EXCLUDED.customer_mood_emoji,
			has_code = EXCLUDED.has_code,
			has_error = EXCLUDED.has_error,
			has_screenshot = EXCLUDED.has_screenshot,
			mentions_version = EXCLUDED.mentions_version,
			model_used = EXCLUDED.model_used,
			prompt_tokens = EXCLUDED.prompt_tokens,
			completion_tokens = EXCLUDED.completion_tokens,
			total_tokens = EXCLUDED.total_tokens,
			processing_cost = EXCLUDED.processing_cost,
			processing_time_ms = EXCLUDED.processing_time_ms
	`
	if _, err := s.pool.Exec(ctx, query,
		log.MessageID, log.MessageContent,
		log.AuthorID, log.AuthorTag, log.AuthorAvatar,
		log.ChannelID, log.ChannelName, log.ServerID, log.ServerName,
		log.SupportStatus, log.Tone, log.Priority, log.SentimentScore, log.SentimentConfidence,
		log.NeedsResponse, log.Summary, log.Topics, log.SuggestedActions,
		log.MoodDescription, log.MoodEmoji,
		log.HasCode, log.HasError, log.HasScreenshot, log.MentionsVersion, log.AttachmentCount,
		log.Model, log.PromptTokens, log.CompletionTokens, log.TotalTokens,
		log.ProcessingCost, log.ProcessingMs,
		log.IsThread, nullable(log.ParentChannelID), log.MentionedUsers, log.MentionedRoles, log.MentionsEveryone,
	); err != nil {
		return fmt.Errorf("classification: upsert message log: %w", err)
	}
	return nil
}

// GetRecent returns the newest classifications first, narrowed by the
// optional filter fields.
func (s *Store) GetRecent(ctx context.Context, f ListFilter) ([]MessageLog, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var where []string
	var args []any
	eq := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where = append(where, fmt.Sprintf(
			"(message_content ILIKE $%d OR author_tag ILIKE $%d OR summary ILIKE $%d)",
			len(args), len(args), len(args)))
	}
	eq("priority", f.Priority)
	eq("support_status", f.SupportStatus)
	eq("tone", f.Tone)
	eq("channel_id", f.ChannelID)
	eq("author_id", f.AuthorID)

	query := `SELECT ` + logColumns + ` FROM message_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	return s.queryLogs(ctx, query, args...)
}

// GetByChannel returns the newest classifications for one channel.
func (s *Store) GetByChannel(ctx context.Context, channelID string, limit int) ([]MessageLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + logColumns + `
		FROM message_logs
		WHERE channel_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return s.queryLogs(ctx, query, channelID, limit)
}

// GetNeedingResponse returns unanswered messages ordered by priority rank
// (critical first) then recency.
func (s *Store) GetNeedingResponse(ctx context.Context) ([]MessageLog, error) {
	query := `SELECT ` + logColumns + `
		FROM message_logs
		WHERE needs_response = true
		ORDER BY
			CASE priority
				WHEN 'critical' THEN 1
				WHEN 'high' THEN 2
				WHEN 'medium' THEN 3
				WHEN 'low' THEN 4
			END,
			created_at DESC
	`
	return s.queryLogs(ctx, query)
}

// GetStats summarizes the last 24 hours for the dashboard.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN needs_response THEN 1 END),
			COUNT(CASE WHEN priority = 'critical' THEN 1 END),
			COUNT(CASE WHEN priority = 'high' THEN 1 END),
			COALESCE(AVG(sentiment_score), 0),
			COALESCE(SUM(total_tokens), 0),
			COALESCE(SUM(processing_cost), 0)
		FROM message_logs
		WHERE created_at >= NOW() - INTERVAL '24 hours'
	`
	var stats Stats
	if err := s.pool.QueryRow(ctx, query).Scan(
		&stats.TotalMessages,
		&stats.NeedsResponseCount,
		&stats.CriticalCount,
		&stats.HighCount,
		&stats.AvgSentiment,
		&stats.TotalTokens,
		&stats.TotalCost,
	); err != nil {
		return Stats{}, fmt.Errorf("classification: stats: %w", err)
	}
	return stats, nil
}

func (s *Store) queryLogs(ctx context.Context, query string, args ...any) ([]MessageLog, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("classification: query message logs: %w", err)
	}
	defer rows.Close()

	var out []MessageLog
	for rows.Next() {
		var l MessageLog
		var parentChannelID *string
		if err := rows.Scan(
			&l.ID, &l.CreatedAt, &l.MessageID, &l.MessageContent,
			&l.AuthorID, &l.AuthorTag, &l.AuthorAvatar,
			&l.ChannelID, &l.ChannelName, &l.ServerID, &l.ServerName,
			&l.SupportStatus, &l.Tone, &l.Priority, &l.SentimentScore, &l.SentimentConfidence,
			&l.NeedsResponse, &l.Summary, &l.Topics, &l.SuggestedActions,
			&l.MoodDescription, &l.MoodEmoji,
			&l.HasCode, &l.HasError, &l.HasScreenshot, &l.MentionsVersion, &l.AttachmentCount,
			&l.Model, &l.PromptTokens, &l.CompletionTokens, &l.TotalTokens,
			&l.ProcessingCost, &l.ProcessingMs,
			&l.IsThread, &parentChannelID, &l.MentionedUsers, &l.MentionedRoles, &l.MentionsEveryone,
		); err != nil {
			return nil, fmt.Errorf("classification: scan message log: %w", err)
		}
		if parentChannelID != nil {
			l.ParentChannelID = *parentChannelID
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("classification: iterate message logs: %w", err)
	}
	return out, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
