package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists usage rows in Postgres.
type Store struct {
	pool rowQuerier
}

// NewStore creates a usage store backed by pgxpool.
func NewStore(pool *pgxpool.Pool) *Store {
	if pool == nil {
		panic("ledger: pgx pool required")
	}
	return &Store{pool: pool}
}

func newStoreWithQuerier(q rowQuerier) *Store {
	if q == nil {
		panic("ledger: querier required")
	}
	return &Store{pool: q}
}

// Insert appends one usage row.
func (s *Store) Insert(ctx context.Context, rec UsageRecord) error {
	query := `
		INSERT INTO usage (
			message_id, author_id, author_tag,
			channel_id, channel_name, server_id, server_name,
			model, prompt_tokens, completion_tokens, total_tokens,
			input_cost, output_cost, total_cost,
			support_status, tone, priority, sentiment_score,
			needs_response, summary, processing_time_ms,
			error_occurred, error_message
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23
		)
	`
	var errMsg *string
	if rec.ErrorMessage != "" {
		errMsg = &rec.ErrorMessage
	}
	if _, err := s.pool.Exec(ctx, query,
		rec.MessageID, rec.AuthorID, rec.AuthorTag,
		rec.ChannelID, rec.ChannelName, rec.ServerID, rec.ServerName,
		rec.Model, rec.PromptTokens, rec.CompletionTokens, rec.TotalTokens,
		rec.InputCost, rec.OutputCost, rec.TotalCost,
		rec.SupportStatus, rec.Tone, rec.Priority, rec.SentimentScore,
		rec.NeedsResponse, rec.Summary, rec.ProcessingMs,
		rec.ErrorOccurred, errMsg,
	); err != nil {
		return fmt.Errorf("ledger: insert usage: %w", err)
	}
	return nil
}

// Stats aggregates usage rows between start and end.
func (s *Store) Stats(ctx context.Context, start, end time.Time) (RangeStats, error) {
	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(total_tokens), 0),
			COALESCE(SUM(total_cost), 0),
			COALESCE(AVG(total_tokens), 0),
			COALESCE(AVG(total_cost), 0),
			MIN(created_at),
			MAX(created_at)
		FROM usage
		WHERE created_at BETWEEN $1 AND $2
	`
	var stats RangeStats
	if err := s.pool.QueryRow(ctx, query, start, end).Scan(
		&stats.TotalMessages,
		&stats.TotalTokens,
		&stats.TotalCost,
		&stats.AvgTokensPerMessage,
		&stats.AvgCostPerMessage,
		&stats.FirstMessage,
		&stats.LastMessage,
	); err != nil {
		return RangeStats{}, fmt.Errorf("ledger: usage stats: %w", err)
	}
	return stats, nil
}

// StatsByModel aggregates usage per model between start and end, ordered by
// total cost descending.
func (s *Store) StatsByModel(ctx context.Context, start, end time.Time) ([]ModelStats, error) {
	query := `
		SELECT
			model,
			COUNT(*),
			COALESCE(SUM(total_tokens), 0),
			COALESCE(SUM(total_cost), 0),
			COALESCE(AVG(processing_time_ms), 0)
		FROM usage
		WHERE created_at BETWEEN $1 AND $2
		GROUP BY model
		ORDER BY SUM(total_cost) DESC
	`
	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("ledger: usage by model: %w", err)
	}
	defer rows.Close()

	var out []ModelStats
	for rows.Next() {
		var m ModelStats
		if err := rows.Scan(&m.Model, &m.MessageCount, &m.TotalTokens, &m.TotalCost, &m.AvgProcessingTime); err != nil {
			return nil, fmt.Errorf("ledger: scan model stats: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: iterate model stats: %w", err)
	}
	return out, nil
}

// TopChannels returns the most expensive channels by total cost.
func (s *Store) TopChannels(ctx context.Context, limit int) ([]ChannelStats, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
		SELECT
			channel_id,
			channel_name,
			server_name,
			COUNT(*),
			COALESCE(SUM(total_tokens), 0),
			COALESCE(SUM(total_cost), 0),
			COALESCE(AVG(sentiment_score), 0)
		FROM usage
		GROUP BY channel_id, channel_name, server_name
		ORDER BY SUM(total_cost) DESC
		LIMIT $1
	`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: top channels: %w", err)
	}
	defer rows.Close()

	var out []ChannelStats
	for rows.Next() {
		var c ChannelStats
		if err := rows.Scan(&c.ChannelID, &c.ChannelName, &c.ServerName, &c.MessageCount, &c.TotalTokens, &c.TotalCost, &c.AvgSentiment); err != nil {
			return nil, fmt.Errorf("ledger: scan channel stats: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: iterate channel stats: %w", err)
	}
	return out, nil
}
