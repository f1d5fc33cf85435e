package delivery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is the audit trail for one webhook send attempt. DestinationID is
// nil for the legacy fallback webhook.
type Record struct {
	ID              int64      `json:"id"`
	MessageID       string     `json:"message_id"`
	DestinationID   *uuid.UUID `json:"destination_id,omitempty"`
	DestinationName string     `json:"destination_name"`
	WebhookURL      string     `json:"webhook_url"`
	Success         bool       `json:"success"`
	StatusCode      int        `json:"status_code"`
	Error           string     `json:"error,omitempty"`
	SentAt          time.Time  `json:"sent_at"`
}

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// LogStore persists delivery attempts in Postgres. Uniqueness per
// (message, destination) is enforced by the table's constraints, so a
// reprocessed message cannot double-log a send to the same destination.
type LogStore struct {
	db rowQuerier
}

// NewLogStore creates a delivery log store backed by the given pool.
func NewLogStore(pool *pgxpool.Pool) *LogStore {
	if pool == nil {
		panic("delivery: pool required")
	}
	return &LogStore{db: pool}
}

func newLogStoreWithQuerier(db rowQuerier) *LogStore {
	return &LogStore{db: db}
}

// Append records one send attempt. It returns false when a record for the
// same message and destination already exists.
func (s *LogStore) Append(ctx context.Context, rec Record) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		INSERT INTO delivery_log (
			message_id, destination_id, destination_name, webhook_url,
			success, status_code, error, sent_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT DO NOTHING`,
		rec.MessageID, rec.DestinationID, rec.DestinationName, rec.WebhookURL,
		rec.Success, rec.StatusCode, nullable(rec.Error), rec.SentAt,
	)
	if err != nil {
		return false, fmt.Errorf("delivery: append log: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ForMessage returns all logged attempts for one message, oldest first.
func (s *LogStore) ForMessage(ctx context.Context, messageID string) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, message_id, destination_id, destination_name, webhook_url,
			success, status_code, COALESCE(error, ''), sent_at
		FROM delivery_log
		WHERE message_id = $1
		ORDER BY sent_at`, messageID)
	if err != nil {
		return nil, fmt.Errorf("delivery: query log: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.MessageID, &r.DestinationID, &r.DestinationName, &r.WebhookURL,
			&r.Success, &r.StatusCode, &r.Error, &r.SentAt,
		); err != nil {
			return nil, fmt.Errorf("delivery: scan log: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("delivery: iterate log: %w", err)
	}
	return out, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MemoryLogStore is an in-memory delivery log with the same uniqueness
// semantics as the Postgres store.
type MemoryLogStore struct {
	mu     sync.Mutex
	nextID int64
	rows   []Record
	seen   map[string]bool
}

// NewMemoryLogStore creates an empty in-memory delivery log.
func NewMemoryLogStore() *MemoryLogStore {
	return &MemoryLogStore{seen: make(map[string]bool)}
}

// Append records one send attempt, rejecting duplicates per message and
// destination.
func (m *MemoryLogStore) Append(_ context.Context, rec Record) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := rec.MessageID + "|"
	if rec.DestinationID != nil {
		key += rec.DestinationID.String()
	}
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	m.nextID++
	rec.ID = m.nextID
	m.rows = append(m.rows, rec)
	return true, nil
}

// Records returns a copy of all logged attempts.
func (m *MemoryLogStore) Records() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, len(m.rows))
	copy(out, m.rows)
	return out
}
