package classification

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory classification store used in tests and local
// development. It enforces the same one-row-per-message-id semantics as the
// Postgres store.
type MemoryStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string]MessageLog
}

// NewMemoryStore creates an empty in-memory classification store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[string]MessageLog)}
}

// Upsert inserts or overwrites the classification for log.MessageID,
// preserving the original row id and creation timestamp.
func (m *MemoryStore) Upsert(_ context.Context, log MessageLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.rows[log.MessageID]; ok {
		log.ID = existing.ID
		log.CreatedAt = existing.CreatedAt
	} else {
		m.nextID++
		log.ID = m.nextID
		if log.CreatedAt.IsZero() {
			log.CreatedAt = time.Now().UTC()
		}
	}
	m.rows[log.MessageID] = log
	return nil
}

// GetRecent returns the newest classifications first, narrowed by the
// optional filter fields.
func (m *MemoryStore) GetRecent(_ context.Context, f ListFilter) ([]MessageLog, error) {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var logs []MessageLog
	for _, log := range m.sorted() {
		if matchesListFilter(log, f) {
			logs = append(logs, log)
		}
	}
	if f.Offset >= len(logs) {
		return nil, nil
	}
	logs = logs[f.Offset:]
	if len(logs) > f.Limit {
		logs = logs[:f.Limit]
	}
	return logs, nil
}

func matchesListFilter(log MessageLog, f ListFilter) bool {
	if f.Priority != "" && log.Priority != f.Priority {
		return false
	}
	if f.SupportStatus != "" && log.SupportStatus != f.SupportStatus {
		return false
	}
	if f.Tone != "" && log.Tone != f.Tone {
		return false
	}
	if f.ChannelID != "" && log.ChannelID != f.ChannelID {
		return false
	}
	if f.AuthorID != "" && log.AuthorID != f.AuthorID {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(log.MessageContent), needle) &&
			!strings.Contains(strings.ToLower(log.AuthorTag), needle) &&
			!strings.Contains(strings.ToLower(log.Summary), needle) {
			return false
		}
	}
	return true
}

// GetByChannel returns the newest classifications for one channel.
func (m *MemoryStore) GetByChannel(_ context.Context, channelID string, limit int) ([]MessageLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []MessageLog
	for _, l := range m.sorted() {
		if l.ChannelID == channelID {
			out = append(out, l)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// GetNeedingResponse returns unanswered messages, critical first.
func (m *MemoryStore) GetNeedingResponse(_ context.Context) ([]MessageLog, error) {
	var out []MessageLog
	for _, l := range m.sorted() {
		if l.NeedsResponse {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return priorityRank(out[i].Priority) < priorityRank(out[j].Priority)
	})
	return out, nil
}

// GetStats summarizes the last 24 hours.
func (m *MemoryStore) GetStats(_ context.Context) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	var stats Stats
	var sentimentSum float64
	for _, l := range m.rows {
		if l.CreatedAt.Before(cutoff) {
			continue
		}
		stats.TotalMessages++
		if l.NeedsResponse {
			stats.NeedsResponseCount++
		}
		switch l.Priority {
		case "critical":
			stats.CriticalCount++
		case "high":
			stats.HighCount++
		}
		sentimentSum += l.SentimentScore
		stats.TotalTokens += int64(l.TotalTokens)
		stats.TotalCost += l.ProcessingCost
	}
	if stats.TotalMessages > 0 {
		stats.AvgSentiment = sentimentSum / float64(stats.TotalMessages)
	}
	return stats, nil
}

// Count returns the number of stored rows.
func (m *MemoryStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// Get returns the stored row for a message id, if any.
func (m *MemoryStore) Get(messageID string) (MessageLog, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[messageID]
	return l, ok
}

func (m *MemoryStore) sorted() []MessageLog {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]MessageLog, 0, len(m.rows))
	for _, l := range m.rows {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func priorityRank(p string) int {
	switch p {
	case "critical":
		return 1
	case "high":
		return 2
	case "medium":
		return 3
	case "low":
		return 4
	default:
		return 5
	}
}
