package ledger

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Writer used in tests and local development.
type MemoryStore struct {
	mu   sync.Mutex
	rows []UsageRecord
}

// NewMemoryStore creates an empty in-memory usage store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Insert appends one usage row.
func (m *MemoryStore) Insert(_ context.Context, rec UsageRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.ID = int64(len(m.rows) + 1)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	m.rows = append(m.rows, rec)
	return nil
}

// Records returns a copy of all recorded rows.
func (m *MemoryStore) Records() []UsageRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]UsageRecord, len(m.rows))
	copy(out, m.rows)
	return out
}

// Stats aggregates usage over [start, end].
func (m *MemoryStore) Stats(_ context.Context, start, end time.Time) (RangeStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats RangeStats
	for _, rec := range m.rows {
		if rec.CreatedAt.Before(start) || rec.CreatedAt.After(end) {
			continue
		}
		stats.TotalMessages++
		stats.TotalTokens += int64(rec.TotalTokens)
		stats.TotalCost += rec.TotalCost
		created := rec.CreatedAt
		if stats.FirstMessage == nil || created.Before(*stats.FirstMessage) {
			stats.FirstMessage = &created
		}
		if stats.LastMessage == nil || created.After(*stats.LastMessage) {
			stats.LastMessage = &created
		}
	}
	if stats.TotalMessages > 0 {
		stats.AvgTokensPerMessage = float64(stats.TotalTokens) / float64(stats.TotalMessages)
		stats.AvgCostPerMessage = stats.TotalCost / float64(stats.TotalMessages)
	}
	return stats, nil
}

// StatsByModel aggregates usage per model over [start, end], highest cost
// first.
func (m *MemoryStore) StatsByModel(_ context.Context, start, end time.Time) ([]ModelStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	agg := make(map[string]*ModelStats)
	ms := make(map[string]int64)
	for _, rec := range m.rows {
		if rec.CreatedAt.Before(start) || rec.CreatedAt.After(end) {
			continue
		}
		s, ok := agg[rec.Model]
		if !ok {
			s = &ModelStats{Model: rec.Model}
			agg[rec.Model] = s
		}
		s.MessageCount++
		s.TotalTokens += int64(rec.TotalTokens)
		s.TotalCost += rec.TotalCost
		ms[rec.Model] += rec.ProcessingMs
	}
	out := make([]ModelStats, 0, len(agg))
	for model, s := range agg {
		if s.MessageCount > 0 {
			s.AvgProcessingTime = float64(ms[model]) / float64(s.MessageCount)
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalCost > out[j].TotalCost })
	return out, nil
}

// TopChannels returns the most expensive channels.
func (m *MemoryStore) TopChannels(_ context.Context, limit int) ([]ChannelStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}
	agg := make(map[string]*ChannelStats)
	sentiment := make(map[string]float64)
	for _, rec := range m.rows {
		s, ok := agg[rec.ChannelID]
		if !ok {
			s = &ChannelStats{
				ChannelID:   rec.ChannelID,
				ChannelName: rec.ChannelName,
				ServerName:  rec.ServerName,
			}
			agg[rec.ChannelID] = s
		}
		s.MessageCount++
		s.TotalTokens += int64(rec.TotalTokens)
		s.TotalCost += rec.TotalCost
		sentiment[rec.ChannelID] += rec.SentimentScore
	}
	out := make([]ChannelStats, 0, len(agg))
	for id, s := range agg {
		if s.MessageCount > 0 {
			s.AvgSentiment = sentiment[id] / float64(s.MessageCount)
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TotalCost > out[j].TotalCost })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
