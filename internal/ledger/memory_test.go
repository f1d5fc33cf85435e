package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreStats(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	rows := []UsageRecord{
		{MessageID: "m1", Model: "gpt-4o-mini", ChannelID: "c1", ChannelName: "support", TotalTokens: 300, TotalCost: 0.3, ProcessingMs: 100, CreatedAt: base},
		{MessageID: "m2", Model: "gpt-4o-mini", ChannelID: "c1", ChannelName: "support", TotalTokens: 100, TotalCost: 0.1, ProcessingMs: 300, CreatedAt: base.Add(time.Hour)},
		{MessageID: "m3", Model: "gpt-4o", ChannelID: "c2", ChannelName: "general", TotalTokens: 500, TotalCost: 1.5, ProcessingMs: 200, CreatedAt: base.Add(2 * time.Hour)},
		{MessageID: "old", Model: "gpt-4o", ChannelID: "c2", ChannelName: "general", TotalTokens: 999, TotalCost: 9, CreatedAt: base.AddDate(0, -1, 0)},
	}
	for _, r := range rows {
		require.NoError(t, store.Insert(ctx, r))
	}

	stats, err := store.Stats(ctx, base, base.Add(3*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalMessages, "rows outside the window are excluded")
	assert.Equal(t, int64(900), stats.TotalTokens)
	assert.InDelta(t, 1.9, stats.TotalCost, 1e-9)
	assert.InDelta(t, 300, stats.AvgTokensPerMessage, 1e-9)
	require.NotNil(t, stats.FirstMessage)
	assert.Equal(t, base, *stats.FirstMessage)

	byModel, err := store.StatsByModel(ctx, base, base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, byModel, 2)
	assert.Equal(t, "gpt-4o", byModel[0].Model, "highest cost first")
	assert.InDelta(t, 200, byModel[1].AvgProcessingTime, 1e-9)

	channels, err := store.TopChannels(ctx, 1)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "c2", channels[0].ChannelID)
}
