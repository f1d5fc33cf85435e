package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Port)
	}
	if cfg.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("expected default model gpt-4o-mini, got %s", cfg.OpenAIModel)
	}
	if cfg.InputPricePerMillion != 0.050 {
		t.Errorf("expected default input price 0.050, got %f", cfg.InputPricePerMillion)
	}
	if cfg.OutputPricePerMillion != 0.400 {
		t.Errorf("expected default output price 0.400, got %f", cfg.OutputPricePerMillion)
	}
	if cfg.MonitoredChannelIDs != "ALL" {
		t.Errorf("expected default channel ids ALL, got %s", cfg.MonitoredChannelIDs)
	}
	if cfg.AnalyzeTimeout != 30*time.Second {
		t.Errorf("expected default analyze timeout 30s, got %s", cfg.AnalyzeTimeout)
	}
	if cfg.IngestRateLimit != 0 {
		t.Errorf("expected ingest rate limiting off by default, got %f", cfg.IngestRateLimit)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("CHANNEL_IDS", "123,456")
	t.Setenv("PRICE_INPUT_PER_MILLION", "0.25")
	t.Setenv("WORKER_COUNT", "8")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("INGEST_RATE_LIMIT", "5")
	t.Setenv("INGEST_BURST", "10")

	cfg := Load()

	if cfg.Port != "9999" {
		t.Errorf("expected port 9999, got %s", cfg.Port)
	}
	if cfg.MonitoredChannelIDs != "123,456" {
		t.Errorf("expected channel ids 123,456, got %s", cfg.MonitoredChannelIDs)
	}
	if cfg.InputPricePerMillion != 0.25 {
		t.Errorf("expected input price 0.25, got %f", cfg.InputPricePerMillion)
	}
	if cfg.WorkerCount != 8 {
		t.Errorf("expected worker count 8, got %d", cfg.WorkerCount)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Errorf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.IngestRateLimit != 5 {
		t.Errorf("expected ingest rate limit 5, got %f", cfg.IngestRateLimit)
	}
	if cfg.IngestBurst != 10 {
		t.Errorf("expected ingest burst 10, got %d", cfg.IngestBurst)
	}
}
