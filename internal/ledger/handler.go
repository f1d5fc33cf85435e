package ledger

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/signalhouse/triage/pkg/logging"
)

// StatsReader serves aggregate usage queries.
type StatsReader interface {
	Stats(ctx context.Context, start, end time.Time) (RangeStats, error)
	StatsByModel(ctx context.Context, start, end time.Time) ([]ModelStats, error)
	TopChannels(ctx context.Context, limit int) ([]ChannelStats, error)
}

// Handler exposes usage reporting endpoints for the dashboard.
type Handler struct {
	reader StatsReader
	logger *logging.Logger
}

// NewHandler creates a usage stats handler.
func NewHandler(reader StatsReader, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{reader: reader, logger: logger}
}

// GetStats handles GET /api/usage/stats?days=N (default 30).
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	start, end := parseRange(r)
	stats, err := h.reader.Stats(r.Context(), start, end)
	if err != nil {
		h.logger.Error("failed to load usage stats", "error", err)
		http.Error(w, "failed to load usage stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

// GetModels handles GET /api/usage/models?days=N.
func (h *Handler) GetModels(w http.ResponseWriter, r *http.Request) {
	start, end := parseRange(r)
	stats, err := h.reader.StatsByModel(r.Context(), start, end)
	if err != nil {
		h.logger.Error("failed to load model stats", "error", err)
		http.Error(w, "failed to load model stats", http.StatusInternalServerError)
		return
	}
	if stats == nil {
		stats = []ModelStats{}
	}
	writeJSON(w, stats)
}

// GetChannels handles GET /api/usage/channels?limit=N.
func (h *Handler) GetChannels(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	stats, err := h.reader.TopChannels(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to load channel stats", "error", err)
		http.Error(w, "failed to load channel stats", http.StatusInternalServerError)
		return
	}
	if stats == nil {
		stats = []ChannelStats{}
	}
	writeJSON(w, stats)
}

func parseRange(r *http.Request) (time.Time, time.Time) {
	days := 30
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 365 {
			days = n
		}
	}
	end := time.Now().UTC()
	return end.AddDate(0, 0, -days), end
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
