package classification

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/signalhouse/triage/pkg/logging"
)

// Reader serves classification queries for the dashboard.
type Reader interface {
	GetRecent(ctx context.Context, f ListFilter) ([]MessageLog, error)
	GetByChannel(ctx context.Context, channelID string, limit int) ([]MessageLog, error)
	GetNeedingResponse(ctx context.Context) ([]MessageLog, error)
	GetStats(ctx context.Context) (Stats, error)
}

// Handler exposes message-log endpoints for the dashboard.
type Handler struct {
	reader Reader
	logger *logging.Logger
}

// NewHandler creates a message-log handler.
func NewHandler(reader Reader, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{reader: reader, logger: logger}
}

// ListMessagesResponse is the response for message listings.
type ListMessagesResponse struct {
	Messages []MessageLog `json:"messages"`
	Count    int          `json:"count"`
	Offset   int          `json:"offset"`
	Limit    int          `json:"limit"`
}

// ListRecent handles GET /api/messages with optional search, priority,
// support_status, tone, channel_id and author_id filters.
func (h *Handler) ListRecent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ListFilter{
		Limit:         queryInt(r, "limit", 50, 200),
		Offset:        queryInt(r, "offset", 0, 1<<20),
		Search:        q.Get("search"),
		Priority:      q.Get("priority"),
		SupportStatus: q.Get("support_status"),
		Tone:          q.Get("tone"),
		ChannelID:     q.Get("channel_id"),
		AuthorID:      q.Get("author_id"),
	}

	logs, err := h.reader.GetRecent(r.Context(), f)
	if err != nil {
		h.logger.Error("failed to list messages", "error", err)
		http.Error(w, "failed to list messages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, ListMessagesResponse{
		Messages: orEmpty(logs),
		Count:    len(logs),
		Offset:   f.Offset,
		Limit:    f.Limit,
	})
}

// ListByChannel handles GET /api/messages/channel/{channelID}.
func (h *Handler) ListByChannel(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")
	if channelID == "" {
		http.Error(w, "missing channel id", http.StatusBadRequest)
		return
	}
	limit := queryInt(r, "limit", 50, 200)

	logs, err := h.reader.GetByChannel(r.Context(), channelID, limit)
	if err != nil {
		h.logger.Error("failed to list channel messages", "error", err, "channel_id", channelID)
		http.Error(w, "failed to list messages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, ListMessagesResponse{
		Messages: orEmpty(logs),
		Count:    len(logs),
		Limit:    limit,
	})
}

// ListNeedingResponse handles GET /api/messages/needing-response.
func (h *Handler) ListNeedingResponse(w http.ResponseWriter, r *http.Request) {
	logs, err := h.reader.GetNeedingResponse(r.Context())
	if err != nil {
		h.logger.Error("failed to list messages needing response", "error", err)
		http.Error(w, "failed to list messages", http.StatusInternalServerError)
		return
	}
	writeJSON(w, ListMessagesResponse{
		Messages: orEmpty(logs),
		Count:    len(logs),
	})
}

// GetStats handles GET /api/messages/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reader.GetStats(r.Context())
	if err != nil {
		h.logger.Error("failed to load message stats", "error", err)
		http.Error(w, "failed to load stats", http.StatusInternalServerError)
		return
	}
	writeJSON(w, stats)
}

func queryInt(r *http.Request, key string, def, max int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > max {
		return def
	}
	return n
}

func orEmpty(logs []MessageLog) []MessageLog {
	if logs == nil {
		return []MessageLog{}
	}
	return logs
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
