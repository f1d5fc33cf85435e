package pipeline

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/signalhouse/triage/internal/analysis"
	"github.com/signalhouse/triage/pkg/logging"
)

// Enqueuer is the queue surface the ingest handler needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, msg analysis.Message) error
}

// Acceptor pre-filters messages before they hit the queue.
type Acceptor interface {
	Accepts(msg analysis.Message) bool
}

// IngestHandler accepts messages from platform collectors and queues them for
// classification.
type IngestHandler struct {
	queue    Enqueuer
	acceptor Acceptor
	logger   *logging.Logger
}

// NewIngestHandler creates an ingest handler.
func NewIngestHandler(queue Enqueuer, acceptor Acceptor, logger *logging.Logger) *IngestHandler {
	if queue == nil {
		panic("pipeline: queue required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &IngestHandler{queue: queue, acceptor: acceptor, logger: logger}
}

type ingestResponse struct {
	Accepted  bool   `json:"accepted"`
	MessageID string `json:"message_id"`
	Reason    string `json:"reason,omitempty"`
}

// PostMessage handles POST /ingest/messages. Accepted messages return 202;
// messages filtered out return 200 with accepted=false so collectors do not
// retry them.
func (h *IngestHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var msg analysis.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg.ID == "" || msg.Channel.ID == "" {
		http.Error(w, "message id and channel id are required", http.StatusBadRequest)
		return
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}

	if h.acceptor != nil && !h.acceptor.Accepts(msg) {
		writeJSON(w, http.StatusOK, ingestResponse{MessageID: msg.ID, Reason: "filtered"})
		return
	}

	if err := h.queue.Enqueue(r.Context(), msg); err != nil {
		h.logger.Error("failed to enqueue message", "message_id", msg.ID, "error", err)
		http.Error(w, "failed to enqueue message", http.StatusInternalServerError)
		return
	}

	h.logger.Debug("message enqueued", "message_id", msg.ID, "channel_id", msg.Channel.ID)
	writeJSON(w, http.StatusAccepted, ingestResponse{Accepted: true, MessageID: msg.ID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
