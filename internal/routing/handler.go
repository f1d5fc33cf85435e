package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/signalhouse/triage/pkg/logging"
)

// RegistryAPI is the destination store surface the handler needs.
type RegistryAPI interface {
	Create(ctx context.Context, d Destination) (Destination, error)
	Update(ctx context.Context, d Destination) (Destination, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (Destination, error)
	List(ctx context.Context) ([]Destination, error)
	LegacySettings(ctx context.Context) (LegacySettings, error)
	UpdateLegacySettings(ctx context.Context, s LegacySettings) (LegacySettings, error)
}

// Handler exposes destination and legacy-webhook management endpoints.
type Handler struct {
	registry RegistryAPI
	client   *http.Client
	logger   *logging.Logger
}

// NewHandler creates a routing admin handler.
func NewHandler(registry RegistryAPI, client *http.Client, logger *logging.Logger) *Handler {
	if registry == nil {
		panic("routing: registry required")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{registry: registry, client: client, logger: logger}
}

// ListDestinations handles GET /api/destinations.
func (h *Handler) ListDestinations(w http.ResponseWriter, r *http.Request) {
	destinations, err := h.registry.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list destinations", "error", err)
		http.Error(w, "failed to list destinations", http.StatusInternalServerError)
		return
	}
	if destinations == nil {
		destinations = []Destination{}
	}
	writeJSON(w, http.StatusOK, destinations)
}

// GetDestination handles GET /api/destinations/{destinationID}.
func (h *Handler) GetDestination(w http.ResponseWriter, r *http.Request) {
	id, ok := h.destinationID(w, r)
	if !ok {
		return
	}
	d, err := h.registry.Get(r.Context(), id)
	if errors.Is(err, ErrDestinationNotFound) {
		http.Error(w, "destination not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load destination", "destination_id", id, "error", err)
		http.Error(w, "failed to load destination", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CreateDestination handles POST /api/destinations.
func (h *Handler) CreateDestination(w http.ResponseWriter, r *http.Request) {
	var d Destination
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := validateDestination(d); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	created, err := h.registry.Create(r.Context(), d)
	if err != nil {
		h.logger.Error("failed to create destination", "name", d.Name, "error", err)
		http.Error(w, "failed to create destination", http.StatusInternalServerError)
		return
	}
	h.logger.Info("destination created", "destination_id", created.ID, "name", created.Name)
	writeJSON(w, http.StatusCreated, created)
}

// UpdateDestination handles PUT /api/destinations/{destinationID}.
func (h *Handler) UpdateDestination(w http.ResponseWriter, r *http.Request) {
	id, ok := h.destinationID(w, r)
	if !ok {
		return
	}
	var d Destination
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	d.ID = id
	if err := validateDestination(d); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	updated, err := h.registry.Update(r.Context(), d)
	if errors.Is(err, ErrDestinationNotFound) {
		http.Error(w, "destination not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to update destination", "destination_id", id, "error", err)
		http.Error(w, "failed to update destination", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteDestination handles DELETE /api/destinations/{destinationID}.
func (h *Handler) DeleteDestination(w http.ResponseWriter, r *http.Request) {
	id, ok := h.destinationID(w, r)
	if !ok {
		return
	}
	err := h.registry.Delete(r.Context(), id)
	if errors.Is(err, ErrDestinationNotFound) {
		http.Error(w, "destination not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to delete destination", "destination_id", id, "error", err)
		http.Error(w, "failed to delete destination", http.StatusInternalServerError)
		return
	}
	h.logger.Info("destination deleted", "destination_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// GetLegacySettings handles GET /api/webhook-settings.
func (h *Handler) GetLegacySettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.registry.LegacySettings(r.Context())
	if err != nil {
		h.logger.Error("failed to load webhook settings", "error", err)
		http.Error(w, "failed to load webhook settings", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdateLegacySettings handles PUT /api/webhook-settings.
func (h *Handler) UpdateLegacySettings(w http.ResponseWriter, r *http.Request) {
	var s LegacySettings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if s.MinSentimentScore < -1 || s.MaxSentimentScore > 1 || s.MinSentimentScore > s.MaxSentimentScore {
		http.Error(w, "sentiment bounds must satisfy -1 <= min <= max <= 1", http.StatusBadRequest)
		return
	}
	updated, err := h.registry.UpdateLegacySettings(r.Context(), s)
	if err != nil {
		h.logger.Error("failed to update webhook settings", "error", err)
		http.Error(w, "failed to update webhook settings", http.StatusInternalServerError)
		return
	}
	h.logger.Info("webhook settings updated", "enabled", updated.Enabled)
	writeJSON(w, http.StatusOK, updated)
}

// TestWebhook handles POST /api/destinations/{destinationID}/test. It sends a
// fixed payload to the destination's webhook so operators can verify the URL.
func (h *Handler) TestWebhook(w http.ResponseWriter, r *http.Request) {
	id, ok := h.destinationID(w, r)
	if !ok {
		return
	}
	d, err := h.registry.Get(r.Context(), id)
	if errors.Is(err, ErrDestinationNotFound) {
		http.Error(w, "destination not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load destination", "destination_id", id, "error", err)
		http.Error(w, "failed to load destination", http.StatusInternalServerError)
		return
	}
	if d.WebhookURL == "" {
		http.Error(w, "destination has no webhook url", http.StatusBadRequest)
		return
	}

	body, _ := json.Marshal(map[string]string{
		"text": fmt.Sprintf("Test message for destination %q. If you can read this, the webhook works.", d.Name),
	})
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, d.WebhookURL, bytes.NewReader(body))
	if err != nil {
		http.Error(w, "invalid webhook url", http.StatusBadRequest)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Warn("webhook test failed", "destination_id", id, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	defer resp.Body.Close()

	ok = resp.StatusCode >= 200 && resp.StatusCode < 300
	status := http.StatusOK
	if !ok {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]any{"ok": ok, "status": resp.StatusCode})
}

func (h *Handler) destinationID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "destinationID"))
	if err != nil {
		http.Error(w, "invalid destination id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func validateDestination(d Destination) error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("name is required")
	}
	if d.WebhookURL != "" && !strings.HasPrefix(d.WebhookURL, "http") {
		return errors.New("webhook_url must be an http(s) url")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
