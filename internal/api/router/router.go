package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/signalhouse/triage/internal/classification"
	httpmiddleware "github.com/signalhouse/triage/internal/http/middleware"
	"github.com/signalhouse/triage/internal/ledger"
	"github.com/signalhouse/triage/internal/pipeline"
	"github.com/signalhouse/triage/internal/routing"
	"github.com/signalhouse/triage/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	IngestHandler   *pipeline.IngestHandler
	MessagesHandler *classification.Handler
	UsageHandler    *ledger.Handler
	RoutingHandler  *routing.Handler
	AdminAuthSecret string
	MetricsHandler  http.Handler
	CORSOrigins     []string

	// Requests/sec allowed per IP on the ingest endpoint. Zero disables
	// rate limiting.
	IngestRateLimit float64
	IngestBurst     int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (ingest, health, metrics).
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.IngestHandler != nil {
			public.Group(func(ingest chi.Router) {
				if cfg.IngestRateLimit > 0 {
					ingest.Use(httpmiddleware.RateLimit(cfg.IngestRateLimit, cfg.IngestBurst))
				}
				ingest.Post("/ingest/messages", cfg.IngestHandler.PostMessage)
			})
		}
	})

	// Dashboard reads.
	r.Route("/api", func(api chi.Router) {
		if cfg.MessagesHandler != nil {
			api.Route("/messages", func(r chi.Router) {
				r.Get("/", cfg.MessagesHandler.ListRecent)
				r.Get("/needing-response", cfg.MessagesHandler.ListNeedingResponse)
				r.Get("/stats", cfg.MessagesHandler.GetStats)
				r.Get("/channel/{channelID}", cfg.MessagesHandler.ListByChannel)
			})
		}
		if cfg.UsageHandler != nil {
			api.Route("/usage", func(r chi.Router) {
				r.Get("/stats", cfg.UsageHandler.GetStats)
				r.Get("/models", cfg.UsageHandler.GetModels)
				r.Get("/channels", cfg.UsageHandler.GetChannels)
			})
		}
		if cfg.RoutingHandler != nil {
			api.Get("/destinations", cfg.RoutingHandler.ListDestinations)
			api.Get("/destinations/{destinationID}", cfg.RoutingHandler.GetDestination)
			api.Get("/webhook-settings", cfg.RoutingHandler.GetLegacySettings)

			// Configuration mutations require the admin JWT.
			api.Group(func(admin chi.Router) {
				admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
				admin.Post("/destinations", cfg.RoutingHandler.CreateDestination)
				admin.Put("/destinations/{destinationID}", cfg.RoutingHandler.UpdateDestination)
				admin.Delete("/destinations/{destinationID}", cfg.RoutingHandler.DeleteDestination)
				admin.Post("/destinations/{destinationID}/test", cfg.RoutingHandler.TestWebhook)
				admin.Put("/webhook-settings", cfg.RoutingHandler.UpdateLegacySettings)
			})
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
