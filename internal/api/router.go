package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sungwon/campaign-dispatch/internal/delivery"
	"github.com/sungwon/campaign-dispatch/internal/queue"
	"github.com/sungwon/campaign-dispatch/internal/segment"
)

// Dependencies are the services the router exposes. Delivery and
// Classifier are required; a nil optional dependency leaves its routes
// unregistered.
type Dependencies struct {
	DB          Pinger
	Delivery    delivery.Service
	Classifier  *segment.Classifier
	Drafts      DraftStore
	Subscribers SubscriberStore
	DLQ         queue.DeadLetterQueue
	Gateways    GatewayStatuses
	Registry    GatewayLookup
}

// NewRouter creates a chi.Mux with all routes, middleware, and handlers configured.
func NewRouter(deps Dependencies, log zerolog.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(CorrelationIDMiddleware)
	r.Use(LoggingMiddleware(log))
	r.Use(MetricsMiddleware)
	r.Use(RecoverMiddleware(log))

	r.Get("/healthz", HealthzHandler())
	r.Get("/readyz", ReadyzHandler(deps.DB))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		var recipients RecipientSource
		if deps.Subscribers != nil {
			if rs, ok := deps.Subscribers.(RecipientSource); ok {
				recipients = rs
			}
		}
		r.Post("/campaigns/dispatch", DispatchCampaignHandler(deps.Delivery, deps.Drafts, recipients))

		r.Post("/segments/classify", ClassifyHandler(deps.Classifier))

		if deps.Drafts != nil {
			r.Post("/drafts", SaveDraftHandler(deps.Drafts))
			r.Get("/drafts/{id}", GetDraftHandler(deps.Drafts))
			r.Delete("/drafts/{id}", DeleteDraftHandler(deps.Drafts))
		}

		if deps.Subscribers != nil {
			r.Get("/subscribers", ListSubscribersHandler(deps.Subscribers))
			r.Get("/subscribers/{id}", GetSubscriberHandler(deps.Subscribers))
			r.Post("/subscribers/regroup", RegroupSubscribersHandler(deps.Subscribers, deps.Classifier))
		}

		if deps.DLQ != nil {
			r.Post("/dlq/reprocess", DLQReprocessHandler(deps.DLQ))
		}

		if deps.Gateways != nil {
			r.Get("/gateways/health", GatewayHealthHandler(deps.Gateways))
		}
		if deps.Registry != nil {
			r.Get("/gateways/{name}/messages/{id}", MessageStatusHandler(deps.Registry))
		}
	})

	return r
}
