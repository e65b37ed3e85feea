package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dumensel/payment-service/internal/interfaces/rest/middleware"
)

// NewRouter wires the full HTTP surface: payment and points APIs, the
// Shopify webhook, health and metrics endpoints. A nil webhook handler
// leaves the webhook route unregistered.
func NewRouter(
	h *Handlers,
	webhook *ShopifyWebhookHandler,
	logger *slog.Logger,
	requestTimeout time.Duration,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))

		r.Route("/payments", func(r chi.Router) {
			r.Post("/", h.CreatePayment)
			r.Get("/{id}", h.GetPayment)
			r.Get("/{id}/provider-status", h.CheckProviderStatus)
			r.Get("/conversation/{conversationId}", h.GetPaymentByConversationID)
		})

		r.Get("/buyers/{buyerId}/payments", h.ListPaymentsByBuyer)

		r.Route("/points/{userId}", func(r chi.Router) {
			r.Get("/", h.GetUserPoints)
			r.Get("/check", h.CheckPoints)
			r.Post("/earn", h.EarnPoints)
			r.Post("/spend", h.SpendPoints)
			r.Post("/lock", h.LockPoints)
			r.Post("/unlock", h.UnlockPoints)
			r.Post("/consume", h.ConsumeLockedPoints)
			r.Delete("/", h.DeleteUserPoints)
		})
	})

	if webhook != nil {
		r.Post("/webhooks/shopify/orders", webhook.HandleOrderWebhook)
	}

	return r
}
