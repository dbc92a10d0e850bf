package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garmenthq/inventory-service/internal/service"
	"github.com/garmenthq/inventory-service/pkg/health"
	"github.com/garmenthq/inventory-service/pkg/middleware"
)

// NewRouter creates a chi router with all inventory service routes registered.
func NewRouter(
	inventoryService *service.InventoryService,
	healthHandler *health.Handler,
	corsConfig middleware.CORSConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing("inventory"))
	r.Use(middleware.PrometheusMetrics("inventory"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	h := NewInventoryHandler(inventoryService, logger)

	r.Route("/api/v1/locations", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", h.CreateLocation)
		r.Get("/", h.ListLocations)
		r.Get("/{locationId}", h.GetLocation)
		r.Patch("/{locationId}", h.UpdateLocation)
		r.Delete("/{locationId}", h.DeleteLocation)
	})

	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Stock operations
		r.Post("/receive", h.ReceiveStock)
		r.Post("/ship", h.ShipStock)
		r.Post("/transfer", h.TransferStock)

		// Level queries
		r.Get("/variants/{variantId}", h.ListVariantLevels)
		r.Get("/variants/{variantId}/summary", h.GetVariantSummary)
		r.Get("/variants/{variantId}/movements", h.ListVariantMovements)
		r.Get("/variants/{variantId}/locations/{locationId}", h.GetLevel)
		r.Put("/variants/{variantId}/locations/{locationId}/reorder", h.UpdateReorderSettings)
		r.Post("/variants/{variantId}/locations/{locationId}/cycle-count", h.RecordCycleCount)
		r.Get("/locations/{locationId}", h.ListLocationLevels)
		r.Get("/low-stock", h.ListLowStockLevels)

		// Movement log
		r.Get("/movements", h.ListMovements)
	})

	r.Route("/api/v1/reservations", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", h.ReserveStock)
		r.Post("/release-expired", h.ReleaseExpiredReservations)
		r.Get("/{reservationId}", h.GetReservation)
		r.Post("/{reservationId}/release", h.ReleaseReservation)
		r.Post("/{reservationId}/fulfill", h.FulfillReservation)
		r.Get("/orders/{orderId}", h.ListOrderReservations)
		r.Post("/orders/{orderId}/release", h.ReleaseOrderReservations)
		r.Get("/variants/{variantId}", h.ListActiveVariantReservations)
	})

	r.Route("/api/v1/adjustments", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", h.CreateAdjustment)
		r.Get("/", h.ListAdjustments)
		r.Get("/pending", h.ListPendingAdjustments)
		r.Get("/{adjustmentId}", h.GetAdjustment)
		r.Post("/{adjustmentId}/approve", h.ApproveAdjustment)
		r.Post("/{adjustmentId}/reject", h.RejectAdjustment)
	})

	r.Route("/api/v1/alerts", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", h.ListAlerts)
		r.Get("/active", h.ListActiveAlerts)
		r.Get("/{alertId}", h.GetAlert)
		r.Post("/{alertId}/resolve", h.ResolveAlert)
		r.Post("/{alertId}/ignore", h.IgnoreAlert)
	})

	return r
}
