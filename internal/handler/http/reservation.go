package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/garmenthq/inventory-service/internal/domain"
	"github.com/garmenthq/inventory-service/internal/service"
	"github.com/garmenthq/inventory-service/pkg/httputil"
	"github.com/garmenthq/inventory-service/pkg/validator"
)

type reserveStockRequest struct {
	OrderID     string  `json:"order_id" validate:"required,uuid"`
	OrderItemID *string `json:"order_item_id" validate:"omitempty,uuid"`
	VariantID   string  `json:"variant_id" validate:"required,uuid"`
	LocationID  *string `json:"location_id" validate:"omitempty,uuid"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	Notes       *string `json:"notes" validate:"omitempty,max=1000"`
	CreatedBy   *string `json:"created_by" validate:"omitempty,max=255"`
}

type releaseReservationRequest struct {
	Notes *string `json:"notes" validate:"omitempty,max=1000"`
}

type fulfillReservationRequest struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

type releaseOrderReservationsResponse struct {
	ReleasedCount int `json:"released_count"`
}

type releaseExpiredResponse struct {
	ReleasedCount int `json:"released_count"`
}

// ReserveStock handles POST /api/v1/reservations
func (h *InventoryHandler) ReserveStock(w http.ResponseWriter, r *http.Request) {
	var req reserveStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.ReserveStock(r.Context(), service.ReserveStockInput{
		OrderID:     req.OrderID,
		OrderItemID: req.OrderItemID,
		VariantID:   req.VariantID,
		LocationID:  req.LocationID,
		Quantity:    req.Quantity,
		Notes:       req.Notes,
		CreatedBy:   req.CreatedBy,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: res})
}

// GetReservation handles GET /api/v1/reservations/{reservationId}
func (h *InventoryHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "reservationId"))
	if !ok {
		return
	}

	res, err := h.service.GetReservation(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// ReleaseReservation handles POST /api/v1/reservations/{reservationId}/release
func (h *InventoryHandler) ReleaseReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "reservationId"))
	if !ok {
		return
	}

	var req releaseReservationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.ReleaseReservation(r.Context(), id.String(), req.Notes)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// FulfillReservation handles POST /api/v1/reservations/{reservationId}/fulfill
func (h *InventoryHandler) FulfillReservation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "reservationId"))
	if !ok {
		return
	}

	var req fulfillReservationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.FulfillReservation(r.Context(), id.String(), req.Quantity)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// ListOrderReservations handles GET /api/v1/reservations/orders/{orderId}
func (h *InventoryHandler) ListOrderReservations(w http.ResponseWriter, r *http.Request) {
	orderID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	reservations, err := h.service.ListReservationsByOrder(r.Context(), orderID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if reservations == nil {
		reservations = []domain.InventoryReservation{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reservations})
}

// ReleaseOrderReservations handles POST /api/v1/reservations/orders/{orderId}/release
func (h *InventoryHandler) ReleaseOrderReservations(w http.ResponseWriter, r *http.Request) {
	orderID, ok := httputil.ParseUUID(w, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	var req releaseReservationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	count, err := h.service.ReleaseOrderReservations(r.Context(), orderID.String(), req.Notes)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: releaseOrderReservationsResponse{ReleasedCount: count}})
}

// ListActiveVariantReservations handles GET /api/v1/reservations/variants/{variantId}
func (h *InventoryHandler) ListActiveVariantReservations(w http.ResponseWriter, r *http.Request) {
	variantID, ok := httputil.ParseUUID(w, chi.URLParam(r, "variantId"))
	if !ok {
		return
	}

	reservations, err := h.service.ListActiveReservationsByVariant(r.Context(), variantID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if reservations == nil {
		reservations = []domain.InventoryReservation{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: reservations})
}

// ReleaseExpiredReservations handles POST /api/v1/reservations/release-expired.
// The background sweeper covers routine expiry; this endpoint exists for
// operators who need an immediate sweep.
func (h *InventoryHandler) ReleaseExpiredReservations(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.ReleaseExpiredReservations(r.Context(), 500)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: releaseExpiredResponse{ReleasedCount: count}})
}
