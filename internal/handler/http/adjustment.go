package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/garmenthq/inventory-service/internal/domain"
	"github.com/garmenthq/inventory-service/internal/service"
	"github.com/garmenthq/inventory-service/pkg/httputil"
	"github.com/garmenthq/inventory-service/pkg/validator"
)

type createAdjustmentRequest struct {
	VariantID      string   `json:"variant_id" validate:"required,uuid"`
	LocationID     string   `json:"location_id" validate:"required,uuid"`
	Reason         string   `json:"reason" validate:"required,oneof=cycle_count damage theft found expired other"`
	ActualQuantity int      `json:"actual_quantity" validate:"gte=0"`
	UnitCost       *float64 `json:"unit_cost" validate:"omitempty,gte=0"`
	Notes          *string  `json:"notes" validate:"omitempty,max=1000"`
	AdjustedBy     string   `json:"adjusted_by" validate:"omitempty,max=255"`
}

type reviewAdjustmentRequest struct {
	ReviewedBy string  `json:"reviewed_by" validate:"omitempty,max=255"`
	Notes      *string `json:"notes" validate:"omitempty,max=1000"`
}

// CreateAdjustment handles POST /api/v1/adjustments
func (h *InventoryHandler) CreateAdjustment(w http.ResponseWriter, r *http.Request) {
	var req createAdjustmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	adj, err := h.service.CreateAdjustment(r.Context(), service.CreateAdjustmentInput{
		VariantID:      req.VariantID,
		LocationID:     req.LocationID,
		Reason:         req.Reason,
		ActualQuantity: req.ActualQuantity,
		UnitCost:       req.UnitCost,
		Notes:          req.Notes,
		AdjustedBy:     actor(r, req.AdjustedBy),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: adj})
}

// GetAdjustment handles GET /api/v1/adjustments/{adjustmentId}
func (h *InventoryHandler) GetAdjustment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "adjustmentId"))
	if !ok {
		return
	}

	adj, err := h.service.GetAdjustment(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: adj})
}

// ListAdjustments handles GET /api/v1/adjustments
func (h *InventoryHandler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := pagination(w, r)
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")

	adjustments, total, err := h.service.ListAdjustments(r.Context(), status, page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if adjustments == nil {
		adjustments = []domain.StockAdjustment{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(adjustments, total, page, perPage))
}

// ListPendingAdjustments handles GET /api/v1/adjustments/pending
func (h *InventoryHandler) ListPendingAdjustments(w http.ResponseWriter, r *http.Request) {
	adjustments, err := h.service.ListPendingAdjustments(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if adjustments == nil {
		adjustments = []domain.StockAdjustment{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: adjustments})
}

// ApproveAdjustment handles POST /api/v1/adjustments/{adjustmentId}/approve
func (h *InventoryHandler) ApproveAdjustment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "adjustmentId"))
	if !ok {
		return
	}

	var req reviewAdjustmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	adj, err := h.service.ApproveAdjustment(r.Context(), id.String(), actor(r, req.ReviewedBy))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: adj})
}

// RejectAdjustment handles POST /api/v1/adjustments/{adjustmentId}/reject
func (h *InventoryHandler) RejectAdjustment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "adjustmentId"))
	if !ok {
		return
	}

	var req reviewAdjustmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	adj, err := h.service.RejectAdjustment(r.Context(), id.String(), actor(r, req.ReviewedBy), req.Notes)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: adj})
}

// RecordCycleCount handles POST /api/v1/inventory/variants/{variantId}/locations/{locationId}/cycle-count
func (h *InventoryHandler) RecordCycleCount(w http.ResponseWriter, r *http.Request) {
	variantID, ok := httputil.ParseUUID(w, chi.URLParam(r, "variantId"))
	if !ok {
		return
	}
	locationID, ok := httputil.ParseUUID(w, chi.URLParam(r, "locationId"))
	if !ok {
		return
	}

	var req struct {
		CountedAt *string `json:"counted_at"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	countedAt, ok := parseOptionalTime(w, req.CountedAt, "counted_at")
	if !ok {
		return
	}

	if err := h.service.RecordCycleCount(r.Context(), variantID.String(), locationID.String(), countedAt); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
