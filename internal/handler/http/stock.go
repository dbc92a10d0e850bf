package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/garmenthq/inventory-service/internal/domain"
	"github.com/garmenthq/inventory-service/internal/service"
	"github.com/garmenthq/inventory-service/pkg/httputil"
	"github.com/garmenthq/inventory-service/pkg/validator"
)

type receiveStockRequest struct {
	VariantID       string   `json:"variant_id" validate:"required,uuid"`
	LocationID      string   `json:"location_id" validate:"required,uuid"`
	Quantity        int      `json:"quantity" validate:"required,gt=0"`
	UnitCost        *float64 `json:"unit_cost" validate:"omitempty,gte=0"`
	ReferenceType   *string  `json:"reference_type" validate:"omitempty,max=50"`
	ReferenceID     *string  `json:"reference_id" validate:"omitempty,max=255"`
	ReferenceNumber *string  `json:"reference_number" validate:"omitempty,max=100"`
	Notes           *string  `json:"notes" validate:"omitempty,max=1000"`
	CreatedBy       *string  `json:"created_by" validate:"omitempty,max=255"`
}

type shipStockRequest struct {
	VariantID       string  `json:"variant_id" validate:"required,uuid"`
	LocationID      string  `json:"location_id" validate:"required,uuid"`
	Quantity        int     `json:"quantity" validate:"required,gt=0"`
	ReferenceType   *string `json:"reference_type" validate:"omitempty,max=50"`
	ReferenceID     *string `json:"reference_id" validate:"omitempty,max=255"`
	ReferenceNumber *string `json:"reference_number" validate:"omitempty,max=100"`
	Notes           *string `json:"notes" validate:"omitempty,max=1000"`
	CreatedBy       *string `json:"created_by" validate:"omitempty,max=255"`
}

type transferStockRequest struct {
	VariantID      string  `json:"variant_id" validate:"required,uuid"`
	FromLocationID string  `json:"from_location_id" validate:"required,uuid"`
	ToLocationID   string  `json:"to_location_id" validate:"required,uuid"`
	Quantity       int     `json:"quantity" validate:"required,gt=0"`
	Reason         *string `json:"reason" validate:"omitempty,max=255"`
	Notes          *string `json:"notes" validate:"omitempty,max=1000"`
	CreatedBy      *string `json:"created_by" validate:"omitempty,max=255"`
}

type transferStockResponse struct {
	Source      *domain.InventoryLevel `json:"source"`
	Destination *domain.InventoryLevel `json:"destination"`
}

type updateReorderSettingsRequest struct {
	ReorderPoint    int  `json:"reorder_point" validate:"gte=0"`
	ReorderQuantity int  `json:"reorder_quantity" validate:"gte=0"`
	MaxStockLevel   *int `json:"max_stock_level" validate:"omitempty,gt=0"`
}

// ReceiveStock handles POST /api/v1/inventory/receive
func (h *InventoryHandler) ReceiveStock(w http.ResponseWriter, r *http.Request) {
	var req receiveStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	level, err := h.service.ReceiveStock(r.Context(), service.ReceiveStockInput{
		VariantID:       req.VariantID,
		LocationID:      req.LocationID,
		Quantity:        req.Quantity,
		UnitCost:        req.UnitCost,
		ReferenceType:   req.ReferenceType,
		ReferenceID:     req.ReferenceID,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
		CreatedBy:       req.CreatedBy,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: level})
}

// ShipStock handles POST /api/v1/inventory/ship
func (h *InventoryHandler) ShipStock(w http.ResponseWriter, r *http.Request) {
	var req shipStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	level, err := h.service.ShipStock(r.Context(), service.ShipStockInput{
		VariantID:       req.VariantID,
		LocationID:      req.LocationID,
		Quantity:        req.Quantity,
		ReferenceType:   req.ReferenceType,
		ReferenceID:     req.ReferenceID,
		ReferenceNumber: req.ReferenceNumber,
		Notes:           req.Notes,
		CreatedBy:       req.CreatedBy,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: level})
}

// TransferStock handles POST /api/v1/inventory/transfer
func (h *InventoryHandler) TransferStock(w http.ResponseWriter, r *http.Request) {
	var req transferStockRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	source, dest, err := h.service.TransferStock(r.Context(), service.TransferStockInput{
		VariantID:      req.VariantID,
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
		Quantity:       req.Quantity,
		Reason:         req.Reason,
		Notes:          req.Notes,
		CreatedBy:      req.CreatedBy,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: transferStockResponse{Source: source, Destination: dest},
	})
}

// GetLevel handles GET /api/v1/inventory/variants/{variantId}/locations/{locationId}
func (h *InventoryHandler) GetLevel(w http.ResponseWriter, r *http.Request) {
	variantID, ok := httputil.ParseUUID(w, chi.URLParam(r, "variantId"))
	if !ok {
		return
	}
	locationID, ok := httputil.ParseUUID(w, chi.URLParam(r, "locationId"))
	if !ok {
		return
	}

	level, err := h.service.GetLevel(r.Context(), variantID.String(), locationID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: level})
}

// ListVariantLevels handles GET /api/v1/inventory/variants/{variantId}
func (h *InventoryHandler) ListVariantLevels(w http.ResponseWriter, r *http.Request) {
	variantID, ok := httputil.ParseUUID(w, chi.URLParam(r, "variantId"))
	if !ok {
		return
	}

	levels, err := h.service.ListLevelsByVariant(r.Context(), variantID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if levels == nil {
		levels = []domain.InventoryLevel{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: levels})
}

// GetVariantSummary handles GET /api/v1/inventory/variants/{variantId}/summary
func (h *InventoryHandler) GetVariantSummary(w http.ResponseWriter, r *http.Request) {
	variantID, ok := httputil.ParseUUID(w, chi.URLParam(r, "variantId"))
	if !ok {
		return
	}

	summary, err := h.service.GetVariantSummary(r.Context(), variantID.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: summary})
}

// ListLocationLevels handles GET /api/v1/inventory/locations/{locationId}
func (h *InventoryHandler) ListLocationLevels(w http.ResponseWriter, r *http.Request) {
	locationID, ok := httputil.ParseUUID(w, chi.URLParam(r, "locationId"))
	if !ok {
		return
	}
	page, perPage, ok := pagination(w, r)
	if !ok {
		return
	}

	levels, total, err := h.service.ListLevelsByLocation(r.Context(), locationID.String(), page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if levels == nil {
		levels = []domain.InventoryLevel{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(levels, total, page, perPage))
}

// ListLowStockLevels handles GET /api/v1/inventory/low-stock
func (h *InventoryHandler) ListLowStockLevels(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := pagination(w, r)
	if !ok {
		return
	}

	levels, total, err := h.service.ListLowStockLevels(r.Context(), page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if levels == nil {
		levels = []domain.InventoryLevel{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(levels, total, page, perPage))
}

// UpdateReorderSettings handles PUT /api/v1/inventory/variants/{variantId}/locations/{locationId}/reorder
func (h *InventoryHandler) UpdateReorderSettings(w http.ResponseWriter, r *http.Request) {
	variantID, ok := httputil.ParseUUID(w, chi.URLParam(r, "variantId"))
	if !ok {
		return
	}
	locationID, ok := httputil.ParseUUID(w, chi.URLParam(r, "locationId"))
	if !ok {
		return
	}

	var req updateReorderSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	level, err := h.service.UpdateReorderSettings(r.Context(), variantID.String(), locationID.String(),
		req.ReorderPoint, req.ReorderQuantity, req.MaxStockLevel)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: level})
}

// ListVariantMovements handles GET /api/v1/inventory/variants/{variantId}/movements
func (h *InventoryHandler) ListVariantMovements(w http.ResponseWriter, r *http.Request) {
	variantID, ok := httputil.ParseUUID(w, chi.URLParam(r, "variantId"))
	if !ok {
		return
	}
	page, perPage, ok := pagination(w, r)
	if !ok {
		return
	}
	from, ok := parseDateParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := parseDateParam(w, r, "to")
	if !ok {
		return
	}

	movements, total, err := h.service.ListMovementsByVariant(r.Context(), variantID.String(), from, to, page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if movements == nil {
		movements = []domain.InventoryMovement{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(movements, total, page, perPage))
}

// ListMovements handles GET /api/v1/inventory/movements. When reference_type
// and reference_id are both given, the paged listing narrows to that reference.
func (h *InventoryHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	refType := r.URL.Query().Get("reference_type")
	refID := r.URL.Query().Get("reference_id")

	if refType != "" && refID != "" {
		movements, err := h.service.ListMovementsByReference(r.Context(), refType, refID)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		if movements == nil {
			movements = []domain.InventoryMovement{}
		}
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: movements})
		return
	}

	page, perPage, ok := pagination(w, r)
	if !ok {
		return
	}

	movements, total, err := h.service.ListMovements(r.Context(), page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if movements == nil {
		movements = []domain.InventoryMovement{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(movements, total, page, perPage))
}
