package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/garmenthq/inventory-service/internal/domain"
	"github.com/garmenthq/inventory-service/internal/service"
	"github.com/garmenthq/inventory-service/pkg/httputil"
	"github.com/garmenthq/inventory-service/pkg/validator"
)

type createLocationRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=255"`
	Code         string `json:"code" validate:"required,min=1,max=50"`
	LocationType string `json:"location_type" validate:"required,oneof=warehouse store distribution_center"`
	IsDefault    bool   `json:"is_default"`
	Priority     int    `json:"priority" validate:"gte=0"`
	Capacity     *int   `json:"capacity" validate:"omitempty,gt=0"`
}

type updateLocationRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=255"`
	LocationType *string `json:"location_type" validate:"omitempty,oneof=warehouse store distribution_center"`
	IsDefault    *bool   `json:"is_default"`
	Priority     *int    `json:"priority" validate:"omitempty,gte=0"`
	Capacity     *int    `json:"capacity" validate:"omitempty,gt=0"`
	IsActive     *bool   `json:"is_active"`
}

// CreateLocation handles POST /api/v1/locations
func (h *InventoryHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req createLocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	loc, err := h.service.CreateLocation(r.Context(), service.CreateLocationInput{
		Name:         req.Name,
		Code:         req.Code,
		LocationType: req.LocationType,
		IsDefault:    req.IsDefault,
		Priority:     req.Priority,
		Capacity:     req.Capacity,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: loc})
}

// GetLocation handles GET /api/v1/locations/{locationId}
func (h *InventoryHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "locationId"))
	if !ok {
		return
	}

	loc, err := h.service.GetLocation(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: loc})
}

// ListLocations handles GET /api/v1/locations
func (h *InventoryHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := pagination(w, r)
	if !ok {
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"

	locations, total, err := h.service.ListLocations(r.Context(), activeOnly, page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if locations == nil {
		locations = []domain.StockLocation{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(locations, total, page, perPage))
}

// UpdateLocation handles PATCH /api/v1/locations/{locationId}
func (h *InventoryHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "locationId"))
	if !ok {
		return
	}

	var req updateLocationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	loc, err := h.service.UpdateLocation(r.Context(), id.String(), service.UpdateLocationInput{
		Name:         req.Name,
		LocationType: req.LocationType,
		IsDefault:    req.IsDefault,
		Priority:     req.Priority,
		Capacity:     req.Capacity,
		IsActive:     req.IsActive,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: loc})
}

// DeleteLocation handles DELETE /api/v1/locations/{locationId}. Locations that
// still hold stock are deactivated instead of removed.
func (h *InventoryHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "locationId"))
	if !ok {
		return
	}

	if err := h.service.DeleteLocation(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
