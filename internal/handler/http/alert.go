package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/garmenthq/inventory-service/internal/domain"
	"github.com/garmenthq/inventory-service/pkg/httputil"
	"github.com/garmenthq/inventory-service/pkg/validator"
)

type closeAlertRequest struct {
	ClosedBy string  `json:"closed_by" validate:"omitempty,max=255"`
	Notes    *string `json:"notes" validate:"omitempty,max=1000"`
}

// ListAlerts handles GET /api/v1/alerts
func (h *InventoryHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := pagination(w, r)
	if !ok {
		return
	}
	status := r.URL.Query().Get("status")

	alerts, total, err := h.service.ListAlerts(r.Context(), status, page, perPage)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if alerts == nil {
		alerts = []domain.LowStockAlert{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(alerts, total, page, perPage))
}

// ListActiveAlerts handles GET /api/v1/alerts/active
func (h *InventoryHandler) ListActiveAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.ListActiveAlerts(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if alerts == nil {
		alerts = []domain.LowStockAlert{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: alerts})
}

// GetAlert handles GET /api/v1/alerts/{alertId}
func (h *InventoryHandler) GetAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "alertId"))
	if !ok {
		return
	}

	alert, err := h.service.GetAlert(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: alert})
}

// ResolveAlert handles POST /api/v1/alerts/{alertId}/resolve
func (h *InventoryHandler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "alertId"))
	if !ok {
		return
	}

	var req closeAlertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	alert, err := h.service.ResolveAlert(r.Context(), id.String(), actor(r, req.ClosedBy), req.Notes)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: alert})
}

// IgnoreAlert handles POST /api/v1/alerts/{alertId}/ignore
func (h *InventoryHandler) IgnoreAlert(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "alertId"))
	if !ok {
		return
	}

	var req closeAlertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	alert, err := h.service.IgnoreAlert(r.Context(), id.String(), actor(r, req.ClosedBy), req.Notes)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: alert})
}
