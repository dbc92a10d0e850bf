package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/garmenthq/inventory-service/internal/service"
	"github.com/garmenthq/inventory-service/pkg/httputil"
	"github.com/garmenthq/inventory-service/pkg/logger"
)

// maxBodyBytes caps JSON request bodies at 1MB.
const maxBodyBytes = 1 << 20

// InventoryHandler handles HTTP requests for the inventory service.
type InventoryHandler struct {
	service *service.InventoryService
	logger  *slog.Logger
}

// NewInventoryHandler creates a new inventory HTTP handler.
func NewInventoryHandler(svc *service.InventoryService, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: svc,
		logger:  logger,
	}
}

// decodeJSON decodes the request body into dst, writing the error response
// itself. An empty body leaves dst zero-valued so endpoints with only optional
// fields accept bodiless requests. Returns false when decoding failed.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return false
	}
	return true
}

// pagination parses page and per_page query parameters, writing the error
// response on invalid values. Returns ok false when a parameter was invalid.
func pagination(w http.ResponseWriter, r *http.Request) (page, perPage int, ok bool) {
	page, perPage = 1, 20

	if v := r.URL.Query().Get("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "page must be a valid positive integer"},
			})
			return 0, 0, false
		}
		page = p
	}
	if v := r.URL.Query().Get("per_page"); v != "" {
		pp, err := strconv.Atoi(v)
		if err != nil || pp < 1 || pp > 100 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: "per_page must be a valid integer between 1 and 100"},
			})
			return 0, 0, false
		}
		perPage = pp
	}

	return page, perPage, true
}

// actor resolves who performed the request: the explicit value when given,
// otherwise the X-Actor-ID header propagated by the middleware.
func actor(r *http.Request, explicit string) string {
	if explicit != "" {
		return explicit
	}
	return logger.ActorIDFromContext(r.Context())
}

// parseOptionalTime parses an optional RFC 3339 timestamp from a request
// body field, returning the zero time when absent.
func parseOptionalTime(w http.ResponseWriter, v *string, field string) (time.Time, bool) {
	if v == nil || *v == "" {
		return time.Time{}, true
	}

	t, err := time.Parse(time.RFC3339, *v)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: field + " must be an RFC 3339 timestamp"},
		})
		return time.Time{}, false
	}
	return t, true
}

// parseDateParam parses an optional RFC 3339 query parameter.
func parseDateParam(w http.ResponseWriter, r *http.Request, name string) (*time.Time, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, true
	}

	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_PARAMETER", Message: name + " must be an RFC 3339 timestamp"},
		})
		return nil, false
	}
	return &t, true
}
