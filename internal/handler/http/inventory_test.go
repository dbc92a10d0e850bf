package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/garmenthq/inventory-service/internal/domain"
	"github.com/garmenthq/inventory-service/internal/service"
	apperrors "github.com/garmenthq/inventory-service/pkg/errors"
	"github.com/garmenthq/inventory-service/pkg/httputil"
	"github.com/garmenthq/inventory-service/pkg/middleware"
)

const (
	validVariantID     = "550e8400-e29b-41d4-a716-446655440001"
	validLocationID    = "550e8400-e29b-41d4-a716-446655440002"
	validOrderID       = "550e8400-e29b-41d4-a716-446655440003"
	validReservationID = "550e8400-e29b-41d4-a716-446655440004"
	validAdjustmentID  = "550e8400-e29b-41d4-a716-446655440005"
)

type handlerFixture struct {
	locationRepo    *mockLocationRepository
	levelRepo       *mockLevelRepository
	movementRepo    *mockMovementRepository
	adjustmentRepo  *mockAdjustmentRepository
	alertRepo       *mockAlertRepository
	reservationRepo *mockReservationRepository
	catalog         *stubCatalog
	router          http.Handler
}

// newHandlerFixture builds a handler on top of a service with mocked
// repositories. The pool is nil: transactional operations are covered by the
// service tests, and the routes tested here never begin a transaction.
func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	f := &handlerFixture{
		locationRepo:    new(mockLocationRepository),
		levelRepo:       new(mockLevelRepository),
		movementRepo:    new(mockMovementRepository),
		adjustmentRepo:  new(mockAdjustmentRepository),
		alertRepo:       new(mockAlertRepository),
		reservationRepo: new(mockReservationRepository),
		catalog:         &stubCatalog{exists: true},
	}

	logger := testLogger()
	svc := service.NewInventoryService(
		nil,
		f.locationRepo,
		f.levelRepo,
		f.movementRepo,
		f.adjustmentRepo,
		f.alertRepo,
		f.reservationRepo,
		f.catalog,
		noopPublisher{},
		logger,
		15*time.Minute,
	)

	h := NewInventoryHandler(svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(logger))
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
		r.Post("/receive", h.ReceiveStock)
		r.Get("/variants/{variantId}", h.ListVariantLevels)
		r.Get("/variants/{variantId}/summary", h.GetVariantSummary)
		r.Get("/variants/{variantId}/locations/{locationId}", h.GetLevel)
		r.Get("/low-stock", h.ListLowStockLevels)
		r.Get("/movements", h.ListMovements)
	})
	r.Route("/api/v1/reservations", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Post("/", h.ReserveStock)
		r.Post("/release-expired", h.ReleaseExpiredReservations)
		r.Get("/{reservationId}", h.GetReservation)
		r.Post("/{reservationId}/fulfill", h.FulfillReservation)
		r.Get("/orders/{orderId}", h.ListOrderReservations)
	})
	r.Route("/api/v1/adjustments", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Post("/", h.CreateAdjustment)
		r.Get("/pending", h.ListPendingAdjustments)
	})
	r.Route("/api/v1/alerts", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Get("/", h.ListAlerts)
	})
	f.router = r

	return f
}

func (f *handlerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func sampleLocation() *domain.StockLocation {
	return &domain.StockLocation{
		ID:           validLocationID,
		Name:         "Main Warehouse",
		Code:         "WH-MAIN",
		LocationType: domain.LocationTypeWarehouse,
		IsDefault:    true,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
}

func sampleLevel() *domain.InventoryLevel {
	return &domain.InventoryLevel{
		ID:                "lvl-1",
		VariantID:         validVariantID,
		LocationID:        validLocationID,
		QuantityOnHand:    100,
		QuantityReserved:  20,
		QuantityAvailable: 80,
		ReorderPoint:      10,
		UpdatedAt:         time.Now().UTC(),
	}
}

func TestCreateLocation_Created(t *testing.T) {
	f := newHandlerFixture(t)

	f.locationRepo.On("GetByCode", mock.Anything, "WH-EAST").
		Return(nil, apperrors.NotFound("location", "WH-EAST"))
	f.locationRepo.On("Create", mock.Anything, mock.AnythingOfType("*domain.StockLocation")).
		Return(nil)

	rec := f.do(jsonRequest(http.MethodPost, "/api/v1/locations/", createLocationRequest{
		Name:         "East Warehouse",
		Code:         "WH-EAST",
		LocationType: "warehouse",
	}))

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	assert.NotNil(t, resp.Data)
	f.locationRepo.AssertExpectations(t)
}

func TestCreateLocation_DuplicateCode(t *testing.T) {
	f := newHandlerFixture(t)

	f.locationRepo.On("GetByCode", mock.Anything, "WH-MAIN").
		Return(sampleLocation(), nil)

	rec := f.do(jsonRequest(http.MethodPost, "/api/v1/locations/", createLocationRequest{
		Name:         "Main Warehouse",
		Code:         "WH-MAIN",
		LocationType: "warehouse",
	}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	f.locationRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateLocation_InvalidType(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(jsonRequest(http.MethodPost, "/api/v1/locations/", createLocationRequest{
		Name:         "Popup Stand",
		Code:         "POP-1",
		LocationType: "kiosk",
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestCreateLocation_InvalidJSON(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/locations/", bytes.NewReader([]byte(`{invalid`)))
	req.Header.Set("Content-Type", "application/json")
	rec := f.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "invalid request body")
}

func TestGetLocation_InvalidUUID(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/locations/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

func TestListLocations_InvalidPerPage(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/locations/?per_page=500", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.Code)
}

func TestGetLevel_Success(t *testing.T) {
	f := newHandlerFixture(t)

	f.levelRepo.On("GetByPair", mock.Anything, validVariantID, validLocationID).
		Return(sampleLevel(), nil)

	rec := f.do(httptest.NewRequest(http.MethodGet,
		"/api/v1/inventory/variants/"+validVariantID+"/locations/"+validLocationID, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	require.NotNil(t, resp.Data)
	level := resp.Data.(map[string]any)
	assert.Equal(t, float64(80), level["quantity_available"])
}

func TestGetLevel_NotFound(t *testing.T) {
	f := newHandlerFixture(t)

	f.levelRepo.On("GetByPair", mock.Anything, validVariantID, validLocationID).
		Return(nil, apperrors.NotFound("inventory level", validVariantID))

	rec := f.do(httptest.NewRequest(http.MethodGet,
		"/api/v1/inventory/variants/"+validVariantID+"/locations/"+validLocationID, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
}

func TestGetVariantSummary_Success(t *testing.T) {
	f := newHandlerFixture(t)

	f.levelRepo.On("GetVariantSummary", mock.Anything, validVariantID).
		Return(&domain.VariantStockSummary{
			VariantID:      validVariantID,
			TotalOnHand:    150,
			TotalReserved:  30,
			TotalAvailable: 120,
			LocationCount:  2,
		}, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet,
		"/api/v1/inventory/variants/"+validVariantID+"/summary", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Data)
	summary := resp.Data.(map[string]any)
	assert.Equal(t, float64(120), summary["total_available"])
}

func TestReceiveStock_ValidationError_ZeroQuantity(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(jsonRequest(http.MethodPost, "/api/v1/inventory/receive", map[string]any{
		"variant_id":  validVariantID,
		"location_id": validLocationID,
		"quantity":    0,
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestReceiveStock_UnsupportedMediaType(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/receive", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "text/plain")
	rec := f.do(req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestListMovements_ByReference(t *testing.T) {
	f := newHandlerFixture(t)

	f.movementRepo.On("ListByReference", mock.Anything, "order", validOrderID).
		Return([]domain.InventoryMovement{
			{ID: "mov-1", VariantID: validVariantID, MovementType: domain.MovementTypeShipment, Quantity: 3},
		}, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet,
		"/api/v1/inventory/movements?reference_type=order&reference_id="+validOrderID, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	f.movementRepo.AssertExpectations(t)
}

func TestReserveStock_ValidationError_MissingOrderID(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(jsonRequest(http.MethodPost, "/api/v1/reservations/", map[string]any{
		"variant_id": validVariantID,
		"quantity":   5,
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestFulfillReservation_ValidationError_NegativeQuantity(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(jsonRequest(http.MethodPost,
		"/api/v1/reservations/"+validReservationID+"/fulfill", map[string]any{"quantity": -1}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestListOrderReservations_Success(t *testing.T) {
	f := newHandlerFixture(t)

	f.reservationRepo.On("ListByOrder", mock.Anything, validOrderID).
		Return([]domain.InventoryReservation{
			{ID: validReservationID, OrderID: validOrderID, VariantID: validVariantID, QuantityReserved: 2, IsActive: true},
		}, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/reservations/orders/"+validOrderID, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	f.reservationRepo.AssertExpectations(t)
}

func TestReleaseExpiredReservations_NothingExpired(t *testing.T) {
	f := newHandlerFixture(t)

	f.reservationRepo.On("ListExpired", mock.Anything, 500).
		Return([]domain.InventoryReservation{}, nil)

	rec := f.do(jsonRequest(http.MethodPost, "/api/v1/reservations/release-expired", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Data)
	result := resp.Data.(map[string]any)
	assert.Equal(t, float64(0), result["released_count"])
}

func TestCreateAdjustment_ActorFromHeader(t *testing.T) {
	f := newHandlerFixture(t)

	f.levelRepo.On("GetByPair", mock.Anything, validVariantID, validLocationID).
		Return(sampleLevel(), nil)
	f.adjustmentRepo.On("NextAdjustmentNumber", mock.Anything, mock.AnythingOfType("time.Time")).
		Return("ADJ-20260826-0001", nil)
	f.adjustmentRepo.On("Create", mock.Anything, mock.MatchedBy(func(adj *domain.StockAdjustment) bool {
		return adj.AdjustedBy != nil && *adj.AdjustedBy == "user-42"
	})).Return(nil)

	req := jsonRequest(http.MethodPost, "/api/v1/adjustments/", map[string]any{
		"variant_id":      validVariantID,
		"location_id":     validLocationID,
		"reason":          "cycle_count",
		"actual_quantity": 95,
	})
	req.Header.Set("X-Actor-ID", "user-42")
	rec := f.do(req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	resp := decodeResponse(t, rec)
	assert.Nil(t, resp.Error)
	f.adjustmentRepo.AssertExpectations(t)
}

func TestCreateAdjustment_InvalidReason(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.do(jsonRequest(http.MethodPost, "/api/v1/adjustments/", map[string]any{
		"variant_id":      validVariantID,
		"location_id":     validLocationID,
		"reason":          "shrinkage",
		"actual_quantity": 95,
		"adjusted_by":     "user-1",
	}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeResponse(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
}

func TestListAlerts_PaginatedEnvelope(t *testing.T) {
	f := newHandlerFixture(t)

	f.alertRepo.On("List", mock.Anything, "active", 1, 20).
		Return([]domain.LowStockAlert{
			{ID: "alert-1", VariantID: validVariantID, LocationID: validLocationID, CurrentQuantity: 4, ReorderPoint: 10, Status: domain.AlertStatusActive},
		}, 1, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/alerts/?status=active", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp httputil.PaginatedResponse[domain.LowStockAlert]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, 1, resp.TotalCount)
	assert.Equal(t, "alert-1", resp.Data[0].ID)
}
