package http

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/garmenthq/inventory-service/internal/domain"
)

// --- Mock repositories ---

type mockLocationRepository struct {
	mock.Mock
}

func (m *mockLocationRepository) Create(ctx context.Context, loc *domain.StockLocation) error {
	args := m.Called(ctx, loc)
	return args.Error(0)
}

func (m *mockLocationRepository) Update(ctx context.Context, loc *domain.StockLocation) error {
	args := m.Called(ctx, loc)
	return args.Error(0)
}

func (m *mockLocationRepository) GetByID(ctx context.Context, id string) (*domain.StockLocation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockLocation), args.Error(1)
}

func (m *mockLocationRepository) GetByCode(ctx context.Context, code string) (*domain.StockLocation, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockLocation), args.Error(1)
}

func (m *mockLocationRepository) GetDefault(ctx context.Context) (*domain.StockLocation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockLocation), args.Error(1)
}

func (m *mockLocationRepository) List(ctx context.Context, activeOnly bool, page, perPage int) ([]domain.StockLocation, int, error) {
	args := m.Called(ctx, activeOnly, page, perPage)
	return args.Get(0).([]domain.StockLocation), args.Int(1), args.Error(2)
}

func (m *mockLocationRepository) ClearDefault(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockLocationRepository) Deactivate(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockLocationRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockLocationRepository) HasInventory(ctx context.Context, locationID string) (bool, error) {
	args := m.Called(ctx, locationID)
	return args.Bool(0), args.Error(1)
}

type mockLevelRepository struct {
	mock.Mock
}

func (m *mockLevelRepository) GetByPair(ctx context.Context, variantID, locationID string) (*domain.InventoryLevel, error) {
	args := m.Called(ctx, variantID, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryLevel), args.Error(1)
}

func (m *mockLevelRepository) ListByVariant(ctx context.Context, variantID string) ([]domain.InventoryLevel, error) {
	args := m.Called(ctx, variantID)
	return args.Get(0).([]domain.InventoryLevel), args.Error(1)
}

func (m *mockLevelRepository) ListByLocation(ctx context.Context, locationID string, page, perPage int) ([]domain.InventoryLevel, int, error) {
	args := m.Called(ctx, locationID, page, perPage)
	return args.Get(0).([]domain.InventoryLevel), args.Int(1), args.Error(2)
}

func (m *mockLevelRepository) ListLowStock(ctx context.Context, page, perPage int) ([]domain.InventoryLevel, int, error) {
	args := m.Called(ctx, page, perPage)
	return args.Get(0).([]domain.InventoryLevel), args.Int(1), args.Error(2)
}

func (m *mockLevelRepository) GetVariantSummary(ctx context.Context, variantID string) (*domain.VariantStockSummary, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VariantStockSummary), args.Error(1)
}

func (m *mockLevelRepository) UpdateReorderSettings(ctx context.Context, variantID, locationID string, reorderPoint, reorderQuantity int, maxStockLevel *int) (*domain.InventoryLevel, error) {
	args := m.Called(ctx, variantID, locationID, reorderPoint, reorderQuantity, maxStockLevel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryLevel), args.Error(1)
}

func (m *mockLevelRepository) RecordCycleCount(ctx context.Context, variantID, locationID string, countedAt time.Time) error {
	args := m.Called(ctx, variantID, locationID, countedAt)
	return args.Error(0)
}

type mockMovementRepository struct {
	mock.Mock
}

func (m *mockMovementRepository) ListByVariant(ctx context.Context, variantID string, from, to *time.Time, page, perPage int) ([]domain.InventoryMovement, int, error) {
	args := m.Called(ctx, variantID, from, to, page, perPage)
	return args.Get(0).([]domain.InventoryMovement), args.Int(1), args.Error(2)
}

func (m *mockMovementRepository) ListByReference(ctx context.Context, referenceType, referenceID string) ([]domain.InventoryMovement, error) {
	args := m.Called(ctx, referenceType, referenceID)
	return args.Get(0).([]domain.InventoryMovement), args.Error(1)
}

func (m *mockMovementRepository) List(ctx context.Context, page, perPage int) ([]domain.InventoryMovement, int, error) {
	args := m.Called(ctx, page, perPage)
	return args.Get(0).([]domain.InventoryMovement), args.Int(1), args.Error(2)
}

type mockAdjustmentRepository struct {
	mock.Mock
}

func (m *mockAdjustmentRepository) Create(ctx context.Context, adj *domain.StockAdjustment) error {
	args := m.Called(ctx, adj)
	return args.Error(0)
}

func (m *mockAdjustmentRepository) GetByID(ctx context.Context, id string) (*domain.StockAdjustment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StockAdjustment), args.Error(1)
}

func (m *mockAdjustmentRepository) NextAdjustmentNumber(ctx context.Context, date time.Time) (string, error) {
	args := m.Called(ctx, date)
	return args.String(0), args.Error(1)
}

func (m *mockAdjustmentRepository) List(ctx context.Context, status string, page, perPage int) ([]domain.StockAdjustment, int, error) {
	args := m.Called(ctx, status, page, perPage)
	return args.Get(0).([]domain.StockAdjustment), args.Int(1), args.Error(2)
}

func (m *mockAdjustmentRepository) ListPending(ctx context.Context) ([]domain.StockAdjustment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.StockAdjustment), args.Error(1)
}

func (m *mockAdjustmentRepository) MarkRejected(ctx context.Context, id, rejectedBy string, notes *string) error {
	args := m.Called(ctx, id, rejectedBy, notes)
	return args.Error(0)
}

type mockAlertRepository struct {
	mock.Mock
}

func (m *mockAlertRepository) GetByID(ctx context.Context, id string) (*domain.LowStockAlert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LowStockAlert), args.Error(1)
}

func (m *mockAlertRepository) GetActiveByPair(ctx context.Context, variantID, locationID string) (*domain.LowStockAlert, error) {
	args := m.Called(ctx, variantID, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LowStockAlert), args.Error(1)
}

func (m *mockAlertRepository) List(ctx context.Context, status string, page, perPage int) ([]domain.LowStockAlert, int, error) {
	args := m.Called(ctx, status, page, perPage)
	return args.Get(0).([]domain.LowStockAlert), args.Int(1), args.Error(2)
}

func (m *mockAlertRepository) ListActive(ctx context.Context) ([]domain.LowStockAlert, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.LowStockAlert), args.Error(1)
}

func (m *mockAlertRepository) MarkStatus(ctx context.Context, id, status string, resolvedBy *string, notes *string) error {
	args := m.Called(ctx, id, status, resolvedBy, notes)
	return args.Error(0)
}

type mockReservationRepository struct {
	mock.Mock
}

func (m *mockReservationRepository) GetByID(ctx context.Context, id string) (*domain.InventoryReservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InventoryReservation), args.Error(1)
}

func (m *mockReservationRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.InventoryReservation, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]domain.InventoryReservation), args.Error(1)
}

func (m *mockReservationRepository) ListActiveByVariant(ctx context.Context, variantID string) ([]domain.InventoryReservation, error) {
	args := m.Called(ctx, variantID)
	return args.Get(0).([]domain.InventoryReservation), args.Error(1)
}

func (m *mockReservationRepository) TotalReservedForVariant(ctx context.Context, variantID string) (int, error) {
	args := m.Called(ctx, variantID)
	return args.Int(0), args.Error(1)
}

func (m *mockReservationRepository) ListExpired(ctx context.Context, limit int) ([]domain.InventoryReservation, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]domain.InventoryReservation), args.Error(1)
}

// --- Catalog and event stubs ---

type stubCatalog struct {
	exists bool
	err    error
}

func (s stubCatalog) VariantExists(ctx context.Context, variantID string) (bool, error) {
	return s.exists, s.err
}

type noopPublisher struct{}

func (noopPublisher) PublishInventoryUpdated(ctx context.Context, level *domain.InventoryLevel) error {
	return nil
}

func (noopPublisher) PublishInventoryReserved(ctx context.Context, res *domain.InventoryReservation) error {
	return nil
}

func (noopPublisher) PublishInventoryReleased(ctx context.Context, res *domain.InventoryReservation) error {
	return nil
}

func (noopPublisher) PublishLowStock(ctx context.Context, alert *domain.LowStockAlert) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}
