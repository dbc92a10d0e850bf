package service

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/garmenthq/inventory-service/internal/domain"
	"github.com/garmenthq/inventory-service/pkg/database"
)

// --- Mock LocationRepository ---

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

// --- Mock LevelRepository ---

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

// --- Mock MovementRepository ---

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

// --- Mock AdjustmentRepository ---

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

// --- Mock AlertRepository ---

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

// --- Mock ReservationRepository ---

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

// --- Stub CatalogClient ---

type stubCatalog struct {
	exists bool
	err    error
}

func (c *stubCatalog) VariantExists(ctx context.Context, variantID string) (bool, error) {
	return c.exists, c.err
}

// --- Recording EventPublisher ---

type recordingPublisher struct {
	updated  []*domain.InventoryLevel
	reserved []*domain.InventoryReservation
	released []*domain.InventoryReservation
	lowStock []*domain.LowStockAlert
}

func (p *recordingPublisher) PublishInventoryUpdated(ctx context.Context, level *domain.InventoryLevel) error {
	p.updated = append(p.updated, level)
	return nil
}

func (p *recordingPublisher) PublishInventoryReserved(ctx context.Context, res *domain.InventoryReservation) error {
	p.reserved = append(p.reserved, res)
	return nil
}

func (p *recordingPublisher) PublishInventoryReleased(ctx context.Context, res *domain.InventoryReservation) error {
	p.released = append(p.released, res)
	return nil
}

func (p *recordingPublisher) PublishLowStock(ctx context.Context, alert *domain.LowStockAlert) error {
	p.lowStock = append(p.lowStock, alert)
	return nil
}

// --- Test fixture ---

type serviceFixture struct {
	svc             *InventoryService
	pool            pgxmock.PgxPoolIface
	locationRepo    *mockLocationRepository
	levelRepo       *mockLevelRepository
	movementRepo    *mockMovementRepository
	adjustmentRepo  *mockAdjustmentRepository
	alertRepo       *mockAlertRepository
	reservationRepo *mockReservationRepository
	catalog         *stubCatalog
	producer        *recordingPublisher
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()

	pool, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	f := &serviceFixture{
		pool:            pool,
		locationRepo:    new(mockLocationRepository),
		levelRepo:       new(mockLevelRepository),
		movementRepo:    new(mockMovementRepository),
		adjustmentRepo:  new(mockAdjustmentRepository),
		alertRepo:       new(mockAlertRepository),
		reservationRepo: new(mockReservationRepository),
		catalog:         &stubCatalog{exists: true},
		producer:        &recordingPublisher{},
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	f.svc = NewInventoryService(
		pool,
		f.locationRepo,
		f.levelRepo,
		f.movementRepo,
		f.adjustmentRepo,
		f.alertRepo,
		f.reservationRepo,
		f.catalog,
		f.producer,
		logger,
		15*time.Minute,
	)

	return f
}

// expectBegin registers the transaction options withTx always opens with.
func (f *serviceFixture) expectBegin() {
	f.pool.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
}

// anyArgs builds n wildcard argument matchers for statements whose arguments
// the test does not assert on.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

var levelColumns = []string{
	"id", "variant_id", "location_id", "quantity_on_hand", "quantity_reserved",
	"quantity_available", "reorder_point", "reorder_quantity", "max_stock_level",
	"last_counted_at", "updated_at",
}

var reservationRowColumns = []string{
	"id", "order_id", "order_item_id", "variant_id", "location_id", "quantity_reserved",
	"quantity_fulfilled", "is_active", "expires_at", "notes", "reserved_at",
	"released_at", "fulfilled_at",
}

// levelRow builds a pgxmock row for a level with no reorder settings.
func levelRow(id, variantID, locationID string, onHand, reserved int) *pgxmock.Rows {
	return levelRowWithReorder(id, variantID, locationID, onHand, reserved, 0, 0)
}

func levelRowWithReorder(id, variantID, locationID string, onHand, reserved, reorderPoint, reorderQty int) *pgxmock.Rows {
	return pgxmock.NewRows(levelColumns).AddRow(
		id, variantID, locationID, onHand, reserved, onHand-reserved,
		reorderPoint, reorderQty, (*int)(nil), (*time.Time)(nil),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	)
}

func activeLocation(id string) *domain.StockLocation {
	return &domain.StockLocation{
		ID:           id,
		Name:         "Main Warehouse",
		Code:         "WH-MAIN",
		LocationType: domain.LocationTypeWarehouse,
		IsActive:     true,
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
