package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/garmenthq/inventory-service/internal/domain"
	"github.com/garmenthq/inventory-service/internal/repository"
	"github.com/garmenthq/inventory-service/pkg/database"
	apperrors "github.com/garmenthq/inventory-service/pkg/errors"
)

// maxTxRetries bounds automatic retries of transactions that fail with a
// serialization or lock conflict.
const maxTxRetries = 3

// CatalogClient answers whether a product variant exists. The catalog service
// owns variant data; inventory only needs existence.
type CatalogClient interface {
	VariantExists(ctx context.Context, variantID string) (bool, error)
}

// EventPublisher publishes inventory domain events after successful commits.
type EventPublisher interface {
	PublishInventoryUpdated(ctx context.Context, level *domain.InventoryLevel) error
	PublishInventoryReserved(ctx context.Context, res *domain.InventoryReservation) error
	PublishInventoryReleased(ctx context.Context, res *domain.InventoryReservation) error
	PublishLowStock(ctx context.Context, alert *domain.LowStockAlert) error
}

// InventoryService implements the business logic for inventory operations.
// It is the sole writer of inventory levels and the movement log: every
// composite operation runs in a single transaction under row-level locks.
type InventoryService struct {
	pool            database.DBTX
	locationRepo    repository.LocationRepository
	levelRepo       repository.LevelRepository
	movementRepo    repository.MovementRepository
	adjustmentRepo  repository.AdjustmentRepository
	alertRepo       repository.AlertRepository
	reservationRepo repository.ReservationRepository
	catalog         CatalogClient
	producer        EventPublisher
	logger          *slog.Logger
	reservationTTL  time.Duration
}

// NewInventoryService creates a new inventory service.
func NewInventoryService(
	pool database.DBTX,
	locationRepo repository.LocationRepository,
	levelRepo repository.LevelRepository,
	movementRepo repository.MovementRepository,
	adjustmentRepo repository.AdjustmentRepository,
	alertRepo repository.AlertRepository,
	reservationRepo repository.ReservationRepository,
	catalog CatalogClient,
	producer EventPublisher,
	logger *slog.Logger,
	reservationTTL time.Duration,
) *InventoryService {
	return &InventoryService{
		pool:            pool,
		locationRepo:    locationRepo,
		levelRepo:       levelRepo,
		movementRepo:    movementRepo,
		adjustmentRepo:  adjustmentRepo,
		alertRepo:       alertRepo,
		reservationRepo: reservationRepo,
		catalog:         catalog,
		producer:        producer,
		logger:          logger,
		reservationTTL:  reservationTTL,
	}
}

// withTx runs fn in a ReadCommitted transaction, rolling back on error and
// translating serialization failures into retryable Conflict errors.
func (s *InventoryService) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return translateConflict(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return translateConflict(fmt.Errorf("commit transaction: %w", err))
	}

	return nil
}

// runWithRetry re-runs a transactional operation when it fails with a
// Conflict, up to maxTxRetries attempts with short linear backoff.
func (s *InventoryService) runWithRetry(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= maxTxRetries; attempt++ {
		err = fn(ctx)
		if err == nil || !apperrors.IsRetryable(err) {
			return err
		}

		if attempt < maxTxRetries {
			s.logger.WarnContext(ctx, "transaction conflict, retrying",
				slog.String("operation", operation),
				slog.Int("attempt", attempt),
				slog.Int("max_attempts", maxTxRetries),
				slog.String("error", err.Error()),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 50 * time.Millisecond):
			}
		}
	}
	return err
}

// translateConflict maps PostgreSQL serialization and deadlock failures to the
// retryable Conflict error. Other errors pass through unchanged.
func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return apperrors.Conflict(fmt.Sprintf("concurrent inventory update: %s", pgErr.Message))
		}
	}
	return err
}

// lockLevel locks the level row for a variant at a location and returns its
// current state. Returns ErrNotFound if no level exists.
func lockLevel(ctx context.Context, tx pgx.Tx, variantID, locationID string) (*domain.InventoryLevel, error) {
	query := `
		SELECT id, variant_id, location_id, quantity_on_hand, quantity_reserved, quantity_available,
			reorder_point, reorder_quantity, max_stock_level, last_counted_at, updated_at
		FROM inventory_levels
		WHERE variant_id = $1 AND location_id = $2
		FOR UPDATE`

	var l domain.InventoryLevel
	err := tx.QueryRow(ctx, query, variantID, locationID).Scan(
		&l.ID,
		&l.VariantID,
		&l.LocationID,
		&l.QuantityOnHand,
		&l.QuantityReserved,
		&l.QuantityAvailable,
		&l.ReorderPoint,
		&l.ReorderQuantity,
		&l.MaxStockLevel,
		&l.LastCountedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("inventory level", variantID+"@"+locationID)
		}
		return nil, fmt.Errorf("lock inventory level: %w", err)
	}

	return &l, nil
}

// lockOrCreateLevel is lockLevel, but creates a zero-quantity level first when
// none exists (receipts and transfer destinations create levels implicitly).
func lockOrCreateLevel(ctx context.Context, tx pgx.Tx, variantID, locationID string) (*domain.InventoryLevel, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO inventory_levels (variant_id, location_id)
		VALUES ($1, $2)
		ON CONFLICT (variant_id, location_id) DO NOTHING`,
		variantID, locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("create inventory level: %w", err)
	}

	return lockLevel(ctx, tx, variantID, locationID)
}

// updateLevelQuantities applies signed deltas to an already-locked level and
// returns the new state. The resulting on-hand and reserved quantities must
// not go negative and on-hand may not drop below reserved; available is always
// recomputed as on-hand minus reserved and so never goes negative either.
func updateLevelQuantities(ctx context.Context, tx pgx.Tx, level *domain.InventoryLevel, onHandDelta, reservedDelta int) (*domain.InventoryLevel, error) {
	newOnHand := level.QuantityOnHand + onHandDelta
	newReserved := level.QuantityReserved + reservedDelta

	if newOnHand < 0 {
		return nil, apperrors.InvalidQuantity(fmt.Sprintf(
			"on-hand quantity cannot go negative: %d%+d", level.QuantityOnHand, onHandDelta,
		))
	}
	if newReserved < 0 {
		return nil, apperrors.InvalidQuantity(fmt.Sprintf(
			"reserved quantity cannot go negative: %d%+d", level.QuantityReserved, reservedDelta,
		))
	}
	if newOnHand < newReserved {
		return nil, apperrors.InvalidQuantity(fmt.Sprintf(
			"on-hand quantity %d cannot drop below reserved %d", newOnHand, newReserved,
		))
	}

	query := `
		UPDATE inventory_levels
		SET quantity_on_hand = $1, quantity_reserved = $2, quantity_available = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`

	updated := *level
	updated.QuantityOnHand = newOnHand
	updated.QuantityReserved = newReserved
	updated.QuantityAvailable = newOnHand - newReserved

	err := tx.QueryRow(ctx, query, newOnHand, newReserved, newOnHand-newReserved, level.ID).Scan(&updated.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update inventory level quantities: %w", err)
	}

	return &updated, nil
}

// insertMovement appends one entry to the movement log inside the transaction
// that caused it.
func insertMovement(ctx context.Context, tx pgx.Tx, m *domain.InventoryMovement) error {
	query := `
		INSERT INTO inventory_movements (id, variant_id, from_location_id, to_location_id, movement_type,
			quantity, unit_cost, total_cost, reference_type, reference_id, reference_number, reason, notes,
			created_by, movement_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := tx.Exec(ctx, query,
		m.ID,
		m.VariantID,
		m.FromLocationID,
		m.ToLocationID,
		m.MovementType,
		m.Quantity,
		m.UnitCost,
		m.TotalCost,
		m.ReferenceType,
		m.ReferenceID,
		m.ReferenceNumber,
		m.Reason,
		m.Notes,
		m.CreatedBy,
		m.MovementDate,
	)
	if err != nil {
		return fmt.Errorf("insert inventory movement: %w", err)
	}

	return nil
}

const replenishedNote = "Stock replenished above reorder point"

// syncLowStockAlert reconciles the alert state for a level inside the same
// transaction as the quantity change. It raises an alert when available
// drops below the reorder point, refreshes an existing active alert, and
// auto-resolves when stock recovers. The returned alert, if not nil, is a
// newly raised alert the caller should publish after commit.
func syncLowStockAlert(ctx context.Context, tx pgx.Tx, level *domain.InventoryLevel) (*domain.LowStockAlert, error) {
	if level.IsBelowReorderPoint() {
		query := `
			INSERT INTO low_stock_alerts (variant_id, location_id, current_quantity, reorder_point,
				recommended_order_quantity, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (variant_id, location_id) WHERE status = 'active'
			DO UPDATE SET current_quantity = EXCLUDED.current_quantity,
				reorder_point = EXCLUDED.reorder_point,
				recommended_order_quantity = EXCLUDED.recommended_order_quantity
			RETURNING id, variant_id, location_id, current_quantity, reorder_point,
				recommended_order_quantity, status, resolved_by, resolved_at, resolution_notes, alert_date,
				(xmax = 0) AS inserted`

		var (
			alert    domain.LowStockAlert
			inserted bool
		)
		err := tx.QueryRow(ctx, query,
			level.VariantID,
			level.LocationID,
			level.QuantityAvailable,
			level.ReorderPoint,
			level.RecommendedOrderQuantity(),
			domain.AlertStatusActive,
		).Scan(
			&alert.ID,
			&alert.VariantID,
			&alert.LocationID,
			&alert.CurrentQuantity,
			&alert.ReorderPoint,
			&alert.RecommendedOrderQuantity,
			&alert.Status,
			&alert.ResolvedBy,
			&alert.ResolvedAt,
			&alert.ResolutionNotes,
			&alert.AlertDate,
			&inserted,
		)
		if err != nil {
			return nil, fmt.Errorf("upsert low stock alert: %w", err)
		}

		if inserted {
			return &alert, nil
		}
		return nil, nil
	}

	// Stock recovered: auto-resolve any open alert.
	_, err := tx.Exec(ctx, `
		UPDATE low_stock_alerts
		SET status = $1, resolved_at = NOW(), resolution_notes = $2
		WHERE variant_id = $3 AND location_id = $4 AND status = $5`,
		domain.AlertStatusResolved, replenishedNote, level.VariantID, level.LocationID, domain.AlertStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("auto-resolve low stock alert: %w", err)
	}

	return nil, nil
}

// verifyVariant checks variant existence with the catalog service. Catalog
// outages degrade gracefully: the operation proceeds with a warning rather
// than blocking all stock movements.
func (s *InventoryService) verifyVariant(ctx context.Context, variantID string) error {
	exists, err := s.catalog.VariantExists(ctx, variantID)
	if err != nil {
		s.logger.WarnContext(ctx, "catalog lookup failed, proceeding without variant check",
			slog.String("variant_id", variantID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if !exists {
		return apperrors.NotFound("variant", variantID)
	}
	return nil
}

// publishUpdated emits inventory.updated, logging instead of failing the
// already-committed operation.
func (s *InventoryService) publishUpdated(ctx context.Context, level *domain.InventoryLevel) {
	if err := s.producer.PublishInventoryUpdated(ctx, level); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish inventory.updated event",
			slog.String("variant_id", level.VariantID),
			slog.String("location_id", level.LocationID),
			slog.String("error", err.Error()),
		)
	}
}

// publishLowStock emits inventory.low_stock for a newly raised alert.
func (s *InventoryService) publishLowStock(ctx context.Context, alert *domain.LowStockAlert) {
	if alert == nil {
		return
	}
	if err := s.producer.PublishLowStock(ctx, alert); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish inventory.low_stock event",
			slog.String("alert_id", alert.ID),
			slog.String("variant_id", alert.VariantID),
			slog.String("error", err.Error()),
		)
	}
}
