package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/garmenthq/inventory-service/internal/domain"
	apperrors "github.com/garmenthq/inventory-service/pkg/errors"
)

// GetLevel retrieves the inventory level for a variant at a location.
func (s *InventoryService) GetLevel(ctx context.Context, variantID, locationID string) (*domain.InventoryLevel, error) {
	return s.levelRepo.GetByPair(ctx, variantID, locationID)
}

// ListLevelsByVariant returns a variant's levels across all locations.
func (s *InventoryService) ListLevelsByVariant(ctx context.Context, variantID string) ([]domain.InventoryLevel, error) {
	return s.levelRepo.ListByVariant(ctx, variantID)
}

// ListLevelsByLocation returns the levels at a location, paginated.
func (s *InventoryService) ListLevelsByLocation(ctx context.Context, locationID string, page, perPage int) ([]domain.InventoryLevel, int, error) {
	return s.levelRepo.ListByLocation(ctx, locationID, page, perPage)
}

// ListLowStockLevels returns levels below their reorder point, paginated.
func (s *InventoryService) ListLowStockLevels(ctx context.Context, page, perPage int) ([]domain.InventoryLevel, int, error) {
	return s.levelRepo.ListLowStock(ctx, page, perPage)
}

// GetVariantSummary aggregates a variant's stock across all locations.
func (s *InventoryService) GetVariantSummary(ctx context.Context, variantID string) (*domain.VariantStockSummary, error) {
	return s.levelRepo.GetVariantSummary(ctx, variantID)
}

// UpdateReorderSettings changes the reorder point, reorder quantity, and max
// stock level for a level, then reconciles the low stock alert state since a
// new reorder point can put the level above or below the line.
func (s *InventoryService) UpdateReorderSettings(ctx context.Context, variantID, locationID string, reorderPoint, reorderQuantity int, maxStockLevel *int) (*domain.InventoryLevel, error) {
	if reorderPoint < 0 || reorderQuantity < 0 {
		return nil, apperrors.InvalidQuantity("reorder point and reorder quantity cannot be negative")
	}
	if maxStockLevel != nil && *maxStockLevel < 0 {
		return nil, apperrors.InvalidQuantity("max stock level cannot be negative")
	}

	level, err := s.levelRepo.UpdateReorderSettings(ctx, variantID, locationID, reorderPoint, reorderQuantity, maxStockLevel)
	if err != nil {
		return nil, err
	}

	var newAlert *domain.LowStockAlert
	err = s.runWithRetry(ctx, "sync_alert_after_reorder_update", func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			locked, err := lockLevel(ctx, tx, variantID, locationID)
			if err != nil {
				return err
			}
			newAlert, err = syncLowStockAlert(ctx, tx, locked)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishLowStock(ctx, newAlert)

	s.logger.InfoContext(ctx, "reorder settings updated",
		slog.String("variant_id", variantID),
		slog.String("location_id", locationID),
		slog.Int("reorder_point", reorderPoint),
		slog.Int("reorder_quantity", reorderQuantity),
	)

	return level, nil
}

// RecordCycleCount stamps last_counted_at on a level. Discrepancies found
// during the count go through the adjustment workflow.
func (s *InventoryService) RecordCycleCount(ctx context.Context, variantID, locationID string, countedAt time.Time) error {
	if countedAt.IsZero() {
		countedAt = time.Now().UTC()
	}
	return s.levelRepo.RecordCycleCount(ctx, variantID, locationID, countedAt)
}

// ListMovementsByVariant returns a variant's movement history, newest first,
// optionally bounded by a date range.
func (s *InventoryService) ListMovementsByVariant(ctx context.Context, variantID string, from, to *time.Time, page, perPage int) ([]domain.InventoryMovement, int, error) {
	return s.movementRepo.ListByVariant(ctx, variantID, from, to, page, perPage)
}

// ListMovementsByReference returns movements recorded against a reference
// document, such as an order or adjustment.
func (s *InventoryService) ListMovementsByReference(ctx context.Context, referenceType, referenceID string) ([]domain.InventoryMovement, error) {
	return s.movementRepo.ListByReference(ctx, referenceType, referenceID)
}

// ListMovements returns all movements, newest first, paginated.
func (s *InventoryService) ListMovements(ctx context.Context, page, perPage int) ([]domain.InventoryMovement, int, error) {
	return s.movementRepo.List(ctx, page, perPage)
}

// GetAdjustment retrieves an adjustment by id.
func (s *InventoryService) GetAdjustment(ctx context.Context, id string) (*domain.StockAdjustment, error) {
	return s.adjustmentRepo.GetByID(ctx, id)
}

// ListAdjustments returns adjustments filtered by status, newest first.
func (s *InventoryService) ListAdjustments(ctx context.Context, status string, page, perPage int) ([]domain.StockAdjustment, int, error) {
	return s.adjustmentRepo.List(ctx, status, page, perPage)
}

// ListPendingAdjustments returns all adjustments awaiting review.
func (s *InventoryService) ListPendingAdjustments(ctx context.Context) ([]domain.StockAdjustment, error) {
	return s.adjustmentRepo.ListPending(ctx)
}

// GetReservation retrieves a reservation by id.
func (s *InventoryService) GetReservation(ctx context.Context, id string) (*domain.InventoryReservation, error) {
	return s.reservationRepo.GetByID(ctx, id)
}

// ListReservationsByOrder returns all reservations for an order.
func (s *InventoryService) ListReservationsByOrder(ctx context.Context, orderID string) ([]domain.InventoryReservation, error) {
	return s.reservationRepo.ListByOrder(ctx, orderID)
}

// ListActiveReservationsByVariant returns the active holds for a variant.
func (s *InventoryService) ListActiveReservationsByVariant(ctx context.Context, variantID string) ([]domain.InventoryReservation, error) {
	return s.reservationRepo.ListActiveByVariant(ctx, variantID)
}
