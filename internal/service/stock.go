package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/garmenthq/inventory-service/internal/domain"
	apperrors "github.com/garmenthq/inventory-service/pkg/errors"
)

// ReceiveStockInput describes an inbound receipt of stock.
type ReceiveStockInput struct {
	VariantID       string
	LocationID      string
	Quantity        int
	UnitCost        *float64
	ReferenceType   *string
	ReferenceID     *string
	ReferenceNumber *string
	Notes           *string
	CreatedBy       *string
}

// ShipStockInput describes an outbound shipment of previously reserved stock.
type ShipStockInput struct {
	VariantID       string
	LocationID      string
	Quantity        int
	ReferenceType   *string
	ReferenceID     *string
	ReferenceNumber *string
	Notes           *string
	CreatedBy       *string
}

// TransferStockInput describes a stock move between two locations.
type TransferStockInput struct {
	VariantID      string
	FromLocationID string
	ToLocationID   string
	Quantity       int
	Reason         *string
	Notes          *string
	CreatedBy      *string
}

// ReceiveStock adds quantity to on-hand at a location, creating the inventory
// level if none exists, and records a receipt movement. Receiving can clear an
// open low stock alert.
func (s *InventoryService) ReceiveStock(ctx context.Context, in ReceiveStockInput) (*domain.InventoryLevel, error) {
	if in.Quantity <= 0 {
		return nil, apperrors.InvalidQuantity("receive quantity must be positive")
	}
	if err := s.verifyVariant(ctx, in.VariantID); err != nil {
		return nil, err
	}
	if err := s.requireActiveLocation(ctx, in.LocationID); err != nil {
		return nil, err
	}

	var updated *domain.InventoryLevel

	err := s.runWithRetry(ctx, "receive_stock", func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			level, err := lockOrCreateLevel(ctx, tx, in.VariantID, in.LocationID)
			if err != nil {
				return err
			}

			updated, err = updateLevelQuantities(ctx, tx, level, in.Quantity, 0)
			if err != nil {
				return err
			}

			var totalCost *float64
			if in.UnitCost != nil {
				tc := *in.UnitCost * float64(in.Quantity)
				totalCost = &tc
			}

			if err := insertMovement(ctx, tx, &domain.InventoryMovement{
				ID:              uuid.New().String(),
				VariantID:       in.VariantID,
				ToLocationID:    &in.LocationID,
				MovementType:    domain.MovementTypeReceipt,
				Quantity:        in.Quantity,
				UnitCost:        in.UnitCost,
				TotalCost:       totalCost,
				ReferenceType:   in.ReferenceType,
				ReferenceID:     in.ReferenceID,
				ReferenceNumber: in.ReferenceNumber,
				Notes:           in.Notes,
				CreatedBy:       in.CreatedBy,
				MovementDate:    time.Now().UTC(),
			}); err != nil {
				return err
			}

			_, err = syncLowStockAlert(ctx, tx, updated)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, updated)

	s.logger.InfoContext(ctx, "stock received",
		slog.String("variant_id", in.VariantID),
		slog.String("location_id", in.LocationID),
		slog.Int("quantity", in.Quantity),
		slog.Int("on_hand", updated.QuantityOnHand),
	)

	return updated, nil
}

// ShipStock removes previously reserved quantity from a location and records a
// shipment movement. Shipping is bounded by the reserved quantity so a
// shipment can never consume stock that other orders still hold.
func (s *InventoryService) ShipStock(ctx context.Context, in ShipStockInput) (*domain.InventoryLevel, error) {
	if in.Quantity <= 0 {
		return nil, apperrors.InvalidQuantity("ship quantity must be positive")
	}

	var (
		updated  *domain.InventoryLevel
		newAlert *domain.LowStockAlert
	)

	err := s.runWithRetry(ctx, "ship_stock", func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			level, err := lockLevel(ctx, tx, in.VariantID, in.LocationID)
			if err != nil {
				return err
			}

			if level.QuantityReserved < in.Quantity {
				return apperrors.InsufficientStock(in.Quantity, level.QuantityReserved)
			}

			updated, err = updateLevelQuantities(ctx, tx, level, -in.Quantity, -in.Quantity)
			if err != nil {
				return err
			}

			if err := insertMovement(ctx, tx, &domain.InventoryMovement{
				ID:              uuid.New().String(),
				VariantID:       in.VariantID,
				FromLocationID:  &in.LocationID,
				MovementType:    domain.MovementTypeShipment,
				Quantity:        in.Quantity,
				ReferenceType:   in.ReferenceType,
				ReferenceID:     in.ReferenceID,
				ReferenceNumber: in.ReferenceNumber,
				Notes:           in.Notes,
				CreatedBy:       in.CreatedBy,
				MovementDate:    time.Now().UTC(),
			}); err != nil {
				return err
			}

			newAlert, err = syncLowStockAlert(ctx, tx, updated)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, updated)
	s.publishLowStock(ctx, newAlert)

	s.logger.InfoContext(ctx, "stock shipped",
		slog.String("variant_id", in.VariantID),
		slog.String("location_id", in.LocationID),
		slog.Int("quantity", in.Quantity),
		slog.Int("on_hand", updated.QuantityOnHand),
		slog.Int("reserved", updated.QuantityReserved),
	)

	return updated, nil
}

// TransferStock moves available quantity between two locations in one
// transaction, creating the destination level if needed, and records a single
// transfer movement. Level rows are locked in ascending location-id order so
// two opposing transfers cannot deadlock.
func (s *InventoryService) TransferStock(ctx context.Context, in TransferStockInput) (*domain.InventoryLevel, *domain.InventoryLevel, error) {
	if in.Quantity <= 0 {
		return nil, nil, apperrors.InvalidQuantity("transfer quantity must be positive")
	}
	if in.FromLocationID == in.ToLocationID {
		return nil, nil, apperrors.InvalidInput("source and destination locations must differ")
	}
	if err := s.requireActiveLocation(ctx, in.ToLocationID); err != nil {
		return nil, nil, err
	}

	var source, dest *domain.InventoryLevel

	err := s.runWithRetry(ctx, "transfer_stock", func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			// Consistent lock order regardless of transfer direction.
			first, second := in.FromLocationID, in.ToLocationID
			if second < first {
				first, second = second, first
			}

			var levels [2]*domain.InventoryLevel
			for i, locID := range []string{first, second} {
				level, err := lockOrCreateLevel(ctx, tx, in.VariantID, locID)
				if err != nil {
					return err
				}
				levels[i] = level
			}

			srcLevel, dstLevel := levels[0], levels[1]
			if srcLevel.LocationID != in.FromLocationID {
				srcLevel, dstLevel = dstLevel, srcLevel
			}

			if srcLevel.QuantityAvailable < in.Quantity {
				return apperrors.InsufficientStock(in.Quantity, srcLevel.QuantityAvailable)
			}

			var err error
			source, err = updateLevelQuantities(ctx, tx, srcLevel, -in.Quantity, 0)
			if err != nil {
				return err
			}
			dest, err = updateLevelQuantities(ctx, tx, dstLevel, in.Quantity, 0)
			if err != nil {
				return err
			}

			if err := insertMovement(ctx, tx, &domain.InventoryMovement{
				ID:             uuid.New().String(),
				VariantID:      in.VariantID,
				FromLocationID: &in.FromLocationID,
				ToLocationID:   &in.ToLocationID,
				MovementType:   domain.MovementTypeTransfer,
				Quantity:       in.Quantity,
				Reason:         in.Reason,
				Notes:          in.Notes,
				CreatedBy:      in.CreatedBy,
				MovementDate:   time.Now().UTC(),
			}); err != nil {
				return err
			}

			// Source may drop below its reorder point; destination may recover.
			if _, err := syncLowStockAlert(ctx, tx, source); err != nil {
				return err
			}
			_, err = syncLowStockAlert(ctx, tx, dest)
			return err
		})
	})
	if err != nil {
		return nil, nil, err
	}

	s.publishUpdated(ctx, source)
	s.publishUpdated(ctx, dest)

	s.logger.InfoContext(ctx, "stock transferred",
		slog.String("variant_id", in.VariantID),
		slog.String("from_location_id", in.FromLocationID),
		slog.String("to_location_id", in.ToLocationID),
		slog.Int("quantity", in.Quantity),
	)

	return source, dest, nil
}

// requireActiveLocation verifies the location exists and is active.
func (s *InventoryService) requireActiveLocation(ctx context.Context, locationID string) error {
	loc, err := s.locationRepo.GetByID(ctx, locationID)
	if err != nil {
		return err
	}
	if !loc.IsActive {
		return apperrors.InvalidState(fmt.Sprintf("location %s is deactivated", locationID))
	}
	return nil
}
