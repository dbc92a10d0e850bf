package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/garmenthq/inventory-service/internal/domain"
	apperrors "github.com/garmenthq/inventory-service/pkg/errors"
)

const referenceTypeOrder = "order"

// ReserveStockInput describes an order-scoped hold on stock.
type ReserveStockInput struct {
	OrderID     string
	OrderItemID *string
	VariantID   string
	LocationID  *string
	Quantity    int
	Notes       *string
	CreatedBy   *string
}

// ReserveStock places a hold on available stock for an order line. When no
// location is given, the location with the most available stock is chosen.
// The hold moves quantity from available to reserved without touching on-hand
// and expires after the configured TTL unless fulfilled or released first.
func (s *InventoryService) ReserveStock(ctx context.Context, in ReserveStockInput) (*domain.InventoryReservation, error) {
	if in.Quantity <= 0 {
		return nil, apperrors.InvalidQuantity("reserve quantity must be positive")
	}
	if in.OrderID == "" {
		return nil, apperrors.InvalidInput("order id is required")
	}
	if err := s.verifyVariant(ctx, in.VariantID); err != nil {
		return nil, err
	}

	var (
		reservation *domain.InventoryReservation
		updated     *domain.InventoryLevel
		newAlert    *domain.LowStockAlert
	)

	err := s.runWithRetry(ctx, "reserve_stock", func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			level, err := s.lockLevelForReservation(ctx, tx, in.VariantID, in.LocationID)
			if err != nil {
				return err
			}

			if level.QuantityAvailable < in.Quantity {
				return apperrors.InsufficientStock(in.Quantity, level.QuantityAvailable)
			}

			updated, err = updateLevelQuantities(ctx, tx, level, 0, in.Quantity)
			if err != nil {
				return err
			}

			reservation = &domain.InventoryReservation{
				ID:               uuid.New().String(),
				OrderID:          in.OrderID,
				OrderItemID:      in.OrderItemID,
				VariantID:        in.VariantID,
				LocationID:       &level.LocationID,
				QuantityReserved: in.Quantity,
				IsActive:         true,
				Notes:            in.Notes,
				ReservedAt:       time.Now().UTC(),
			}
			if s.reservationTTL > 0 {
				expires := reservation.ReservedAt.Add(s.reservationTTL)
				reservation.ExpiresAt = &expires
			}

			if err := insertReservation(ctx, tx, reservation); err != nil {
				return err
			}

			if err := insertMovement(ctx, tx, &domain.InventoryMovement{
				ID:             uuid.New().String(),
				VariantID:      in.VariantID,
				FromLocationID: &level.LocationID,
				MovementType:   domain.MovementTypeReservation,
				Quantity:       in.Quantity,
				ReferenceType:  strPtr(referenceTypeOrder),
				ReferenceID:    &in.OrderID,
				Notes:          in.Notes,
				CreatedBy:      in.CreatedBy,
				MovementDate:   reservation.ReservedAt,
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

	s.publishReserved(ctx, reservation)
	s.publishUpdated(ctx, updated)
	s.publishLowStock(ctx, newAlert)

	s.logger.InfoContext(ctx, "stock reserved",
		slog.String("reservation_id", reservation.ID),
		slog.String("order_id", in.OrderID),
		slog.String("variant_id", in.VariantID),
		slog.Int("quantity", in.Quantity),
	)

	return reservation, nil
}

// ReleaseReservation returns the unfulfilled portion of a hold to available
// stock. Releasing an already-released reservation is a no-op, so callers can
// retry safely.
func (s *InventoryService) ReleaseReservation(ctx context.Context, reservationID string, notes *string) (*domain.InventoryReservation, error) {
	var (
		reservation *domain.InventoryReservation
		updated     *domain.InventoryLevel
		released    bool
	)

	err := s.runWithRetry(ctx, "release_reservation", func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			var err error
			reservation, updated, released, err = s.releaseInTx(ctx, tx, reservationID, notes)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	if released {
		s.publishReleased(ctx, reservation)
		if updated != nil {
			s.publishUpdated(ctx, updated)
		}
		s.logger.InfoContext(ctx, "reservation released",
			slog.String("reservation_id", reservation.ID),
			slog.String("order_id", reservation.OrderID),
			slog.Int("quantity_returned", reservation.Remaining()),
		)
	}

	return reservation, nil
}

// ReleaseOrderReservations releases every active hold for an order in one
// transaction. Used when an order is canceled.
func (s *InventoryService) ReleaseOrderReservations(ctx context.Context, orderID string, notes *string) (int, error) {
	var (
		releasedRes []*domain.InventoryReservation
		levels      []*domain.InventoryLevel
	)

	err := s.runWithRetry(ctx, "release_order_reservations", func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			releasedRes = releasedRes[:0]
			levels = levels[:0]

			rows, err := tx.Query(ctx, `
				SELECT id FROM inventory_reservations
				WHERE order_id = $1 AND is_active
				ORDER BY reserved_at ASC
				FOR UPDATE`,
				orderID,
			)
			if err != nil {
				return fmt.Errorf("lock order reservations: %w", err)
			}

			var ids []string
			for rows.Next() {
				var id string
				if err := rows.Scan(&id); err != nil {
					rows.Close()
					return fmt.Errorf("scan reservation id: %w", err)
				}
				ids = append(ids, id)
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return fmt.Errorf("iterate reservation ids: %w", err)
			}

			for _, id := range ids {
				res, level, released, err := s.releaseInTx(ctx, tx, id, notes)
				if err != nil {
					return err
				}
				if released {
					releasedRes = append(releasedRes, res)
					if level != nil {
						levels = append(levels, level)
					}
				}
			}
			return nil
		})
	})
	if err != nil {
		return 0, err
	}

	for _, res := range releasedRes {
		s.publishReleased(ctx, res)
	}
	for _, level := range levels {
		s.publishUpdated(ctx, level)
	}

	if len(releasedRes) > 0 {
		s.logger.InfoContext(ctx, "order reservations released",
			slog.String("order_id", orderID),
			slog.Int("count", len(releasedRes)),
		)
	}

	return len(releasedRes), nil
}

// FulfillReservation records that part of a hold shipped. It is reservation
// bookkeeping only; the matching ShipStock call moves the actual quantities.
// When the hold is fully consumed the reservation is closed.
func (s *InventoryService) FulfillReservation(ctx context.Context, reservationID string, quantity int) (*domain.InventoryReservation, error) {
	if quantity <= 0 {
		return nil, apperrors.InvalidQuantity("fulfill quantity must be positive")
	}

	var reservation *domain.InventoryReservation

	err := s.runWithRetry(ctx, "fulfill_reservation", func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			res, err := lockReservation(ctx, tx, reservationID)
			if err != nil {
				return err
			}

			if !res.IsActive {
				return apperrors.InvalidState(fmt.Sprintf("reservation %s is no longer active", reservationID))
			}
			if quantity > res.Remaining() {
				return apperrors.InvalidQuantity(fmt.Sprintf(
					"fulfill quantity %d exceeds remaining hold of %d", quantity, res.Remaining(),
				))
			}

			res.QuantityFulfilled += quantity
			if res.IsFullyFulfilled() {
				res.IsActive = false
				now := time.Now().UTC()
				res.FulfilledAt = &now
			}

			_, err = tx.Exec(ctx, `
				UPDATE inventory_reservations
				SET quantity_fulfilled = $1, is_active = $2, fulfilled_at = $3
				WHERE id = $4`,
				res.QuantityFulfilled, res.IsActive, res.FulfilledAt, res.ID,
			)
			if err != nil {
				return fmt.Errorf("update reservation fulfillment: %w", err)
			}

			reservation = res
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "reservation fulfilled",
		slog.String("reservation_id", reservation.ID),
		slog.String("order_id", reservation.OrderID),
		slog.Int("quantity", quantity),
		slog.Bool("complete", reservation.IsFullyFulfilled()),
	)

	return reservation, nil
}

// ReleaseExpiredReservations releases holds past their expiry and returns how
// many were released. The expiry sweeper calls this periodically; it can also
// be triggered on demand.
func (s *InventoryService) ReleaseExpiredReservations(ctx context.Context, limit int) (int, error) {
	expired, err := s.reservationRepo.ListExpired(ctx, limit)
	if err != nil {
		return 0, err
	}

	released := 0
	for i := range expired {
		res := &expired[i]
		if _, err := s.ReleaseReservation(ctx, res.ID, strPtr("Reservation expired")); err != nil {
			// Keep sweeping; a racing release or fulfillment is fine.
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}
			s.logger.ErrorContext(ctx, "failed to release expired reservation",
				slog.String("reservation_id", res.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		released++
	}

	if released > 0 {
		s.logger.InfoContext(ctx, "expired reservations released", slog.Int("count", released))
	}

	return released, nil
}

// FulfillOrderShipment ships and fulfills the remaining hold of every active
// reservation for an order. Driven by order.shipped events. Each reservation
// ships and closes in one transaction, so a redelivered event finds the hold
// inactive instead of shipping it twice. Returns ErrNotFound when the order
// has no active holds.
func (s *InventoryService) FulfillOrderShipment(ctx context.Context, orderID string) error {
	reservations, err := s.reservationRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return err
	}

	fulfilled := 0
	for i := range reservations {
		res := &reservations[i]
		if !res.IsActive || res.Remaining() <= 0 || res.LocationID == nil {
			continue
		}

		shipped, err := s.shipReservation(ctx, orderID, res.ID)
		if err != nil {
			return err
		}
		if shipped {
			fulfilled++
		}
	}

	if fulfilled == 0 {
		return apperrors.NotFound("active reservations for order", orderID)
	}

	s.logger.InfoContext(ctx, "order shipment fulfilled",
		slog.String("order_id", orderID),
		slog.Int("reservations", fulfilled),
	)

	return nil
}

// shipReservation ships the remaining hold of one reservation and closes the
// reservation in the same transaction. Returns false without error when the
// hold went inactive between listing and locking.
func (s *InventoryService) shipReservation(ctx context.Context, orderID, reservationID string) (bool, error) {
	var (
		updated  *domain.InventoryLevel
		newAlert *domain.LowStockAlert
		shipped  bool
	)

	err := s.runWithRetry(ctx, "ship_reservation", func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			shipped = false

			res, err := lockReservation(ctx, tx, reservationID)
			if err != nil {
				return err
			}
			remaining := res.Remaining()
			if !res.IsActive || remaining <= 0 || res.LocationID == nil {
				return nil
			}

			level, err := lockLevel(ctx, tx, res.VariantID, *res.LocationID)
			if err != nil {
				return err
			}
			if level.QuantityReserved < remaining {
				return apperrors.InsufficientStock(remaining, level.QuantityReserved)
			}

			updated, err = updateLevelQuantities(ctx, tx, level, -remaining, -remaining)
			if err != nil {
				return err
			}

			now := time.Now().UTC()
			if err := insertMovement(ctx, tx, &domain.InventoryMovement{
				ID:             uuid.New().String(),
				VariantID:      res.VariantID,
				FromLocationID: res.LocationID,
				MovementType:   domain.MovementTypeShipment,
				Quantity:       remaining,
				ReferenceType:  strPtr(referenceTypeOrder),
				ReferenceID:    &orderID,
				MovementDate:   now,
			}); err != nil {
				return err
			}

			_, err = tx.Exec(ctx, `
				UPDATE inventory_reservations
				SET quantity_fulfilled = $1, is_active = FALSE, fulfilled_at = $2
				WHERE id = $3`,
				res.QuantityReserved, now, res.ID,
			)
			if err != nil {
				return fmt.Errorf("close shipped reservation: %w", err)
			}

			if newAlert, err = syncLowStockAlert(ctx, tx, updated); err != nil {
				return err
			}
			shipped = true
			return nil
		})
	})
	if err != nil {
		return false, err
	}

	if shipped {
		s.publishUpdated(ctx, updated)
		s.publishLowStock(ctx, newAlert)
	}

	return shipped, nil
}

// releaseInTx releases one reservation under its row lock. Returns released
// false when the hold was already inactive.
func (s *InventoryService) releaseInTx(ctx context.Context, tx pgx.Tx, reservationID string, notes *string) (*domain.InventoryReservation, *domain.InventoryLevel, bool, error) {
	res, err := lockReservation(ctx, tx, reservationID)
	if err != nil {
		return nil, nil, false, err
	}

	if !res.IsActive {
		return res, nil, false, nil
	}

	remaining := res.Remaining()
	now := time.Now().UTC()
	res.IsActive = false
	res.ReleasedAt = &now
	if notes != nil {
		res.Notes = notes
	}

	_, err = tx.Exec(ctx, `
		UPDATE inventory_reservations
		SET is_active = FALSE, released_at = $1, notes = COALESCE($2, notes)
		WHERE id = $3`,
		now, notes, res.ID,
	)
	if err != nil {
		return nil, nil, false, fmt.Errorf("release reservation: %w", err)
	}

	var updated *domain.InventoryLevel
	if remaining > 0 && res.LocationID != nil {
		level, err := lockLevel(ctx, tx, res.VariantID, *res.LocationID)
		if err != nil {
			return nil, nil, false, err
		}

		updated, err = updateLevelQuantities(ctx, tx, level, 0, -remaining)
		if err != nil {
			return nil, nil, false, err
		}

		if err := insertMovement(ctx, tx, &domain.InventoryMovement{
			ID:             uuid.New().String(),
			VariantID:      res.VariantID,
			FromLocationID: res.LocationID,
			MovementType:   domain.MovementTypeRelease,
			Quantity:       remaining,
			ReferenceType:  strPtr(referenceTypeOrder),
			ReferenceID:    &res.OrderID,
			Notes:          notes,
			MovementDate:   now,
		}); err != nil {
			return nil, nil, false, err
		}

		if _, err := syncLowStockAlert(ctx, tx, updated); err != nil {
			return nil, nil, false, err
		}
	}

	return res, updated, true, nil
}

// lockLevelForReservation locks the level to reserve against. With an explicit
// location it locks that row; otherwise it picks the location holding the most
// available stock for the variant.
func (s *InventoryService) lockLevelForReservation(ctx context.Context, tx pgx.Tx, variantID string, locationID *string) (*domain.InventoryLevel, error) {
	if locationID != nil {
		return lockLevel(ctx, tx, variantID, *locationID)
	}

	query := `
		SELECT id, variant_id, location_id, quantity_on_hand, quantity_reserved, quantity_available,
			reorder_point, reorder_quantity, max_stock_level, last_counted_at, updated_at
		FROM inventory_levels
		WHERE variant_id = $1
		ORDER BY quantity_available DESC
		LIMIT 1
		FOR UPDATE`

	var l domain.InventoryLevel
	err := tx.QueryRow(ctx, query, variantID).Scan(
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
			return nil, apperrors.NotFound("inventory level for variant", variantID)
		}
		return nil, fmt.Errorf("lock inventory level for reservation: %w", err)
	}

	return &l, nil
}

// lockReservation locks a reservation row and returns its current state.
func lockReservation(ctx context.Context, tx pgx.Tx, id string) (*domain.InventoryReservation, error) {
	query := `
		SELECT id, order_id, order_item_id, variant_id, location_id, quantity_reserved,
			quantity_fulfilled, is_active, expires_at, notes, reserved_at, released_at, fulfilled_at
		FROM inventory_reservations
		WHERE id = $1
		FOR UPDATE`

	var res domain.InventoryReservation
	err := tx.QueryRow(ctx, query, id).Scan(
		&res.ID,
		&res.OrderID,
		&res.OrderItemID,
		&res.VariantID,
		&res.LocationID,
		&res.QuantityReserved,
		&res.QuantityFulfilled,
		&res.IsActive,
		&res.ExpiresAt,
		&res.Notes,
		&res.ReservedAt,
		&res.ReleasedAt,
		&res.FulfilledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("reservation", id)
		}
		return nil, fmt.Errorf("lock reservation: %w", err)
	}

	return &res, nil
}

func insertReservation(ctx context.Context, tx pgx.Tx, res *domain.InventoryReservation) error {
	query := `
		INSERT INTO inventory_reservations (id, order_id, order_item_id, variant_id, location_id,
			quantity_reserved, quantity_fulfilled, is_active, expires_at, notes, reserved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := tx.Exec(ctx, query,
		res.ID,
		res.OrderID,
		res.OrderItemID,
		res.VariantID,
		res.LocationID,
		res.QuantityReserved,
		res.QuantityFulfilled,
		res.IsActive,
		res.ExpiresAt,
		res.Notes,
		res.ReservedAt,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}

	return nil
}

func (s *InventoryService) publishReserved(ctx context.Context, res *domain.InventoryReservation) {
	if err := s.producer.PublishInventoryReserved(ctx, res); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish inventory.reserved event",
			slog.String("reservation_id", res.ID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *InventoryService) publishReleased(ctx context.Context, res *domain.InventoryReservation) {
	if err := s.producer.PublishInventoryReleased(ctx, res); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish inventory.released event",
			slog.String("reservation_id", res.ID),
			slog.String("error", err.Error()),
		)
	}
}

func strPtr(s string) *string { return &s }
