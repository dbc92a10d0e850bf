package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/garmenthq/inventory-service/internal/domain"
	"github.com/garmenthq/inventory-service/pkg/database"
	apperrors "github.com/garmenthq/inventory-service/pkg/errors"
)

// ReservationRepository is the PostgreSQL implementation of repository.ReservationRepository.
// Reservations are created, released, and fulfilled by service transactions;
// this repository serves the read side.
type ReservationRepository struct {
	pool database.DBTX
}

// NewReservationRepository creates a PostgreSQL-backed reservation repository.
func NewReservationRepository(pool database.DBTX) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

const reservationColumns = `id, order_id, order_item_id, variant_id, location_id, quantity_reserved,
	quantity_fulfilled, is_active, expires_at, notes, reserved_at, released_at, fulfilled_at`

func scanReservation(row pgx.Row) (*domain.InventoryReservation, error) {
	var res domain.InventoryReservation
	err := row.Scan(
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
		return nil, err
	}
	return &res, nil
}

// GetByID retrieves a reservation by its identifier.
func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*domain.InventoryReservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM inventory_reservations WHERE id = $1`

	res, err := scanReservation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("reservation", id)
		}
		return nil, fmt.Errorf("get reservation by id: %w", err)
	}

	return res, nil
}

// ListByOrder returns all reservations for an order, oldest first.
func (r *ReservationRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.InventoryReservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM inventory_reservations
		WHERE order_id = $1
		ORDER BY reserved_at ASC`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list reservations by order: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// ListActiveByVariant returns the active holds for a variant.
func (r *ReservationRepository) ListActiveByVariant(ctx context.Context, variantID string) ([]domain.InventoryReservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM inventory_reservations
		WHERE variant_id = $1 AND is_active
		ORDER BY reserved_at ASC`

	rows, err := r.pool.Query(ctx, query, variantID)
	if err != nil {
		return nil, fmt.Errorf("list active reservations by variant: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// TotalReservedForVariant sums the unfulfilled active holds for a variant.
func (r *ReservationRepository) TotalReservedForVariant(ctx context.Context, variantID string) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(quantity_reserved - quantity_fulfilled), 0)
		 FROM inventory_reservations
		 WHERE variant_id = $1 AND is_active`,
		variantID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total reserved for variant: %w", err)
	}

	return total, nil
}

// ListExpired returns active reservations past their expiry, oldest first.
func (r *ReservationRepository) ListExpired(ctx context.Context, limit int) ([]domain.InventoryReservation, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + reservationColumns + `
		FROM inventory_reservations
		WHERE is_active AND expires_at IS NOT NULL AND expires_at < $1
		ORDER BY expires_at ASC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list expired reservations: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

func collectReservations(rows pgx.Rows) ([]domain.InventoryReservation, error) {
	var reservations []domain.InventoryReservation
	for rows.Next() {
		var res domain.InventoryReservation
		if err := rows.Scan(
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
		); err != nil {
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		reservations = append(reservations, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservation rows: %w", err)
	}

	if reservations == nil {
		reservations = []domain.InventoryReservation{}
	}

	return reservations, nil
}
