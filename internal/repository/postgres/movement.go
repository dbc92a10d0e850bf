package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/garmenthq/inventory-service/internal/domain"
	"github.com/garmenthq/inventory-service/pkg/database"
)

// MovementRepository is the PostgreSQL implementation of repository.MovementRepository.
// Movements are inserted by service transactions; this repository only reads.
type MovementRepository struct {
	pool database.DBTX
}

// NewMovementRepository creates a PostgreSQL-backed movement repository.
func NewMovementRepository(pool database.DBTX) *MovementRepository {
	return &MovementRepository{pool: pool}
}

const movementColumns = `id, variant_id, from_location_id, to_location_id, movement_type, quantity,
	unit_cost, total_cost, reference_type, reference_id, reference_number, reason, notes, created_by, movement_date`

// ListByVariant returns movements for a variant, newest first, optionally
// bounded by a date range.
func (r *MovementRepository) ListByVariant(ctx context.Context, variantID string, from, to *time.Time, page, perPage int) ([]domain.InventoryMovement, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	query := `
		SELECT ` + movementColumns + `, count(*) OVER() AS total_count
		FROM inventory_movements
		WHERE variant_id = $1
		  AND ($2::timestamptz IS NULL OR movement_date >= $2)
		  AND ($3::timestamptz IS NULL OR movement_date <= $3)
		ORDER BY movement_date DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query, variantID, from, to, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements by variant: %w", err)
	}
	defer rows.Close()

	return collectMovementsWithCount(rows)
}

// ListByReference returns movements recorded against a reference document.
func (r *MovementRepository) ListByReference(ctx context.Context, referenceType, referenceID string) ([]domain.InventoryMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM inventory_movements
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY movement_date ASC`

	rows, err := r.pool.Query(ctx, query, referenceType, referenceID)
	if err != nil {
		return nil, fmt.Errorf("list movements by reference: %w", err)
	}
	defer rows.Close()

	var movements []domain.InventoryMovement
	for rows.Next() {
		m, err := scanMovementFromRows(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movement rows: %w", err)
	}

	if movements == nil {
		movements = []domain.InventoryMovement{}
	}

	return movements, nil
}

// List returns all movements, newest first, paginated.
func (r *MovementRepository) List(ctx context.Context, page, perPage int) ([]domain.InventoryMovement, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	query := `
		SELECT ` + movementColumns + `, count(*) OVER() AS total_count
		FROM inventory_movements
		ORDER BY movement_date DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()

	return collectMovementsWithCount(rows)
}

func scanMovementFromRows(rows pgx.Rows) (*domain.InventoryMovement, error) {
	var m domain.InventoryMovement
	if err := rows.Scan(
		&m.ID,
		&m.VariantID,
		&m.FromLocationID,
		&m.ToLocationID,
		&m.MovementType,
		&m.Quantity,
		&m.UnitCost,
		&m.TotalCost,
		&m.ReferenceType,
		&m.ReferenceID,
		&m.ReferenceNumber,
		&m.Reason,
		&m.Notes,
		&m.CreatedBy,
		&m.MovementDate,
	); err != nil {
		return nil, fmt.Errorf("scan movement row: %w", err)
	}
	return &m, nil
}

func collectMovementsWithCount(rows pgx.Rows) ([]domain.InventoryMovement, int, error) {
	var (
		movements  []domain.InventoryMovement
		totalCount int
	)

	for rows.Next() {
		var m domain.InventoryMovement
		if err := rows.Scan(
			&m.ID,
			&m.VariantID,
			&m.FromLocationID,
			&m.ToLocationID,
			&m.MovementType,
			&m.Quantity,
			&m.UnitCost,
			&m.TotalCost,
			&m.ReferenceType,
			&m.ReferenceID,
			&m.ReferenceNumber,
			&m.Reason,
			&m.Notes,
			&m.CreatedBy,
			&m.MovementDate,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan movement row: %w", err)
		}
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate movement rows: %w", err)
	}

	if movements == nil {
		movements = []domain.InventoryMovement{}
	}

	return movements, totalCount, nil
}
