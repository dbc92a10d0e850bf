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

// LevelRepository is the PostgreSQL implementation of repository.LevelRepository.
type LevelRepository struct {
	pool database.DBTX
}

// NewLevelRepository creates a PostgreSQL-backed inventory level repository.
func NewLevelRepository(pool database.DBTX) *LevelRepository {
	return &LevelRepository{pool: pool}
}

const levelColumns = `id, variant_id, location_id, quantity_on_hand, quantity_reserved, quantity_available,
	reorder_point, reorder_quantity, max_stock_level, last_counted_at, updated_at`

func scanLevel(row pgx.Row) (*domain.InventoryLevel, error) {
	var l domain.InventoryLevel
	err := row.Scan(
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
		return nil, err
	}
	return &l, nil
}

// GetByPair retrieves the level for a variant at a location.
func (r *LevelRepository) GetByPair(ctx context.Context, variantID, locationID string) (*domain.InventoryLevel, error) {
	query := `SELECT ` + levelColumns + ` FROM inventory_levels WHERE variant_id = $1 AND location_id = $2`

	level, err := scanLevel(r.pool.QueryRow(ctx, query, variantID, locationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("inventory level", variantID+"@"+locationID)
		}
		return nil, fmt.Errorf("get inventory level: %w", err)
	}

	return level, nil
}

// ListByVariant returns all levels for a variant across locations.
func (r *LevelRepository) ListByVariant(ctx context.Context, variantID string) ([]domain.InventoryLevel, error) {
	query := `SELECT ` + levelColumns + ` FROM inventory_levels WHERE variant_id = $1 ORDER BY location_id`

	rows, err := r.pool.Query(ctx, query, variantID)
	if err != nil {
		return nil, fmt.Errorf("list levels by variant: %w", err)
	}
	defer rows.Close()

	levels, err := collectLevels(rows)
	if err != nil {
		return nil, err
	}

	return levels, nil
}

// ListByLocation returns the levels at a location, paginated.
func (r *LevelRepository) ListByLocation(ctx context.Context, locationID string, page, perPage int) ([]domain.InventoryLevel, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	query := `
		SELECT ` + levelColumns + `, count(*) OVER() AS total_count
		FROM inventory_levels
		WHERE location_id = $1
		ORDER BY variant_id
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, locationID, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list levels by location: %w", err)
	}
	defer rows.Close()

	return collectLevelsWithCount(rows)
}

// ListLowStock returns levels below their reorder point, most depleted first.
func (r *LevelRepository) ListLowStock(ctx context.Context, page, perPage int) ([]domain.InventoryLevel, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	query := `
		SELECT ` + levelColumns + `, count(*) OVER() AS total_count
		FROM inventory_levels
		WHERE reorder_point > 0 AND quantity_available < reorder_point
		ORDER BY (reorder_point - quantity_available) DESC, updated_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list low stock levels: %w", err)
	}
	defer rows.Close()

	return collectLevelsWithCount(rows)
}

// GetVariantSummary aggregates a variant's stock across all locations.
func (r *LevelRepository) GetVariantSummary(ctx context.Context, variantID string) (*domain.VariantStockSummary, error) {
	query := `
		SELECT COALESCE(SUM(quantity_on_hand), 0),
			   COALESCE(SUM(quantity_reserved), 0),
			   COALESCE(SUM(quantity_available), 0),
			   COUNT(*)
		FROM inventory_levels
		WHERE variant_id = $1`

	summary := domain.VariantStockSummary{VariantID: variantID}
	err := r.pool.QueryRow(ctx, query, variantID).Scan(
		&summary.TotalOnHand,
		&summary.TotalReserved,
		&summary.TotalAvailable,
		&summary.LocationCount,
	)
	if err != nil {
		return nil, fmt.Errorf("get variant stock summary: %w", err)
	}

	return &summary, nil
}

// UpdateReorderSettings changes the reorder thresholds for a level.
func (r *LevelRepository) UpdateReorderSettings(ctx context.Context, variantID, locationID string, reorderPoint, reorderQuantity int, maxStockLevel *int) (*domain.InventoryLevel, error) {
	query := `
		UPDATE inventory_levels
		SET reorder_point = $1, reorder_quantity = $2, max_stock_level = $3, updated_at = NOW()
		WHERE variant_id = $4 AND location_id = $5
		RETURNING ` + levelColumns

	level, err := scanLevel(r.pool.QueryRow(ctx, query, reorderPoint, reorderQuantity, maxStockLevel, variantID, locationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("inventory level", variantID+"@"+locationID)
		}
		return nil, fmt.Errorf("update reorder settings: %w", err)
	}

	return level, nil
}

// RecordCycleCount stamps last_counted_at on a level.
func (r *LevelRepository) RecordCycleCount(ctx context.Context, variantID, locationID string, countedAt time.Time) error {
	ct, err := r.pool.Exec(ctx,
		`UPDATE inventory_levels SET last_counted_at = $1, updated_at = NOW() WHERE variant_id = $2 AND location_id = $3`,
		countedAt, variantID, locationID,
	)
	if err != nil {
		return fmt.Errorf("record cycle count: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("inventory level", variantID+"@"+locationID)
	}

	return nil
}

func collectLevels(rows pgx.Rows) ([]domain.InventoryLevel, error) {
	var levels []domain.InventoryLevel
	for rows.Next() {
		var l domain.InventoryLevel
		if err := rows.Scan(
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
		); err != nil {
			return nil, fmt.Errorf("scan inventory level row: %w", err)
		}
		levels = append(levels, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inventory level rows: %w", err)
	}

	if levels == nil {
		levels = []domain.InventoryLevel{}
	}

	return levels, nil
}

func collectLevelsWithCount(rows pgx.Rows) ([]domain.InventoryLevel, int, error) {
	var (
		levels     []domain.InventoryLevel
		totalCount int
	)

	for rows.Next() {
		var l domain.InventoryLevel
		if err := rows.Scan(
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
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan inventory level row: %w", err)
		}
		levels = append(levels, l)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate inventory level rows: %w", err)
	}

	if levels == nil {
		levels = []domain.InventoryLevel{}
	}

	return levels, totalCount, nil
}
