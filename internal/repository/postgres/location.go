package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/garmenthq/inventory-service/internal/domain"
	"github.com/garmenthq/inventory-service/pkg/database"
	apperrors "github.com/garmenthq/inventory-service/pkg/errors"
)

// LocationRepository is the PostgreSQL implementation of repository.LocationRepository.
type LocationRepository struct {
	pool database.DBTX
}

// NewLocationRepository creates a PostgreSQL-backed location repository.
func NewLocationRepository(pool database.DBTX) *LocationRepository {
	return &LocationRepository{pool: pool}
}

const locationColumns = `id, name, code, location_type, is_default, priority, capacity, is_active, created_at, updated_at`

func scanLocation(row pgx.Row) (*domain.StockLocation, error) {
	var l domain.StockLocation
	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Code,
		&l.LocationType,
		&l.IsDefault,
		&l.Priority,
		&l.Capacity,
		&l.IsActive,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserts a new stock location.
func (r *LocationRepository) Create(ctx context.Context, loc *domain.StockLocation) error {
	query := `
		INSERT INTO stock_locations (id, name, code, location_type, is_default, priority, capacity, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		loc.ID,
		loc.Name,
		loc.Code,
		loc.LocationType,
		loc.IsDefault,
		loc.Priority,
		loc.Capacity,
		loc.IsActive,
		loc.CreatedAt,
		loc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock location: %w", err)
	}

	return nil
}

// Update rewrites the mutable fields of a location.
func (r *LocationRepository) Update(ctx context.Context, loc *domain.StockLocation) error {
	query := `
		UPDATE stock_locations
		SET name = $1, location_type = $2, is_default = $3, priority = $4, capacity = $5, is_active = $6, updated_at = $7
		WHERE id = $8`

	ct, err := r.pool.Exec(ctx, query,
		loc.Name,
		loc.LocationType,
		loc.IsDefault,
		loc.Priority,
		loc.Capacity,
		loc.IsActive,
		loc.UpdatedAt,
		loc.ID,
	)
	if err != nil {
		return fmt.Errorf("update stock location: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("stock location", loc.ID)
	}

	return nil
}

// GetByID retrieves a location by its identifier.
func (r *LocationRepository) GetByID(ctx context.Context, id string) (*domain.StockLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM stock_locations WHERE id = $1`

	loc, err := scanLocation(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("stock location", id)
		}
		return nil, fmt.Errorf("get stock location by id: %w", err)
	}

	return loc, nil
}

// GetByCode retrieves a location by its unique code.
func (r *LocationRepository) GetByCode(ctx context.Context, code string) (*domain.StockLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM stock_locations WHERE code = $1`

	loc, err := scanLocation(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("stock location", code)
		}
		return nil, fmt.Errorf("get stock location by code: %w", err)
	}

	return loc, nil
}

// GetDefault retrieves the default location, if one is configured.
func (r *LocationRepository) GetDefault(ctx context.Context) (*domain.StockLocation, error) {
	query := `SELECT ` + locationColumns + ` FROM stock_locations WHERE is_default AND is_active LIMIT 1`

	loc, err := scanLocation(r.pool.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("default stock location", "")
		}
		return nil, fmt.Errorf("get default stock location: %w", err)
	}

	return loc, nil
}

// List returns locations, optionally restricted to active ones.
func (r *LocationRepository) List(ctx context.Context, activeOnly bool, page, perPage int) ([]domain.StockLocation, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	query := `
		SELECT ` + locationColumns + `, count(*) OVER() AS total_count
		FROM stock_locations
		WHERE ($1 = false OR is_active)
		ORDER BY priority DESC, name ASC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, activeOnly, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock locations: %w", err)
	}
	defer rows.Close()

	var (
		locations  []domain.StockLocation
		totalCount int
	)

	for rows.Next() {
		var l domain.StockLocation
		if err := rows.Scan(
			&l.ID,
			&l.Name,
			&l.Code,
			&l.LocationType,
			&l.IsDefault,
			&l.Priority,
			&l.Capacity,
			&l.IsActive,
			&l.CreatedAt,
			&l.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan stock location row: %w", err)
		}
		locations = append(locations, l)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate stock location rows: %w", err)
	}

	if locations == nil {
		locations = []domain.StockLocation{}
	}

	return locations, totalCount, nil
}

// ClearDefault unsets the default flag on all locations.
func (r *LocationRepository) ClearDefault(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `UPDATE stock_locations SET is_default = FALSE, updated_at = NOW() WHERE is_default`)
	if err != nil {
		return fmt.Errorf("clear default stock location: %w", err)
	}
	return nil
}

// Deactivate soft-disables a location.
func (r *LocationRepository) Deactivate(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `UPDATE stock_locations SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate stock location: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("stock location", id)
	}

	return nil
}

// Delete removes a location.
func (r *LocationRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.pool.Exec(ctx, `DELETE FROM stock_locations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete stock location: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("stock location", id)
	}

	return nil
}

// HasInventory reports whether any inventory level references the location.
func (r *LocationRepository) HasInventory(ctx context.Context, locationID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM inventory_levels WHERE location_id = $1)`, locationID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check location inventory: %w", err)
	}
	return exists, nil
}
