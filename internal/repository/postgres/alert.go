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

// AlertRepository is the PostgreSQL implementation of repository.AlertRepository.
type AlertRepository struct {
	pool database.DBTX
}

// NewAlertRepository creates a PostgreSQL-backed low stock alert repository.
func NewAlertRepository(pool database.DBTX) *AlertRepository {
	return &AlertRepository{pool: pool}
}

const alertColumns = `id, variant_id, location_id, current_quantity, reorder_point,
	recommended_order_quantity, status, resolved_by, resolved_at, resolution_notes, alert_date`

func scanAlert(row pgx.Row) (*domain.LowStockAlert, error) {
	var a domain.LowStockAlert
	err := row.Scan(
		&a.ID,
		&a.VariantID,
		&a.LocationID,
		&a.CurrentQuantity,
		&a.ReorderPoint,
		&a.RecommendedOrderQuantity,
		&a.Status,
		&a.ResolvedBy,
		&a.ResolvedAt,
		&a.ResolutionNotes,
		&a.AlertDate,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID retrieves an alert by its identifier.
func (r *AlertRepository) GetByID(ctx context.Context, id string) (*domain.LowStockAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM low_stock_alerts WHERE id = $1`

	alert, err := scanAlert(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("low stock alert", id)
		}
		return nil, fmt.Errorf("get low stock alert by id: %w", err)
	}

	return alert, nil
}

// GetActiveByPair retrieves the open alert for a variant and location.
func (r *AlertRepository) GetActiveByPair(ctx context.Context, variantID, locationID string) (*domain.LowStockAlert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM low_stock_alerts
		WHERE variant_id = $1 AND location_id = $2 AND status = $3`

	alert, err := scanAlert(r.pool.QueryRow(ctx, query, variantID, locationID, domain.AlertStatusActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("active low stock alert", variantID+"@"+locationID)
		}
		return nil, fmt.Errorf("get active alert: %w", err)
	}

	return alert, nil
}

// List returns alerts, optionally filtered by status, newest first.
func (r *AlertRepository) List(ctx context.Context, status string, page, perPage int) ([]domain.LowStockAlert, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	query := `
		SELECT ` + alertColumns + `, count(*) OVER() AS total_count
		FROM low_stock_alerts
		WHERE ($1 = '' OR status = $1)
		ORDER BY alert_date DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, status, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list low stock alerts: %w", err)
	}
	defer rows.Close()

	var (
		alerts     []domain.LowStockAlert
		totalCount int
	)

	for rows.Next() {
		var a domain.LowStockAlert
		if err := rows.Scan(
			&a.ID,
			&a.VariantID,
			&a.LocationID,
			&a.CurrentQuantity,
			&a.ReorderPoint,
			&a.RecommendedOrderQuantity,
			&a.Status,
			&a.ResolvedBy,
			&a.ResolvedAt,
			&a.ResolutionNotes,
			&a.AlertDate,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan alert row: %w", err)
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate alert rows: %w", err)
	}

	if alerts == nil {
		alerts = []domain.LowStockAlert{}
	}

	return alerts, totalCount, nil
}

// ListActive returns all open alerts ordered by alert date.
func (r *AlertRepository) ListActive(ctx context.Context) ([]domain.LowStockAlert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM low_stock_alerts
		WHERE status = $1
		ORDER BY alert_date ASC`

	rows, err := r.pool.Query(ctx, query, domain.AlertStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active alerts: %w", err)
	}
	defer rows.Close()

	var alerts []domain.LowStockAlert
	for rows.Next() {
		var a domain.LowStockAlert
		if err := rows.Scan(
			&a.ID,
			&a.VariantID,
			&a.LocationID,
			&a.CurrentQuantity,
			&a.ReorderPoint,
			&a.RecommendedOrderQuantity,
			&a.Status,
			&a.ResolvedBy,
			&a.ResolvedAt,
			&a.ResolutionNotes,
			&a.AlertDate,
		); err != nil {
			return nil, fmt.Errorf("scan active alert row: %w", err)
		}
		alerts = append(alerts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active alert rows: %w", err)
	}

	if alerts == nil {
		alerts = []domain.LowStockAlert{}
	}

	return alerts, nil
}

// MarkStatus moves an active alert to the given terminal status. The status
// guard keeps concurrent resolutions race-safe.
func (r *AlertRepository) MarkStatus(ctx context.Context, id, status string, resolvedBy *string, notes *string) error {
	query := `
		UPDATE low_stock_alerts
		SET status = $1, resolved_by = $2, resolved_at = NOW(), resolution_notes = $3
		WHERE id = $4 AND status = $5`

	ct, err := r.pool.Exec(ctx, query, status, resolvedBy, notes, id, domain.AlertStatusActive)
	if err != nil {
		return fmt.Errorf("update alert status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		alert, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		return apperrors.InvalidState(fmt.Sprintf("alert %s is already %s", id, alert.Status))
	}

	return nil
}
