package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/garmenthq/inventory-service/internal/domain"
	"github.com/garmenthq/inventory-service/pkg/database"
	apperrors "github.com/garmenthq/inventory-service/pkg/errors"
)

// AdjustmentRepository is the PostgreSQL implementation of repository.AdjustmentRepository.
type AdjustmentRepository struct {
	pool database.DBTX
}

// NewAdjustmentRepository creates a PostgreSQL-backed adjustment repository.
func NewAdjustmentRepository(pool database.DBTX) *AdjustmentRepository {
	return &AdjustmentRepository{pool: pool}
}

const adjustmentColumns = `id, adjustment_number, location_id, variant_id, reason, expected_quantity,
	actual_quantity, adjustment_quantity, unit_cost, total_cost_impact, notes, adjusted_by, approved_by,
	status, adjustment_date, approved_at`

func scanAdjustment(row pgx.Row) (*domain.StockAdjustment, error) {
	var a domain.StockAdjustment
	err := row.Scan(
		&a.ID,
		&a.AdjustmentNumber,
		&a.LocationID,
		&a.VariantID,
		&a.Reason,
		&a.ExpectedQuantity,
		&a.ActualQuantity,
		&a.AdjustmentQuantity,
		&a.UnitCost,
		&a.TotalCostImpact,
		&a.Notes,
		&a.AdjustedBy,
		&a.ApprovedBy,
		&a.Status,
		&a.AdjustmentDate,
		&a.ApprovedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts a new pending adjustment.
func (r *AdjustmentRepository) Create(ctx context.Context, adj *domain.StockAdjustment) error {
	query := `
		INSERT INTO stock_adjustments (id, adjustment_number, location_id, variant_id, reason,
			expected_quantity, actual_quantity, adjustment_quantity, unit_cost, total_cost_impact,
			notes, adjusted_by, status, adjustment_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, query,
		adj.ID,
		adj.AdjustmentNumber,
		adj.LocationID,
		adj.VariantID,
		adj.Reason,
		adj.ExpectedQuantity,
		adj.ActualQuantity,
		adj.AdjustmentQuantity,
		adj.UnitCost,
		adj.TotalCostImpact,
		adj.Notes,
		adj.AdjustedBy,
		adj.Status,
		adj.AdjustmentDate,
	)
	if err != nil {
		// Two creates on the same day can race to the same generated number;
		// the unique index turns the loser into a retryable conflict.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperrors.Conflict(fmt.Sprintf("adjustment number %s already taken", adj.AdjustmentNumber))
		}
		return fmt.Errorf("create stock adjustment: %w", err)
	}

	return nil
}

// GetByID retrieves an adjustment by its identifier.
func (r *AdjustmentRepository) GetByID(ctx context.Context, id string) (*domain.StockAdjustment, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM stock_adjustments WHERE id = $1`

	adj, err := scanAdjustment(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("stock adjustment", id)
		}
		return nil, fmt.Errorf("get stock adjustment by id: %w", err)
	}

	return adj, nil
}

// NextAdjustmentNumber generates the next ADJ-YYYYMMDD-NNNN number by counting
// the adjustments already created on the given date.
func (r *AdjustmentRepository) NextAdjustmentNumber(ctx context.Context, date time.Time) (string, error) {
	day := date.UTC().Format("20060102")

	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM stock_adjustments WHERE adjustment_number LIKE $1`,
		"ADJ-"+day+"-%",
	).Scan(&count)
	if err != nil {
		return "", fmt.Errorf("count adjustments for date: %w", err)
	}

	return fmt.Sprintf("ADJ-%s-%04d", day, count+1), nil
}

// List returns adjustments, optionally filtered by status, newest first.
func (r *AdjustmentRepository) List(ctx context.Context, status string, page, perPage int) ([]domain.StockAdjustment, int, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	offset := (page - 1) * perPage

	query := `
		SELECT ` + adjustmentColumns + `, count(*) OVER() AS total_count
		FROM stock_adjustments
		WHERE ($1 = '' OR status = $1)
		ORDER BY adjustment_date DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, status, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list stock adjustments: %w", err)
	}
	defer rows.Close()

	var (
		adjustments []domain.StockAdjustment
		totalCount  int
	)

	for rows.Next() {
		var a domain.StockAdjustment
		if err := rows.Scan(
			&a.ID,
			&a.AdjustmentNumber,
			&a.LocationID,
			&a.VariantID,
			&a.Reason,
			&a.ExpectedQuantity,
			&a.ActualQuantity,
			&a.AdjustmentQuantity,
			&a.UnitCost,
			&a.TotalCostImpact,
			&a.Notes,
			&a.AdjustedBy,
			&a.ApprovedBy,
			&a.Status,
			&a.AdjustmentDate,
			&a.ApprovedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan adjustment row: %w", err)
		}
		adjustments = append(adjustments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate adjustment rows: %w", err)
	}

	if adjustments == nil {
		adjustments = []domain.StockAdjustment{}
	}

	return adjustments, totalCount, nil
}

// ListPending returns all adjustments awaiting review, oldest first.
func (r *AdjustmentRepository) ListPending(ctx context.Context) ([]domain.StockAdjustment, error) {
	query := `
		SELECT ` + adjustmentColumns + `
		FROM stock_adjustments
		WHERE status = $1
		ORDER BY adjustment_date ASC`

	rows, err := r.pool.Query(ctx, query, domain.AdjustmentStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending adjustments: %w", err)
	}
	defer rows.Close()

	var adjustments []domain.StockAdjustment
	for rows.Next() {
		var a domain.StockAdjustment
		if err := rows.Scan(
			&a.ID,
			&a.AdjustmentNumber,
			&a.LocationID,
			&a.VariantID,
			&a.Reason,
			&a.ExpectedQuantity,
			&a.ActualQuantity,
			&a.AdjustmentQuantity,
			&a.UnitCost,
			&a.TotalCostImpact,
			&a.Notes,
			&a.AdjustedBy,
			&a.ApprovedBy,
			&a.Status,
			&a.AdjustmentDate,
			&a.ApprovedAt,
		); err != nil {
			return nil, fmt.Errorf("scan pending adjustment row: %w", err)
		}
		adjustments = append(adjustments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending adjustment rows: %w", err)
	}

	if adjustments == nil {
		adjustments = []domain.StockAdjustment{}
	}

	return adjustments, nil
}

// MarkRejected moves a pending adjustment to rejected. The status guard in the
// WHERE clause makes concurrent reviews race-safe: the second reviewer sees
// zero rows affected.
func (r *AdjustmentRepository) MarkRejected(ctx context.Context, id, rejectedBy string, notes *string) error {
	query := `
		UPDATE stock_adjustments
		SET status = $1, approved_by = $2, approved_at = NOW(),
			notes = COALESCE($3, notes)
		WHERE id = $4 AND status = $5`

	ct, err := r.pool.Exec(ctx, query,
		domain.AdjustmentStatusRejected, rejectedBy, notes, id, domain.AdjustmentStatusPending,
	)
	if err != nil {
		return fmt.Errorf("reject stock adjustment: %w", err)
	}

	if ct.RowsAffected() == 0 {
		// Either missing or already reviewed; disambiguate for the caller.
		adj, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		return apperrors.InvalidState(fmt.Sprintf("adjustment %s is already %s", id, adj.Status))
	}

	return nil
}
