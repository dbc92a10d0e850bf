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

// CreateAdjustmentInput describes a proposed stock correction.
type CreateAdjustmentInput struct {
	VariantID  string
	LocationID string
	Reason     string
	// ActualQuantity is the physically counted on-hand quantity.
	ActualQuantity int
	UnitCost       *float64
	Notes          *string
	AdjustedBy     string
}

// CreateAdjustment records a proposed correction of on-hand stock against the
// current system quantity. The adjustment has no stock effect until approved.
func (s *InventoryService) CreateAdjustment(ctx context.Context, in CreateAdjustmentInput) (*domain.StockAdjustment, error) {
	if !domain.IsValidAdjustmentReason(in.Reason) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid adjustment reason: %s", in.Reason))
	}
	if in.ActualQuantity < 0 {
		return nil, apperrors.InvalidQuantity("actual quantity cannot be negative")
	}
	if in.AdjustedBy == "" {
		return nil, apperrors.InvalidInput("adjusted_by is required")
	}
	if err := s.verifyVariant(ctx, in.VariantID); err != nil {
		return nil, err
	}

	level, err := s.levelRepo.GetByPair(ctx, in.VariantID, in.LocationID)
	if err != nil {
		return nil, err
	}

	delta := in.ActualQuantity - level.QuantityOnHand
	if delta == 0 {
		return nil, apperrors.InvalidQuantity("counted quantity matches system quantity, nothing to adjust")
	}

	// Concurrent creates can race to the same daily number; on a conflict the
	// retry regenerates it.
	var adj *domain.StockAdjustment
	err = s.runWithRetry(ctx, "create_adjustment", func(ctx context.Context) error {
		now := time.Now().UTC()
		number, err := s.adjustmentRepo.NextAdjustmentNumber(ctx, now)
		if err != nil {
			return err
		}

		adj = &domain.StockAdjustment{
			ID:                 uuid.New().String(),
			AdjustmentNumber:   number,
			LocationID:         in.LocationID,
			VariantID:          in.VariantID,
			Reason:             in.Reason,
			ExpectedQuantity:   level.QuantityOnHand,
			ActualQuantity:     in.ActualQuantity,
			AdjustmentQuantity: delta,
			UnitCost:           in.UnitCost,
			Notes:              in.Notes,
			AdjustedBy:         &in.AdjustedBy,
			Status:             domain.AdjustmentStatusPending,
			AdjustmentDate:     now,
		}
		if in.UnitCost != nil {
			impact := *in.UnitCost * float64(delta)
			adj.TotalCostImpact = &impact
		}

		return s.adjustmentRepo.Create(ctx, adj)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "stock adjustment created",
		slog.String("adjustment_id", adj.ID),
		slog.String("adjustment_number", adj.AdjustmentNumber),
		slog.String("variant_id", in.VariantID),
		slog.Int("delta", delta),
	)

	return adj, nil
}

// ApproveAdjustment applies a pending adjustment to on-hand stock and records
// the corresponding movement. Approving twice fails: the adjustment row is
// locked and must still be pending.
func (s *InventoryService) ApproveAdjustment(ctx context.Context, adjustmentID, approvedBy string) (*domain.StockAdjustment, error) {
	if approvedBy == "" {
		return nil, apperrors.InvalidInput("approved_by is required")
	}

	var (
		adjustment *domain.StockAdjustment
		updated    *domain.InventoryLevel
		newAlert   *domain.LowStockAlert
	)

	err := s.runWithRetry(ctx, "approve_adjustment", func(ctx context.Context) error {
		return s.withTx(ctx, func(tx pgx.Tx) error {
			adj, err := lockAdjustment(ctx, tx, adjustmentID)
			if err != nil {
				return err
			}
			if !adj.IsPending() {
				return apperrors.InvalidState(fmt.Sprintf("adjustment %s is already %s", adjustmentID, adj.Status))
			}

			level, err := lockOrCreateLevel(ctx, tx, adj.VariantID, adj.LocationID)
			if err != nil {
				return err
			}

			updated, err = updateLevelQuantities(ctx, tx, level, adj.AdjustmentQuantity, 0)
			if err != nil {
				return err
			}

			movementType := domain.MovementTypeAdjustmentIn
			quantity := adj.AdjustmentQuantity
			var fromLoc, toLoc *string
			toLoc = &adj.LocationID
			if quantity < 0 {
				movementType = domain.MovementTypeAdjustmentOut
				quantity = -quantity
				fromLoc, toLoc = &adj.LocationID, nil
			}

			if err := insertMovement(ctx, tx, &domain.InventoryMovement{
				ID:              uuid.New().String(),
				VariantID:       adj.VariantID,
				FromLocationID:  fromLoc,
				ToLocationID:    toLoc,
				MovementType:    movementType,
				Quantity:        quantity,
				UnitCost:        adj.UnitCost,
				TotalCost:       adj.TotalCostImpact,
				ReferenceType:   strPtr("adjustment"),
				ReferenceID:     &adj.ID,
				ReferenceNumber: &adj.AdjustmentNumber,
				Reason:          &adj.Reason,
				Notes:           adj.Notes,
				CreatedBy:       &approvedBy,
				MovementDate:    time.Now().UTC(),
			}); err != nil {
				return err
			}

			now := time.Now().UTC()
			_, err = tx.Exec(ctx, `
				UPDATE stock_adjustments
				SET status = $1, approved_by = $2, approved_at = $3
				WHERE id = $4`,
				domain.AdjustmentStatusApproved, approvedBy, now, adj.ID,
			)
			if err != nil {
				return fmt.Errorf("approve stock adjustment: %w", err)
			}

			adj.Status = domain.AdjustmentStatusApproved
			adj.ApprovedBy = &approvedBy
			adj.ApprovedAt = &now
			adjustment = adj

			newAlert, err = syncLowStockAlert(ctx, tx, updated)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.publishUpdated(ctx, updated)
	s.publishLowStock(ctx, newAlert)

	s.logger.InfoContext(ctx, "stock adjustment approved",
		slog.String("adjustment_id", adjustment.ID),
		slog.String("adjustment_number", adjustment.AdjustmentNumber),
		slog.String("approved_by", approvedBy),
		slog.Int("delta", adjustment.AdjustmentQuantity),
	)

	return adjustment, nil
}

// RejectAdjustment declines a pending adjustment without touching stock.
func (s *InventoryService) RejectAdjustment(ctx context.Context, adjustmentID, rejectedBy string, notes *string) (*domain.StockAdjustment, error) {
	if rejectedBy == "" {
		return nil, apperrors.InvalidInput("rejected_by is required")
	}

	if err := s.adjustmentRepo.MarkRejected(ctx, adjustmentID, rejectedBy, notes); err != nil {
		return nil, err
	}

	adj, err := s.adjustmentRepo.GetByID(ctx, adjustmentID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "stock adjustment rejected",
		slog.String("adjustment_id", adj.ID),
		slog.String("adjustment_number", adj.AdjustmentNumber),
		slog.String("rejected_by", rejectedBy),
	)

	return adj, nil
}

// lockAdjustment locks an adjustment row and returns its current state.
func lockAdjustment(ctx context.Context, tx pgx.Tx, id string) (*domain.StockAdjustment, error) {
	query := `
		SELECT id, adjustment_number, location_id, variant_id, reason, expected_quantity,
			actual_quantity, adjustment_quantity, unit_cost, total_cost_impact, notes, adjusted_by,
			approved_by, status, adjustment_date, approved_at
		FROM stock_adjustments
		WHERE id = $1
		FOR UPDATE`

	var a domain.StockAdjustment
	err := tx.QueryRow(ctx, query, id).Scan(
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("stock adjustment", id)
		}
		return nil, fmt.Errorf("lock stock adjustment: %w", err)
	}

	return &a, nil
}
