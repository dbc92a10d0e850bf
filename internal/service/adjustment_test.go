package service

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/garmenthq/inventory-service/internal/domain"
	apperrors "github.com/garmenthq/inventory-service/pkg/errors"
)

var adjustmentRowColumns = []string{
	"id", "adjustment_number", "location_id", "variant_id", "reason", "expected_quantity",
	"actual_quantity", "adjustment_quantity", "unit_cost", "total_cost_impact", "notes",
	"adjusted_by", "approved_by", "status", "adjustment_date", "approved_at",
}

func pendingAdjustmentRow(id string, expected, actual int) *pgxmock.Rows {
	adjustedBy := "clerk-1"
	return pgxmock.NewRows(adjustmentRowColumns).AddRow(
		id, "ADJ-20250601-0001", "loc-1", "var-1", domain.AdjustmentReasonCycleCount,
		expected, actual, actual-expected, (*float64)(nil), (*float64)(nil), (*string)(nil),
		&adjustedBy, (*string)(nil), domain.AdjustmentStatusPending,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), (*time.Time)(nil),
	)
}

func TestCreateAdjustment_RecordsPendingCorrection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.levelRepo.On("GetByPair", ctx, "var-1", "loc-1").Return(&domain.InventoryLevel{
		ID:             "lvl-1",
		VariantID:      "var-1",
		LocationID:     "loc-1",
		QuantityOnHand: 50,
	}, nil)
	f.adjustmentRepo.On("NextAdjustmentNumber", ctx, mock.AnythingOfType("time.Time")).
		Return("ADJ-20250601-0003", nil)
	f.adjustmentRepo.On("Create", ctx, mock.AnythingOfType("*domain.StockAdjustment")).Return(nil)

	unitCost := 2.5
	adj, err := f.svc.CreateAdjustment(ctx, CreateAdjustmentInput{
		VariantID:      "var-1",
		LocationID:     "loc-1",
		Reason:         domain.AdjustmentReasonCycleCount,
		ActualQuantity: 47,
		UnitCost:       &unitCost,
		AdjustedBy:     "clerk-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "ADJ-20250601-0003", adj.AdjustmentNumber)
	assert.Equal(t, 50, adj.ExpectedQuantity)
	assert.Equal(t, 47, adj.ActualQuantity)
	assert.Equal(t, -3, adj.AdjustmentQuantity)
	assert.Equal(t, domain.AdjustmentStatusPending, adj.Status)
	require.NotNil(t, adj.TotalCostImpact)
	assert.InDelta(t, -7.5, *adj.TotalCostImpact, 0.001)

	f.levelRepo.AssertExpectations(t)
	f.adjustmentRepo.AssertExpectations(t)
}

func TestCreateAdjustment_RegeneratesNumberOnCollision(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.levelRepo.On("GetByPair", ctx, "var-1", "loc-1").Return(&domain.InventoryLevel{
		ID:             "lvl-1",
		VariantID:      "var-1",
		LocationID:     "loc-1",
		QuantityOnHand: 50,
	}, nil)

	// A concurrent create took ADJ-20250601-0003 first; the retry picks up
	// the next number.
	f.adjustmentRepo.On("NextAdjustmentNumber", ctx, mock.AnythingOfType("time.Time")).
		Return("ADJ-20250601-0003", nil).Once()
	f.adjustmentRepo.On("NextAdjustmentNumber", ctx, mock.AnythingOfType("time.Time")).
		Return("ADJ-20250601-0004", nil).Once()
	f.adjustmentRepo.On("Create", ctx, mock.AnythingOfType("*domain.StockAdjustment")).
		Return(apperrors.Conflict("adjustment number ADJ-20250601-0003 already taken")).Once()
	f.adjustmentRepo.On("Create", ctx, mock.AnythingOfType("*domain.StockAdjustment")).
		Return(nil).Once()

	adj, err := f.svc.CreateAdjustment(ctx, CreateAdjustmentInput{
		VariantID:      "var-1",
		LocationID:     "loc-1",
		Reason:         domain.AdjustmentReasonCycleCount,
		ActualQuantity: 47,
		AdjustedBy:     "clerk-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "ADJ-20250601-0004", adj.AdjustmentNumber)
	f.adjustmentRepo.AssertExpectations(t)
}

func TestCreateAdjustment_NoDiscrepancy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.levelRepo.On("GetByPair", ctx, "var-1", "loc-1").Return(&domain.InventoryLevel{
		ID:             "lvl-1",
		VariantID:      "var-1",
		LocationID:     "loc-1",
		QuantityOnHand: 50,
	}, nil)

	adj, err := f.svc.CreateAdjustment(ctx, CreateAdjustmentInput{
		VariantID:      "var-1",
		LocationID:     "loc-1",
		Reason:         domain.AdjustmentReasonCycleCount,
		ActualQuantity: 50,
		AdjustedBy:     "clerk-1",
	})

	assert.Nil(t, adj)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)
	f.adjustmentRepo.AssertNotCalled(t, "Create")
}

func TestCreateAdjustment_InvalidReason(t *testing.T) {
	f := newFixture(t)

	adj, err := f.svc.CreateAdjustment(context.Background(), CreateAdjustmentInput{
		VariantID:      "var-1",
		LocationID:     "loc-1",
		Reason:         "shrinkage",
		ActualQuantity: 10,
		AdjustedBy:     "clerk-1",
	})

	assert.Nil(t, adj)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestApproveAdjustment_AppliesDeltaAndRecordsMovement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.expectBegin()
	f.pool.ExpectQuery("SELECT .+ FROM stock_adjustments").
		WithArgs("adj-1").
		WillReturnRows(pendingAdjustmentRow("adj-1", 50, 47))
	f.pool.ExpectExec("INSERT INTO inventory_levels").
		WithArgs("var-1", "loc-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	f.pool.ExpectQuery("SELECT .+ FROM inventory_levels").
		WithArgs("var-1", "loc-1").
		WillReturnRows(levelRow("lvl-1", "var-1", "loc-1", 50, 0))
	f.pool.ExpectQuery("UPDATE inventory_levels").
		WithArgs(47, 0, 47, "lvl-1").
		WillReturnRows(updatedAtRow())
	f.pool.ExpectExec("INSERT INTO inventory_movements").
		WithArgs(anyArgs(15)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	f.pool.ExpectExec("UPDATE stock_adjustments").
		WithArgs(anyArgs(4)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	f.pool.ExpectExec("UPDATE low_stock_alerts").
		WithArgs(anyArgs(5)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	f.pool.ExpectCommit()

	adj, err := f.svc.ApproveAdjustment(ctx, "adj-1", "manager-1")

	require.NoError(t, err)
	assert.Equal(t, domain.AdjustmentStatusApproved, adj.Status)
	require.NotNil(t, adj.ApprovedBy)
	assert.Equal(t, "manager-1", *adj.ApprovedBy)
	require.NotNil(t, adj.ApprovedAt)
	assert.Len(t, f.producer.updated, 1)
	assert.NoError(t, f.pool.ExpectationsWereMet())
}

func TestApproveAdjustment_CannotConsumeReservedStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 10 on hand with 8 reserved: a shrinkage of 5 would leave on-hand below
	// the reserved quantity, so approval must fail and roll back.
	f.expectBegin()
	f.pool.ExpectQuery("SELECT .+ FROM stock_adjustments").
		WithArgs("adj-1").
		WillReturnRows(pendingAdjustmentRow("adj-1", 10, 5))
	f.pool.ExpectExec("INSERT INTO inventory_levels").
		WithArgs("var-1", "loc-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	f.pool.ExpectQuery("SELECT .+ FROM inventory_levels").
		WithArgs("var-1", "loc-1").
		WillReturnRows(levelRow("lvl-1", "var-1", "loc-1", 10, 8))
	f.pool.ExpectRollback()

	adj, err := f.svc.ApproveAdjustment(ctx, "adj-1", "manager-1")

	assert.Nil(t, adj)
	assert.ErrorIs(t, err, apperrors.ErrInvalidQuantity)
	assert.Contains(t, err.Error(), "cannot drop below reserved")
	assert.Empty(t, f.producer.updated)
	assert.NoError(t, f.pool.ExpectationsWereMet())
}

func TestApproveAdjustment_AlreadyApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	approvedBy := "manager-1"
	approvedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	row := pgxmock.NewRows(adjustmentRowColumns).AddRow(
		"adj-1", "ADJ-20250601-0001", "loc-1", "var-1", domain.AdjustmentReasonCycleCount,
		50, 47, -3, (*float64)(nil), (*float64)(nil), (*string)(nil),
		&approvedBy, &approvedBy, domain.AdjustmentStatusApproved,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), &approvedAt,
	)

	f.expectBegin()
	f.pool.ExpectQuery("SELECT .+ FROM stock_adjustments").
		WithArgs("adj-1").
		WillReturnRows(row)
	f.pool.ExpectRollback()

	adj, err := f.svc.ApproveAdjustment(ctx, "adj-1", "manager-2")

	assert.Nil(t, adj)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Empty(t, f.producer.updated)
	assert.NoError(t, f.pool.ExpectationsWereMet())
}

func TestRejectAdjustment_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rejectedBy := "manager-1"
	f.adjustmentRepo.On("MarkRejected", ctx, "adj-1", "manager-1", (*string)(nil)).Return(nil)
	f.adjustmentRepo.On("GetByID", ctx, "adj-1").Return(&domain.StockAdjustment{
		ID:               "adj-1",
		AdjustmentNumber: "ADJ-20250601-0001",
		Status:           domain.AdjustmentStatusRejected,
		ApprovedBy:       &rejectedBy,
	}, nil)

	adj, err := f.svc.RejectAdjustment(ctx, "adj-1", "manager-1", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.AdjustmentStatusRejected, adj.Status)
	f.adjustmentRepo.AssertExpectations(t)
}

func TestRejectAdjustment_AlreadyReviewed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.adjustmentRepo.On("MarkRejected", ctx, "adj-1", "manager-1", (*string)(nil)).
		Return(apperrors.InvalidState("adjustment adj-1 is already approved"))

	adj, err := f.svc.RejectAdjustment(ctx, "adj-1", "manager-1", nil)

	assert.Nil(t, adj)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	f.adjustmentRepo.AssertExpectations(t)
}
