package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInventoryLevel_IsBelowReorderPoint(t *testing.T) {
	tests := []struct {
		name  string
		level InventoryLevel
		want  bool
	}{
		{
			name:  "above reorder point",
			level: InventoryLevel{QuantityAvailable: 50, ReorderPoint: 20},
			want:  false,
		},
		{
			name:  "exactly at reorder point",
			level: InventoryLevel{QuantityAvailable: 20, ReorderPoint: 20},
			want:  false,
		},
		{
			name:  "below reorder point",
			level: InventoryLevel{QuantityAvailable: 19, ReorderPoint: 20},
			want:  true,
		},
		{
			name:  "zero reorder point disables alerting",
			level: InventoryLevel{QuantityAvailable: 0, ReorderPoint: 0},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.level.IsBelowReorderPoint())
		})
	}
}

func TestInventoryLevel_RecommendedOrderQuantity(t *testing.T) {
	configured := InventoryLevel{QuantityAvailable: 5, ReorderPoint: 20, ReorderQuantity: 100}
	assert.Equal(t, 100, configured.RecommendedOrderQuantity())

	// Without a configured reorder quantity, order up to twice the reorder point.
	derived := InventoryLevel{QuantityAvailable: 5, ReorderPoint: 20}
	assert.Equal(t, 35, derived.RecommendedOrderQuantity())
}

func TestInventoryReservation_IsExpired(t *testing.T) {
	past := time.Now().UTC().Add(-time.Minute)
	future := time.Now().UTC().Add(time.Hour)

	expired := InventoryReservation{ExpiresAt: &past}
	assert.True(t, expired.IsExpired())

	live := InventoryReservation{ExpiresAt: &future}
	assert.False(t, live.IsExpired())

	noExpiry := InventoryReservation{}
	assert.False(t, noExpiry.IsExpired())
}

func TestInventoryReservation_Fulfillment(t *testing.T) {
	r := InventoryReservation{QuantityReserved: 10, QuantityFulfilled: 4}
	assert.Equal(t, 6, r.Remaining())
	assert.False(t, r.IsFullyFulfilled())

	r.QuantityFulfilled = 10
	assert.Equal(t, 0, r.Remaining())
	assert.True(t, r.IsFullyFulfilled())
}

func TestInventoryMovement_OnHandDelta(t *testing.T) {
	locA := "loc-a"
	locB := "loc-b"

	tests := []struct {
		name     string
		movement InventoryMovement
		location string
		want     int
	}{
		{
			name:     "receipt adds at destination",
			movement: InventoryMovement{MovementType: MovementTypeReceipt, Quantity: 10, ToLocationID: &locA},
			location: locA,
			want:     10,
		},
		{
			name:     "shipment subtracts at source",
			movement: InventoryMovement{MovementType: MovementTypeShipment, Quantity: 3, FromLocationID: &locA},
			location: locA,
			want:     -3,
		},
		{
			name:     "transfer subtracts at source",
			movement: InventoryMovement{MovementType: MovementTypeTransfer, Quantity: 5, FromLocationID: &locA, ToLocationID: &locB},
			location: locA,
			want:     -5,
		},
		{
			name:     "transfer adds at destination",
			movement: InventoryMovement{MovementType: MovementTypeTransfer, Quantity: 5, FromLocationID: &locA, ToLocationID: &locB},
			location: locB,
			want:     5,
		},
		{
			name:     "reservation does not touch on-hand",
			movement: InventoryMovement{MovementType: MovementTypeReservation, Quantity: 5, FromLocationID: &locA},
			location: locA,
			want:     0,
		},
		{
			name:     "release does not touch on-hand",
			movement: InventoryMovement{MovementType: MovementTypeRelease, Quantity: 5, ToLocationID: &locA},
			location: locA,
			want:     0,
		},
		{
			name:     "adjustment_out subtracts at source",
			movement: InventoryMovement{MovementType: MovementTypeAdjustmentOut, Quantity: 2, FromLocationID: &locA},
			location: locA,
			want:     -2,
		},
		{
			name:     "unrelated location unaffected",
			movement: InventoryMovement{MovementType: MovementTypeReceipt, Quantity: 10, ToLocationID: &locA},
			location: locB,
			want:     0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.movement.OnHandDelta(tt.location))
		})
	}
}

func TestEnumValidation(t *testing.T) {
	assert.True(t, IsValidMovementType(MovementTypeReceipt))
	assert.True(t, IsValidMovementType(MovementTypeAdjustmentOut))
	assert.False(t, IsValidMovementType("teleport"))

	assert.True(t, IsValidLocationType(LocationTypeWarehouse))
	assert.False(t, IsValidLocationType("van"))

	assert.True(t, IsValidAdjustmentReason(AdjustmentReasonCycleCount))
	assert.False(t, IsValidAdjustmentReason("gremlins"))
}

func TestStockAdjustment_IsPending(t *testing.T) {
	a := StockAdjustment{Status: AdjustmentStatusPending}
	assert.True(t, a.IsPending())

	a.Status = AdjustmentStatusApproved
	assert.False(t, a.IsPending())
}

func TestLowStockAlert_IsActive(t *testing.T) {
	a := LowStockAlert{Status: AlertStatusActive}
	assert.True(t, a.IsActive())

	a.Status = AlertStatusResolved
	assert.False(t, a.IsActive())
}
