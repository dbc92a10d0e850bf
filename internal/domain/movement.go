package domain

import (
	"time"
)

// Movement types. The movement log is append-only: corrections are recorded
// as compensating movements, never by editing history.
const (
	MovementTypeReceipt       = "receipt"
	MovementTypeShipment      = "shipment"
	MovementTypeTransfer      = "transfer"
	MovementTypeReservation   = "reservation"
	MovementTypeRelease       = "release"
	MovementTypeAdjustmentIn  = "adjustment_in"
	MovementTypeAdjustmentOut = "adjustment_out"
)

// Movement reference types, identifying the document that caused a movement.
const (
	ReferenceTypePurchaseOrder = "purchase_order"
	ReferenceTypeOrder         = "order"
	ReferenceTypeReservation   = "reservation"
	ReferenceTypeAdjustment    = "adjustment"
	ReferenceTypeTransfer      = "transfer"
	ReferenceTypeReturn        = "return"
)

// InventoryMovement is one immutable entry in the stock movement log.
// Quantity is always positive; the movement type and the from/to locations
// carry the direction.
type InventoryMovement struct {
	ID              string    `json:"id"`
	VariantID       string    `json:"variant_id"`
	FromLocationID  *string   `json:"from_location_id,omitempty"`
	ToLocationID    *string   `json:"to_location_id,omitempty"`
	MovementType    string    `json:"movement_type"`
	Quantity        int       `json:"quantity"`
	UnitCost        *float64  `json:"unit_cost,omitempty"`
	TotalCost       *float64  `json:"total_cost,omitempty"`
	ReferenceType   *string   `json:"reference_type,omitempty"`
	ReferenceID     *string   `json:"reference_id,omitempty"`
	ReferenceNumber *string   `json:"reference_number,omitempty"`
	Reason          *string   `json:"reason,omitempty"`
	Notes           *string   `json:"notes,omitempty"`
	CreatedBy       *string   `json:"created_by,omitempty"`
	MovementDate    time.Time `json:"movement_date"`
}

// ValidMovementTypes returns the set of valid movement types.
func ValidMovementTypes() []string {
	return []string{
		MovementTypeReceipt,
		MovementTypeShipment,
		MovementTypeTransfer,
		MovementTypeReservation,
		MovementTypeRelease,
		MovementTypeAdjustmentIn,
		MovementTypeAdjustmentOut,
	}
}

// IsValidMovementType checks whether the given type is a valid movement type.
func IsValidMovementType(t string) bool {
	for _, v := range ValidMovementTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// OnHandDelta returns the signed effect of this movement on the on-hand
// quantity at the given location. Reservation and release movements do not
// touch on-hand; transfers subtract at the source and add at the destination.
func (m *InventoryMovement) OnHandDelta(locationID string) int {
	switch m.MovementType {
	case MovementTypeReceipt, MovementTypeAdjustmentIn:
		if m.ToLocationID != nil && *m.ToLocationID == locationID {
			return m.Quantity
		}
	case MovementTypeShipment, MovementTypeAdjustmentOut:
		if m.FromLocationID != nil && *m.FromLocationID == locationID {
			return -m.Quantity
		}
	case MovementTypeTransfer:
		if m.FromLocationID != nil && *m.FromLocationID == locationID {
			return -m.Quantity
		}
		if m.ToLocationID != nil && *m.ToLocationID == locationID {
			return m.Quantity
		}
	}
	return 0
}
