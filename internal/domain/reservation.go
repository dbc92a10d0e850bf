package domain

import (
	"time"
)

// InventoryReservation is a hold on stock for an order line. Reserving moves
// quantity from available to reserved without changing on-hand; fulfillment
// during shipping consumes the hold.
type InventoryReservation struct {
	ID                string     `json:"id"`
	OrderID           string     `json:"order_id"`
	OrderItemID       *string    `json:"order_item_id,omitempty"`
	VariantID         string     `json:"variant_id"`
	LocationID        *string    `json:"location_id,omitempty"`
	QuantityReserved  int        `json:"quantity_reserved"`
	QuantityFulfilled int        `json:"quantity_fulfilled"`
	IsActive          bool       `json:"is_active"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	ReservedAt        time.Time  `json:"reserved_at"`
	ReleasedAt        *time.Time `json:"released_at,omitempty"`
	FulfilledAt       *time.Time `json:"fulfilled_at,omitempty"`
}

// IsExpired reports whether the reservation has passed its expiry time.
// Reservations without an expiry never expire.
func (r *InventoryReservation) IsExpired() bool {
	return r.ExpiresAt != nil && time.Now().UTC().After(*r.ExpiresAt)
}

// Remaining returns the unfulfilled portion of the hold.
func (r *InventoryReservation) Remaining() int {
	return r.QuantityReserved - r.QuantityFulfilled
}

// IsFullyFulfilled reports whether the entire hold has been consumed.
func (r *InventoryReservation) IsFullyFulfilled() bool {
	return r.QuantityFulfilled >= r.QuantityReserved
}
