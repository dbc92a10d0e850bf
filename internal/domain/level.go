package domain

import (
	"time"
)

// InventoryLevel is the stock position for one variant at one location.
// QuantityAvailable is always derived as QuantityOnHand - QuantityReserved.
type InventoryLevel struct {
	ID                string     `json:"id"`
	VariantID         string     `json:"variant_id"`
	LocationID        string     `json:"location_id"`
	QuantityOnHand    int        `json:"quantity_on_hand"`
	QuantityReserved  int        `json:"quantity_reserved"`
	QuantityAvailable int        `json:"quantity_available"`
	ReorderPoint      int        `json:"reorder_point"`
	ReorderQuantity   int        `json:"reorder_quantity"`
	MaxStockLevel     *int       `json:"max_stock_level,omitempty"`
	LastCountedAt     *time.Time `json:"last_counted_at,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IsBelowReorderPoint reports whether available stock has fallen under the
// reorder threshold. A zero reorder point disables alerting for the level.
func (l *InventoryLevel) IsBelowReorderPoint() bool {
	return l.ReorderPoint > 0 && l.QuantityAvailable < l.ReorderPoint
}

// RecommendedOrderQuantity returns how much to reorder when the level is low:
// the configured reorder quantity, or enough to reach twice the reorder point
// when none is configured.
func (l *InventoryLevel) RecommendedOrderQuantity() int {
	if l.ReorderQuantity > 0 {
		return l.ReorderQuantity
	}
	return 2*l.ReorderPoint - l.QuantityAvailable
}

// VariantStockSummary aggregates a variant's stock across all locations.
type VariantStockSummary struct {
	VariantID      string `json:"variant_id"`
	TotalOnHand    int    `json:"total_on_hand"`
	TotalReserved  int    `json:"total_reserved"`
	TotalAvailable int    `json:"total_available"`
	LocationCount  int    `json:"location_count"`
}
