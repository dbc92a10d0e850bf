package domain

import (
	"time"
)

// Alert statuses. Active alerts are open; resolved and ignored are terminal.
const (
	AlertStatusActive   = "active"
	AlertStatusResolved = "resolved"
	AlertStatusIgnored  = "ignored"
)

// LowStockAlert flags a variant whose available quantity at a location fell
// below its reorder point. At most one active alert exists per variant and
// location pair.
type LowStockAlert struct {
	ID                       string     `json:"id"`
	VariantID                string     `json:"variant_id"`
	LocationID               string     `json:"location_id"`
	CurrentQuantity          int        `json:"current_quantity"`
	ReorderPoint             int        `json:"reorder_point"`
	RecommendedOrderQuantity int        `json:"recommended_order_quantity"`
	Status                   string     `json:"status"`
	ResolvedBy               *string    `json:"resolved_by,omitempty"`
	ResolvedAt               *time.Time `json:"resolved_at,omitempty"`
	ResolutionNotes          *string    `json:"resolution_notes,omitempty"`
	AlertDate                time.Time  `json:"alert_date"`
}

// IsActive reports whether the alert is still open.
func (a *LowStockAlert) IsActive() bool {
	return a.Status == AlertStatusActive
}
