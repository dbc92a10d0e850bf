package domain

import (
	"time"
)

// Adjustment statuses. Pending adjustments have no effect on stock until
// approved; approved and rejected are terminal.
const (
	AdjustmentStatusPending  = "pending"
	AdjustmentStatusApproved = "approved"
	AdjustmentStatusRejected = "rejected"
)

// Adjustment reasons.
const (
	AdjustmentReasonCycleCount = "cycle_count"
	AdjustmentReasonDamage     = "damage"
	AdjustmentReasonTheft      = "theft"
	AdjustmentReasonFound      = "found"
	AdjustmentReasonExpired    = "expired"
	AdjustmentReasonOther      = "other"
)

// StockAdjustment is a proposed correction to an inventory level, created when
// a count disagrees with the book quantity. AdjustmentQuantity is the signed
// difference (actual - expected).
type StockAdjustment struct {
	ID                 string     `json:"id"`
	AdjustmentNumber   string     `json:"adjustment_number"`
	LocationID         string     `json:"location_id"`
	VariantID          string     `json:"variant_id"`
	Reason             string     `json:"reason"`
	ExpectedQuantity   int        `json:"expected_quantity"`
	ActualQuantity     int        `json:"actual_quantity"`
	AdjustmentQuantity int        `json:"adjustment_quantity"`
	UnitCost           *float64   `json:"unit_cost,omitempty"`
	TotalCostImpact    *float64   `json:"total_cost_impact,omitempty"`
	Notes              *string    `json:"notes,omitempty"`
	AdjustedBy         *string    `json:"adjusted_by,omitempty"`
	ApprovedBy         *string    `json:"approved_by,omitempty"`
	Status             string     `json:"status"`
	AdjustmentDate     time.Time  `json:"adjustment_date"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
}

// IsPending reports whether the adjustment still awaits review.
func (a *StockAdjustment) IsPending() bool {
	return a.Status == AdjustmentStatusPending
}

// ValidAdjustmentReasons returns the set of valid adjustment reasons.
func ValidAdjustmentReasons() []string {
	return []string{
		AdjustmentReasonCycleCount,
		AdjustmentReasonDamage,
		AdjustmentReasonTheft,
		AdjustmentReasonFound,
		AdjustmentReasonExpired,
		AdjustmentReasonOther,
	}
}

// IsValidAdjustmentReason checks whether the given reason is valid.
func IsValidAdjustmentReason(reason string) bool {
	for _, r := range ValidAdjustmentReasons() {
		if r == reason {
			return true
		}
	}
	return false
}
