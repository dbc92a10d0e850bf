package domain

import (
	"time"
)

// Stock location types.
const (
	LocationTypeWarehouse          = "warehouse"
	LocationTypeStore              = "store"
	LocationTypeDistributionCenter = "distribution_center"
)

// StockLocation represents a physical place where inventory is held.
type StockLocation struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Code         string    `json:"code"`
	LocationType string    `json:"location_type"`
	IsDefault    bool      `json:"is_default"`
	Priority     int       `json:"priority"`
	Capacity     *int      `json:"capacity,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ValidLocationTypes returns the set of valid location types.
func ValidLocationTypes() []string {
	return []string{LocationTypeWarehouse, LocationTypeStore, LocationTypeDistributionCenter}
}

// IsValidLocationType checks whether the given type is a valid location type.
func IsValidLocationType(t string) bool {
	for _, v := range ValidLocationTypes() {
		if v == t {
			return true
		}
	}
	return false
}
