package repository

import (
	"context"
	"time"

	"github.com/garmenthq/inventory-service/internal/domain"
)

// LocationRepository defines persistence operations for stock locations.
type LocationRepository interface {
	// Create inserts a new stock location.
	Create(ctx context.Context, loc *domain.StockLocation) error

	// Update rewrites the mutable fields of a location.
	Update(ctx context.Context, loc *domain.StockLocation) error

	// GetByID retrieves a location by its identifier.
	GetByID(ctx context.Context, id string) (*domain.StockLocation, error)

	// GetByCode retrieves a location by its unique code.
	GetByCode(ctx context.Context, code string) (*domain.StockLocation, error)

	// GetDefault retrieves the default location, if one is configured.
	GetDefault(ctx context.Context) (*domain.StockLocation, error)

	// List returns locations, optionally restricted to active ones.
	List(ctx context.Context, activeOnly bool, page, perPage int) ([]domain.StockLocation, int, error)

	// ClearDefault unsets the default flag on all locations.
	ClearDefault(ctx context.Context) error

	// Deactivate soft-disables a location.
	Deactivate(ctx context.Context, id string) error

	// Delete removes a location. Fails if inventory levels reference it.
	Delete(ctx context.Context, id string) error

	// HasInventory reports whether any inventory level references the location.
	HasInventory(ctx context.Context, locationID string) (bool, error)
}

// LevelRepository defines read and settings operations for inventory levels.
// Quantity mutations are not here: they run inside service transactions under
// row locks.
type LevelRepository interface {
	// GetByPair retrieves the level for a variant at a location.
	GetByPair(ctx context.Context, variantID, locationID string) (*domain.InventoryLevel, error)

	// ListByVariant returns all levels for a variant across locations.
	ListByVariant(ctx context.Context, variantID string) ([]domain.InventoryLevel, error)

	// ListByLocation returns the levels at a location, paginated.
	ListByLocation(ctx context.Context, locationID string, page, perPage int) ([]domain.InventoryLevel, int, error)

	// ListLowStock returns levels below their reorder point, paginated.
	ListLowStock(ctx context.Context, page, perPage int) ([]domain.InventoryLevel, int, error)

	// GetVariantSummary aggregates a variant's stock across all locations.
	GetVariantSummary(ctx context.Context, variantID string) (*domain.VariantStockSummary, error)

	// UpdateReorderSettings changes the reorder point, reorder quantity, and
	// max stock level for a level.
	UpdateReorderSettings(ctx context.Context, variantID, locationID string, reorderPoint, reorderQuantity int, maxStockLevel *int) (*domain.InventoryLevel, error)

	// RecordCycleCount stamps last_counted_at on a level.
	RecordCycleCount(ctx context.Context, variantID, locationID string, countedAt time.Time) error
}

// MovementRepository defines read operations over the append-only movement log.
type MovementRepository interface {
	// ListByVariant returns movements for a variant, newest first, optionally
	// bounded by a date range.
	ListByVariant(ctx context.Context, variantID string, from, to *time.Time, page, perPage int) ([]domain.InventoryMovement, int, error)

	// ListByReference returns movements recorded against a reference document.
	ListByReference(ctx context.Context, referenceType, referenceID string) ([]domain.InventoryMovement, error)

	// List returns all movements, newest first, paginated.
	List(ctx context.Context, page, perPage int) ([]domain.InventoryMovement, int, error)
}

// AdjustmentRepository defines persistence operations for stock adjustments.
// Approval, which applies the stock delta, runs in a service transaction.
type AdjustmentRepository interface {
	// Create inserts a new pending adjustment.
	Create(ctx context.Context, adj *domain.StockAdjustment) error

	// GetByID retrieves an adjustment by its identifier.
	GetByID(ctx context.Context, id string) (*domain.StockAdjustment, error)

	// NextAdjustmentNumber generates the next ADJ-YYYYMMDD-NNNN number for the
	// given date.
	NextAdjustmentNumber(ctx context.Context, date time.Time) (string, error)

	// List returns adjustments, optionally filtered by status, newest first.
	List(ctx context.Context, status string, page, perPage int) ([]domain.StockAdjustment, int, error)

	// ListPending returns all adjustments awaiting review, oldest first.
	ListPending(ctx context.Context) ([]domain.StockAdjustment, error)

	// MarkRejected moves a pending adjustment to rejected.
	MarkRejected(ctx context.Context, id, rejectedBy string, notes *string) error
}

// AlertRepository defines persistence operations for low stock alerts.
type AlertRepository interface {
	// GetByID retrieves an alert by its identifier.
	GetByID(ctx context.Context, id string) (*domain.LowStockAlert, error)

	// GetActiveByPair retrieves the open alert for a variant and location.
	GetActiveByPair(ctx context.Context, variantID, locationID string) (*domain.LowStockAlert, error)

	// List returns alerts, optionally filtered by status, newest first.
	List(ctx context.Context, status string, page, perPage int) ([]domain.LowStockAlert, int, error)

	// ListActive returns all open alerts ordered by alert date.
	ListActive(ctx context.Context) ([]domain.LowStockAlert, error)

	// MarkStatus moves an alert to the given terminal status.
	MarkStatus(ctx context.Context, id, status string, resolvedBy *string, notes *string) error
}

// ReservationRepository defines read operations for inventory reservations.
// Creating, releasing, and fulfilling reservations mutate levels too, so they
// run in service transactions.
type ReservationRepository interface {
	// GetByID retrieves a reservation by its identifier.
	GetByID(ctx context.Context, id string) (*domain.InventoryReservation, error)

	// ListByOrder returns all reservations for an order.
	ListByOrder(ctx context.Context, orderID string) ([]domain.InventoryReservation, error)

	// ListActiveByVariant returns the active holds for a variant.
	ListActiveByVariant(ctx context.Context, variantID string) ([]domain.InventoryReservation, error)

	// TotalReservedForVariant sums the unfulfilled active holds for a variant.
	TotalReservedForVariant(ctx context.Context, variantID string) (int, error)

	// ListExpired returns active reservations past their expiry, oldest first.
	ListExpired(ctx context.Context, limit int) ([]domain.InventoryReservation, error)
}
