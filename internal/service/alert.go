package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/garmenthq/inventory-service/internal/domain"
)

// ResolveAlert closes an open low stock alert, recording who resolved it.
// Alerts also auto-resolve when stock recovers above the reorder point.
func (s *InventoryService) ResolveAlert(ctx context.Context, alertID, resolvedBy string, notes *string) (*domain.LowStockAlert, error) {
	return s.closeAlert(ctx, alertID, domain.AlertStatusResolved, resolvedBy, notes)
}

// IgnoreAlert dismisses an open low stock alert without restocking.
func (s *InventoryService) IgnoreAlert(ctx context.Context, alertID, ignoredBy string, notes *string) (*domain.LowStockAlert, error) {
	return s.closeAlert(ctx, alertID, domain.AlertStatusIgnored, ignoredBy, notes)
}

func (s *InventoryService) closeAlert(ctx context.Context, alertID, status, actor string, notes *string) (*domain.LowStockAlert, error) {
	var by *string
	if actor != "" {
		by = &actor
	}

	if err := s.alertRepo.MarkStatus(ctx, alertID, status, by, notes); err != nil {
		return nil, err
	}

	alert, err := s.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, fmt.Sprintf("low stock alert %s", status),
		slog.String("alert_id", alert.ID),
		slog.String("variant_id", alert.VariantID),
		slog.String("location_id", alert.LocationID),
	)

	return alert, nil
}

// GetAlert retrieves a low-stock alert by id.
func (s *InventoryService) GetAlert(ctx context.Context, id string) (*domain.LowStockAlert, error) {
	return s.alertRepo.GetByID(ctx, id)
}

// ListAlerts returns alerts filtered by status, newest first.
func (s *InventoryService) ListAlerts(ctx context.Context, status string, page, perPage int) ([]domain.LowStockAlert, int, error) {
	return s.alertRepo.List(ctx, status, page, perPage)
}

// ListActiveAlerts returns all open alerts ordered by alert date.
func (s *InventoryService) ListActiveAlerts(ctx context.Context) ([]domain.LowStockAlert, error) {
	return s.alertRepo.ListActive(ctx)
}
