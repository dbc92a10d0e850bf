package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/garmenthq/inventory-service/internal/domain"
	apperrors "github.com/garmenthq/inventory-service/pkg/errors"
)

// CreateLocationInput describes a new stock location.
type CreateLocationInput struct {
	Name         string
	Code         string
	LocationType string
	IsDefault    bool
	Priority     int
	Capacity     *int
}

// UpdateLocationInput carries the mutable fields of a location. Nil fields are
// left unchanged.
type UpdateLocationInput struct {
	Name         *string
	LocationType *string
	IsDefault    *bool
	Priority     *int
	Capacity     *int
	IsActive     *bool
}

// CreateLocation registers a new stock location. Codes are unique, and marking
// a location default clears the flag from any previous default.
func (s *InventoryService) CreateLocation(ctx context.Context, in CreateLocationInput) (*domain.StockLocation, error) {
	if in.Name == "" || in.Code == "" {
		return nil, apperrors.InvalidInput("location name and code are required")
	}
	if !domain.IsValidLocationType(in.LocationType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid location type: %s", in.LocationType))
	}

	existing, err := s.locationRepo.GetByCode(ctx, in.Code)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.AlreadyExists("location", "code", in.Code)
	}

	if in.IsDefault {
		if err := s.locationRepo.ClearDefault(ctx); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	loc := &domain.StockLocation{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Code:         in.Code,
		LocationType: in.LocationType,
		IsDefault:    in.IsDefault,
		Priority:     in.Priority,
		Capacity:     in.Capacity,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.locationRepo.Create(ctx, loc); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "stock location created",
		slog.String("location_id", loc.ID),
		slog.String("code", loc.Code),
		slog.String("type", loc.LocationType),
	)

	return loc, nil
}

// UpdateLocation applies partial updates to a location.
func (s *InventoryService) UpdateLocation(ctx context.Context, id string, in UpdateLocationInput) (*domain.StockLocation, error) {
	loc, err := s.locationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		if *in.Name == "" {
			return nil, apperrors.InvalidInput("location name cannot be empty")
		}
		loc.Name = *in.Name
	}
	if in.LocationType != nil {
		if !domain.IsValidLocationType(*in.LocationType) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid location type: %s", *in.LocationType))
		}
		loc.LocationType = *in.LocationType
	}
	if in.Priority != nil {
		loc.Priority = *in.Priority
	}
	if in.Capacity != nil {
		loc.Capacity = in.Capacity
	}
	if in.IsActive != nil {
		loc.IsActive = *in.IsActive
	}
	if in.IsDefault != nil && *in.IsDefault != loc.IsDefault {
		if *in.IsDefault {
			if err := s.locationRepo.ClearDefault(ctx); err != nil {
				return nil, err
			}
		}
		loc.IsDefault = *in.IsDefault
	}

	if err := s.locationRepo.Update(ctx, loc); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "stock location updated", slog.String("location_id", loc.ID))

	return loc, nil
}

// GetLocation retrieves a location by id.
func (s *InventoryService) GetLocation(ctx context.Context, id string) (*domain.StockLocation, error) {
	return s.locationRepo.GetByID(ctx, id)
}

// ListLocations returns locations, optionally restricted to active ones.
func (s *InventoryService) ListLocations(ctx context.Context, activeOnly bool, page, perPage int) ([]domain.StockLocation, int, error) {
	return s.locationRepo.List(ctx, activeOnly, page, perPage)
}

// DeleteLocation removes a location. Locations that still hold inventory
// levels are deactivated instead of deleted so the movement history stays
// intact.
func (s *InventoryService) DeleteLocation(ctx context.Context, id string) error {
	if _, err := s.locationRepo.GetByID(ctx, id); err != nil {
		return err
	}

	hasInventory, err := s.locationRepo.HasInventory(ctx, id)
	if err != nil {
		return err
	}

	if hasInventory {
		if err := s.locationRepo.Deactivate(ctx, id); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "stock location deactivated, inventory levels reference it",
			slog.String("location_id", id),
		)
		return nil
	}

	if err := s.locationRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "stock location deleted", slog.String("location_id", id))
	return nil
}
