package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/garmenthq/inventory-service/internal/domain"
	apperrors "github.com/garmenthq/inventory-service/pkg/errors"
)

func TestCreateLocation_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.locationRepo.On("GetByCode", ctx, "WH-EAST").
		Return(nil, apperrors.NotFound("location", "WH-EAST"))
	f.locationRepo.On("Create", ctx, mock.AnythingOfType("*domain.StockLocation")).Return(nil)

	loc, err := f.svc.CreateLocation(ctx, CreateLocationInput{
		Name:         "East Warehouse",
		Code:         "WH-EAST",
		LocationType: domain.LocationTypeWarehouse,
		Priority:     2,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, loc.ID)
	assert.Equal(t, "WH-EAST", loc.Code)
	assert.True(t, loc.IsActive)
	assert.False(t, loc.IsDefault)
	f.locationRepo.AssertExpectations(t)
}

func TestCreateLocation_DuplicateCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.locationRepo.On("GetByCode", ctx, "WH-MAIN").Return(activeLocation("loc-1"), nil)

	loc, err := f.svc.CreateLocation(ctx, CreateLocationInput{
		Name:         "Duplicate",
		Code:         "WH-MAIN",
		LocationType: domain.LocationTypeWarehouse,
	})

	assert.Nil(t, loc)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	f.locationRepo.AssertNotCalled(t, "Create")
}

func TestCreateLocation_InvalidType(t *testing.T) {
	f := newFixture(t)

	loc, err := f.svc.CreateLocation(context.Background(), CreateLocationInput{
		Name:         "Pop-up",
		Code:         "POP-1",
		LocationType: "kiosk",
	})

	assert.Nil(t, loc)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateLocation_DefaultClearsPreviousDefault(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.locationRepo.On("GetByCode", ctx, "WH-NEW").
		Return(nil, apperrors.NotFound("location", "WH-NEW"))
	f.locationRepo.On("ClearDefault", ctx).Return(nil)
	f.locationRepo.On("Create", ctx, mock.AnythingOfType("*domain.StockLocation")).Return(nil)

	loc, err := f.svc.CreateLocation(ctx, CreateLocationInput{
		Name:         "New Default",
		Code:         "WH-NEW",
		LocationType: domain.LocationTypeDistributionCenter,
		IsDefault:    true,
	})

	require.NoError(t, err)
	assert.True(t, loc.IsDefault)
	f.locationRepo.AssertExpectations(t)
}

func TestUpdateLocation_PartialUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.locationRepo.On("GetByID", ctx, "loc-1").Return(activeLocation("loc-1"), nil)
	f.locationRepo.On("Update", ctx, mock.AnythingOfType("*domain.StockLocation")).Return(nil)

	name := "Renamed Warehouse"
	priority := 9
	loc, err := f.svc.UpdateLocation(ctx, "loc-1", UpdateLocationInput{
		Name:     &name,
		Priority: &priority,
	})

	require.NoError(t, err)
	assert.Equal(t, "Renamed Warehouse", loc.Name)
	assert.Equal(t, 9, loc.Priority)
	assert.Equal(t, "WH-MAIN", loc.Code)
	f.locationRepo.AssertExpectations(t)
}

func TestDeleteLocation_DeactivatesWhenInventoryExists(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.locationRepo.On("GetByID", ctx, "loc-1").Return(activeLocation("loc-1"), nil)
	f.locationRepo.On("HasInventory", ctx, "loc-1").Return(true, nil)
	f.locationRepo.On("Deactivate", ctx, "loc-1").Return(nil)

	err := f.svc.DeleteLocation(ctx, "loc-1")

	require.NoError(t, err)
	f.locationRepo.AssertNotCalled(t, "Delete")
	f.locationRepo.AssertExpectations(t)
}

func TestDeleteLocation_DeletesWhenEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.locationRepo.On("GetByID", ctx, "loc-1").Return(activeLocation("loc-1"), nil)
	f.locationRepo.On("HasInventory", ctx, "loc-1").Return(false, nil)
	f.locationRepo.On("Delete", ctx, "loc-1").Return(nil)

	err := f.svc.DeleteLocation(ctx, "loc-1")

	require.NoError(t, err)
	f.locationRepo.AssertExpectations(t)
}

func TestResolveAlert_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resolvedBy := "manager-1"
	f.alertRepo.On("MarkStatus", ctx, "alert-1", domain.AlertStatusResolved, &resolvedBy, (*string)(nil)).
		Return(nil)
	f.alertRepo.On("GetByID", ctx, "alert-1").Return(&domain.LowStockAlert{
		ID:         "alert-1",
		VariantID:  "var-1",
		LocationID: "loc-1",
		Status:     domain.AlertStatusResolved,
		ResolvedBy: &resolvedBy,
	}, nil)

	alert, err := f.svc.ResolveAlert(ctx, "alert-1", "manager-1", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.AlertStatusResolved, alert.Status)
	f.alertRepo.AssertExpectations(t)
}

func TestIgnoreAlert_AlreadyClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ignoredBy := "manager-1"
	f.alertRepo.On("MarkStatus", ctx, "alert-1", domain.AlertStatusIgnored, &ignoredBy, (*string)(nil)).
		Return(apperrors.InvalidState("alert alert-1 is already resolved"))

	alert, err := f.svc.IgnoreAlert(ctx, "alert-1", "manager-1", nil)

	assert.Nil(t, alert)
	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	f.alertRepo.AssertExpectations(t)
}
