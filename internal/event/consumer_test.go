package event

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/garmenthq/inventory-service/pkg/errors"
	pkgkafka "github.com/garmenthq/inventory-service/pkg/kafka"
)

type mockInventoryService struct {
	mock.Mock
}

func (m *mockInventoryService) ReleaseOrderReservations(ctx context.Context, orderID string, notes *string) (int, error) {
	args := m.Called(ctx, orderID, notes)
	return args.Int(0), args.Error(1)
}

func (m *mockInventoryService) FulfillOrderShipment(ctx context.Context, orderID string) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func orderEvent(t *testing.T, eventType string, data any) *pkgkafka.Event {
	t.Helper()
	event, err := pkgkafka.NewEvent(eventType, "ord-1", "order", "order-service", data)
	require.NoError(t, err)
	return event
}

func TestHandleOrderCanceled_ReleasesHolds(t *testing.T) {
	svc := new(mockInventoryService)
	consumer := NewConsumer(svc, testLogger())

	reason := "customer request"
	svc.On("ReleaseOrderReservations", mock.Anything, "ord-1",
		mock.MatchedBy(func(notes *string) bool {
			return notes != nil && *notes == "Order canceled: customer request"
		})).Return(2, nil)

	event := orderEvent(t, "order.canceled", OrderCanceledData{OrderID: "ord-1", Reason: &reason})

	require.NoError(t, consumer.HandleOrderCanceled(context.Background(), event))
	svc.AssertExpectations(t)
}

func TestHandleOrderCanceled_MissingOrderIDIsSkipped(t *testing.T) {
	svc := new(mockInventoryService)
	consumer := NewConsumer(svc, testLogger())

	event := orderEvent(t, "order.canceled", OrderCanceledData{})

	require.NoError(t, consumer.HandleOrderCanceled(context.Background(), event))
	svc.AssertNotCalled(t, "ReleaseOrderReservations", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleOrderCanceled_ServiceErrorIsRetried(t *testing.T) {
	svc := new(mockInventoryService)
	consumer := NewConsumer(svc, testLogger())

	svc.On("ReleaseOrderReservations", mock.Anything, "ord-1", mock.Anything).
		Return(0, errors.New("database unavailable"))

	event := orderEvent(t, "order.canceled", OrderCanceledData{OrderID: "ord-1"})

	err := consumer.HandleOrderCanceled(context.Background(), event)
	assert.Error(t, err)
}

func TestHandleOrderShipped_FulfillsHolds(t *testing.T) {
	svc := new(mockInventoryService)
	consumer := NewConsumer(svc, testLogger())

	svc.On("FulfillOrderShipment", mock.Anything, "ord-1").Return(nil)

	event := orderEvent(t, "order.shipped", OrderShippedData{OrderID: "ord-1", TrackingNumber: "TRK-1"})

	require.NoError(t, consumer.HandleOrderShipped(context.Background(), event))
	svc.AssertExpectations(t)
}

func TestHandleOrderShipped_NoHoldsIsNotRetried(t *testing.T) {
	svc := new(mockInventoryService)
	consumer := NewConsumer(svc, testLogger())

	svc.On("FulfillOrderShipment", mock.Anything, "ord-1").
		Return(apperrors.NotFound("active reservations for order", "ord-1"))

	event := orderEvent(t, "order.shipped", OrderShippedData{OrderID: "ord-1"})

	require.NoError(t, consumer.HandleOrderShipped(context.Background(), event))
}

func TestHandleOrderShipped_TransientErrorIsRetried(t *testing.T) {
	svc := new(mockInventoryService)
	consumer := NewConsumer(svc, testLogger())

	svc.On("FulfillOrderShipment", mock.Anything, "ord-1").
		Return(apperrors.Conflict("serialization failure"))

	event := orderEvent(t, "order.shipped", OrderShippedData{OrderID: "ord-1"})

	err := consumer.HandleOrderShipped(context.Background(), event)
	assert.Error(t, err)
}
