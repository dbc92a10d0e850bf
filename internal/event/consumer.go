package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/garmenthq/inventory-service/pkg/errors"
	pkgkafka "github.com/garmenthq/inventory-service/pkg/kafka"
)

// Kafka topics consumed by the inventory service.
var (
	TopicOrderCanceled = pkgkafka.Topic("order", "canceled")
	TopicOrderShipped  = pkgkafka.Topic("order", "shipped")
)

// InventoryService defines the operations the event consumer drives.
type InventoryService interface {
	ReleaseOrderReservations(ctx context.Context, orderID string, notes *string) (int, error)
	FulfillOrderShipment(ctx context.Context, orderID string) error
}

// OrderCanceledData is the expected payload of an order.canceled event.
type OrderCanceledData struct {
	OrderID string  `json:"order_id"`
	Reason  *string `json:"reason,omitempty"`
}

// OrderShippedData is the expected payload of an order.shipped event.
type OrderShippedData struct {
	OrderID        string `json:"order_id"`
	TrackingNumber string `json:"tracking_number,omitempty"`
}

// Consumer processes incoming Kafka events for the inventory service.
type Consumer struct {
	logger  *slog.Logger
	service InventoryService
}

// NewConsumer creates a new event consumer for the inventory service.
func NewConsumer(service InventoryService, logger *slog.Logger) *Consumer {
	return &Consumer{
		service: service,
		logger:  logger,
	}
}

// HandleOrderCanceled releases every hold the canceled order still has.
// Orders without holds are fine: release is idempotent.
func (c *Consumer) HandleOrderCanceled(ctx context.Context, event *pkgkafka.Event) error {
	var data OrderCanceledData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal order.canceled data: %w", err)
	}
	if data.OrderID == "" {
		c.logger.WarnContext(ctx, "order.canceled event without order_id, skipping",
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	notes := "Order canceled"
	if data.Reason != nil && *data.Reason != "" {
		notes = fmt.Sprintf("Order canceled: %s", *data.Reason)
	}

	released, err := c.service.ReleaseOrderReservations(ctx, data.OrderID, &notes)
	if err != nil {
		return fmt.Errorf("release reservations for order %s: %w", data.OrderID, err)
	}

	c.logger.InfoContext(ctx, "released holds for canceled order",
		slog.String("order_id", data.OrderID),
		slog.Int("released", released),
	)

	return nil
}

// HandleOrderShipped ships and fulfills the order's reserved stock. A missing
// order is not retried: the shipment was recorded by another path or the order
// never reserved here.
func (c *Consumer) HandleOrderShipped(ctx context.Context, event *pkgkafka.Event) error {
	var data OrderShippedData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return fmt.Errorf("unmarshal order.shipped data: %w", err)
	}
	if data.OrderID == "" {
		c.logger.WarnContext(ctx, "order.shipped event without order_id, skipping",
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	if err := c.service.FulfillOrderShipment(ctx, data.OrderID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.logger.WarnContext(ctx, "no active holds for shipped order, skipping",
				slog.String("order_id", data.OrderID),
			)
			return nil
		}
		return fmt.Errorf("fulfill shipment for order %s: %w", data.OrderID, err)
	}

	c.logger.InfoContext(ctx, "fulfilled holds for shipped order",
		slog.String("order_id", data.OrderID),
	)

	return nil
}
