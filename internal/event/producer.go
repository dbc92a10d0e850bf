package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/garmenthq/inventory-service/internal/domain"
	pkgkafka "github.com/garmenthq/inventory-service/pkg/kafka"
)

// Kafka topics for inventory domain events.
var (
	TopicInventoryUpdated  = pkgkafka.Topic("inventory", "updated")
	TopicInventoryReserved = pkgkafka.Topic("inventory", "reserved")
	TopicInventoryReleased = pkgkafka.Topic("inventory", "released")
	TopicInventoryLowStock = pkgkafka.Topic("inventory", "low_stock")
)

// Aggregate type constant.
const AggregateTypeInventory = "inventory"

// Source identifier for events originating from this service.
const SourceInventoryService = "inventory-service"

// InventoryUpdatedData is the payload for an inventory.updated event.
type InventoryUpdatedData struct {
	VariantID  string `json:"variant_id"`
	LocationID string `json:"location_id"`
	OnHand     int    `json:"on_hand"`
	Reserved   int    `json:"reserved"`
	Available  int    `json:"available"`
}

// InventoryReservedData is the payload for an inventory.reserved event.
type InventoryReservedData struct {
	ReservationID string  `json:"reservation_id"`
	OrderID       string  `json:"order_id"`
	VariantID     string  `json:"variant_id"`
	LocationID    *string `json:"location_id,omitempty"`
	Quantity      int     `json:"quantity"`
}

// InventoryReleasedData is the payload for an inventory.released event.
type InventoryReleasedData struct {
	ReservationID string `json:"reservation_id"`
	OrderID       string `json:"order_id"`
	VariantID     string `json:"variant_id"`
	Quantity      int    `json:"quantity"`
}

// InventoryLowStockData is the payload for an inventory.low_stock event.
type InventoryLowStockData struct {
	AlertID                  string `json:"alert_id"`
	VariantID                string `json:"variant_id"`
	LocationID               string `json:"location_id"`
	Available                int    `json:"available"`
	ReorderPoint             int    `json:"reorder_point"`
	RecommendedOrderQuantity int    `json:"recommended_order_quantity"`
}

// Producer publishes inventory domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the inventory service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishInventoryUpdated publishes an inventory.updated event.
func (p *Producer) PublishInventoryUpdated(ctx context.Context, level *domain.InventoryLevel) error {
	data := InventoryUpdatedData{
		VariantID:  level.VariantID,
		LocationID: level.LocationID,
		OnHand:     level.QuantityOnHand,
		Reserved:   level.QuantityReserved,
		Available:  level.QuantityAvailable,
	}

	event, err := pkgkafka.NewEvent(TopicInventoryUpdated, level.VariantID, AggregateTypeInventory, SourceInventoryService, data)
	if err != nil {
		return fmt.Errorf("create inventory.updated event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicInventoryUpdated, event); err != nil {
		return fmt.Errorf("publish inventory.updated event: %w", err)
	}

	p.logger.DebugContext(ctx, "published inventory.updated event",
		slog.String("variant_id", level.VariantID),
		slog.String("location_id", level.LocationID),
	)

	return nil
}

// PublishInventoryReserved publishes an inventory.reserved event.
func (p *Producer) PublishInventoryReserved(ctx context.Context, res *domain.InventoryReservation) error {
	data := InventoryReservedData{
		ReservationID: res.ID,
		OrderID:       res.OrderID,
		VariantID:     res.VariantID,
		LocationID:    res.LocationID,
		Quantity:      res.QuantityReserved,
	}

	event, err := pkgkafka.NewEvent(TopicInventoryReserved, res.VariantID, AggregateTypeInventory, SourceInventoryService, data)
	if err != nil {
		return fmt.Errorf("create inventory.reserved event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicInventoryReserved, event); err != nil {
		return fmt.Errorf("publish inventory.reserved event: %w", err)
	}

	p.logger.DebugContext(ctx, "published inventory.reserved event",
		slog.String("reservation_id", res.ID),
		slog.String("order_id", res.OrderID),
	)

	return nil
}

// PublishInventoryReleased publishes an inventory.released event.
func (p *Producer) PublishInventoryReleased(ctx context.Context, res *domain.InventoryReservation) error {
	data := InventoryReleasedData{
		ReservationID: res.ID,
		OrderID:       res.OrderID,
		VariantID:     res.VariantID,
		Quantity:      res.Remaining(),
	}

	event, err := pkgkafka.NewEvent(TopicInventoryReleased, res.VariantID, AggregateTypeInventory, SourceInventoryService, data)
	if err != nil {
		return fmt.Errorf("create inventory.released event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicInventoryReleased, event); err != nil {
		return fmt.Errorf("publish inventory.released event: %w", err)
	}

	p.logger.DebugContext(ctx, "published inventory.released event",
		slog.String("reservation_id", res.ID),
		slog.String("order_id", res.OrderID),
	)

	return nil
}

// PublishLowStock publishes an inventory.low_stock event for a newly raised
// alert.
func (p *Producer) PublishLowStock(ctx context.Context, alert *domain.LowStockAlert) error {
	data := InventoryLowStockData{
		AlertID:                  alert.ID,
		VariantID:                alert.VariantID,
		LocationID:               alert.LocationID,
		Available:                alert.CurrentQuantity,
		ReorderPoint:             alert.ReorderPoint,
		RecommendedOrderQuantity: alert.RecommendedOrderQuantity,
	}

	event, err := pkgkafka.NewEvent(TopicInventoryLowStock, alert.VariantID, AggregateTypeInventory, SourceInventoryService, data)
	if err != nil {
		return fmt.Errorf("create inventory.low_stock event: %w", err)
	}

	if err := p.kafka.Publish(ctx, TopicInventoryLowStock, event); err != nil {
		return fmt.Errorf("publish inventory.low_stock event: %w", err)
	}

	p.logger.DebugContext(ctx, "published inventory.low_stock event",
		slog.String("alert_id", alert.ID),
		slog.String("variant_id", alert.VariantID),
	)

	return nil
}
