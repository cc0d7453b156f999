// Package event wires catalog domain events into the index sync service.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tthanhhau/shopsearch/internal/domain"
	"github.com/tthanhhau/shopsearch/internal/service"
	pkgkafka "github.com/tthanhhau/shopsearch/pkg/kafka"
	"github.com/tthanhhau/shopsearch/pkg/validator"
)

// Topics carrying product domain events consumed by the search service.
const (
	TopicProductCreated = "shop.product.created"
	TopicProductUpdated = "shop.product.updated"
	TopicProductDeleted = "shop.product.deleted"
)

// Topics lists every topic this consumer subscribes to.
func Topics() []string {
	return []string{TopicProductCreated, TopicProductUpdated, TopicProductDeleted}
}

// productEventData is the payload of created and updated events. It is
// the full catalog document; the sync service derives the computed
// fields before indexing.
type productEventData struct {
	Product domain.Product `json:"product" validate:"required"`
}

// productDeletedData is the payload of deleted events.
type productDeletedData struct {
	ID string `json:"id" validate:"required"`
}

// Consumer routes product events to the sync service.
type Consumer struct {
	sync   *service.SyncService
	logger *slog.Logger
}

// NewConsumer creates an event consumer over the sync service.
func NewConsumer(sync *service.SyncService, logger *slog.Logger) *Consumer {
	return &Consumer{
		sync:   sync,
		logger: logger,
	}
}

// Handle processes one event based on its type. Unknown event types are
// logged and committed so they cannot stall the partition.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	switch event.EventType {
	case TopicProductCreated, TopicProductUpdated:
		return c.handleProductUpsert(ctx, event)
	case TopicProductDeleted:
		return c.handleProductDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}
}

// handleProductUpsert indexes a created or updated product. An update
// that deactivates the product removes it from the index instead.
func (c *Consumer) handleProductUpsert(ctx context.Context, event *pkgkafka.Event) error {
	var data productEventData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal %s data: %w", event.EventType, err)
	}
	if err := validator.Validate(&data); err != nil {
		return fmt.Errorf("invalid %s payload: %w", event.EventType, err)
	}

	if !data.Product.IsActive {
		if err := c.sync.DeleteProduct(ctx, data.Product.ID); err != nil {
			return fmt.Errorf("remove deactivated product %s: %w", data.Product.ID, err)
		}
		c.logger.InfoContext(ctx, "removed deactivated product from index",
			slog.String("product_id", data.Product.ID),
		)
		return nil
	}

	if err := c.sync.IndexProduct(ctx, &data.Product); err != nil {
		return fmt.Errorf("index product from %s: %w", event.EventType, err)
	}

	c.logger.InfoContext(ctx, "indexed product from event",
		slog.String("event_type", event.EventType),
		slog.String("product_id", data.Product.ID),
	)
	return nil
}

// handleProductDeleted removes a deleted product from the index.
func (c *Consumer) handleProductDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data productDeletedData
	if err := event.UnmarshalData(&data); err != nil {
		return fmt.Errorf("unmarshal product.deleted data: %w", err)
	}
	if err := validator.Validate(&data); err != nil {
		return fmt.Errorf("invalid product.deleted payload: %w", err)
	}

	if err := c.sync.DeleteProduct(ctx, data.ID); err != nil {
		return fmt.Errorf("delete product from deleted event: %w", err)
	}

	c.logger.InfoContext(ctx, "deleted product from event",
		slog.String("product_id", data.ID),
	)
	return nil
}
