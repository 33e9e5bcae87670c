package basket

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/basket"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

// ActivityHandler turns committed basket events into an audit log and unit
// counters. Checkout counts and latency are recorded by BasketService itself
// because only it knows the outcome of failed attempts.
type ActivityHandler struct {
	logger  *zap.Logger
	metrics *telemetry.ShopMetrics
}

// NewActivityHandler creates a new ActivityHandler. metrics may be nil.
func NewActivityHandler(logger *zap.Logger, metrics *telemetry.ShopMetrics) *ActivityHandler {
	return &ActivityHandler{
		logger:  logger.Named("basket_activity"),
		metrics: metrics,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ActivityHandler) EventTypes() []string {
	return []string{
		basket.EventTypeItemAdded,
		basket.EventTypeItemRemoved,
		basket.EventTypeCheckedOut,
	}
}

// Handle processes one basket event
func (h *ActivityHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	log := logger.WithLogger(ctx, h.logger).With(
		zap.String("basket_id", event.AggregateID().String()),
		zap.String("event_id", event.EventID().String()),
	)

	switch e := event.(type) {
	case *basket.ItemAddedEvent:
		h.metrics.RecordItemsAdded(ctx, e.Quantity)
		fields := []zap.Field{
			zap.String("user_id", e.UserID.String()),
			zap.String("item_id", e.ItemID.String()),
			zap.Int("quantity", e.Quantity),
			zap.String("price", e.Price.String()),
			zap.String("total", e.Total.String()),
		}
		if e.ProductID != nil {
			fields = append(fields, zap.String("product_id", e.ProductID.String()))
		}
		log.Info("basket item added", fields...)

	case *basket.ItemRemovedEvent:
		h.metrics.RecordItemsRemoved(ctx, e.Quantity)
		log.Info("basket item removed",
			zap.String("user_id", e.UserID.String()),
			zap.String("item_id", e.ItemID.String()),
			zap.Int("quantity", e.Quantity),
			zap.Bool("line_deleted", e.LineDeleted),
			zap.String("total", e.Total.String()),
		)

	case *basket.CheckedOutEvent:
		log.Info("basket checked out",
			zap.String("user_id", e.UserID.String()),
			zap.String("total_price", e.TotalPrice.String()),
			zap.Int("item_count", e.ItemCount),
			zap.Int("lines", len(e.Lines)),
		)

	default:
		h.logger.Error("unexpected event type", zap.String("actual", event.EventType()))
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	return nil
}

var _ shared.EventHandler = (*ActivityHandler)(nil)
