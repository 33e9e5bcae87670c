package telemetry

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Checkout outcomes used as the outcome attribute.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// ShopMetrics records basket and checkout activity.
type ShopMetrics struct {
	logger *zap.Logger

	itemsAdded       *Counter
	itemsRemoved     *Counter
	checkouts        *Counter
	checkoutAmount   *FloatCounter
	checkoutDuration *Histogram
	retries          *Counter
	conflicts        *Counter
}

// NewShopMetrics registers the storefront instruments on meter.
func NewShopMetrics(meter metric.Meter, logger *zap.Logger) (*ShopMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &ShopMetrics{logger: logger}
	var err error

	if m.itemsAdded, err = NewCounter(meter, "shop_basket_items_added_total",
		"Units added to baskets", "{units}"); err != nil {
		return nil, err
	}
	if m.itemsRemoved, err = NewCounter(meter, "shop_basket_items_removed_total",
		"Units removed from baskets", "{units}"); err != nil {
		return nil, err
	}
	if m.checkouts, err = NewCounter(meter, "shop_checkouts_total",
		"Checkout attempts by outcome", "{checkouts}"); err != nil {
		return nil, err
	}
	if m.checkoutAmount, err = NewFloatCounter(meter, "shop_checkout_amount_total",
		"Sum of checked out basket totals", "{currency}"); err != nil {
		return nil, err
	}
	if m.checkoutDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "shop_checkout_duration_seconds",
		Description: "Checkout transaction latency",
		Unit:        "s",
		Boundaries:  HTTPDurationBuckets,
	}); err != nil {
		return nil, err
	}
	if m.retries, err = NewCounter(meter, "shop_concurrency_retries_total",
		"Transactions retried after a concurrency conflict", "{retries}"); err != nil {
		return nil, err
	}
	if m.conflicts, err = NewCounter(meter, "shop_concurrency_conflicts_total",
		"Operations that gave up after exhausting retries", "{conflicts}"); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordItemsAdded counts units put into a basket.
func (m *ShopMetrics) RecordItemsAdded(ctx context.Context, quantity int) {
	if m == nil {
		return
	}
	m.itemsAdded.Add(ctx, int64(quantity))
}

// RecordItemsRemoved counts units taken out of a basket.
func (m *ShopMetrics) RecordItemsRemoved(ctx context.Context, quantity int) {
	if m == nil {
		return
	}
	m.itemsRemoved.Add(ctx, int64(quantity))
}

// RecordCheckout records one checkout attempt. The amount only counts on success.
func (m *ShopMetrics) RecordCheckout(ctx context.Context, outcome string, amount decimal.Decimal, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.checkouts.Inc(ctx, AttrOutcome.String(outcome))
	m.checkoutDuration.RecordDuration(ctx, elapsed, AttrOutcome.String(outcome))
	if outcome == OutcomeSuccess {
		m.checkoutAmount.Add(ctx, amount.InexactFloat64())
	}
}

// RecordRetry counts a retried transaction for operation.
func (m *ShopMetrics) RecordRetry(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.retries.Inc(ctx, AttrOperation.String(operation))
}

// RecordConflict counts an operation that surfaced a concurrency conflict.
func (m *ShopMetrics) RecordConflict(ctx context.Context, operation string) {
	if m == nil {
		return
	}
	m.conflicts.Inc(ctx, AttrOperation.String(operation))
	m.logger.Warn("Concurrency conflict surfaced to client", zap.String("operation", operation))
}
