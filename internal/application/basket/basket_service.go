package basket

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/storefront/backend/internal/domain/basket"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

const serviceName = "BasketService"

// Operation names used for retry metrics and logs
const (
	opResolve    = "basket.resolve"
	opAddItem    = "basket.add_item"
	opRemoveItem = "basket.remove_item"
	opUpdateItem = "basket.update_item"
	opCheckout   = "basket.checkout"
)

// BasketService runs the basket lifecycle: active basket resolution, line
// mutations and checkout. Every mutation runs inside one transaction scope
// and is retried on concurrency conflicts.
type BasketService struct {
	scope          TransactionScope
	baskets        basket.BasketRepository
	eventPublisher shared.EventPublisher
	metrics        *telemetry.ShopMetrics
	maxRetries     int
	retryBackoff   time.Duration
	resolving      singleflight.Group
}

// NewBasketService creates a new BasketService. baskets serves the read-only
// history queries outside of a transaction.
func NewBasketService(scope TransactionScope, baskets basket.BasketRepository, cfg config.BasketConfig) *BasketService {
	return &BasketService{
		scope:        scope,
		baskets:      baskets,
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBackoff: cfg.RetryBackoff,
	}
}

// SetEventPublisher sets the publisher used after each successful commit
func (s *BasketService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetShopMetrics sets the business metrics recorder
func (s *BasketService) SetShopMetrics(metrics *telemetry.ShopMetrics) {
	s.metrics = metrics
}

// GetOrCreateActiveBasket returns the user's open basket, creating it on first
// touch. Concurrent calls for the same user in this process share one
// database round trip.
func (s *BasketService) GetOrCreateActiveBasket(ctx context.Context, userID uuid.UUID) (resp *BasketResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "GetOrCreateActiveBasket",
		telemetry.WithAttribute("user.id", userID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	// The shared call must outlive any single caller giving up.
	detached := context.WithoutCancel(ctx)
	ch := s.resolving.DoChan(userID.String(), func() (any, error) {
		var out BasketResponse
		err := s.withRetry(detached, opResolve, func() error {
			return s.scope.Execute(detached, func(ctx context.Context, repos TransactionalRepositories) error {
				b, err := s.resolveActive(ctx, repos.BasketRepo(), userID, true)
				if err != nil {
					return err
				}
				out = ToBasketResponse(b)
				return nil
			})
		})
		return out, err
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		out := res.Val.(BasketResponse)
		return &out, nil
	}
}

// AddItem adds quantity units of a product to the user's open basket,
// creating the basket and the line as needed. An existing line keeps the
// price captured at its first add.
func (s *BasketService) AddItem(ctx context.Context, userID uuid.UUID, req AddItemRequest) (resp *BasketResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "AddItem",
		telemetry.WithAttribute("user.id", userID.String()),
		telemetry.WithAttribute("product.id", req.ProductID.String()),
		telemetry.WithAttribute("quantity", req.Quantity))
	defer func() { telemetry.EndSpan(span, err) }()

	if req.Quantity <= 0 {
		return nil, shared.ErrValidation.WithMessage("Quantity must be greater than zero").
			WithDetails(map[string]any{"quantity": req.Quantity})
	}

	var (
		out    BasketResponse
		events []shared.DomainEvent
	)
	err = s.withRetry(ctx, opAddItem, func() error {
		return s.scope.Execute(ctx, func(ctx context.Context, repos TransactionalRepositories) error {
			baskets := repos.BasketRepo()
			b, err := s.resolveActive(ctx, baskets, userID, true)
			if err != nil {
				return err
			}

			product, err := repos.ProductRepo().FindByID(ctx, req.ProductID)
			if err != nil {
				return err
			}

			item, _, err := b.AddItem(product, req.Quantity)
			if err != nil {
				return err
			}
			if err := baskets.SaveItem(ctx, item); err != nil {
				return err
			}
			if err := baskets.UpdateTotals(ctx, b); err != nil {
				return err
			}

			out = ToBasketResponse(b)
			events = b.GetDomainEvents()
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	return &out, nil
}

// RemoveItem takes quantity units off a line of the user's open basket. The
// line is deleted once it reaches zero.
func (s *BasketService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (resp *BasketResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "RemoveItem",
		telemetry.WithAttribute("user.id", userID.String()),
		telemetry.WithAttribute("item.id", itemID.String()),
		telemetry.WithAttribute("quantity", quantity))
	defer func() { telemetry.EndSpan(span, err) }()

	if quantity <= 0 {
		return nil, shared.ErrValidation.WithMessage("Quantity must be greater than zero").
			WithDetails(map[string]any{"quantity": quantity})
	}

	return s.mutateLine(ctx, opRemoveItem, userID, func(b *basket.Basket) (*basket.BasketItem, bool, error) {
		return b.RemoveItem(itemID, quantity)
	})
}

// UpdateItemQuantity sets a line of the user's open basket to an absolute
// quantity. Zero deletes the line.
func (s *BasketService) UpdateItemQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (resp *BasketResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "UpdateItemQuantity",
		telemetry.WithAttribute("user.id", userID.String()),
		telemetry.WithAttribute("item.id", itemID.String()),
		telemetry.WithAttribute("quantity", quantity))
	defer func() { telemetry.EndSpan(span, err) }()

	if quantity < 0 {
		return nil, shared.ErrValidation.WithMessage("Quantity cannot be negative").
			WithDetails(map[string]any{"quantity": quantity})
	}

	return s.mutateLine(ctx, opUpdateItem, userID, func(b *basket.Basket) (*basket.BasketItem, bool, error) {
		return b.UpdateItemQuantity(itemID, quantity)
	})
}

// mutateLine locks the open basket, applies change and persists the touched
// line together with the new total.
func (s *BasketService) mutateLine(
	ctx context.Context,
	op string,
	userID uuid.UUID,
	change func(b *basket.Basket) (*basket.BasketItem, bool, error),
) (*BasketResponse, error) {
	var (
		out    BasketResponse
		events []shared.DomainEvent
	)
	err := s.withRetry(ctx, op, func() error {
		return s.scope.Execute(ctx, func(ctx context.Context, repos TransactionalRepositories) error {
			baskets := repos.BasketRepo()
			b, err := s.resolveActive(ctx, baskets, userID, false)
			if err != nil {
				return err
			}

			item, deleted, err := change(b)
			if err != nil {
				return err
			}
			if len(b.GetDomainEvents()) == 0 {
				// quantity unchanged
				out = ToBasketResponse(b)
				return nil
			}

			if deleted {
				err = baskets.DeleteItem(ctx, item.ID)
			} else {
				err = baskets.SaveItem(ctx, item)
			}
			if err != nil {
				return err
			}
			if err := baskets.UpdateTotals(ctx, b); err != nil {
				return err
			}

			out = ToBasketResponse(b)
			events = b.GetDomainEvents()
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	return &out, nil
}

// Checkout validates stock for every line, decrements it and closes the
// basket, all in one transaction. Nothing changes unless every line passes.
func (s *BasketService) Checkout(ctx context.Context, userID uuid.UUID) (resp *BasketResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, serviceName, "Checkout",
		telemetry.WithAttribute("user.id", userID.String()))
	defer func() { telemetry.EndSpan(span, err) }()

	start := time.Now()
	var (
		out    BasketResponse
		events []shared.DomainEvent
		total  decimal.Decimal
	)
	err = s.withRetry(ctx, opCheckout, func() error {
		return s.scope.Execute(ctx, func(ctx context.Context, repos TransactionalRepositories) error {
			baskets := repos.BasketRepo()
			b, err := baskets.FindActiveByUser(ctx, userID, true)
			if err != nil {
				return err
			}
			if len(b.Items) == 0 {
				return shared.ErrValidation.WithMessage("Cannot checkout an empty basket").
					WithDetails(map[string]any{"reason": basket.ReasonEmptyBasket, "basket_id": b.ID})
			}

			lines, err := checkoutLines(b)
			if err != nil {
				return err
			}
			if err := reserveStock(ctx, repos.ProductRepo(), lines); err != nil {
				return err
			}

			if err := b.Checkout(); err != nil {
				return err
			}
			closed, err := baskets.Close(ctx, b.ID, *b.CheckedOutAt)
			if err != nil {
				return err
			}
			if !closed {
				return shared.ErrConcurrencyConflict.WithMessage("Basket was checked out concurrently").
					WithDetails(map[string]any{"basket_id": b.ID})
			}

			out = ToBasketResponse(b)
			events = b.GetDomainEvents()
			total = b.TotalPrice
			return nil
		})
	})
	s.metrics.RecordCheckout(ctx, checkoutOutcome(err), total, time.Since(start))
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	return &out, nil
}

// stockLine is the quantity a checkout needs from one product
type stockLine struct {
	productID uuid.UUID
	itemID    uuid.UUID
	quantity  int
}

// checkoutLines returns one entry per product in ascending id order, which is
// the order product rows are locked in.
func checkoutLines(b *basket.Basket) ([]stockLine, error) {
	lines := make([]stockLine, 0, len(b.Items))
	for _, item := range b.Items {
		if item.ProductID == nil {
			return nil, shared.ErrNotFound.WithMessage("Product for basket item no longer exists").
				WithDetails(map[string]any{"item_id": item.ID, "basket_id": b.ID})
		}
		lines = append(lines, stockLine{productID: *item.ProductID, itemID: item.ID, quantity: item.Quantity})
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].productID.String() < lines[j].productID.String()
	})
	return lines, nil
}

// reserveStock locks the products, validates every line and only then
// decrements. The conditional decrement is a second guard behind the locks.
func reserveStock(ctx context.Context, products catalog.ProductRepository, lines []stockLine) error {
	ids := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		ids[i] = line.productID
	}

	locked, err := products.FindByIDsForUpdate(ctx, ids)
	if err != nil {
		return err
	}
	byID := make(map[uuid.UUID]catalog.Product, len(locked))
	for _, p := range locked {
		byID[p.ID] = p
	}

	for _, line := range lines {
		product, ok := byID[line.productID]
		if !ok {
			return shared.ErrNotFound.WithMessage("Product for basket item no longer exists").
				WithDetails(map[string]any{"item_id": line.itemID, "product_id": line.productID})
		}
		if !product.HasStock(line.quantity) {
			return insufficientStock(line, product.Stock, product.Name)
		}
	}

	for _, line := range lines {
		ok, err := products.DecrementStock(ctx, line.productID, line.quantity)
		if err != nil {
			return err
		}
		if !ok {
			return insufficientStock(line, byID[line.productID].Stock, byID[line.productID].Name)
		}
	}
	return nil
}

func insufficientStock(line stockLine, available int, name string) error {
	return shared.ErrInsufficientStock.
		WithMessage(fmt.Sprintf("Insufficient stock for product %q", name)).
		WithDetails(map[string]any{
			"product_id": line.productID,
			"requested":  line.quantity,
			"available":  available,
		})
}

func checkoutOutcome(err error) string {
	var domainErr *shared.DomainError
	switch {
	case err == nil:
		return telemetry.OutcomeSuccess
	case errors.Is(err, shared.ErrConcurrencyConflict):
		return telemetry.OutcomeConflict
	case errors.As(err, &domainErr):
		return telemetry.OutcomeRejected
	default:
		return telemetry.OutcomeError
	}
}

// GetBasket returns one of the user's baskets, open or closed
func (s *BasketService) GetBasket(ctx context.Context, userID, basketID uuid.UUID) (*BasketResponse, error) {
	b, err := s.baskets.FindByIDForUser(ctx, userID, basketID)
	if err != nil {
		return nil, err
	}
	resp := ToBasketResponse(b)
	return &resp, nil
}

// ListBaskets returns the user's basket history, newest first
func (s *BasketService) ListBaskets(ctx context.Context, userID uuid.UUID, filter BasketListFilter) (*shared.Paginated[BasketResponse], error) {
	f := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 20
	}

	baskets, err := s.baskets.FindAllForUser(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.baskets.CountForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	page := shared.NewPaginated(ToBasketResponses(baskets), total, f.Page, f.PageSize)
	return &page, nil
}

// resolveActive loads the open basket with its row locked. With create set a
// missing basket is inserted; losing that race surfaces as a conflict and the
// retry finds the winner's row.
func (s *BasketService) resolveActive(ctx context.Context, baskets basket.BasketRepository, userID uuid.UUID, create bool) (*basket.Basket, error) {
	b, err := baskets.FindActiveByUser(ctx, userID, true)
	if err == nil {
		return b, nil
	}
	if !create || !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	b = basket.NewBasket(userID)
	if err := baskets.Create(ctx, b); err != nil {
		return nil, err
	}
	logger.L(ctx).Debug("created active basket",
		zap.String("basket_id", b.ID.String()),
		zap.String("user_id", userID.String()),
	)
	return b, nil
}

// withRetry reruns fn while it fails with a concurrency conflict, up to
// maxRetries extra attempts with linear backoff.
func (s *BasketService) withRetry(ctx context.Context, op string, fn func() error) error {
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !errors.Is(err, shared.ErrConcurrencyConflict) {
			return err
		}
		if attempt >= s.maxRetries {
			s.metrics.RecordConflict(ctx, op)
			logger.L(ctx).Warn("giving up after concurrency conflicts",
				zap.String("operation", op),
				zap.Int("attempts", attempt+1),
				zap.Error(err),
			)
			return err
		}

		s.metrics.RecordRetry(ctx, op)
		logger.L(ctx).Debug("retrying after concurrency conflict",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
		)

		timer := time.NewTimer(time.Duration(attempt+1) * s.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// publish hands committed events to the publisher. Failures are logged only;
// the database state is already final.
func (s *BasketService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		logger.L(ctx).Error("failed to publish basket events", zap.Error(err))
	}
}
