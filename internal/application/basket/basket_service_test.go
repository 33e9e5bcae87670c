package basket

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/basket"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/config"
)

type serviceFixture struct {
	service   *BasketService
	scope     *fakeScope
	baskets   *MockBasketRepository
	products  *MockProductRepository
	publisher *MockEventPublisher
}

func newServiceFixture(maxRetries int) *serviceFixture {
	baskets := new(MockBasketRepository)
	products := new(MockProductRepository)
	scope := &fakeScope{baskets: baskets, products: products}
	publisher := &MockEventPublisher{}

	service := NewBasketService(scope, baskets, config.BasketConfig{
		MaxRetries:   maxRetries,
		RetryBackoff: time.Millisecond,
	})
	service.SetEventPublisher(publisher)

	return &serviceFixture{
		service:   service,
		scope:     scope,
		baskets:   baskets,
		products:  products,
		publisher: publisher,
	}
}

func newTestProduct(t *testing.T, name, price string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, decimal.RequireFromString(price), "", stock)
	require.NoError(t, err)
	p.ClearDomainEvents()
	return p
}

// openBasketWith returns a stored-looking open basket holding quantity units of each product
func openBasketWith(t *testing.T, userID uuid.UUID, lines map[*catalog.Product]int) *basket.Basket {
	t.Helper()
	b := basket.NewBasket(userID)
	for product, quantity := range lines {
		_, _, err := b.AddItem(product, quantity)
		require.NoError(t, err)
	}
	b.ClearDomainEvents()
	return b
}

func requireDomainCode(t *testing.T, err error, target *shared.DomainError) *shared.DomainError {
	t.Helper()
	require.ErrorIs(t, err, target)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	return domainErr
}

func TestBasketService_AddItem(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("rejects non-positive quantity before touching storage", func(t *testing.T) {
		f := newServiceFixture(3)

		_, err := f.service.AddItem(ctx, userID, AddItemRequest{ProductID: uuid.New(), Quantity: 0})

		requireDomainCode(t, err, shared.ErrValidation)
		assert.Equal(t, int32(0), f.scope.calls.Load())
	})

	t.Run("first add creates the basket and a line at the current price", func(t *testing.T) {
		f := newServiceFixture(3)
		product := newTestProduct(t, "Mug", "12.50", 10)

		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(nil, shared.ErrNotFound).Once()
		f.baskets.On("Create", mock.Anything, mock.AnythingOfType("*basket.Basket")).Return(nil).Once()
		f.products.On("FindByID", mock.Anything, product.ID).Return(product, nil).Once()
		f.baskets.On("SaveItem", mock.Anything, mock.MatchedBy(func(item *basket.BasketItem) bool {
			return *item.ProductID == product.ID && item.Quantity == 2 && item.Price.Equal(product.Price)
		})).Return(nil).Once()
		f.baskets.On("UpdateTotals", mock.Anything, mock.AnythingOfType("*basket.Basket")).Return(nil).Once()

		resp, err := f.service.AddItem(ctx, userID, AddItemRequest{ProductID: product.ID, Quantity: 2})

		require.NoError(t, err)
		assert.Equal(t, StatusOpen, resp.Status)
		assert.True(t, decimal.RequireFromString("25").Equal(resp.TotalPrice))
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "Mug", resp.Items[0].ProductName)
		assert.Len(t, f.publisher.GetEventsByType(basket.EventTypeItemAdded), 1)
		f.baskets.AssertExpectations(t)
		f.products.AssertExpectations(t)
	})

	t.Run("second add keeps the price snapshot", func(t *testing.T) {
		f := newServiceFixture(3)
		product := newTestProduct(t, "Mug", "10.00", 10)
		existing := openBasketWith(t, userID, map[*catalog.Product]int{product: 1})
		require.NoError(t, product.SetPrice(decimal.RequireFromString("15.00")))

		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(existing, nil).Once()
		f.products.On("FindByID", mock.Anything, product.ID).Return(product, nil).Once()
		f.baskets.On("SaveItem", mock.Anything, mock.AnythingOfType("*basket.BasketItem")).Return(nil).Once()
		f.baskets.On("UpdateTotals", mock.Anything, existing).Return(nil).Once()

		resp, err := f.service.AddItem(ctx, userID, AddItemRequest{ProductID: product.ID, Quantity: 2})

		require.NoError(t, err)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, 3, resp.Items[0].Quantity)
		assert.True(t, decimal.RequireFromString("10").Equal(resp.Items[0].Price))
		assert.True(t, decimal.RequireFromString("30").Equal(resp.TotalPrice))
		f.baskets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("unknown product aborts without writes", func(t *testing.T) {
		f := newServiceFixture(3)
		existing := basket.NewBasket(userID)
		productID := uuid.New()

		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(existing, nil).Once()
		f.products.On("FindByID", mock.Anything, productID).Return(nil, shared.ErrNotFound).Once()

		_, err := f.service.AddItem(ctx, userID, AddItemRequest{ProductID: productID, Quantity: 1})

		assert.ErrorIs(t, err, shared.ErrNotFound)
		f.baskets.AssertNotCalled(t, "SaveItem", mock.Anything, mock.Anything)
		f.baskets.AssertNotCalled(t, "UpdateTotals", mock.Anything, mock.Anything)
		assert.Zero(t, f.publisher.Count())
	})

	t.Run("losing the basket creation race retries and uses the winner", func(t *testing.T) {
		f := newServiceFixture(3)
		product := newTestProduct(t, "Mug", "5.00", 10)
		winner := basket.NewBasket(userID)

		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(nil, shared.ErrNotFound).Once()
		f.baskets.On("Create", mock.Anything, mock.AnythingOfType("*basket.Basket")).Return(shared.ErrConcurrencyConflict).Once()
		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(winner, nil).Once()
		f.products.On("FindByID", mock.Anything, product.ID).Return(product, nil).Once()
		f.baskets.On("SaveItem", mock.Anything, mock.AnythingOfType("*basket.BasketItem")).Return(nil).Once()
		f.baskets.On("UpdateTotals", mock.Anything, winner).Return(nil).Once()

		resp, err := f.service.AddItem(ctx, userID, AddItemRequest{ProductID: product.ID, Quantity: 1})

		require.NoError(t, err)
		assert.Equal(t, winner.ID, resp.ID)
		assert.Equal(t, int32(2), f.scope.calls.Load())
		f.baskets.AssertExpectations(t)
	})
}

func TestBasketService_RetryBudget(t *testing.T) {
	ctx := context.Background()

	t.Run("gives up after max retries", func(t *testing.T) {
		f := newServiceFixture(2)
		f.scope.before = func(context.Context) error { return shared.ErrConcurrencyConflict }

		_, err := f.service.AddItem(ctx, uuid.New(), AddItemRequest{ProductID: uuid.New(), Quantity: 1})

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Equal(t, int32(3), f.scope.calls.Load())
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		f := newServiceFixture(5)
		f.scope.before = func(context.Context) error { return errors.New("connection reset") }

		_, err := f.service.Checkout(ctx, uuid.New())

		assert.EqualError(t, err, "connection reset")
		assert.Equal(t, int32(1), f.scope.calls.Load())
	})

	t.Run("cancelled caller stops retrying", func(t *testing.T) {
		f := newServiceFixture(10)
		f.service.retryBackoff = time.Hour
		cctx, cancel := context.WithCancel(ctx)
		f.scope.before = func(context.Context) error {
			cancel()
			return shared.ErrConcurrencyConflict
		}

		_, err := f.service.Checkout(cctx, uuid.New())

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, int32(1), f.scope.calls.Load())
	})
}

func TestBasketService_RemoveItem(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("partial removal lowers quantity and total", func(t *testing.T) {
		f := newServiceFixture(3)
		product := newTestProduct(t, "Pen", "2.50", 10)
		existing := openBasketWith(t, userID, map[*catalog.Product]int{product: 4})
		itemID := existing.Items[0].ID

		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(existing, nil).Once()
		f.baskets.On("SaveItem", mock.Anything, mock.MatchedBy(func(item *basket.BasketItem) bool {
			return item.ID == itemID && item.Quantity == 1
		})).Return(nil).Once()
		f.baskets.On("UpdateTotals", mock.Anything, existing).Return(nil).Once()

		resp, err := f.service.RemoveItem(ctx, userID, itemID, 3)

		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("2.5").Equal(resp.TotalPrice))
		assert.Len(t, f.publisher.GetEventsByType(basket.EventTypeItemRemoved), 1)
		f.baskets.AssertExpectations(t)
	})

	t.Run("removing every unit deletes the line", func(t *testing.T) {
		f := newServiceFixture(3)
		product := newTestProduct(t, "Pen", "2.50", 10)
		existing := openBasketWith(t, userID, map[*catalog.Product]int{product: 2})
		itemID := existing.Items[0].ID

		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(existing, nil).Once()
		f.baskets.On("DeleteItem", mock.Anything, itemID).Return(nil).Once()
		f.baskets.On("UpdateTotals", mock.Anything, existing).Return(nil).Once()

		resp, err := f.service.RemoveItem(ctx, userID, itemID, 2)

		require.NoError(t, err)
		assert.Empty(t, resp.Items)
		assert.True(t, resp.TotalPrice.IsZero())
		f.baskets.AssertNotCalled(t, "SaveItem", mock.Anything, mock.Anything)
	})

	t.Run("removing more than held leaves the line untouched", func(t *testing.T) {
		f := newServiceFixture(3)
		product := newTestProduct(t, "Pen", "2.50", 10)
		existing := openBasketWith(t, userID, map[*catalog.Product]int{product: 1})
		itemID := existing.Items[0].ID

		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(existing, nil).Once()

		_, err := f.service.RemoveItem(ctx, userID, itemID, 2)

		domainErr := requireDomainCode(t, err, shared.ErrInsufficientQuantity)
		assert.Equal(t, 2, domainErr.Details["requested"])
		assert.Equal(t, 1, domainErr.Details["available"])
		assert.Equal(t, 1, existing.Items[0].Quantity)
		f.baskets.AssertNotCalled(t, "SaveItem", mock.Anything, mock.Anything)
		f.baskets.AssertNotCalled(t, "DeleteItem", mock.Anything, mock.Anything)
		f.baskets.AssertNotCalled(t, "UpdateTotals", mock.Anything, mock.Anything)
	})

	t.Run("no open basket is not found and nothing is created", func(t *testing.T) {
		f := newServiceFixture(3)
		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(nil, shared.ErrNotFound).Once()

		_, err := f.service.RemoveItem(ctx, userID, uuid.New(), 1)

		assert.ErrorIs(t, err, shared.ErrNotFound)
		f.baskets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("item of another basket is not found", func(t *testing.T) {
		f := newServiceFixture(3)
		existing := openBasketWith(t, userID, map[*catalog.Product]int{newTestProduct(t, "Pen", "1", 5): 1})
		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(existing, nil).Once()

		_, err := f.service.RemoveItem(ctx, userID, uuid.New(), 1)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestBasketService_UpdateItemQuantity(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("raising quantity adds snapshot price times delta", func(t *testing.T) {
		f := newServiceFixture(3)
		product := newTestProduct(t, "Cup", "4.00", 10)
		existing := openBasketWith(t, userID, map[*catalog.Product]int{product: 1})
		itemID := existing.Items[0].ID

		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(existing, nil).Once()
		f.baskets.On("SaveItem", mock.Anything, mock.AnythingOfType("*basket.BasketItem")).Return(nil).Once()
		f.baskets.On("UpdateTotals", mock.Anything, existing).Return(nil).Once()

		resp, err := f.service.UpdateItemQuantity(ctx, userID, itemID, 5)

		require.NoError(t, err)
		assert.Equal(t, 5, resp.Items[0].Quantity)
		assert.True(t, decimal.RequireFromString("20").Equal(resp.TotalPrice))
	})

	t.Run("zero deletes the line", func(t *testing.T) {
		f := newServiceFixture(3)
		product := newTestProduct(t, "Cup", "4.00", 10)
		existing := openBasketWith(t, userID, map[*catalog.Product]int{product: 3})
		itemID := existing.Items[0].ID

		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(existing, nil).Once()
		f.baskets.On("DeleteItem", mock.Anything, itemID).Return(nil).Once()
		f.baskets.On("UpdateTotals", mock.Anything, existing).Return(nil).Once()

		resp, err := f.service.UpdateItemQuantity(ctx, userID, itemID, 0)

		require.NoError(t, err)
		assert.Empty(t, resp.Items)
		assert.True(t, resp.TotalPrice.IsZero())
	})

	t.Run("unchanged quantity writes nothing", func(t *testing.T) {
		f := newServiceFixture(3)
		product := newTestProduct(t, "Cup", "4.00", 10)
		existing := openBasketWith(t, userID, map[*catalog.Product]int{product: 3})

		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(existing, nil).Once()

		_, err := f.service.UpdateItemQuantity(ctx, userID, existing.Items[0].ID, 3)

		require.NoError(t, err)
		f.baskets.AssertNotCalled(t, "UpdateTotals", mock.Anything, mock.Anything)
		assert.Zero(t, f.publisher.Count())
	})

	t.Run("negative quantity is rejected", func(t *testing.T) {
		f := newServiceFixture(3)

		_, err := f.service.UpdateItemQuantity(ctx, userID, uuid.New(), -1)

		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestBasketService_Checkout(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("empty basket is rejected before locking products", func(t *testing.T) {
		f := newServiceFixture(3)
		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(basket.NewBasket(userID), nil).Once()

		_, err := f.service.Checkout(ctx, userID)

		domainErr := requireDomainCode(t, err, shared.ErrValidation)
		assert.Equal(t, basket.ReasonEmptyBasket, domainErr.Details["reason"])
		f.products.AssertNotCalled(t, "FindByIDsForUpdate", mock.Anything, mock.Anything)
	})

	t.Run("insufficient stock mutates nothing", func(t *testing.T) {
		f := newServiceFixture(3)
		product := newTestProduct(t, "Lamp", "30.00", 2)
		existing := openBasketWith(t, userID, map[*catalog.Product]int{product: 3})

		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(existing, nil).Once()
		f.products.On("FindByIDsForUpdate", mock.Anything, []uuid.UUID{product.ID}).
			Return([]catalog.Product{*product}, nil).Once()

		_, err := f.service.Checkout(ctx, userID)

		domainErr := requireDomainCode(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, product.ID, domainErr.Details["product_id"])
		assert.Equal(t, 3, domainErr.Details["requested"])
		assert.Equal(t, 2, domainErr.Details["available"])
		assert.True(t, existing.Active)
		f.products.AssertNotCalled(t, "DecrementStock", mock.Anything, mock.Anything, mock.Anything)
		f.baskets.AssertNotCalled(t, "Close", mock.Anything, mock.Anything, mock.Anything)
		assert.Zero(t, f.publisher.Count())
	})

	t.Run("success decrements every product in id order and closes the basket", func(t *testing.T) {
		f := newServiceFixture(3)
		a := newTestProduct(t, "A", "1.00", 10)
		b := newTestProduct(t, "B", "2.00", 10)
		existing := openBasketWith(t, userID, map[*catalog.Product]int{a: 3, b: 1})

		first, second := a, b
		if b.ID.String() < a.ID.String() {
			first, second = b, a
		}

		var order []uuid.UUID
		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(existing, nil).Once()
		f.products.On("FindByIDsForUpdate", mock.Anything, []uuid.UUID{first.ID, second.ID}).
			Return([]catalog.Product{*first, *second}, nil).Once()
		f.products.On("DecrementStock", mock.Anything, mock.AnythingOfType("uuid.UUID"), mock.AnythingOfType("int")).
			Run(func(args mock.Arguments) { order = append(order, args.Get(1).(uuid.UUID)) }).
			Return(true, nil).Twice()
		f.baskets.On("Close", mock.Anything, existing.ID, mock.AnythingOfType("time.Time")).Return(true, nil).Once()

		resp, err := f.service.Checkout(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, StatusClosed, resp.Status)
		assert.False(t, resp.Active)
		assert.NotNil(t, resp.CheckedOutAt)
		assert.True(t, decimal.RequireFromString("5").Equal(resp.TotalPrice))
		assert.Equal(t, []uuid.UUID{first.ID, second.ID}, order)
		f.products.AssertCalled(t, "DecrementStock", mock.Anything, a.ID, 3)
		f.products.AssertCalled(t, "DecrementStock", mock.Anything, b.ID, 1)

		events := f.publisher.GetEventsByType(basket.EventTypeCheckedOut)
		require.Len(t, events, 1)
		assert.Equal(t, 4, events[0].(*basket.CheckedOutEvent).ItemCount)
	})

	t.Run("deleted product is reported by item", func(t *testing.T) {
		f := newServiceFixture(3)
		product := newTestProduct(t, "Gone", "1.00", 10)
		existing := openBasketWith(t, userID, map[*catalog.Product]int{product: 1})
		existing.Items[0].ProductID = nil

		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(existing, nil).Once()

		_, err := f.service.Checkout(ctx, userID)

		domainErr := requireDomainCode(t, err, shared.ErrNotFound)
		assert.Equal(t, existing.Items[0].ID, domainErr.Details["item_id"])
	})

	t.Run("guarded decrement miss is insufficient stock", func(t *testing.T) {
		f := newServiceFixture(3)
		product := newTestProduct(t, "Lamp", "30.00", 5)
		existing := openBasketWith(t, userID, map[*catalog.Product]int{product: 1})

		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(existing, nil).Once()
		f.products.On("FindByIDsForUpdate", mock.Anything, []uuid.UUID{product.ID}).
			Return([]catalog.Product{*product}, nil).Once()
		f.products.On("DecrementStock", mock.Anything, product.ID, 1).Return(false, nil).Once()

		_, err := f.service.Checkout(ctx, userID)

		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		f.baskets.AssertNotCalled(t, "Close", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("basket closed concurrently is a conflict", func(t *testing.T) {
		f := newServiceFixture(0)
		product := newTestProduct(t, "Lamp", "30.00", 5)
		existing := openBasketWith(t, userID, map[*catalog.Product]int{product: 1})

		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(existing, nil).Once()
		f.products.On("FindByIDsForUpdate", mock.Anything, []uuid.UUID{product.ID}).
			Return([]catalog.Product{*product}, nil).Once()
		f.products.On("DecrementStock", mock.Anything, product.ID, 1).Return(true, nil).Once()
		f.baskets.On("Close", mock.Anything, existing.ID, mock.AnythingOfType("time.Time")).Return(false, nil).Once()

		_, err := f.service.Checkout(ctx, userID)

		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.Zero(t, f.publisher.Count())
	})
}

func TestBasketService_GetOrCreateActiveBasket(t *testing.T) {
	userID := uuid.New()

	t.Run("concurrent callers share one resolution", func(t *testing.T) {
		f := newServiceFixture(3)
		existing := basket.NewBasket(userID)
		release := make(chan struct{})
		f.scope.before = func(context.Context) error {
			<-release
			return nil
		}
		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(existing, nil)

		const callers = 8
		var wg sync.WaitGroup
		ids := make([]uuid.UUID, callers)
		errs := make([]error, callers)
		for i := range callers {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				resp, err := f.service.GetOrCreateActiveBasket(context.Background(), userID)
				errs[i] = err
				if resp != nil {
					ids[i] = resp.ID
				}
			}(i)
		}
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		for i := range callers {
			require.NoError(t, errs[i])
			assert.Equal(t, existing.ID, ids[i])
		}
		assert.Equal(t, int32(1), f.scope.calls.Load())
	})

	t.Run("caller cancellation does not abort the shared work", func(t *testing.T) {
		f := newServiceFixture(3)
		release := make(chan struct{})
		done := make(chan struct{})
		f.scope.before = func(ctx context.Context) error {
			<-release
			assert.NoError(t, ctx.Err())
			return nil
		}
		f.baskets.On("FindActiveByUser", mock.Anything, userID, true).Return(nil, shared.ErrNotFound).Once()
		f.baskets.On("Create", mock.Anything, mock.AnythingOfType("*basket.Basket")).
			Run(func(mock.Arguments) { close(done) }).
			Return(nil).Once()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.service.GetOrCreateActiveBasket(ctx, userID)
		assert.ErrorIs(t, err, context.Canceled)

		close(release)
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("shared resolution did not complete")
		}
	})
}

func TestBasketService_Reads(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("get basket of another user is not found", func(t *testing.T) {
		f := newServiceFixture(3)
		basketID := uuid.New()
		f.baskets.On("FindByIDForUser", mock.Anything, userID, basketID).Return(nil, shared.ErrNotFound).Once()

		_, err := f.service.GetBasket(ctx, userID, basketID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("list applies default paging", func(t *testing.T) {
		f := newServiceFixture(3)
		closed := basket.NewBasket(userID)
		closed.Active = false

		f.baskets.On("FindAllForUser", mock.Anything, userID, mock.MatchedBy(func(filter shared.Filter) bool {
			return filter.Page == 1 && filter.PageSize == 20
		})).Return([]basket.Basket{*closed}, nil).Once()
		f.baskets.On("CountForUser", mock.Anything, userID).Return(int64(1), nil).Once()

		page, err := f.service.ListBaskets(ctx, userID, BasketListFilter{})

		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Total)
		require.Len(t, page.Items, 1)
		assert.Equal(t, StatusClosed, page.Items[0].Status)
	})
}
