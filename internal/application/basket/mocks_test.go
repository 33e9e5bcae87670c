package basket

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/storefront/backend/internal/domain/basket"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

func (m *MockEventPublisher) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// MockBasketRepository is a mock implementation of basket.BasketRepository
type MockBasketRepository struct {
	mock.Mock
}

func (m *MockBasketRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID, forUpdate bool) (*basket.Basket, error) {
	args := m.Called(ctx, userID, forUpdate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*basket.Basket), args.Error(1)
}

func (m *MockBasketRepository) FindByIDForUser(ctx context.Context, userID, basketID uuid.UUID) (*basket.Basket, error) {
	args := m.Called(ctx, userID, basketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*basket.Basket), args.Error(1)
}

func (m *MockBasketRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]basket.Basket, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]basket.Basket), args.Error(1)
}

func (m *MockBasketRepository) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBasketRepository) Create(ctx context.Context, b *basket.Basket) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBasketRepository) UpdateTotals(ctx context.Context, b *basket.Basket) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockBasketRepository) SaveItem(ctx context.Context, item *basket.BasketItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockBasketRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	args := m.Called(ctx, itemID)
	return args.Error(0)
}

func (m *MockBasketRepository) Close(ctx context.Context, basketID uuid.UUID, checkedOutAt time.Time) (bool, error) {
	args := m.Called(ctx, basketID, checkedOutAt)
	return args.Bool(0), args.Error(1)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error) {
	args := m.Called(ctx, id, quantity)
	return args.Bool(0), args.Error(1)
}

// fakeScope runs the work directly against the mocks and counts attempts
type fakeScope struct {
	baskets  *MockBasketRepository
	products *MockProductRepository
	calls    atomic.Int32
	// before runs ahead of every attempt; a non-nil error aborts it
	before func(ctx context.Context) error
}

func (s *fakeScope) Execute(ctx context.Context, fn func(ctx context.Context, repos TransactionalRepositories) error) error {
	s.calls.Add(1)
	if s.before != nil {
		if err := s.before(ctx); err != nil {
			return err
		}
	}
	return fn(ctx, s)
}

func (s *fakeScope) BasketRepo() basket.BasketRepository { return s.baskets }
func (s *fakeScope) ProductRepo() catalog.ProductRepository { return s.products }

var (
	_ basket.BasketRepository   = (*MockBasketRepository)(nil)
	_ catalog.ProductRepository = (*MockProductRepository)(nil)
	_ TransactionScope          = (*fakeScope)(nil)
)
