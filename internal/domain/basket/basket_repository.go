package basket

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// BasketRepository defines the interface for basket persistence.
// Mutating methods are meant to run inside a transaction scope.
type BasketRepository interface {
	// FindActiveByUser returns the user's open basket with its lines and products.
	// With forUpdate the basket row stays locked until the transaction ends.
	FindActiveByUser(ctx context.Context, userID uuid.UUID, forUpdate bool) (*Basket, error)

	// FindByIDForUser returns a basket owned by the user, open or closed
	FindByIDForUser(ctx context.Context, userID, basketID uuid.UUID) (*Basket, error)

	// FindAllForUser lists the user's baskets, newest first
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Basket, error)

	// CountForUser counts the user's baskets
	CountForUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// Create inserts a new basket. Losing the one-open-basket race yields
	// shared.ErrConcurrencyConflict.
	Create(ctx context.Context, basket *Basket) error

	// UpdateTotals persists total price, version and timestamps of an open basket
	UpdateTotals(ctx context.Context, basket *Basket) error

	// SaveItem inserts or updates a line
	SaveItem(ctx context.Context, item *BasketItem) error

	// DeleteItem removes a line
	DeleteItem(ctx context.Context, itemID uuid.UUID) error

	// Close flips an open basket to closed. Returns false when the basket was
	// no longer open.
	Close(ctx context.Context, basketID uuid.UUID, checkedOutAt time.Time) (bool, error)
}
