package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDForUpdate loads and row-locks a product. Must be called inside a transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds multiple products by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindByIDsForUpdate loads and row-locks the given products in ascending id order.
	// Must be called inside a transaction.
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindAll finds all products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// Save creates or updates a product. Updates overwrite stock, so callers
	// hold the row lock from FindByIDForUpdate.
	Save(ctx context.Context, product *Product) error

	// Delete deletes a product. Basket lines referencing it lose their product link.
	Delete(ctx context.Context, id uuid.UUID) error

	// DecrementStock subtracts quantity only when enough stock remains.
	// Returns false when the guarded update matched no row.
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (bool, error)
}
