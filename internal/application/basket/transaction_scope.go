package basket

import (
	"context"

	"github.com/storefront/backend/internal/domain/basket"
	"github.com/storefront/backend/internal/domain/catalog"
)

// TransactionScope runs basket workflows atomically.
type TransactionScope interface {
	// Execute runs fn within one database transaction bounded by the configured
	// transaction timeout. fn must use the ctx it receives so queries observe
	// that deadline. Returning an error rolls everything back.
	Execute(ctx context.Context, fn func(ctx context.Context, repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes the repositories bound to the running transaction.
//
// Lock order inside a workflow is always basket row first, then product rows in
// ascending id order.
type TransactionalRepositories interface {
	BasketRepo() basket.BasketRepository
	ProductRepo() catalog.ProductRepository
}
