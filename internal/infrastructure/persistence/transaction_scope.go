package persistence

import (
	"context"

	"gorm.io/gorm"

	appbasket "github.com/storefront/backend/internal/application/basket"
	appcatalog "github.com/storefront/backend/internal/application/catalog"
	"github.com/storefront/backend/internal/domain/basket"
	"github.com/storefront/backend/internal/domain/catalog"
)

// GormTransactionScope implements the application transaction scopes on top
// of Database.Transaction, so every unit of work is time bounded.
type GormTransactionScope struct {
	db *Database
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *Database) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, repos appbasket.TransactionalRepositories) error) error {
	return s.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return fn(ctx, &gormTransactionalRepositories{tx: tx})
	})
}

// CatalogScope returns the catalog view of this scope.
func (s *GormTransactionScope) CatalogScope() appcatalog.TransactionScope {
	return catalogTransactionScope{db: s.db}
}

type catalogTransactionScope struct {
	db *Database
}

func (s catalogTransactionScope) Execute(ctx context.Context, fn func(ctx context.Context, products catalog.ProductRepository) error) error {
	return s.db.Transaction(ctx, func(ctx context.Context, tx *gorm.DB) error {
		return fn(ctx, NewGormProductRepository(tx))
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// BasketRepo returns the basket repository scoped to the current transaction.
func (r *gormTransactionalRepositories) BasketRepo() basket.BasketRepository {
	return NewGormBasketRepository(r.tx)
}

// ProductRepo returns the product repository scoped to the current transaction.
func (r *gormTransactionalRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

var (
	_ appbasket.TransactionScope          = (*GormTransactionScope)(nil)
	_ appbasket.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
	_ appcatalog.TransactionScope         = catalogTransactionScope{}
)
