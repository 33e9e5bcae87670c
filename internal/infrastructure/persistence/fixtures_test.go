package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/basket"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/identity"
)

func seedUser(t *testing.T, db *Database) *identity.User {
	t.Helper()
	user, err := identity.NewUser("Shopper", uuid.NewString()[:8]+"@example.com", "password123")
	require.NoError(t, err)
	require.NoError(t, NewGormUserRepository(db.DB).Create(context.Background(), user))
	return user
}

func seedProduct(t *testing.T, db *Database, name string, price string, stock int) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(name, decimal.RequireFromString(price), "", stock)
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db.DB).Save(context.Background(), product))
	return product
}

func seedBasket(t *testing.T, db *Database, userID uuid.UUID) *basket.Basket {
	t.Helper()
	b := basket.NewBasket(userID)
	require.NoError(t, NewGormBasketRepository(db.DB).Create(context.Background(), b))
	return b
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
