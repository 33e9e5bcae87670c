package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/basket"
	"github.com/storefront/backend/internal/domain/shared"
)

func TestGormBasketRepository_OneActiveBasketPerUser(t *testing.T) {
	db := newSQLiteDatabase(t)
	repo := NewGormBasketRepository(db.DB)
	ctx := context.Background()
	user := seedUser(t, db)

	first := seedBasket(t, db, user.ID)

	err := repo.Create(ctx, basket.NewBasket(user.ID))
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict, "partial unique index must reject a second open basket")

	closed, err := repo.Close(ctx, first.ID, time.Now())
	require.NoError(t, err)
	require.True(t, closed)

	assert.NoError(t, repo.Create(ctx, basket.NewBasket(user.ID)), "a new basket may open once the old one is closed")

	count, err := repo.CountForUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestGormBasketRepository_LinesAndTotals(t *testing.T) {
	db := newSQLiteDatabase(t)
	repo := NewGormBasketRepository(db.DB)
	ctx := context.Background()
	user := seedUser(t, db)
	product := seedProduct(t, db, "Filter Papers", "2.50", 100)
	b := seedBasket(t, db, user.ID)

	item, _, err := b.AddItem(product, 2)
	require.NoError(t, err)
	require.NoError(t, repo.SaveItem(ctx, item))
	require.NoError(t, repo.UpdateTotals(ctx, b))

	t.Run("upsert keeps the stored price snapshot", func(t *testing.T) {
		item.Quantity = 5
		item.Price = item.Price.Add(item.Price)
		require.NoError(t, repo.SaveItem(ctx, item))

		loaded, err := repo.FindActiveByUser(ctx, user.ID, false)
		require.NoError(t, err)
		require.Len(t, loaded.Items, 1)
		assert.Equal(t, 5, loaded.Items[0].Quantity)
		requireDecimal(t, "2.50", loaded.Items[0].Price)
		require.NotNil(t, loaded.Items[0].Product)
		assert.Equal(t, "Filter Papers", loaded.Items[0].Product.Name)
		requireDecimal(t, "5.00", loaded.TotalPrice)
	})

	t.Run("delete line", func(t *testing.T) {
		require.NoError(t, repo.DeleteItem(ctx, item.ID))
		assert.ErrorIs(t, repo.DeleteItem(ctx, item.ID), shared.ErrNotFound)
	})

	t.Run("line for unknown product is rejected", func(t *testing.T) {
		ghost := uuid.New()
		line := &basket.BasketItem{BaseEntity: shared.NewBaseEntity(), BasketID: b.ID, ProductID: &ghost, Quantity: 1}
		assert.ErrorIs(t, repo.SaveItem(ctx, line), shared.ErrNotFound)
	})
}

func TestGormBasketRepository_CloseIsGuarded(t *testing.T) {
	db := newSQLiteDatabase(t)
	repo := NewGormBasketRepository(db.DB)
	ctx := context.Background()
	user := seedUser(t, db)
	b := seedBasket(t, db, user.ID)

	closed, err := repo.Close(ctx, b.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, closed)

	closed, err = repo.Close(ctx, b.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, closed, "closing twice must not match a row")

	assert.ErrorIs(t, repo.UpdateTotals(ctx, b), shared.ErrConcurrencyConflict, "closed baskets take no total updates")

	_, err = repo.FindActiveByUser(ctx, user.ID, true)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	history, err := repo.FindByIDForUser(ctx, user.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, history.Active)
	require.NotNil(t, history.CheckedOutAt)
	assert.Equal(t, b.Version+1, history.Version)
}

func TestGormBasketRepository_FindByIDForUser_ChecksOwner(t *testing.T) {
	db := newSQLiteDatabase(t)
	repo := NewGormBasketRepository(db.DB)
	owner := seedUser(t, db)
	stranger := seedUser(t, db)
	b := seedBasket(t, db, owner.ID)

	_, err := repo.FindByIDForUser(context.Background(), stranger.ID, b.ID)

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormBasketRepository_FindAllForUser(t *testing.T) {
	db := newSQLiteDatabase(t)
	repo := NewGormBasketRepository(db.DB)
	ctx := context.Background()
	user := seedUser(t, db)

	old := basket.NewBasket(user.ID)
	old.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, old))
	_, err := repo.Close(ctx, old.ID, time.Now())
	require.NoError(t, err)
	current := seedBasket(t, db, user.ID)

	baskets, err := repo.FindAllForUser(ctx, user.ID, shared.Filter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, baskets, 2)
	assert.Equal(t, current.ID, baskets[0].ID, "newest first")
	assert.Equal(t, old.ID, baskets[1].ID)
}

func TestGormBasketRepository_FindActiveByUser_LocksBasketRow(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t, nil)
	defer mockDB.Close()
	userID, basketID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "baskets" WHERE user_id = \$1 AND active = \$2 LIMIT \$3 FOR UPDATE`).
		WithArgs(userID, true, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "total_price", "active", "version"}).
			AddRow(basketID, userID, "0", true, 1))
	mock.ExpectQuery(`SELECT \* FROM "basket_items" WHERE "basket_items"."basket_id" = \$1 ORDER BY basket_items.created_at ASC, basket_items.id ASC`).
		WithArgs(basketID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "basket_id", "product_id", "quantity", "price"}))

	b, err := NewGormBasketRepository(db.DB).FindActiveByUser(context.Background(), userID, true)

	require.NoError(t, err)
	assert.Equal(t, basketID, b.ID)
	assert.Empty(t, b.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}
