package handler

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	basketapp "github.com/storefront/backend/internal/application/basket"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

func TestBasketHandler_RequiresAuthentication(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/v1/basket", nil, "")

	errInfo := decodeError(t, w, http.StatusUnauthorized)
	assert.Equal(t, dto.ErrCodeTokenMissing, errInfo.Code)
}

func TestBasketHandler_GetActiveCreatesOnce(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.seedUser(t)

	first := decodeData[basketapp.BasketResponse](t, srv.do(t, http.MethodGet, "/api/v1/basket", nil, token))
	second := decodeData[basketapp.BasketResponse](t, srv.do(t, http.MethodGet, "/api/v1/basket", nil, token))

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, basketapp.StatusOpen, first.Status)
	assert.Empty(t, first.Items)
	requireDecimal(t, "0", first.TotalPrice)
}

func TestBasketHandler_AddItem(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.seedUser(t)
	mug := srv.seedProduct(t, "Mug", "12.50", 10)

	w := srv.do(t, http.MethodPost, "/api/v1/basket/items",
		map[string]any{"product_id": mug.ID, "quantity": 2}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	b := decodeData[basketapp.BasketResponse](t, w)
	require.Len(t, b.Items, 1)
	assert.Equal(t, 2, b.Items[0].Quantity)
	requireDecimal(t, "12.50", b.Items[0].Price)
	requireDecimal(t, "25.00", b.TotalPrice)

	w = srv.do(t, http.MethodPost, "/api/v1/basket/items",
		map[string]any{"product_id": mug.ID, "quantity": 1}, token)
	b = decodeData[basketapp.BasketResponse](t, w)
	require.Len(t, b.Items, 1)
	assert.Equal(t, 3, b.Items[0].Quantity)
	requireDecimal(t, "37.50", b.TotalPrice)

	w = srv.do(t, http.MethodPut, "/api/v1/catalog/products/"+mug.ID.String(), map[string]any{"price": "20.00"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	b = decodeData[basketapp.BasketResponse](t, srv.do(t, http.MethodGet, "/api/v1/basket", nil, token))
	requireDecimal(t, "12.50", b.Items[0].Price)
	requireDecimal(t, "37.50", b.TotalPrice)
}

func TestBasketHandler_AddItemValidation(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.seedUser(t)

	t.Run("zero quantity", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/basket/items",
			map[string]any{"product_id": uuid.New(), "quantity": 0}, token)
		errInfo := decodeError(t, w, http.StatusBadRequest)
		assert.Equal(t, dto.ErrCodeValidation, errInfo.Code)
	})

	t.Run("quantity above line limit", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/basket/items",
			map[string]any{"product_id": uuid.New(), "quantity": int64(1) << 62}, token)
		errInfo := decodeError(t, w, http.StatusBadRequest)
		assert.Equal(t, dto.ErrCodeValidation, errInfo.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/basket/items", `{"product_id":`, token)
		errInfo := decodeError(t, w, http.StatusBadRequest)
		assert.Equal(t, dto.ErrCodeInvalidJSON, errInfo.Code)
	})

	t.Run("unknown product", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/basket/items",
			map[string]any{"product_id": uuid.New(), "quantity": 1}, token)
		errInfo := decodeError(t, w, http.StatusNotFound)
		assert.Equal(t, dto.ErrCodeNotFound, errInfo.Code)
	})
}

func TestBasketHandler_RemoveItem(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.seedUser(t)
	pen := srv.seedProduct(t, "Pen", "1.20", 50)

	b := decodeData[basketapp.BasketResponse](t, srv.do(t, http.MethodPost, "/api/v1/basket/items",
		map[string]any{"product_id": pen.ID, "quantity": 5}, token))
	itemID := b.Items[0].ID.String()

	t.Run("default removes one unit", func(t *testing.T) {
		b := decodeData[basketapp.BasketResponse](t,
			srv.do(t, http.MethodDelete, "/api/v1/basket/items/"+itemID, nil, token))
		require.Len(t, b.Items, 1)
		assert.Equal(t, 4, b.Items[0].Quantity)
		requireDecimal(t, "4.80", b.TotalPrice)
	})

	t.Run("more than held is rejected", func(t *testing.T) {
		w := srv.do(t, http.MethodDelete, "/api/v1/basket/items/"+itemID+"?quantity=9", nil, token)
		errInfo := decodeError(t, w, http.StatusUnprocessableEntity)
		assert.Equal(t, dto.ErrCodeInsufficientQuantity, errInfo.Code)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		for _, q := range []string{"0", "-2", "abc"} {
			w := srv.do(t, http.MethodDelete, "/api/v1/basket/items/"+itemID+"?quantity="+q, nil, token)
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})

	t.Run("removing all units deletes the line", func(t *testing.T) {
		b := decodeData[basketapp.BasketResponse](t,
			srv.do(t, http.MethodDelete, "/api/v1/basket/items/"+itemID+"?quantity=4", nil, token))
		assert.Empty(t, b.Items)
		requireDecimal(t, "0", b.TotalPrice)
	})

	t.Run("invalid item id", func(t *testing.T) {
		w := srv.do(t, http.MethodDelete, "/api/v1/basket/items/not-a-uuid", nil, token)
		decodeError(t, w, http.StatusBadRequest)
	})
}

func TestBasketHandler_UpdateItem(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.seedUser(t)
	book := srv.seedProduct(t, "Book", "8.00", 20)

	b := decodeData[basketapp.BasketResponse](t, srv.do(t, http.MethodPost, "/api/v1/basket/items",
		map[string]any{"product_id": book.ID, "quantity": 1}, token))
	path := "/api/v1/basket/items/" + b.Items[0].ID.String()

	b = decodeData[basketapp.BasketResponse](t, srv.do(t, http.MethodPut, path, map[string]any{"quantity": 4}, token))
	assert.Equal(t, 4, b.Items[0].Quantity)
	requireDecimal(t, "32.00", b.TotalPrice)

	w := srv.do(t, http.MethodPut, path, map[string]any{}, token)
	decodeError(t, w, http.StatusBadRequest)

	b = decodeData[basketapp.BasketResponse](t, srv.do(t, http.MethodPut, path, map[string]any{"quantity": 0}, token))
	assert.Empty(t, b.Items)
	requireDecimal(t, "0", b.TotalPrice)
}

func TestBasketHandler_ItemsOfAnotherUser(t *testing.T) {
	srv := newTestServer(t)
	_, ownerToken := srv.seedUser(t)
	_, otherToken := srv.seedUser(t)
	lamp := srv.seedProduct(t, "Lamp", "30.00", 5)

	b := decodeData[basketapp.BasketResponse](t, srv.do(t, http.MethodPost, "/api/v1/basket/items",
		map[string]any{"product_id": lamp.ID, "quantity": 1}, ownerToken))

	w := srv.do(t, http.MethodDelete, "/api/v1/basket/items/"+b.Items[0].ID.String(), nil, otherToken)
	decodeError(t, w, http.StatusNotFound)

	w = srv.do(t, http.MethodGet, "/api/v1/baskets/"+b.ID.String(), nil, otherToken)
	decodeError(t, w, http.StatusNotFound)
}

func TestBasketHandler_Checkout(t *testing.T) {
	t.Run("success decrements stock and closes basket", func(t *testing.T) {
		srv := newTestServer(t)
		_, token := srv.seedUser(t)
		mug := srv.seedProduct(t, "Mug", "12.50", 10)

		srv.do(t, http.MethodPost, "/api/v1/basket/items", map[string]any{"product_id": mug.ID, "quantity": 3}, token)

		w := srv.do(t, http.MethodPost, "/api/v1/basket/checkout", nil, token)
		b := decodeData[basketapp.BasketResponse](t, w)
		assert.Equal(t, basketapp.StatusClosed, b.Status)
		assert.NotNil(t, b.CheckedOutAt)
		assert.Equal(t, 7, srv.reloadProduct(t, mug.ID).Stock)

		next := decodeData[basketapp.BasketResponse](t, srv.do(t, http.MethodGet, "/api/v1/basket", nil, token))
		assert.NotEqual(t, b.ID, next.ID)
	})

	t.Run("insufficient stock changes nothing", func(t *testing.T) {
		srv := newTestServer(t)
		_, token := srv.seedUser(t)
		mug := srv.seedProduct(t, "Mug", "12.50", 2)

		added := decodeData[basketapp.BasketResponse](t, srv.do(t, http.MethodPost, "/api/v1/basket/items",
			map[string]any{"product_id": mug.ID, "quantity": 3}, token))

		w := srv.do(t, http.MethodPost, "/api/v1/basket/checkout", nil, token)
		errInfo := decodeError(t, w, http.StatusUnprocessableEntity)
		assert.Equal(t, dto.ErrCodeInsufficientStock, errInfo.Code)
		assert.Equal(t, mug.ID.String(), errInfo.Details["product_id"])
		assert.EqualValues(t, 3, errInfo.Details["requested"])
		assert.EqualValues(t, 2, errInfo.Details["available"])

		assert.Equal(t, 2, srv.reloadProduct(t, mug.ID).Stock)
		still := decodeData[basketapp.BasketResponse](t, srv.do(t, http.MethodGet, "/api/v1/basket", nil, token))
		assert.Equal(t, added.ID, still.ID)
		assert.Equal(t, basketapp.StatusOpen, still.Status)
	})

	t.Run("empty basket", func(t *testing.T) {
		srv := newTestServer(t)
		_, token := srv.seedUser(t)
		srv.do(t, http.MethodGet, "/api/v1/basket", nil, token)

		w := srv.do(t, http.MethodPost, "/api/v1/basket/checkout", nil, token)
		decodeError(t, w, http.StatusBadRequest)
	})
}

func TestBasketHandler_History(t *testing.T) {
	srv := newTestServer(t)
	_, token := srv.seedUser(t)
	mug := srv.seedProduct(t, "Mug", "5.00", 10)

	srv.do(t, http.MethodPost, "/api/v1/basket/items", map[string]any{"product_id": mug.ID, "quantity": 1}, token)
	closed := decodeData[basketapp.BasketResponse](t, srv.do(t, http.MethodPost, "/api/v1/basket/checkout", nil, token))
	srv.do(t, http.MethodGet, "/api/v1/basket", nil, token)

	w := srv.do(t, http.MethodGet, "/api/v1/baskets?page=1&page_size=10", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(2), resp.Meta.Total)
	assert.Equal(t, 10, resp.Meta.PageSize)

	got := decodeData[basketapp.BasketResponse](t, srv.do(t, http.MethodGet, "/api/v1/baskets/"+closed.ID.String(), nil, token))
	assert.Equal(t, basketapp.StatusClosed, got.Status)
	require.Len(t, got.Items, 1)

	w = srv.do(t, http.MethodGet, "/api/v1/baskets?order_by=id", nil, token)
	decodeError(t, w, http.StatusBadRequest)
}
