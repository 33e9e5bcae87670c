package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	basketapp "github.com/storefront/backend/internal/application/basket"
)

// BasketHandler handles the shopper's basket and basket history endpoints.
// Every route requires an authenticated user.
type BasketHandler struct {
	BaseHandler
	basketService *basketapp.BasketService
}

// NewBasketHandler creates a new BasketHandler
func NewBasketHandler(basketService *basketapp.BasketService) *BasketHandler {
	return &BasketHandler{
		basketService: basketService,
	}
}

// GetActive godoc
// @Summary      Get the active basket
// @Description  Returns the open basket, creating an empty one on first use.
// @Tags         basket
// @Produce      json
// @Success      200 {object} dto.Response{data=basketapp.BasketResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /basket [get]
func (h *BasketHandler) GetActive(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	b, err := h.basketService.GetOrCreateActiveBasket(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, b)
}

// AddItem godoc
// @Summary      Add a product to the basket
// @Description  Adding a product already in the basket increases its quantity.
// @Description  The unit price is fixed when the product is first added.
// @Tags         basket
// @Accept       json
// @Produce      json
// @Param        request body basketapp.AddItemRequest true "Product and quantity"
// @Success      200 {object} dto.Response{data=basketapp.BasketResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /basket/items [post]
func (h *BasketHandler) AddItem(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req basketapp.AddItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := h.basketService.AddItem(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, b)
}

// UpdateItem godoc
// @Summary      Set a line's quantity
// @Description  A quantity of 0 removes the line.
// @Tags         basket
// @Accept       json
// @Produce      json
// @Param        item_id path string true "Basket item ID" format(uuid)
// @Param        request body basketapp.UpdateItemRequest true "New quantity"
// @Success      200 {object} dto.Response{data=basketapp.BasketResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /basket/items/{item_id} [put]
func (h *BasketHandler) UpdateItem(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := h.parseUUIDParam(c, "item_id", "item ID")
	if !ok {
		return
	}

	var req basketapp.UpdateItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := h.basketService.UpdateItemQuantity(c.Request.Context(), userID, itemID, *req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, b)
}

// RemoveItem godoc
// @Summary      Remove units of a line
// @Description  Removes quantity units (default 1). The line is deleted when none remain.
// @Tags         basket
// @Produce      json
// @Param        item_id path string true "Basket item ID" format(uuid)
// @Param        quantity query int false "Units to remove" default(1)
// @Success      200 {object} dto.Response{data=basketapp.BasketResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /basket/items/{item_id} [delete]
func (h *BasketHandler) RemoveItem(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	itemID, ok := h.parseUUIDParam(c, "item_id", "item ID")
	if !ok {
		return
	}

	quantity := 1
	if raw := c.Query("quantity"); raw != "" {
		q, err := strconv.Atoi(raw)
		if err != nil || q <= 0 {
			h.BadRequest(c, "quantity must be a positive integer")
			return
		}
		quantity = q
	}

	b, err := h.basketService.RemoveItem(c.Request.Context(), userID, itemID, quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, b)
}

// Checkout godoc
// @Summary      Check out the active basket
// @Description  Decrements stock for every line and closes the basket in one
// @Description  transaction. Nothing changes if any line lacks stock.
// @Tags         basket
// @Produce      json
// @Success      200 {object} dto.Response{data=basketapp.BasketResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /basket/checkout [post]
func (h *BasketHandler) Checkout(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	b, err := h.basketService.Checkout(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, b)
}

// List godoc
// @Summary      Basket history
// @Description  Lists the user's baskets, open and checked out, newest first.
// @Tags         basket
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        order_by query string false "Sort field" Enums(created_at, updated_at, checked_out_at, total_price)
// @Param        order_dir query string false "Sort direction" Enums(asc, desc)
// @Success      200 {object} dto.Response{data=[]basketapp.BasketResponse,meta=dto.Meta}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /baskets [get]
func (h *BasketHandler) List(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var filter basketapp.BasketListFilter
	if !h.BindQuery(c, &filter) {
		return
	}

	page, err := h.basketService.ListBaskets(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
// @Summary      Get one of the user's baskets
// @Tags         basket
// @Produce      json
// @Param        id path string true "Basket ID" format(uuid)
// @Success      200 {object} dto.Response{data=basketapp.BasketResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /baskets/{id} [get]
func (h *BasketHandler) GetByID(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	basketID, ok := h.parseUUIDParam(c, "id", "basket ID")
	if !ok {
		return
	}

	b, err := h.basketService.GetBasket(c.Request.Context(), userID, basketID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, b)
}
