package basket

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/basket"
)

// Basket status values exposed to clients
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// AddItemRequest represents a request to add units of a product to the basket
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,gt=0,lte=2147483647"`
}

// UpdateItemRequest sets a line to an absolute quantity; 0 removes the line
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required,gte=0,lte=2147483647"`
}

// BasketItemResponse represents one basket line in API responses
type BasketItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    *uuid.UUID      `json:"product_id"`
	ProductName  string          `json:"product_name,omitempty"`
	ProductImage string          `json:"product_image,omitempty"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// BasketResponse represents a basket in API responses
type BasketResponse struct {
	ID           uuid.UUID            `json:"id"`
	UserID       uuid.UUID            `json:"user_id"`
	Status       string               `json:"status"`
	Active       bool                 `json:"active"`
	TotalPrice   decimal.Decimal      `json:"total_price"`
	ItemCount    int                  `json:"item_count"`
	Items        []BasketItemResponse `json:"items"`
	CheckedOutAt *time.Time           `json:"checked_out_at,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	Version      int                  `json:"version"`
}

// ToBasketResponse converts a domain Basket to a response
func ToBasketResponse(b *basket.Basket) BasketResponse {
	status := StatusOpen
	if !b.Active {
		status = StatusClosed
	}

	items := make([]BasketItemResponse, 0, len(b.Items))
	for _, item := range b.Items {
		line := BasketItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Subtotal:  item.Subtotal(),
			CreatedAt: item.CreatedAt,
			UpdatedAt: item.UpdatedAt,
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
			line.ProductImage = item.Product.Image
		}
		items = append(items, line)
	}

	return BasketResponse{
		ID:           b.ID,
		UserID:       b.UserID,
		Status:       status,
		Active:       b.Active,
		TotalPrice:   b.TotalPrice,
		ItemCount:    b.ItemCount(),
		Items:        items,
		CheckedOutAt: b.CheckedOutAt,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
		Version:      b.Version,
	}
}

// ToBasketResponses converts a slice of domain Baskets to responses
func ToBasketResponses(baskets []basket.Basket) []BasketResponse {
	responses := make([]BasketResponse, len(baskets))
	for i := range baskets {
		responses[i] = ToBasketResponse(&baskets[i])
	}
	return responses
}

// BasketListFilter represents filter options for basket history
type BasketListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at updated_at checked_out_at total_price"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}
