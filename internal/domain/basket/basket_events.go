package basket

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeBasket = "Basket"

// Event type constants
const (
	EventTypeItemAdded   = "basket.item_added"
	EventTypeItemRemoved = "basket.item_removed"
	EventTypeCheckedOut  = "basket.checked_out"
)

// ItemAddedEvent is published when units are added to a basket line
type ItemAddedEvent struct {
	shared.BaseDomainEvent
	UserID    uuid.UUID       `json:"user_id"`
	ItemID    uuid.UUID       `json:"item_id"`
	ProductID *uuid.UUID      `json:"product_id,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
}

// NewItemAddedEvent creates a new ItemAddedEvent
func NewItemAddedEvent(b *Basket, item *BasketItem, quantity int) *ItemAddedEvent {
	return &ItemAddedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemAdded, AggregateTypeBasket, b.ID),
		UserID:          b.UserID,
		ItemID:          item.ID,
		ProductID:       item.ProductID,
		Quantity:        quantity,
		Price:           item.Price,
		Total:           b.TotalPrice,
	}
}

// ItemRemovedEvent is published when units are taken off a basket line
type ItemRemovedEvent struct {
	shared.BaseDomainEvent
	UserID      uuid.UUID       `json:"user_id"`
	ItemID      uuid.UUID       `json:"item_id"`
	Quantity    int             `json:"quantity"`
	LineDeleted bool            `json:"line_deleted"`
	Total       decimal.Decimal `json:"total"`
}

// NewItemRemovedEvent creates a new ItemRemovedEvent
func NewItemRemovedEvent(b *Basket, item *BasketItem, quantity int, deleted bool) *ItemRemovedEvent {
	return &ItemRemovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemRemoved, AggregateTypeBasket, b.ID),
		UserID:          b.UserID,
		ItemID:          item.ID,
		Quantity:        quantity,
		LineDeleted:     deleted,
		Total:           b.TotalPrice,
	}
}

// CheckedOutLine summarises one line at checkout
type CheckedOutLine struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// CheckedOutEvent is published once a basket has been closed
type CheckedOutEvent struct {
	shared.BaseDomainEvent
	UserID     uuid.UUID        `json:"user_id"`
	TotalPrice decimal.Decimal  `json:"total_price"`
	ItemCount  int              `json:"item_count"`
	Lines      []CheckedOutLine `json:"lines"`
}

// NewCheckedOutEvent creates a new CheckedOutEvent
func NewCheckedOutEvent(b *Basket) *CheckedOutEvent {
	lines := make([]CheckedOutLine, 0, len(b.Items))
	for _, item := range b.Items {
		if item.ProductID == nil {
			continue
		}
		lines = append(lines, CheckedOutLine{
			ProductID: *item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}
	return &CheckedOutEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCheckedOut, AggregateTypeBasket, b.ID),
		UserID:          b.UserID,
		TotalPrice:      b.TotalPrice,
		ItemCount:       b.ItemCount(),
		Lines:           lines,
	}
}
