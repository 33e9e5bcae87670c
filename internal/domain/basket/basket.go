package basket

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// Reasons attached to error details
const (
	ReasonBasketClosed = "BASKET_CLOSED"
	ReasonEmptyBasket  = "EMPTY_BASKET"
)

// MaxItemQuantity is the largest quantity a single line can hold.
const MaxItemQuantity = math.MaxInt32

// Basket is a user's shopping cart. A user has at most one open basket;
// checkout closes it and a closed basket never changes again.
type Basket struct {
	shared.BaseAggregateRoot
	UserID       uuid.UUID
	TotalPrice   decimal.Decimal
	Active       bool
	CheckedOutAt *time.Time
	Items        []*BasketItem
}

// BasketItem is one (basket, product) line. Price is the unit price captured
// when the product was first added and is never refreshed afterwards.
type BasketItem struct {
	shared.BaseEntity
	BasketID  uuid.UUID
	ProductID *uuid.UUID // nil once the product has been deleted
	Quantity  int
	Price     decimal.Decimal
	Product   *catalog.Product // loaded on read paths only
}

// Subtotal returns price * quantity for the line
func (i *BasketItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewBasket creates an empty open basket for the user
func NewBasket(userID uuid.UUID) *Basket {
	return &Basket{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		TotalPrice:        decimal.Zero,
		Active:            true,
		Items:             make([]*BasketItem, 0),
	}
}

// IsOpen reports whether the basket still accepts changes
func (b *Basket) IsOpen() bool {
	return b.Active
}

// ItemByID returns the line with the given id
func (b *Basket) ItemByID(itemID uuid.UUID) (*BasketItem, bool) {
	for _, item := range b.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return nil, false
}

// ItemByProduct returns the line referencing the given product
func (b *Basket) ItemByProduct(productID uuid.UUID) (*BasketItem, bool) {
	for _, item := range b.Items {
		if item.ProductID != nil && *item.ProductID == productID {
			return item, true
		}
	}
	return nil, false
}

// AddItem adds quantity units of product. An existing line keeps its price
// snapshot and only grows in quantity. The returned bool is true when a new
// line was created.
func (b *Basket) AddItem(product *catalog.Product, quantity int) (*BasketItem, bool, error) {
	if err := b.ensureOpen(); err != nil {
		return nil, false, err
	}
	if quantity <= 0 {
		return nil, false, shared.ErrValidation.WithMessage("Quantity must be greater than zero").
			WithDetails(map[string]any{"quantity": quantity})
	}
	if product == nil {
		return nil, false, shared.ErrNotFound.WithMessage("Product not found")
	}

	item, exists := b.ItemByProduct(product.ID)
	held, price := 0, product.Price
	if exists {
		held, price = item.Quantity, item.Price
	}
	if err := b.checkGrowth(held, quantity, price); err != nil {
		return nil, false, err
	}
	if !exists {
		productID := product.ID
		item = &BasketItem{
			BaseEntity: shared.NewBaseEntity(),
			BasketID:   b.ID,
			ProductID:  &productID,
			Price:      product.Price,
			Product:    product,
		}
		b.Items = append(b.Items, item)
	}

	item.Quantity += quantity
	item.Touch()
	b.TotalPrice = b.TotalPrice.Add(item.Price.Mul(decimal.NewFromInt(int64(quantity))))
	b.touch()

	b.AddDomainEvent(NewItemAddedEvent(b, item, quantity))

	return item, !exists, nil
}

// RemoveItem takes quantity units off a line. The returned bool is true when
// the line reached zero and was dropped from the basket.
func (b *Basket) RemoveItem(itemID uuid.UUID, quantity int) (*BasketItem, bool, error) {
	if err := b.ensureOpen(); err != nil {
		return nil, false, err
	}
	if quantity <= 0 {
		return nil, false, shared.ErrValidation.WithMessage("Quantity must be greater than zero").
			WithDetails(map[string]any{"quantity": quantity})
	}

	item, ok := b.ItemByID(itemID)
	if !ok {
		return nil, false, shared.ErrNotFound.WithMessage("Basket item not found").
			WithDetails(map[string]any{"item_id": itemID})
	}
	if item.Quantity < quantity {
		return nil, false, shared.ErrInsufficientQuantity.WithDetails(map[string]any{
			"item_id":   itemID,
			"requested": quantity,
			"available": item.Quantity,
		})
	}

	item.Quantity -= quantity
	item.Touch()
	b.TotalPrice = b.TotalPrice.Sub(item.Price.Mul(decimal.NewFromInt(int64(quantity))))
	deleted := item.Quantity == 0
	if deleted {
		b.dropItem(itemID)
	}
	b.touch()

	b.AddDomainEvent(NewItemRemovedEvent(b, item, quantity, deleted))

	return item, deleted, nil
}

// UpdateItemQuantity sets a line to an absolute quantity; zero drops it.
// The returned bool is true when the line was dropped.
func (b *Basket) UpdateItemQuantity(itemID uuid.UUID, quantity int) (*BasketItem, bool, error) {
	if err := b.ensureOpen(); err != nil {
		return nil, false, err
	}
	if quantity < 0 {
		return nil, false, shared.ErrValidation.WithMessage("Quantity cannot be negative").
			WithDetails(map[string]any{"quantity": quantity})
	}

	item, ok := b.ItemByID(itemID)
	if !ok {
		return nil, false, shared.ErrNotFound.WithMessage("Basket item not found").
			WithDetails(map[string]any{"item_id": itemID})
	}
	if quantity == item.Quantity {
		return item, false, nil
	}
	if quantity < item.Quantity {
		return b.RemoveItem(itemID, item.Quantity-quantity)
	}

	delta := quantity - item.Quantity
	if err := b.checkGrowth(item.Quantity, delta, item.Price); err != nil {
		return nil, false, err
	}
	item.Quantity = quantity
	item.Touch()
	b.TotalPrice = b.TotalPrice.Add(item.Price.Mul(decimal.NewFromInt(int64(delta))))
	b.touch()

	b.AddDomainEvent(NewItemAddedEvent(b, item, delta))

	return item, false, nil
}

// checkGrowth rejects adding quantity units at price to a line holding held
// units when the line or the basket total would leave its column range.
func (b *Basket) checkGrowth(held, quantity int, price decimal.Decimal) error {
	if quantity > MaxItemQuantity-held {
		return shared.ErrValidation.WithMessage("Line quantity cannot exceed 2147483647").
			WithDetails(map[string]any{"requested": quantity, "held": held, "max": MaxItemQuantity})
	}
	total := b.TotalPrice.Add(price.Mul(decimal.NewFromInt(int64(quantity))))
	if total.GreaterThanOrEqual(catalog.MaxPrice) {
		return shared.ErrValidation.WithMessage("Basket total is too large").
			WithDetails(map[string]any{"total_price": total})
	}
	return nil
}

// Checkout closes the basket. Stock validation happens in the workflow that
// owns the product locks; this only guards the basket's own state.
func (b *Basket) Checkout() error {
	if err := b.ensureOpen(); err != nil {
		return err
	}
	if len(b.Items) == 0 {
		return shared.ErrValidation.WithMessage("Cannot checkout an empty basket").
			WithDetails(map[string]any{"reason": ReasonEmptyBasket, "basket_id": b.ID})
	}

	now := time.Now()
	b.Active = false
	b.CheckedOutAt = &now
	b.touch()

	b.AddDomainEvent(NewCheckedOutEvent(b))

	return nil
}

// ItemsTotal recomputes sum(price * quantity) over all lines
func (b *Basket) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range b.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// ItemCount returns the number of units across all lines
func (b *Basket) ItemCount() int {
	count := 0
	for _, item := range b.Items {
		count += item.Quantity
	}
	return count
}

// ProductIDs returns the distinct product ids referenced by live lines
func (b *Basket) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.Items))
	for _, item := range b.Items {
		if item.ProductID != nil {
			ids = append(ids, *item.ProductID)
		}
	}
	return ids
}

func (b *Basket) ensureOpen() error {
	if !b.Active {
		return shared.ErrInvalidState.WithMessage("Basket is already checked out").
			WithDetails(map[string]any{"reason": ReasonBasketClosed, "basket_id": b.ID})
	}
	return nil
}

func (b *Basket) dropItem(itemID uuid.UUID) {
	for i, item := range b.Items {
		if item.ID == itemID {
			b.Items = append(b.Items[:i], b.Items[i+1:]...)
			return
		}
	}
}

func (b *Basket) touch() {
	b.Touch()
	b.IncrementVersion()
}
