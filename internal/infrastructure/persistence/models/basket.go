package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/basket"
	"github.com/storefront/backend/internal/domain/shared"
)

// BasketModel is the persistence model for the Basket aggregate.
// uq_baskets_user_active keeps a single open basket per user.
type BasketModel struct {
	AggregateModel
	UserID       uuid.UUID         `gorm:"type:uuid;not null;index:idx_baskets_user_id;uniqueIndex:uq_baskets_user_active,where:active = true"`
	TotalPrice   decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	Active       bool              `gorm:"not null"`
	User         *UserModel        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Items        []BasketItemModel `gorm:"foreignKey:BasketID;constraint:OnDelete:CASCADE"`
	CheckedOutAt *time.Time
}

// TableName returns the table name for GORM
func (BasketModel) TableName() string {
	return "baskets"
}

// ToDomain converts the persistence model to a domain Basket, including
// whatever lines were loaded.
func (m *BasketModel) ToDomain() *basket.Basket {
	b := &basket.Basket{
		BaseAggregateRoot: m.ToAggregateRoot(),
		UserID:            m.UserID,
		TotalPrice:        m.TotalPrice,
		Active:            m.Active,
		CheckedOutAt:      m.CheckedOutAt,
		Items:             make([]*basket.BasketItem, 0, len(m.Items)),
	}
	for i := range m.Items {
		b.Items = append(b.Items, m.Items[i].ToDomain())
	}
	return b
}

// FromDomain populates the basket row from the aggregate. Lines are
// persisted separately.
func (m *BasketModel) FromDomain(b *basket.Basket) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.UserID = b.UserID
	m.TotalPrice = b.TotalPrice
	m.Active = b.Active
	m.CheckedOutAt = b.CheckedOutAt
}

// BasketModelFromDomain creates a new persistence model from a domain Basket.
func BasketModelFromDomain(b *basket.Basket) *BasketModel {
	m := &BasketModel{}
	m.FromDomain(b)
	return m
}

// BasketItemModel is one basket line. product_id turns NULL when the product is deleted.
type BasketItemModel struct {
	BaseModel
	BasketID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_basket_items_basket_product,priority:1"`
	ProductID *uuid.UUID      `gorm:"type:uuid;index:idx_basket_items_product_id;uniqueIndex:uq_basket_items_basket_product,priority:2"`
	Quantity  int             `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Product   *ProductModel   `gorm:"foreignKey:ProductID;constraint:OnDelete:SET NULL"`
}

// TableName returns the table name for GORM
func (BasketItemModel) TableName() string {
	return "basket_items"
}

// ToDomain converts the persistence model to a domain BasketItem
func (m *BasketItemModel) ToDomain() *basket.BasketItem {
	item := &basket.BasketItem{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		BasketID:  m.BasketID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		Price:     m.Price,
	}
	if m.Product != nil {
		item.Product = m.Product.ToDomain()
	}
	return item
}

// BasketItemModelFromDomain creates a new persistence model from a domain BasketItem.
// The product association is left empty so saving a line never touches products.
func BasketItemModelFromDomain(item *basket.BasketItem) *BasketItemModel {
	m := &BasketItemModel{
		BasketID:  item.BasketID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		Price:     item.Price,
	}
	m.FromDomainBaseEntity(item.BaseEntity)
	return m
}
