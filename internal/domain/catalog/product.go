package catalog

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

const (
	maxProductNameLength        = 200
	maxProductDescriptionLength = 2000
	maxProductImageLength       = 500
)

// MaxStock is the largest stock level a product can hold (INTEGER column).
const MaxStock = math.MaxInt32

// MaxPrice is the exclusive upper bound of a NUMERIC(18,4) amount.
var MaxPrice = decimal.New(1, 14)

// Product represents a sellable item in the catalog
// It is the aggregate root for product-related operations
type Product struct {
	shared.BaseAggregateRoot
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Image       string // URL or object storage key
}

// NewProduct creates a new product
func NewProduct(name string, price decimal.Decimal, description string, stock int) (*Product, error) {
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if err := validatePrice(price); err != nil {
		return nil, err
	}
	if err := validateDescription(description); err != nil {
		return nil, err
	}
	if err := validateStock(stock); err != nil {
		return nil, err
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Description:       description,
		Price:             price,
		Stock:             stock,
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// Update updates the product's basic information
func (p *Product) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return err
	}
	if err := validateDescription(description); err != nil {
		return err
	}

	p.Name = name
	p.Description = description
	p.touch()

	return nil
}

// SetPrice changes the unit price. Existing basket lines keep their snapshot.
func (p *Product) SetPrice(price decimal.Decimal) error {
	if err := validatePrice(price); err != nil {
		return err
	}
	if price.Equal(p.Price) {
		return nil
	}

	oldPrice := p.Price
	p.Price = price
	p.touch()

	p.AddDomainEvent(NewProductPriceChangedEvent(p, oldPrice))

	return nil
}

// SetStock overwrites the available stock
func (p *Product) SetStock(stock int) error {
	if err := validateStock(stock); err != nil {
		return err
	}
	p.Stock = stock
	p.touch()
	return nil
}

// AdjustStock applies a relative stock change (restock or correction)
func (p *Product) AdjustStock(delta int) error {
	if delta > 0 && delta > MaxStock-p.Stock {
		return shared.ErrValidation.WithMessage("Product stock cannot exceed 2147483647").
			WithDetails(map[string]any{"product_id": p.ID, "delta": delta, "stock": p.Stock})
	}
	if delta < 0 && (delta < -MaxStock || p.Stock < -delta) {
		return shared.ErrInsufficientStock.WithDetails(map[string]any{
			"product_id": p.ID,
			"requested":  -delta,
			"available":  p.Stock,
		})
	}
	p.Stock += delta
	p.touch()
	return nil
}

// HasStock reports whether quantity units can be sold
func (p *Product) HasStock(quantity int) bool {
	return quantity > 0 && p.Stock >= quantity
}

// SetImage sets the product image reference
func (p *Product) SetImage(image string) error {
	image = strings.TrimSpace(image)
	if len(image) > maxProductImageLength {
		return shared.ErrValidation.WithMessage("Product image reference cannot exceed 500 characters")
	}
	p.Image = image
	p.touch()
	return nil
}

func (p *Product) touch() {
	p.Touch()
	p.IncrementVersion()
}

func validateProductName(name string) error {
	if name == "" {
		return shared.ErrValidation.WithMessage("Product name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxProductNameLength {
		return shared.ErrValidation.WithMessage("Product name cannot exceed 200 characters")
	}
	return nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > maxProductDescriptionLength {
		return shared.ErrValidation.WithMessage("Product description cannot exceed 2000 characters")
	}
	return nil
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.ErrValidation.WithMessage("Product price cannot be negative")
	}
	if price.GreaterThanOrEqual(MaxPrice) {
		return shared.ErrValidation.WithMessage("Product price is too large")
	}
	return nil
}

func validateStock(stock int) error {
	if stock < 0 {
		return shared.ErrValidation.WithMessage("Product stock cannot be negative")
	}
	if stock > MaxStock {
		return shared.ErrValidation.WithMessage("Product stock cannot exceed 2147483647")
	}
	return nil
}
