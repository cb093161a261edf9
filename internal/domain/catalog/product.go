package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Product represents a sellable product. Purchasable configurations live on
// its variants; a product whose active flag is off is not sellable regardless
// of variant stock.
type Product struct {
	shared.BaseAggregateRoot
	CategoryID    uuid.UUID
	Name          string
	Slug          string
	Description   string
	ImageURL      string
	IsActive      bool
	IsFeatured    bool
	FeaturedOrder int
	Variants      []ProductVariant
}

// NewProduct creates a new active product
func NewProduct(categoryID uuid.UUID, name, description string) (*Product, error) {
	name = strings.TrimSpace(name)
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Category ID cannot be empty")
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CategoryID:        categoryID,
		Name:              name,
		Slug:              Slugify(name),
		Description:       description,
		IsActive:          true,
	}, nil
}

// Update updates the product's basic information
func (p *Product) Update(name, description string) error {
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return err
	}

	p.Name = name
	p.Description = description
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// Deactivate takes the product off sale. Frozen prices on existing order
// lines are unaffected; new checkouts against its variants are rejected.
func (p *Product) Deactivate() {
	p.IsActive = false
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// Activate puts the product back on sale
func (p *Product) Activate() {
	p.IsActive = true
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// Feature marks the product as featured at the given display position
func (p *Product) Feature(order int) {
	p.IsFeatured = true
	p.FeaturedOrder = order
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// DefaultVariant returns the variant flagged as default, falling back to the
// first variant. Returns nil when the product has no variants loaded.
func (p *Product) DefaultVariant() *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].IsDefault {
			return &p.Variants[i]
		}
	}
	if len(p.Variants) > 0 {
		return &p.Variants[0]
	}
	return nil
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 255 characters")
	}
	return nil
}

// ProductVariant is one purchasable configuration of a product and the unit
// of inventory. Its stock counter is only ever read or mutated under the
// variant repository's row locking discipline.
type ProductVariant struct {
	shared.BaseEntity
	ProductID uuid.UUID
	SKU       string
	Name      string
	Price     decimal.Decimal
	Stock     int
	IsDefault bool
}

// NewProductVariant creates a new variant for a product
func NewProductVariant(productID uuid.UUID, sku, name string, price decimal.Decimal, stock int) (*ProductVariant, error) {
	sku = strings.TrimSpace(sku)
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 100 {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 100 characters")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}

	return &ProductVariant{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		SKU:        sku,
		Name:       name,
		Price:      price,
		Stock:      stock,
	}, nil
}

// ChangePrice updates the live price. Prices already frozen on order lines
// keep their original value.
func (v *ProductVariant) ChangePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}
	v.Price = price
	v.UpdatedAt = time.Now()
	return nil
}

// HasStock returns true if at least qty units are available
func (v *ProductVariant) HasStock(qty int) bool {
	return v.Stock >= qty
}
