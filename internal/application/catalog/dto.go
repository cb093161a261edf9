package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CategoryResponse represents a category node
type CategoryResponse struct {
	ID       uuid.UUID  `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	ImageURL string     `json:"image_url,omitempty"`
}

// VariantResponse represents one purchasable configuration
type VariantResponse struct {
	ID        uuid.UUID       `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name,omitempty"`
	Price     decimal.Decimal `json:"price"`
	InStock   bool            `json:"in_stock"`
	IsDefault bool            `json:"is_default"`
}

// ProductResponse represents a storefront product with its variants
type ProductResponse struct {
	ID          uuid.UUID         `json:"id"`
	CategoryID  uuid.UUID         `json:"category_id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description,omitempty"`
	ImageURL    string            `json:"image_url,omitempty"`
	Variants    []VariantResponse `json:"variants"`
	CreatedAt   time.Time         `json:"created_at"`
}

// ProductListFilter narrows the product listing
type ProductListFilter struct {
	CategorySlug string `form:"category"`
	Search       string `form:"search"`
	Page         int    `form:"page"`
	PageSize     int    `form:"page_size"`
}

// ToCategoryResponse converts a domain category to a response DTO
func ToCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{
		ID:       c.ID,
		Name:     c.Name,
		Slug:     c.Slug,
		ParentID: c.ParentID,
		ImageURL: c.ImageURL,
	}
}

// ToProductResponse converts a domain product to a response DTO. Exact stock
// counts stay private; the storefront only sees availability.
func ToProductResponse(p *catalog.Product) ProductResponse {
	variants := make([]VariantResponse, 0, len(p.Variants))
	for i := range p.Variants {
		v := &p.Variants[i]
		variants = append(variants, VariantResponse{
			ID:        v.ID,
			SKU:       v.SKU,
			Name:      v.Name,
			Price:     v.Price,
			InStock:   v.Stock > 0,
			IsDefault: v.IsDefault,
		})
	}

	return ProductResponse{
		ID:          p.ID,
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Variants:    variants,
		CreatedAt:   p.CreatedAt,
	}
}
