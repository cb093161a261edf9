package models

import (
	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CategoryModel is the persistence model for the Category domain entity.
type CategoryModel struct {
	AggregateModel
	Name     string     `gorm:"type:varchar(100);not null"`
	Slug     string     `gorm:"type:varchar(120);not null;uniqueIndex"`
	ParentID *uuid.UUID `gorm:"type:uuid;index"`
	ImageURL string     `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category entity.
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Slug:              m.Slug,
		ParentID:          m.ParentID,
		ImageURL:          m.ImageURL,
	}
}

// FromDomain populates the persistence model from a domain Category entity.
func (m *CategoryModel) FromDomain(c *catalog.Category) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Slug = c.Slug
	m.ParentID = c.ParentID
	m.ImageURL = c.ImageURL
}

// ProductModel is the persistence model for the Product domain entity.
type ProductModel struct {
	AggregateModel
	CategoryID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	Name          string                `gorm:"type:varchar(255);not null"`
	Slug          string                `gorm:"type:varchar(280);not null;uniqueIndex"`
	Description   string                `gorm:"type:text"`
	ImageURL      string                `gorm:"type:varchar(500)"`
	IsActive      bool                  `gorm:"not null;default:true;index"`
	IsFeatured    bool                  `gorm:"not null;default:false"`
	FeaturedOrder int                   `gorm:"not null;default:0"`
	Variants      []ProductVariantModel `gorm:"foreignKey:ProductID"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	variants := make([]catalog.ProductVariant, 0, len(m.Variants))
	for i := range m.Variants {
		variants = append(variants, *m.Variants[i].ToDomain())
	}

	return &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CategoryID:        m.CategoryID,
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		ImageURL:          m.ImageURL,
		IsActive:          m.IsActive,
		IsFeatured:        m.IsFeatured,
		FeaturedOrder:     m.FeaturedOrder,
		Variants:          variants,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
// Variants are mapped separately; the association is not written implicitly.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	m.CategoryID = p.CategoryID
	m.Name = p.Name
	m.Slug = p.Slug
	m.Description = p.Description
	m.ImageURL = p.ImageURL
	m.IsActive = p.IsActive
	m.IsFeatured = p.IsFeatured
	m.FeaturedOrder = p.FeaturedOrder
}

// ProductVariantModel is the persistence model for the ProductVariant entity.
// Stock is the inventory counter mutated under checkout row locks.
type ProductVariantModel struct {
	BaseModel
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU       string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	Name      string          `gorm:"type:varchar(255)"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock     int             `gorm:"not null;default:0"`
	IsDefault bool            `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain ProductVariant entity.
func (m *ProductVariantModel) ToDomain() *catalog.ProductVariant {
	return &catalog.ProductVariant{
		BaseEntity: m.BaseModel.ToDomain(),
		ProductID:  m.ProductID,
		SKU:        m.SKU,
		Name:       m.Name,
		Price:      m.Price,
		Stock:      m.Stock,
		IsDefault:  m.IsDefault,
	}
}

// FromDomain populates the persistence model from a domain ProductVariant entity.
func (m *ProductVariantModel) FromDomain(v *catalog.ProductVariant) {
	m.FromDomainBaseEntity(v.BaseEntity)
	m.ProductID = v.ProductID
	m.SKU = v.SKU
	m.Name = v.Name
	m.Price = v.Price
	m.Stock = v.Stock
	m.IsDefault = v.IsDefault
}
