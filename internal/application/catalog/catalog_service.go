package catalog

import (
	"context"

	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/shared"
)

// CatalogService serves the storefront's read paths. Only active products
// are visible; stock numbers are reduced to availability flags.
type CatalogService struct {
	categoryRepo catalog.CategoryRepository
	productRepo  catalog.ProductRepository
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(categoryRepo catalog.CategoryRepository, productRepo catalog.ProductRepository) *CatalogService {
	return &CatalogService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
	}
}

// ListCategories returns the full category tree as a flat list
func (s *CatalogService) ListCategories(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, ToCategoryResponse(&categories[i]))
	}
	return out, nil
}

// ListProducts lists active products, optionally narrowed to a category
func (s *CatalogService) ListProducts(ctx context.Context, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 && filter.PageSize <= 100 {
		f.PageSize = filter.PageSize
	}
	f.Search = filter.Search

	var (
		products []catalog.Product
		total    int64
		err      error
	)

	if filter.CategorySlug != "" {
		category, err := s.categoryRepo.FindBySlug(ctx, filter.CategorySlug)
		if err != nil {
			return nil, err
		}
		products, err = s.productRepo.FindActiveByCategory(ctx, category.ID, f)
		if err != nil {
			return nil, err
		}
		total, err = s.productRepo.CountActiveByCategory(ctx, category.ID)
		if err != nil {
			return nil, err
		}
	} else {
		products, err = s.productRepo.FindActive(ctx, f)
		if err != nil {
			return nil, err
		}
		total, err = s.productRepo.CountActive(ctx, f)
		if err != nil {
			return nil, err
		}
	}

	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, ToProductResponse(&products[i]))
	}

	result := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &result, nil
}

// GetProductBySlug retrieves one active product with its variants
func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, shared.ErrNotFound
	}

	resp := ToProductResponse(product)
	return &resp, nil
}

// ListFeatured returns the curated featured products in display order
func (s *CatalogService) ListFeatured(ctx context.Context, limit int) ([]ProductResponse, error) {
	if limit <= 0 || limit > 20 {
		limit = 8
	}

	products, err := s.productRepo.FindFeatured(ctx, limit)
	if err != nil {
		return nil, err
	}

	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, ToProductResponse(&products[i]))
	}
	return out, nil
}
