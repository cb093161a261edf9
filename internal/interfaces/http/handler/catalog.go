package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	catalogapp "github.com/shop/backend/internal/application/catalog"
	"github.com/shop/backend/internal/interfaces/http/middleware"
)

// CatalogHandler serves the public storefront read paths
type CatalogHandler struct {
	BaseHandler
	catalogService *catalogapp.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService *catalogapp.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
	}
}

// ListCategories returns all categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	categories, err := h.catalogService.ListCategories(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// ListProducts returns active products, optionally filtered by category slug
// and search keyword
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	var filter catalogapp.ProductListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.catalogService.ListProducts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// GetProductBySlug returns one active product with its variants
func (h *CatalogHandler) GetProductBySlug(c *gin.Context) {
	slug := c.Param("slug")
	if slug == "" {
		h.BadRequest(c, "Product slug is required")
		return
	}

	product, err := h.catalogService.GetProductBySlug(c.Request.Context(), slug)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, product)
}

// ListFeatured returns the curated featured products
func (h *CatalogHandler) ListFeatured(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.BadRequest(c, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	products, err := h.catalogService.ListFeatured(c.Request.Context(), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, products)
}
