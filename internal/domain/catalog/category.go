package catalog

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/shared"
)

// Category represents a node in the storefront category tree.
// Categories form a tree via ParentID; root categories have a nil parent.
type Category struct {
	shared.BaseAggregateRoot
	Name     string
	Slug     string
	ParentID *uuid.UUID
	ImageURL string
}

// NewCategory creates a new category. The slug is derived from the name when
// not provided.
func NewCategory(name, slug string, parentID *uuid.UUID) (*Category, error) {
	name = strings.TrimSpace(name)
	if err := validateCategoryName(name); err != nil {
		return nil, err
	}
	if slug == "" {
		slug = Slugify(name)
	}
	if err := validateSlug(slug); err != nil {
		return nil, err
	}

	return &Category{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Slug:              slug,
		ParentID:          parentID,
	}, nil
}

// IsRoot returns true if this is a top-level category
func (c *Category) IsRoot() bool {
	return c.ParentID == nil
}

var slugStripPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a display name into a URL-safe slug
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugStripPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func validateCategoryName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Category name cannot exceed 100 characters")
	}
	return nil
}

func validateSlug(slug string) error {
	if slug == "" {
		return shared.NewDomainError("INVALID_SLUG", "Slug cannot be empty")
	}
	if len(slug) > 120 {
		return shared.NewDomainError("INVALID_SLUG", "Slug cannot exceed 120 characters")
	}
	return nil
}
