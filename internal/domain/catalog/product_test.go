package catalog

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Mate Imperial", "mate-imperial"},
		{"  Termo  Acero 1L  ", "termo-acero-1l"},
		{"Yerba Orgánica", "yerba-org-nica"},
		{"UPPER case", "upper-case"},
		{"---already---", "already"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}
}

func TestNewProduct(t *testing.T) {
	t.Run("creates active product with derived slug", func(t *testing.T) {
		categoryID := uuid.New()
		p, err := NewProduct(categoryID, "Mate Imperial", "Calabaza curada")
		require.NoError(t, err)

		assert.Equal(t, categoryID, p.CategoryID)
		assert.Equal(t, "mate-imperial", p.Slug)
		assert.True(t, p.IsActive)
		assert.False(t, p.IsFeatured)
	})

	t.Run("rejects missing category", func(t *testing.T) {
		_, err := NewProduct(uuid.Nil, "Mate", "")
		assert.Error(t, err)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewProduct(uuid.New(), "   ", "")
		assert.Error(t, err)
	})
}

func TestProduct_Lifecycle(t *testing.T) {
	p, err := NewProduct(uuid.New(), "Mate", "")
	require.NoError(t, err)

	p.Feature(3)
	assert.True(t, p.IsFeatured)
	assert.Equal(t, 3, p.FeaturedOrder)

	p.Deactivate()
	assert.False(t, p.IsActive)

	p.Activate()
	assert.True(t, p.IsActive)
}

func TestProduct_DefaultVariant(t *testing.T) {
	p, err := NewProduct(uuid.New(), "Mate", "")
	require.NoError(t, err)

	t.Run("no variants", func(t *testing.T) {
		assert.Nil(t, p.DefaultVariant())
	})

	v1, err := NewProductVariant(p.ID, "SKU-1", "Clasico", decimal.RequireFromString("1500"), 5)
	require.NoError(t, err)
	v2, err := NewProductVariant(p.ID, "SKU-2", "Premium", decimal.RequireFromString("2200"), 5)
	require.NoError(t, err)
	v2.IsDefault = true
	p.Variants = []ProductVariant{*v1, *v2}

	t.Run("flagged variant wins", func(t *testing.T) {
		d := p.DefaultVariant()
		require.NotNil(t, d)
		assert.Equal(t, "SKU-2", d.SKU)
	})

	t.Run("falls back to the first variant", func(t *testing.T) {
		p.Variants[1].IsDefault = false
		d := p.DefaultVariant()
		require.NotNil(t, d)
		assert.Equal(t, "SKU-1", d.SKU)
	})
}

func TestNewProductVariant(t *testing.T) {
	productID := uuid.New()

	t.Run("creates variant", func(t *testing.T) {
		v, err := NewProductVariant(productID, "MATE-001", "Clasico", decimal.RequireFromString("1500.00"), 10)
		require.NoError(t, err)

		assert.Equal(t, productID, v.ProductID)
		assert.Equal(t, "MATE-001", v.SKU)
		assert.Equal(t, 10, v.Stock)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		_, err := NewProductVariant(uuid.Nil, "SKU", "", decimal.New(1, 0), 0)
		assert.Error(t, err)

		_, err = NewProductVariant(productID, "", "", decimal.New(1, 0), 0)
		assert.Error(t, err)

		_, err = NewProductVariant(productID, "SKU", "", decimal.RequireFromString("-1"), 0)
		assert.Error(t, err)

		_, err = NewProductVariant(productID, "SKU", "", decimal.New(1, 0), -1)
		assert.Error(t, err)
	})
}

func TestProductVariant_ChangePrice(t *testing.T) {
	v, err := NewProductVariant(uuid.New(), "SKU", "", decimal.RequireFromString("1000"), 5)
	require.NoError(t, err)

	require.NoError(t, v.ChangePrice(decimal.RequireFromString("1200")))
	assert.True(t, v.Price.Equal(decimal.RequireFromString("1200")))

	assert.Error(t, v.ChangePrice(decimal.RequireFromString("-5")))
}

func TestProductVariant_HasStock(t *testing.T) {
	v, err := NewProductVariant(uuid.New(), "SKU", "", decimal.New(1, 0), 3)
	require.NoError(t, err)

	assert.True(t, v.HasStock(1))
	assert.True(t, v.HasStock(3))
	assert.False(t, v.HasStock(4))
}

func TestNewCategory(t *testing.T) {
	t.Run("derives slug from name", func(t *testing.T) {
		c, err := NewCategory("Termos y Botellas", "", nil)
		require.NoError(t, err)
		assert.Equal(t, "termos-y-botellas", c.Slug)
		assert.True(t, c.IsRoot())
	})

	t.Run("keeps explicit slug", func(t *testing.T) {
		c, err := NewCategory("Mates", "mates-premium", nil)
		require.NoError(t, err)
		assert.Equal(t, "mates-premium", c.Slug)
	})

	t.Run("child category is not root", func(t *testing.T) {
		parentID := uuid.New()
		c, err := NewCategory("Calabaza", "", &parentID)
		require.NoError(t, err)
		assert.False(t, c.IsRoot())
	})

	t.Run("rejects invalid names", func(t *testing.T) {
		_, err := NewCategory("", "", nil)
		assert.Error(t, err)

		_, err = NewCategory(strings.Repeat("a", 101), "", nil)
		assert.Error(t, err)
	})
}
