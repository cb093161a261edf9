package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newCatalogDB opens an in-memory database with the catalog schema. SQLite is
// enough for the plain CRUD paths; locking behavior is covered separately
// against PostgreSQL.
func newCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.CategoryModel{},
		&models.ProductModel{},
		&models.ProductVariantModel{},
	))
	return db
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *catalog.Category {
	t.Helper()
	c, err := catalog.NewCategory(name, "", nil)
	require.NoError(t, err)
	require.NoError(t, NewGormCategoryRepository(db).Save(context.Background(), c))
	return c
}

func seedProduct(t *testing.T, db *gorm.DB, categoryID uuid.UUID, name string) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(categoryID, name, "")
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Save(context.Background(), p))
	return p
}

func TestGormCategoryRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("save and find by ID", func(t *testing.T) {
		db := newCatalogDB(t)
		repo := NewGormCategoryRepository(db)

		c := seedCategory(t, db, "Mates")

		found, err := repo.FindByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "Mates", found.Name)
		assert.Equal(t, c.Slug, found.Slug)
		assert.Nil(t, found.ParentID)
	})

	t.Run("find by slug", func(t *testing.T) {
		db := newCatalogDB(t)
		repo := NewGormCategoryRepository(db)

		c := seedCategory(t, db, "Termos y Botellas")

		found, err := repo.FindBySlug(ctx, c.Slug)
		require.NoError(t, err)
		assert.Equal(t, c.ID, found.ID)

		_, err = repo.FindBySlug(ctx, "no-such-slug")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("find all ordered by name", func(t *testing.T) {
		db := newCatalogDB(t)
		repo := NewGormCategoryRepository(db)

		seedCategory(t, db, "Yerbas")
		seedCategory(t, db, "Bombillas")
		seedCategory(t, db, "Mates")

		all, err := repo.FindAll(ctx)
		require.NoError(t, err)

		require.Len(t, all, 3)
		assert.Equal(t, "Bombillas", all[0].Name)
		assert.Equal(t, "Mates", all[1].Name)
		assert.Equal(t, "Yerbas", all[2].Name)
	})

	t.Run("find children of a parent", func(t *testing.T) {
		db := newCatalogDB(t)
		repo := NewGormCategoryRepository(db)

		parent := seedCategory(t, db, "Mates")
		child, err := catalog.NewCategory("Mates de Calabaza", "", &parent.ID)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, child))
		seedCategory(t, db, "Bombillas")

		children, err := repo.FindChildren(ctx, parent.ID)
		require.NoError(t, err)

		require.Len(t, children, 1)
		assert.Equal(t, child.ID, children[0].ID)
		require.NotNil(t, children[0].ParentID)
		assert.Equal(t, parent.ID, *children[0].ParentID)
	})

	t.Run("missing ID reports not found", func(t *testing.T) {
		db := newCatalogDB(t)
		repo := NewGormCategoryRepository(db)

		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormProductRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("save and find with variants", func(t *testing.T) {
		db := newCatalogDB(t)
		productRepo := NewGormProductRepository(db)
		variantRepo := NewGormVariantRepository(db)

		c := seedCategory(t, db, "Mates")
		p := seedProduct(t, db, c.ID, "Mate Imperial")

		v, err := catalog.NewProductVariant(p.ID, "MATE-001", "Clasico", decimal.RequireFromString("1500.00"), 10)
		require.NoError(t, err)
		require.NoError(t, variantRepo.Save(ctx, v))

		found, err := productRepo.FindByID(ctx, p.ID)
		require.NoError(t, err)

		assert.Equal(t, "Mate Imperial", found.Name)
		assert.True(t, found.IsActive)
		require.Len(t, found.Variants, 1)
		assert.Equal(t, "MATE-001", found.Variants[0].SKU)
		assert.Equal(t, 10, found.Variants[0].Stock)
		assert.True(t, found.Variants[0].Price.Equal(decimal.RequireFromString("1500")))
	})

	t.Run("find by slug", func(t *testing.T) {
		db := newCatalogDB(t)
		repo := NewGormProductRepository(db)

		c := seedCategory(t, db, "Mates")
		p := seedProduct(t, db, c.ID, "Mate Torpedo Acero")

		found, err := repo.FindBySlug(ctx, p.Slug)
		require.NoError(t, err)
		assert.Equal(t, p.ID, found.ID)

		_, err = repo.FindBySlug(ctx, "missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("active listing excludes deactivated products", func(t *testing.T) {
		db := newCatalogDB(t)
		repo := NewGormProductRepository(db)

		c := seedCategory(t, db, "Mates")
		seedProduct(t, db, c.ID, "Visible")
		hidden := seedProduct(t, db, c.ID, "Hidden")
		hidden.Deactivate()
		require.NoError(t, repo.Save(ctx, hidden))

		products, err := repo.FindActive(ctx, shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "Visible", products[0].Name)

		count, err := repo.CountActive(ctx, shared.Filter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("listing by category", func(t *testing.T) {
		db := newCatalogDB(t)
		repo := NewGormProductRepository(db)

		mates := seedCategory(t, db, "Mates")
		yerbas := seedCategory(t, db, "Yerbas")
		seedProduct(t, db, mates.ID, "Mate Imperial")
		seedProduct(t, db, yerbas.ID, "Yerba Organica")

		products, err := repo.FindActiveByCategory(ctx, mates.ID, shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "Mate Imperial", products[0].Name)

		count, err := repo.CountActiveByCategory(ctx, yerbas.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("featured listing honors curated order", func(t *testing.T) {
		db := newCatalogDB(t)
		repo := NewGormProductRepository(db)

		c := seedCategory(t, db, "Mates")
		second := seedProduct(t, db, c.ID, "Second")
		second.Feature(2)
		require.NoError(t, repo.Save(ctx, second))
		first := seedProduct(t, db, c.ID, "First")
		first.Feature(1)
		require.NoError(t, repo.Save(ctx, first))
		seedProduct(t, db, c.ID, "Unfeatured")

		featured, err := repo.FindFeatured(ctx, 10)
		require.NoError(t, err)

		require.Len(t, featured, 2)
		assert.Equal(t, "First", featured[0].Name)
		assert.Equal(t, "Second", featured[1].Name)
	})

	t.Run("variant lookups", func(t *testing.T) {
		db := newCatalogDB(t)
		variantRepo := NewGormVariantRepository(db)

		c := seedCategory(t, db, "Mates")
		p := seedProduct(t, db, c.ID, "Mate Imperial")

		v1, err := catalog.NewProductVariant(p.ID, "MATE-001", "Clasico", decimal.RequireFromString("1500"), 10)
		require.NoError(t, err)
		v2, err := catalog.NewProductVariant(p.ID, "MATE-002", "Premium", decimal.RequireFromString("2200"), 5)
		require.NoError(t, err)
		require.NoError(t, variantRepo.Save(ctx, v1))
		require.NoError(t, variantRepo.Save(ctx, v2))

		found, err := variantRepo.FindByID(ctx, v1.ID)
		require.NoError(t, err)
		assert.Equal(t, "MATE-001", found.SKU)

		both, err := variantRepo.FindByIDs(ctx, []uuid.UUID{v1.ID, v2.ID})
		require.NoError(t, err)
		assert.Len(t, both, 2)

		_, err = variantRepo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
