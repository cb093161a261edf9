package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	FindAll(ctx context.Context) ([]Category, error)
	FindChildren(ctx context.Context, parentID uuid.UUID) ([]Category, error)
	Save(ctx context.Context, category *Category) error
}

// ProductRepository defines the interface for product persistence.
// Read methods return products with their variants loaded.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	FindActive(ctx context.Context, filter shared.Filter) ([]Product, error)
	FindActiveByCategory(ctx context.Context, categoryID uuid.UUID, filter shared.Filter) ([]Product, error)
	FindFeatured(ctx context.Context, limit int) ([]Product, error)
	CountActive(ctx context.Context, filter shared.Filter) (int64, error)
	CountActiveByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
	Save(ctx context.Context, product *Product) error
}

// LockedVariant is a variant row read under an exclusive row lock during
// checkout, joined with the owning product's sale state. The caller holds the
// lock until its transaction commits or rolls back.
type LockedVariant struct {
	ID            uuid.UUID
	ProductID     uuid.UUID
	SKU           string
	VariantName   string
	ProductName   string
	ProductActive bool
	Price         decimal.Decimal
	Stock         int
}

// StockAdjustment is one variant's new absolute stock counter, applied as
// part of a batch write while the checkout locks are still held.
type StockAdjustment struct {
	VariantID uuid.UUID
	Stock     int
}

// VariantRepository defines the interface for variant persistence and the
// inventory locking discipline used by checkout.
type VariantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ProductVariant, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]ProductVariant, error)
	Save(ctx context.Context, variant *ProductVariant) error

	// LockForCheckout acquires exclusive row locks on all given variants in a
	// single batched statement without waiting: if any row is already locked
	// by a concurrent transaction the whole call fails with
	// CONCURRENCY_CONFLICT rather than queueing. Rows are returned joined
	// with the owning product's name and active flag. Missing IDs are simply
	// absent from the result.
	LockForCheckout(ctx context.Context, ids []uuid.UUID) ([]LockedVariant, error)

	// UpdateStockBatch persists the given absolute stock counters in one
	// batch write. Only the stock column is touched.
	UpdateStockBatch(ctx context.Context, adjustments []StockAdjustment) error

	// RestoreStock adds qty back to a variant's stock counter
	RestoreStock(ctx context.Context, variantID uuid.UUID, qty int) error
}
