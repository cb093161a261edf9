package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shop/backend/internal/domain/catalog"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// lockNotAvailable is the PostgreSQL error code raised by FOR UPDATE NOWAIT
// when a row is already locked by another transaction.
const lockNotAvailable = "55P03"

// GormVariantRepository implements VariantRepository using GORM
type GormVariantRepository struct {
	db *gorm.DB
}

// NewGormVariantRepository creates a new GormVariantRepository
func NewGormVariantRepository(db *gorm.DB) *GormVariantRepository {
	return &GormVariantRepository{db: db}
}

// FindByID finds a product variant by ID
func (r *GormVariantRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.ProductVariant, error) {
	var model models.ProductVariantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple variants by their IDs
func (r *GormVariantRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.ProductVariant, error) {
	if len(ids) == 0 {
		return []catalog.ProductVariant{}, nil
	}

	var variantModels []models.ProductVariantModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&variantModels).Error; err != nil {
		return nil, err
	}

	variants := make([]catalog.ProductVariant, len(variantModels))
	for i := range variantModels {
		variants[i] = *variantModels[i].ToDomain()
	}
	return variants, nil
}

// Save creates or updates a product variant
func (r *GormVariantRepository) Save(ctx context.Context, variant *catalog.ProductVariant) error {
	var model models.ProductVariantModel
	model.FromDomain(variant)
	return r.db.WithContext(ctx).Save(&model).Error
}

// LockForCheckout locks all requested variant rows in one FOR UPDATE NOWAIT
// statement, joined with the owning product's name and active flag. A lock
// held by a concurrent checkout surfaces as CONCURRENCY_CONFLICT instead of
// queueing behind it. IDs with no matching row are absent from the result.
func (r *GormVariantRepository) LockForCheckout(ctx context.Context, ids []uuid.UUID) ([]catalog.LockedVariant, error) {
	if len(ids) == 0 {
		return []catalog.LockedVariant{}, nil
	}

	var rows []catalog.LockedVariant
	err := r.db.WithContext(ctx).
		Table("product_variants AS v").
		Select("v.id, v.product_id, v.sku, v.name AS variant_name, v.price, v.stock, p.name AS product_name, p.is_active AS product_active").
		Joins("JOIN products p ON p.id = v.product_id").
		Where("v.id IN ?", ids).
		Order("v.id").
		Clauses(clause.Locking{
			Strength: "UPDATE",
			Table:    clause.Table{Name: "v"},
			Options:  "NOWAIT",
		}).
		Scan(&rows).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == lockNotAvailable {
			return nil, shared.ErrConcurrencyConflict
		}
		return nil, err
	}
	return rows, nil
}

// UpdateStockBatch writes the given absolute stock counters in a single
// statement. Only the stock column is touched so concurrent edits to pricing
// or naming are never clobbered.
func (r *GormVariantRepository) UpdateStockBatch(ctx context.Context, adjustments []catalog.StockAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}

	values := make([]string, 0, len(adjustments))
	args := make([]interface{}, 0, len(adjustments)*2)
	for _, a := range adjustments {
		values = append(values, "(?::uuid, ?::int)")
		args = append(args, a.VariantID, a.Stock)
	}

	sql := fmt.Sprintf(
		"UPDATE product_variants AS v SET stock = u.stock, updated_at = NOW() FROM (VALUES %s) AS u(id, stock) WHERE v.id = u.id",
		strings.Join(values, ", "),
	)
	return r.db.WithContext(ctx).Exec(sql, args...).Error
}

// RestoreStock adds qty back to a variant's stock counter
func (r *GormVariantRepository) RestoreStock(ctx context.Context, variantID uuid.UUID, qty int) error {
	result := r.db.WithContext(ctx).
		Model(&models.ProductVariantModel{}).
		Where("id = ?", variantID).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", qty),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormVariantRepository implements VariantRepository
var _ catalog.VariantRepository = (*GormVariantRepository)(nil)
