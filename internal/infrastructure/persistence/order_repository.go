package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/order"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements order.Repository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by ID with its lines loaded
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUser finds an order by ID scoped to its owner
func (r *GormOrderRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("user_id = ? AND id = ?", userID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForUser lists a buyer's orders, newest first
func (r *GormOrderRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]order.Order, error) {
	query := r.db.WithContext(ctx).
		Preload("Lines").
		Where("user_id = ?", userID).
		Order("created_at DESC")

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var orderModels []models.OrderModel
	if err := query.Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]order.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// CountForUser counts a buyer's orders
func (r *GormOrderRepository) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByExternalReferenceForUpdate finds an order by its payment correlation
// key under an exclusive row lock. Unlike checkout's NOWAIT discipline this
// lock blocks, so concurrent notifications for the same order apply one at a
// time instead of failing each other.
func (r *GormOrderRepository) FindByExternalReferenceForUpdate(ctx context.Context, ref string) (*order.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_reference = ?", ref).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts the order header only
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	var model models.OrderModel
	model.FromDomain(o)
	return r.db.WithContext(ctx).Omit("Lines").Create(&model).Error
}

// CreateLines inserts all lines in a single batch
func (r *GormOrderRepository) CreateLines(ctx context.Context, lines []order.Line) error {
	if len(lines) == 0 {
		return nil
	}

	lineModels := make([]models.OrderLineModel, len(lines))
	for i := range lines {
		lineModels[i].FromDomain(&lines[i])
	}
	return r.db.WithContext(ctx).Create(&lineModels).Error
}

// Save persists header changes (status, total, payment fields)
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	var model models.OrderModel
	model.FromDomain(o)
	result := r.db.WithContext(ctx).Omit("Lines").Save(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormOrderRepository implements order.Repository
var _ order.Repository = (*GormOrderRepository)(nil)
