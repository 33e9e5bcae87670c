package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/basket"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormBasketRepository implements BasketRepository using GORM
type GormBasketRepository struct {
	db *gorm.DB
}

// NewGormBasketRepository creates a new GormBasketRepository
func NewGormBasketRepository(db *gorm.DB) *GormBasketRepository {
	return &GormBasketRepository{db: db}
}

// withLines preloads lines in insertion order together with their products
func withLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("basket_items.created_at ASC, basket_items.id ASC")
		}).
		Preload("Items.Product")
}

// FindActiveByUser returns the user's open basket. The FOR UPDATE clause
// only applies to the basket row; preloads run as separate plain selects.
func (r *GormBasketRepository) FindActiveByUser(ctx context.Context, userID uuid.UUID, forUpdate bool) (*basket.Basket, error) {
	query := r.db.WithContext(ctx)
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var model models.BasketModel
	if err := withLines(query).
		Where("user_id = ? AND active = ?", userID, true).
		Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("No active basket").
				WithDetails(map[string]any{"user_id": userID})
		}
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUser returns a basket owned by the user, open or closed
func (r *GormBasketRepository) FindByIDForUser(ctx context.Context, userID, basketID uuid.UUID) (*basket.Basket, error) {
	var model models.BasketModel
	if err := withLines(r.db.WithContext(ctx)).
		Where("id = ? AND user_id = ?", basketID, userID).
		Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound.WithMessage("Basket not found").
				WithDetails(map[string]any{"basket_id": basketID})
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForUser lists the user's baskets, newest first by default
func (r *GormBasketRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]basket.Basket, error) {
	query := withLines(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order(basketSort.orderBy(filter.OrderBy, filter.OrderDir)).
		Order("id")
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.BasketModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	baskets := make([]basket.Basket, 0, len(rows))
	for i := range rows {
		baskets = append(baskets, *rows[i].ToDomain())
	}
	return baskets, nil
}

// CountForUser counts the user's baskets
func (r *GormBasketRepository) CountForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.BasketModel{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create inserts a new basket. A unique violation on uq_baskets_user_active
// means another request opened the basket first.
func (r *GormBasketRepository) Create(ctx context.Context, b *basket.Basket) error {
	model := models.BasketModelFromDomain(b)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrConcurrencyConflict.WithMessage("Active basket was created concurrently").
				WithDetails(map[string]any{"user_id": b.UserID})
		}
		return translateError(err)
	}
	return nil
}

// UpdateTotals persists the running total of an open basket
func (r *GormBasketRepository) UpdateTotals(ctx context.Context, b *basket.Basket) error {
	result := r.db.WithContext(ctx).
		Model(&models.BasketModel{}).
		Where("id = ? AND active = ?", b.ID, true).
		Updates(map[string]any{
			"total_price": b.TotalPrice,
			"version":     b.Version,
			"updated_at":  b.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithMessage("Basket is no longer open").
			WithDetails(map[string]any{"basket_id": b.ID})
	}
	return nil
}

// SaveItem inserts a line or updates its quantity. The price column is never
// overwritten so the snapshot taken at first add survives.
func (r *GormBasketRepository) SaveItem(ctx context.Context, item *basket.BasketItem) error {
	model := models.BasketItemModelFromDomain(item)
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
		}).
		Create(model).Error
	if err != nil {
		if isForeignKeyViolation(err) {
			return shared.ErrNotFound.WithMessage("Product not found").
				WithDetails(map[string]any{"item_id": item.ID})
		}
		return translateError(err)
	}
	return nil
}

// DeleteItem removes a line
func (r *GormBasketRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.BasketItemModel{}, "id = ?", itemID)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound.WithMessage("Basket item not found").
			WithDetails(map[string]any{"item_id": itemID})
	}
	return nil
}

// Close flips an open basket to closed with a guarded UPDATE ... WHERE active
func (r *GormBasketRepository) Close(ctx context.Context, basketID uuid.UUID, checkedOutAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.BasketModel{}).
		Where("id = ? AND active = ?", basketID, true).
		Updates(map[string]any{
			"active":         false,
			"checked_out_at": checkedOutAt,
			"version":        gorm.Expr("version + 1"),
			"updated_at":     checkedOutAt,
		})
	if result.Error != nil {
		return false, translateError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

// Ensure GormBasketRepository implements BasketRepository
var _ basket.BasketRepository = (*GormBasketRepository)(nil)
