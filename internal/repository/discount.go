package repository

import (
	"context"
	"time"

	"checkout-service/internal/model"

	"gorm.io/gorm"
)

type DiscountRepository interface {
	Create(ctx context.Context, discount *model.Discount) error
	FindByCode(ctx context.Context, code string) (*model.Discount, error)
	FindByID(ctx context.Context, id uint) (*model.Discount, error)
	List(ctx context.Context) ([]*model.Discount, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	IncrementUsage(ctx context.Context, tx *gorm.DB, code string) error
}

type discountRepoImpl struct {
	db *gorm.DB
}

func NewDiscountRepository(db *gorm.DB) DiscountRepository {
	return &discountRepoImpl{
		db: db,
	}
}

func (r *discountRepoImpl) Create(ctx context.Context, discount *model.Discount) error {
	return r.db.WithContext(ctx).Create(discount).Error
}

// FindByCode expects the code already normalized to uppercase.
func (r *discountRepoImpl) FindByCode(ctx context.Context, code string) (*model.Discount, error) {
	var discount model.Discount
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&discount).Error

	if err != nil {
		return nil, err
	}

	return &discount, nil
}

func (r *discountRepoImpl) FindByID(ctx context.Context, id uint) (*model.Discount, error) {
	var discount model.Discount
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&discount).Error

	if err != nil {
		return nil, err
	}

	return &discount, nil
}

func (r *discountRepoImpl) List(ctx context.Context) ([]*model.Discount, error) {
	var discounts []*model.Discount
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&discounts).Error

	if err != nil {
		return nil, err
	}

	return discounts, nil
}

func (r *discountRepoImpl) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	res := r.db.WithContext(ctx).Model(&model.Discount{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *discountRepoImpl) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Discount{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementUsage counts one redemption. Callers run it in the same
// transaction as the PENDING→PAID update and only when that update actually
// landed, which keeps duplicate webhook delivery from double counting.
func (r *discountRepoImpl) IncrementUsage(ctx context.Context, tx *gorm.DB, code string) error {
	return tx.WithContext(ctx).Model(&model.Discount{}).
		Where("code = ?", code).
		Updates(map[string]interface{}{
			"usage_count": gorm.Expr("usage_count + ?", 1),
			"updated_at":  time.Now(),
		}).Error
}
