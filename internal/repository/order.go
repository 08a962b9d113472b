package repository

import (
	"context"
	"time"

	"checkout-service/internal/model"

	"gorm.io/gorm"
)

type OrderFilter struct {
	Status        string
	PaymentStatus string
}

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByID(ctx context.Context, id string) (*model.Order, error)
	FindBySessionID(ctx context.Context, sessionID string) (*model.Order, error)
	FindMinimal(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context, filter *OrderFilter) ([]*model.Order, error)
	SetSessionID(ctx context.Context, tx *gorm.DB, id, sessionID string) error
	MarkPaid(ctx context.Context, tx *gorm.DB, id, sessionID string) (*model.Order, bool, error)
	MarkCancelled(ctx context.Context, tx *gorm.DB, id string) (bool, error)
	UpdateWhere(ctx context.Context, tx *gorm.DB, id string, guard map[string]interface{}, fields map[string]interface{}) (int64, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Omit("Items").Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindBySessionID(ctx context.Context, sessionID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("stripe_session_id = ?", sessionID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

// FindMinimal selects only the fields safe to expose to an unauthenticated
// caller polling payment state.
func (r *orderRepoImpl) FindMinimal(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Select("id", "total", "currency", "status", "payment_status", "created_at").
		Where("id = ?", id).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) List(ctx context.Context, filter *OrderFilter) ([]*model.Order, error) {
	q := r.db.WithContext(ctx).Preload("Items").Order("created_at DESC")
	if filter != nil {
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.PaymentStatus != "" {
			q = q.Where("payment_status = ?", filter.PaymentStatus)
		}
	}

	var orders []*model.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepoImpl) SetSessionID(ctx context.Context, tx *gorm.DB, id, sessionID string) error {
	res := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stripe_session_id": sessionID,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkPaid performs the PENDING→PAID transition as a single conditional
// update so racing confirmations (browser return vs webhook) cannot both
// win. The bool reports whether this call applied the transition.
func (r *orderRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, id, sessionID string) (*model.Order, bool, error) {
	fields := map[string]interface{}{
		"payment_status": model.PaymentPaid,
		"status":         model.OrderProcessing,
		"updated_at":     time.Now(),
	}
	if sessionID != "" {
		fields["stripe_session_id"] = sessionID
	}

	res := tx.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status = ?", id, model.PaymentPending).
		Updates(fields)
	if res.Error != nil {
		return nil, false, res.Error
	}
	applied := res.RowsAffected == 1

	var order model.Order
	if err := tx.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, false, err
	}

	return &order, applied, nil
}

// MarkCancelled cancels an order only while it is still PENDING/PENDING; a
// paid order is never cancelled by an expiry signal.
func (r *orderRepoImpl) MarkCancelled(ctx context.Context, tx *gorm.DB, id string) (bool, error) {
	res := tx.WithContext(ctx).Model(&model.Order{}).
		Where(`
			id = ?
			AND status = ?
			AND payment_status = ?
		`,
			id,
			model.OrderPending,
			model.PaymentPending,
		).
		Updates(map[string]interface{}{
			"status":     model.OrderCancelled,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}

// UpdateWhere applies fields guarded on the caller's observed state; the
// returned row count lets the caller detect a lost race.
func (r *orderRepoImpl) UpdateWhere(ctx context.Context, tx *gorm.DB, id string, guard map[string]interface{}, fields map[string]interface{}) (int64, error) {
	fields["updated_at"] = time.Now()
	q := tx.WithContext(ctx).Model(&model.Order{}).Where("id = ?", id)
	for col, val := range guard {
		q = q.Where(col+" = ?", val)
	}
	res := q.Updates(fields)
	return res.RowsAffected, res.Error
}
