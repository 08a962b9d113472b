package service

import (
	"context"
	"errors"
	"fmt"

	"checkout-service/internal/apperr"
	"checkout-service/internal/dto"
	"checkout-service/internal/model"
	"checkout-service/internal/repository"

	"gorm.io/gorm"
)

type OrderService interface {
	GetMinimal(ctx context.Context, id string) (*dto.OrderMinimal, error)
	Get(ctx context.Context, id string) (*model.Order, error)
	List(ctx context.Context, filter *repository.OrderFilter) ([]*model.Order, error)
	// AdminUpdate lets an operator move an order through the same state
	// machine the webhook drives; illegal transitions come back as
	// StateConflictError carrying the authoritative state.
	AdminUpdate(ctx context.Context, id string, req *dto.OrderAdminUpdateRequest) (*model.Order, error)
}

type orderServiceImpl struct {
	db           *gorm.DB
	orderRepo    repository.OrderRepository
	discountRepo repository.DiscountRepository
}

func NewOrderService(db *gorm.DB, orderRepo repository.OrderRepository, discountRepo repository.DiscountRepository) OrderService {
	return &orderServiceImpl{
		db:           db,
		orderRepo:    orderRepo,
		discountRepo: discountRepo,
	}
}

func (s *orderServiceImpl) GetMinimal(ctx context.Context, id string) (*dto.OrderMinimal, error) {
	order, err := s.orderRepo.FindMinimal(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Resource: "order", ID: id}
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	return minimalView(order), nil
}

func (s *orderServiceImpl) Get(ctx context.Context, id string) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Resource: "order", ID: id}
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	return order, nil
}

func (s *orderServiceImpl) List(ctx context.Context, filter *repository.OrderFilter) ([]*model.Order, error) {
	return s.orderRepo.List(ctx, filter)
}

func (s *orderServiceImpl) AdminUpdate(ctx context.Context, id string, req *dto.OrderAdminUpdateRequest) (*model.Order, error) {
	if req.Status == nil && req.PaymentStatus == nil {
		return nil, &apperr.ValidationError{Field: "body", Detail: "no fields to update"}
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.PaymentStatus != nil {
		if err := s.applyPaymentStatus(ctx, order, *req.PaymentStatus); err != nil {
			return nil, err
		}
		// settling may also have moved the fulfilment status
		if order, err = s.Get(ctx, id); err != nil {
			return nil, err
		}
	}

	if req.Status != nil {
		if err := s.applyStatus(ctx, order, *req.Status); err != nil {
			return nil, err
		}
	}

	return s.Get(ctx, id)
}

func (s *orderServiceImpl) applyPaymentStatus(ctx context.Context, order *model.Order, next string) error {
	if next == order.PaymentStatus {
		return nil
	}

	conflict := &apperr.StateConflictError{
		OrderID:       order.ID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
	}

	switch {
	case order.PaymentStatus == model.PaymentPending && next == model.PaymentPaid:
		// manual reconciliation goes through the same settlement as the
		// webhook so the discount redemption is still counted exactly once
		applied, _, err := settleOrderPaid(ctx, s.db, s.orderRepo, s.discountRepo, order.ID, "")
		if err != nil {
			return err
		}
		if !applied {
			return conflict
		}
		return nil

	case order.PaymentStatus == model.PaymentPaid && next == model.PaymentRefunded:
		rows, err := s.orderRepo.UpdateWhere(ctx, s.db, order.ID,
			map[string]interface{}{"payment_status": model.PaymentPaid},
			map[string]interface{}{"payment_status": model.PaymentRefunded},
		)
		if err != nil {
			return fmt.Errorf("refund order: %w", err)
		}
		if rows == 0 {
			return conflict
		}
		return nil

	default:
		// covers PAID→PENDING and every other regression
		return conflict
	}
}

func (s *orderServiceImpl) applyStatus(ctx context.Context, order *model.Order, next string) error {
	if next == model.OrderCancelled && order.PaymentStatus == model.PaymentPaid {
		return &apperr.StateConflictError{
			OrderID:       order.ID,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
		}
	}

	// guard on the observed status so a concurrent webhook transition is
	// detected instead of silently overwritten
	rows, err := s.orderRepo.UpdateWhere(ctx, s.db, order.ID,
		map[string]interface{}{"status": order.Status},
		map[string]interface{}{"status": next},
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if rows == 0 {
		current, getErr := s.Get(ctx, order.ID)
		if getErr != nil {
			return getErr
		}
		return &apperr.StateConflictError{
			OrderID:       current.ID,
			Status:        current.Status,
			PaymentStatus: current.PaymentStatus,
		}
	}
	return nil
}
