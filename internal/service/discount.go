package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"checkout-service/internal/apperr"
	"checkout-service/internal/dto"
	"checkout-service/internal/model"
	"checkout-service/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Reasons a discount code fails to apply.
const (
	ReasonEmpty        = "EMPTY"
	ReasonNotFound     = "NOT_FOUND"
	ReasonInactive     = "INACTIVE"
	ReasonExpired      = "EXPIRED"
	ReasonLimitReached = "LIMIT_REACHED"
)

// Evaluation is the result of applying a code to a subtotal. Reason is nil
// when the code applies.
type Evaluation struct {
	Valid          bool
	AppliedCode    *string
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	Reason         *string
}

type DiscountService interface {
	// Evaluate is a pure read: safe to call on every keystroke of a live
	// preview, never touches UsageCount.
	Evaluate(ctx context.Context, subtotal decimal.Decimal, rawCode string) (*Evaluation, error)
	Create(ctx context.Context, req *dto.DiscountCreateRequest) (*model.Discount, error)
	List(ctx context.Context) ([]*model.Discount, error)
	Update(ctx context.Context, id uint, req *dto.DiscountUpdateRequest) (*model.Discount, error)
	Delete(ctx context.Context, id uint) error
}

type discountServiceImpl struct {
	discountRepo repository.DiscountRepository
}

func NewDiscountService(discountRepo repository.DiscountRepository) DiscountService {
	return &discountServiceImpl{
		discountRepo: discountRepo,
	}
}

func rejected(subtotal decimal.Decimal, reason string) *Evaluation {
	return &Evaluation{
		Valid:          false,
		DiscountAmount: decimal.Zero,
		Total:          subtotal,
		Reason:         &reason,
	}
}

func (s *discountServiceImpl) Evaluate(ctx context.Context, subtotal decimal.Decimal, rawCode string) (*Evaluation, error) {
	code := strings.ToUpper(strings.TrimSpace(rawCode))
	if code == "" {
		return rejected(subtotal, ReasonEmpty), nil
	}

	discount, err := s.discountRepo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rejected(subtotal, ReasonNotFound), nil
		}
		return nil, fmt.Errorf("find discount by code: %w", err)
	}

	// expiry wins over the other flags
	if discount.ExpiresAt != nil && discount.ExpiresAt.Before(time.Now()) {
		return rejected(subtotal, ReasonExpired), nil
	}
	if !discount.Active {
		return rejected(subtotal, ReasonInactive), nil
	}
	if discount.UsageLimit != nil && discount.UsageCount >= *discount.UsageLimit {
		return rejected(subtotal, ReasonLimitReached), nil
	}

	var amount decimal.Decimal
	switch discount.Type {
	case model.DiscountPercentage:
		amount = subtotal.Mul(discount.Value).Div(decimal.NewFromInt(100))
	default: // FIXED, uncapped; only the total is clamped
		amount = discount.Value
	}

	total := subtotal.Sub(amount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return &Evaluation{
		Valid:          true,
		AppliedCode:    &discount.Code,
		DiscountAmount: amount,
		Total:          total,
	}, nil
}

func (s *discountServiceImpl) Create(ctx context.Context, req *dto.DiscountCreateRequest) (*model.Discount, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return nil, &apperr.ValidationError{Field: "code", Detail: "required"}
	}
	if req.Type != model.DiscountPercentage && req.Type != model.DiscountFixed {
		return nil, &apperr.ValidationError{Field: "type", Detail: "must be PERCENTAGE or FIXED"}
	}
	if !req.Value.IsPositive() {
		return nil, &apperr.ValidationError{Field: "value", Detail: "must be positive"}
	}
	if req.UsageLimit != nil && *req.UsageLimit < 1 {
		return nil, &apperr.ValidationError{Field: "usageLimit", Detail: "must be at least 1"}
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	discount := &model.Discount{
		Code:       code,
		Type:       req.Type,
		Value:      req.Value,
		UsageLimit: req.UsageLimit,
		ExpiresAt:  req.ExpiresAt,
		Active:     active,
	}
	if err := s.discountRepo.Create(ctx, discount); err != nil {
		return nil, fmt.Errorf("create discount: %w", err)
	}

	return discount, nil
}

func (s *discountServiceImpl) List(ctx context.Context) ([]*model.Discount, error) {
	return s.discountRepo.List(ctx)
}

func (s *discountServiceImpl) Update(ctx context.Context, id uint, req *dto.DiscountUpdateRequest) (*model.Discount, error) {
	fields := map[string]interface{}{}
	if req.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*req.Code))
		if code == "" {
			return nil, &apperr.ValidationError{Field: "code", Detail: "required"}
		}
		fields["code"] = code
	}
	if req.Type != nil {
		if *req.Type != model.DiscountPercentage && *req.Type != model.DiscountFixed {
			return nil, &apperr.ValidationError{Field: "type", Detail: "must be PERCENTAGE or FIXED"}
		}
		fields["type"] = *req.Type
	}
	if req.Value != nil {
		if !req.Value.IsPositive() {
			return nil, &apperr.ValidationError{Field: "value", Detail: "must be positive"}
		}
		fields["value"] = *req.Value
	}
	if req.UsageLimit != nil {
		fields["usage_limit"] = *req.UsageLimit
	}
	if req.ExpiresAt != nil {
		fields["expires_at"] = *req.ExpiresAt
	}
	if req.Active != nil {
		fields["active"] = *req.Active
	}
	if len(fields) == 0 {
		return nil, &apperr.ValidationError{Field: "body", Detail: "no fields to update"}
	}

	if err := s.discountRepo.Update(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Resource: "discount", ID: fmt.Sprint(id)}
		}
		return nil, fmt.Errorf("update discount: %w", err)
	}

	return s.discountRepo.FindByID(ctx, id)
}

func (s *discountServiceImpl) Delete(ctx context.Context, id uint) error {
	if err := s.discountRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperr.NotFoundError{Resource: "discount", ID: fmt.Sprint(id)}
		}
		return fmt.Errorf("delete discount: %w", err)
	}
	return nil
}
