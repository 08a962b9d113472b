package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CheckoutItem struct {
	ProductID     string `json:"productId" validate:"required"`
	Quantity      int32  `json:"quantity" validate:"required,gte=1"`
	SelectedSize  string `json:"selectedSize,omitempty"`
	SelectedColor string `json:"selectedColor,omitempty"`
}

type ShippingAddress struct {
	Address1 string `json:"address1" validate:"required"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city" validate:"required"`
	Zip      string `json:"zip" validate:"required"`
	Country  string `json:"country" validate:"required"`
}

type CheckoutIntentRequest struct {
	CustomerName  string          `json:"customerName" validate:"required"`
	CustomerEmail string          `json:"customerEmail" validate:"required,email"`
	Items         []*CheckoutItem `json:"items" validate:"required,min=1,dive"`
	DiscountCode  string          `json:"discountCode,omitempty"`
	Shipping      ShippingAddress `json:"shipping"`
}

type CheckoutIntentResponse struct {
	OrderID     string `json:"orderId"`
	RedirectURL string `json:"redirectUrl"`
}

type PayRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

type PayResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// OrderMinimal is the unauthenticated polling view: no customer or shipping
// fields, the order id itself is the capability.
type OrderMinimal struct {
	ID            string          `json:"id"`
	Total         decimal.Decimal `json:"total"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	CreatedAt     time.Time       `json:"createdAt"`
}

type ConfirmResponse struct {
	Paid  bool          `json:"paid"`
	Order *OrderMinimal `json:"order,omitempty"`
}

type DiscountPreviewRequest struct {
	Subtotal     decimal.Decimal `json:"subtotal"`
	DiscountCode string          `json:"discountCode"`
}

type DiscountPreviewResponse struct {
	Valid          bool            `json:"valid"`
	AppliedCode    *string         `json:"appliedCode"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Total          decimal.Decimal `json:"total"`
	Reason         *string         `json:"reason"`
}

type DiscountCreateRequest struct {
	Code       string          `json:"code" validate:"required"`
	Type       string          `json:"type" validate:"required,oneof=PERCENTAGE FIXED"`
	Value      decimal.Decimal `json:"value" validate:"required"`
	UsageLimit *int32          `json:"usageLimit,omitempty"`
	ExpiresAt  *time.Time      `json:"expiresAt,omitempty"`
	Active     *bool           `json:"active,omitempty"`
}

type DiscountUpdateRequest struct {
	Code       *string          `json:"code,omitempty"`
	Type       *string          `json:"type,omitempty" validate:"omitempty,oneof=PERCENTAGE FIXED"`
	Value      *decimal.Decimal `json:"value,omitempty"`
	UsageLimit *int32           `json:"usageLimit,omitempty"`
	ExpiresAt  *time.Time       `json:"expiresAt,omitempty"`
	Active     *bool            `json:"active,omitempty"`
}

type OrderAdminUpdateRequest struct {
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=PENDING PROCESSING SHIPPED DELIVERED CANCELLED"`
	PaymentStatus *string `json:"paymentStatus,omitempty" validate:"omitempty,oneof=PENDING PAID REFUNDED"`
}
