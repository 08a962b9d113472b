package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order fulfilment statuses.
const (
	OrderPending    = "PENDING"
	OrderProcessing = "PROCESSING"
	OrderShipped    = "SHIPPED"
	OrderDelivered  = "DELIVERED"
	OrderCancelled  = "CANCELLED"
)

// Payment statuses. PENDING→PAID happens via the webhook reconciler (or the
// synchronous confirm fallback); PAID→PENDING never happens.
const (
	PaymentPending  = "PENDING"
	PaymentPaid     = "PAID"
	PaymentRefunded = "REFUNDED"
)

// Discount types.
const (
	DiscountPercentage = "PERCENTAGE"
	DiscountFixed      = "FIXED"
)

type Product struct {
	ID        string          `gorm:"primaryKey;size:64;not null"` // catalog sku
	Title     string          `gorm:"size:255;not null"`
	Handle    string          `gorm:"size:255;index"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Currency  string          `gorm:"size:8;not null"`
	ImageURL  string          `gorm:"size:512"`
	SKU       string          `gorm:"size:64"`
	Sizes     string          `gorm:"size:255"` // comma separated
	Colors    string          `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Order struct {
	ID            string `gorm:"primaryKey;size:36;not null"` // uuid
	CustomerName  string `gorm:"size:255;not null"`
	CustomerEmail string `gorm:"size:255;index;not null"`

	ShippingAddress1 string `gorm:"size:255"`
	ShippingAddress2 string `gorm:"size:255"`
	ShippingCity     string `gorm:"size:128"`
	ShippingZip      string `gorm:"size:32"`
	ShippingCountry  string `gorm:"size:64"`

	Currency       string          `gorm:"size:8;not null"`
	OriginalTotal  decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DiscountCode   *string         `gorm:"size:64"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	// Total = max(OriginalTotal - DiscountAmount, 0), fixed at intent time.
	Total decimal.Decimal `gorm:"type:decimal(10,2);not null"`

	Status        string `gorm:"size:32;index;not null"`
	PaymentStatus string `gorm:"size:32;index;not null"`

	// Correlation fallback for inbound gateway events; the primary path is
	// the order id carried in the session metadata.
	StripeSessionID string `gorm:"size:128;index"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem snapshots the product at checkout time. Catalog edits after the
// order is placed must not change what the customer sees on the order.
type OrderItem struct {
	ID      uint   `gorm:"primaryKey"`
	OrderID string `gorm:"size:36;index;not null"`

	// nullable so deleting a product keeps historical orders intact
	ProductID *string `gorm:"size:64;index"`

	Title         string          `gorm:"size:255;not null"`
	Handle        string          `gorm:"size:255"`
	UnitPrice     decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity      int32           `gorm:"not null"`
	SelectedSize  string          `gorm:"size:32"`
	SelectedColor string          `gorm:"size:32"`
	SKU           string          `gorm:"size:64"`
	ImageURL      string          `gorm:"size:512"`

	CreatedAt time.Time
}

type Discount struct {
	ID         uint            `gorm:"primaryKey"`
	Code       string          `gorm:"size:64;uniqueIndex;not null"` // stored uppercase
	Type       string          `gorm:"size:16;not null"`             // PERCENTAGE, FIXED
	Value      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	UsageCount int32           `gorm:"not null;default:0"`
	UsageLimit *int32
	ExpiresAt  *time.Time
	Active     bool `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// WebhookEvent is the dedup ledger for the gateway's at-least-once delivery.
type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
