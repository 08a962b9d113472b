package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"checkout-service/internal/apperr"
	"checkout-service/internal/client"
	"checkout-service/internal/dto"
	"checkout-service/internal/model"
	"checkout-service/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
		&model.Discount{},
		&model.WebhookEvent{},
	); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	return db
}

// fakeStripe stands in for the hosted gateway. ConstructEvent treats the
// literal header "valid" as authentic; real signature math is covered by the
// client package tests.
type fakeStripe struct {
	createErr error
	created   []*client.CreateSessionParams
	sessions  map[string]*client.CheckoutSession
	nextID    int
}

func newFakeStripe() *fakeStripe {
	return &fakeStripe{sessions: map[string]*client.CheckoutSession{}}
}

func (f *fakeStripe) CreateCheckoutSession(ctx context.Context, p *client.CreateSessionParams) (*client.CheckoutSession, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	f.created = append(f.created, p)

	session := &client.CheckoutSession{
		ID:            fmt.Sprintf("cs_test_%03d", f.nextID),
		URL:           fmt.Sprintf("https://checkout.stripe.test/pay/cs_test_%03d", f.nextID),
		Status:        "open",
		PaymentStatus: "unpaid",
		Metadata:      map[string]string{"order_id": p.OrderID},
	}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeStripe) RetrieveSession(ctx context.Context, sessionID string) (*client.CheckoutSession, error) {
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, &apperr.GatewayError{Op: "retrieve session", Err: fmt.Errorf("no such session %s", sessionID)}
	}
	return session, nil
}

func (f *fakeStripe) ConstructEvent(payload []byte, sigHeader string) (*client.Event, error) {
	if sigHeader != "valid" {
		return nil, apperr.ErrSignature
	}
	var event client.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// markSessionPaid flips the fake gateway's view of a session, as if the
// customer completed the hosted page.
func (f *fakeStripe) markSessionPaid(sessionID string) {
	if s, ok := f.sessions[sessionID]; ok {
		s.Status = "complete"
		s.PaymentStatus = client.SessionPaid
	}
}

type testEnv struct {
	db          *gorm.DB
	stripe      *fakeStripe
	products    repository.ProductRepository
	orders      repository.OrderRepository
	discounts   repository.DiscountRepository
	events      repository.WebhookEventRepository
	discountSvc DiscountService
	checkout    CheckoutService
	webhook     WebhookService
	orderSvc    OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	stripe := newFakeStripe()
	products := repository.NewProductRepository(db)
	orders := repository.NewOrderRepository(db)
	discounts := repository.NewDiscountRepository(db)
	events := repository.NewWebhookEventRepository(db)
	discountSvc := NewDiscountService(discounts)

	return &testEnv{
		db:          db,
		stripe:      stripe,
		products:    products,
		orders:      orders,
		discounts:   discounts,
		events:      events,
		discountSvc: discountSvc,
		checkout:    NewCheckoutService(db, stripe, "http://localhost:8080", products, orders, discounts, discountSvc),
		webhook:     NewWebhookService(db, stripe, orders, discounts, events),
		orderSvc:    NewOrderService(db, orders, discounts),
	}
}

func (e *testEnv) seedProducts(t *testing.T) {
	t.Helper()

	products := []model.Product{
		{ID: "linen-shirt", Title: "Linen Shirt", Handle: "linen-shirt", Price: decimal.RequireFromString("10.00"), Currency: "EUR", SKU: "LS-001", ImageURL: "https://cdn.example.com/linen-shirt.jpg"},
		{ID: "wool-scarf", Title: "Wool Scarf", Handle: "wool-scarf", Price: decimal.RequireFromString("25.50"), Currency: "EUR", SKU: "WS-001"},
	}
	if err := e.db.Create(&products).Error; err != nil {
		t.Fatalf("seed products: %v", err)
	}
}

func (e *testEnv) seedDiscount(t *testing.T, discount *model.Discount) {
	t.Helper()

	if err := e.discounts.Create(context.Background(), discount); err != nil {
		t.Fatalf("seed discount %s: %v", discount.Code, err)
	}
}

func (e *testEnv) mustGetOrder(t *testing.T, id string) *model.Order {
	t.Helper()

	order, err := e.orders.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get order %s: %v", id, err)
	}
	return order
}

func (e *testEnv) discountUsage(t *testing.T, code string) int32 {
	t.Helper()

	discount, err := e.discounts.FindByCode(context.Background(), code)
	if err != nil {
		t.Fatalf("get discount %s: %v", code, err)
	}
	return discount.UsageCount
}

func intentRequest(items ...*dto.CheckoutItem) *dto.CheckoutIntentRequest {
	return &dto.CheckoutIntentRequest{
		CustomerName:  "Ada Lovelace",
		CustomerEmail: "ada@example.com",
		Items:         items,
		Shipping: dto.ShippingAddress{
			Address1: "1 Analytical Way",
			City:     "London",
			Zip:      "N1 9GU",
			Country:  "GB",
		},
	}
}

func sessionEventPayload(t *testing.T, eventID, eventType, orderID, sessionID string) []byte {
	t.Helper()

	payload, err := json.Marshal(map[string]interface{}{
		"id":      eventID,
		"type":    eventType,
		"created": time.Now().Unix(),
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":             sessionID,
				"status":         "complete",
				"payment_status": "paid",
				"metadata":       map[string]string{"order_id": orderID},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal event payload: %v", err)
	}
	return payload
}

func mustEqualDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()

	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("expected %s, got %s", want, got)
	}
}
