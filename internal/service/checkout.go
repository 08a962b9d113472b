package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"checkout-service/internal/apperr"
	"checkout-service/internal/client"
	"checkout-service/internal/dto"
	"checkout-service/internal/model"
	"checkout-service/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CheckoutService interface {
	CreateIntent(ctx context.Context, req *dto.CheckoutIntentRequest) (*dto.CheckoutIntentResponse, error)
	Pay(ctx context.Context, orderID string) (*dto.PayResponse, error)
	ConfirmReturn(ctx context.Context, sessionID string) (*dto.ConfirmResponse, error)
}

type checkoutServiceImpl struct {
	db              *gorm.DB
	stripeClient    client.StripeClient
	serviceBaseUrl  string
	productRepo     repository.ProductRepository
	orderRepo       repository.OrderRepository
	discountRepo    repository.DiscountRepository
	discountService DiscountService
}

func NewCheckoutService(
	db *gorm.DB,
	stripeClient client.StripeClient,
	serviceBaseUrl string,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	discountRepo repository.DiscountRepository,
	discountService DiscountService,
) CheckoutService {
	return &checkoutServiceImpl{
		db:              db,
		stripeClient:    stripeClient,
		serviceBaseUrl:  serviceBaseUrl,
		productRepo:     productRepo,
		orderRepo:       orderRepo,
		discountRepo:    discountRepo,
		discountService: discountService,
	}
}

func validateIntent(req *dto.CheckoutIntentRequest) error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return &apperr.ValidationError{Field: "customerName", Detail: "required"}
	}

	email := strings.TrimSpace(req.CustomerEmail)
	at := strings.Index(email, "@")
	if at <= 0 || !strings.Contains(email[at+1:], ".") {
		return &apperr.ValidationError{Field: "customerEmail", Detail: "must be a valid email address"}
	}

	if len(req.Items) == 0 {
		return &apperr.ValidationError{Field: "items", Detail: "at least one item required"}
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return &apperr.ValidationError{Field: fmt.Sprintf("items[%d].productId", i), Detail: "required"}
		}
		if item.Quantity < 1 {
			return &apperr.ValidationError{Field: fmt.Sprintf("items[%d].quantity", i), Detail: "must be at least 1"}
		}
	}

	required := []struct{ name, value string }{
		{"shipping.address1", req.Shipping.Address1},
		{"shipping.city", req.Shipping.City},
		{"shipping.zip", req.Shipping.Zip},
		{"shipping.country", req.Shipping.Country},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return &apperr.ValidationError{Field: f.name, Detail: "required"}
		}
	}

	return nil
}

func (s *checkoutServiceImpl) CreateIntent(ctx context.Context, req *dto.CheckoutIntentRequest) (*dto.CheckoutIntentResponse, error) {
	if err := validateIntent(req); err != nil {
		return nil, err
	}

	productIDs := make([]string, len(req.Items))
	for i, item := range req.Items {
		productIDs[i] = item.ProductID
	}
	products, err := s.productRepo.FindMany(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("resolve products: %w", err)
	}
	productsByID := make(map[string]*model.Product, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
	}

	// snapshot server-resolved prices; client-supplied prices are never trusted
	subtotal := decimal.Zero
	currency := ""
	orderItems := make([]*model.OrderItem, len(req.Items))
	for i, line := range req.Items {
		product, ok := productsByID[line.ProductID]
		if !ok {
			return nil, &apperr.NotFoundError{Resource: "product", ID: line.ProductID}
		}
		if currency == "" {
			currency = product.Currency
		}
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt32(line.Quantity)))

		productID := product.ID
		orderItems[i] = &model.OrderItem{
			ProductID:     &productID,
			Title:         product.Title,
			Handle:        product.Handle,
			UnitPrice:     product.Price,
			Quantity:      line.Quantity,
			SelectedSize:  line.SelectedSize,
			SelectedColor: line.SelectedColor,
			SKU:           product.SKU,
			ImageURL:      product.ImageURL,
		}
	}

	discountAmount := decimal.Zero
	total := subtotal
	var appliedCode *string
	if strings.TrimSpace(req.DiscountCode) != "" {
		eval, err := s.discountService.Evaluate(ctx, subtotal, req.DiscountCode)
		if err != nil {
			return nil, err
		}
		if eval.Valid {
			discountAmount = eval.DiscountAmount
			total = eval.Total
			appliedCode = eval.AppliedCode
		} else {
			// an invalid code never blocks checkout; keep a trace of the attempt
			log.Printf("checkout: discount code %q rejected (%s), proceeding at full price",
				req.DiscountCode, *eval.Reason)
		}
	}

	order := &model.Order{
		ID:               uuid.NewString(),
		CustomerName:     strings.TrimSpace(req.CustomerName),
		CustomerEmail:    strings.TrimSpace(req.CustomerEmail),
		ShippingAddress1: req.Shipping.Address1,
		ShippingAddress2: req.Shipping.Address2,
		ShippingCity:     req.Shipping.City,
		ShippingZip:      req.Shipping.Zip,
		ShippingCountry:  req.Shipping.Country,
		Currency:         currency,
		OriginalTotal:    subtotal,
		DiscountCode:     appliedCode,
		DiscountAmount:   discountAmount,
		Total:            total,
		Status:           model.OrderPending,
		PaymentStatus:    model.PaymentPending,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(ctx, tx, order); err != nil {
			return fmt.Errorf("store order in db: %w", err)
		}
		for _, item := range orderItems {
			item.OrderID = order.ID
		}
		if err := s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
			return fmt.Errorf("store order items in db: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	session, err := s.createSession(ctx, order, orderItems)
	if err != nil {
		// the order must not stay around as a payable PENDING shell when no
		// session exists for it; the customer starts a fresh checkout
		if _, cancelErr := s.orderRepo.MarkCancelled(ctx, s.db, order.ID); cancelErr != nil {
			log.Printf("checkout: cancel order %s after gateway failure: %v", order.ID, cancelErr)
		}
		return nil, err
	}

	if err := s.orderRepo.SetSessionID(ctx, s.db, order.ID, session.ID); err != nil {
		return nil, fmt.Errorf("store session id: %w", err)
	}

	return &dto.CheckoutIntentResponse{
		OrderID:     order.ID,
		RedirectURL: session.URL,
	}, nil
}

// Pay re-initiates payment for an existing order, e.g. after the customer
// abandoned the first hosted page.
func (s *checkoutServiceImpl) Pay(ctx context.Context, orderID string) (*dto.PayResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Resource: "order", ID: orderID}
		}
		return nil, fmt.Errorf("find order: %w", err)
	}

	if order.PaymentStatus != model.PaymentPending || order.Status != model.OrderPending {
		return nil, &apperr.StateConflictError{
			OrderID:       order.ID,
			Status:        order.Status,
			PaymentStatus: order.PaymentStatus,
		}
	}

	items := make([]*model.OrderItem, len(order.Items))
	for i := range order.Items {
		items[i] = &order.Items[i]
	}
	session, err := s.createSession(ctx, order, items)
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.SetSessionID(ctx, s.db, order.ID, session.ID); err != nil {
		return nil, fmt.Errorf("store session id: %w", err)
	}

	return &dto.PayResponse{
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}

// ConfirmReturn is the synchronous fallback on redirect return: it asks the
// gateway for the session state instead of waiting for the webhook. Both
// paths funnel into the same idempotent transition.
func (s *checkoutServiceImpl) ConfirmReturn(ctx context.Context, sessionID string) (*dto.ConfirmResponse, error) {
	session, err := s.stripeClient.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	order, err := s.correlateOrder(ctx, session)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apperr.NotFoundError{Resource: "order", ID: sessionID}
		}
		return nil, fmt.Errorf("correlate session to order: %w", err)
	}

	if session.PaymentStatus != client.SessionPaid {
		return &dto.ConfirmResponse{Paid: false, Order: minimalView(order)}, nil
	}

	_, settled, err := settleOrderPaid(ctx, s.db, s.orderRepo, s.discountRepo, order.ID, session.ID)
	if err != nil {
		return nil, fmt.Errorf("settle order paid: %w", err)
	}

	return &dto.ConfirmResponse{Paid: true, Order: minimalView(settled)}, nil
}

func (s *checkoutServiceImpl) correlateOrder(ctx context.Context, session *client.CheckoutSession) (*model.Order, error) {
	if id := session.Metadata["order_id"]; id != "" {
		order, err := s.orderRepo.FindByID(ctx, id)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return s.orderRepo.FindBySessionID(ctx, session.ID)
}

func (s *checkoutServiceImpl) createSession(ctx context.Context, order *model.Order, items []*model.OrderItem) (*client.CheckoutSession, error) {
	params := &client.CreateSessionParams{
		OrderID:    order.ID,
		SuccessURL: fmt.Sprintf("%s/api/pay/confirm?order_id=%s&session_id={CHECKOUT_SESSION_ID}", s.serviceBaseUrl, order.ID),
		CancelURL:  fmt.Sprintf("%s/checkout/cancelled?order_id=%s", s.serviceBaseUrl, order.ID),
	}

	if order.DiscountAmount.IsPositive() {
		// the hosted page must charge the discounted total, so the order
		// collapses to a single line
		params.LineItems = []client.SessionLineItem{{
			Name:      "Order " + order.ID,
			Currency:  order.Currency,
			UnitCents: toCents(order.Total),
			Quantity:  1,
		}}
	} else {
		params.LineItems = make([]client.SessionLineItem, len(items))
		for i, item := range items {
			params.LineItems[i] = client.SessionLineItem{
				Name:      item.Title,
				Currency:  order.Currency,
				UnitCents: toCents(item.UnitPrice),
				Quantity:  int64(item.Quantity),
			}
		}
	}

	return s.stripeClient.CreateCheckoutSession(ctx, params)
}

func toCents(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func minimalView(order *model.Order) *dto.OrderMinimal {
	return &dto.OrderMinimal{
		ID:            order.ID,
		Total:         order.Total,
		Currency:      order.Currency,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		CreatedAt:     order.CreatedAt,
	}
}
