package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"checkout-service/internal/client"
	"checkout-service/internal/model"
	"checkout-service/internal/repository"

	"gorm.io/gorm"
)

type WebhookService interface {
	// HandleEvent authenticates and applies one gateway event. A non-nil
	// error means the signature failed and the gateway should retry with a
	// fixed one; every other failure is logged and swallowed so the
	// gateway's at-least-once redelivery cannot storm us.
	HandleEvent(ctx context.Context, payload []byte, sigHeader string) error
}

type webhookServiceImpl struct {
	db           *gorm.DB
	stripeClient client.StripeClient
	orderRepo    repository.OrderRepository
	discountRepo repository.DiscountRepository
	eventRepo    repository.WebhookEventRepository
}

func NewWebhookService(
	db *gorm.DB,
	stripeClient client.StripeClient,
	orderRepo repository.OrderRepository,
	discountRepo repository.DiscountRepository,
	eventRepo repository.WebhookEventRepository,
) WebhookService {
	return &webhookServiceImpl{
		db:           db,
		stripeClient: stripeClient,
		orderRepo:    orderRepo,
		discountRepo: discountRepo,
		eventRepo:    eventRepo,
	}
}

func (s *webhookServiceImpl) HandleEvent(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.stripeClient.ConstructEvent(payload, sigHeader)
	if err != nil {
		return err
	}

	fresh, err := s.eventRepo.InsertIfAbsent(ctx, event.ID, event.Type)
	if err != nil {
		log.Printf("webhook: record event %s: %v", event.ID, err)
		return nil
	}
	if !fresh {
		log.Printf("webhook: duplicate delivery of event %s, ignoring", event.ID)
		return nil
	}

	switch event.Type {
	case client.EventCheckoutCompleted:
		s.handleSessionCompleted(ctx, event)
	case client.EventCheckoutExpired:
		s.handleSessionExpired(ctx, event)
	default:
		log.Printf("webhook: unhandled event type %s (%s)", event.Type, event.ID)
	}

	return nil
}

func (s *webhookServiceImpl) handleSessionCompleted(ctx context.Context, event *client.Event) {
	session, err := event.Session()
	if err != nil {
		log.Printf("webhook: event %s: %v", event.ID, err)
		return
	}

	order, err := s.correlate(ctx, session)
	if err != nil {
		// a completed payment we cannot attribute is a financial
		// discrepancy, not just noise
		log.Printf("webhook: ALERT event %s: no order for session %s: %v", event.ID, session.ID, err)
		return
	}

	applied, _, err := settleOrderPaid(ctx, s.db, s.orderRepo, s.discountRepo, order.ID, session.ID)
	if err != nil {
		log.Printf("webhook: ALERT event %s: settle order %s paid: %v", event.ID, order.ID, err)
		return
	}
	if !applied {
		log.Printf("webhook: order %s already settled, event %s is a no-op", order.ID, event.ID)
	}
}

func (s *webhookServiceImpl) handleSessionExpired(ctx context.Context, event *client.Event) {
	session, err := event.Session()
	if err != nil {
		log.Printf("webhook: event %s: %v", event.ID, err)
		return
	}

	order, err := s.correlate(ctx, session)
	if err != nil {
		log.Printf("webhook: event %s: no order for expired session %s: %v", event.ID, session.ID, err)
		return
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cancelled, err := s.orderRepo.MarkCancelled(ctx, tx, order.ID)
		if err != nil {
			return err
		}
		if !cancelled {
			// already paid or already cancelled; either way not ours to touch
			log.Printf("webhook: expiry of session %s left order %s untouched", session.ID, order.ID)
		}
		return nil
	})
	if err != nil {
		log.Printf("webhook: ALERT event %s: cancel order %s: %v", event.ID, order.ID, err)
	}
}

func (s *webhookServiceImpl) correlate(ctx context.Context, session *client.CheckoutSession) (*model.Order, error) {
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

// settleOrderPaid applies the PENDING→PAID transition and, only when the
// conditional update actually lands, counts the discount redemption in the
// same transaction. Both the webhook and the confirm-on-return path go
// through here, so racing signals converge on one final state with one
// usage increment.
func settleOrderPaid(
	ctx context.Context,
	db *gorm.DB,
	orderRepo repository.OrderRepository,
	discountRepo repository.DiscountRepository,
	orderID, sessionID string,
) (bool, *model.Order, error) {
	var (
		applied bool
		settled *model.Order
	)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, ok, err := orderRepo.MarkPaid(ctx, tx, orderID, sessionID)
		if err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}
		applied = ok
		settled = order

		if ok && order.DiscountCode != nil {
			if err := discountRepo.IncrementUsage(ctx, tx, *order.DiscountCode); err != nil {
				return fmt.Errorf("increment discount usage: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, nil, err
	}

	return applied, settled, nil
}
