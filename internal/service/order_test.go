package service

import (
	"context"
	"errors"
	"testing"

	"checkout-service/internal/apperr"
	"checkout-service/internal/dto"
	"checkout-service/internal/model"
	"checkout-service/internal/repository"

	"github.com/shopspring/decimal"
)

func strptr(s string) *string { return &s }

func TestGetMinimalOmitsCustomerData(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t)

	order := env.createPendingOrder(t, "")

	minimal, err := env.orderSvc.GetMinimal(context.Background(), order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if minimal.ID != order.ID {
		t.Errorf("expected order id %s, got %s", order.ID, minimal.ID)
	}
	mustEqualDecimal(t, "20.00", minimal.Total)
	if minimal.Currency != "EUR" || minimal.Status != model.OrderPending || minimal.PaymentStatus != model.PaymentPending {
		t.Errorf("bad minimal view: %+v", minimal)
	}
}

func TestGetMinimalUnknownOrder(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.orderSvc.GetMinimal(context.Background(), "nope")
	var notFoundErr *apperr.NotFoundError
	if !errors.As(err, &notFoundErr) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestAdminMarkPaidCountsDiscountOnce(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t)
	env.seedDiscount(t, &model.Discount{
		Code: "SAVE10", Type: model.DiscountPercentage,
		Value: decimal.NewFromInt(10), Active: true,
	})

	order := env.createPendingOrder(t, "SAVE10")

	updated, err := env.orderSvc.AdminUpdate(context.Background(), order.ID,
		&dto.OrderAdminUpdateRequest{PaymentStatus: strptr(model.PaymentPaid)})
	if err != nil {
		t.Fatal(err)
	}
	if updated.PaymentStatus != model.PaymentPaid || updated.Status != model.OrderProcessing {
		t.Fatalf("expected PAID/PROCESSING, got %s/%s", updated.PaymentStatus, updated.Status)
	}
	if got := env.discountUsage(t, "SAVE10"); got != 1 {
		t.Errorf("manual reconciliation must count usage once, got %d", got)
	}
}

func TestAdminCannotUnpayOrder(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t)

	order := env.createPendingOrder(t, "")
	if _, err := env.orderSvc.AdminUpdate(context.Background(), order.ID,
		&dto.OrderAdminUpdateRequest{PaymentStatus: strptr(model.PaymentPaid)}); err != nil {
		t.Fatal(err)
	}

	_, err := env.orderSvc.AdminUpdate(context.Background(), order.ID,
		&dto.OrderAdminUpdateRequest{PaymentStatus: strptr(model.PaymentPending)})
	var conflictErr *apperr.StateConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected StateConflictError, got %v", err)
	}
	if conflictErr.PaymentStatus != model.PaymentPaid {
		t.Errorf("conflict must carry the authoritative state, got %s", conflictErr.PaymentStatus)
	}
}

func TestAdminCannotCancelPaidOrder(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t)

	order := env.createPendingOrder(t, "")
	if _, err := env.orderSvc.AdminUpdate(context.Background(), order.ID,
		&dto.OrderAdminUpdateRequest{PaymentStatus: strptr(model.PaymentPaid)}); err != nil {
		t.Fatal(err)
	}

	_, err := env.orderSvc.AdminUpdate(context.Background(), order.ID,
		&dto.OrderAdminUpdateRequest{Status: strptr(model.OrderCancelled)})
	var conflictErr *apperr.StateConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected StateConflictError, got %v", err)
	}
}

func TestAdminRefundRequiresPaid(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t)

	order := env.createPendingOrder(t, "")

	_, err := env.orderSvc.AdminUpdate(context.Background(), order.ID,
		&dto.OrderAdminUpdateRequest{PaymentStatus: strptr(model.PaymentRefunded)})
	var conflictErr *apperr.StateConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("refunding an unpaid order must conflict, got %v", err)
	}

	if _, err := env.orderSvc.AdminUpdate(context.Background(), order.ID,
		&dto.OrderAdminUpdateRequest{PaymentStatus: strptr(model.PaymentPaid)}); err != nil {
		t.Fatal(err)
	}
	updated, err := env.orderSvc.AdminUpdate(context.Background(), order.ID,
		&dto.OrderAdminUpdateRequest{PaymentStatus: strptr(model.PaymentRefunded)})
	if err != nil {
		t.Fatal(err)
	}
	if updated.PaymentStatus != model.PaymentRefunded {
		t.Errorf("expected REFUNDED, got %s", updated.PaymentStatus)
	}
}

func TestAdminFulfilmentProgression(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t)

	order := env.createPendingOrder(t, "")
	if _, err := env.orderSvc.AdminUpdate(context.Background(), order.ID,
		&dto.OrderAdminUpdateRequest{PaymentStatus: strptr(model.PaymentPaid)}); err != nil {
		t.Fatal(err)
	}

	for _, next := range []string{model.OrderShipped, model.OrderDelivered} {
		updated, err := env.orderSvc.AdminUpdate(context.Background(), order.ID,
			&dto.OrderAdminUpdateRequest{Status: &next})
		if err != nil {
			t.Fatalf("progress to %s: %v", next, err)
		}
		if updated.Status != next {
			t.Errorf("expected %s, got %s", next, updated.Status)
		}
	}
}

func TestListFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	env.seedProducts(t)

	paid := env.createPendingOrder(t, "")
	env.createPendingOrder(t, "")
	if _, err := env.orderSvc.AdminUpdate(context.Background(), paid.ID,
		&dto.OrderAdminUpdateRequest{PaymentStatus: strptr(model.PaymentPaid)}); err != nil {
		t.Fatal(err)
	}

	all, err := env.orderSvc.List(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(all))
	}

	paidOnly, err := env.orderSvc.List(context.Background(), &repository.OrderFilter{PaymentStatus: model.PaymentPaid})
	if err != nil {
		t.Fatal(err)
	}
	if len(paidOnly) != 1 || paidOnly[0].ID != paid.ID {
		t.Fatalf("expected only the paid order, got %d", len(paidOnly))
	}
}
