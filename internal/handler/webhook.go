package handler

import (
	"io"
	"net/http"

	"checkout-service/internal/service"

	"github.com/labstack/echo/v4"
)

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// StripeWebhook receives gateway events. 400 only on signature failure so
// Stripe retries with a fixed signature; everything else is acknowledged
// once the event is authenticated and recorded.
func (h *WebhookHandler) StripeWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	sig := c.Request().Header.Get("Stripe-Signature")
	if err := h.webhookService.HandleEvent(ctx, body, sig); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid signature")
	}

	return c.NoContent(http.StatusOK)
}
