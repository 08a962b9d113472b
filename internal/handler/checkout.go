package handler

import (
	"net/http"

	"checkout-service/internal/dto"
	"checkout-service/internal/service"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

func (h *CheckoutHandler) CreateIntent(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutIntentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp, err := h.checkoutService.CreateIntent(ctx, &req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, resp)
}

func (h *CheckoutHandler) Pay(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.PayRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp, err := h.checkoutService.Pay(ctx, req.OrderID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}

// ConfirmReturn is where the hosted payment page sends the customer back;
// it resolves payment state synchronously instead of waiting for the
// webhook, so the client can decide whether to clear its cart.
func (h *CheckoutHandler) ConfirmReturn(c echo.Context) error {
	ctx := c.Request().Context()

	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing session_id")
	}

	resp, err := h.checkoutService.ConfirmReturn(ctx, sessionID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}
