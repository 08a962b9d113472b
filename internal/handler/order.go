package handler

import (
	"net/http"

	"checkout-service/internal/dto"
	"checkout-service/internal/repository"
	"checkout-service/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// GetMinimal is unauthenticated: the order id is the capability, and the
// payload deliberately carries no customer or shipping data.
func (h *OrderHandler) GetMinimal(c echo.Context) error {
	order, err := h.orderService.GetMinimal(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) List(c echo.Context) error {
	filter := &repository.OrderFilter{
		Status:        c.QueryParam("status"),
		PaymentStatus: c.QueryParam("paymentStatus"),
	}

	orders, err := h.orderService.List(c.Request().Context(), filter)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) Get(c echo.Context) error {
	order, err := h.orderService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) AdminUpdate(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.OrderAdminUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.orderService.AdminUpdate(ctx, c.Param("id"), &req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, order)
}
