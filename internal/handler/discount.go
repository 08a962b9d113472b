package handler

import (
	"net/http"
	"strconv"

	"checkout-service/internal/dto"
	"checkout-service/internal/service"

	"github.com/labstack/echo/v4"
)

type DiscountHandler struct {
	discountService service.DiscountService
}

func NewDiscountHandler(discountService service.DiscountService) *DiscountHandler {
	return &DiscountHandler{
		discountService: discountService,
	}
}

// Preview runs the evaluator without touching usage counts, so storefronts
// can call it on every keystroke.
func (h *DiscountHandler) Preview(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.DiscountPreviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if req.Subtotal.IsNegative() {
		return echo.NewHTTPError(http.StatusBadRequest, "subtotal must not be negative")
	}

	eval, err := h.discountService.Evaluate(ctx, req.Subtotal, req.DiscountCode)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, &dto.DiscountPreviewResponse{
		Valid:          eval.Valid,
		AppliedCode:    eval.AppliedCode,
		DiscountAmount: eval.DiscountAmount,
		Total:          eval.Total,
		Reason:         eval.Reason,
	})
}

func (h *DiscountHandler) List(c echo.Context) error {
	discounts, err := h.discountService.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, discounts)
}

func (h *DiscountHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.DiscountCreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	discount, err := h.discountService.Create(ctx, &req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, discount)
}

func (h *DiscountHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := discountID(c)
	if err != nil {
		return err
	}

	var req dto.DiscountUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	discount, err := h.discountService.Update(ctx, id, &req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, discount)
}

func (h *DiscountHandler) Delete(c echo.Context) error {
	id, err := discountID(c)
	if err != nil {
		return err
	}

	if err := h.discountService.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

func discountID(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid discount id")
	}
	return uint(id), nil
}
