package handler

import (
	"net/http"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/dto"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/service"
	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	giftService     service.GiftService
}

func NewCheckoutHandler(checkoutService service.CheckoutService, giftService service.GiftService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		giftService:     giftService,
	}
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	result, err := h.checkoutService.Checkout(ctx, &req, c.RealIP())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (h *CheckoutHandler) GiftCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.GiftCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	result, err := h.giftService.Checkout(ctx, c.Param("id"), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
