package handler

import (
	"net/http"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/service"
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

func (h *OrderHandler) GetStatus(c echo.Context) error {
	ctx := c.Request().Context()

	status, err := h.orderService.GetStatus(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, status)
}
