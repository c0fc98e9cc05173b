package handler

import (
	"io"
	"net/http"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/apperr"
	"github.com/higortorres2001-commits/site-casamento-sub001/internal/service"
	"github.com/labstack/echo/v4"
)

// TokenHeader carries the shared secret configured on the gateway side.
const TokenHeader = "asaas-access-token"

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

func (h *WebhookHandler) PaymentWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return apperr.Validation("read webhook body")
	}

	result, err := h.webhookService.HandleWebhook(ctx, c.Request().Header.Get(TokenHeader), body)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}
