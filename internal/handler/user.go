package handler

import (
	"net/http"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/service"
	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func (h *UserHandler) GetAccess(c echo.Context) error {
	ctx := c.Request().Context()

	access, err := h.userService.GetAccess(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, access)
}
