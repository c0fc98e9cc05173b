package server

import (
	"context"
	"net/http"
	"time"

	"github.com/higortorres2001-commits/site-casamento-sub001/internal/handler"
	appmiddleware "github.com/higortorres2001-commits/site-casamento-sub001/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

type Server struct {
	echo            *echo.Echo
	checkoutHandler *handler.CheckoutHandler
	webhookHandler  *handler.WebhookHandler
	orderHandler    *handler.OrderHandler
	userHandler     *handler.UserHandler
}

type Options struct {
	Logger         *log.Logger
	RequestTimeout time.Duration
}

func NewServer(
	checkoutHandler *handler.CheckoutHandler,
	webhookHandler *handler.WebhookHandler,
	orderHandler *handler.OrderHandler,
	userHandler *handler.UserHandler,
	opts Options,
) *Server {
	e := echo.New()
	e.HideBanner = true
	if opts.Logger != nil {
		e.Logger = opts.Logger
	}
	e.HTTPErrorHandler = handler.ErrorHandler(e)

	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("1M"))
	e.Use(appmiddleware.RequestTimeout(opts.RequestTimeout))

	s := &Server{
		echo:            e,
		checkoutHandler: checkoutHandler,
		webhookHandler:  webhookHandler,
		orderHandler:    orderHandler,
		userHandler:     userHandler,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api.POST("/checkout", s.checkoutHandler.Checkout)
	api.GET("/orders/:id", s.orderHandler.GetStatus)
	api.POST("/gifts/:id/checkout", s.checkoutHandler.GiftCheckout)
	api.GET("/customers/:id/access", s.userHandler.GetAccess)

	// -------- gateway callbacks --------
	api.POST("/webhooks/payment", s.webhookHandler.PaymentWebhook)
}

// Handler exposes the router for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
