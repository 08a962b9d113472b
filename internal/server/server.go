package server

import (
	"checkout-service/internal/config"
	"checkout-service/internal/handler"
	appmiddleware "checkout-service/internal/middleware"
	"checkout-service/internal/service"
	"checkout-service/internal/validation"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Server struct {
	echo            *echo.Echo
	adminJWTSecret  string
	checkoutHandler *handler.CheckoutHandler
	webhookHandler  *handler.WebhookHandler
	discountHandler *handler.DiscountHandler
	orderHandler    *handler.OrderHandler
}

func NewServer(
	cfg *config.Config,
	checkoutService service.CheckoutService,
	webhookService service.WebhookService,
	discountService service.DiscountService,
	orderService service.OrderService,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()
	if cfg.Log.Level == "debug" {
		e.Debug = true
	}

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:            e,
		adminJWTSecret:  cfg.Admin.JWTSecret,
		checkoutHandler: handler.NewCheckoutHandler(checkoutService),
		webhookHandler:  handler.NewWebhookHandler(webhookService),
		discountHandler: handler.NewDiscountHandler(discountService),
		orderHandler:    handler.NewOrderHandler(orderService),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- checkout --------
	api.POST("/checkout/intent", s.checkoutHandler.CreateIntent)
	api.POST("/pay", s.checkoutHandler.Pay)
	api.GET("/pay/confirm", s.checkoutHandler.ConfirmReturn)

	// -------- public reads --------
	api.GET("/orders/:id/min", s.orderHandler.GetMinimal)
	api.POST("/discounts/preview", s.discountHandler.Preview)

	// -------- gateway webhooks --------
	api.POST("/stripe/webhook", s.webhookHandler.StripeWebhook)

	// -------- admin --------
	admin := api.Group("/admin", appmiddleware.AdminAuth(s.adminJWTSecret))
	admin.GET("/discounts", s.discountHandler.List)
	admin.POST("/discounts", s.discountHandler.Create)
	admin.PATCH("/discounts/:id", s.discountHandler.Update)
	admin.DELETE("/discounts/:id", s.discountHandler.Delete)
	admin.GET("/orders", s.orderHandler.List)
	admin.GET("/orders/:id", s.orderHandler.Get)
	admin.PATCH("/orders/:id", s.orderHandler.AdminUpdate)
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown() error {
	return s.echo.Close()
}
