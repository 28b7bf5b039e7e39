package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/bayanihomes/hoa-portal/services/payment/internal/adapter/handler/http"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/config"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/middleware/auth"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/usecase"
)

type Server struct {
	config   *config.Config
	logger   *zap.Logger
	echo     *echo.Echo
	checkout *usecase.CheckoutService
	ledger   *usecase.LedgerService
}

func NewServer(cfg *config.Config, logger *zap.Logger, checkout *usecase.CheckoutService, ledger *usecase.LedgerService) *Server {
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{echo.GET, echo.POST, echo.PATCH, echo.DELETE},
	}))

	return &Server{
		config:   cfg,
		logger:   logger,
		echo:     e,
		checkout: checkout,
		ledger:   ledger,
	}
}

func (s *Server) Start() error {
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})

	// Initialize handlers
	paymentHandler := handlers.NewPaymentHandler(s.checkout, s.logger)
	historyHandler := handlers.NewHistoryHandler(s.ledger, s.logger)

	// JWT middleware configuration. The redirect landing endpoint stays
	// public: the gateway sends the resident back without our bearer token.
	jwtConfig := auth.JWTConfig{
		Secret: s.config.Service.JWTSecret,
		Logger: s.logger,
		SkipPaths: []string{
			"/health",
			"/api/v1/payments/return",
		},
	}

	// API v1 routes
	v1 := s.echo.Group("/api/v1", auth.JWTMiddleware(jwtConfig))

	// Payments
	payments := v1.Group("/payments")
	payments.POST("", paymentHandler.CreatePayment)
	payments.POST("/return", paymentHandler.CompleteReturn)
	payments.GET("/:id/status", paymentHandler.GetStatus)
	payments.POST("/:id/dismiss", paymentHandler.Dismiss)

	// Payment history
	history := v1.Group("/history")
	history.GET("", historyHandler.GetHistory)
	history.GET("/stats", historyHandler.GetStats)
	history.GET("/export", historyHandler.Export)
	history.GET("/:id", historyHandler.GetRecord)
	history.PATCH("/:id/status", historyHandler.UpdateStatus)
	history.DELETE("", historyHandler.Clear)
}
