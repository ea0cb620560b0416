/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"luckypaw-payments-go/internal/api"
	"luckypaw-payments-go/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const (
	SignatureHeader = "speed-signature"
	AdminKeyHeader  = "X-Admin-Key"

	maxWebhookBytes = 1 << 20
)

// LedgerAPI is everything the HTTP surface calls on the lifecycle service
type LedgerAPI interface {
	HealthCheck(ctx context.Context) error
	CreateOrder(ctx context.Context, params api.CreateOrderParams) (*models.CreateOrderResult, error)
	ReconcileByPolling(ctx context.Context, orderId string) (*models.OrderStatusResult, error)
	ReconcileByWebhook(ctx context.Context, body []byte, signature string) (*models.WebhookResult, error)
	MarkPaidManually(ctx context.Context, orderId string) (*models.OrderStatusResult, error)
	GetOrder(ctx context.Context, orderId string) (*models.Order, error)
	ListOrders(ctx context.Context, status string, limit int) ([]models.Order, error)
	MarkOrderRead(ctx context.Context, orderId string) error
	DeleteOrder(ctx context.Context, orderId string) error
	DecodeInvoice(ctx context.Context, invoice string) (*models.InvoiceDetails, error)
	ComputeSummary(ctx context.Context, from, to time.Time) (*models.Summary, error)
	RecordCashout(ctx context.Context, params api.RecordCashoutParams) (*models.Cashout, error)
	RequestCashout(ctx context.Context, params api.RecordCashoutParams) (*models.Cashout, error)
	CheckLimit(ctx context.Context, username string) (*models.LimitStatus, error)
}

type HttpService struct {
	svc      LedgerAPI
	cfg      models.ServerConfig
	location *time.Location
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func NewHttpService(svc LedgerAPI, cfg models.ServerConfig) *HttpService {
	return &HttpService{
		svc:      svc,
		cfg:      cfg,
		location: time.Local,
	}
}

func (httpSvc *HttpService) RegisterRoutes(e *echo.Echo) {
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, values middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", values.Method),
				zap.String("uri", values.URI),
				zap.Int("status", values.Status),
				zap.Duration("latency", values.Latency),
				zap.String("remote_ip", values.RemoteIP),
				zap.String("request_id", values.RequestID),
			}
			if values.Error != nil {
				fields = append(fields, zap.Error(values.Error))
			}
			zap.L().Info("Handled API request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	if httpSvc.cfg.RequestTimeout > 0 {
		e.Use(middleware.ContextTimeout(httpSvc.cfg.RequestTimeout))
	}

	e.GET("/health", httpSvc.healthHandler)

	// Provider webhook authenticates with its own HMAC signature
	e.POST("/webhooks/speed", httpSvc.speedWebhookHandler)

	// allow a handful of invoice requests per second per client
	orderRateLimiter := middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(5))

	customerGroup := e.Group("/api")
	customerGroup.POST("/orders", httpSvc.createOrderHandler, orderRateLimiter)
	customerGroup.GET("/orders/:id", httpSvc.getOrderHandler)
	customerGroup.GET("/orders/:id/status", httpSvc.orderStatusHandler)
	customerGroup.POST("/cashouts/request", httpSvc.requestCashoutHandler)
	customerGroup.GET("/cashouts/limit/:username", httpSvc.cashoutLimitHandler)

	adminGroup := e.Group("/api/admin")
	adminGroup.Use(httpSvc.requireAdminKey())
	adminGroup.GET("/orders", httpSvc.listOrdersHandler)
	adminGroup.POST("/orders/:id/mark-paid", httpSvc.markPaidHandler)
	adminGroup.POST("/orders/:id/read", httpSvc.markReadHandler)
	adminGroup.DELETE("/orders/:id", httpSvc.deleteOrderHandler)
	adminGroup.POST("/cashouts", httpSvc.recordCashoutHandler)
	adminGroup.GET("/summary", httpSvc.summaryHandler)
	adminGroup.POST("/invoices/decode", httpSvc.decodeInvoiceHandler)
}

// requireAdminKey guards operator routes. With no key configured every admin call is refused.
func (httpSvc *HttpService) requireAdminKey() echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + AdminKeyHeader,
		Validator: func(key string, c echo.Context) (bool, error) {
			if httpSvc.cfg.AdminApiKey == "" {
				return false, nil
			}
			return subtle.ConstantTimeCompare([]byte(key), []byte(httpSvc.cfg.AdminApiKey)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			zap.L().Warn("Rejected admin request",
				zap.String("path", c.Path()),
				zap.String("remote_ip", c.RealIP()),
				zap.Error(err))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid or missing admin key",
			})
		},
	})
}

func (httpSvc *HttpService) healthHandler(c echo.Context) error {
	if err := httpSvc.svc.HealthCheck(c.Request().Context()); err != nil {
		zap.L().Error("Health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Message: "Database unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// errorStatus maps a lifecycle error class onto an HTTP status code
func errorStatus(err error) int {
	switch {
	case errors.Is(err, api.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, api.ErrAuthentication):
		return http.StatusUnauthorized
	case errors.Is(err, api.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c echo.Context, err error) error {
	status := errorStatus(err)
	message := err.Error()
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		zap.L().Error("Request failed",
			zap.String("path", c.Path()),
			zap.Error(err))
		message = http.StatusText(status)
	}
	return c.JSON(status, ErrorResponse{Message: message})
}
