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
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"luckypaw-payments-go/internal/api"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type createOrderRequest struct {
	Username string      `json:"username"`
	Game     string      `json:"game"`
	Amount   json.Number `json:"amount"`
	Method   string      `json:"method"`
}

type cashoutRequest struct {
	Username    string          `json:"username"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
}

type decodeInvoiceRequest struct {
	Invoice string `json:"invoice"`
}

func (httpSvc *HttpService) createOrderHandler(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid order request",
		})
	}

	result, err := httpSvc.svc.CreateOrder(c.Request().Context(), api.CreateOrderParams{
		Username: req.Username,
		Game:     req.Game,
		Amount:   req.Amount.String(),
		Method:   req.Method,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (httpSvc *HttpService) getOrderHandler(c echo.Context) error {
	order, err := httpSvc.svc.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (httpSvc *HttpService) orderStatusHandler(c echo.Context) error {
	result, err := httpSvc.svc.ReconcileByPolling(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (httpSvc *HttpService) requestCashoutHandler(c echo.Context) error {
	var req cashoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid cashout request",
		})
	}

	cashout, err := httpSvc.svc.RequestCashout(c.Request().Context(), api.RecordCashoutParams(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, cashout)
}

func (httpSvc *HttpService) cashoutLimitHandler(c echo.Context) error {
	status, err := httpSvc.svc.CheckLimit(c.Request().Context(), c.Param("username"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, status)
}

// speedWebhookHandler hands the untouched body to the service so the signature covers exactly what was sent
func (httpSvc *HttpService) speedWebhookHandler(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBytes))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read request body",
		})
	}

	result, err := httpSvc.svc.ReconcileByWebhook(c.Request().Context(), body, c.Request().Header.Get(SignatureHeader))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (httpSvc *HttpService) listOrdersHandler(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "limit must be an integer",
			})
		}
		limit = n
	}

	orders, err := httpSvc.svc.ListOrders(c.Request().Context(), c.QueryParam("status"), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (httpSvc *HttpService) markPaidHandler(c echo.Context) error {
	result, err := httpSvc.svc.MarkPaidManually(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (httpSvc *HttpService) markReadHandler(c echo.Context) error {
	if err := httpSvc.svc.MarkOrderRead(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (httpSvc *HttpService) deleteOrderHandler(c echo.Context) error {
	if err := httpSvc.svc.DeleteOrder(c.Request().Context(), c.Param("id")); err != nil {
		return writeError(c, err)
	}
	zap.L().Info("Order deleted by operator",
		zap.String("order_id", c.Param("id")),
		zap.String("remote_ip", c.RealIP()))
	return c.NoContent(http.StatusNoContent)
}

func (httpSvc *HttpService) recordCashoutHandler(c echo.Context) error {
	var req cashoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid cashout request",
		})
	}

	cashout, err := httpSvc.svc.RecordCashout(c.Request().Context(), api.RecordCashoutParams(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, cashout)
}

func (httpSvc *HttpService) summaryHandler(c echo.Context) error {
	from, err := httpSvc.parseDate(c.QueryParam("from"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "from must be a YYYY-MM-DD date",
		})
	}
	to := from
	if raw := c.QueryParam("to"); raw != "" {
		to, err = httpSvc.parseDate(raw)
	}
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "to must be a YYYY-MM-DD date",
		})
	}

	summary, err := httpSvc.svc.ComputeSummary(c.Request().Context(), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (httpSvc *HttpService) decodeInvoiceHandler(c echo.Context) error {
	var req decodeInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid decode request",
		})
	}

	details, err := httpSvc.svc.DecodeInvoice(c.Request().Context(), req.Invoice)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, details)
}

func (httpSvc *HttpService) parseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, strings.TrimSpace(raw), httpSvc.location)
}
