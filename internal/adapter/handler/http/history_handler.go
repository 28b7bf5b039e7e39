package http

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/model"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/usecase"
)

type HistoryHandler struct {
	ledger *usecase.LedgerService
	logger *zap.Logger
}

func NewHistoryHandler(ledger *usecase.LedgerService, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{
		ledger: ledger,
		logger: logger,
	}
}

func (h *HistoryHandler) GetHistory(c echo.Context) error {
	filters, err := parseFilters(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	records := h.ledger.Query(c.Request().Context(), filters)
	return c.JSON(http.StatusOK, records)
}

func (h *HistoryHandler) GetRecord(c echo.Context) error {
	record, ok := h.ledger.GetByID(c.Request().Context(), c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Payment record not found",
		})
	}
	return c.JSON(http.StatusOK, record)
}

func (h *HistoryHandler) GetStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.ledger.Stats(c.Request().Context()))
}

func (h *HistoryHandler) Export(c echo.Context) error {
	filters, err := parseFilters(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
		})
	}

	switch c.QueryParam("format") {
	case "csv":
		body := h.ledger.ExportCSV(c.Request().Context(), filters)
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="payment_history.csv"`)
		return c.Blob(http.StatusOK, "text/csv", []byte(body))
	case "", "json":
		body, err := h.ledger.ExportJSON(c.Request().Context(), filters)
		if err != nil {
			h.logger.Error("Failed to export payment history", zap.Error(err))
			return c.JSON(http.StatusInternalServerError, echo.Map{
				"error": "Failed to export payment history",
			})
		}
		c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="payment_history.json"`)
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, []byte(body))
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Unsupported export format",
		})
	}
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *HistoryHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
		})
	}

	status := model.RecordStatus(req.Status)
	if !status.IsValid() {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Unknown payment status",
		})
	}

	updated, err := h.ledger.UpdateStatus(c.Request().Context(), c.Param("id"), status)
	if err != nil {
		h.logger.Error("Failed to update payment status", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to update payment status",
		})
	}
	if !updated {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error": "Payment record not found",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"updated": true,
	})
}

func (h *HistoryHandler) Clear(c echo.Context) error {
	if err := h.ledger.Clear(c.Request().Context()); err != nil {
		h.logger.Error("Failed to clear payment history", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to clear payment history",
		})
	}
	return c.NoContent(http.StatusNoContent)
}

func parseFilters(c echo.Context) (usecase.QueryFilters, error) {
	filters := usecase.QueryFilters{
		Status: model.RecordStatus(c.QueryParam("status")),
		Rail:   model.Rail(c.QueryParam("rail")),
		Search: c.QueryParam("search"),
	}

	if from := c.QueryParam("date_from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return filters, fmt.Errorf("date_from must be RFC3339")
		}
		filters.DateFrom = &t
	}
	if to := c.QueryParam("date_to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return filters, fmt.Errorf("date_to must be RFC3339")
		}
		filters.DateTo = &t
	}

	return filters, nil
}
