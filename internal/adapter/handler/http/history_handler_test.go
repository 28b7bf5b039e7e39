package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/model"
	infraStorage "github.com/bayanihomes/hoa-portal/services/payment/internal/infrastructure/storage"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/usecase"
)

func newHistoryFixture(t *testing.T) (*HistoryHandler, *usecase.LedgerService) {
	t.Helper()
	ledger := usecase.NewLedgerService(infraStorage.NewMemoryStore(), zap.NewNop())
	return NewHistoryHandler(ledger, zap.NewNop()), ledger
}

func seedRecord(t *testing.T, ledger *usecase.LedgerService, input usecase.RecordInput) *model.LedgerRecord {
	t.Helper()
	record, err := ledger.Record(context.Background(), input)
	assert.NoError(t, err)
	return record
}

func TestHistoryHandler_GetHistory(t *testing.T) {
	handler, ledger := newHistoryFixture(t)
	seedRecord(t, ledger, usecase.RecordInput{
		Amount: decimal.NewFromInt(500), Rail: model.RailWalletGCash, Description: "Monthly Dues",
	})
	seedRecord(t, ledger, usecase.RecordInput{
		Amount: decimal.NewFromInt(300), Rail: model.RailScannableCode, Description: "Parking",
		Status: model.RecordStatusPending,
	})

	e := echo.New()

	t.Run("unfiltered", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
		rec := httptest.NewRecorder()

		assert.NoError(t, handler.GetHistory(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusOK, rec.Code)

		var records []model.LedgerRecord
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
		assert.Len(t, records, 2)
	})

	t.Run("filtered by status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/history?status=pending", nil)
		rec := httptest.NewRecorder()

		assert.NoError(t, handler.GetHistory(e.NewContext(req, rec)))

		var records []model.LedgerRecord
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
		assert.Len(t, records, 1)
		assert.Equal(t, "Parking", records[0].Description)
	})

	t.Run("bad date filter", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/history?date_from=yesterday", nil)
		rec := httptest.NewRecorder()

		assert.NoError(t, handler.GetHistory(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHistoryHandler_GetRecord(t *testing.T) {
	handler, ledger := newHistoryFixture(t)
	record := seedRecord(t, ledger, usecase.RecordInput{
		Amount: decimal.NewFromInt(500), Rail: model.RailWalletGCash, Description: "dues",
	})

	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(record.ID)

	assert.NoError(t, handler.GetRecord(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), record.TransactionID)

	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("no-such-id")

	assert.NoError(t, handler.GetRecord(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryHandler_Export(t *testing.T) {
	handler, ledger := newHistoryFixture(t)
	seedRecord(t, ledger, usecase.RecordInput{
		Amount: decimal.NewFromFloat(250.00), Rail: model.RailScannableCode, Description: "Monthly Dues",
	})

	e := echo.New()

	t.Run("csv", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/history/export?format=csv", nil)
		rec := httptest.NewRecorder()

		assert.NoError(t, handler.Export(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "payment_history.csv")
		assert.True(t, strings.HasPrefix(rec.Body.String(), "Transaction ID,Date,Amount (PHP)"))
		assert.Contains(t, rec.Body.String(), "InstaPay QR")
	})

	t.Run("json by default", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/history/export", nil)
		rec := httptest.NewRecorder()

		assert.NoError(t, handler.Export(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "payment_history.json")

		var records []model.LedgerRecord
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
		assert.Len(t, records, 1)
	})

	t.Run("unknown format", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/history/export?format=xml", nil)
		rec := httptest.NewRecorder()

		assert.NoError(t, handler.Export(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHistoryHandler_UpdateStatus(t *testing.T) {
	handler, ledger := newHistoryFixture(t)
	record := seedRecord(t, ledger, usecase.RecordInput{
		Amount: decimal.NewFromInt(500), Rail: model.RailWalletGCash, Description: "dues",
		Status: model.RecordStatusPending,
	})

	e := echo.New()

	newCtx := func(id, body string) (echo.Context, *httptest.ResponseRecorder) {
		req := httptest.NewRequest(http.MethodPatch, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetParamNames("id")
		c.SetParamValues(id)
		return c, rec
	}

	t.Run("updates a known record", func(t *testing.T) {
		c, rec := newCtx(record.ID, `{"status":"completed"}`)
		assert.NoError(t, handler.UpdateStatus(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		got, ok := ledger.GetByID(context.Background(), record.ID)
		assert.True(t, ok)
		assert.Equal(t, model.RecordStatusCompleted, got.Status)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		c, rec := newCtx(record.ID, `{"status":"refunded"}`)
		assert.NoError(t, handler.UpdateStatus(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("404 for absent record", func(t *testing.T) {
		c, rec := newCtx("no-such-id", `{"status":"failed"}`)
		assert.NoError(t, handler.UpdateStatus(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHistoryHandler_Clear(t *testing.T) {
	handler, ledger := newHistoryFixture(t)
	seedRecord(t, ledger, usecase.RecordInput{
		Amount: decimal.NewFromInt(500), Rail: model.RailWalletGCash, Description: "dues",
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/history", nil)
	rec := httptest.NewRecorder()

	assert.NoError(t, handler.Clear(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, ledger.Query(context.Background(), usecase.QueryFilters{}))
}
