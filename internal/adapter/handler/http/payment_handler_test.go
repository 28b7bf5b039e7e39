package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/gateway"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/model"
	infraStorage "github.com/bayanihomes/hoa-portal/services/payment/internal/infrastructure/storage"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/middleware/auth"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/usecase"
)

const testJWTSecret = "test-secret"

// stubGateway returns canned responses per rail.
type stubGateway struct {
	intent *model.PaymentIntent
	err    error
	status *gateway.StatusResult
}

func (g *stubGateway) CreatePayment(ctx context.Context, rail model.Rail, req model.PaymentRequest) (*model.PaymentIntent, error) {
	if g.err != nil {
		return nil, g.err
	}
	intent := *g.intent
	intent.Rail = rail
	return &intent, nil
}

func (g *stubGateway) CheckStatus(ctx context.Context, intentID string) (*gateway.StatusResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.status, nil
}

func signedToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "resident-123",
		"email": "resident@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	s, err := token.SignedString([]byte(testJWTSecret))
	assert.NoError(t, err)
	return s
}

// newPaymentFixture wires a handler behind the JWT middleware, the way the
// server mounts it.
func newPaymentFixture(t *testing.T, gw gateway.Gateway) (echo.HandlerFunc, *usecase.CheckoutService) {
	t.Helper()
	logger := zap.NewNop()
	store := infraStorage.NewMemoryStore()
	ledger := usecase.NewLedgerService(store, logger)
	bridge := usecase.NewSessionBridge(store, logger)
	checkout := usecase.NewCheckoutService(gw, ledger, bridge, logger)
	handler := NewPaymentHandler(checkout, logger)

	mw := auth.JWTMiddleware(auth.JWTConfig{Secret: testJWTSecret, Logger: logger})
	return mw(handler.CreatePayment), checkout
}

func postPayment(t *testing.T, handler echo.HandlerFunc, body string, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if authorized {
		req.Header.Set("Authorization", "Bearer "+signedToken(t))
	}
	rec := httptest.NewRecorder()

	assert.NoError(t, handler(e.NewContext(req, rec)))
	return rec
}

func TestPaymentHandler_CreatePayment(t *testing.T) {
	gw := &stubGateway{intent: &model.PaymentIntent{
		ID:          "src_1",
		Status:      model.IntentStatusPending,
		CheckoutURL: "https://gateway.example/redirect",
	}}

	t.Run("explicit rail", func(t *testing.T) {
		handler, _ := newPaymentFixture(t, gw)
		rec := postPayment(t, handler,
			`{"amount":250.00,"description":"Monthly Dues","rail":"wallet-redirect:gcash"}`, true)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "src_1")
		assert.Contains(t, rec.Body.String(), "wallet-redirect:gcash")
	})

	t.Run("rail resolved from preference", func(t *testing.T) {
		handler, _ := newPaymentFixture(t, gw)
		rec := postPayment(t, handler,
			`{"amount":250.00,"description":"Monthly Dues","preference":{"preferred_payment_method":"payment_wallet","wallet_provider":"maya"}}`, true)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "wallet-redirect:maya")
	})

	t.Run("no rail and no preference", func(t *testing.T) {
		handler, _ := newPaymentFixture(t, gw)
		rec := postPayment(t, handler, `{"amount":250.00,"description":"Monthly Dues"}`, true)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "PREFERENCE_NOT_CONFIGURED")
	})

	t.Run("unknown rail", func(t *testing.T) {
		handler, _ := newPaymentFixture(t, gw)
		rec := postPayment(t, handler,
			`{"amount":250.00,"description":"Monthly Dues","rail":"bank-transfer"}`, true)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing amount", func(t *testing.T) {
		handler, _ := newPaymentFixture(t, gw)
		rec := postPayment(t, handler, `{"description":"Monthly Dues","rail":"hosted-checkout"}`, true)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		handler, _ := newPaymentFixture(t, gw)
		rec := postPayment(t, handler,
			`{"amount":250.00,"description":"Monthly Dues","rail":"hosted-checkout"}`, false)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPaymentHandler_GatewayErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		kind gateway.ErrorKind
		want int
	}{
		{"validation maps to 400", gateway.ErrValidation, http.StatusBadRequest},
		{"auth maps to 500", gateway.ErrAuth, http.StatusInternalServerError},
		{"configuration maps to 500", gateway.ErrConfiguration, http.StatusInternalServerError},
		{"connectivity maps to 503", gateway.ErrConnectivity, http.StatusServiceUnavailable},
		{"gateway server maps to 502", gateway.ErrGatewayServer, http.StatusBadGateway},
		{"structural maps to 502", gateway.ErrStructural, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &stubGateway{err: gateway.NewError(tt.kind, "SOME_CODE", "something went wrong", nil)}
			handler, _ := newPaymentFixture(t, gw)

			rec := postPayment(t, handler,
				`{"amount":250.00,"description":"Monthly Dues","rail":"wallet-redirect:gcash"}`, true)

			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), string(tt.kind))
		})
	}
}

func TestPaymentHandler_CompleteReturn(t *testing.T) {
	gw := &stubGateway{intent: &model.PaymentIntent{
		ID:          "src_1",
		Status:      model.IntentStatusPending,
		CheckoutURL: "https://gateway.example/redirect",
	}}

	logger := zap.NewNop()
	store := infraStorage.NewMemoryStore()
	ledger := usecase.NewLedgerService(store, logger)
	bridge := usecase.NewSessionBridge(store, logger)
	checkout := usecase.NewCheckoutService(gw, ledger, bridge, logger)
	handler := NewPaymentHandler(checkout, logger)

	// Start a redirect payment so a stash exists.
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments",
		strings.NewReader(`{"amount":250.00,"description":"Monthly Dues","rail":"wallet-redirect:gcash"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer "+signedToken(t))
	rec := httptest.NewRecorder()
	mw := auth.JWTMiddleware(auth.JWTConfig{Secret: testJWTSecret, Logger: logger})
	assert.NoError(t, mw(handler.CreatePayment)(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusCreated, rec.Code)

	// The landing page records the payment.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/payments/return", nil)
	rec = httptest.NewRecorder()
	assert.NoError(t, handler.CompleteReturn(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recorded":true`)

	// A reload records nothing new.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/payments/return", nil)
	rec = httptest.NewRecorder()
	assert.NoError(t, handler.CompleteReturn(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"recorded":false`)

	assert.Len(t, ledger.Query(context.Background(), usecase.QueryFilters{}), 1)
}

func TestPaymentHandler_GetStatus(t *testing.T) {
	gw := &stubGateway{status: &gateway.StatusResult{
		ID:     "pi_1",
		Status: model.IntentStatusSucceeded,
	}}

	logger := zap.NewNop()
	store := infraStorage.NewMemoryStore()
	checkout := usecase.NewCheckoutService(gw,
		usecase.NewLedgerService(store, logger),
		usecase.NewSessionBridge(store, logger),
		logger)
	handler := NewPaymentHandler(checkout, logger)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("pi_1")

	assert.NoError(t, handler.GetStatus(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "succeeded")
}
