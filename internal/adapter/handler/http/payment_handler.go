package http

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/gateway"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/model"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/middleware/auth"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/usecase"
)

type PaymentHandler struct {
	checkout *usecase.CheckoutService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewPaymentHandler(checkout *usecase.CheckoutService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		checkout: checkout,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreatePaymentRequest is the inbound payment submission. Either an explicit
// rail or the resident's financial preference must be supplied.
type CreatePaymentRequest struct {
	Amount         float64                      `json:"amount" validate:"required,gt=0"`
	Description    string                       `json:"description" validate:"required"`
	Currency       string                       `json:"currency"`
	PaymentType    string                       `json:"payment_type"`
	Rail           string                       `json:"rail"`
	Preference     *usecase.FinancialPreference `json:"preference"`
	IsQuickPayment bool                         `json:"is_quick_payment"`
}

func (h *PaymentHandler) CreatePayment(c echo.Context) error {
	user, err := auth.RequireAuth(c)
	if user == nil {
		// The 401 response has already been written.
		return err
	}

	var req CreatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Invalid request body",
		})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "Amount and description are required",
		})
	}

	// "Preference must be configured" is enforced here, not in the
	// resolver: the resolver's hosted-checkout fallback only applies once
	// some preference exists.
	var rail model.Rail
	switch {
	case req.Rail != "":
		rail = model.Rail(req.Rail)
		if !rail.IsValid() {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error": "Unknown payment rail",
			})
		}
	case req.Preference != nil:
		rail = usecase.ResolveRail(req.Preference)
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "No payment preference configured. Please set one in your profile.",
			"code":  "PREFERENCE_NOT_CONFIGURED",
		})
	}

	h.logger.Info("Creating payment",
		zap.String("user_id", user.UserID),
		zap.String("rail", string(rail)),
		zap.Float64("amount", req.Amount))

	intent, err := h.checkout.StartPayment(c.Request().Context(), rail, model.PaymentRequest{
		Amount:      decimal.NewFromFloat(req.Amount),
		Description: req.Description,
		Currency:    req.Currency,
	}, usecase.StartOptions{
		PaymentType:    req.PaymentType,
		IsQuickPayment: req.IsQuickPayment,
	})
	if err != nil {
		return h.gatewayError(c, err)
	}

	return c.JSON(http.StatusCreated, intent)
}

func (h *PaymentHandler) GetStatus(c echo.Context) error {
	intentID := c.Param("id")

	result, err := h.checkout.CheckStatus(c.Request().Context(), intentID)
	if err != nil {
		return h.gatewayError(c, err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *PaymentHandler) Dismiss(c echo.Context) error {
	intentID := c.Param("id")
	h.checkout.Dismiss(intentID)

	return c.JSON(http.StatusOK, echo.Map{
		"dismissed": intentID,
	})
}

// CompleteReturn is the landing endpoint after a gateway redirect. The
// pending stash is consumed at most once, so a reloaded landing page cannot
// record the payment twice.
func (h *PaymentHandler) CompleteReturn(c echo.Context) error {
	record, err := h.checkout.CompleteRedirect(c.Request().Context())
	if err != nil {
		h.logger.Error("Failed to complete redirect payment", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Failed to record the payment",
		})
	}

	if record == nil {
		return c.JSON(http.StatusOK, echo.Map{
			"recorded": false,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"recorded": true,
		"record":   record,
	})
}

// gatewayError maps the gateway error taxonomy onto HTTP responses, keeping
// only the user-facing message; the cause was already logged at the client.
func (h *PaymentHandler) gatewayError(c echo.Context, err error) error {
	var gwErr *gateway.Error
	if !errors.As(err, &gwErr) {
		h.logger.Error("Unexpected payment error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "Payment processing failed. Please try again.",
		})
	}

	status := http.StatusBadGateway
	switch gwErr.Kind {
	case gateway.ErrValidation:
		status = http.StatusBadRequest
	case gateway.ErrConfiguration, gateway.ErrAuth:
		status = http.StatusInternalServerError
	case gateway.ErrConnectivity:
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, echo.Map{
		"error": gwErr.Message,
		"code":  gwErr.Code,
		"kind":  string(gwErr.Kind),
	})
}
