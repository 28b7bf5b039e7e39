package paymongo

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/gateway"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/model"
	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://api.paymongo.com/v1"
	defaultTimeout = 30 * time.Second

	// QR Ph codes expire 10 minutes after the attach step on the gateway
	// side; the gateway does not return its own expiry at that step, so the
	// client mirrors the fixed window locally.
	codeExpiry = 10 * time.Minute
)

// Config holds the PayMongo client configuration. Both keys are required:
// the secret key authenticates server-style calls, the public key
// authenticates payment-method creation.
type Config struct {
	BaseURL   string
	SecretKey string
	PublicKey string
	// ClientURL is the portal origin the gateway redirects back to.
	ClientURL string
	Timeout   time.Duration
}

// Client implements gateway.Gateway against the PayMongo REST API.
type Client struct {
	baseURL    string
	secretKey  string
	publicKey  string
	successURL string
	failedURL  string
	cancelURL  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient validates the credentials and builds a client. Missing keys are
// a fatal configuration error surfaced once here, not retried per call.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.SecretKey == "" || cfg.PublicKey == "" {
		return nil, gateway.NewError(gateway.ErrConfiguration, "MISSING_API_KEYS",
			"Payment gateway is not configured. Please contact the administrator.", nil)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    baseURL,
		secretKey:  cfg.SecretKey,
		publicKey:  cfg.PublicKey,
		successURL: cfg.ClientURL + "/payment-success",
		failedURL:  cfg.ClientURL + "/payment-failed",
		cancelURL:  cfg.ClientURL + "/payments",
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// post sends an authenticated request and returns the unwrapped "data"
// object of the response.
func (c *Client) post(ctx context.Context, path, key string, attributes map[string]interface{}) (map[string]interface{}, error) {
	body := map[string]interface{}{
		"data": map[string]interface{}{
			"attributes": attributes,
		},
	}
	return c.do(ctx, http.MethodPost, path, key, body)
}

func (c *Client) get(ctx context.Context, path string) (map[string]interface{}, error) {
	return c.do(ctx, http.MethodGet, path, c.secretKey, nil)
}

func (c *Client) do(ctx context.Context, method, path, key string, body map[string]interface{}) (map[string]interface{}, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, gateway.NewError(gateway.ErrStructural, "MARSHAL_ERROR",
				"Failed to prepare payment request.", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, gateway.NewError(gateway.ErrConnectivity, "REQUEST_ERROR",
			"Failed to create payment request.", err)
	}

	auth := base64.StdEncoding.EncodeToString([]byte(key + ":"))
	httpReq.Header.Set("Authorization", "Basic "+auth)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("PayMongo request failed",
			zap.String("path", path),
			zap.Error(err))
		return nil, gateway.NewError(gateway.ErrConnectivity, "NETWORK_ERROR",
			"Could not reach the payment gateway. Please check your connection.", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, gateway.NewError(gateway.ErrConnectivity, "RESPONSE_ERROR",
			"Failed to read payment gateway response.", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.classifyHTTPError(path, resp.StatusCode, respBody)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, gateway.NewError(gateway.ErrStructural, "PARSE_ERROR",
			"Payment gateway returned an unreadable response.", err)
	}

	data := getMap(parsed, "data")
	if data == nil {
		return nil, gateway.NewError(gateway.ErrStructural, "MISSING_DATA",
			"Payment gateway response is missing the data object.", nil)
	}

	return data, nil
}

// classifyHTTPError maps an HTTP failure onto the error taxonomy. 400s carry
// field-level detail from the errors[] array when the gateway supplied one.
func (c *Client) classifyHTTPError(path string, status int, body []byte) error {
	c.logger.Error("PayMongo returned an error response",
		zap.String("path", path),
		zap.Int("status_code", status),
		zap.ByteString("response", body))

	switch {
	case status == http.StatusUnauthorized:
		return gateway.NewError(gateway.ErrAuth, "UNAUTHORIZED",
			"Authentication with the payment gateway failed. Please check API configuration.",
			fmt.Errorf("paymongo: status %d", status))
	case status >= 500:
		return gateway.NewError(gateway.ErrGatewayServer, "GATEWAY_ERROR",
			"Payment gateway server error. Please try again later.",
			fmt.Errorf("paymongo: status %d", status))
	default:
		code, message := extractValidationDetail(body)
		return gateway.NewError(gateway.ErrValidation, code, message,
			fmt.Errorf("paymongo: status %d", status))
	}
}

// extractValidationDetail pulls the first entry from the errors[] array,
// falling back to a generic message when none is usable.
func extractValidationDetail(body []byte) (code, message string) {
	message = "Invalid payment data. Please check your payment details."

	var errResp map[string]interface{}
	if err := json.Unmarshal(body, &errResp); err != nil {
		return "", message
	}

	errList, ok := errResp["errors"].([]interface{})
	if !ok || len(errList) == 0 {
		return "", message
	}

	first, ok := errList[0].(map[string]interface{})
	if !ok {
		return "", message
	}

	code = getString(first, "code")
	if detail := getString(first, "detail"); detail != "" {
		message = detail
	}
	if code == "payment_method_not_allowed" {
		message = "The selected payment method is not enabled for this gateway account: " + message
	}
	return code, message
}

// mapIntentStatus normalizes the gateway's status vocabulary onto the
// canonical lifecycle.
func mapIntentStatus(s string) model.IntentStatus {
	switch s {
	case "succeeded", "paid", "chargeable":
		return model.IntentStatusSucceeded
	case "processing":
		return model.IntentStatusProcessing
	case "failed", "cancelled", "expired":
		return model.IntentStatusFailed
	default:
		// awaiting_payment_method, awaiting_next_action, pending
		return model.IntentStatusPending
	}
}

func getString(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if m == nil {
		return nil
	}
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}
