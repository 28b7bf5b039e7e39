package paymongo

import (
	"context"

	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/gateway"
	"go.uber.org/zap"
)

// CheckStatus reads the intent status back from the gateway. The status is
// observed, never set locally.
func (c *Client) CheckStatus(ctx context.Context, intentID string) (*gateway.StatusResult, error) {
	data, err := c.get(ctx, "/payment_intents/"+intentID)
	if err != nil {
		return nil, err
	}

	attrs := getMap(data, "attributes")
	result := &gateway.StatusResult{
		ID:        getString(data, "id"),
		Status:    mapIntentStatus(getString(attrs, "status")),
		LastError: lastPaymentError(attrs),
	}

	c.logger.Debug("Payment status checked",
		zap.String("intent_id", intentID),
		zap.String("status", string(result.Status)))

	return result, nil
}

// lastPaymentError flattens the gateway's last_payment_error field, which
// arrives either as a plain string or as an object with a detail.
func lastPaymentError(attrs map[string]interface{}) string {
	if attrs == nil {
		return ""
	}
	switch v := attrs["last_payment_error"].(type) {
	case string:
		return v
	case map[string]interface{}:
		if detail := getString(v, "failed_message"); detail != "" {
			return detail
		}
		return getString(v, "detail")
	default:
		return ""
	}
}
