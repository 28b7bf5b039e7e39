package paymongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/gateway"
	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/model"
	"go.uber.org/zap"
)

const dataURLPrefix = "data:image/png;base64,"

// placeholderBilling is the fixed identity attached to QR Ph payment
// methods. The gateway requires billing fields even though the paying
// party's real identity is unknown at code-creation time.
var placeholderBilling = map[string]interface{}{
	"name":  "HOA Resident",
	"email": "resident@hoa.com",
	"phone": "+639123456789",
	"address": map[string]interface{}{
		"line1":       "HOA Community",
		"city":        "Manila",
		"state":       "NCR",
		"postal_code": "1000",
		"country":     "PH",
	},
}

// CreatePayment builds the rail-specific request sequence and normalizes
// the result into the canonical intent.
func (c *Client) CreatePayment(ctx context.Context, rail model.Rail, req model.PaymentRequest) (*model.PaymentIntent, error) {
	req.Normalize()

	switch rail {
	case model.RailWalletGCash:
		return c.createSource(ctx, "gcash", rail, req)
	case model.RailWalletMaya:
		return c.createWalletIntent(ctx, "paymaya", rail, req)
	case model.RailHostedCheckout:
		return c.createCheckoutSession(ctx, req)
	case model.RailScannableCode:
		return c.createScannableCode(ctx, req)
	default:
		return nil, gateway.NewError(gateway.ErrValidation, "UNSUPPORTED_RAIL",
			fmt.Sprintf("Unsupported payment rail: %s", rail), nil)
	}
}

// createSource creates a redirectable wallet source. One round trip.
func (c *Client) createSource(ctx context.Context, sourceType string, rail model.Rail, req model.PaymentRequest) (*model.PaymentIntent, error) {
	c.logger.Info("Creating wallet source",
		zap.String("type", sourceType),
		zap.Int64("amount_centavos", req.MinorUnits()))

	data, err := c.post(ctx, "/sources", c.secretKey, map[string]interface{}{
		"type":     sourceType,
		"amount":   req.MinorUnits(),
		"currency": req.Currency,
		"redirect": map[string]interface{}{
			"success": c.successURL,
			"failed":  c.failedURL,
		},
	})
	if err != nil {
		return nil, err
	}

	attrs := getMap(data, "attributes")
	checkoutURL := getString(getMap(attrs, "redirect"), "checkout_url")
	if checkoutURL == "" {
		return nil, gateway.NewError(gateway.ErrStructural, "MISSING_CHECKOUT_URL",
			"Payment gateway did not return a checkout URL for the wallet source.", nil)
	}

	intent := &model.PaymentIntent{
		ID:          getString(data, "id"),
		Rail:        rail,
		Status:      mapIntentStatus(getString(attrs, "status")),
		CheckoutURL: checkoutURL,
	}

	c.logger.Info("Wallet source created",
		zap.String("source_id", intent.ID),
		zap.String("status", string(intent.Status)))

	return intent, nil
}

// createWalletIntent drives the three-step intent flow for wallets that do
// not support sources. The redirect URL comes back in the attach response's
// next_action.
func (c *Client) createWalletIntent(ctx context.Context, methodType string, rail model.Rail, req model.PaymentRequest) (*model.PaymentIntent, error) {
	intentData, methodID, err := c.createIntentAndMethod(ctx, methodType, req, nil)
	if err != nil {
		return nil, err
	}
	intentID := getString(intentData, "id")

	attached, err := c.attach(ctx, intentID, methodID)
	if err != nil {
		return nil, err
	}

	attrs := getMap(attached, "attributes")
	redirectURL := getString(getMap(getMap(attrs, "next_action"), "redirect"), "url")
	if redirectURL == "" {
		return nil, gateway.NewError(gateway.ErrStructural, "MISSING_REDIRECT_URL",
			"Payment gateway did not return a redirect URL for the wallet payment.", nil)
	}

	intent := &model.PaymentIntent{
		ID:          getString(attached, "id"),
		Rail:        rail,
		Status:      mapIntentStatus(getString(attrs, "status")),
		CheckoutURL: redirectURL,
	}

	c.logger.Info("Wallet payment intent attached",
		zap.String("intent_id", intent.ID),
		zap.String("status", string(intent.Status)))

	return intent, nil
}

// createCheckoutSession creates a hosted checkout session. One round trip.
func (c *Client) createCheckoutSession(ctx context.Context, req model.PaymentRequest) (*model.PaymentIntent, error) {
	c.logger.Info("Creating checkout session",
		zap.Int64("amount_centavos", req.MinorUnits()))

	data, err := c.post(ctx, "/checkout_sessions", c.secretKey, map[string]interface{}{
		"send_email_receipt":   true,
		"show_description":     true,
		"show_line_items":      true,
		"success_url":          c.successURL,
		"cancel_url":           c.cancelURL,
		"payment_method_types": []string{"card"},
		"description":          req.Description,
		"line_items": []map[string]interface{}{
			{
				"currency":    req.Currency,
				"amount":      req.MinorUnits(),
				"description": req.Description,
				"name":        "HOA Payment",
				"quantity":    1,
			},
		},
	})
	if err != nil {
		return nil, err
	}

	attrs := getMap(data, "attributes")
	checkoutURL := getString(attrs, "checkout_url")
	if checkoutURL == "" {
		return nil, gateway.NewError(gateway.ErrStructural, "MISSING_CHECKOUT_URL",
			"Payment gateway did not return a checkout URL for the session.", nil)
	}

	intent := &model.PaymentIntent{
		ID:          getString(data, "id"),
		Rail:        model.RailHostedCheckout,
		Status:      mapIntentStatus(getString(attrs, "status")),
		CheckoutURL: checkoutURL,
	}

	c.logger.Info("Checkout session created", zap.String("session_id", intent.ID))

	return intent, nil
}

// createScannableCode drives the three-step QR Ph flow: intent, method with
// placeholder billing, attach. The attach response embeds the rendered code
// as a base64 data URL; its absence is a contract violation, not "no code
// yet".
func (c *Client) createScannableCode(ctx context.Context, req model.PaymentRequest) (*model.PaymentIntent, error) {
	intentData, methodID, err := c.createIntentAndMethod(ctx, "qrph", req, placeholderBilling)
	if err != nil {
		return nil, err
	}
	intentID := getString(intentData, "id")

	attached, err := c.attach(ctx, intentID, methodID)
	if err != nil {
		return nil, err
	}

	attrs := getMap(attached, "attributes")
	imageURL := getString(getMap(getMap(attrs, "next_action"), "code"), "image_url")
	if imageURL == "" {
		return nil, gateway.NewError(gateway.ErrStructural, "MISSING_CODE_IMAGE",
			"Payment gateway did not return a QR code image.", nil)
	}

	expiresAt := time.Now().Add(codeExpiry)
	intent := &model.PaymentIntent{
		ID:        getString(attached, "id"),
		Rail:      model.RailScannableCode,
		Status:    mapIntentStatus(getString(attrs, "status")),
		CodeImage: strings.TrimPrefix(imageURL, dataURLPrefix),
		ExpiresAt: &expiresAt,
	}

	c.logger.Info("QR code created",
		zap.String("intent_id", intent.ID),
		zap.Time("expires_at", expiresAt))

	return intent, nil
}

// createIntentAndMethod runs the first two steps shared by the intent-based
// rails: create the restricted intent (secret key), then the payment-method
// object (public key).
func (c *Client) createIntentAndMethod(ctx context.Context, methodType string, req model.PaymentRequest, billing map[string]interface{}) (map[string]interface{}, string, error) {
	c.logger.Info("Creating payment intent",
		zap.String("method_type", methodType),
		zap.Int64("amount_centavos", req.MinorUnits()))

	intentData, err := c.post(ctx, "/payment_intents", c.secretKey, map[string]interface{}{
		"amount":                 req.MinorUnits(),
		"payment_method_allowed": []string{methodType},
		"currency":               req.Currency,
		"description":            req.Description,
		"statement_descriptor":   "HOA Payment",
	})
	if err != nil {
		return nil, "", err
	}

	methodAttrs := map[string]interface{}{
		"type": methodType,
	}
	if billing != nil {
		methodAttrs["billing"] = billing
	}

	methodData, err := c.post(ctx, "/payment_methods", c.publicKey, methodAttrs)
	if err != nil {
		return nil, "", err
	}

	methodID := getString(methodData, "id")
	if methodID == "" {
		return nil, "", gateway.NewError(gateway.ErrStructural, "MISSING_METHOD_ID",
			"Payment gateway did not return a payment method id.", nil)
	}

	return intentData, methodID, nil
}

// attach runs the third step, binding the payment method to the intent.
func (c *Client) attach(ctx context.Context, intentID, methodID string) (map[string]interface{}, error) {
	if intentID == "" {
		return nil, gateway.NewError(gateway.ErrStructural, "MISSING_INTENT_ID",
			"Payment gateway did not return a payment intent id.", nil)
	}

	return c.post(ctx, "/payment_intents/"+intentID+"/attach", c.secretKey, map[string]interface{}{
		"payment_method": methodID,
		"return_url":     c.successURL,
	})
}
