package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Rail identifies one of the mutually exclusive payment pathways offered
// by the portal.
type Rail string

const (
	RailWalletGCash    Rail = "wallet-redirect:gcash"
	RailWalletMaya     Rail = "wallet-redirect:maya"
	RailScannableCode  Rail = "scannable-code"
	RailHostedCheckout Rail = "hosted-checkout"
)

// IsRedirect reports whether the rail navigates the user away from the
// application to complete the payment.
func (r Rail) IsRedirect() bool {
	return r == RailWalletGCash || r == RailWalletMaya || r == RailHostedCheckout
}

// DisplayName returns the human-readable name used on receipts and exports.
func (r Rail) DisplayName() string {
	switch r {
	case RailWalletGCash:
		return "GCash"
	case RailWalletMaya:
		return "Maya"
	case RailScannableCode:
		return "InstaPay QR"
	case RailHostedCheckout:
		return "Credit Card"
	default:
		return "Payment Gateway"
	}
}

// IsValid reports whether the rail is one of the known pathways.
func (r Rail) IsValid() bool {
	switch r {
	case RailWalletGCash, RailWalletMaya, RailScannableCode, RailHostedCheckout:
		return true
	}
	return false
}

// IntentStatus is the gateway-observed lifecycle state of a payment intent.
// It only ever moves forward (pending -> processing -> succeeded|failed) and
// is never set locally.
type IntentStatus string

const (
	IntentStatusPending    IntentStatus = "pending"
	IntentStatusProcessing IntentStatus = "processing"
	IntentStatusSucceeded  IntentStatus = "succeeded"
	IntentStatusFailed     IntentStatus = "failed"
)

// IsTerminal reports whether no further transitions can occur.
func (s IntentStatus) IsTerminal() bool {
	return s == IntentStatusSucceeded || s == IntentStatusFailed
}

// RecordStatus is the status of a locally recorded payment attempt.
type RecordStatus string

const (
	RecordStatusPending   RecordStatus = "pending"
	RecordStatusCompleted RecordStatus = "completed"
	RecordStatusFailed    RecordStatus = "failed"
)

// IsValid reports whether the status is one of the known record states.
func (s RecordStatus) IsValid() bool {
	switch s {
	case RecordStatusPending, RecordStatusCompleted, RecordStatusFailed:
		return true
	}
	return false
}

// PaymentRequest is the caller's description of a payment, immutable once
// submitted. Amount is in major currency units (pesos, not centavos).
type PaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Currency    string          `json:"currency"`
}

// Normalize applies the single-currency default.
func (r *PaymentRequest) Normalize() {
	if r.Currency == "" {
		r.Currency = "PHP"
	}
}

// MinorUnits converts the major-unit amount to the gateway's minor-unit
// integer representation (centavos), rounding to the nearest unit.
func (r PaymentRequest) MinorUnits() int64 {
	return r.Amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// AmountFromMinorUnits inverts the wire conversion back to a displayable
// major-unit amount with two decimal places.
func AmountFromMinorUnits(minor int64) decimal.Decimal {
	return decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)).Round(2)
}

// PaymentIntent is the canonical, rail-tagged result of creating a payment
// instrument at the gateway. The ID is gateway-issued and opaque.
// CodeImage and ExpiresAt are present only for the scannable-code rail;
// CodeImage holds the base64 payload with the data-URL prefix stripped.
type PaymentIntent struct {
	ID          string       `json:"id"`
	Rail        Rail         `json:"rail"`
	Status      IntentStatus `json:"status"`
	CheckoutURL string       `json:"checkout_url,omitempty"`
	CodeImage   string       `json:"code_image,omitempty"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
}

// LedgerRecord is a locally durable record of a payment attempt. Records are
// kept most-recent-first and never deleted except by an explicit full clear.
// IntentID is a weak reference; the ledger outlives the intent.
type LedgerRecord struct {
	ID             string            `json:"id"`
	TransactionID  string            `json:"transaction_id"`
	IntentID       string            `json:"intent_id,omitempty"`
	Rail           Rail              `json:"rail"`
	Amount         decimal.Decimal   `json:"amount"`
	Currency       string            `json:"currency"`
	PaymentType    string            `json:"payment_type"`
	Description    string            `json:"description"`
	Status         RecordStatus      `json:"status"`
	CreatedAt      time.Time         `json:"created_at"`
	ProcessedAt    time.Time         `json:"processed_at"`
	IsQuickPayment bool              `json:"is_quick_payment"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

// PendingStash carries an in-flight payment context across the redirect
// boundary. It is written immediately before navigation and consumed exactly
// once on the landing page.
type PendingStash struct {
	Request     PaymentRequest `json:"request"`
	IntentID    string         `json:"intent_id"`
	Rail        Rail           `json:"rail"`
	PaymentType string         `json:"payment_type,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
