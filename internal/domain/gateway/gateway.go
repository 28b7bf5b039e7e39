package gateway

import (
	"context"

	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/model"
)

// Gateway abstracts the external payment gateway. It owns the wire protocol
// and normalizes the heterogeneous per-rail responses into the canonical
// PaymentIntent; callers never inspect raw gateway response shapes.
type Gateway interface {
	// CreatePayment builds and submits the rail-specific request sequence
	// and returns the canonical intent.
	CreatePayment(ctx context.Context, rail model.Rail, req model.PaymentRequest) (*model.PaymentIntent, error)

	// CheckStatus reads the current intent status back from the gateway.
	CheckStatus(ctx context.Context, intentID string) (*StatusResult, error)
}

// StatusResult is the outcome of a single status probe.
type StatusResult struct {
	ID        string             `json:"id"`
	Status    model.IntentStatus `json:"status"`
	LastError string             `json:"last_error,omitempty"`
}
