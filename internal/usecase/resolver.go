package usecase

import (
	"github.com/bayanihomes/hoa-portal/services/payment/internal/domain/model"
)

// FinancialPreference is the payment-related slice of a resident's profile.
type FinancialPreference struct {
	PreferredPaymentMethod string `json:"preferred_payment_method"`
	WalletProvider         string `json:"wallet_provider"`
}

// ResolveRail maps a stored financial preference onto a payment rail. It
// never fails: an absent or unrecognized preference falls back to hosted
// checkout. Callers enforce "preference must be configured" separately
// before creating a payment.
func ResolveRail(pref *FinancialPreference) model.Rail {
	if pref == nil {
		return model.RailHostedCheckout
	}

	switch pref.PreferredPaymentMethod {
	case "payment_wallet":
		if pref.WalletProvider == "maya" {
			return model.RailWalletMaya
		}
		return model.RailWalletGCash
	case "qr_code":
		return model.RailScannableCode
	default:
		return model.RailHostedCheckout
	}
}
