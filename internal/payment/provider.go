package payment

import (
	"context"
	"errors"
)

// ErrProviderUnavailable wraps transport/auth/configuration failures at
// the payment provider. Callers treat it as retryable and never translate
// it into a failed payment.
var ErrProviderUnavailable = errors.New("payment provider unavailable")

// Intent statuses as reported by the provider.
const (
	StatusSucceeded            = "succeeded"
	StatusProcessing           = "processing"
	StatusRequiresAction       = "requires_action"
	StatusRequiresConfirmation = "requires_confirmation"
	StatusRequiresPayment      = "requires_payment_method"
	StatusCanceled             = "canceled"
	StatusFailed               = "payment_failed"
)

// Intent is the explicit shape of a provider payment intent, populated at
// the boundary. Business logic never sees raw provider objects.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64 // minor units
	Currency     string
	ReceiptURL   string
	Raw          string // provider payload snapshot, for the payment log
}

// Pending reports whether the provider is still working on the intent, in
// which case confirmation should be retried rather than failed.
func (i *Intent) Pending() bool {
	switch i.Status {
	case StatusProcessing, StatusRequiresAction, StatusRequiresConfirmation:
		return true
	}
	return false
}

type CreateIntentParams struct {
	AmountCents  int64
	Currency     string
	ReceiptEmail string
	Description  string
	Metadata     map[string]string
}

// Provider abstracts the external payment processor. Implementations hold
// their own explicitly constructed client; no process-global state.
type Provider interface {
	CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}
