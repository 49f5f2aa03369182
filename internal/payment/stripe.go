package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
)

// StripeProvider implements Provider against Stripe payment intents. The
// client is constructed once and injected; the package-global stripe key
// is deliberately not used.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api, webhookSecret: webhookSecret}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error) {
	piParams := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(params.AmountCents),
		Currency:     stripe.String(params.Currency),
		Description:  stripe.String(params.Description),
		ReceiptEmail: stripe.String(params.ReceiptEmail),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	piParams.Context = ctx
	for k, v := range params.Metadata {
		piParams.AddMetadata(k, v)
	}
	pi, err := p.api.PaymentIntents.New(piParams)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w: %v", ErrProviderUnavailable, err)
	}
	return fromStripeIntent(pi), nil
}

func (p *StripeProvider) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	piParams := &stripe.PaymentIntentParams{}
	piParams.Context = ctx
	piParams.AddExpand("latest_charge")
	pi, err := p.api.PaymentIntents.Get(id, piParams)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent %s: %w: %v", id, ErrProviderUnavailable, err)
	}
	return fromStripeIntent(pi), nil
}

// VerifyWebhook authenticates a webhook delivery and extracts the intent
// it carries. Returns (nil, nil) for event types this system ignores; a
// non-nil error means the payload must be rejected with no side effects.
func (p *StripeProvider) VerifyWebhook(payload []byte, signatureHeader string) (*Intent, error) {
	event, err := webhook.ConstructEvent(payload, signatureHeader, p.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook verification: %w", err)
	}
	switch event.Type {
	case "payment_intent.succeeded", "payment_intent.payment_failed":
	default:
		return nil, nil
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("webhook payload: %w", err)
	}
	intent := fromStripeIntent(&pi)
	intent.Raw = string(event.Data.Raw)
	if event.Type == "payment_intent.payment_failed" {
		intent.Status = StatusFailed
	}
	return intent, nil
}

func fromStripeIntent(pi *stripe.PaymentIntent) *Intent {
	intent := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}
	if pi.AmountReceived > 0 {
		intent.Amount = pi.AmountReceived
	}
	if pi.LatestCharge != nil {
		intent.ReceiptURL = pi.LatestCharge.ReceiptURL
	}
	if b, err := json.Marshal(pi); err == nil {
		intent.Raw = string(b)
	}
	return intent
}
