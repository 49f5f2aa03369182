package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartsales/internal/domain"
	"smartsales/internal/models"
	"smartsales/internal/payment"
)

type settlementEnv struct {
	*checkoutEnv
	payments *fakePaymentRepo
	notifier *recordingNotifier
	svc      *SettlementService
}

func newSettlementEnv() *settlementEnv {
	base := newCheckoutEnv()
	env := &settlementEnv{
		checkoutEnv: base,
		payments:    &fakePaymentRepo{store: base.store},
		notifier:    &recordingNotifier{},
	}
	env.svc = NewSettlementService(base.orders, env.payments, base.provider, env.notifier, nil, zap.NewNop(), time.Second)
	return env
}

// pendingOrder runs a real checkout so the order carries items and a stub
// intent in "processing".
func (e *settlementEnv) pendingOrder(t *testing.T, qty int) *models.Order {
	t.Helper()
	order, err := e.checkoutEnv.svc.Start(context.Background(), nil, checkoutReq(CartLine{ProductID: 1, Quantity: qty}))
	require.NoError(t, err)
	return order
}

func TestConfirmOrderNotFound(t *testing.T) {
	env := newSettlementEnv()
	_, err := env.svc.Confirm(context.Background(), 99, "")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestConfirmStillProcessing(t *testing.T) {
	env := newSettlementEnv()
	env.addProduct(1, "10.00", 5)
	order := env.pendingOrder(t, 2)

	_, err := env.svc.Confirm(context.Background(), order.ID, "")
	assert.Equal(t, KindRetryable, KindOf(err))

	reloaded, _ := env.orders.GetByID(context.Background(), order.ID)
	assert.Equal(t, domain.OrderPendingPayment, reloaded.Status)
	assert.Equal(t, 5, env.store.products[1].Stock, "pending payment must not touch stock")
	assert.Empty(t, env.notifier.confirmed)
}

func TestConfirmSucceededSettles(t *testing.T) {
	env := newSettlementEnv()
	env.addProduct(1, "10.00", 5)
	order := env.pendingOrder(t, 2)
	env.provider.SetStatus(*order.PaymentIntentID, payment.StatusSucceeded, "https://receipts.example/1")

	settled, err := env.svc.Confirm(context.Background(), order.ID, "")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderPaid, settled.Status)
	assert.Equal(t, domain.FulfillmentProcessing, settled.FulfillmentStatus)
	assert.NotNil(t, settled.PaidAt)
	assert.Equal(t, "https://receipts.example/1", settled.ReceiptURL)
	assert.Equal(t, 3, env.store.products[1].Stock)
	assert.Equal(t, []uint{order.ID}, env.notifier.confirmed)

	rows, _ := env.payments.ListByOrder(context.Background(), order.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, payment.StatusSucceeded, rows[0].Status)
}

func TestConfirmIsIdempotent(t *testing.T) {
	env := newSettlementEnv()
	env.addProduct(1, "10.00", 5)
	order := env.pendingOrder(t, 2)
	env.provider.SetStatus(*order.PaymentIntentID, payment.StatusSucceeded, "")

	_, err := env.svc.Confirm(context.Background(), order.ID, "")
	require.NoError(t, err)
	again, err := env.svc.Confirm(context.Background(), order.ID, "")
	require.NoError(t, err)

	assert.Equal(t, domain.OrderPaid, again.Status)
	assert.Equal(t, 3, env.store.products[1].Stock, "stock must be decremented exactly once")
	assert.Equal(t, []uint{order.ID}, env.notifier.confirmed, "confirmation notification must fire exactly once")

	rows, _ := env.payments.ListByOrder(context.Background(), order.ID)
	assert.Len(t, rows, 1, "replays upsert the same payment row")
}

func TestConfirmDeclinedMarksFailed(t *testing.T) {
	env := newSettlementEnv()
	env.addProduct(1, "10.00", 5)
	order := env.pendingOrder(t, 2)
	env.provider.SetStatus(*order.PaymentIntentID, payment.StatusRequiresPayment, "")

	_, err := env.svc.Confirm(context.Background(), order.ID, "")
	assert.Equal(t, KindValidation, KindOf(err))

	reloaded, _ := env.orders.GetByID(context.Background(), order.ID)
	assert.Equal(t, domain.OrderFailed, reloaded.Status)
	assert.Equal(t, 5, env.store.products[1].Stock)
	assert.Equal(t, []uint{order.ID}, env.notifier.failed)

	rows, _ := env.payments.ListByOrder(context.Background(), order.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, payment.StatusRequiresPayment, rows[0].Status)
}

func TestConfirmProviderUnreachable(t *testing.T) {
	env := newSettlementEnv()
	env.addProduct(1, "10.00", 5)
	order := env.pendingOrder(t, 2)

	svc := NewSettlementService(env.orders, env.payments, failingProvider{}, env.notifier, nil, zap.NewNop(), time.Second)
	_, err := svc.Confirm(context.Background(), order.ID, "")
	assert.Equal(t, KindUnavailable, KindOf(err))

	// An unreachable provider must never fail the order.
	reloaded, _ := env.orders.GetByID(context.Background(), order.ID)
	assert.Equal(t, domain.OrderPendingPayment, reloaded.Status)
}

func TestConfirmWrongIntentRejected(t *testing.T) {
	env := newSettlementEnv()
	env.addProduct(1, "10.00", 5)
	order := env.pendingOrder(t, 1)

	_, err := env.svc.Confirm(context.Background(), order.ID, "pi_someone_elses")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestConfirmStockExhaustedAfterCapture(t *testing.T) {
	env := newSettlementEnv()
	env.addProduct(1, "10.00", 5)
	order := env.pendingOrder(t, 5)
	env.provider.SetStatus(*order.PaymentIntentID, payment.StatusSucceeded, "")

	// Stock drains between checkout and settlement.
	env.store.products[1].Stock = 1

	_, err := env.svc.Confirm(context.Background(), order.ID, "")
	assert.Equal(t, KindConflict, KindOf(err))

	// Settlement rolled back, but the captured payment stays on record
	// for manual reconciliation.
	reloaded, _ := env.orders.GetByID(context.Background(), order.ID)
	assert.Equal(t, domain.OrderPendingPayment, reloaded.Status)
	assert.Equal(t, 1, env.store.products[1].Stock)
	assert.Empty(t, env.notifier.confirmed)

	rows, _ := env.payments.ListByOrder(context.Background(), order.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, payment.StatusSucceeded, rows[0].Status)
}

func TestHandleProviderEventUnknownIntent(t *testing.T) {
	env := newSettlementEnv()
	err := env.svc.HandleProviderEvent(context.Background(), &payment.Intent{
		ID: "pi_unknown", Status: payment.StatusSucceeded, Amount: 1000, Currency: "usd",
	})
	assert.NoError(t, err, "webhooks for unknown intents are acknowledged, not retried")
}

func TestHandleProviderEventSettles(t *testing.T) {
	env := newSettlementEnv()
	env.addProduct(1, "10.00", 5)
	order := env.pendingOrder(t, 2)

	err := env.svc.HandleProviderEvent(context.Background(), &payment.Intent{
		ID:         *order.PaymentIntentID,
		Status:     payment.StatusSucceeded,
		Amount:     2000,
		Currency:   "usd",
		ReceiptURL: "https://receipts.example/wh",
	})
	require.NoError(t, err)

	reloaded, _ := env.orders.GetByID(context.Background(), order.ID)
	assert.Equal(t, domain.OrderPaid, reloaded.Status)
	assert.Equal(t, 3, env.store.products[1].Stock)
}

func TestHandleProviderEventDeclinedAcked(t *testing.T) {
	env := newSettlementEnv()
	env.addProduct(1, "10.00", 5)
	order := env.pendingOrder(t, 2)

	err := env.svc.HandleProviderEvent(context.Background(), &payment.Intent{
		ID: *order.PaymentIntentID, Status: payment.StatusFailed, Amount: 2000, Currency: "usd",
	})
	assert.NoError(t, err, "a recorded decline needs no webhook retry")

	reloaded, _ := env.orders.GetByID(context.Background(), order.ID)
	assert.Equal(t, domain.OrderFailed, reloaded.Status)
}
