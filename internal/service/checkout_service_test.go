package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smartsales/internal/domain"
	"smartsales/internal/models"
	"smartsales/internal/payment"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

type checkoutEnv struct {
	store    *fakeStore
	orders   *fakeOrderRepo
	products *fakeProductRepo
	source   *staticPromotionSource
	provider *payment.StubProvider
	svc      *CheckoutService
}

func newCheckoutEnv(promotions ...models.Promotion) *checkoutEnv {
	store := newFakeStore()
	env := &checkoutEnv{
		store:    store,
		orders:   &fakeOrderRepo{store: store},
		products: &fakeProductRepo{store: store},
		source:   &staticPromotionSource{promotions: promotions},
		provider: payment.NewStubProvider(),
	}
	env.svc = NewCheckoutService(env.orders, env.products, env.source, env.provider, "USD", 50, zap.NewNop())
	return env
}

func (e *checkoutEnv) addProduct(id uint, price string, stock int) {
	e.store.addProduct(&models.Product{
		ID: id, CategoryID: 1, Name: "Widget", SKU: "SKU-0001",
		Price: dec(price), Stock: stock, IsActive: true,
	})
}

func checkoutReq(lines ...CartLine) *CheckoutRequest {
	return &CheckoutRequest{
		Cart: lines,
		Customer: CustomerInfo{
			Name:  "Jane Doe",
			Email: "jane@example.com",
		},
		ShippingAddress: AddressInfo{
			Line1:   "1 Main St",
			City:    "Springfield",
			Country: "US",
		},
	}
}

func globalPercent(id uint, value string) models.Promotion {
	return models.Promotion{
		ID: id, Name: "sale", DiscountType: domain.DiscountPercent,
		DiscountValue: dec(value), Scope: domain.ScopeGlobal,
		StartDate: time.Now().Add(-time.Hour), IsActive: true,
	}
}

func TestStartEmptyCart(t *testing.T) {
	env := newCheckoutEnv()
	_, err := env.svc.Start(context.Background(), nil, checkoutReq())
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestStartUnavailableProduct(t *testing.T) {
	env := newCheckoutEnv()
	env.addProduct(1, "100.00", 10)
	env.store.addProduct(&models.Product{ID: 2, CategoryID: 1, Name: "Gone", SKU: "SKU-0002", Price: dec("5.00"), Stock: 3, IsActive: false})

	_, err := env.svc.Start(context.Background(), nil, checkoutReq(
		CartLine{ProductID: 1, Quantity: 1},
		CartLine{ProductID: 2, Quantity: 1},
	))
	require.Equal(t, KindValidation, KindOf(err))
	// Generic message: which product is missing stays internal.
	assert.EqualError(t, err, "some products in the cart are unavailable")
}

func TestStartStockBoundary(t *testing.T) {
	env := newCheckoutEnv()
	env.addProduct(1, "10.00", 5)

	_, err := env.svc.Start(context.Background(), nil, checkoutReq(CartLine{ProductID: 1, Quantity: 6}))
	assert.Equal(t, KindValidation, KindOf(err))

	order, err := env.svc.Start(context.Background(), nil, checkoutReq(CartLine{ProductID: 1, Quantity: 5}))
	require.NoError(t, err)
	assert.Equal(t, domain.OrderPendingPayment, order.Status)
}

func TestStartAggregatesDuplicateLines(t *testing.T) {
	env := newCheckoutEnv()
	env.addProduct(1, "10.00", 10)

	order, err := env.svc.Start(context.Background(), nil, checkoutReq(
		CartLine{ProductID: 1, Quantity: 2},
		CartLine{ProductID: 1, Quantity: 3},
	))
	require.NoError(t, err)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 5, order.Items[0].Quantity)
	assert.True(t, dec("50.00").Equal(order.TotalAmount))
}

func TestStartDuplicateLinesRespectStock(t *testing.T) {
	env := newCheckoutEnv()
	env.addProduct(1, "10.00", 4)

	_, err := env.svc.Start(context.Background(), nil, checkoutReq(
		CartLine{ProductID: 1, Quantity: 2},
		CartLine{ProductID: 1, Quantity: 3},
	))
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestStartAppliesPromotionPricing(t *testing.T) {
	env := newCheckoutEnv(globalPercent(1, "10"))
	env.addProduct(1, "100.00", 10)

	order, err := env.svc.Start(context.Background(), nil, checkoutReq(CartLine{ProductID: 1, Quantity: 2}))
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.True(t, dec("90.00").Equal(item.UnitPrice))
	assert.True(t, dec("180.00").Equal(item.TotalPrice))
	assert.True(t, dec("20.00").Equal(item.DiscountAmount))
	assert.Contains(t, item.PromotionSnapshot, `"discount_amount":"10.00"`)

	// Subtotal stays at the original price; discount is carried apart.
	assert.True(t, dec("200.00").Equal(order.SubtotalAmount))
	assert.True(t, dec("20.00").Equal(order.DiscountAmount))
	assert.True(t, dec("180.00").Equal(order.TotalAmount))
}

func TestStartTotalsRoundTrip(t *testing.T) {
	env := newCheckoutEnv(globalPercent(1, "15"))
	env.addProduct(1, "19.99", 10)
	env.addProduct(2, "5.25", 10)

	order, err := env.svc.Start(context.Background(), nil, checkoutReq(
		CartLine{ProductID: 1, Quantity: 3},
		CartLine{ProductID: 2, Quantity: 2},
	))
	require.NoError(t, err)

	itemSum := decimal.Zero
	for _, item := range order.Items {
		itemSum = itemSum.Add(item.TotalPrice)
	}
	assert.True(t, itemSum.Equal(order.SubtotalAmount.Sub(order.DiscountAmount)),
		"sum of item totals %s must equal subtotal-discount %s",
		itemSum, order.SubtotalAmount.Sub(order.DiscountAmount))
	assert.True(t, order.TotalAmount.Equal(itemSum.Add(order.TaxAmount).Add(order.ShippingAmount)))
}

func TestStartRejectsZeroTotal(t *testing.T) {
	env := newCheckoutEnv(globalPercent(1, "100"))
	env.addProduct(1, "50.00", 10)

	_, err := env.svc.Start(context.Background(), nil, checkoutReq(CartLine{ProductID: 1, Quantity: 1}))
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestStartProviderFailureAbortsOrder(t *testing.T) {
	env := newCheckoutEnv()
	env.addProduct(1, "10.00", 10)
	env.svc = NewCheckoutService(env.orders, env.products, env.source, failingProvider{}, "USD", 50, zap.NewNop())

	_, err := env.svc.Start(context.Background(), nil, checkoutReq(CartLine{ProductID: 1, Quantity: 1}))
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.Empty(t, env.store.orders, "failed intent creation must leave no order behind")
}

func TestStartPersistsIntent(t *testing.T) {
	env := newCheckoutEnv()
	env.addProduct(1, "25.00", 10)
	userID := uint(7)

	order, err := env.svc.Start(context.Background(), &userID, checkoutReq(CartLine{ProductID: 1, Quantity: 2}))
	require.NoError(t, err)

	require.NotNil(t, order.PaymentIntentID)
	assert.NotEmpty(t, order.ClientSecret)
	assert.Equal(t, &userID, order.UserID)
	assert.Equal(t, domain.OrderPendingPayment, order.Status)
	assert.Equal(t, domain.FulfillmentPending, order.FulfillmentStatus)

	intent, err := env.provider.RetrieveIntent(context.Background(), *order.PaymentIntentID)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), intent.Amount, "50.00 USD is 5000 cents")
	assert.Equal(t, "usd", intent.Currency)
}

func TestStartRejectsExcessiveQuantity(t *testing.T) {
	env := newCheckoutEnv()
	env.addProduct(1, "1.00", 1000)

	_, err := env.svc.Start(context.Background(), nil, checkoutReq(CartLine{ProductID: 1, Quantity: 51}))
	assert.Equal(t, KindValidation, KindOf(err))
}
