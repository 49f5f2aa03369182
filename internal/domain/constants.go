package domain

// User roles.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// Order payment status. PAID is terminal; FAILED keeps the order around so
// the customer can retry with a fresh checkout.
const (
	OrderPendingPayment = "PENDING_PAYMENT"
	OrderPaid           = "PAID"
	OrderFailed         = "FAILED"
	OrderCanceled       = "CANCELED"
)

// Fulfillment status, independent of payment status.
const (
	FulfillmentPending    = "PENDING"
	FulfillmentProcessing = "PROCESSING"
	FulfillmentInTransit  = "IN_TRANSIT"
	FulfillmentDelivered  = "DELIVERED"
)

// Promotion discount types.
const (
	DiscountPercent     = "PERCENT"
	DiscountFixedAmount = "FIXED_AMOUNT"
)

// Promotion scopes, from broadest to narrowest.
const (
	ScopeGlobal   = "GLOBAL"
	ScopeCategory = "CATEGORY"
	ScopeProduct  = "PRODUCT"
)

// Notification categories.
const (
	NotifyPayment     = "PAYMENT"
	NotifyOrderStatus = "ORDER_STATUS"
	NotifyPromotion   = "PROMOTION"
)

func ValidFulfillmentStatus(s string) bool {
	switch s {
	case FulfillmentPending, FulfillmentProcessing, FulfillmentInTransit, FulfillmentDelivered:
		return true
	}
	return false
}

func ValidScope(s string) bool {
	switch s {
	case ScopeGlobal, ScopeCategory, ScopeProduct:
		return true
	}
	return false
}

func ValidDiscountType(s string) bool {
	switch s {
	case DiscountPercent, DiscountFixedAmount:
		return true
	}
	return false
}
