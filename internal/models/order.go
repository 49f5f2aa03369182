package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"smartsales/internal/domain"
)

// Order snapshots the customer contact and shipping address at checkout
// time so later profile edits never rewrite history. Monetary breakdown
// invariant: total = subtotal - discount + tax + shipping.
type Order struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Number string `gorm:"uniqueIndex;size:20;not null" json:"number"`
	UserID *uint  `gorm:"index" json:"user_id"`

	CustomerName  string `gorm:"size:160;not null" json:"customer_name"`
	CustomerEmail string `gorm:"size:255;not null" json:"customer_email"`
	CustomerPhone string `gorm:"size:30" json:"customer_phone"`

	ShippingLine1      string `gorm:"size:160;not null" json:"shipping_line1"`
	ShippingLine2      string `gorm:"size:160" json:"shipping_line2"`
	ShippingCity       string `gorm:"size:80;not null" json:"shipping_city"`
	ShippingState      string `gorm:"size:80" json:"shipping_state"`
	ShippingPostalCode string `gorm:"size:20" json:"shipping_postal_code"`
	ShippingCountry    string `gorm:"size:2;not null" json:"shipping_country"`
	Notes              string `gorm:"type:text" json:"notes"`

	SubtotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"tax_amount"`
	ShippingAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"shipping_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Currency       string          `gorm:"size:3;not null;default:'USD'" json:"currency"`

	Status            string `gorm:"size:20;not null;index;default:'PENDING_PAYMENT'" json:"status"`
	FulfillmentStatus string `gorm:"size:20;not null;default:'PENDING'" json:"fulfillment_status"`

	PaymentIntentID *string    `gorm:"uniqueIndex;size:128" json:"payment_intent_id"`
	ClientSecret    string     `gorm:"size:200" json:"-"`
	ReceiptURL      string     `gorm:"size:512" json:"receipt_url"`
	PaidAt          *time.Time `json:"paid_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items    []OrderItem    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Payments []OrderPayment `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
	User     *User          `gorm:"foreignKey:UserID" json:"-"`
}

func (Order) TableName() string {
	return "orders"
}

// NewOrderNumber generates a human-readable unique order number like
// ORD-20250131-4F2A.
func NewOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), suffix)
}

func (o *Order) IsPaid() bool { return o.Status == domain.OrderPaid }

// OrderItem freezes product name, SKU, pricing and the winning promotion
// at purchase time; later catalog edits must not change it.
type OrderItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	OrderID   uint `gorm:"not null;index" json:"order_id"`
	ProductID uint `gorm:"not null;index" json:"product_id"`

	ProductName string `gorm:"size:160;not null" json:"product_name"`
	ProductSKU  string `gorm:"size:64;not null" json:"product_sku"`

	UnitPrice         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"` // after discount
	Quantity          int             `gorm:"not null" json:"quantity"`
	TotalPrice        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_price"`
	DiscountAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_amount"`
	PromotionSnapshot string          `gorm:"type:text" json:"promotion_snapshot"` // JSON

	Product Product `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"-"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// OrderPayment logs every externally observed payment-intent status for an
// order. Keyed by (order, intent) so webhook replays upsert instead of
// duplicating rows. A succeeded row may exist for an order that is not
// PAID: that is the stock-conflict reconciliation case and is deliberate.
type OrderPayment struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	OrderID         uint            `gorm:"not null;uniqueIndex:idx_order_intent" json:"order_id"`
	PaymentIntentID string          `gorm:"size:128;not null;uniqueIndex:idx_order_intent" json:"payment_intent_id"`
	Status          string          `gorm:"size:32;not null" json:"status"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency        string          `gorm:"size:3;not null" json:"currency"`
	ReceiptURL      string          `gorm:"size:512" json:"receipt_url"`
	Payload         string          `gorm:"type:text" json:"-"` // raw provider snapshot
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (OrderPayment) TableName() string {
	return "order_payments"
}
