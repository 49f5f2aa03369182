package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"smartsales/internal/domain"
	"smartsales/internal/models"
	"smartsales/internal/payment"
	"smartsales/internal/pricing"
	"smartsales/internal/repository"
)

type CartLine struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1"`
}

type CustomerInfo struct {
	Name  string `json:"name" binding:"required,max=160"`
	Email string `json:"email" binding:"required,email"`
	Phone string `json:"phone" binding:"max=30"`
}

type AddressInfo struct {
	Line1      string `json:"line1" binding:"required,max=160"`
	Line2      string `json:"line2" binding:"max=160"`
	City       string `json:"city" binding:"required,max=80"`
	State      string `json:"state" binding:"max=80"`
	PostalCode string `json:"postal_code" binding:"max=20"`
	Country    string `json:"country" binding:"required,len=2"`
}

type CheckoutRequest struct {
	Cart            []CartLine   `json:"cart" binding:"required,dive"`
	Customer        CustomerInfo `json:"customer" binding:"required"`
	ShippingAddress AddressInfo  `json:"shipping_address" binding:"required"`
	Notes           string       `json:"notes"`
	// Tax and shipping come from policy outside the discount engine;
	// absent they default to zero.
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	ShippingAmount decimal.Decimal `json:"shipping_amount"`
}

// CheckoutService builds an order from a cart: aggregates duplicate
// lines, checks availability, prices every line through one promotion
// pricing engine and persists the order together with its payment intent.
type CheckoutService struct {
	orders     repository.OrderRepository
	products   repository.ProductRepository
	promotions pricing.PromotionSource
	provider   payment.Provider
	currency   string
	maxPerLine int
	logger     *zap.Logger
}

func NewCheckoutService(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	promotions pricing.PromotionSource,
	provider payment.Provider,
	currency string,
	maxPerLine int,
	logger *zap.Logger,
) *CheckoutService {
	if maxPerLine <= 0 {
		maxPerLine = 50
	}
	return &CheckoutService{
		orders:     orders,
		products:   products,
		promotions: promotions,
		provider:   provider,
		currency:   strings.ToUpper(currency),
		maxPerLine: maxPerLine,
		logger:     logger,
	}
}

// Start validates the cart and creates a PENDING_PAYMENT order with its
// items and external payment intent in one transaction. The stock check
// here is advisory; settlement re-checks under row locks.
func (s *CheckoutService) Start(ctx context.Context, userID *uint, req *CheckoutRequest) (*models.Order, error) {
	if len(req.Cart) == 0 {
		return nil, validationErr("cart cannot be empty")
	}

	// Collapse duplicate lines for the same product, keeping first-seen
	// order so item rows come out deterministic.
	quantities := make(map[uint]int, len(req.Cart))
	ordered := make([]uint, 0, len(req.Cart))
	for _, line := range req.Cart {
		if line.Quantity < 1 {
			return nil, validationErr("line quantity must be at least 1")
		}
		if _, seen := quantities[line.ProductID]; !seen {
			ordered = append(ordered, line.ProductID)
		}
		quantities[line.ProductID] += line.Quantity
		if quantities[line.ProductID] > s.maxPerLine {
			return nil, validationErr(fmt.Sprintf("quantity for a single product cannot exceed %d", s.maxPerLine))
		}
	}

	productList, err := s.products.FindActiveByIDs(ctx, ordered)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	found := make(map[uint]*models.Product, len(productList))
	for i := range productList {
		found[productList[i].ID] = &productList[i]
	}
	if len(found) != len(ordered) {
		for _, id := range ordered {
			if _, ok := found[id]; !ok {
				s.logger.Warn("checkout requested unavailable product", zap.Uint("product_id", id))
			}
		}
		return nil, validationErr("some products in the cart are unavailable")
	}

	for _, id := range ordered {
		p := found[id]
		if p.Stock < quantities[id] {
			s.logger.Info("checkout stock pre-check failed",
				zap.Uint("product_id", p.ID),
				zap.Int("requested", quantities[id]),
				zap.Int("available", p.Stock))
			return nil, validationErr(fmt.Sprintf("insufficient stock for %s: %d available", p.Name, p.Stock))
		}
	}

	engine, err := pricing.NewEngine(ctx, s.promotions, productList, time.Now())
	if err != nil {
		return nil, fmt.Errorf("build pricing engine: %w", err)
	}

	subtotal := decimal.Zero
	discountTotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(ordered))
	for _, id := range ordered {
		p := found[id]
		qty := decimal.NewFromInt(int64(quantities[id]))

		unitPrice := p.Price
		discountPerUnit := decimal.Zero
		snapshot := ""
		if best := engine.Get(p.ID); best != nil {
			unitPrice = best.FinalPrice
			discountPerUnit = best.DiscountPerUnit
			snapshot = best.SnapshotJSON()
		}

		// Subtotal accumulates the original price; the discount is carried
		// separately so total = subtotal - discount holds.
		subtotal = subtotal.Add(p.Price.Mul(qty))
		lineDiscount := discountPerUnit.Mul(qty)
		discountTotal = discountTotal.Add(lineDiscount)

		items = append(items, models.OrderItem{
			ProductID:         p.ID,
			ProductName:       p.Name,
			ProductSKU:        p.SKU,
			UnitPrice:         unitPrice,
			Quantity:          quantities[id],
			TotalPrice:        unitPrice.Mul(qty),
			DiscountAmount:    lineDiscount,
			PromotionSnapshot: snapshot,
		})
	}

	tax := req.TaxAmount
	shipping := req.ShippingAmount
	if tax.Sign() < 0 || shipping.Sign() < 0 {
		return nil, validationErr("tax and shipping amounts cannot be negative")
	}
	total := subtotal.Sub(discountTotal).Add(tax).Add(shipping)
	if total.Sign() <= 0 {
		return nil, validationErr("order total must be greater than zero")
	}

	order := &models.Order{
		Number:             models.NewOrderNumber(),
		UserID:             userID,
		CustomerName:       req.Customer.Name,
		CustomerEmail:      req.Customer.Email,
		CustomerPhone:      req.Customer.Phone,
		ShippingLine1:      req.ShippingAddress.Line1,
		ShippingLine2:      req.ShippingAddress.Line2,
		ShippingCity:       req.ShippingAddress.City,
		ShippingState:      req.ShippingAddress.State,
		ShippingPostalCode: req.ShippingAddress.PostalCode,
		ShippingCountry:    strings.ToUpper(req.ShippingAddress.Country),
		Notes:              req.Notes,
		SubtotalAmount:     subtotal,
		DiscountAmount:     discountTotal,
		TaxAmount:          tax,
		ShippingAmount:     shipping,
		TotalAmount:        total,
		Currency:           s.currency,
		Status:             domain.OrderPendingPayment,
		FulfillmentStatus:  domain.FulfillmentPending,
		Items:              items,
	}

	err = s.orders.CreateWithIntent(ctx, order, func(o *models.Order) (string, string, error) {
		cents := o.TotalAmount.Mul(decimal.NewFromInt(100)).IntPart()
		intent, err := s.provider.CreateIntent(ctx, payment.CreateIntentParams{
			AmountCents:  cents,
			Currency:     strings.ToLower(o.Currency),
			ReceiptEmail: o.CustomerEmail,
			Description:  "Order " + o.Number,
			Metadata: map[string]string{
				"order_id":     strconv.FormatUint(uint64(o.ID), 10),
				"order_number": o.Number,
			},
		})
		if err != nil {
			return "", "", err
		}
		return intent.ID, intent.ClientSecret, nil
	})
	if err != nil {
		if errors.Is(err, payment.ErrProviderUnavailable) {
			s.logger.Error("payment intent creation failed, checkout aborted",
				zap.String("order_number", order.Number), zap.Error(err))
			return nil, unavailableErr("payment provider unavailable", err)
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("checkout started",
		zap.String("order_number", order.Number),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.Int("items", len(order.Items)))
	return order, nil
}
