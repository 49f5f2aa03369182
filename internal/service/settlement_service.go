package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"smartsales/internal/models"
	"smartsales/internal/payment"
	"smartsales/internal/repository"
)

// OrderNotifier delivers customer-facing notifications after settlement
// outcomes. Implementations must tolerate missing device tokens.
type OrderNotifier interface {
	NotifyPaymentConfirmed(ctx context.Context, o *models.Order)
	NotifyPaymentFailed(ctx context.Context, o *models.Order)
}

// OrderEvents pushes realtime order updates to connected clients.
type OrderEvents interface {
	OrderPaid(o *models.Order)
	OrderFailed(o *models.Order)
}

// SettlementService drives an order from PENDING_PAYMENT to its terminal
// state off the provider's reported intent status. Both the customer
// confirm call and the provider webhook funnel into the same apply path,
// so replays and races converge on one outcome.
type SettlementService struct {
	orders         repository.OrderRepository
	payments       repository.OrderPaymentRepository
	provider       payment.Provider
	notifier       OrderNotifier
	events         OrderEvents
	logger         *zap.Logger
	confirmTimeout time.Duration
}

func NewSettlementService(
	orders repository.OrderRepository,
	payments repository.OrderPaymentRepository,
	provider payment.Provider,
	notifier OrderNotifier,
	events OrderEvents,
	logger *zap.Logger,
	confirmTimeout time.Duration,
) *SettlementService {
	if confirmTimeout <= 0 {
		confirmTimeout = 15 * time.Second
	}
	return &SettlementService{
		orders:         orders,
		payments:       payments,
		provider:       provider,
		notifier:       notifier,
		events:         events,
		logger:         logger,
		confirmTimeout: confirmTimeout,
	}
}

// Confirm is the customer-driven settlement path: fetch the live intent
// status from the provider and apply it to the order. Safe to call any
// number of times; a settled order is returned as-is.
func (s *SettlementService) Confirm(ctx context.Context, orderID uint, intentID string) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("order not found")
		}
		return nil, fmt.Errorf("load order: %w", err)
	}

	if order.IsPaid() {
		return order, nil
	}

	if intentID == "" {
		if order.PaymentIntentID == nil || *order.PaymentIntentID == "" {
			return nil, validationErr("order has no payment intent")
		}
		intentID = *order.PaymentIntentID
	} else if order.PaymentIntentID != nil && *order.PaymentIntentID != intentID {
		return nil, validationErr("payment intent does not belong to this order")
	}

	rctx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()
	intent, err := s.provider.RetrieveIntent(rctx, intentID)
	if err != nil {
		s.logger.Warn("payment intent retrieval failed",
			zap.Uint("order_id", order.ID),
			zap.String("intent_id", intentID),
			zap.Error(err))
		return nil, unavailableErr("payment provider unavailable", err)
	}

	return s.apply(ctx, order, intent)
}

// HandleProviderEvent applies a verified webhook intent to its order.
// Intents that match no order are acknowledged silently; the provider
// retries on error responses, not on unknown references.
func (s *SettlementService) HandleProviderEvent(ctx context.Context, intent *payment.Intent) error {
	if intent == nil {
		return nil
	}
	order, err := s.orders.GetByIntentID(ctx, intent.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Debug("webhook intent matches no order", zap.String("intent_id", intent.ID))
			return nil
		}
		return fmt.Errorf("load order by intent: %w", err)
	}

	_, err = s.apply(ctx, order, intent)
	switch KindOf(err) {
	case KindRetryable, KindValidation:
		// Declined or still-processing intents were recorded; the webhook
		// has nothing further to do.
		return nil
	}
	return err
}

func (s *SettlementService) apply(ctx context.Context, order *models.Order, intent *payment.Intent) (*models.Order, error) {
	switch {
	case intent.Status == payment.StatusSucceeded:
		return s.applySucceeded(ctx, order, intent)

	case intent.Pending():
		s.logger.Info("payment still pending",
			zap.Uint("order_id", order.ID),
			zap.String("intent_status", intent.Status))
		return nil, retryableErr("payment is still processing")

	default:
		return s.applyFailed(ctx, order, intent)
	}
}

func (s *SettlementService) applySucceeded(ctx context.Context, order *models.Order, intent *payment.Intent) (*models.Order, error) {
	// The payment observation commits before the settlement transaction:
	// if stock settlement rolls back, the money trail survives for manual
	// reconciliation.
	if err := s.payments.Upsert(ctx, s.paymentRow(order, intent)); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	settledOrder, settled, err := s.orders.SettlePaid(ctx, order.ID, intent.ID, intent.ReceiptURL)
	if err != nil {
		var stockErr *repository.StockError
		if errors.As(err, &stockErr) {
			s.logger.Error("payment captured but stock exhausted, order needs manual reconciliation",
				zap.Uint("order_id", order.ID),
				zap.String("order_number", order.Number),
				zap.String("intent_id", intent.ID),
				zap.Uint("product_id", stockErr.ProductID),
				zap.Int("requested", stockErr.Requested),
				zap.Int("available", stockErr.Available))
			return nil, conflictErr("insufficient stock to fulfill the paid order", stockErr)
		}
		return nil, fmt.Errorf("settle order: %w", err)
	}

	if settled {
		s.logger.Info("order settled",
			zap.Uint("order_id", settledOrder.ID),
			zap.String("order_number", settledOrder.Number),
			zap.String("total", settledOrder.TotalAmount.StringFixed(2)))
		if s.notifier != nil {
			s.notifier.NotifyPaymentConfirmed(ctx, settledOrder)
		}
		if s.events != nil {
			s.events.OrderPaid(settledOrder)
		}
	}
	return settledOrder, nil
}

func (s *SettlementService) applyFailed(ctx context.Context, order *models.Order, intent *payment.Intent) (*models.Order, error) {
	if err := s.payments.Upsert(ctx, s.paymentRow(order, intent)); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	failedOrder, err := s.orders.MarkFailed(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("mark order failed: %w", err)
	}

	s.logger.Info("payment declined",
		zap.Uint("order_id", order.ID),
		zap.String("intent_status", intent.Status))
	if s.notifier != nil {
		s.notifier.NotifyPaymentFailed(ctx, failedOrder)
	}
	if s.events != nil {
		s.events.OrderFailed(failedOrder)
	}
	return nil, validationErr("payment was not completed")
}

func (s *SettlementService) paymentRow(order *models.Order, intent *payment.Intent) *models.OrderPayment {
	amount := decimal.NewFromInt(intent.Amount).Div(decimal.NewFromInt(100))
	currency := strings.ToUpper(intent.Currency)
	if currency == "" {
		currency = order.Currency
	}
	return &models.OrderPayment{
		OrderID:         order.ID,
		PaymentIntentID: intent.ID,
		Status:          intent.Status,
		Amount:          amount,
		Currency:        currency,
		ReceiptURL:      intent.ReceiptURL,
		Payload:         intent.Raw,
	}
}
