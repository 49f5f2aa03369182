package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"smartsales/internal/domain"
	"smartsales/internal/models"
	"smartsales/internal/repository"
)

// FulfillmentEvents mirrors fulfillment changes to connected clients.
type FulfillmentEvents interface {
	FulfillmentChanged(o *models.Order)
}

// OrderService serves order reads and the admin fulfillment workflow.
// Payment state transitions live in SettlementService, not here.
type OrderService struct {
	orders   repository.OrderRepository
	notifier *NotificationService
	events   FulfillmentEvents
	logger   *zap.Logger
}

func NewOrderService(orders repository.OrderRepository, notifier *NotificationService, events FulfillmentEvents, logger *zap.Logger) *OrderService {
	return &OrderService{orders: orders, notifier: notifier, events: events, logger: logger}
}

// Get returns the order when the requester owns it or is an admin.
func (s *OrderService) Get(ctx context.Context, id uint, requesterID uint, isAdmin bool) (*models.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("order not found")
		}
		return nil, err
	}
	if !isAdmin && (o.UserID == nil || *o.UserID != requesterID) {
		// Same answer as a missing order so ids cannot be probed.
		return nil, notFoundErr("order not found")
	}
	return o, nil
}

func (s *OrderService) List(ctx context.Context, filter repository.OrderFilter) ([]models.Order, int64, error) {
	if filter.FulfillmentStatus != "" && !domain.ValidFulfillmentStatus(filter.FulfillmentStatus) {
		return nil, 0, validationErr("unknown fulfillment status")
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}
	return s.orders.List(ctx, filter)
}

// UpdateFulfillment moves a paid order along the fulfillment pipeline and
// tells the customer.
func (s *OrderService) UpdateFulfillment(ctx context.Context, id uint, status string) (*models.Order, error) {
	if !domain.ValidFulfillmentStatus(status) {
		return nil, validationErr("unknown fulfillment status")
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("order not found")
		}
		return nil, err
	}
	if !o.IsPaid() {
		return nil, validationErr("only paid orders can change fulfillment status")
	}
	if o.FulfillmentStatus == status {
		return o, nil
	}

	updated, err := s.orders.UpdateFulfillment(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.logger.Info("fulfillment updated",
		zap.Uint("order_id", updated.ID),
		zap.String("order_number", updated.Number),
		zap.String("fulfillment_status", status))
	if s.notifier != nil {
		s.notifier.NotifyOrderStatus(ctx, updated)
	}
	if s.events != nil {
		s.events.FulfillmentChanged(updated)
	}
	return updated, nil
}
