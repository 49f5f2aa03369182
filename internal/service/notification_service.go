package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"smartsales/internal/domain"
	"smartsales/internal/models"
	"smartsales/internal/repository"
)

// NotificationService persists in-app notifications and mirrors them as
// push messages when the user has a registered device token.
type NotificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository
	fcm      *FCMService
	logger   *zap.Logger
}

func NewNotificationService(repo repository.NotificationRepository, userRepo repository.UserRepository, fcm *FCMService, logger *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, userRepo: userRepo, fcm: fcm, logger: logger}
}

func (s *NotificationService) Notify(ctx context.Context, userID uint, category, title, body string, data map[string]interface{}) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	err := s.repo.Create(ctx, &models.Notification{
		UserID:   userID,
		Category: category,
		Title:    title,
		Body:     body,
		Data:     dataJSON,
	})
	if err != nil {
		return err
	}
	s.sendPush(ctx, userID, category, title, body, data)
	return nil
}

func (s *NotificationService) sendPush(ctx context.Context, userID uint, category, title, body string, data map[string]interface{}) {
	if s.fcm == nil || s.userRepo == nil {
		return
	}
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || u == nil || u.FCMToken == "" {
		return
	}
	_ = s.fcm.SendToUser(ctx, u.FCMToken, category, title, body, data)
}

func (s *NotificationService) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundErr("notification not found")
		}
		return err
	}
	return nil
}

// NotifyPaymentConfirmed implements OrderNotifier. Guest orders have no
// account to notify.
func (s *NotificationService) NotifyPaymentConfirmed(ctx context.Context, o *models.Order) {
	if o.UserID == nil {
		return
	}
	err := s.Notify(ctx, *o.UserID, domain.NotifyPayment,
		"Payment confirmed",
		fmt.Sprintf("Your payment for order %s was successful.", o.Number),
		map[string]interface{}{"order_id": o.ID, "order_number": o.Number, "total": o.TotalAmount.StringFixed(2)})
	if err != nil {
		s.logger.Warn("payment confirmation notification failed", zap.Uint("order_id", o.ID), zap.Error(err))
	}
}

// NotifyPaymentFailed implements OrderNotifier.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, o *models.Order) {
	if o == nil || o.UserID == nil {
		return
	}
	err := s.Notify(ctx, *o.UserID, domain.NotifyPayment,
		"Payment failed",
		fmt.Sprintf("Your payment for order %s did not go through. Please try again.", o.Number),
		map[string]interface{}{"order_id": o.ID, "order_number": o.Number})
	if err != nil {
		s.logger.Warn("payment failure notification failed", zap.Uint("order_id", o.ID), zap.Error(err))
	}
}

// NotifyOrderStatus tells the customer their order moved along fulfillment.
func (s *NotificationService) NotifyOrderStatus(ctx context.Context, o *models.Order) {
	if o.UserID == nil {
		return
	}
	err := s.Notify(ctx, *o.UserID, domain.NotifyOrderStatus,
		"Order update",
		fmt.Sprintf("Order %s is now %s.", o.Number, o.FulfillmentStatus),
		map[string]interface{}{"order_id": o.ID, "order_number": o.Number, "fulfillment_status": o.FulfillmentStatus})
	if err != nil {
		s.logger.Warn("order status notification failed", zap.Uint("order_id", o.ID), zap.Error(err))
	}
}
