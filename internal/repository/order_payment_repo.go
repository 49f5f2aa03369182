package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartsales/internal/models"
)

type OrderPaymentRepository interface {
	// Upsert records an observed payment-intent status keyed by
	// (order, intent). Webhook replays and confirm retries overwrite the
	// existing row instead of inserting duplicates.
	Upsert(ctx context.Context, p *models.OrderPayment) error
	ListByOrder(ctx context.Context, orderID uint) ([]models.OrderPayment, error)
}

type orderPaymentRepository struct {
	db *gorm.DB
}

func NewOrderPaymentRepository(db *gorm.DB) OrderPaymentRepository {
	return &orderPaymentRepository{db: db}
}

func (r *orderPaymentRepository) Upsert(ctx context.Context, p *models.OrderPayment) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}, {Name: "payment_intent_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "amount", "currency", "receipt_url", "payload", "updated_at",
		}),
	}).Create(p).Error
}

func (r *orderPaymentRepository) ListByOrder(ctx context.Context, orderID uint) ([]models.OrderPayment, error) {
	var list []models.OrderPayment
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at DESC").Find(&list).Error
	return list, err
}
