package repository

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartsales/internal/domain"
	"smartsales/internal/models"
)

type OrderFilter struct {
	UserID            *uint
	FulfillmentStatus string
	Limit             int
	Offset            int
}

// IntentFunc creates the external payment intent for a freshly persisted
// order and returns its id and client secret. It runs inside the creation
// transaction: an error rolls the whole order back.
type IntentFunc func(o *models.Order) (intentID, clientSecret string, err error)

type OrderRepository interface {
	CreateWithIntent(ctx context.Context, o *models.Order, createIntent IntentFunc) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	GetByIntentID(ctx context.Context, intentID string) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error)
	UpdateFulfillment(ctx context.Context, id uint, status string) (*models.Order, error)
	// MarkFailed moves a PENDING_PAYMENT order to FAILED; PAID and
	// CANCELED orders are left untouched.
	MarkFailed(ctx context.Context, id uint) (*models.Order, error)
	// SettlePaid runs the settlement transaction: re-reads the order for
	// the idempotence check, marks it PAID, locks the referenced products
	// in id order and decrements stock. Returns settled=false when a
	// concurrent confirmation already settled the order. A *StockError
	// rolls everything in this transaction back.
	SettlePaid(ctx context.Context, orderID uint, intentID, receiptURL string) (*models.Order, bool, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateWithIntent(ctx context.Context, o *models.Order, createIntent IntentFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		intentID, clientSecret, err := createIntent(o)
		if err != nil {
			return err
		}
		o.PaymentIntentID = &intentID
		o.ClientSecret = clientSecret
		return tx.Model(o).Updates(map[string]interface{}{
			"payment_intent_id": intentID,
			"client_secret":     clientSecret,
		}).Error
	})
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).Preload("Items").First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) GetByIntentID(ctx context.Context, intentID string) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).Preload("Items").Where("payment_intent_id = ?", intentID).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.FulfillmentStatus != "" {
		q = q.Where("fulfillment_status = ?", filter.FulfillmentStatus)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var list []models.Order
	err := q.Preload("Items").Offset(filter.Offset).Order("created_at DESC").Find(&list).Error
	return list, total, err
}

func (r *orderRepository) UpdateFulfillment(ctx context.Context, id uint, status string) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&o, id).Error; err != nil {
			return err
		}
		o.FulfillmentStatus = status
		return tx.Model(&o).Update("fulfillment_status", status).Error
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) MarkFailed(ctx context.Context, id uint) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&o, id).Error; err != nil {
			return err
		}
		if o.Status != domain.OrderPendingPayment {
			return nil
		}
		o.Status = domain.OrderFailed
		return tx.Model(&o).Update("status", domain.OrderFailed).Error
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepository) SettlePaid(ctx context.Context, orderID uint, intentID, receiptURL string) (*models.Order, bool, error) {
	var order models.Order
	settled := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			return err
		}
		// Idempotence: a concurrent confirmation may have won the race.
		if order.Status == domain.OrderPaid {
			return nil
		}

		now := time.Now()
		order.Status = domain.OrderPaid
		if order.FulfillmentStatus == domain.FulfillmentPending {
			order.FulfillmentStatus = domain.FulfillmentProcessing
		}
		order.PaidAt = &now
		if receiptURL != "" {
			order.ReceiptURL = receiptURL
		}
		updates := map[string]interface{}{
			"status":             order.Status,
			"fulfillment_status": order.FulfillmentStatus,
			"paid_at":            now,
			"receipt_url":        order.ReceiptURL,
		}
		if err := tx.Model(&order).Updates(updates).Error; err != nil {
			return err
		}

		quantities := make(map[uint]int, len(order.Items))
		for _, item := range order.Items {
			quantities[item.ProductID] += item.Quantity
		}
		ids := make([]uint, 0, len(quantities))
		for id := range quantities {
			ids = append(ids, id)
		}
		// Stable lock order across concurrent settlements avoids deadlock.
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		var products []models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id IN ?", ids).Order("id").Find(&products).Error; err != nil {
			return err
		}
		for i := range products {
			p := &products[i]
			qty := quantities[p.ID]
			if p.Stock < qty {
				return &StockError{ProductID: p.ID, ProductName: p.Name, Requested: qty, Available: p.Stock}
			}
			if err := tx.Model(p).UpdateColumn("stock", gorm.Expr("stock - ?", qty)).Error; err != nil {
				return err
			}
		}
		settled = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &order, settled, nil
}
