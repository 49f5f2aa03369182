package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"smartsales/internal/domain"
	"smartsales/internal/models"
	"smartsales/internal/payment"
	"smartsales/internal/repository"
)

// In-memory doubles of the repository interfaces, mirroring the
// transactional semantics of the gorm implementations closely enough for
// settlement and checkout behavior tests.

type fakeStore struct {
	mu          sync.Mutex
	orders      map[uint]*models.Order
	products    map[uint]*models.Product
	payments    map[string]*models.OrderPayment
	nextOrderID uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:   make(map[uint]*models.Order),
		products: make(map[uint]*models.Product),
		payments: make(map[string]*models.OrderPayment),
	}
}

func (s *fakeStore) addProduct(p *models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	return &c
}

type fakeOrderRepo struct {
	store *fakeStore
}

func (r *fakeOrderRepo) CreateWithIntent(_ context.Context, o *models.Order, createIntent repository.IntentFunc) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.nextOrderID++
	o.ID = r.store.nextOrderID
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	intentID, clientSecret, err := createIntent(o)
	if err != nil {
		// Rolled back: the order never existed.
		o.ID = 0
		return err
	}
	o.PaymentIntentID = &intentID
	o.ClientSecret = clientSecret
	r.store.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *fakeOrderRepo) GetByID(_ context.Context, id uint) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneOrder(o), nil
}

func (r *fakeOrderRepo) GetByIntentID(_ context.Context, intentID string) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, o := range r.store.orders {
		if o.PaymentIntentID != nil && *o.PaymentIntentID == intentID {
			return cloneOrder(o), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeOrderRepo) List(_ context.Context, filter repository.OrderFilter) ([]models.Order, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var list []models.Order
	for _, o := range r.store.orders {
		if filter.UserID != nil && (o.UserID == nil || *o.UserID != *filter.UserID) {
			continue
		}
		if filter.FulfillmentStatus != "" && o.FulfillmentStatus != filter.FulfillmentStatus {
			continue
		}
		list = append(list, *cloneOrder(o))
	}
	return list, int64(len(list)), nil
}

func (r *fakeOrderRepo) UpdateFulfillment(_ context.Context, id uint, status string) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	o.FulfillmentStatus = status
	return cloneOrder(o), nil
}

func (r *fakeOrderRepo) MarkFailed(_ context.Context, id uint) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if o.Status == domain.OrderPendingPayment {
		o.Status = domain.OrderFailed
	}
	return cloneOrder(o), nil
}

func (r *fakeOrderRepo) SettlePaid(_ context.Context, orderID uint, intentID, receiptURL string) (*models.Order, bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	o, ok := r.store.orders[orderID]
	if !ok {
		return nil, false, gorm.ErrRecordNotFound
	}
	if o.Status == domain.OrderPaid {
		return cloneOrder(o), false, nil
	}

	quantities := make(map[uint]int)
	for _, item := range o.Items {
		quantities[item.ProductID] += item.Quantity
	}
	// All stock checks before any mutation, standing in for the rollback.
	for pid, qty := range quantities {
		p := r.store.products[pid]
		if p == nil || p.Stock < qty {
			available := 0
			name := ""
			if p != nil {
				available = p.Stock
				name = p.Name
			}
			return nil, false, &repository.StockError{ProductID: pid, ProductName: name, Requested: qty, Available: available}
		}
	}
	for pid, qty := range quantities {
		r.store.products[pid].Stock -= qty
	}

	now := time.Now()
	o.Status = domain.OrderPaid
	if o.FulfillmentStatus == domain.FulfillmentPending {
		o.FulfillmentStatus = domain.FulfillmentProcessing
	}
	o.PaidAt = &now
	if receiptURL != "" {
		o.ReceiptURL = receiptURL
	}
	return cloneOrder(o), true, nil
}

type fakeProductRepo struct {
	store *fakeStore
}

func (r *fakeProductRepo) Create(_ context.Context, p *models.Product) error {
	r.store.addProduct(p)
	return nil
}

func (r *fakeProductRepo) Update(_ context.Context, p *models.Product) error {
	r.store.addProduct(p)
	return nil
}

func (r *fakeProductRepo) GetByID(_ context.Context, id uint) (*models.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	c := *p
	return &c, nil
}

func (r *fakeProductRepo) List(_ context.Context, _ repository.ProductFilter) ([]models.Product, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var list []models.Product
	for _, p := range r.store.products {
		list = append(list, *p)
	}
	return list, int64(len(list)), nil
}

func (r *fakeProductRepo) FindActiveByIDs(_ context.Context, ids []uint) ([]models.Product, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var list []models.Product
	for _, id := range ids {
		if p, ok := r.store.products[id]; ok && p.IsActive {
			list = append(list, *p)
		}
	}
	return list, nil
}

type fakePaymentRepo struct {
	store *fakeStore
}

func paymentKey(orderID uint, intentID string) string {
	return fmt.Sprintf("%d:%s", orderID, intentID)
}

func (r *fakePaymentRepo) Upsert(_ context.Context, p *models.OrderPayment) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.payments[paymentKey(p.OrderID, p.PaymentIntentID)] = p
	return nil
}

func (r *fakePaymentRepo) ListByOrder(_ context.Context, orderID uint) ([]models.OrderPayment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var list []models.OrderPayment
	for _, p := range r.store.payments {
		if p.OrderID == orderID {
			list = append(list, *p)
		}
	}
	return list, nil
}

type staticPromotionSource struct {
	promotions []models.Promotion
}

func (s *staticPromotionSource) FindCurrent(_ context.Context, _ time.Time, _, _ []uint) ([]models.Promotion, error) {
	return s.promotions, nil
}

type recordingNotifier struct {
	confirmed []uint
	failed    []uint
}

func (n *recordingNotifier) NotifyPaymentConfirmed(_ context.Context, o *models.Order) {
	n.confirmed = append(n.confirmed, o.ID)
}

func (n *recordingNotifier) NotifyPaymentFailed(_ context.Context, o *models.Order) {
	n.failed = append(n.failed, o.ID)
}

type failingProvider struct{}

func (failingProvider) CreateIntent(context.Context, payment.CreateIntentParams) (*payment.Intent, error) {
	return nil, fmt.Errorf("stripe down: %w", payment.ErrProviderUnavailable)
}

func (failingProvider) RetrieveIntent(context.Context, string) (*payment.Intent, error) {
	return nil, fmt.Errorf("stripe down: %w", payment.ErrProviderUnavailable)
}
