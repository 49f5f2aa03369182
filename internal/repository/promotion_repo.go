package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"smartsales/internal/domain"
	"smartsales/internal/models"
)

type PromotionRepository interface {
	Create(ctx context.Context, p *models.Promotion, categoryIDs, productIDs []uint) error
	Update(ctx context.Context, p *models.Promotion, categoryIDs, productIDs []uint) error
	GetByID(ctx context.Context, id uint) (*models.Promotion, error)
	List(ctx context.Context, limit, offset int) ([]models.Promotion, int64, error)
	// FindCurrent implements pricing.PromotionSource: one batched query for
	// every promotion reachable by the given category/product sets as of
	// the instant.
	FindCurrent(ctx context.Context, at time.Time, categoryIDs, productIDs []uint) ([]models.Promotion, error)
}

type promotionRepository struct {
	db *gorm.DB
}

func NewPromotionRepository(db *gorm.DB) PromotionRepository {
	return &promotionRepository{db: db}
}

func (r *promotionRepository) Create(ctx context.Context, p *models.Promotion, categoryIDs, productIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(p).Error; err != nil {
			return err
		}
		return r.replaceScopeSets(tx, p, categoryIDs, productIDs)
	})
}

func (r *promotionRepository) Update(ctx context.Context, p *models.Promotion, categoryIDs, productIDs []uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(p).Error; err != nil {
			return err
		}
		return r.replaceScopeSets(tx, p, categoryIDs, productIDs)
	})
}

func (r *promotionRepository) replaceScopeSets(tx *gorm.DB, p *models.Promotion, categoryIDs, productIDs []uint) error {
	categories := make([]models.Category, len(categoryIDs))
	for i, id := range categoryIDs {
		categories[i] = models.Category{ID: id}
	}
	if err := tx.Model(p).Association("Categories").Replace(categories); err != nil {
		return err
	}
	products := make([]models.Product, len(productIDs))
	for i, id := range productIDs {
		products[i] = models.Product{ID: id}
	}
	return tx.Model(p).Association("Products").Replace(products)
}

func (r *promotionRepository) GetByID(ctx context.Context, id uint) (*models.Promotion, error) {
	var p models.Promotion
	if err := r.db.WithContext(ctx).Preload("Categories").Preload("Products").First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *promotionRepository) List(ctx context.Context, limit, offset int) ([]models.Promotion, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Promotion{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.Promotion
	err := r.db.WithContext(ctx).
		Preload("Categories").Preload("Products").
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&list).Error
	return list, total, err
}

func (r *promotionRepository) FindCurrent(ctx context.Context, at time.Time, categoryIDs, productIDs []uint) ([]models.Promotion, error) {
	if len(categoryIDs) == 0 {
		categoryIDs = []uint{0}
	}
	if len(productIDs) == 0 {
		productIDs = []uint{0}
	}
	var list []models.Promotion
	err := r.db.WithContext(ctx).
		Preload("Categories").Preload("Products").
		Where("is_active = ?", true).
		Where("start_date <= ?", at).
		Where("end_date IS NULL OR end_date >= ?", at).
		Where(
			"scope = ? OR (scope = ? AND id IN (SELECT promotion_id FROM promotion_categories WHERE category_id IN ?)) OR (scope = ? AND id IN (SELECT promotion_id FROM promotion_products WHERE product_id IN ?))",
			domain.ScopeGlobal, domain.ScopeCategory, categoryIDs, domain.ScopeProduct, productIDs,
		).
		Find(&list).Error
	return list, err
}
