package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"smartsales/internal/domain"
	"smartsales/internal/models"
	"smartsales/internal/repository"
)

type PromotionInput struct {
	Name          string          `json:"name" binding:"required,max=160"`
	Description   string          `json:"description"`
	DiscountType  string          `json:"discount_type" binding:"required"`
	DiscountValue decimal.Decimal `json:"discount_value" binding:"required"`
	Scope         string          `json:"scope" binding:"required"`
	StartDate     time.Time       `json:"start_date" binding:"required"`
	EndDate       *time.Time      `json:"end_date"`
	IsActive      *bool           `json:"is_active"`
	CategoryIDs   []uint          `json:"category_ids"`
	ProductIDs    []uint          `json:"product_ids"`
}

// PromotionService validates and persists promotions. Pricing never reads
// through this service; it goes straight to the repository's batched
// current-promotion query.
type PromotionService struct {
	repo repository.PromotionRepository
}

func NewPromotionService(repo repository.PromotionRepository) *PromotionService {
	return &PromotionService{repo: repo}
}

func (s *PromotionService) validate(in *PromotionInput) error {
	in.DiscountType = strings.ToUpper(strings.TrimSpace(in.DiscountType))
	in.Scope = strings.ToUpper(strings.TrimSpace(in.Scope))

	if !domain.ValidDiscountType(in.DiscountType) {
		return validationErr("discount_type must be PERCENT or FIXED_AMOUNT")
	}
	if !domain.ValidScope(in.Scope) {
		return validationErr("scope must be GLOBAL, CATEGORY or PRODUCT")
	}
	if in.DiscountValue.Sign() <= 0 {
		return validationErr("discount_value must be greater than zero")
	}
	if in.DiscountType == domain.DiscountPercent && in.DiscountValue.GreaterThan(decimal.NewFromInt(100)) {
		return validationErr("percent discount cannot exceed 100")
	}
	if in.EndDate != nil && !in.EndDate.After(in.StartDate) {
		return validationErr("end_date must be after start_date")
	}
	switch in.Scope {
	case domain.ScopeCategory:
		if len(in.CategoryIDs) == 0 {
			return validationErr("category-scoped promotions require category_ids")
		}
	case domain.ScopeProduct:
		if len(in.ProductIDs) == 0 {
			return validationErr("product-scoped promotions require product_ids")
		}
	}
	// Scope sets outside the declared scope are dropped rather than kept
	// around to confuse the matching query.
	if in.Scope != domain.ScopeCategory {
		in.CategoryIDs = nil
	}
	if in.Scope != domain.ScopeProduct {
		in.ProductIDs = nil
	}
	return nil
}

func (s *PromotionService) Create(ctx context.Context, in *PromotionInput) (*models.Promotion, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	p := &models.Promotion{
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue.Round(2),
		Scope:         in.Scope,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		IsActive:      active,
	}
	if err := s.repo.Create(ctx, p, in.CategoryIDs, in.ProductIDs); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, p.ID)
}

func (s *PromotionService) Update(ctx context.Context, id uint, in *PromotionInput) (*models.Promotion, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("promotion not found")
		}
		return nil, err
	}
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.DiscountType = in.DiscountType
	p.DiscountValue = in.DiscountValue.Round(2)
	p.Scope = in.Scope
	p.StartDate = in.StartDate
	p.EndDate = in.EndDate
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := s.repo.Update(ctx, p, in.CategoryIDs, in.ProductIDs); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *PromotionService) Get(ctx context.Context, id uint) (*models.Promotion, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundErr("promotion not found")
		}
		return nil, err
	}
	return p, nil
}

func (s *PromotionService) List(ctx context.Context, limit, offset int) ([]models.Promotion, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.List(ctx, limit, offset)
}
