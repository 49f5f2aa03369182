package pricing

import (
	"context"
	"time"

	"smartsales/internal/domain"
	"smartsales/internal/models"
)

// PromotionSource fetches, in one batch, every promotion that is active,
// inside its validity window at the given instant, and whose scope can
// reach at least one of the given categories or products (GLOBAL always
// qualifies). Implemented by repository.PromotionRepository.
type PromotionSource interface {
	FindCurrent(ctx context.Context, at time.Time, categoryIDs, productIDs []uint) ([]models.Promotion, error)
}

// Engine is a per-product best-discount lookup built once per checkout
// over a fixed product set and instant. It must not outlive the request
// it was built for: promotion edits invalidate it.
type Engine struct {
	byProduct map[uint]*Pricing
}

// NewEngine batch-fetches candidate promotions for the product set,
// partitions them by scope and selects the best pricing per product.
func NewEngine(ctx context.Context, source PromotionSource, products []models.Product, at time.Time) (*Engine, error) {
	engine := &Engine{byProduct: make(map[uint]*Pricing, len(products))}
	if len(products) == 0 {
		return engine, nil
	}

	productIDs := make([]uint, 0, len(products))
	categorySet := make(map[uint]struct{})
	for _, p := range products {
		productIDs = append(productIDs, p.ID)
		if p.CategoryID != 0 {
			categorySet[p.CategoryID] = struct{}{}
		}
	}
	categoryIDs := make([]uint, 0, len(categorySet))
	for id := range categorySet {
		categoryIDs = append(categoryIDs, id)
	}

	promotions, err := source.FindCurrent(ctx, at, categoryIDs, productIDs)
	if err != nil {
		return nil, err
	}

	var global []*models.Promotion
	byCategory := make(map[uint][]*models.Promotion)
	byProductID := make(map[uint][]*models.Promotion)
	for i := range promotions {
		promo := &promotions[i]
		switch promo.Scope {
		case domain.ScopeGlobal:
			global = append(global, promo)
		case domain.ScopeCategory:
			for _, cat := range promo.Categories {
				byCategory[cat.ID] = append(byCategory[cat.ID], promo)
			}
		case domain.ScopeProduct:
			for _, prod := range promo.Products {
				byProductID[prod.ID] = append(byProductID[prod.ID], promo)
			}
		}
	}

	for i := range products {
		product := &products[i]
		candidates := make([]*models.Promotion, 0, len(global))
		candidates = append(candidates, global...)
		candidates = append(candidates, byCategory[product.CategoryID]...)
		candidates = append(candidates, byProductID[product.ID]...)
		if pricing := SelectBest(product, candidates); pricing != nil {
			engine.byProduct[product.ID] = pricing
		}
	}
	return engine, nil
}

// Get returns the best pricing for the product, or nil when no current
// promotion yields a positive discount.
func (e *Engine) Get(productID uint) *Pricing {
	return e.byProduct[productID]
}
