package models

import (
	"time"

	"github.com/shopspring/decimal"

	"smartsales/internal/domain"
)

// Promotion applies a discount to a set of products determined by its
// scope: GLOBAL (everything), CATEGORY (categories set) or PRODUCT
// (products set). The scope sets are required non-empty for the narrower
// scopes; validated at the service layer.
type Promotion struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Name          string          `gorm:"size:160;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	DiscountType  string          `gorm:"size:16;not null;default:'PERCENT'" json:"discount_type"` // PERCENT | FIXED_AMOUNT
	DiscountValue decimal.Decimal `gorm:"type:decimal(8,2);not null" json:"discount_value"`
	Scope         string          `gorm:"size:16;not null;default:'GLOBAL';index" json:"scope"`
	StartDate     time.Time       `gorm:"not null" json:"start_date"`
	EndDate       *time.Time      `json:"end_date"` // nil means open-ended
	IsActive      bool            `gorm:"default:true;index" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Categories []Category `gorm:"many2many:promotion_categories" json:"categories,omitempty"`
	Products   []Product  `gorm:"many2many:promotion_products" json:"products,omitempty"`
}

func (Promotion) TableName() string {
	return "promotions"
}

// IsCurrent reports whether the promotion is active and inside its
// validity window at the given instant. An absent end date leaves the
// window open.
func (p *Promotion) IsCurrent(at time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.StartDate.After(at) {
		return false
	}
	if p.EndDate != nil && p.EndDate.Before(at) {
		return false
	}
	return true
}

// ScopeRank orders scopes by specificity for tie-breaking: PRODUCT beats
// CATEGORY beats GLOBAL.
func (p *Promotion) ScopeRank() int {
	switch p.Scope {
	case domain.ScopeProduct:
		return 0
	case domain.ScopeCategory:
		return 1
	default:
		return 2
	}
}
