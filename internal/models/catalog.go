package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:120;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	ImageURL    string    `gorm:"size:512" json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

// Product is referenced by historical order lines and must never be hard
// deleted while referenced; admins deactivate instead.
type Product struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	CategoryID       uint            `gorm:"not null;index" json:"category_id"`
	Name             string          `gorm:"size:160;not null" json:"name"`
	SKU              string          `gorm:"uniqueIndex;size:64;not null" json:"sku"`
	ShortDescription string          `gorm:"size:300" json:"short_description"`
	LongDescription  string          `gorm:"type:text" json:"long_description"`
	Price            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock            int             `gorm:"not null;default:0" json:"stock"`
	IsActive         bool            `gorm:"default:true;index" json:"is_active"`
	CoverImageURL    string          `gorm:"size:512" json:"cover_image_url"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	Category Category `gorm:"foreignKey:CategoryID" json:"-"`
}

func (Product) TableName() string {
	return "products"
}
