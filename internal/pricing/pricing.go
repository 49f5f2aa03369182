package pricing

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"smartsales/internal/models"
)

// Pricing pairs a product's winning promotion with the computed
// per-unit discount and final unit price. It is derived, never persisted:
// order lines store a Snapshot instead.
type Pricing struct {
	Promotion       *models.Promotion
	DiscountPerUnit decimal.Decimal
	FinalPrice      decimal.Decimal
}

// Snapshot is the promotion detail frozen into an order item at purchase
// time, immune to later promotion edits.
type Snapshot struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	DiscountType   string `json:"discount_type"`
	DiscountValue  string `json:"discount_value"`
	Scope          string `json:"scope"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date,omitempty"`
	DiscountAmount string `json:"discount_amount"`
	FinalPrice     string `json:"final_price"`
}

func (p *Pricing) Snapshot() Snapshot {
	s := Snapshot{
		ID:             p.Promotion.ID,
		Name:           p.Promotion.Name,
		Description:    p.Promotion.Description,
		DiscountType:   p.Promotion.DiscountType,
		DiscountValue:  p.Promotion.DiscountValue.StringFixed(2),
		Scope:          p.Promotion.Scope,
		StartDate:      p.Promotion.StartDate.Format(time.RFC3339),
		DiscountAmount: p.DiscountPerUnit.StringFixed(2),
		FinalPrice:     p.FinalPrice.StringFixed(2),
	}
	if p.Promotion.EndDate != nil {
		s.EndDate = p.Promotion.EndDate.Format(time.RFC3339)
	}
	return s
}

// SnapshotJSON renders the snapshot for storage in the order item row.
func (p *Pricing) SnapshotJSON() string {
	b, err := json.Marshal(p.Snapshot())
	if err != nil {
		return ""
	}
	return string(b)
}
