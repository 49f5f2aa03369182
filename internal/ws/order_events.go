package ws

import (
	"time"

	"smartsales/internal/models"
)

// OrderEvent is what order owners receive on their websocket when their
// order changes state.
type OrderEvent struct {
	Type              string    `json:"type"`
	OrderID           uint      `json:"order_id"`
	OrderNumber       string    `json:"order_number"`
	Status            string    `json:"status"`
	FulfillmentStatus string    `json:"fulfillment_status"`
	At                time.Time `json:"at"`
}

// OrderEventHub pushes order lifecycle events to the owning user's
// connections. Guest orders have no connected owner and are skipped.
type OrderEventHub struct {
	hub *Hub
}

func NewOrderEventHub(hub *Hub) *OrderEventHub {
	return &OrderEventHub{hub: hub}
}

func (e *OrderEventHub) push(eventType string, o *models.Order) {
	if o == nil || o.UserID == nil {
		return
	}
	e.hub.BroadcastToUser(*o.UserID, OrderEvent{
		Type:              eventType,
		OrderID:           o.ID,
		OrderNumber:       o.Number,
		Status:            o.Status,
		FulfillmentStatus: o.FulfillmentStatus,
		At:                time.Now(),
	})
}

func (e *OrderEventHub) OrderPaid(o *models.Order)          { e.push("order.paid", o) }
func (e *OrderEventHub) OrderFailed(o *models.Order)        { e.push("order.payment_failed", o) }
func (e *OrderEventHub) FulfillmentChanged(o *models.Order) { e.push("order.fulfillment", o) }
