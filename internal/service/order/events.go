package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types carried in the envelope Type field.
const (
	EventOrderCreated   = "order.created"
	EventOrderCompleted = "order.completed"
)

// EventLine mirrors one order line in a lifecycle event.
type EventLine struct {
	DishID       int64           `json:"dish_id"`
	Quantity     int             `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
}

// Event is the envelope published to the order events topic.
type Event struct {
	Type       string      `json:"type"`
	OrderID    int64       `json:"order_id"`
	TableID    int64       `json:"table_id"`
	Items      []EventLine `json:"items,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}
