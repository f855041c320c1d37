package dto

import (
	"github.com/shopspring/decimal"

	"github.com/cafeworks/espresso/internal/entity"
)

// OrderItemCreate is the payload for adding a line to an existing order.
// The captured price always comes from the dish, never from the caller.
type OrderItemCreate struct {
	OrderID  int64 `json:"order_id"`
	DishID   int64 `json:"dish_id"`
	Quantity int   `json:"quantity"`
}

// OrderItemUpdate carries optional field changes; only non-nil fields apply.
type OrderItemUpdate struct {
	Quantity *int `json:"quantity,omitempty"`
}

// OrderItemResponse represents an order line as exposed via transport layers.
type OrderItemResponse struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"order_id"`
	DishID       int64           `json:"dish_id"`
	Quantity     int             `json:"quantity"`
	PriceAtOrder decimal.Decimal `json:"price_at_order"`
}

// NewOrderItemResponse maps an order item entity onto its response shape.
func NewOrderItemResponse(i *entity.OrderItem) OrderItemResponse {
	return OrderItemResponse{
		ID:           i.ID,
		OrderID:      i.OrderID,
		DishID:       i.DishID,
		Quantity:     i.Quantity,
		PriceAtOrder: i.PriceAtOrder,
	}
}

// NewOrderItemResponses maps a slice of order item entities.
func NewOrderItemResponses(items []*entity.OrderItem) []OrderItemResponse {
	out := make([]OrderItemResponse, 0, len(items))
	for _, i := range items {
		out = append(out, NewOrderItemResponse(i))
	}
	return out
}
