package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cafeworks/espresso/internal/entity"
)

// OrderLineInput is one requested line inside an order creation payload.
type OrderLineInput struct {
	DishID   int64 `json:"dish_id"`
	Quantity int   `json:"quantity"`
}

// OrderCreate is the payload for opening an order on a table.
type OrderCreate struct {
	TableID int64            `json:"table_id"`
	Items   []OrderLineInput `json:"items"`
}

// OrderUpdate carries optional field changes; only non-nil fields apply.
type OrderUpdate struct {
	TableID     *int64 `json:"table_id,omitempty"`
	IsCompleted *bool  `json:"is_completed,omitempty"`
}

// OrderResponse represents an order with its items and resolved table.
type OrderResponse struct {
	ID          int64               `json:"id"`
	TableID     int64               `json:"table_id"`
	CreatedAt   time.Time           `json:"created_at"`
	IsCompleted bool                `json:"is_completed"`
	Items       []OrderItemResponse `json:"items"`
	Table       *TableResponse      `json:"table,omitempty"`
}

// OrderTotalResponse reports the order's discounted total.
type OrderTotalResponse struct {
	OrderID int64           `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

// NewOrderResponse maps an order entity onto its response shape.
func NewOrderResponse(o *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:          o.ID,
		TableID:     o.TableID,
		CreatedAt:   o.CreatedAt,
		IsCompleted: o.IsCompleted,
		Items:       NewOrderItemResponses(o.Items),
	}
	if o.Table != nil {
		table := NewTableResponse(o.Table)
		resp.Table = &table
	}
	return resp
}

// NewOrderResponses maps a slice of order entities.
func NewOrderResponses(orders []*entity.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderResponse(o))
	}
	return out
}
