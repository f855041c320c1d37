package entity

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Order is a visit's running bill bound to a table. It starts incomplete,
// transitions to completed exactly once, and may only be deleted afterwards.
type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID          int64     `bun:",pk,autoincrement"`
	TableID     int64     `bun:"table_id,notnull"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	IsCompleted bool      `bun:"is_completed,notnull,default:false"`

	Items []*OrderItem `bun:"rel:has-many,join:id=order_id"`
	Table *Table       `bun:"rel:belongs-to,join:table_id=id"`
}

// OrderItem is one line of an order. PriceAtOrder is snapshotted from the
// dish when the line is created and never recomputed.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID           int64           `bun:",pk,autoincrement"`
	OrderID      int64           `bun:"order_id,notnull"`
	DishID       int64           `bun:"dish_id,notnull"`
	Quantity     int             `bun:"quantity,notnull"`
	PriceAtOrder decimal.Decimal `bun:"price_at_order,notnull"`

	Order *Order `bun:"rel:belongs-to,join:order_id=id"`
	Dish  *Dish  `bun:"rel:belongs-to,join:dish_id=id"`
}
