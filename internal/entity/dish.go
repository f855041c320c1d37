package entity

import (
	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
)

// Dish is a menu entry belonging to exactly one category. Price must be
// positive; order items snapshot it at ordering time.
type Dish struct {
	bun.BaseModel `bun:"table:dishes,alias:d"`

	ID          int64           `bun:",pk,autoincrement"`
	Name        string          `bun:"name,unique,notnull"`
	Price       decimal.Decimal `bun:"price,notnull"`
	Description string          `bun:"description,nullzero"`
	CategoryID  int64           `bun:"category_id,notnull"`

	Category   *Category    `bun:"rel:belongs-to,join:category_id=id"`
	Promotions []*Promotion `bun:"m2m:promotion_dishes,join:Dish=Promotion"`
}
