package entity

import "github.com/uptrace/bun"

// Category groups dishes on the menu. Deleting a category cascades to its
// dishes at the schema level; the service layer blocks the delete while any
// owned dish appears in order items.
type Category struct {
	bun.BaseModel `bun:"table:dish_categories,alias:c"`

	ID          int64  `bun:",pk,autoincrement"`
	Name        string `bun:"name,unique,notnull"`
	Description string `bun:"description,nullzero"`

	Dishes []*Dish `bun:"rel:has-many,join:id=category_id"`
}
