package entity

import "github.com/uptrace/bun"

// Table represents a physical café table. A table is occupied while at least
// one incomplete order references it.
type Table struct {
	bun.BaseModel `bun:"table:cafe_tables,alias:t"`

	ID       int64  `bun:",pk,autoincrement"`
	Number   int    `bun:"number,unique,notnull"`
	Location string `bun:"location,nullzero"`
}
