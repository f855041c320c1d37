package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Promotion discounts a set of dishes by a percentage inside a date window,
// optionally narrowed to a daily time window.
type Promotion struct {
	bun.BaseModel `bun:"table:promotions,alias:p"`

	ID              int64      `bun:",pk,autoincrement"`
	Description     string     `bun:"description,notnull"`
	DiscountPercent int        `bun:"discount_percent,notnull"`
	ValidFrom       time.Time  `bun:"valid_from,notnull"`
	ValidTo         time.Time  `bun:"valid_to,notnull"`
	StartTime       *TimeOfDay `bun:"start_time"`
	EndTime         *TimeOfDay `bun:"end_time"`

	Dishes []*Dish `bun:"m2m:promotion_dishes,join:Promotion=Dish"`
}

// PromotionDish is the promotion/dish association row.
type PromotionDish struct {
	bun.BaseModel `bun:"table:promotion_dishes,alias:pd"`

	PromotionID int64 `bun:"promotion_id,pk"`
	DishID      int64 `bun:"dish_id,pk"`

	Promotion *Promotion `bun:"rel:belongs-to,join:promotion_id=id"`
	Dish      *Dish      `bun:"rel:belongs-to,join:dish_id=id"`
}

// ActiveAt reports whether the promotion applies at the given instant: the
// date must fall inside [ValidFrom, ValidTo] and, when a bound is set, the
// wall-clock time inside [StartTime, EndTime].
func (p *Promotion) ActiveAt(now time.Time) bool {
	day := truncateToDay(now)
	if day.Before(truncateToDay(p.ValidFrom)) || day.After(truncateToDay(p.ValidTo)) {
		return false
	}
	clock := TimeOfDayFrom(now)
	if p.StartTime != nil && clock.Before(*p.StartTime) {
		return false
	}
	if p.EndTime != nil && clock.After(*p.EndTime) {
		return false
	}
	return true
}

// Covers reports whether the promotion applies to the given dish.
func (p *Promotion) Covers(dishID int64) bool {
	for _, d := range p.Dishes {
		if d != nil && d.ID == dishID {
			return true
		}
	}
	return false
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
