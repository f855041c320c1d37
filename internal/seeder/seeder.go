package seeder

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cafeworks/espresso/internal/database"
	"github.com/cafeworks/espresso/internal/entity"
)

// Module provides the seeder to the fx graph.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// All seeds the full café starter set: tables, the menu, and a promotion.
func (s *Seeder) All(ctx context.Context) error {
	if err := s.Tables(ctx); err != nil {
		return err
	}
	if err := s.Menu(ctx); err != nil {
		return err
	}
	return s.Promotions(ctx)
}

// Tables seeds example café tables if they are missing.
func (s *Seeder) Tables(ctx context.Context) error {
	samples := []entity.Table{
		{Number: 1, Location: "window"},
		{Number: 2, Location: "window"},
		{Number: 3, Location: "patio"},
		{Number: 4, Location: "bar"},
	}

	for _, sample := range samples {
		table := sample
		_, err := s.db.NewInsert().Model(&table).
			On("CONFLICT (number) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	s.logger.Info("seeded tables", zap.Int("count", len(samples)))
	return nil
}

// Menu seeds categories and their dishes if they are missing.
func (s *Seeder) Menu(ctx context.Context) error {
	menu := map[string][]entity.Dish{
		"Coffee": {
			{Name: "Espresso", Description: "double shot", Price: decimal.RequireFromString("2.50")},
			{Name: "Latte", Description: "with steamed milk", Price: decimal.RequireFromString("3.20")},
			{Name: "Cappuccino", Price: decimal.RequireFromString("3.00")},
		},
		"Pastry": {
			{Name: "Croissant", Price: decimal.RequireFromString("2.80")},
			{Name: "Cinnamon Roll", Price: decimal.RequireFromString("3.50")},
		},
	}

	dishCount := 0
	for name, dishes := range menu {
		category := entity.Category{Name: name}
		_, err := s.db.NewInsert().Model(&category).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
		if category.ID == 0 {
			err = s.db.NewSelect().Model(&category).
				Where("c.name = ?", name).
				Scan(ctx)
			if err != nil {
				return err
			}
		}

		for _, sample := range dishes {
			dish := sample
			dish.CategoryID = category.ID
			_, err := s.db.NewInsert().Model(&dish).
				On("CONFLICT (name) DO NOTHING").
				Exec(ctx)
			if err != nil {
				return err
			}
			dishCount++
		}
	}

	s.logger.Info("seeded menu", zap.Int("categories", len(menu)), zap.Int("dishes", dishCount))
	return nil
}

// Promotions seeds a happy-hour promotion over the coffee dishes.
func (s *Seeder) Promotions(ctx context.Context) error {
	exists, err := s.db.NewSelect().Model((*entity.Promotion)(nil)).
		Where("p.description = ?", "Happy hour").
		Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	start, err := entity.ParseTimeOfDay("16:00:00")
	if err != nil {
		return err
	}
	end, err := entity.ParseTimeOfDay("18:00:00")
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	promotion := entity.Promotion{
		Description:     "Happy hour",
		DiscountPercent: 20,
		ValidFrom:       now,
		ValidTo:         now.AddDate(0, 3, 0),
		StartTime:       &start,
		EndTime:         &end,
	}

	var dishes []*entity.Dish
	err = s.db.NewSelect().Model(&dishes).
		Join("JOIN dish_categories AS c ON c.id = d.category_id").
		Where("c.name = ?", "Coffee").
		Scan(ctx)
	if err != nil {
		return err
	}

	if _, err := s.db.NewInsert().Model(&promotion).Exec(ctx); err != nil {
		return err
	}
	for _, dish := range dishes {
		link := entity.PromotionDish{PromotionID: promotion.ID, DishID: dish.ID}
		if _, err := s.db.NewInsert().Model(&link).Exec(ctx); err != nil {
			return err
		}
	}

	s.logger.Info("seeded promotion", zap.Int64("id", promotion.ID), zap.Int("dishes", len(dishes)))
	return nil
}
