package dish

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cafeworks/espresso/internal/database"
	"github.com/cafeworks/espresso/internal/entity"
)

var repoTracer = otel.Tracer("github.com/cafeworks/espresso/repository/dish")

// ErrNotFound is returned when a dish is missing.
var ErrNotFound = errors.New("dish not found")

// Repository encapsulates read/write access for dishes.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// GetAll lists every dish.
func (r *Repository) GetAll(ctx context.Context) ([]*entity.Dish, error) {
	ctx, span := repoTracer.Start(ctx, "DishRepository.GetAll")
	defer span.End()

	var dishes []*entity.Dish
	if err := r.reader.NewSelect().Model(&dishes).Order("d.name ASC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return dishes, nil
}

// GetByID fetches a dish by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Dish, error) {
	ctx, span := repoTracer.Start(ctx, "DishRepository.GetByID", trace.WithAttributes(attribute.Int64("dish.id", id)))
	defer span.End()

	dish := new(entity.Dish)
	err := r.reader.NewSelect().Model(dish).Where("d.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return dish, nil
}

// GetByName resolves a dish by a case-insensitive name fragment.
func (r *Repository) GetByName(ctx context.Context, name string) (*entity.Dish, error) {
	ctx, span := repoTracer.Start(ctx, "DishRepository.GetByName", trace.WithAttributes(attribute.String("dish.name", name)))
	defer span.End()

	dish := new(entity.Dish)
	err := r.reader.NewSelect().Model(dish).
		Where("LOWER(d.name) LIKE ?", "%"+strings.ToLower(name)+"%").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return dish, nil
}

// ListByCategory returns the dishes owned by a category.
func (r *Repository) ListByCategory(ctx context.Context, categoryID int64) ([]*entity.Dish, error) {
	ctx, span := repoTracer.Start(ctx, "DishRepository.ListByCategory", trace.WithAttributes(attribute.Int64("category.id", categoryID)))
	defer span.End()

	var dishes []*entity.Dish
	err := r.reader.NewSelect().Model(&dishes).
		Where("d.category_id = ?", categoryID).
		Order("d.name ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return dishes, nil
}

// ListByIDs fetches the dishes matching the given ids.
func (r *Repository) ListByIDs(ctx context.Context, ids []int64) ([]*entity.Dish, error) {
	ctx, span := repoTracer.Start(ctx, "DishRepository.ListByIDs")
	defer span.End()

	if len(ids) == 0 {
		return nil, nil
	}
	var dishes []*entity.Dish
	err := r.reader.NewSelect().Model(&dishes).Where("d.id IN (?)", bun.In(ids)).Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return dishes, nil
}

// ListOnPromotion returns distinct dishes linked to at least one promotion.
func (r *Repository) ListOnPromotion(ctx context.Context) ([]*entity.Dish, error) {
	ctx, span := repoTracer.Start(ctx, "DishRepository.ListOnPromotion")
	defer span.End()

	var dishes []*entity.Dish
	err := r.reader.NewSelect().Model(&dishes).
		Relation("Category").
		Join("JOIN promotion_dishes AS pd ON pd.dish_id = d.id").
		Distinct().
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return dishes, nil
}

// MostPopular returns the dish with the largest ordered quantity across all
// order items, or ErrNotFound when nothing was ever ordered.
func (r *Repository) MostPopular(ctx context.Context) (*entity.Dish, error) {
	ctx, span := repoTracer.Start(ctx, "DishRepository.MostPopular")
	defer span.End()

	dish := new(entity.Dish)
	err := r.reader.NewSelect().Model(dish).
		Join("JOIN order_items AS oi ON oi.dish_id = d.id").
		Group("d.id").
		OrderExpr("SUM(oi.quantity) DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return dish, nil
}

// SortByPrice lists all dishes ordered by price.
func (r *Repository) SortByPrice(ctx context.Context, ascending bool) ([]*entity.Dish, error) {
	ctx, span := repoTracer.Start(ctx, "DishRepository.SortByPrice", trace.WithAttributes(attribute.Bool("ascending", ascending)))
	defer span.End()

	direction := "DESC"
	if ascending {
		direction = "ASC"
	}
	var dishes []*entity.Dish
	err := r.reader.NewSelect().Model(&dishes).OrderExpr("d.price " + direction).Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return dishes, nil
}

// HasOrderItems reports whether any order line references the dish.
func (r *Repository) HasOrderItems(ctx context.Context, dishID int64) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "DishRepository.HasOrderItems", trace.WithAttributes(attribute.Int64("dish.id", dishID)))
	defer span.End()

	exists, err := r.reader.NewSelect().
		Model((*entity.OrderItem)(nil)).
		Where("oi.dish_id = ?", dishID).
		Exists(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exists failed")
		return false, err
	}
	return exists, nil
}

// Create persists a new dish.
func (r *Repository) Create(ctx context.Context, dish *entity.Dish) error {
	if dish == nil {
		return errors.New("nil dish")
	}
	ctx, span := repoTracer.Start(ctx, "DishRepository.Create", trace.WithAttributes(attribute.String("dish.name", dish.Name)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(dish).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// Update writes the full row back by primary key.
func (r *Repository) Update(ctx context.Context, dish *entity.Dish) error {
	if dish == nil {
		return errors.New("nil dish")
	}
	ctx, span := repoTracer.Start(ctx, "DishRepository.Update", trace.WithAttributes(attribute.Int64("dish.id", dish.ID)))
	defer span.End()

	res, err := r.writer.NewUpdate().Model(dish).WherePK().Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a dish by primary key.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "DishRepository.Delete", trace.WithAttributes(attribute.Int64("dish.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.Dish)(nil)).Where("d.id = ?", id).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}
