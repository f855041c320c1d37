package promotion

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cafeworks/espresso/internal/database"
	"github.com/cafeworks/espresso/internal/entity"
)

var repoTracer = otel.Tracer("github.com/cafeworks/espresso/repository/promotion")

// ErrNotFound is returned when a promotion is missing.
var ErrNotFound = errors.New("promotion not found")

// Repository encapsulates read/write access for promotions, including the
// promotion/dish association rows.
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

// GetAll lists every promotion with its dish set resolved.
func (r *Repository) GetAll(ctx context.Context) ([]*entity.Promotion, error) {
	ctx, span := repoTracer.Start(ctx, "PromotionRepository.GetAll")
	defer span.End()

	var promotions []*entity.Promotion
	err := r.reader.NewSelect().Model(&promotions).Relation("Dishes").Order("p.valid_from ASC").Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return promotions, nil
}

// GetByID fetches a promotion with its dish set resolved.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Promotion, error) {
	ctx, span := repoTracer.Start(ctx, "PromotionRepository.GetByID", trace.WithAttributes(attribute.Int64("promotion.id", id)))
	defer span.End()

	promotion := new(entity.Promotion)
	err := r.reader.NewSelect().Model(promotion).Relation("Dishes").Where("p.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return promotion, nil
}

// ListWithinDates returns promotions whose date window contains the given
// day. Time-of-day bounds are evaluated in the service, not here, so the
// window predicate lives in exactly one place.
func (r *Repository) ListWithinDates(ctx context.Context, day time.Time) ([]*entity.Promotion, error) {
	ctx, span := repoTracer.Start(ctx, "PromotionRepository.ListWithinDates")
	defer span.End()

	var promotions []*entity.Promotion
	err := r.reader.NewSelect().Model(&promotions).
		Relation("Dishes").
		Where("p.valid_from <= ?", day).
		Where("p.valid_to >= ?", day).
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return promotions, nil
}

// Create persists a promotion together with its dish associations in one
// transaction.
func (r *Repository) Create(ctx context.Context, promotion *entity.Promotion, dishIDs []int64) error {
	if promotion == nil {
		return errors.New("nil promotion")
	}
	ctx, span := repoTracer.Start(ctx, "PromotionRepository.Create")
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(promotion).Exec(ctx); err != nil {
			return err
		}
		return insertDishLinks(ctx, tx, promotion.ID, dishIDs)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// Update writes the promotion row back and, when relinkDishes is set,
// replaces the dish association set wholesale.
func (r *Repository) Update(ctx context.Context, promotion *entity.Promotion, dishIDs []int64, relinkDishes bool) error {
	if promotion == nil {
		return errors.New("nil promotion")
	}
	ctx, span := repoTracer.Start(ctx, "PromotionRepository.Update", trace.WithAttributes(attribute.Int64("promotion.id", promotion.ID)))
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().Model(promotion).WherePK().Exec(ctx)
		if err != nil {
			return err
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return ErrNotFound
		}
		if !relinkDishes {
			return nil
		}
		if _, err := tx.NewDelete().
			Model((*entity.PromotionDish)(nil)).
			Where("pd.promotion_id = ?", promotion.ID).
			Exec(ctx); err != nil {
			return err
		}
		return insertDishLinks(ctx, tx, promotion.ID, dishIDs)
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
	}
	return err
}

// Delete removes a promotion and its dish associations.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "PromotionRepository.Delete", trace.WithAttributes(attribute.Int64("promotion.id", id)))
	defer span.End()

	err := r.writer.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*entity.PromotionDish)(nil)).
			Where("pd.promotion_id = ?", id).
			Exec(ctx); err != nil {
			return err
		}
		res, err := tx.NewDelete().Model((*entity.Promotion)(nil)).Where("p.id = ?", id).Exec(ctx)
		if err != nil {
			return err
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete failed")
	}
	return err
}

func insertDishLinks(ctx context.Context, tx bun.Tx, promotionID int64, dishIDs []int64) error {
	if len(dishIDs) == 0 {
		return nil
	}
	links := make([]*entity.PromotionDish, 0, len(dishIDs))
	for _, dishID := range dishIDs {
		links = append(links, &entity.PromotionDish{PromotionID: promotionID, DishID: dishID})
	}
	_, err := tx.NewInsert().Model(&links).Exec(ctx)
	return err
}
