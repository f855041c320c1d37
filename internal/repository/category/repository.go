package category

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

var repoTracer = otel.Tracer("github.com/cafeworks/espresso/repository/category")

// ErrNotFound is returned when a category is missing.
var ErrNotFound = errors.New("category not found")

// Repository encapsulates read/write access for menu categories.
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

// GetAll lists every category.
func (r *Repository) GetAll(ctx context.Context) ([]*entity.Category, error) {
	ctx, span := repoTracer.Start(ctx, "CategoryRepository.GetAll")
	defer span.End()

	var categories []*entity.Category
	if err := r.reader.NewSelect().Model(&categories).Order("c.name ASC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return categories, nil
}

// GetByID fetches a category by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Category, error) {
	ctx, span := repoTracer.Start(ctx, "CategoryRepository.GetByID", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	category := new(entity.Category)
	err := r.reader.NewSelect().Model(category).Where("c.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return category, nil
}

// GetByName resolves a category by a case-insensitive name fragment.
func (r *Repository) GetByName(ctx context.Context, name string) (*entity.Category, error) {
	ctx, span := repoTracer.Start(ctx, "CategoryRepository.GetByName", trace.WithAttributes(attribute.String("category.name", name)))
	defer span.End()

	category := new(entity.Category)
	err := r.reader.NewSelect().Model(category).
		Where("LOWER(c.name) LIKE ?", "%"+strings.ToLower(name)+"%").
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
	return category, nil
}

// Create persists a new category.
func (r *Repository) Create(ctx context.Context, category *entity.Category) error {
	if category == nil {
		return errors.New("nil category")
	}
	ctx, span := repoTracer.Start(ctx, "CategoryRepository.Create", trace.WithAttributes(attribute.String("category.name", category.Name)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(category).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// Update writes the full row back by primary key.
func (r *Repository) Update(ctx context.Context, category *entity.Category) error {
	if category == nil {
		return errors.New("nil category")
	}
	ctx, span := repoTracer.Start(ctx, "CategoryRepository.Update", trace.WithAttributes(attribute.Int64("category.id", category.ID)))
	defer span.End()

	res, err := r.writer.NewUpdate().Model(category).WherePK().Exec(ctx)
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

// Delete removes a category; owned dishes are removed by the schema cascade.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "CategoryRepository.Delete", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.Category)(nil)).Where("c.id = ?", id).Exec(ctx)
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
