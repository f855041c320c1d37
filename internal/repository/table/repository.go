package table

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cafeworks/espresso/internal/database"
	"github.com/cafeworks/espresso/internal/entity"
)

var repoTracer = otel.Tracer("github.com/cafeworks/espresso/repository/table")

// ErrNotFound is returned when a table is missing.
var ErrNotFound = errors.New("table not found")

// Repository encapsulates read/write access for café tables.
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

// GetAll lists every table.
func (r *Repository) GetAll(ctx context.Context) ([]*entity.Table, error) {
	ctx, span := repoTracer.Start(ctx, "TableRepository.GetAll")
	defer span.End()

	var tables []*entity.Table
	if err := r.reader.NewSelect().Model(&tables).Order("t.number ASC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return tables, nil
}

// GetByID fetches a table by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Table, error) {
	ctx, span := repoTracer.Start(ctx, "TableRepository.GetByID", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	table := new(entity.Table)
	err := r.reader.NewSelect().Model(table).Where("t.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return table, nil
}

// GetByNumber fetches a table by its unique number.
func (r *Repository) GetByNumber(ctx context.Context, number int) (*entity.Table, error) {
	ctx, span := repoTracer.Start(ctx, "TableRepository.GetByNumber", trace.WithAttributes(attribute.Int("table.number", number)))
	defer span.End()

	table := new(entity.Table)
	err := r.reader.NewSelect().Model(table).Where("t.number = ?", number).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return table, nil
}

// activeOrderFilter matches orders that keep a table occupied.
func (r *Repository) activeOrderFilter() *bun.SelectQuery {
	return r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		Column("o.id").
		Where("o.table_id = t.id").
		Where("o.is_completed = FALSE")
}

// ListByOccupancy returns tables filtered by whether an active order holds them.
func (r *Repository) ListByOccupancy(ctx context.Context, occupied bool) ([]*entity.Table, error) {
	ctx, span := repoTracer.Start(ctx, "TableRepository.ListByOccupancy", trace.WithAttributes(attribute.Bool("table.occupied", occupied)))
	defer span.End()

	var tables []*entity.Table
	q := r.reader.NewSelect().Model(&tables).Order("t.number ASC")
	if occupied {
		q = q.Where("EXISTS (?)", r.activeOrderFilter())
	} else {
		q = q.Where("NOT EXISTS (?)", r.activeOrderFilter())
	}
	if err := q.Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return tables, nil
}

// IsOccupied reports whether the table currently has an active order.
func (r *Repository) IsOccupied(ctx context.Context, id int64) (bool, error) {
	ctx, span := repoTracer.Start(ctx, "TableRepository.IsOccupied", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	occupied, err := r.reader.NewSelect().
		Model((*entity.Order)(nil)).
		Where("o.table_id = ?", id).
		Where("o.is_completed = FALSE").
		Exists(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "exists failed")
		return false, err
	}
	return occupied, nil
}

// Create persists a new table.
func (r *Repository) Create(ctx context.Context, table *entity.Table) error {
	if table == nil {
		return errors.New("nil table")
	}
	ctx, span := repoTracer.Start(ctx, "TableRepository.Create", trace.WithAttributes(attribute.Int("table.number", table.Number)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(table).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// Update writes the full row back by primary key.
func (r *Repository) Update(ctx context.Context, table *entity.Table) error {
	if table == nil {
		return errors.New("nil table")
	}
	ctx, span := repoTracer.Start(ctx, "TableRepository.Update", trace.WithAttributes(attribute.Int64("table.id", table.ID)))
	defer span.End()

	res, err := r.writer.NewUpdate().Model(table).WherePK().Exec(ctx)
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

// Delete removes a table by primary key.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "TableRepository.Delete", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.Table)(nil)).Where("t.id = ?", id).Exec(ctx)
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
