package orderitem

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

var repoTracer = otel.Tracer("github.com/cafeworks/espresso/repository/orderitem")

// ErrNotFound is returned when an order item is missing.
var ErrNotFound = errors.New("order item not found")

// Repository encapsulates read/write access for order lines.
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

// GetAll lists every order line.
func (r *Repository) GetAll(ctx context.Context) ([]*entity.OrderItem, error) {
	ctx, span := repoTracer.Start(ctx, "OrderItemRepository.GetAll")
	defer span.End()

	var items []*entity.OrderItem
	if err := r.reader.NewSelect().Model(&items).Order("oi.id ASC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return items, nil
}

// GetByID fetches an order line by primary key.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.OrderItem, error) {
	ctx, span := repoTracer.Start(ctx, "OrderItemRepository.GetByID", trace.WithAttributes(attribute.Int64("order_item.id", id)))
	defer span.End()

	item := new(entity.OrderItem)
	err := r.reader.NewSelect().Model(item).Where("oi.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return item, nil
}

// ListByOrder returns the lines belonging to an order.
func (r *Repository) ListByOrder(ctx context.Context, orderID int64) ([]*entity.OrderItem, error) {
	ctx, span := repoTracer.Start(ctx, "OrderItemRepository.ListByOrder", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	var items []*entity.OrderItem
	err := r.reader.NewSelect().Model(&items).
		Where("oi.order_id = ?", orderID).
		Order("oi.id ASC").
		Scan(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return items, nil
}

// Create persists a new order line.
func (r *Repository) Create(ctx context.Context, item *entity.OrderItem) error {
	if item == nil {
		return errors.New("nil order item")
	}
	ctx, span := repoTracer.Start(ctx, "OrderItemRepository.Create", trace.WithAttributes(attribute.Int64("order.id", item.OrderID)))
	defer span.End()

	_, err := r.writer.NewInsert().Model(item).Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
	}
	return err
}

// Update writes the line back by primary key. PriceAtOrder is deliberately
// excluded: the snapshot taken at creation is immutable.
func (r *Repository) Update(ctx context.Context, item *entity.OrderItem) error {
	if item == nil {
		return errors.New("nil order item")
	}
	ctx, span := repoTracer.Start(ctx, "OrderItemRepository.Update", trace.WithAttributes(attribute.Int64("order_item.id", item.ID)))
	defer span.End()

	res, err := r.writer.NewUpdate().Model(item).
		Column("quantity").
		WherePK().
		Exec(ctx)
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

// Delete removes an order line by primary key.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	ctx, span := repoTracer.Start(ctx, "OrderItemRepository.Delete", trace.WithAttributes(attribute.Int64("order_item.id", id)))
	defer span.End()

	res, err := r.writer.NewDelete().Model((*entity.OrderItem)(nil)).Where("oi.id = ?", id).Exec(ctx)
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
