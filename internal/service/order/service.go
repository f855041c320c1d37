package order

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cafeworks/espresso/internal/dto"
	"github.com/cafeworks/espresso/internal/entity"
	"github.com/cafeworks/espresso/internal/messaging"
	dishrepo "github.com/cafeworks/espresso/internal/repository/dish"
	repo "github.com/cafeworks/espresso/internal/repository/order"
	tablerepo "github.com/cafeworks/espresso/internal/repository/table"
	"github.com/cafeworks/espresso/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/cafeworks/espresso/service/order")

var oneHundred = decimal.NewFromInt(100)

// Store is the persistence contract the order service consumes.
type Store interface {
	GetAll(ctx context.Context) ([]*entity.Order, error)
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
	ListActive(ctx context.Context) ([]*entity.Order, error)
	ListByPeriod(ctx context.Context, start, end time.Time) ([]*entity.Order, error)
	CreateWithItems(ctx context.Context, order *entity.Order, items []*entity.OrderItem) error
	Update(ctx context.Context, order *entity.Order) error
	Complete(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
}

// TableStore resolves table references and occupancy on order writes.
type TableStore interface {
	GetByID(ctx context.Context, id int64) (*entity.Table, error)
	IsOccupied(ctx context.Context, id int64) (bool, error)
}

// DishStore resolves dish references when snapshotting prices.
type DishStore interface {
	GetByID(ctx context.Context, id int64) (*entity.Dish, error)
}

// ItemStore loads the lines of an order for pricing.
type ItemStore interface {
	ListByOrder(ctx context.Context, orderID int64) ([]*entity.OrderItem, error)
}

// PromotionSource yields the promotions active at a given instant.
type PromotionSource interface {
	ActiveAt(ctx context.Context, now time.Time) ([]*entity.Promotion, error)
}

// Service drives the order lifecycle and computes totals.
type Service struct {
	store      Store
	tables     TableStore
	dishes     DishStore
	items      ItemStore
	promotions PromotionSource
	bus        messaging.Client
	logger     *zap.Logger
	now        func() time.Time
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store      Store
	Tables     TableStore
	Dishes     DishStore
	Items      ItemStore
	Promotions PromotionSource
	Bus        messaging.Client
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:      p.Store,
		tables:     p.Tables,
		dishes:     p.Dishes,
		items:      p.Items,
		promotions: p.Promotions,
		bus:        p.Bus,
		logger:     p.Logger,
		now:        time.Now,
	}
}

// GetAll lists every order with its items and table.
func (s *Service) GetAll(ctx context.Context) ([]*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.GetAll")
	defer span.End()

	orders, err := s.store.GetAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, nil
}

// Get retrieves an order by id.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	return order, nil
}

// ListActive lists orders that have not been completed yet.
func (s *Service) ListActive(ctx context.Context) ([]*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListActive")
	defer span.End()

	orders, err := s.store.ListActive(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	if len(orders) == 0 {
		return nil, errorbank.NotFound("no active orders")
	}
	return orders, nil
}

// ListByPeriod lists orders created between the start and end dates,
// inclusive on both ends.
func (s *Service) ListByPeriod(ctx context.Context, start, end dto.Date) ([]*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.ListByPeriod")
	defer span.End()

	if start.Time.After(end.Time) {
		return nil, errorbank.BadRequest("start date cannot be after end date")
	}

	from := start.Time
	until := end.Time.Add(24*time.Hour - time.Nanosecond)

	orders, err := s.store.ListByPeriod(ctx, from, until)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	if len(orders) == 0 {
		return nil, errorbank.NotFound("no orders in period")
	}
	return orders, nil
}

// Create opens an order for a free table, snapshotting the current dish
// prices into the order lines. Lines are stored exactly as submitted.
func (s *Service) Create(ctx context.Context, input dto.OrderCreate) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create", trace.WithAttributes(attribute.Int64("table.id", input.TableID)))
	defer span.End()

	if _, err := s.tables.GetByID(ctx, input.TableID); err != nil {
		if errors.Is(err, tablerepo.ErrNotFound) {
			return nil, errorbank.BadRequest("table does not exist", errorbank.WithDetail("table_id", input.TableID))
		}
		return nil, errorbank.Internal("failed to resolve table", errorbank.WithCause(err))
	}

	occupied, err := s.tables.IsOccupied(ctx, input.TableID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to check table occupancy", errorbank.WithCause(err))
	}
	if occupied {
		return nil, errorbank.Conflict("table already has an active order", errorbank.WithDetail("table_id", input.TableID))
	}

	items := make([]*entity.OrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		if line.Quantity < 1 {
			return nil, errorbank.BadRequest("item quantity must be at least 1", errorbank.WithDetail("dish_id", line.DishID))
		}
		dish, err := s.dishes.GetByID(ctx, line.DishID)
		if err != nil {
			if errors.Is(err, dishrepo.ErrNotFound) {
				return nil, errorbank.BadRequest("dish does not exist", errorbank.WithDetail("dish_id", line.DishID))
			}
			return nil, errorbank.Internal("failed to resolve dish", errorbank.WithCause(err))
		}
		items = append(items, &entity.OrderItem{
			DishID:       dish.ID,
			Quantity:     line.Quantity,
			PriceAtOrder: dish.Price,
		})
	}

	order := &entity.Order{TableID: input.TableID}
	if err := s.store.CreateWithItems(ctx, order, items); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}

	s.logger.Info("order created",
		zap.Int64("id", order.ID),
		zap.Int64("table_id", order.TableID),
		zap.Int("items", len(items)),
	)
	s.publish(ctx, EventOrderCreated, order)

	return s.Get(ctx, order.ID)
}

// Update applies a partial update to an order. Changing the table is
// validated against occupancy; a completed order never becomes active
// again.
func (s *Service) Update(ctx context.Context, id int64, input dto.OrderUpdate) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Update", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.TableID != nil && *input.TableID != order.TableID {
		if _, err := s.tables.GetByID(ctx, *input.TableID); err != nil {
			if errors.Is(err, tablerepo.ErrNotFound) {
				return nil, errorbank.BadRequest("table does not exist", errorbank.WithDetail("table_id", *input.TableID))
			}
			return nil, errorbank.Internal("failed to resolve table", errorbank.WithCause(err))
		}
		occupied, err := s.tables.IsOccupied(ctx, *input.TableID)
		if err != nil {
			return nil, errorbank.Internal("failed to check table occupancy", errorbank.WithCause(err))
		}
		if occupied {
			return nil, errorbank.Conflict("table already has an active order", errorbank.WithDetail("table_id", *input.TableID))
		}
		order.TableID = *input.TableID
	}

	completing := false
	if input.IsCompleted != nil {
		if order.IsCompleted && !*input.IsCompleted {
			return nil, errorbank.Conflict("order already completed")
		}
		completing = *input.IsCompleted && !order.IsCompleted
		order.IsCompleted = *input.IsCompleted
	}

	if err := s.store.Update(ctx, order); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update order", errorbank.WithCause(err))
	}

	if completing {
		s.publish(ctx, EventOrderCompleted, order)
	}
	return s.Get(ctx, id)
}

// Complete marks an order completed. The transition is one-way; repeating
// it reports Conflict.
func (s *Service) Complete(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Complete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.IsCompleted {
		return nil, errorbank.Conflict("order already completed")
	}

	if err := s.store.Complete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotActive) {
			return nil, errorbank.Conflict("order already completed")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to complete order", errorbank.WithCause(err))
	}

	s.logger.Info("order completed", zap.Int64("id", id), zap.Int64("table_id", order.TableID))
	order.IsCompleted = true
	s.publish(ctx, EventOrderCompleted, order)

	return s.Get(ctx, id)
}

// Delete removes a completed order and its items. Active orders are kept.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !order.IsCompleted {
		return errorbank.Conflict("order is not completed")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete order", errorbank.WithCause(err))
	}

	s.logger.Info("order deleted", zap.Int64("id", id))
	return nil
}

// CalculateTotal prices an order from its snapshots: the gross sum of all
// lines, minus every currently-active promotion discount that covers a
// line's dish, floored at zero. Discounts stack across promotions.
func (s *Service) CalculateTotal(ctx context.Context, id int64) (decimal.Decimal, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.CalculateTotal", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if _, err := s.Get(ctx, id); err != nil {
		return decimal.Zero, err
	}

	lines, err := s.items.ListByOrder(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return decimal.Zero, errorbank.Internal("failed to load order items", errorbank.WithCause(err))
	}
	if len(lines) == 0 {
		return decimal.Zero, nil
	}

	active, err := s.promotions.ActiveAt(ctx, s.now())
	if err != nil {
		return decimal.Zero, err
	}

	gross := decimal.Zero
	discount := decimal.Zero
	for _, line := range lines {
		lineTotal := line.PriceAtOrder.Mul(decimal.NewFromInt(int64(line.Quantity)))
		gross = gross.Add(lineTotal)

		for _, promo := range active {
			if promo.Covers(line.DishID) {
				rate := decimal.NewFromInt(int64(promo.DiscountPercent)).Div(oneHundred)
				discount = discount.Add(lineTotal.Mul(rate))
			}
		}
	}

	total := gross.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	span.SetAttributes(attribute.String("order.total", total.String()))
	return total, nil
}

// publish sends a lifecycle event keyed by order id; delivery failures are
// logged, never surfaced to the caller.
func (s *Service) publish(ctx context.Context, eventType string, order *entity.Order) {
	lines := make([]EventLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, EventLine{
			DishID:       item.DishID,
			Quantity:     item.Quantity,
			PriceAtOrder: item.PriceAtOrder,
		})
	}

	payload, err := json.Marshal(Event{
		Type:       eventType,
		OrderID:    order.ID,
		TableID:    order.TableID,
		Items:      lines,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		s.logger.Error("failed to encode order event", zap.Error(err))
		return
	}

	key := []byte("order-" + strconv.FormatInt(order.ID, 10))
	if err := s.bus.Publish(ctx, key, payload); err != nil {
		s.logger.Error("failed to publish order event",
			zap.String("type", eventType),
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
	}
}
