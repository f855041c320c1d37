package orderitem

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cafeworks/espresso/internal/dto"
	"github.com/cafeworks/espresso/internal/entity"
	dishrepo "github.com/cafeworks/espresso/internal/repository/dish"
	orderrepo "github.com/cafeworks/espresso/internal/repository/order"
	repo "github.com/cafeworks/espresso/internal/repository/orderitem"
	"github.com/cafeworks/espresso/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/cafeworks/espresso/service/orderitem")

// Store is the persistence contract the order item service consumes.
type Store interface {
	GetAll(ctx context.Context) ([]*entity.OrderItem, error)
	GetByID(ctx context.Context, id int64) (*entity.OrderItem, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*entity.OrderItem, error)
	Create(ctx context.Context, item *entity.OrderItem) error
	Update(ctx context.Context, item *entity.OrderItem) error
	Delete(ctx context.Context, id int64) error
}

// OrderStore resolves the owning order of an item.
type OrderStore interface {
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
}

// DishStore resolves the dish a new line refers to.
type DishStore interface {
	GetByID(ctx context.Context, id int64) (*entity.Dish, error)
}

// Service manages the lines of an order. Adding a dish that the order
// already contains increments the existing line instead of creating a
// duplicate; the snapshot price of the line never changes after creation.
type Service struct {
	store  Store
	orders OrderStore
	dishes DishStore
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store  Store
	Orders OrderStore
	Dishes DishStore
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:  p.Store,
		orders: p.Orders,
		dishes: p.Dishes,
		logger: p.Logger,
	}
}

// GetAll lists every order item.
func (s *Service) GetAll(ctx context.Context) ([]*entity.OrderItem, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderItemService.GetAll")
	defer span.End()

	items, err := s.store.GetAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list order items", errorbank.WithCause(err))
	}
	return items, nil
}

// Get retrieves an order item by id.
func (s *Service) Get(ctx context.Context, id int64) (*entity.OrderItem, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderItemService.Get", trace.WithAttributes(attribute.Int64("order_item.id", id)))
	defer span.End()

	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order item not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order item", errorbank.WithCause(err))
	}
	return item, nil
}

// ListByOrder lists the lines of an existing order.
func (s *Service) ListByOrder(ctx context.Context, orderID int64) ([]*entity.OrderItem, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderItemService.ListByOrder", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	if _, err := s.loadOrder(ctx, orderID); err != nil {
		return nil, err
	}

	items, err := s.store.ListByOrder(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list order items", errorbank.WithCause(err))
	}
	if len(items) == 0 {
		return nil, errorbank.NotFound("order has no items")
	}
	return items, nil
}

// Create adds a dish to an active order. If the order already has a line
// for the dish, that line's quantity grows and its original price snapshot
// is kept; otherwise a new line snapshots the dish's current price.
func (s *Service) Create(ctx context.Context, input dto.OrderItemCreate) (*entity.OrderItem, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderItemService.Create",
		trace.WithAttributes(attribute.Int64("order.id", input.OrderID), attribute.Int64("dish.id", input.DishID)))
	defer span.End()

	if input.Quantity < 1 {
		return nil, errorbank.BadRequest("item quantity must be at least 1")
	}

	order, err := s.loadOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.IsCompleted {
		return nil, errorbank.Conflict("order already completed")
	}

	dish, err := s.dishes.GetByID(ctx, input.DishID)
	if err != nil {
		if errors.Is(err, dishrepo.ErrNotFound) {
			return nil, errorbank.NotFound("dish not found")
		}
		return nil, errorbank.Internal("failed to resolve dish", errorbank.WithCause(err))
	}

	existing, err := s.store.ListByOrder(ctx, input.OrderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list order items", errorbank.WithCause(err))
	}
	for _, line := range existing {
		if line.DishID == input.DishID {
			line.Quantity += input.Quantity
			if err := s.store.Update(ctx, line); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "repository error")
				return nil, errorbank.Internal("failed to update order item", errorbank.WithCause(err))
			}
			s.logger.Info("order item merged",
				zap.Int64("id", line.ID),
				zap.Int64("order_id", line.OrderID),
				zap.Int("quantity", line.Quantity),
			)
			return line, nil
		}
	}

	item := &entity.OrderItem{
		OrderID:      input.OrderID,
		DishID:       input.DishID,
		Quantity:     input.Quantity,
		PriceAtOrder: dish.Price,
	}
	if err := s.store.Create(ctx, item); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create order item", errorbank.WithCause(err))
	}

	s.logger.Info("order item created",
		zap.Int64("id", item.ID),
		zap.Int64("order_id", item.OrderID),
		zap.Int64("dish_id", item.DishID),
	)
	return item, nil
}

// Update changes the quantity of a line on an active order. The price
// snapshot is immutable.
func (s *Service) Update(ctx context.Context, id int64, input dto.OrderItemUpdate) (*entity.OrderItem, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderItemService.Update", trace.WithAttributes(attribute.Int64("order_item.id", id)))
	defer span.End()

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	order, err := s.loadOrder(ctx, item.OrderID)
	if err != nil {
		return nil, err
	}
	if order.IsCompleted {
		return nil, errorbank.Conflict("order already completed")
	}

	if input.Quantity != nil {
		if *input.Quantity < 1 {
			return nil, errorbank.BadRequest("item quantity must be at least 1")
		}
		item.Quantity = *input.Quantity
	}

	if err := s.store.Update(ctx, item); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order item not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update order item", errorbank.WithCause(err))
	}
	return item, nil
}

// Delete removes a line from an active order.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "OrderItemService.Delete", trace.WithAttributes(attribute.Int64("order_item.id", id)))
	defer span.End()

	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	order, err := s.loadOrder(ctx, item.OrderID)
	if err != nil {
		return err
	}
	if order.IsCompleted {
		return errorbank.Conflict("order already completed")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("order item not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete order item", errorbank.WithCause(err))
	}

	s.logger.Info("order item deleted", zap.Int64("id", id))
	return nil
}

func (s *Service) loadOrder(ctx context.Context, orderID int64) (*entity.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	return order, nil
}
