package orderitem

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cafeworks/espresso/internal/dto"
	"github.com/cafeworks/espresso/internal/presentation/http/response"
	service "github.com/cafeworks/espresso/internal/service/orderitem"
	"github.com/cafeworks/espresso/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/cafeworks/espresso/transport/http/orderitem")

// Handler exposes order item endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs an order item Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/order-items")
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.GET("/order/:order_id", h.listByOrder)
	g.POST("", h.create)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.remove)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "order_items.list")
	defer span.End()

	items, err := h.svc.GetAll(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderItemResponses(items)).WithMeta("count", len(items)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "order_items.getByID", trace.WithAttributes(attribute.Int64("order_item.id", id)))
	defer span.End()

	item, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderItemResponse(item)).Build()
}

func (h *Handler) listByOrder(c echo.Context) error {
	b := response.New(c)

	orderID, err := pathID(c, "order_id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "order_items.listByOrder", trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	items, err := h.svc.ListByOrder(ctx, orderID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderItemResponses(items)).WithMeta("count", len(items)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.OrderItemCreate
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "order_items.create",
		trace.WithAttributes(attribute.Int64("order.id", payload.OrderID), attribute.Int64("dish.id", payload.DishID)))
	defer span.End()

	item, err := h.svc.Create(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewOrderItemResponse(item)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload dto.OrderItemUpdate
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "order_items.update", trace.WithAttributes(attribute.Int64("order_item.id", id)))
	defer span.End()

	item, err := h.svc.Update(ctx, id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewOrderItemResponse(item)).Build()
}

func (h *Handler) remove(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "order_items.delete", trace.WithAttributes(attribute.Int64("order_item.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithMeta("deleted", id).Build()
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid id")
	}
	return id, nil
}
