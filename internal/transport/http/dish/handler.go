package dish

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cafeworks/espresso/internal/dto"
	"github.com/cafeworks/espresso/internal/presentation/http/response"
	service "github.com/cafeworks/espresso/internal/service/dish"
	"github.com/cafeworks/espresso/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/cafeworks/espresso/transport/http/dish")

// Handler exposes dish endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a dish Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/dishes")
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.GET("/name/:name", h.getByName)
	g.GET("/category/:category_id", h.listByCategory)
	g.GET("/on_promotion", h.listOnPromotion)
	g.GET("/most_popular", h.mostPopular)
	g.GET("/sort/:direction", h.sortByPrice)
	g.POST("", h.create)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.remove)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "dishes.list")
	defer span.End()

	dishes, err := h.svc.GetAll(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewDishResponses(dishes)).WithMeta("count", len(dishes)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "dishes.getByID", trace.WithAttributes(attribute.Int64("dish.id", id)))
	defer span.End()

	dish, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewDishResponse(dish)).Build()
}

func (h *Handler) getByName(c echo.Context) error {
	b := response.New(c)

	name := c.Param("name")
	if name == "" {
		return b.WithError(errorbank.BadRequest("name is required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "dishes.getByName", trace.WithAttributes(attribute.String("dish.name", name)))
	defer span.End()

	dish, err := h.svc.GetByName(ctx, name)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewDishResponse(dish)).Build()
}

func (h *Handler) listByCategory(c echo.Context) error {
	b := response.New(c)

	categoryID, err := pathID(c, "category_id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "dishes.listByCategory", trace.WithAttributes(attribute.Int64("category.id", categoryID)))
	defer span.End()

	dishes, err := h.svc.ListByCategory(ctx, categoryID)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewDishResponses(dishes)).WithMeta("count", len(dishes)).Build()
}

func (h *Handler) listOnPromotion(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "dishes.listOnPromotion")
	defer span.End()

	dishes, err := h.svc.ListOnPromotion(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewDishResponses(dishes)).WithMeta("count", len(dishes)).Build()
}

func (h *Handler) mostPopular(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "dishes.mostPopular")
	defer span.End()

	dish, err := h.svc.MostPopular(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewDishResponse(dish)).Build()
}

func (h *Handler) sortByPrice(c echo.Context) error {
	b := response.New(c)

	var ascending bool
	switch strings.ToLower(c.Param("direction")) {
	case "asc":
		ascending = true
	case "desc":
		ascending = false
	default:
		return b.WithError(errorbank.BadRequest("direction must be asc or desc")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "dishes.sortByPrice", trace.WithAttributes(attribute.Bool("ascending", ascending)))
	defer span.End()

	dishes, err := h.svc.SortByPrice(ctx, ascending)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewDishResponses(dishes)).WithMeta("count", len(dishes)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.DishCreate
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "dishes.create")
	defer span.End()

	dish, err := h.svc.Create(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewDishResponse(dish)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload dto.DishUpdate
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "dishes.update", trace.WithAttributes(attribute.Int64("dish.id", id)))
	defer span.End()

	dish, err := h.svc.Update(ctx, id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewDishResponse(dish)).Build()
}

func (h *Handler) remove(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "dishes.delete", trace.WithAttributes(attribute.Int64("dish.id", id)))
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
