package category

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cafeworks/espresso/internal/dto"
	"github.com/cafeworks/espresso/internal/presentation/http/response"
	service "github.com/cafeworks/espresso/internal/service/category"
	"github.com/cafeworks/espresso/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/cafeworks/espresso/transport/http/category")

// Handler exposes category endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a category Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/categories")
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.GET("/name/:name", h.getByName)
	g.POST("", h.create)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.remove)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.list")
	defer span.End()

	categories, err := h.svc.GetAll(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewCategoryResponses(categories)).WithMeta("count", len(categories)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.getByID", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	category, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewCategoryResponse(category)).Build()
}

func (h *Handler) getByName(c echo.Context) error {
	b := response.New(c)

	name := c.Param("name")
	if name == "" {
		return b.WithError(errorbank.BadRequest("name is required")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.getByName", trace.WithAttributes(attribute.String("category.name", name)))
	defer span.End()

	category, err := h.svc.GetByName(ctx, name)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewCategoryResponse(category)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.CategoryCreate
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.create")
	defer span.End()

	category, err := h.svc.Create(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewCategoryResponse(category)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload dto.CategoryUpdate
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.update", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	category, err := h.svc.Update(ctx, id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewCategoryResponse(category)).Build()
}

func (h *Handler) remove(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "categories.delete", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	if err := h.svc.Delete(ctx, id); err != nil {
		return b.WithError(err).Build()
	}

	return b.WithMeta("deleted", id).Build()
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errorbank.BadRequest("invalid id")
	}
	return id, nil
}
