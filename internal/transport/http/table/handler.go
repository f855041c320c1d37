package table

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cafeworks/espresso/internal/dto"
	"github.com/cafeworks/espresso/internal/presentation/http/response"
	service "github.com/cafeworks/espresso/internal/service/table"
	"github.com/cafeworks/espresso/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/cafeworks/espresso/transport/http/table")

// Handler exposes table endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a table Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/tables")
	g.GET("", h.list)
	g.GET("/:id", h.getByID)
	g.GET("/number/:number", h.getByNumber)
	g.GET("/occupancy/:occupied", h.listByOccupancy)
	g.GET("/:id/is_occupied", h.isOccupied)
	g.POST("", h.create)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.remove)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.list")
	defer span.End()

	tables, err := h.svc.GetAll(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewTableResponses(tables)).WithMeta("count", len(tables)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.getByID", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	table, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewTableResponse(table)).Build()
}

func (h *Handler) getByNumber(c echo.Context) error {
	b := response.New(c)

	number, err := strconv.Atoi(c.Param("number"))
	if err != nil || number <= 0 {
		return b.WithError(errorbank.BadRequest("invalid table number")).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.getByNumber", trace.WithAttributes(attribute.Int("table.number", number)))
	defer span.End()

	table, err := h.svc.GetByNumber(ctx, number)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewTableResponse(table)).Build()
}

func (h *Handler) listByOccupancy(c echo.Context) error {
	b := response.New(c)

	occupied, err := strconv.ParseBool(c.Param("occupied"))
	if err != nil {
		return b.WithError(errorbank.BadRequest("invalid occupancy flag", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.listByOccupancy", trace.WithAttributes(attribute.Bool("occupied", occupied)))
	defer span.End()

	tables, err := h.svc.ListByOccupancy(ctx, occupied)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewTableResponses(tables)).WithMeta("count", len(tables)).Build()
}

func (h *Handler) isOccupied(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.isOccupied", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	occupied, err := h.svc.IsOccupied(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(map[string]any{"table_id": id, "is_occupied": occupied}).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.TableCreate
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.create", trace.WithAttributes(attribute.Int("table.number", payload.Number)))
	defer span.End()

	table, err := h.svc.Create(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewTableResponse(table)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload dto.TableUpdate
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.update", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	table, err := h.svc.Update(ctx, id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewTableResponse(table)).Build()
}

func (h *Handler) remove(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c, "id")
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "tables.delete", trace.WithAttributes(attribute.Int64("table.id", id)))
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
