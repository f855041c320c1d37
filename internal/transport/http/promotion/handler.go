package promotion

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/cafeworks/espresso/internal/dto"
	"github.com/cafeworks/espresso/internal/presentation/http/response"
	service "github.com/cafeworks/espresso/internal/service/promotion"
	"github.com/cafeworks/espresso/pkg/errorbank"
)

var httpTracer = otel.Tracer("github.com/cafeworks/espresso/transport/http/promotion")

// Handler exposes promotion endpoints over HTTP.
type Handler struct {
	svc *service.Service
}

// NewHandler constructs a promotion Handler.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Register routes with provided Echo instance.
func Register(e *echo.Echo, h *Handler) {
	g := e.Group("/promotions")
	g.GET("", h.list)
	g.GET("/active", h.listActive)
	g.GET("/:id", h.getByID)
	g.POST("", h.create)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.remove)
}

func (h *Handler) list(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "promotions.list")
	defer span.End()

	promotions, err := h.svc.GetAll(ctx)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewPromotionResponses(promotions)).WithMeta("count", len(promotions)).Build()
}

func (h *Handler) listActive(c echo.Context) error {
	b := response.New(c)

	ctx, span := httpTracer.Start(c.Request().Context(), "promotions.listActive")
	defer span.End()

	promotions, err := h.svc.ListActive(ctx, time.Now())
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewPromotionResponses(promotions)).WithMeta("count", len(promotions)).Build()
}

func (h *Handler) getByID(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "promotions.getByID", trace.WithAttributes(attribute.Int64("promotion.id", id)))
	defer span.End()

	promotion, err := h.svc.Get(ctx, id)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewPromotionResponse(promotion)).Build()
}

func (h *Handler) create(c echo.Context) error {
	b := response.New(c)

	var payload dto.PromotionCreate
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "promotions.create")
	defer span.End()

	promotion, err := h.svc.Create(ctx, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithStatus(http.StatusCreated).WithData(dto.NewPromotionResponse(promotion)).Build()
}

func (h *Handler) update(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	var payload dto.PromotionUpdate
	if err := c.Bind(&payload); err != nil {
		return b.WithError(errorbank.BadRequest("invalid payload", errorbank.WithCause(err))).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "promotions.update", trace.WithAttributes(attribute.Int64("promotion.id", id)))
	defer span.End()

	promotion, err := h.svc.Update(ctx, id, payload)
	if err != nil {
		return b.WithError(err).Build()
	}

	return b.WithData(dto.NewPromotionResponse(promotion)).Build()
}

func (h *Handler) remove(c echo.Context) error {
	b := response.New(c)

	id, err := pathID(c)
	if err != nil {
		return b.WithError(err).Build()
	}

	ctx, span := httpTracer.Start(c.Request().Context(), "promotions.delete", trace.WithAttributes(attribute.Int64("promotion.id", id)))
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
