package promotion

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cafeworks/espresso/internal/dto"
	"github.com/cafeworks/espresso/internal/entity"
	repo "github.com/cafeworks/espresso/internal/repository/promotion"
	"github.com/cafeworks/espresso/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/cafeworks/espresso/service/promotion")

// Store is the persistence contract the promotion service consumes.
type Store interface {
	GetAll(ctx context.Context) ([]*entity.Promotion, error)
	GetByID(ctx context.Context, id int64) (*entity.Promotion, error)
	ListWithinDates(ctx context.Context, day time.Time) ([]*entity.Promotion, error)
	Create(ctx context.Context, promotion *entity.Promotion, dishIDs []int64) error
	Update(ctx context.Context, promotion *entity.Promotion, dishIDs []int64, relinkDishes bool) error
	Delete(ctx context.Context, id int64) error
}

// DishStore resolves dish references while validating promotion payloads.
type DishStore interface {
	ListByIDs(ctx context.Context, ids []int64) ([]*entity.Dish, error)
}

// Service evaluates and manages promotions.
type Service struct {
	store  Store
	dishes DishStore
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store  Store
	Dishes DishStore
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:  p.Store,
		dishes: p.Dishes,
		logger: p.Logger,
	}
}

// GetAll lists every promotion.
func (s *Service) GetAll(ctx context.Context) ([]*entity.Promotion, error) {
	ctx, span := serviceTracer.Start(ctx, "PromotionService.GetAll")
	defer span.End()

	promotions, err := s.store.GetAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list promotions", errorbank.WithCause(err))
	}
	return promotions, nil
}

// Get retrieves a promotion by id.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Promotion, error) {
	ctx, span := serviceTracer.Start(ctx, "PromotionService.Get", trace.WithAttributes(attribute.Int64("promotion.id", id)))
	defer span.End()

	promotion, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("promotion not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load promotion", errorbank.WithCause(err))
	}
	return promotion, nil
}

// ActiveAt returns the promotions active at the given instant. The date
// window is filtered in SQL; the optional daily time window is applied here
// via the entity predicate. An empty result is not an error.
func (s *Service) ActiveAt(ctx context.Context, now time.Time) ([]*entity.Promotion, error) {
	ctx, span := serviceTracer.Start(ctx, "PromotionService.ActiveAt")
	defer span.End()

	candidates, err := s.store.ListWithinDates(ctx, dayOf(now))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load promotions", errorbank.WithCause(err))
	}

	active := make([]*entity.Promotion, 0, len(candidates))
	for _, p := range candidates {
		if p.ActiveAt(now) {
			active = append(active, p)
		}
	}
	return active, nil
}

// ListActive is the transport-facing variant of ActiveAt; an empty result
// reports NotFound, matching the contract of the other domain list queries.
func (s *Service) ListActive(ctx context.Context, now time.Time) ([]*entity.Promotion, error) {
	active, err := s.ActiveAt(ctx, now)
	if err != nil {
		return nil, err
	}
	if len(active) == 0 {
		return nil, errorbank.NotFound("no active promotions")
	}
	return active, nil
}

// Create validates and persists a new promotion with its dish links.
func (s *Service) Create(ctx context.Context, input dto.PromotionCreate) (*entity.Promotion, error) {
	ctx, span := serviceTracer.Start(ctx, "PromotionService.Create")
	defer span.End()

	promotion := &entity.Promotion{
		Description:     input.Description,
		DiscountPercent: input.DiscountPercent,
		ValidFrom:       input.ValidFrom.Time,
		ValidTo:         input.ValidTo.Time,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
	}

	if err := s.validateWindow(promotion); err != nil {
		return nil, err
	}
	if err := s.validateDishRefs(ctx, input.DishIDs); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, promotion, input.DishIDs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create promotion", errorbank.WithCause(err))
	}

	s.logger.Info("promotion created",
		zap.Int64("id", promotion.ID),
		zap.Int("discount_percent", promotion.DiscountPercent),
		zap.Int("dishes", len(input.DishIDs)),
	)

	return s.Get(ctx, promotion.ID)
}

// Update applies a partial update, re-validating the effective window and
// any supplied dish references before writing.
func (s *Service) Update(ctx context.Context, id int64, input dto.PromotionUpdate) (*entity.Promotion, error) {
	ctx, span := serviceTracer.Start(ctx, "PromotionService.Update", trace.WithAttributes(attribute.Int64("promotion.id", id)))
	defer span.End()

	promotion, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Description != nil {
		promotion.Description = *input.Description
	}
	if input.DiscountPercent != nil {
		promotion.DiscountPercent = *input.DiscountPercent
	}
	if input.ValidFrom != nil {
		promotion.ValidFrom = input.ValidFrom.Time
	}
	if input.ValidTo != nil {
		promotion.ValidTo = input.ValidTo.Time
	}
	if input.StartTime != nil {
		promotion.StartTime = input.StartTime
	}
	if input.EndTime != nil {
		promotion.EndTime = input.EndTime
	}

	if err := s.validateWindow(promotion); err != nil {
		return nil, err
	}

	relink := input.DishIDs != nil
	if relink {
		if err := s.validateDishRefs(ctx, input.DishIDs); err != nil {
			return nil, err
		}
	}

	if err := s.store.Update(ctx, promotion, input.DishIDs, relink); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("promotion not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update promotion", errorbank.WithCause(err))
	}

	return s.Get(ctx, id)
}

// Delete removes a promotion and its dish links.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "PromotionService.Delete", trace.WithAttributes(attribute.Int64("promotion.id", id)))
	defer span.End()

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("promotion not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete promotion", errorbank.WithCause(err))
	}

	s.logger.Info("promotion deleted", zap.Int64("id", id))
	return nil
}

// validateWindow checks the effective date and time bounds of a promotion.
func (s *Service) validateWindow(p *entity.Promotion) error {
	if p.DiscountPercent < 0 || p.DiscountPercent > 100 {
		return errorbank.BadRequest("discount_percent must be between 0 and 100")
	}
	if p.ValidFrom.After(p.ValidTo) {
		return errorbank.BadRequest("valid_from cannot be after valid_to")
	}
	if p.StartTime != nil && p.EndTime != nil && p.StartTime.After(*p.EndTime) {
		return errorbank.BadRequest("start_time cannot be after end_time")
	}
	return nil
}

// validateDishRefs confirms every referenced dish exists, in one query.
func (s *Service) validateDishRefs(ctx context.Context, dishIDs []int64) error {
	if len(dishIDs) == 0 {
		return nil
	}
	dishes, err := s.dishes.ListByIDs(ctx, dishIDs)
	if err != nil {
		return errorbank.Internal("failed to resolve dishes", errorbank.WithCause(err))
	}
	found := make(map[int64]struct{}, len(dishes))
	for _, d := range dishes {
		found[d.ID] = struct{}{}
	}
	for _, dishID := range dishIDs {
		if _, ok := found[dishID]; !ok {
			return errorbank.BadRequest("dish does not exist", errorbank.WithDetail("dish_id", dishID))
		}
	}
	return nil
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
