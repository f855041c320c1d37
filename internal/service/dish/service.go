package dish

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cafeworks/espresso/internal/cache"
	"github.com/cafeworks/espresso/internal/dto"
	"github.com/cafeworks/espresso/internal/entity"
	categoryrepo "github.com/cafeworks/espresso/internal/repository/category"
	repo "github.com/cafeworks/espresso/internal/repository/dish"
	"github.com/cafeworks/espresso/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/cafeworks/espresso/service/dish")

const dishCacheTTL = 5 * time.Minute

// Store is the persistence contract the dish service consumes.
type Store interface {
	GetAll(ctx context.Context) ([]*entity.Dish, error)
	GetByID(ctx context.Context, id int64) (*entity.Dish, error)
	GetByName(ctx context.Context, name string) (*entity.Dish, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]*entity.Dish, error)
	ListOnPromotion(ctx context.Context) ([]*entity.Dish, error)
	MostPopular(ctx context.Context) (*entity.Dish, error)
	SortByPrice(ctx context.Context, ascending bool) ([]*entity.Dish, error)
	HasOrderItems(ctx context.Context, dishID int64) (bool, error)
	Create(ctx context.Context, dish *entity.Dish) error
	Update(ctx context.Context, dish *entity.Dish) error
	Delete(ctx context.Context, id int64) error
}

// CategoryStore resolves category references on dish writes.
type CategoryStore interface {
	GetByID(ctx context.Context, id int64) (*entity.Category, error)
}

// Service manages menu dishes. Single-dish reads go through a cache-aside
// layer keyed by id.
type Service struct {
	store      Store
	categories CategoryStore
	cache      cache.Store
	logger     *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store      Store
	Categories CategoryStore
	Cache      cache.Store
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:      p.Store,
		categories: p.Categories,
		cache:      p.Cache,
		logger:     p.Logger,
	}
}

// GetAll lists every dish with its category.
func (s *Service) GetAll(ctx context.Context) ([]*entity.Dish, error) {
	ctx, span := serviceTracer.Start(ctx, "DishService.GetAll")
	defer span.End()

	dishes, err := s.store.GetAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list dishes", errorbank.WithCause(err))
	}
	return dishes, nil
}

// Get retrieves a dish by id, consulting the cache first.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Dish, error) {
	ctx, span := serviceTracer.Start(ctx, "DishService.Get", trace.WithAttributes(attribute.Int64("dish.id", id)))
	defer span.End()

	key := cacheKey(id)
	var cached entity.Dish
	switch err := cache.GetJSON(ctx, s.cache, key, &cached); {
	case err == nil:
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return &cached, nil
	case !errors.Is(err, cache.ErrCacheMiss):
		s.logger.Warn("dish cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	dish, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("dish not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load dish", errorbank.WithCause(err))
	}

	if err := cache.SetJSON(ctx, s.cache, key, dish, dishCacheTTL); err != nil {
		s.logger.Warn("dish cache write failed", zap.Int64("id", id), zap.Error(err))
	}
	return dish, nil
}

// GetByName finds the first dish whose name contains the given fragment,
// case-insensitively.
func (s *Service) GetByName(ctx context.Context, name string) (*entity.Dish, error) {
	ctx, span := serviceTracer.Start(ctx, "DishService.GetByName", trace.WithAttributes(attribute.String("dish.name", name)))
	defer span.End()

	dish, err := s.store.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("dish not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load dish", errorbank.WithCause(err))
	}
	return dish, nil
}

// ListByCategory lists the dishes of an existing category. An empty menu
// section reports NotFound.
func (s *Service) ListByCategory(ctx context.Context, categoryID int64) ([]*entity.Dish, error) {
	ctx, span := serviceTracer.Start(ctx, "DishService.ListByCategory", trace.WithAttributes(attribute.Int64("category.id", categoryID)))
	defer span.End()

	if _, err := s.categories.GetByID(ctx, categoryID); err != nil {
		if errors.Is(err, categoryrepo.ErrNotFound) {
			return nil, errorbank.NotFound("category not found")
		}
		return nil, errorbank.Internal("failed to load category", errorbank.WithCause(err))
	}

	dishes, err := s.store.ListByCategory(ctx, categoryID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list dishes", errorbank.WithCause(err))
	}
	if len(dishes) == 0 {
		return nil, errorbank.NotFound("no dishes in category")
	}
	return dishes, nil
}

// ListOnPromotion lists the dishes linked to at least one promotion.
func (s *Service) ListOnPromotion(ctx context.Context) ([]*entity.Dish, error) {
	ctx, span := serviceTracer.Start(ctx, "DishService.ListOnPromotion")
	defer span.End()

	dishes, err := s.store.ListOnPromotion(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list dishes", errorbank.WithCause(err))
	}
	if len(dishes) == 0 {
		return nil, errorbank.NotFound("no dishes on promotion")
	}
	return dishes, nil
}

// MostPopular returns the dish with the highest total ordered quantity.
func (s *Service) MostPopular(ctx context.Context) (*entity.Dish, error) {
	ctx, span := serviceTracer.Start(ctx, "DishService.MostPopular")
	defer span.End()

	dish, err := s.store.MostPopular(ctx)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("no dishes have been ordered yet")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load most popular dish", errorbank.WithCause(err))
	}
	return dish, nil
}

// SortByPrice lists every dish ordered by price.
func (s *Service) SortByPrice(ctx context.Context, ascending bool) ([]*entity.Dish, error) {
	ctx, span := serviceTracer.Start(ctx, "DishService.SortByPrice", trace.WithAttributes(attribute.Bool("ascending", ascending)))
	defer span.End()

	dishes, err := s.store.SortByPrice(ctx, ascending)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list dishes", errorbank.WithCause(err))
	}
	if len(dishes) == 0 {
		return nil, errorbank.NotFound("no dishes found")
	}
	return dishes, nil
}

// Create registers a new dish under an existing category.
func (s *Service) Create(ctx context.Context, input dto.DishCreate) (*entity.Dish, error) {
	ctx, span := serviceTracer.Start(ctx, "DishService.Create")
	defer span.End()

	if strings.TrimSpace(input.Name) == "" {
		return nil, errorbank.BadRequest("dish name must not be empty")
	}
	if input.Price.LessThanOrEqual(decimal.Zero) {
		return nil, errorbank.BadRequest("dish price must be positive")
	}
	if _, err := s.categories.GetByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, categoryrepo.ErrNotFound) {
			return nil, errorbank.BadRequest("category does not exist", errorbank.WithDetail("category_id", input.CategoryID))
		}
		return nil, errorbank.Internal("failed to resolve category", errorbank.WithCause(err))
	}
	if err := s.ensureNameFree(ctx, input.Name); err != nil {
		return nil, err
	}

	dish := &entity.Dish{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		CategoryID:  input.CategoryID,
	}
	if err := s.store.Create(ctx, dish); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create dish", errorbank.WithCause(err))
	}

	s.logger.Info("dish created",
		zap.Int64("id", dish.ID),
		zap.String("name", dish.Name),
		zap.String("price", dish.Price.String()),
	)
	return s.Get(ctx, dish.ID)
}

// Update applies a partial update to a dish and invalidates its cache entry.
func (s *Service) Update(ctx context.Context, id int64, input dto.DishUpdate) (*entity.Dish, error) {
	ctx, span := serviceTracer.Start(ctx, "DishService.Update", trace.WithAttributes(attribute.Int64("dish.id", id)))
	defer span.End()

	dish, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("dish not found")
		}
		return nil, errorbank.Internal("failed to load dish", errorbank.WithCause(err))
	}

	if input.Name != nil && !strings.EqualFold(*input.Name, dish.Name) {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, errorbank.BadRequest("dish name must not be empty")
		}
		if err := s.ensureNameFree(ctx, *input.Name); err != nil {
			return nil, err
		}
		dish.Name = *input.Name
	}
	if input.Description != nil {
		dish.Description = *input.Description
	}
	if input.Price != nil {
		if input.Price.LessThanOrEqual(decimal.Zero) {
			return nil, errorbank.BadRequest("dish price must be positive")
		}
		dish.Price = *input.Price
	}
	if input.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *input.CategoryID); err != nil {
			if errors.Is(err, categoryrepo.ErrNotFound) {
				return nil, errorbank.BadRequest("category does not exist", errorbank.WithDetail("category_id", *input.CategoryID))
			}
			return nil, errorbank.Internal("failed to resolve category", errorbank.WithCause(err))
		}
		dish.CategoryID = *input.CategoryID
	}

	if err := s.store.Update(ctx, dish); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("dish not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update dish", errorbank.WithCause(err))
	}

	s.invalidate(ctx, id)
	return s.Get(ctx, id)
}

// Delete removes a dish unless it appears in order history.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "DishService.Delete", trace.WithAttributes(attribute.Int64("dish.id", id)))
	defer span.End()

	if _, err := s.store.GetByID(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("dish not found")
		}
		return errorbank.Internal("failed to load dish", errorbank.WithCause(err))
	}

	referenced, err := s.store.HasOrderItems(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to check dish references", errorbank.WithCause(err))
	}
	if referenced {
		return errorbank.Conflict("dish is referenced by order items", errorbank.WithDetail("dish_id", id))
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("dish not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete dish", errorbank.WithCause(err))
	}

	s.invalidate(ctx, id)
	s.logger.Info("dish deleted", zap.Int64("id", id))
	return nil
}

func (s *Service) ensureNameFree(ctx context.Context, name string) error {
	existing, err := s.store.GetByName(ctx, name)
	switch {
	case err == nil:
		if strings.EqualFold(existing.Name, name) {
			return errorbank.Conflict("dish name already exists", errorbank.WithDetail("name", name))
		}
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return nil
	default:
		return errorbank.Internal("failed to check dish name", errorbank.WithCause(err))
	}
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if err := s.cache.Delete(ctx, cacheKey(id)); err != nil {
		s.logger.Warn("dish cache invalidation failed", zap.Int64("id", id), zap.Error(err))
	}
}

func cacheKey(id int64) string {
	return "dish:" + strconv.FormatInt(id, 10)
}
