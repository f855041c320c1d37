package category

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cafeworks/espresso/internal/dto"
	"github.com/cafeworks/espresso/internal/entity"
	repo "github.com/cafeworks/espresso/internal/repository/category"
	"github.com/cafeworks/espresso/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/cafeworks/espresso/service/category")

// Store is the persistence contract the category service consumes.
type Store interface {
	GetAll(ctx context.Context) ([]*entity.Category, error)
	GetByID(ctx context.Context, id int64) (*entity.Category, error)
	GetByName(ctx context.Context, name string) (*entity.Category, error)
	Create(ctx context.Context, category *entity.Category) error
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, id int64) error
}

// DishStore exposes the dish lookups needed for the deletion guard.
type DishStore interface {
	ListByCategory(ctx context.Context, categoryID int64) ([]*entity.Dish, error)
	HasOrderItems(ctx context.Context, dishID int64) (bool, error)
}

// Service manages menu categories.
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

// GetAll lists every category.
func (s *Service) GetAll(ctx context.Context) ([]*entity.Category, error) {
	ctx, span := serviceTracer.Start(ctx, "CategoryService.GetAll")
	defer span.End()

	categories, err := s.store.GetAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list categories", errorbank.WithCause(err))
	}
	return categories, nil
}

// Get retrieves a category by id.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Category, error) {
	ctx, span := serviceTracer.Start(ctx, "CategoryService.Get", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	category, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("category not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load category", errorbank.WithCause(err))
	}
	return category, nil
}

// GetByName finds the first category whose name contains the given
// fragment, case-insensitively.
func (s *Service) GetByName(ctx context.Context, name string) (*entity.Category, error) {
	ctx, span := serviceTracer.Start(ctx, "CategoryService.GetByName", trace.WithAttributes(attribute.String("category.name", name)))
	defer span.End()

	category, err := s.store.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("category not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load category", errorbank.WithCause(err))
	}
	return category, nil
}

// Create registers a new category with a unique name.
func (s *Service) Create(ctx context.Context, input dto.CategoryCreate) (*entity.Category, error) {
	ctx, span := serviceTracer.Start(ctx, "CategoryService.Create")
	defer span.End()

	if strings.TrimSpace(input.Name) == "" {
		return nil, errorbank.BadRequest("category name must not be empty")
	}
	if err := s.ensureNameFree(ctx, input.Name); err != nil {
		return nil, err
	}

	category := &entity.Category{
		Name:        input.Name,
		Description: input.Description,
	}
	if err := s.store.Create(ctx, category); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create category", errorbank.WithCause(err))
	}

	s.logger.Info("category created", zap.Int64("id", category.ID), zap.String("name", category.Name))
	return category, nil
}

// Update applies a partial update to a category.
func (s *Service) Update(ctx context.Context, id int64, input dto.CategoryUpdate) (*entity.Category, error) {
	ctx, span := serviceTracer.Start(ctx, "CategoryService.Update", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil && !strings.EqualFold(*input.Name, category.Name) {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, errorbank.BadRequest("category name must not be empty")
		}
		if err := s.ensureNameFree(ctx, *input.Name); err != nil {
			return nil, err
		}
		category.Name = *input.Name
	}
	if input.Description != nil {
		category.Description = *input.Description
	}

	if err := s.store.Update(ctx, category); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("category not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update category", errorbank.WithCause(err))
	}
	return category, nil
}

// Delete removes a category and, by cascade, its dishes. The removal is
// refused while any owned dish is referenced by order items, so order
// history never loses its price snapshots.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "CategoryService.Delete", trace.WithAttributes(attribute.Int64("category.id", id)))
	defer span.End()

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	dishes, err := s.dishes.ListByCategory(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to list category dishes", errorbank.WithCause(err))
	}
	for _, dish := range dishes {
		referenced, err := s.dishes.HasOrderItems(ctx, dish.ID)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "repository error")
			return errorbank.Internal("failed to check dish references", errorbank.WithCause(err))
		}
		if referenced {
			return errorbank.Conflict("category has dishes referenced by orders",
				errorbank.WithDetail("dish_id", dish.ID),
				errorbank.WithDetail("dish_name", dish.Name),
			)
		}
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("category not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete category", errorbank.WithCause(err))
	}

	s.logger.Info("category deleted", zap.Int64("id", id))
	return nil
}

// ensureNameFree rejects an exact, case-insensitive duplicate. The lookup
// matches substrings, so a hit still has to be compared against the
// candidate name before it counts as a collision.
func (s *Service) ensureNameFree(ctx context.Context, name string) error {
	existing, err := s.store.GetByName(ctx, name)
	switch {
	case err == nil:
		if strings.EqualFold(existing.Name, name) {
			return errorbank.Conflict("category name already exists", errorbank.WithDetail("name", name))
		}
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return nil
	default:
		return errorbank.Internal("failed to check category name", errorbank.WithCause(err))
	}
}
