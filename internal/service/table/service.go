package table

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
	repo "github.com/cafeworks/espresso/internal/repository/table"
	"github.com/cafeworks/espresso/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/cafeworks/espresso/service/table")

// Store is the persistence contract the table service consumes.
type Store interface {
	GetAll(ctx context.Context) ([]*entity.Table, error)
	GetByID(ctx context.Context, id int64) (*entity.Table, error)
	GetByNumber(ctx context.Context, number int) (*entity.Table, error)
	ListByOccupancy(ctx context.Context, occupied bool) ([]*entity.Table, error)
	IsOccupied(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, table *entity.Table) error
	Update(ctx context.Context, table *entity.Table) error
	Delete(ctx context.Context, id int64) error
}

// Service manages café tables and their occupancy state.
type Service struct {
	store  Store
	logger *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Store  Store
	Logger *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		store:  p.Store,
		logger: p.Logger,
	}
}

// GetAll lists every table ordered by number.
func (s *Service) GetAll(ctx context.Context) ([]*entity.Table, error) {
	ctx, span := serviceTracer.Start(ctx, "TableService.GetAll")
	defer span.End()

	tables, err := s.store.GetAll(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list tables", errorbank.WithCause(err))
	}
	return tables, nil
}

// Get retrieves a table by id.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Table, error) {
	ctx, span := serviceTracer.Start(ctx, "TableService.Get", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	table, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("table not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load table", errorbank.WithCause(err))
	}
	return table, nil
}

// GetByNumber retrieves a table by its physical number.
func (s *Service) GetByNumber(ctx context.Context, number int) (*entity.Table, error) {
	ctx, span := serviceTracer.Start(ctx, "TableService.GetByNumber", trace.WithAttributes(attribute.Int("table.number", number)))
	defer span.End()

	table, err := s.store.GetByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("table not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load table", errorbank.WithCause(err))
	}
	return table, nil
}

// ListByOccupancy lists tables that currently have (or do not have) an
// active order. An empty result reports NotFound.
func (s *Service) ListByOccupancy(ctx context.Context, occupied bool) ([]*entity.Table, error) {
	ctx, span := serviceTracer.Start(ctx, "TableService.ListByOccupancy", trace.WithAttributes(attribute.Bool("occupied", occupied)))
	defer span.End()

	tables, err := s.store.ListByOccupancy(ctx, occupied)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list tables", errorbank.WithCause(err))
	}
	if len(tables) == 0 {
		return nil, errorbank.NotFound("tables not found")
	}
	return tables, nil
}

// IsOccupied reports whether the table has an active order.
func (s *Service) IsOccupied(ctx context.Context, id int64) (bool, error) {
	ctx, span := serviceTracer.Start(ctx, "TableService.IsOccupied", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}

	occupied, err := s.store.IsOccupied(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return false, errorbank.Internal("failed to check table occupancy", errorbank.WithCause(err))
	}
	return occupied, nil
}

// Create registers a new table with a unique number.
func (s *Service) Create(ctx context.Context, input dto.TableCreate) (*entity.Table, error) {
	ctx, span := serviceTracer.Start(ctx, "TableService.Create", trace.WithAttributes(attribute.Int("table.number", input.Number)))
	defer span.End()

	if input.Number <= 0 {
		return nil, errorbank.BadRequest("table number must be positive")
	}
	if err := s.ensureNumberFree(ctx, input.Number); err != nil {
		return nil, err
	}

	table := &entity.Table{
		Number:   input.Number,
		Location: input.Location,
	}
	if err := s.store.Create(ctx, table); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to create table", errorbank.WithCause(err))
	}

	s.logger.Info("table created", zap.Int64("id", table.ID), zap.Int("number", table.Number))
	return table, nil
}

// Update applies a partial update to a table.
func (s *Service) Update(ctx context.Context, id int64, input dto.TableUpdate) (*entity.Table, error) {
	ctx, span := serviceTracer.Start(ctx, "TableService.Update", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	table, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Number != nil && *input.Number != table.Number {
		if *input.Number <= 0 {
			return nil, errorbank.BadRequest("table number must be positive")
		}
		if err := s.ensureNumberFree(ctx, *input.Number); err != nil {
			return nil, err
		}
		table.Number = *input.Number
	}
	if input.Location != nil {
		table.Location = *input.Location
	}

	if err := s.store.Update(ctx, table); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("table not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update table", errorbank.WithCause(err))
	}
	return table, nil
}

// Delete removes a table. Tables with an active order cannot be removed.
func (s *Service) Delete(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "TableService.Delete", trace.WithAttributes(attribute.Int64("table.id", id)))
	defer span.End()

	occupied, err := s.IsOccupied(ctx, id)
	if err != nil {
		return err
	}
	if occupied {
		return errorbank.Conflict("table has an active order")
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("table not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to delete table", errorbank.WithCause(err))
	}

	s.logger.Info("table deleted", zap.Int64("id", id))
	return nil
}

func (s *Service) ensureNumberFree(ctx context.Context, number int) error {
	_, err := s.store.GetByNumber(ctx, number)
	switch {
	case err == nil:
		return errorbank.Conflict("table number already exists", errorbank.WithDetail("number", number))
	case errors.Is(err, repo.ErrNotFound):
		return nil
	default:
		return errorbank.Internal("failed to check table number", errorbank.WithCause(err))
	}
}
