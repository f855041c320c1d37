package app

import (
	"go.uber.org/fx"

	"github.com/cafeworks/espresso/internal/cache"
	"github.com/cafeworks/espresso/internal/config"
	"github.com/cafeworks/espresso/internal/database"
	"github.com/cafeworks/espresso/internal/logger"
	"github.com/cafeworks/espresso/internal/messaging"
	"github.com/cafeworks/espresso/internal/observability"
	repositorycategory "github.com/cafeworks/espresso/internal/repository/category"
	repositorydish "github.com/cafeworks/espresso/internal/repository/dish"
	repositoryorder "github.com/cafeworks/espresso/internal/repository/order"
	repositoryorderitem "github.com/cafeworks/espresso/internal/repository/orderitem"
	repositorypromotion "github.com/cafeworks/espresso/internal/repository/promotion"
	repositorytable "github.com/cafeworks/espresso/internal/repository/table"
	grpcserver "github.com/cafeworks/espresso/internal/server/grpc"
	httpserver "github.com/cafeworks/espresso/internal/server/http"
	servicecategory "github.com/cafeworks/espresso/internal/service/category"
	servicedish "github.com/cafeworks/espresso/internal/service/dish"
	serviceorder "github.com/cafeworks/espresso/internal/service/order"
	serviceorderitem "github.com/cafeworks/espresso/internal/service/orderitem"
	servicepromotion "github.com/cafeworks/espresso/internal/service/promotion"
	servicetable "github.com/cafeworks/espresso/internal/service/table"
	transporthttp "github.com/cafeworks/espresso/internal/transport/http"
	"github.com/cafeworks/espresso/internal/worker"
	workerorder "github.com/cafeworks/espresso/internal/worker/order"
)

// bindings adapts the concrete bun repositories onto the narrow store
// interfaces each service declares.
var bindings = fx.Provide(
	func(r *repositorytable.Repository) servicetable.Store { return r },
	func(r *repositorycategory.Repository) servicecategory.Store { return r },
	func(r *repositorydish.Repository) servicecategory.DishStore { return r },
	func(r *repositorydish.Repository) servicedish.Store { return r },
	func(r *repositorycategory.Repository) servicedish.CategoryStore { return r },
	func(r *repositorypromotion.Repository) servicepromotion.Store { return r },
	func(r *repositorydish.Repository) servicepromotion.DishStore { return r },
	func(r *repositoryorder.Repository) serviceorder.Store { return r },
	func(r *repositorytable.Repository) serviceorder.TableStore { return r },
	func(r *repositorydish.Repository) serviceorder.DishStore { return r },
	func(r *repositoryorderitem.Repository) serviceorder.ItemStore { return r },
	func(s *servicepromotion.Service) serviceorder.PromotionSource { return s },
	func(r *repositoryorderitem.Repository) serviceorderitem.Store { return r },
	func(r *repositoryorder.Repository) serviceorderitem.OrderStore { return r },
	func(r *repositorydish.Repository) serviceorderitem.DishStore { return r },
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	repositorytable.Module,
	repositorycategory.Module,
	repositorydish.Module,
	repositorypromotion.Module,
	repositoryorder.Module,
	repositoryorderitem.Module,
	bindings,
	servicetable.Module,
	servicecategory.Module,
	servicedish.Module,
	servicepromotion.Module,
	serviceorder.Module,
	serviceorderitem.Module,
)

// HTTP wires the HTTP transport on top of the core modules. The gRPC
// server rides along for health probes.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	transporthttp.Module,
	grpcserver.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workerorder.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
