package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/cafeworks/espresso/internal/config"
	"github.com/cafeworks/espresso/internal/messaging"
	ordersvc "github.com/cafeworks/espresso/internal/service/order"
	"github.com/cafeworks/espresso/internal/worker"
)

var workerTracer = otel.Tracer("github.com/cafeworks/espresso/worker/order")

// Module registers order lifecycle worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewLifecycleHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewLifecycleHandler sets up a worker handler for order lifecycle events.
// Creations and completions are acknowledged in the log; unknown event
// types are dropped without retry.
func NewLifecycleHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		span.SetAttributes(attribute.String("event.type", event.Type))

		switch event.Type {
		case ordersvc.EventOrderCreated:
			logger.Info("order opened",
				zap.Int64("order_id", event.OrderID),
				zap.Int64("table_id", event.TableID),
				zap.Int("items", len(event.Items)),
			)
		case ordersvc.EventOrderCompleted:
			logger.Info("order closed, table freed",
				zap.Int64("order_id", event.OrderID),
				zap.Int64("table_id", event.TableID),
			)
		default:
			logger.Warn("unknown order event type", zap.String("type", event.Type))
		}

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
