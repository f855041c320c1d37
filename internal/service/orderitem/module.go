package orderitem

import "go.uber.org/fx"

// Module provides the order item service to the fx graph.
var Module = fx.Provide(NewService)
