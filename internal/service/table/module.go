package table

import "go.uber.org/fx"

// Module provides the table service to the fx graph.
var Module = fx.Provide(NewService)
