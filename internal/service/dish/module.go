package dish

import "go.uber.org/fx"

// Module provides the dish service to the fx graph.
var Module = fx.Provide(NewService)
