package category

import "go.uber.org/fx"

// Module provides the category service to the fx graph.
var Module = fx.Provide(NewService)
