package promotion

import "go.uber.org/fx"

// Module provides the promotion service to the fx graph.
var Module = fx.Provide(NewService)
