package dish

import "go.uber.org/fx"

// Module provides the dish repository to Fx.
var Module = fx.Provide(NewRepository)
