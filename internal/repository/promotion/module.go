package promotion

import "go.uber.org/fx"

// Module provides the promotion repository to Fx.
var Module = fx.Provide(NewRepository)
