package support

import (
	"go.uber.org/fx"
)

var Module = fx.Module("support.module",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)
