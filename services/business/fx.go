package business

import (
	"go.uber.org/fx"
)

var Module = fx.Module("business.module",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)
