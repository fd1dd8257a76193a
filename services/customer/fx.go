package customer

import (
	"go.uber.org/fx"
)

var Module = fx.Module("customer.module",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)
