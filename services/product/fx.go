package product

import (
	"go.uber.org/fx"
)

var Module = fx.Module("product.module",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)
