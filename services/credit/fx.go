package credit

import (
	"go.uber.org/fx"
)

var Module = fx.Module("credit.module",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)
