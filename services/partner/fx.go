package partner

import (
	"go.uber.org/fx"
)

var Module = fx.Module("partner.module",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)
