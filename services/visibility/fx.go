package visibility

import (
	"go.uber.org/fx"
)

var Module = fx.Module("visibility.module",
	fx.Provide(NewResolver),
)
