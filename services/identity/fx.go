package identity

import (
	"ablecloud-backoffice/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var Module = fx.Module("identity.module",
	fx.Provide(NewProvider),
)

type ProviderParams struct {
	fx.In
	Config *config.Config
	Redis  *redis.Client `optional:"true"`
}

func NewProvider(p ProviderParams) Provider {
	provider := Provider(NewHTTPProvider(p.Config))
	if p.Redis != nil {
		provider = NewCachedProvider(provider, p.Redis, p.Config.Identity.CacheTTL)
	}
	return provider
}
