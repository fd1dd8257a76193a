package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"ablecloud-backoffice/pkg/config"
	"ablecloud-backoffice/pkg/db"
	"ablecloud-backoffice/pkg/health"
	"ablecloud-backoffice/pkg/logger"
	"ablecloud-backoffice/pkg/redis"
	"ablecloud-backoffice/pkg/sequence"
	"ablecloud-backoffice/pkg/server"
	"ablecloud-backoffice/services/bootstrap"
	"ablecloud-backoffice/services/business"
	"ablecloud-backoffice/services/credit"
	"ablecloud-backoffice/services/customer"
	"ablecloud-backoffice/services/identity"
	"ablecloud-backoffice/services/license"
	"ablecloud-backoffice/services/partner"
	"ablecloud-backoffice/services/product"
	"ablecloud-backoffice/services/support"
	"ablecloud-backoffice/services/visibility"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		sequence.Module,
		fx.Provide(
			provideSnowflakeNode,
		),
		server.ProvideHTTPServer,
		health.Module,
		identity.Module,
		visibility.Module,
		partner.Module,
		customer.Module,
		product.Module,
		support.Module,
		credit.Module,
		license.Module,
		business.Module,
		bootstrap.Module,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
