package bootstrap

import (
	"context"

	"ablecloud-backoffice/pkg/config"
	"ablecloud-backoffice/pkg/repository"
	"ablecloud-backoffice/services/business"
	"ablecloud-backoffice/services/credit"
	"ablecloud-backoffice/services/customer"
	"ablecloud-backoffice/services/license"
	"ablecloud-backoffice/services/partner"
	"ablecloud-backoffice/services/product"
	"ablecloud-backoffice/services/support"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db     *gorm.DB
	node   *snowflake.Node
	config *config.Config
	repo   repository.Repository[product.Product]
}

type ServiceParams struct {
	fx.In
	DB     *gorm.DB
	Node   *snowflake.Node
	Config *config.Config
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:     p.DB,
		node:   p.Node,
		config: p.Config,
		repo:   repository.ProvideStore[product.Product](p.DB),
	}
}

// Migrate creates or updates every table the back office owns and seeds the
// default catalog entry the admin UI expects on a fresh install.
func (s *Service) Migrate() error {
	ctx := context.Background()

	if err := s.db.AutoMigrate(
		&partner.Partner{},
		&customer.Customer{},
		&product.Product{},
		&support.Ticket{},
		&credit.Entry{},
		&license.License{},
		&business.Business{},
	); err != nil {
		zap.L().Error("[bootstrap] failed to migrate schema", zap.Error(err))
		return err
	}

	catalog := s.config.Catalog
	if catalog.ProductName == "" {
		zap.L().Info("[bootstrap] no default product configured, skipping seed")
		return nil
	}

	exist, err := s.repo.FindOne(ctx, &product.Product{Name: catalog.ProductName, Version: catalog.ProductVersion})
	if err != nil {
		zap.L().Error("[bootstrap] failed to check default product", zap.Error(err))
		return err
	}
	if exist != nil {
		zap.L().Info("[bootstrap] default product already exists", zap.String("product_name", catalog.ProductName))
		return nil
	}

	record := &product.Product{
		ID:       s.node.Generate().String(),
		Name:     catalog.ProductName,
		Category: catalog.ProductCategory,
		Version:  catalog.ProductVersion,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		zap.L().Error("[bootstrap] failed to seed default product", zap.Error(err))
		return err
	}

	zap.L().Info("[bootstrap] seeded default product", zap.String("product_id", record.ID))
	return nil
}
