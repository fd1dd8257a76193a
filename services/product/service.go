package product

import (
	"context"

	"ablecloud-backoffice/pkg/db/option"
	"ablecloud-backoffice/pkg/db/pagination"
	"ablecloud-backoffice/pkg/errutil"
	"ablecloud-backoffice/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service manages the vendor product catalog. Products carry no owning
// company; every caller sees the full catalog.
type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	repo repository.Repository[Product]
}

type ServiceParams struct {
	fx.In
	DB   *gorm.DB
	Node *snowflake.Node
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:   p.DB,
		node: p.Node,
		repo: repository.ProvideStore[Product](p.DB),
	}
}

type CreateInput struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Version  string `json:"version"`
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*Product, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if input.Name == "" {
		return nil, errutil.ValidationFailed("product name is required", nil)
	}

	exist, err := s.repo.FindOne(ctx, &Product{Name: input.Name, Version: input.Version})
	if err != nil {
		zapLog.Error("failed query get product", zap.Error(err))
		return nil, errutil.Internal("failed to check existing product", err)
	}
	if exist != nil {
		return nil, errutil.Conflict("this product version already exists", nil)
	}

	record := &Product{
		ID:       s.node.Generate().String(),
		Name:     input.Name,
		Category: input.Category,
		Version:  input.Version,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		zapLog.Error("failed to create product", zap.Error(err))
		return nil, errutil.Internal("failed to create product", err)
	}

	return record, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	record, err := s.repo.FindOne(ctx, &Product{ID: id})
	if err != nil {
		return nil, errutil.Internal("failed to get product", err)
	}
	if record == nil {
		return nil, errutil.NotFound("product not found", nil)
	}
	return record, nil
}

func (s *Service) List(ctx context.Context, page pagination.Pagination) ([]*Product, error) {
	records, err := s.repo.Find(ctx, &Product{},
		option.ApplyPagination(page),
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
			Allow:   map[string]bool{"created_at": true},
		}),
	)
	if err != nil {
		return nil, errutil.Internal("failed to list products", err)
	}
	return records, nil
}
