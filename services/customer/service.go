package customer

import (
	"context"

	"ablecloud-backoffice/pkg/db/option"
	"ablecloud-backoffice/pkg/db/pagination"
	"ablecloud-backoffice/pkg/errutil"
	"ablecloud-backoffice/pkg/repository"
	"ablecloud-backoffice/services/visibility"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	resolver *visibility.Resolver
	repo     repository.Repository[Customer]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Resolver *visibility.Resolver
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		resolver: p.Resolver,
		repo:     repository.ProvideStore[Customer](p.DB),
	}
}

type CreateInput struct {
	Name      string `json:"name"`
	ManagerID string `json:"manager_id"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Create stores a customer under the manager's owning company so partner
// users only ever see their own customers.
func (s *Service) Create(ctx context.Context, input CreateInput) (*Customer, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if input.Name == "" {
		return nil, errutil.ValidationFailed("customer name is required", nil)
	}
	if input.ManagerID == "" {
		return nil, errutil.ValidationFailed("customer manager is required", nil)
	}

	companyID, err := s.resolver.OwningCompany(ctx, input.ManagerID)
	if err != nil {
		return nil, err
	}

	record := &Customer{
		ID:        s.node.Generate().String(),
		Name:      input.Name,
		CompanyID: companyID,
		ManagerID: input.ManagerID,
		Email:     input.Email,
		Phone:     input.Phone,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		zapLog.Error("failed to create customer", zap.Error(err))
		return nil, errutil.Internal("failed to create customer", err)
	}

	return record, nil
}

func (s *Service) Get(ctx context.Context, filter visibility.Filter, id string) (*Customer, error) {
	record, err := s.repo.FindOne(ctx, &Customer{ID: id}, filter.Scope("company_id"))
	if err != nil {
		return nil, errutil.Internal("failed to get customer", err)
	}
	if record == nil {
		return nil, errutil.NotFound("customer not found", nil)
	}
	return record, nil
}

func (s *Service) List(ctx context.Context, filter visibility.Filter, page pagination.Pagination) ([]*Customer, error) {
	records, err := s.repo.Find(ctx, &Customer{},
		filter.Scope("company_id"),
		option.ApplyPagination(page),
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
			Allow:   map[string]bool{"created_at": true},
		}),
	)
	if err != nil {
		return nil, errutil.Internal("failed to list customers", err)
	}
	return records, nil
}
