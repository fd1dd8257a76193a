package partner

import (
	"context"
	"encoding/json"

	"ablecloud-backoffice/pkg/db/option"
	"ablecloud-backoffice/pkg/db/pagination"
	"ablecloud-backoffice/pkg/errutil"
	"ablecloud-backoffice/pkg/repository"
	"ablecloud-backoffice/services/visibility"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	repo repository.Repository[Partner]
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
		repo: repository.ProvideStore[Partner](p.DB),
	}
}

type CreateInput struct {
	Name       string   `json:"name"`
	Tier       Tier     `json:"tier"`
	Categories []string `json:"categories"`
	Email      string   `json:"email"`
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*Partner, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if input.Name == "" {
		return nil, errutil.ValidationFailed("partner name is required", nil)
	}
	if !input.Tier.Valid() {
		return nil, errutil.ValidationFailed("unknown partner tier", nil)
	}

	slugName := slug.Make(input.Name)
	exist, err := s.repo.FindOne(ctx, &Partner{Slug: slugName})
	if err != nil {
		zapLog.Error("failed query get partner by slug", zap.Error(err))
		return nil, errutil.Internal("failed to check existing partner", err)
	}
	if exist != nil {
		return nil, errutil.Conflict("a partner with this name already exists", nil)
	}

	categories, _ := json.Marshal(input.Categories)

	record := &Partner{
		ID:         s.node.Generate().String(),
		Name:       input.Name,
		Slug:       slugName,
		Tier:       input.Tier,
		Categories: datatypes.JSON(categories),
		Email:      input.Email,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		zapLog.Error("failed to create partner", zap.Error(err))
		return nil, errutil.Internal("failed to create partner", err)
	}

	return record, nil
}

func (s *Service) Get(ctx context.Context, filter visibility.Filter, id string) (*Partner, error) {
	record, err := s.repo.FindOne(ctx, &Partner{ID: id}, filter.Scope("id"))
	if err != nil {
		return nil, errutil.Internal("failed to get partner", err)
	}
	if record == nil {
		return nil, errutil.NotFound("partner not found", nil)
	}
	return record, nil
}

func (s *Service) List(ctx context.Context, filter visibility.Filter, page pagination.Pagination) ([]*Partner, error) {
	records, err := s.repo.Find(ctx, &Partner{},
		filter.Scope("id"),
		option.ApplyPagination(page),
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
			Allow:   map[string]bool{"created_at": true},
		}),
	)
	if err != nil {
		return nil, errutil.Internal("failed to list partners", err)
	}
	return records, nil
}
