package support

import (
	"context"

	"ablecloud-backoffice/pkg/db/option"
	"ablecloud-backoffice/pkg/db/pagination"
	"ablecloud-backoffice/pkg/errutil"
	"ablecloud-backoffice/pkg/repository"
	"ablecloud-backoffice/pkg/sequence"
	"ablecloud-backoffice/services/customer"
	"ablecloud-backoffice/services/visibility"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	sequence  sequence.Generator
	repo      repository.Repository[Ticket]
	customers repository.Repository[customer.Customer]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Sequence sequence.Generator
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		sequence:  p.Sequence,
		repo:      repository.ProvideStore[Ticket](p.DB),
		customers: repository.ProvideStore[customer.Customer](p.DB),
	}
}

type CreateInput struct {
	Subject    string `json:"subject"`
	Body       string `json:"body"`
	CustomerID string `json:"customer_id"`
	AuthorID   string `json:"author_id"`
}

// Create opens a ticket against a customer the caller can see. The ticket
// inherits the customer's owning company.
func (s *Service) Create(ctx context.Context, filter visibility.Filter, input CreateInput) (*Ticket, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if input.Subject == "" {
		return nil, errutil.ValidationFailed("ticket subject is required", nil)
	}

	cust, err := s.customers.FindOne(ctx, &customer.Customer{ID: input.CustomerID}, filter.Scope("company_id"))
	if err != nil {
		return nil, errutil.Internal("failed to get customer", err)
	}
	if cust == nil {
		return nil, errutil.NotFound("customer not found", nil)
	}

	code, err := s.sequence.NextTicketCode(ctx)
	if err != nil {
		zapLog.Error("failed to generate ticket code", zap.Error(err))
		return nil, errutil.Internal("failed to generate ticket code", err)
	}

	record := &Ticket{
		ID:         s.node.Generate().String(),
		Code:       code,
		Subject:    input.Subject,
		Body:       input.Body,
		Status:     StatusOpen,
		CustomerID: cust.ID,
		CompanyID:  cust.CompanyID,
		AuthorID:   input.AuthorID,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		zapLog.Error("failed to create ticket", zap.Error(err))
		return nil, errutil.Internal("failed to create ticket", err)
	}

	return record, nil
}

// UpdateStatus moves a ticket through open -> answered -> closed. Any of the
// three states may be set directly; the flow is advisory, not enforced.
func (s *Service) UpdateStatus(ctx context.Context, filter visibility.Filter, id string, status Status) (*Ticket, error) {
	if !status.Valid() {
		return nil, errutil.ValidationFailed("unknown ticket status", nil)
	}

	record, err := s.Get(ctx, filter, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, record.ID, map[string]any{"status": status}); err != nil {
		return nil, errutil.Internal("failed to update ticket", err)
	}

	record.Status = status
	return record, nil
}

func (s *Service) Get(ctx context.Context, filter visibility.Filter, id string) (*Ticket, error) {
	record, err := s.repo.FindOne(ctx, &Ticket{ID: id}, filter.Scope("company_id"))
	if err != nil {
		return nil, errutil.Internal("failed to get ticket", err)
	}
	if record == nil {
		return nil, errutil.NotFound("ticket not found", nil)
	}
	return record, nil
}

func (s *Service) List(ctx context.Context, filter visibility.Filter, page pagination.Pagination) ([]*Ticket, error) {
	records, err := s.repo.Find(ctx, &Ticket{},
		filter.Scope("company_id"),
		option.ApplyPagination(page),
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
			Allow:   map[string]bool{"created_at": true},
		}),
	)
	if err != nil {
		return nil, errutil.Internal("failed to list tickets", err)
	}
	return records, nil
}
