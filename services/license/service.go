package license

import (
	"context"
	"time"

	"ablecloud-backoffice/pkg/db/option"
	"ablecloud-backoffice/pkg/db/pagination"
	"ablecloud-backoffice/pkg/errutil"
	"ablecloud-backoffice/pkg/repository"
	"ablecloud-backoffice/services/visibility"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service governs the license lifecycle: issue (inactive), approve
// (active), revoke (tombstone). Linking a license to a business is the
// business coordinator's job, never done here.
type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	repo repository.Repository[License]
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
		repo: repository.ProvideStore[License](p.DB),
	}
}

type IssueInput struct {
	Issued    time.Time `json:"issued"`
	Expired   time.Time `json:"expired"`
	Permanent bool      `json:"permanent"`
	Trial     bool      `json:"trial"`
	OEM       *string   `json:"oem,omitempty"`
	CompanyID *string   `json:"company_id,omitempty"`
	IssuedBy  string    `json:"issued_by"`
}

// truncateDate drops the time component; issued/expired are calendar dates.
func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Issue creates an inactive license with a freshly generated key. A trial
// license expires one calendar month after issue; a permanent license
// carries the far-future sentinel date.
func (s *Service) Issue(ctx context.Context, input IssueInput) (*License, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	issued := truncateDate(input.Issued)
	if issued.IsZero() {
		issued = truncateDate(time.Now().UTC())
	}

	expired := truncateDate(input.Expired)
	switch {
	case input.Trial:
		expired = issued.AddDate(0, 1, 0)
	case input.Permanent:
		expired = PermanentExpiry
	}

	if issued.After(expired) {
		return nil, &InvalidDateRangeError{Issued: issued, Expired: expired}
	}

	record := &License{
		ID:         s.node.Generate().String(),
		LicenseKey: uuid.NewString(),
		Issued:     issued,
		Expired:    expired,
		Status:     StatusInactive,
		CompanyID:  input.CompanyID,
		IssuedBy:   input.IssuedBy,
		Trial:      input.Trial,
		OEM:        input.OEM,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		zapLog.Error("failed to create license", zap.Error(err))
		return nil, errutil.Internal("failed to issue license", err)
	}

	return record, nil
}

// Approve activates a license and stamps who approved it. Approving an
// already-active license re-stamps the approver rather than failing; the
// admin UI relies on that when a different operator re-confirms.
func (s *Service) Approve(ctx context.Context, id, approvingUser string) (*License, error) {
	if approvingUser == "" {
		return nil, errutil.ValidationFailed("approving user is required", nil)
	}

	record, err := s.repo.FindOne(ctx, &License{ID: id})
	if err != nil {
		return nil, errutil.Internal("failed to get license", err)
	}
	if record == nil {
		return nil, errutil.NotFound("license not found", nil)
	}

	now := time.Now().UTC()
	updates := map[string]any{
		"status":       StatusActive,
		"approve_user": approvingUser,
		"approved":     now,
	}
	if err := s.repo.Update(ctx, record.ID, updates); err != nil {
		return nil, errutil.Internal("failed to approve license", err)
	}

	record.Status = StatusActive
	record.ApproveUser = &approvingUser
	record.Approved = &now
	return record, nil
}

// Revoke tombstones a license inside the caller's transaction. Only the
// business coordinator calls this, after clearing any business pointer, so
// no business is ever left pointing at a removed license.
func (s *Service) Revoke(ctx context.Context, tx *gorm.DB, id string) error {
	record, err := s.repo.WithTrx(tx).FindOne(ctx, &License{ID: id})
	if err != nil {
		return errutil.Internal("failed to get license", err)
	}
	if record == nil {
		return errutil.NotFound("license not found", nil)
	}

	if err := s.repo.WithTrx(tx).Delete(ctx, id); err != nil {
		return errutil.Internal("failed to revoke license", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, filter visibility.Filter, id string) (*License, error) {
	record, err := s.repo.FindOne(ctx, &License{ID: id}, filter.Scope("company_id"))
	if err != nil {
		return nil, errutil.Internal("failed to get license", err)
	}
	if record == nil {
		return nil, errutil.NotFound("license not found", nil)
	}
	return record, nil
}

// Find is the unscoped lookup the business coordinator uses inside its
// transactions; nil when the license does not exist or is removed.
func (s *Service) Find(ctx context.Context, tx *gorm.DB, id string) (*License, error) {
	record, err := s.repo.WithTrx(tx).FindOne(ctx, &License{ID: id})
	if err != nil {
		return nil, errutil.Internal("failed to get license", err)
	}
	return record, nil
}

func (s *Service) List(ctx context.Context, filter visibility.Filter, page pagination.Pagination) ([]*License, error) {
	records, err := s.repo.Find(ctx, &License{},
		filter.Scope("company_id"),
		option.ApplyPagination(page),
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
			Allow:   map[string]bool{"created_at": true},
		}),
	)
	if err != nil {
		return nil, errutil.Internal("failed to list licenses", err)
	}
	return records, nil
}
