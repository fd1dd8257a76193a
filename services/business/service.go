package business

import (
	"context"
	"time"

	"ablecloud-backoffice/pkg/db/option"
	"ablecloud-backoffice/pkg/db/pagination"
	"ablecloud-backoffice/pkg/errutil"
	"ablecloud-backoffice/pkg/repository"
	"ablecloud-backoffice/pkg/sequence"
	"ablecloud-backoffice/services/credit"
	"ablecloud-backoffice/services/license"
	"ablecloud-backoffice/services/visibility"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service coordinates every mutation that touches more than one of
// business, license, and credit. Each method runs inside a single
// transaction so the three tables can never disagree: a business's
// license_id always points at a live license or is null, and a deleted
// business never leaves a live credit consumption behind. No other code
// path writes business.license_id, license status, or credit rows.
type Service struct {
	db       *gorm.DB
	node     *snowflake.Node
	resolver *visibility.Resolver
	sequence sequence.Generator
	credits  *credit.Service
	licenses *license.Service
	repo     repository.Repository[Business]
}

type ServiceParams struct {
	fx.In
	DB       *gorm.DB
	Node     *snowflake.Node
	Resolver *visibility.Resolver
	Sequence sequence.Generator
	Credits  *credit.Service
	Licenses *license.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:       p.DB,
		node:     p.Node,
		resolver: p.Resolver,
		sequence: p.Sequence,
		credits:  p.Credits,
		licenses: p.Licenses,
		repo:     repository.ProvideStore[Business](p.DB),
	}
}

type CreateInput struct {
	Name       string    `json:"name"`
	Status     Status    `json:"status"`
	Issued     time.Time `json:"issued"`
	Expired    time.Time `json:"expired"`
	CoreCnt    int64     `json:"core_cnt"`
	NodeCnt    int64     `json:"node_cnt"`
	CustomerID string    `json:"customer_id"`
	ManagerID  string    `json:"manager_id"`
	ProductID  string    `json:"product_id"`
	DepositUse bool      `json:"deposit_use"`
	Details    string    `json:"details"`
}

func validateBasics(name string, status *Status, issued, expired time.Time, coreCnt, nodeCnt int64) error {
	if name == "" {
		return errutil.ValidationFailed("business name is required", nil)
	}
	if *status == "" {
		*status = StatusStandby
	}
	if !status.Valid() {
		return errutil.ValidationFailed("unknown business status", nil)
	}
	if coreCnt < 0 || nodeCnt < 0 {
		return errutil.ValidationFailed("core and node counts must not be negative", nil)
	}
	if !issued.IsZero() && !expired.IsZero() && issued.After(expired) {
		return errutil.ValidationFailed("invalid date range: issued is after expired", nil)
	}
	return nil
}

func (in *CreateInput) validate() error {
	if err := validateBasics(in.Name, &in.Status, in.Issued, in.Expired, in.CoreCnt, in.NodeCnt); err != nil {
		return err
	}
	if in.ManagerID == "" {
		return errutil.ValidationFailed("business manager is required", nil)
	}
	return nil
}

// CreateBusiness creates the business and, when deposit_use is set, funds
// its core count from the managing partner's credit. The reservation runs
// before the row is persisted, inside the same transaction, so a failed
// reservation never leaves an orphan business behind.
func (s *Service) CreateBusiness(ctx context.Context, input CreateInput) (*Business, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if err := input.validate(); err != nil {
		return nil, err
	}

	companyID, err := s.resolver.OwningCompany(ctx, input.ManagerID)
	if err != nil {
		return nil, err
	}

	if input.DepositUse && companyID == "" {
		return nil, errutil.Conflict("deposit use requires a partner-managed business", nil)
	}

	code, err := s.sequence.NextBusinessCode(ctx)
	if err != nil {
		zapLog.Error("failed to generate business code", zap.Error(err))
		return nil, errutil.Internal("failed to generate business code", err)
	}

	record := &Business{
		ID:         s.node.Generate().String(),
		Code:       code,
		Name:       input.Name,
		Status:     input.Status,
		Issued:     input.Issued,
		Expired:    input.Expired,
		CoreCnt:    input.CoreCnt,
		NodeCnt:    input.NodeCnt,
		CustomerID: input.CustomerID,
		ManagerID:  input.ManagerID,
		ProductID:  input.ProductID,
		CompanyID:  companyID,
		DepositUse: input.DepositUse,
		Details:    input.Details,
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if input.DepositUse {
			if _, err := s.credits.Reserve(ctx, tx, companyID, record.ID, input.CoreCnt, nil); err != nil {
				return err
			}
		}
		return s.repo.WithTrx(tx).Create(ctx, record)
	}); err != nil {
		zapLog.Warn("create business rolled back", zap.Error(err))
		return nil, err
	}

	return record, nil
}

type UpdateInput struct {
	Name       string    `json:"name"`
	Status     Status    `json:"status"`
	Issued     time.Time `json:"issued"`
	Expired    time.Time `json:"expired"`
	CoreCnt    int64     `json:"core_cnt"`
	NodeCnt    int64     `json:"node_cnt"`
	ProductID  string    `json:"product_id"`
	DepositUse bool      `json:"deposit_use"`
	Details    string    `json:"details"`
}

// UpdateBusiness edits a business and keeps its credit consumption in step:
// a deposit-funded business re-reserves against the balance as if its old
// consumption were returned, and turning deposit use off releases the entry.
func (s *Service) UpdateBusiness(ctx context.Context, filter visibility.Filter, id string, input UpdateInput) (*Business, error) {
	if err := validateBasics(input.Name, &input.Status, input.Issued, input.Expired, input.CoreCnt, input.NodeCnt); err != nil {
		return nil, err
	}

	var record *Business
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		record, err = s.find(ctx, tx, filter, id, option.WithLockingUpdate())
		if err != nil {
			return err
		}

		entry, err := s.credits.ConsumptionFor(ctx, tx, record.ID)
		if err != nil {
			return err
		}

		switch {
		case input.DepositUse:
			if record.CompanyID == "" {
				return errutil.Conflict("deposit use requires a partner-managed business", nil)
			}
			var existingEntryID *string
			if entry != nil {
				existingEntryID = &entry.ID
			}
			if _, err := s.credits.Reserve(ctx, tx, record.CompanyID, record.ID, input.CoreCnt, existingEntryID); err != nil {
				return err
			}
		case entry != nil:
			if err := s.credits.Release(ctx, tx, entry.ID); err != nil {
				return err
			}
		}

		updates := map[string]any{
			"name":        input.Name,
			"status":      input.Status,
			"issued":      input.Issued,
			"expired":     input.Expired,
			"core_cnt":    input.CoreCnt,
			"node_cnt":    input.NodeCnt,
			"deposit_use": input.DepositUse,
			"details":     input.Details,
		}
		if input.ProductID != "" {
			updates["product_id"] = input.ProductID
		}
		return s.repo.WithTrx(tx).Update(ctx, record.ID, updates)
	}); err != nil {
		return nil, err
	}

	return s.Get(ctx, filter, id)
}

// DeleteBusiness tombstones a business. The license pointer must already be
// cleared; any live credit consumption is released in the same transaction.
func (s *Service) DeleteBusiness(ctx context.Context, filter visibility.Filter, id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		record, err := s.find(ctx, tx, filter, id, option.WithLockingUpdate())
		if err != nil {
			return err
		}

		if record.LicenseID != nil {
			return &ConflictingLicenseError{BusinessID: record.ID, LicenseID: *record.LicenseID}
		}

		entry, err := s.credits.ConsumptionFor(ctx, tx, record.ID)
		if err != nil {
			return err
		}
		if entry != nil {
			if err := s.credits.Release(ctx, tx, entry.ID); err != nil {
				return err
			}
		}

		if err := s.repo.WithTrx(tx).Delete(ctx, record.ID); err != nil {
			return errutil.Internal("failed to delete business", err)
		}
		return nil
	})
}

// RegisterLicense links a license to a business after confirming the
// license is live and not already bound to another live business.
func (s *Service) RegisterLicense(ctx context.Context, filter visibility.Filter, businessID, licenseID string) (*Business, error) {
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		record, err := s.find(ctx, tx, filter, businessID, option.WithLockingUpdate())
		if err != nil {
			return err
		}

		if record.LicenseID != nil && *record.LicenseID != licenseID {
			return &ConflictingLicenseError{BusinessID: record.ID, LicenseID: *record.LicenseID}
		}

		lic, err := s.licenses.Find(ctx, tx, licenseID)
		if err != nil {
			return err
		}
		if lic == nil {
			return errutil.NotFound("license not found", nil)
		}

		holder, err := s.repo.WithTrx(tx).FindOne(ctx, &Business{},
			option.ApplyOperator(option.Condition{Field: "license_id", Operator: option.EQ, Value: licenseID}),
		)
		if err != nil {
			return errutil.Internal("failed to check license linkage", err)
		}
		if holder != nil && holder.ID != record.ID {
			return &ConflictingLicenseError{BusinessID: holder.ID, LicenseID: licenseID}
		}

		return s.repo.WithTrx(tx).Update(ctx, record.ID, map[string]any{"license_id": licenseID})
	}); err != nil {
		return nil, err
	}

	return s.Get(ctx, filter, businessID)
}

// UnregisterLicense detaches a business's license without revoking it. The
// license survives as an orphan and may be linked to another business later.
func (s *Service) UnregisterLicense(ctx context.Context, filter visibility.Filter, businessID string) (*Business, error) {
	if err := s.db.Transaction(func(tx *gorm.DB) error {
		record, err := s.find(ctx, tx, filter, businessID, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if record.LicenseID == nil {
			return nil
		}
		return s.repo.WithTrx(tx).Update(ctx, record.ID, map[string]any{"license_id": nil})
	}); err != nil {
		return nil, err
	}

	return s.Get(ctx, filter, businessID)
}

// DeleteLicense revokes a license, clearing the pointer of any business
// holding it first, in the same transaction. There is never a window where
// a business points at a removed license.
func (s *Service) DeleteLicense(ctx context.Context, licenseID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		holder, err := s.repo.WithTrx(tx).FindOne(ctx, &Business{},
			option.ApplyOperator(option.Condition{Field: "license_id", Operator: option.EQ, Value: licenseID}),
			option.WithLockingUpdate(),
		)
		if err != nil {
			return errutil.Internal("failed to check license linkage", err)
		}

		if holder != nil {
			if err := s.repo.WithTrx(tx).Update(ctx, holder.ID, map[string]any{"license_id": nil}); err != nil {
				return errutil.Internal("failed to detach license", err)
			}
		}

		return s.licenses.Revoke(ctx, tx, licenseID)
	})
}

func (s *Service) find(ctx context.Context, tx *gorm.DB, filter visibility.Filter, id string, opts ...option.QueryOption) (*Business, error) {
	opts = append([]option.QueryOption{filter.Scope("company_id")}, opts...)
	record, err := s.repo.WithTrx(tx).FindOne(ctx, &Business{ID: id}, opts...)
	if err != nil {
		return nil, errutil.Internal("failed to get business", err)
	}
	if record == nil {
		return nil, errutil.NotFound("business not found", nil)
	}
	return record, nil
}

func (s *Service) Get(ctx context.Context, filter visibility.Filter, id string) (*Business, error) {
	return s.find(ctx, s.db, filter, id)
}

func (s *Service) List(ctx context.Context, filter visibility.Filter, page pagination.Pagination) ([]*Business, error) {
	records, err := s.repo.Find(ctx, &Business{},
		filter.Scope("company_id"),
		option.ApplyPagination(page),
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
			Allow:   map[string]bool{"created_at": true},
		}),
	)
	if err != nil {
		return nil, errutil.Internal("failed to list businesses", err)
	}
	return records, nil
}
