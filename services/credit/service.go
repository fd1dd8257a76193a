package credit

import (
	"context"
	"time"

	"ablecloud-backoffice/pkg/db/option"
	"ablecloud-backoffice/pkg/errutil"
	"ablecloud-backoffice/pkg/repository"

	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service is the credit ledger. It computes partner balances as a projection
// over live entries and records deposits and consumptions. Consumption
// writes (Reserve, Release) run inside a caller-owned transaction so the
// coordinator can tie them to business mutations atomically.
type Service struct {
	db   *gorm.DB
	node *snowflake.Node
	repo repository.Repository[Entry]
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
		repo: repository.ProvideStore[Entry](p.DB),
	}
}

// Balance aggregates a partner's live entries. A partner with no entries has
// a zero balance, not an error.
func (s *Service) Balance(ctx context.Context, partnerID string) (*Balance, error) {
	return s.balance(ctx, s.db, partnerID, nil)
}

func (s *Service) balance(ctx context.Context, tx *gorm.DB, partnerID string, excludeEntryID *string) (*Balance, error) {
	var sums struct {
		Deposit int64
		Credit  int64
	}

	q := tx.WithContext(ctx).Model(&Entry{}).
		Select("COALESCE(SUM(deposit), 0) AS deposit, COALESCE(SUM(credit), 0) AS credit").
		Where("partner_id = ?", partnerID)
	if excludeEntryID != nil {
		q = q.Where("id <> ?", *excludeEntryID)
	}

	if err := q.Scan(&sums).Error; err != nil {
		return nil, errutil.Internal("failed to compute credit balance", err)
	}

	return &Balance{
		Deposit:   sums.Deposit,
		Credit:    sums.Credit,
		Available: sums.Deposit - sums.Credit,
	}, nil
}

// Deposit records an administrative credit grant for a partner.
func (s *Service) Deposit(ctx context.Context, partnerID string, amount int64, note string) (*Entry, error) {
	span := trace.SpanFromContext(ctx)
	zapLog := zap.L().With(
		zap.String("trace_id", span.SpanContext().TraceID().String()),
		zap.String("span_id", span.SpanContext().SpanID().String()),
	)

	if partnerID == "" {
		return nil, errutil.ValidationFailed("partner is required", nil)
	}
	if amount <= 0 {
		return nil, errutil.ValidationFailed("deposit amount must be positive", nil)
	}

	entry := &Entry{
		ID:        s.node.Generate().String(),
		PartnerID: partnerID,
		Deposit:   &amount,
		Note:      note,
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		zapLog.Error("failed to create deposit entry", zap.Error(err))
		return nil, errutil.Internal("failed to record deposit", err)
	}

	return entry, nil
}

// Reserve validates that amount fits the partner's available balance and
// records the consumption, updating existingEntryID in place when the
// caller is re-editing a business. The availability check excludes the
// entry being replaced, so it is made against the would-be balance.
//
// The caller's transaction must span the whole business mutation; Reserve
// locks the partner's ledger rows for its duration so concurrent
// reservations serialize instead of both passing a stale check.
func (s *Service) Reserve(ctx context.Context, tx *gorm.DB, partnerID, businessID string, amount int64, existingEntryID *string) (*Entry, error) {
	if partnerID == "" {
		return nil, errutil.ValidationFailed("partner is required", nil)
	}
	if amount < 0 {
		return nil, errutil.ValidationFailed("reservation amount must not be negative", nil)
	}

	repo := s.repo.WithTrx(tx)

	// Lock every live row of the partner's ledger before summing, so the
	// balance cannot move under us until the transaction commits.
	if _, err := repo.Find(ctx, &Entry{PartnerID: partnerID}, option.WithLockingUpdate()); err != nil {
		return nil, errutil.Internal("failed to lock credit entries", err)
	}

	bal, err := s.balance(ctx, tx, partnerID, existingEntryID)
	if err != nil {
		return nil, err
	}

	if amount > bal.Available {
		return nil, &InsufficientCreditError{Available: bal.Available, Requested: amount}
	}

	if existingEntryID != nil {
		existing, err := repo.FindOne(ctx, &Entry{ID: *existingEntryID})
		if err != nil {
			return nil, errutil.Internal("failed to get consumption entry", err)
		}
		if existing != nil {
			updates := map[string]any{
				"credit":      amount,
				"business_id": businessID,
				"updated_at":  time.Now(),
			}
			if err := repo.Update(ctx, existing.ID, updates); err != nil {
				return nil, errutil.Internal("failed to update consumption entry", err)
			}
			existing.Credit = &amount
			existing.BusinessID = &businessID
			return existing, nil
		}
	}

	entry := &Entry{
		ID:         s.node.Generate().String(),
		PartnerID:  partnerID,
		BusinessID: &businessID,
		Credit:     &amount,
		Note:       "core count reservation",
	}

	if err := repo.Create(ctx, entry); err != nil {
		return nil, errutil.Internal("failed to create consumption entry", err)
	}

	return entry, nil
}

// Release retires a consumption entry. Releasing an already-released entry
// is a no-op.
func (s *Service) Release(ctx context.Context, tx *gorm.DB, entryID string) error {
	if err := s.repo.WithTrx(tx).Delete(ctx, entryID); err != nil {
		return errutil.Internal("failed to release consumption entry", err)
	}
	return nil
}

// ConsumptionFor is the live consumption entry attributed to a business,
// nil when none exists.
func (s *Service) ConsumptionFor(ctx context.Context, tx *gorm.DB, businessID string) (*Entry, error) {
	entry, err := s.repo.WithTrx(tx).FindOne(ctx, &Entry{},
		option.ApplyOperator(
			option.Condition{Field: "business_id", Operator: option.EQ, Value: businessID},
			option.Condition{Field: "credit", Operator: option.NotNull},
		),
	)
	if err != nil {
		return nil, errutil.Internal("failed to get consumption entry", err)
	}
	return entry, nil
}

// Entries lists a partner's live ledger rows, newest first.
func (s *Service) Entries(ctx context.Context, partnerID string) ([]*Entry, error) {
	entries, err := s.repo.Find(ctx, &Entry{PartnerID: partnerID},
		option.WithSortBy(option.QuerySortBy{
			SortBy:  "created_at",
			OrderBy: "desc",
			Allow:   map[string]bool{"created_at": true},
		}),
	)
	if err != nil {
		return nil, errutil.Internal("failed to list credit entries", err)
	}
	return entries, nil
}
