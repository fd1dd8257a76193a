package credit

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ablecloud-backoffice/pkg/errutil"
	"ablecloud-backoffice/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	db := testutil.NewTestDB(t, &Entry{})
	return NewService(ServiceParams{DB: db, Node: node})
}

func TestBalanceEmptyLedger(t *testing.T) {
	svc := newTestService(t)

	bal, err := svc.Balance(context.Background(), "partner-1")
	require.NoError(t, err)
	require.Equal(t, int64(0), bal.Deposit)
	require.Equal(t, int64(0), bal.Credit)
	require.Equal(t, int64(0), bal.Available)
}

func TestBalanceMatchesEntries(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, "partner-1", 10, "initial grant")
	require.NoError(t, err)

	err = svc.db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Reserve(ctx, tx, "partner-1", "biz-1", 3, nil)
		return err
	})
	require.NoError(t, err)

	bal, err := svc.Balance(ctx, "partner-1")
	require.NoError(t, err)
	require.Equal(t, int64(10), bal.Deposit)
	require.Equal(t, int64(3), bal.Credit)
	require.Equal(t, int64(7), bal.Available)
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Deposit(context.Background(), "partner-1", 0, "")
	require.Error(t, err)

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusValidationFailed, be.Status())
}

func TestReserveInsufficientCreditLeavesBalance(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, "partner-1", 10, "")
	require.NoError(t, err)

	err = svc.db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Reserve(ctx, tx, "partner-1", "biz-1", 3, nil)
		return err
	})
	require.NoError(t, err)

	// available is 7; asking for 8 must fail and carry both amounts.
	err = svc.db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Reserve(ctx, tx, "partner-1", "biz-2", 8, nil)
		return err
	})
	require.Error(t, err)

	var ice *InsufficientCreditError
	require.True(t, errors.As(err, &ice))
	require.Equal(t, int64(7), ice.Available)
	require.Equal(t, int64(8), ice.Requested)
	require.Equal(t, errutil.StatusUnprocessableEntity, ice.Status())

	bal, err := svc.Balance(ctx, "partner-1")
	require.NoError(t, err)
	require.Equal(t, int64(7), bal.Available)
}

func TestReserveReEditExcludesExistingEntry(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, "partner-1", 10, "")
	require.NoError(t, err)

	err = svc.db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Reserve(ctx, tx, "partner-1", "biz-other", 3, nil)
		return err
	})
	require.NoError(t, err)

	var reserved *Entry
	err = svc.db.Transaction(func(tx *gorm.DB) error {
		var err error
		reserved, err = svc.Reserve(ctx, tx, "partner-1", "biz-1", 5, nil)
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, reserved)

	// Re-editing biz-1 to consume 9 must validate against the would-be
	// balance (7 with the old 5 returned), so it fails...
	err = svc.db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Reserve(ctx, tx, "partner-1", "biz-1", 9, &reserved.ID)
		return err
	})
	var ice *InsufficientCreditError
	require.True(t, errors.As(err, &ice))

	// ...while 6 fits and leaves available = 1.
	err = svc.db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Reserve(ctx, tx, "partner-1", "biz-1", 6, &reserved.ID)
		return err
	})
	require.NoError(t, err)

	bal, err := svc.Balance(ctx, "partner-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), bal.Available)

	// The re-edit updated the existing row rather than stacking a second
	// consumption for the same business.
	consumption, err := svc.ConsumptionFor(ctx, svc.db, "biz-1")
	require.NoError(t, err)
	require.NotNil(t, consumption)
	require.Equal(t, reserved.ID, consumption.ID)
	require.Equal(t, int64(6), *consumption.Credit)
}

func TestReleaseIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, "partner-1", 10, "")
	require.NoError(t, err)

	var entry *Entry
	err = svc.db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = svc.Reserve(ctx, tx, "partner-1", "biz-1", 4, nil)
		return err
	})
	require.NoError(t, err)

	require.NoError(t, svc.Release(ctx, svc.db, entry.ID))

	bal, err := svc.Balance(ctx, "partner-1")
	require.NoError(t, err)
	require.Equal(t, int64(10), bal.Available)

	// Releasing again is a no-op, not an error, and the balance holds.
	require.NoError(t, svc.Release(ctx, svc.db, entry.ID))

	bal, err = svc.Balance(ctx, "partner-1")
	require.NoError(t, err)
	require.Equal(t, int64(10), bal.Available)
}

func TestConsumptionForIgnoresDeposits(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Deposit(ctx, "partner-1", 10, "")
	require.NoError(t, err)

	consumption, err := svc.ConsumptionFor(ctx, svc.db, "biz-1")
	require.NoError(t, err)
	require.Nil(t, consumption)
}
