package license

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ablecloud-backoffice/pkg/errutil"
	"ablecloud-backoffice/services/testutil"
	"ablecloud-backoffice/services/visibility"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestService(t *testing.T) *Service {
	t.Helper()

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	db := testutil.NewTestDB(t, &License{})
	return NewService(ServiceParams{DB: db, Node: node})
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIssueStartsInactive(t *testing.T) {
	svc := newTestService(t)

	record, err := svc.Issue(context.Background(), IssueInput{
		Issued:   date(2025, time.June, 1),
		Expired:  date(2026, time.June, 1),
		IssuedBy: "alice",
	})
	require.NoError(t, err)
	require.Equal(t, StatusInactive, record.Status)
	require.NotEmpty(t, record.LicenseKey)
	require.Nil(t, record.ApproveUser)
	require.Nil(t, record.Approved)
}

func TestIssueRejectsInvalidDateRange(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Issue(context.Background(), IssueInput{
		Issued:  date(2025, time.June, 1),
		Expired: date(2025, time.January, 1),
	})
	require.Error(t, err)

	var idr *InvalidDateRangeError
	require.True(t, errors.As(err, &idr))
	require.Equal(t, errutil.StatusValidationFailed, idr.Status())
}

func TestIssueTrialExpiresAfterOneMonth(t *testing.T) {
	svc := newTestService(t)

	record, err := svc.Issue(context.Background(), IssueInput{
		Issued: date(2025, time.June, 1),
		Trial:  true,
	})
	require.NoError(t, err)
	require.Equal(t, date(2025, time.July, 1), record.Expired)
}

func TestIssuePermanentUsesSentinelDate(t *testing.T) {
	svc := newTestService(t)

	record, err := svc.Issue(context.Background(), IssueInput{
		Issued:    date(2025, time.June, 1),
		Permanent: true,
	})
	require.NoError(t, err)
	require.Equal(t, PermanentExpiry, record.Expired)
}

func TestApproveActivatesAndStamps(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	record, err := svc.Issue(ctx, IssueInput{
		Issued:  date(2025, time.June, 1),
		Expired: date(2026, time.June, 1),
	})
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, record.ID, "alice")
	require.NoError(t, err)
	require.Equal(t, StatusActive, approved.Status)
	require.NotNil(t, approved.ApproveUser)
	require.Equal(t, "alice", *approved.ApproveUser)
	require.NotNil(t, approved.Approved)

	// Re-approval re-stamps the approver instead of failing.
	reapproved, err := svc.Approve(ctx, record.ID, "bob")
	require.NoError(t, err)
	require.Equal(t, StatusActive, reapproved.Status)
	require.Equal(t, "bob", *reapproved.ApproveUser)
}

func TestApproveMissingLicense(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Approve(context.Background(), "no-such-id", "alice")
	require.Error(t, err)

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusNotFound, be.Status())
}

func TestRevokeTombstones(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	record, err := svc.Issue(ctx, IssueInput{
		Issued:  date(2025, time.June, 1),
		Expired: date(2026, time.June, 1),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, svc.db, record.ID))

	found, err := svc.Find(ctx, svc.db, record.ID)
	require.NoError(t, err)
	require.Nil(t, found)

	// Revoking a removed license reports NotFound.
	err = svc.Revoke(ctx, svc.db, record.ID)
	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusNotFound, be.Status())
}

func TestEffectiveStatusDerivesExpiry(t *testing.T) {
	l := &License{
		Status:  StatusActive,
		Expired: date(2025, time.June, 30),
	}

	require.Equal(t, StatusActive, l.EffectiveStatus(date(2025, time.June, 30).Add(23*time.Hour)))
	require.Equal(t, StatusExpired, l.EffectiveStatus(date(2025, time.July, 1)))
}

func TestVisibilityScopesLicenseReads(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	companyID := "partner-1"
	mine, err := svc.Issue(ctx, IssueInput{
		Issued:    date(2025, time.June, 1),
		Expired:   date(2026, time.June, 1),
		CompanyID: &companyID,
	})
	require.NoError(t, err)

	theirs, err := svc.Issue(ctx, IssueInput{
		Issued:  date(2025, time.June, 1),
		Expired: date(2026, time.June, 1),
	})
	require.NoError(t, err)

	partnerFilter := visibility.Filter{CompanyID: companyID}

	_, err = svc.Get(ctx, partnerFilter, mine.ID)
	require.NoError(t, err)

	_, err = svc.Get(ctx, partnerFilter, theirs.ID)
	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusNotFound, be.Status())

	// The vendor-attributed filter sees vendor rows (null company).
	_, err = svc.Get(ctx, visibility.Filter{}, theirs.ID)
	require.NoError(t, err)
}
