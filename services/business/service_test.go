package business

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ablecloud-backoffice/pkg/config"
	"ablecloud-backoffice/pkg/db/pagination"
	"ablecloud-backoffice/pkg/errutil"
	"ablecloud-backoffice/services/credit"
	"ablecloud-backoffice/services/identity"
	"ablecloud-backoffice/services/license"
	"ablecloud-backoffice/services/testutil"
	"ablecloud-backoffice/services/visibility"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type idpStub struct {
	attrs map[string]*identity.Attributes
	err   error
}

func (s *idpStub) Lookup(_ context.Context, userID string) (*identity.Attributes, error) {
	if s.err != nil {
		return nil, s.err
	}
	if a, ok := s.attrs[userID]; ok {
		return a, nil
	}
	return &identity.Attributes{}, nil
}

type seqStub struct {
	n int
}

func (s *seqStub) NextBusinessCode(context.Context) (string, error) {
	s.n++
	return fmt.Sprintf("BIZ-TEST-%04d", s.n), nil
}

func (s *seqStub) NextTicketCode(context.Context) (string, error) {
	s.n++
	return fmt.Sprintf("TKT-TEST-%04d", s.n), nil
}

type fixture struct {
	svc      *Service
	credits  *credit.Service
	licenses *license.Service
}

// partnerManager is attributed to partner-1; vendorManager carries no
// partner attribution.
const (
	partnerManager = "user-partner"
	vendorManager  = "user-vendor"
	partnerID      = "partner-1"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t, &Business{}, &credit.Entry{}, &license.License{})

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	idp := &idpStub{attrs: map[string]*identity.Attributes{
		partnerManager: {CompanyID: partnerID, Type: identity.Partner},
		vendorManager:  {Type: identity.Vendor},
	}}

	resolver := visibility.NewResolver(visibility.ResolverParams{
		IDP:    idp,
		Config: &config.Config{VendorName: "ABLECLOUD"},
	})

	credits := credit.NewService(credit.ServiceParams{DB: db, Node: node})
	licenses := license.NewService(license.ServiceParams{DB: db, Node: node})

	svc := NewService(ServiceParams{
		DB:       db,
		Node:     node,
		Resolver: resolver,
		Sequence: &seqStub{},
		Credits:  credits,
		Licenses: licenses,
	})

	return &fixture{svc: svc, credits: credits, licenses: licenses}
}

func (f *fixture) grant(t *testing.T, amount int64) {
	t.Helper()
	_, err := f.credits.Deposit(context.Background(), partnerID, amount, "test grant")
	require.NoError(t, err)
}

func (f *fixture) issueLicense(t *testing.T) *license.License {
	t.Helper()
	lic, err := f.licenses.Issue(context.Background(), license.IssueInput{
		Issued:  time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		Expired: time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return lic
}

func baseInput(managerID string) CreateInput {
	return CreateInput{
		Name:       "seoul datacenter rollout",
		Status:     StatusStandby,
		CoreCnt:    5,
		NodeCnt:    2,
		CustomerID: "customer-1",
		ManagerID:  managerID,
		ProductID:  "product-1",
	}
}

var vendorAll = visibility.Filter{All: true}

func TestCreateBusinessWithDepositReservesCoreCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.grant(t, 10)

	input := baseInput(partnerManager)
	input.DepositUse = true

	record, err := f.svc.CreateBusiness(ctx, input)
	require.NoError(t, err)
	require.Equal(t, partnerID, record.CompanyID)
	require.NotEmpty(t, record.Code)

	entry, err := f.credits.ConsumptionFor(ctx, f.svc.db, record.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, record.CoreCnt, *entry.Credit)

	bal, err := f.credits.Balance(ctx, partnerID)
	require.NoError(t, err)
	require.Equal(t, int64(5), bal.Available)
}

func TestCreateBusinessInsufficientCreditLeavesNothingBehind(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.grant(t, 3)

	input := baseInput(partnerManager)
	input.DepositUse = true // needs 5, only 3 available

	_, err := f.svc.CreateBusiness(ctx, input)
	require.Error(t, err)

	var ice *credit.InsufficientCreditError
	require.True(t, errors.As(err, &ice))
	require.Equal(t, int64(3), ice.Available)
	require.Equal(t, int64(5), ice.Requested)

	// Neither a business nor a consumption row survived the rollback.
	records, err := f.svc.List(ctx, vendorAll, pagination.Pagination{Limit: 10})
	require.NoError(t, err)
	require.Empty(t, records)

	bal, err := f.credits.Balance(ctx, partnerID)
	require.NoError(t, err)
	require.Equal(t, int64(3), bal.Available)
}

func TestCreateBusinessDepositRequiresPartnerManager(t *testing.T) {
	f := newFixture(t)

	input := baseInput(vendorManager)
	input.DepositUse = true

	_, err := f.svc.CreateBusiness(context.Background(), input)
	require.Error(t, err)

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusConflict, be.Status())
}

func TestUpdateBusinessReReservesAgainstWouldBeBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.grant(t, 10)

	input := baseInput(partnerManager)
	input.DepositUse = true
	input.CoreCnt = 5

	record, err := f.svc.CreateBusiness(ctx, input)
	require.NoError(t, err)

	update := UpdateInput{
		Name:       record.Name,
		Status:     record.Status,
		CoreCnt:    9,
		NodeCnt:    record.NodeCnt,
		DepositUse: true,
	}

	// Consuming 3 elsewhere leaves available 2; the re-edit to 9 checks
	// against the would-be balance 2+5=7 and fails.
	otherInput := baseInput(partnerManager)
	otherInput.Name = "busan expansion"
	otherInput.DepositUse = true
	otherInput.CoreCnt = 3
	_, err = f.svc.CreateBusiness(ctx, otherInput)
	require.NoError(t, err)

	_, err = f.svc.UpdateBusiness(ctx, vendorAll, record.ID, update)
	var ice *credit.InsufficientCreditError
	require.True(t, errors.As(err, &ice))
	require.Equal(t, int64(7), ice.Available)

	update.CoreCnt = 6
	updated, err := f.svc.UpdateBusiness(ctx, vendorAll, record.ID, update)
	require.NoError(t, err)
	require.Equal(t, int64(6), updated.CoreCnt)

	// Still exactly one consumption row for the business, at the new amount.
	entry, err := f.credits.ConsumptionFor(ctx, f.svc.db, record.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	require.Equal(t, int64(6), *entry.Credit)

	bal, err := f.credits.Balance(ctx, partnerID)
	require.NoError(t, err)
	require.Equal(t, int64(1), bal.Available)
}

func TestUpdateBusinessTurningDepositOffReleasesEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.grant(t, 10)

	input := baseInput(partnerManager)
	input.DepositUse = true

	record, err := f.svc.CreateBusiness(ctx, input)
	require.NoError(t, err)

	update := UpdateInput{
		Name:       record.Name,
		Status:     record.Status,
		CoreCnt:    record.CoreCnt,
		NodeCnt:    record.NodeCnt,
		DepositUse: false,
	}
	_, err = f.svc.UpdateBusiness(ctx, vendorAll, record.ID, update)
	require.NoError(t, err)

	entry, err := f.credits.ConsumptionFor(ctx, f.svc.db, record.ID)
	require.NoError(t, err)
	require.Nil(t, entry)

	bal, err := f.credits.Balance(ctx, partnerID)
	require.NoError(t, err)
	require.Equal(t, int64(10), bal.Available)
}

func TestDeleteBusinessGuardsLiveLicense(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.grant(t, 10)

	input := baseInput(partnerManager)
	input.DepositUse = true

	record, err := f.svc.CreateBusiness(ctx, input)
	require.NoError(t, err)

	lic := f.issueLicense(t)
	_, err = f.svc.RegisterLicense(ctx, vendorAll, record.ID, lic.ID)
	require.NoError(t, err)

	err = f.svc.DeleteBusiness(ctx, vendorAll, record.ID)
	require.Error(t, err)

	var cle *ConflictingLicenseError
	require.True(t, errors.As(err, &cle))
	require.Equal(t, lic.ID, cle.LicenseID)

	// Business survives and its consumption is untouched.
	still, err := f.svc.Get(ctx, vendorAll, record.ID)
	require.NoError(t, err)
	require.NotNil(t, still.LicenseID)

	entry, err := f.credits.ConsumptionFor(ctx, f.svc.db, record.ID)
	require.NoError(t, err)
	require.NotNil(t, entry)
}

func TestDeleteBusinessReleasesCreditAndTombstones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.grant(t, 10)

	input := baseInput(partnerManager)
	input.DepositUse = true

	record, err := f.svc.CreateBusiness(ctx, input)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteBusiness(ctx, vendorAll, record.ID))

	_, err = f.svc.Get(ctx, vendorAll, record.ID)
	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusNotFound, be.Status())

	entry, err := f.credits.ConsumptionFor(ctx, f.svc.db, record.ID)
	require.NoError(t, err)
	require.Nil(t, entry)

	bal, err := f.credits.Balance(ctx, partnerID)
	require.NoError(t, err)
	require.Equal(t, int64(10), bal.Available)
}

func TestRegisterLicenseExclusivity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateBusiness(ctx, baseInput(partnerManager))
	require.NoError(t, err)

	secondInput := baseInput(partnerManager)
	secondInput.Name = "second engagement"
	second, err := f.svc.CreateBusiness(ctx, secondInput)
	require.NoError(t, err)

	lic := f.issueLicense(t)

	linked, err := f.svc.RegisterLicense(ctx, vendorAll, first.ID, lic.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.LicenseID)
	require.Equal(t, lic.ID, *linked.LicenseID)

	// The same license cannot be linked to another live business.
	_, err = f.svc.RegisterLicense(ctx, vendorAll, second.ID, lic.ID)
	var cle *ConflictingLicenseError
	require.True(t, errors.As(err, &cle))

	// Linking a missing license reports NotFound.
	_, err = f.svc.RegisterLicense(ctx, vendorAll, second.ID, "no-such-license")
	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusNotFound, be.Status())
}

func TestDeleteLicenseClearsPointerBeforeRevoking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	record, err := f.svc.CreateBusiness(ctx, baseInput(partnerManager))
	require.NoError(t, err)

	lic := f.issueLicense(t)
	_, err = f.svc.RegisterLicense(ctx, vendorAll, record.ID, lic.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteLicense(ctx, lic.ID))

	detached, err := f.svc.Get(ctx, vendorAll, record.ID)
	require.NoError(t, err)
	require.Nil(t, detached.LicenseID)

	gone, err := f.licenses.Find(ctx, f.svc.db, lic.ID)
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestUnregisterLicenseLeavesLicenseReusable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	record, err := f.svc.CreateBusiness(ctx, baseInput(partnerManager))
	require.NoError(t, err)

	lic := f.issueLicense(t)
	_, err = f.svc.RegisterLicense(ctx, vendorAll, record.ID, lic.ID)
	require.NoError(t, err)

	detached, err := f.svc.UnregisterLicense(ctx, vendorAll, record.ID)
	require.NoError(t, err)
	require.Nil(t, detached.LicenseID)

	// The orphaned license is still live and can be linked elsewhere.
	otherInput := baseInput(partnerManager)
	otherInput.Name = "replacement engagement"
	other, err := f.svc.CreateBusiness(ctx, otherInput)
	require.NoError(t, err)

	relinked, err := f.svc.RegisterLicense(ctx, vendorAll, other.ID, lic.ID)
	require.NoError(t, err)
	require.Equal(t, lic.ID, *relinked.LicenseID)
}

func TestVisibilityScopesBusinessReads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	mine, err := f.svc.CreateBusiness(ctx, baseInput(partnerManager))
	require.NoError(t, err)

	vendorInput := baseInput(vendorManager)
	vendorInput.Name = "vendor direct deal"
	theirs, err := f.svc.CreateBusiness(ctx, vendorInput)
	require.NoError(t, err)

	partnerFilter := visibility.Filter{CompanyID: partnerID}

	_, err = f.svc.Get(ctx, partnerFilter, mine.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, partnerFilter, theirs.ID)
	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusNotFound, be.Status())
}
