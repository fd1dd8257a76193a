package visibility

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ablecloud-backoffice/pkg/config"
	"ablecloud-backoffice/pkg/errutil"
	"ablecloud-backoffice/services/identity"
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

func newResolver(idp identity.Provider) *Resolver {
	return NewResolver(ResolverParams{
		IDP:    idp,
		Config: &config.Config{VendorName: "ABLECLOUD"},
	})
}

func TestResolveVendorAdminSeesEverything(t *testing.T) {
	r := newResolver(&idpStub{})

	filter, err := r.Resolve(context.Background(), Caller{UserID: "admin", Role: RoleVendorAdmin})
	require.NoError(t, err)
	require.True(t, filter.All)
	require.True(t, filter.Allows("anything"))
}

func TestResolvePartnerUserScopedToCompany(t *testing.T) {
	r := newResolver(&idpStub{attrs: map[string]*identity.Attributes{
		"user-1": {CompanyID: "partner-9", Type: identity.Partner},
	}})

	filter, err := r.Resolve(context.Background(), Caller{UserID: "user-1", Role: RolePartnerUser})
	require.NoError(t, err)
	require.False(t, filter.All)
	require.Equal(t, "partner-9", filter.CompanyID)
	require.True(t, filter.Allows("partner-9"))
	require.False(t, filter.Allows("partner-2"))
}

func TestResolveDefaultsToVendorAttribution(t *testing.T) {
	// A user without a partner attribution sees vendor-owned rows only.
	r := newResolver(&idpStub{})

	filter, err := r.Resolve(context.Background(), Caller{UserID: "user-x", Role: RolePartnerUser})
	require.NoError(t, err)
	require.False(t, filter.All)
	require.Empty(t, filter.CompanyID)
	require.True(t, filter.Allows(""))
	require.False(t, filter.Allows("partner-9"))
}

func TestResolvePropagatesIdentityFailure(t *testing.T) {
	lookupErr := errutil.BadGateway("identity provider unreachable", nil)
	r := newResolver(&idpStub{err: lookupErr})

	_, err := r.Resolve(context.Background(), Caller{UserID: "user-1", Role: RolePartnerUser})
	require.Error(t, err)

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusBadGateway, be.Status())
}

func TestResolveUnknownRole(t *testing.T) {
	r := newResolver(&idpStub{})

	_, err := r.Resolve(context.Background(), Caller{UserID: "user-1", Role: Role("intruder")})
	require.Error(t, err)

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusUnauthorized, be.Status())
}

func TestOwnerNameDefaultsToVendor(t *testing.T) {
	r := newResolver(&idpStub{})

	require.Equal(t, "ABLECLOUD", r.OwnerName(nil, ""))
	require.Equal(t, "ABLECLOUD", r.OwnerName(&identity.Attributes{Type: identity.Vendor}, ""))
	require.Equal(t, "ABLECLOUD", r.OwnerName(&identity.Attributes{Type: identity.Partner}, ""))
	require.Equal(t, "Acme Networks", r.OwnerName(&identity.Attributes{CompanyID: "p1", Type: identity.Partner}, "Acme Networks"))
}
