package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ablecloud-backoffice/pkg/config"
	"ablecloud-backoffice/pkg/errutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newProvider(addr string) *HTTPProvider {
	cfg := &config.Config{}
	cfg.Identity.Addr = addr
	cfg.Identity.Token = "test-token"
	cfg.Identity.Timeout = time.Second
	return NewHTTPProvider(cfg)
}

func TestLookupReturnsAttributes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/users/user-1/attributes", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"company_id":"partner-1","type":"partner"}`))
	}))
	defer srv.Close()

	attrs, err := newProvider(srv.URL).Lookup(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, "partner-1", attrs.CompanyID)
	require.Equal(t, Partner, attrs.Type)
}

func TestLookupMissingUserIsVendorAttribution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	attrs, err := newProvider(srv.URL).Lookup(context.Background(), "nobody")
	require.NoError(t, err)
	require.Empty(t, attrs.CompanyID)
	require.Empty(t, attrs.Type)
}

func TestLookupRejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newProvider(srv.URL).Lookup(context.Background(), "user-1")
	require.Error(t, err)

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusUnauthorized, be.Status())
}

func TestLookupUnreachableProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := newProvider(srv.URL).Lookup(context.Background(), "user-1")
	require.Error(t, err)

	var be errutil.BaseError
	require.True(t, errors.As(err, &be))
	require.Equal(t, errutil.StatusBadGateway, be.Status())
}
