package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"ablecloud-backoffice/pkg/config"
	"ablecloud-backoffice/pkg/errutil"

	"go.uber.org/zap"
)

// HTTPProvider queries the external identity provider over HTTP.
type HTTPProvider struct {
	client *http.Client
	addr   string
	token  string
}

func NewHTTPProvider(cfg *config.Config) *HTTPProvider {
	return &HTTPProvider{
		client: &http.Client{Timeout: cfg.Identity.Timeout},
		addr:   cfg.Identity.Addr,
		token:  cfg.Identity.Token,
	}
}

func (p *HTTPProvider) Lookup(ctx context.Context, userID string) (*Attributes, error) {
	url := fmt.Sprintf("%s/users/%s/attributes", p.addr, userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errutil.Internal("failed to build identity request", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		zap.L().Error("identity provider unreachable", zap.String("user_id", userID), zap.Error(err))
		return nil, errutil.BadGateway("identity provider unreachable", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, errutil.Unauthorized("identity provider rejected the token", nil)
	case http.StatusNotFound:
		// A user with no recorded attributes is attributed to the vendor,
		// not treated as a failure.
		return &Attributes{}, nil
	default:
		return nil, errutil.BadGateway(fmt.Sprintf("identity provider returned status %d", resp.StatusCode), nil)
	}

	var attrs Attributes
	if err := json.NewDecoder(resp.Body).Decode(&attrs); err != nil {
		return nil, errutil.BadGateway("identity provider returned a malformed response", err)
	}

	return &attrs, nil
}
