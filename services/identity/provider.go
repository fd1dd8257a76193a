package identity

import "context"

type CompanyType string

var (
	Partner CompanyType = "partner"
	Vendor  CompanyType = "vendor"
)

// Attributes are the identity-provider attributes the back office cares
// about: which company a user belongs to and whether that company is a
// reseller partner or the vendor itself.
type Attributes struct {
	CompanyID string      `json:"company_id"`
	Type      CompanyType `json:"type"`
}

// Provider looks up a user's company attributes. Implementations must not
// retry mutably and must surface failures immediately: an invalid token maps
// to Unauthorized, a transport failure to BadGateway.
type Provider interface {
	Lookup(ctx context.Context, userID string) (*Attributes, error)
}
