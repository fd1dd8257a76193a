package visibility

import (
	"context"
	"fmt"

	"ablecloud-backoffice/pkg/config"
	"ablecloud-backoffice/pkg/db/option"
	"ablecloud-backoffice/pkg/errutil"
	"ablecloud-backoffice/services/identity"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Role string

var (
	RoleVendorAdmin Role = "vendor-admin"
	RolePartnerUser Role = "partner-user"
)

// Caller is the authenticated principal a request acts as. The auth layer
// in front of the API fills it in; the resolver only interprets it.
type Caller struct {
	UserID string
	Role   Role
}

// Filter scopes queries to what the caller may see. A vendor admin sees
// everything; a partner user only sees rows owned by their company. A
// partner user whose manager carries no partner attribution is pinned to
// vendor-owned rows (empty company column).
type Filter struct {
	All       bool
	CompanyID string
}

// Scope turns the filter into a repository query option against the given
// owning-company column.
func (f Filter) Scope(column string) option.QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		if f.All {
			return tx
		}
		if f.CompanyID == "" {
			// Vendor-owned rows store either an empty or a null company.
			return tx.Where(fmt.Sprintf("%s = '' OR %s IS NULL", column, column))
		}
		return tx.Where(fmt.Sprintf("%s = ?", column), f.CompanyID)
	}
}

// Allows reports whether a row with the given owning company is visible.
func (f Filter) Allows(companyID string) bool {
	if f.All {
		return true
	}
	return companyID == f.CompanyID
}

type Resolver struct {
	idp        identity.Provider
	vendorName string
}

type ResolverParams struct {
	fx.In
	IDP    identity.Provider
	Config *config.Config
}

func NewResolver(p ResolverParams) *Resolver {
	return &Resolver{
		idp:        p.IDP,
		vendorName: p.Config.VendorName,
	}
}

// Resolve derives the caller's visibility filter. Identity-provider failures
// propagate immediately; they are not retried.
func (r *Resolver) Resolve(ctx context.Context, caller Caller) (Filter, error) {
	switch caller.Role {
	case RoleVendorAdmin:
		return Filter{All: true}, nil
	case RolePartnerUser:
		attrs, err := r.idp.Lookup(ctx, caller.UserID)
		if err != nil {
			zap.L().Warn("failed to resolve caller attributes", zap.String("user_id", caller.UserID), zap.Error(err))
			return Filter{}, err
		}
		if attrs.Type == identity.Partner && attrs.CompanyID != "" {
			return Filter{CompanyID: attrs.CompanyID}, nil
		}
		// No partner attribution: the caller is treated as vendor staff and
		// sees vendor-owned records only.
		return Filter{}, nil
	default:
		return Filter{}, errutil.Unauthorized("unknown caller role", nil)
	}
}

// OwnerName is the display owner of a record managed by the given
// attributes. Records without a partner attribution belong to the vendor.
func (r *Resolver) OwnerName(attrs *identity.Attributes, partnerName string) string {
	if attrs == nil || attrs.Type != identity.Partner || attrs.CompanyID == "" {
		return r.vendorName
	}
	if partnerName == "" {
		return r.vendorName
	}
	return partnerName
}

// OwningCompany is the company a record managed by the given user is stored
// under. Empty means the vendor itself.
func (r *Resolver) OwningCompany(ctx context.Context, managerID string) (string, error) {
	attrs, err := r.idp.Lookup(ctx, managerID)
	if err != nil {
		return "", err
	}
	if attrs.Type == identity.Partner {
		return attrs.CompanyID, nil
	}
	return "", nil
}
