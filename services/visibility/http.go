package visibility

import (
	"github.com/gin-gonic/gin"
)

const (
	HeaderUserID = "X-User-Id"
	HeaderRole   = "X-User-Role"
)

// CallerFromRequest reads the principal the auth layer stamped on the
// request. An absent role defaults to partner-user, the least privileged.
func CallerFromRequest(c *gin.Context) Caller {
	role := Role(c.GetHeader(HeaderRole))
	if role != RoleVendorAdmin {
		role = RolePartnerUser
	}
	return Caller{
		UserID: c.GetHeader(HeaderUserID),
		Role:   role,
	}
}
