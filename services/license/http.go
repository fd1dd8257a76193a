package license

import (
	"net/http"
	"time"

	"ablecloud-backoffice/pkg/db/pagination"
	"ablecloud-backoffice/services/visibility"

	"github.com/gin-gonic/gin"
)

type httpHandler struct {
	service  *Service
	resolver *visibility.Resolver
}

func registerRoutes(r *gin.Engine, s *Service, resolver *visibility.Resolver) {
	h := &httpHandler{service: s, resolver: resolver}

	group := r.Group("/v1/licenses")
	group.POST("", h.issue)
	group.GET("", h.list)
	group.GET("/:id", h.get)
	group.PUT("/:id/approve", h.approve)
}

type licenseResponse struct {
	*License
	EffectiveStatus Status `json:"effective_status"`
}

func toResponse(l *License) licenseResponse {
	return licenseResponse{License: l, EffectiveStatus: l.EffectiveStatus(time.Now().UTC())}
}

func (h *httpHandler) issue(c *gin.Context) {
	caller := visibility.CallerFromRequest(c)
	if caller.Role != visibility.RoleVendorAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "only vendor admins may issue licenses"})
		return
	}

	var input IssueInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.IssuedBy == "" {
		input.IssuedBy = caller.UserID
	}

	record, err := h.service.Issue(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, toResponse(record))
}

func (h *httpHandler) approve(c *gin.Context) {
	caller := visibility.CallerFromRequest(c)
	if caller.Role != visibility.RoleVendorAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "only vendor admins may approve licenses"})
		return
	}

	var input struct {
		ApproveUser string `json:"approve_user"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.ApproveUser == "" {
		input.ApproveUser = caller.UserID
	}

	record, err := h.service.Approve(c.Request.Context(), c.Param("id"), input.ApproveUser)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, toResponse(record))
}

func (h *httpHandler) get(c *gin.Context) {
	filter, err := h.resolver.Resolve(c.Request.Context(), visibility.CallerFromRequest(c))
	if err != nil {
		c.Error(err)
		return
	}

	record, err := h.service.Get(c.Request.Context(), filter, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, toResponse(record))
}

func (h *httpHandler) list(c *gin.Context) {
	filter, err := h.resolver.Resolve(c.Request.Context(), visibility.CallerFromRequest(c))
	if err != nil {
		c.Error(err)
		return
	}

	records, err := h.service.List(c.Request.Context(), filter, pagination.FromRequest(c))
	if err != nil {
		c.Error(err)
		return
	}

	data := make([]licenseResponse, 0, len(records))
	for _, record := range records {
		data = append(data, toResponse(record))
	}

	c.JSON(http.StatusOK, gin.H{"data": data})
}
