package business

import (
	"net/http"

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

	group := r.Group("/v1/businesses")
	group.POST("", h.create)
	group.GET("", h.list)
	group.GET("/:id", h.get)
	group.PUT("/:id", h.update)
	group.DELETE("/:id", h.delete)
	group.PUT("/:id/license", h.registerLicense)
	group.DELETE("/:id/license", h.unregisterLicense)

	// License revocation goes through the coordinator so the owning
	// business's pointer is cleared in the same transaction.
	r.DELETE("/v1/licenses/:id", h.deleteLicense)
}

func (h *httpHandler) create(c *gin.Context) {
	var input CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.service.CreateBusiness(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (h *httpHandler) update(c *gin.Context) {
	filter, err := h.resolver.Resolve(c.Request.Context(), visibility.CallerFromRequest(c))
	if err != nil {
		c.Error(err)
		return
	}

	var input UpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.service.UpdateBusiness(c.Request.Context(), filter, c.Param("id"), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *httpHandler) delete(c *gin.Context) {
	filter, err := h.resolver.Resolve(c.Request.Context(), visibility.CallerFromRequest(c))
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.service.DeleteBusiness(c.Request.Context(), filter, c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *httpHandler) registerLicense(c *gin.Context) {
	filter, err := h.resolver.Resolve(c.Request.Context(), visibility.CallerFromRequest(c))
	if err != nil {
		c.Error(err)
		return
	}

	var input struct {
		LicenseID string `json:"license_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.service.RegisterLicense(c.Request.Context(), filter, c.Param("id"), input.LicenseID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *httpHandler) unregisterLicense(c *gin.Context) {
	filter, err := h.resolver.Resolve(c.Request.Context(), visibility.CallerFromRequest(c))
	if err != nil {
		c.Error(err)
		return
	}

	record, err := h.service.UnregisterLicense(c.Request.Context(), filter, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *httpHandler) deleteLicense(c *gin.Context) {
	caller := visibility.CallerFromRequest(c)
	if caller.Role != visibility.RoleVendorAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "only vendor admins may revoke licenses"})
		return
	}

	if err := h.service.DeleteLicense(c.Request.Context(), c.Param("id")); err != nil {
		c.Error(err)
		return
	}

	c.Status(http.StatusNoContent)
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

	c.JSON(http.StatusOK, record)
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

	c.JSON(http.StatusOK, gin.H{"data": records})
}
