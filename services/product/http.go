package product

import (
	"net/http"

	"ablecloud-backoffice/pkg/db/pagination"
	"ablecloud-backoffice/services/visibility"

	"github.com/gin-gonic/gin"
)

type httpHandler struct {
	service *Service
}

func registerRoutes(r *gin.Engine, s *Service) {
	h := &httpHandler{service: s}

	group := r.Group("/v1/products")
	group.POST("", h.create)
	group.GET("", h.list)
	group.GET("/:id", h.get)
}

func (h *httpHandler) create(c *gin.Context) {
	caller := visibility.CallerFromRequest(c)
	if caller.Role != visibility.RoleVendorAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "only vendor admins may manage the catalog"})
		return
	}

	var input CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (h *httpHandler) get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *httpHandler) list(c *gin.Context) {
	records, err := h.service.List(c.Request.Context(), pagination.FromRequest(c))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": records})
}
