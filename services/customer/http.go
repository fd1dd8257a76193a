package customer

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

	group := r.Group("/v1/customers")
	group.POST("", h.create)
	group.GET("", h.list)
	group.GET("/:id", h.get)
}

func (h *httpHandler) create(c *gin.Context) {
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
