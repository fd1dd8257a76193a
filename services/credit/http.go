package credit

import (
	"net/http"

	"ablecloud-backoffice/services/visibility"

	"github.com/gin-gonic/gin"
)

type httpHandler struct {
	service  *Service
	resolver *visibility.Resolver
}

func registerRoutes(r *gin.Engine, s *Service, resolver *visibility.Resolver) {
	h := &httpHandler{service: s, resolver: resolver}

	group := r.Group("/v1/partners/:id/credit")
	group.GET("/balance", h.balance)
	group.GET("/entries", h.entries)
	group.POST("/deposits", h.deposit)
}

func (h *httpHandler) balance(c *gin.Context) {
	filter, err := h.resolver.Resolve(c.Request.Context(), visibility.CallerFromRequest(c))
	if err != nil {
		c.Error(err)
		return
	}

	partnerID := c.Param("id")
	if !filter.Allows(partnerID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your ledger"})
		return
	}

	bal, err := h.service.Balance(c.Request.Context(), partnerID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, bal)
}

func (h *httpHandler) entries(c *gin.Context) {
	filter, err := h.resolver.Resolve(c.Request.Context(), visibility.CallerFromRequest(c))
	if err != nil {
		c.Error(err)
		return
	}

	partnerID := c.Param("id")
	if !filter.Allows(partnerID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your ledger"})
		return
	}

	entries, err := h.service.Entries(c.Request.Context(), partnerID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (h *httpHandler) deposit(c *gin.Context) {
	caller := visibility.CallerFromRequest(c)
	if caller.Role != visibility.RoleVendorAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "only vendor admins may grant credit"})
		return
	}

	var input struct {
		Amount int64  `json:"amount"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.service.Deposit(c.Request.Context(), c.Param("id"), input.Amount, input.Note)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}
