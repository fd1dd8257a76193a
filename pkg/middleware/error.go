package middleware

import (
	"errors"
	"net/http"

	"ablecloud-backoffice/pkg/errutil"

	"github.com/gin-gonic/gin"
)

// Error renders the last error a handler recorded on the context as JSON,
// mapping domain error codes onto HTTP statuses.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		var be errutil.BaseError
		if errors.As(last.Err, &be) {
			c.JSON(be.Code.HTTPStatus(), be.JSON())
			return
		}

		var coder interface{ Status() errutil.CoreStatus }
		if errors.As(last.Err, &coder) {
			c.JSON(coder.Status().HTTPStatus(), gin.H{
				"error": gin.H{
					"code":    coder.Status(),
					"message": last.Err.Error(),
				},
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"code":    errutil.StatusInternal,
				"message": last.Err.Error(),
			},
		})
	}
}
