package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onegreenvn/xreacher-gateway/internal/utils"
	"github.com/sirupsen/logrus"
)

// RequireOrigin rejects requests whose Origin header is not the dashboard origin
func RequireOrigin(allowed string) gin.HandlerFunc {
	allowed = utils.NormalizeOrigin(allowed)
	return func(c *gin.Context) {
		origin := utils.NormalizeOrigin(c.GetHeader("Origin"))
		if origin != allowed {
			logrus.WithFields(logrus.Fields{
				"origin": origin,
				"path":   c.Request.URL.Path,
			}).Warn("Rejected request from untrusted origin")
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Untrusted origin"})
			return
		}
		c.Next()
	}
}
