package middleware

import (
	"net/http"
	"strings"

	"github.com/onegreenvn/xreacher-gateway/internal/models"

	"github.com/gin-gonic/gin"
)

// TokenValidator validates backend-issued access tokens
type TokenValidator interface {
	ValidateToken(tokenString string) (*models.TokenInfo, error)
}

type BearerTokenMiddleware struct {
	validator TokenValidator
}

func NewBearerTokenMiddleware(validator TokenValidator) *BearerTokenMiddleware {
	return &BearerTokenMiddleware{validator: validator}
}

// BearerTokenAuthMiddleware validates the JWT and sets user info in context.
// EventSource cannot send headers, so the token may also come from the access_token query parameter.
func (m *BearerTokenMiddleware) BearerTokenAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		switch {
		case strings.HasPrefix(authHeader, "Bearer "):
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		case authHeader == "" && c.Query("access_token") != "":
			tokenString = c.Query("access_token")
		default:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":          "Invalid authorization header format",
				"reauthenticate": true,
			})
			return
		}

		tokenInfo, err := m.validator.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":          "Invalid or expired token",
				"reauthenticate": true,
			})
			return
		}

		c.Set("user_id", tokenInfo.UserID)
		c.Set("access_token", tokenString)
		c.Set("token_info", tokenInfo)

		c.Next()
	}
}
