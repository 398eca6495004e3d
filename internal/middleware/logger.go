package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logger returns a middleware that logs failed requests using logrus
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.Query()

		c.Next()

		// Event streams end with a client disconnect, not an error
		if strings.HasSuffix(path, "/events/stream") || strings.HasSuffix(path, "/health") {
			return
		}

		statusCode := c.Writer.Status()
		if statusCode < 400 {
			return
		}

		if len(query) > 0 {
			path = path + "?" + redactQuery(query)
		}

		entry := logrus.WithFields(logrus.Fields{
			"status":    statusCode,
			"latency":   time.Since(start),
			"client_ip": c.ClientIP(),
			"method":    c.Request.Method,
			"path":      path,
		})
		if userID, ok := c.Get("user_id"); ok {
			entry = entry.WithField("user_id", userID)
		}
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		if statusCode >= 500 {
			entry.Error("Server error")
		} else {
			entry.Warn("Client error")
		}
	}
}

func redactQuery(query url.Values) string {
	if query.Has("access_token") {
		query.Set("access_token", "REDACTED")
	}
	return query.Encode()
}
