package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/onegreenvn/xreacher-gateway/internal/backend"
	"github.com/onegreenvn/xreacher-gateway/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	msgUnreachable    = "Unable to reach the server. Please check your connection."
	msgSessionExpired = "Session expired, please log in again"
)

// fieldKeywords maps substrings of backend messages to the form field they belong to
var fieldKeywords = []struct {
	keyword string
	field   string
}{
	{"email", "email"},
	{"username", "username"},
	{"sender", "sender_account_id"},
}

// fieldForMessage returns the form field a backend message refers to, if any
func fieldForMessage(message string) string {
	lower := strings.ToLower(message)
	for _, k := range fieldKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.field
		}
	}
	return ""
}

// backendClient returns the backend client authenticated as the caller
func backendClient(c *gin.Context, base *backend.Client) *backend.Client {
	return base.WithToken(c.GetString("access_token"))
}

// respondBackendError writes the dashboard-facing error for a failed backend call
func respondBackendError(c *gin.Context, err error, fallback string) {
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgSessionExpired, "reauthenticate": true})
	case errors.Is(err, backend.ErrUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": msgUnreachable})
	case errors.As(err, &apiErr):
		status := apiErr.StatusCode
		if status >= http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		body := gin.H{"error": backend.Message(err, fallback)}
		if field := fieldForMessage(apiErr.Message); field != "" {
			body["field"] = field
		}
		c.JSON(status, body)
	default:
		logrus.WithField("path", c.FullPath()).Errorf("%s: %v", fallback, err)
		utils.CaptureError(err, map[string]string{"path": c.FullPath()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback, "details": err.Error()})
	}
}

// parseIDParam reads a numeric path parameter, answering 400 when it is malformed
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := utils.ParseID(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name, "details": err.Error()})
		return 0, false
	}
	return id, true
}
