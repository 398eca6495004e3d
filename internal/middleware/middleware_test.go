package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/onegreenvn/xreacher-gateway/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*models.TokenInfo, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &models.TokenInfo{UserID: "42", Token: token}, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newAuthRouter() *gin.Engine {
	r := gin.New()
	r.GET("/me", NewBearerTokenMiddleware(stubValidator{}).BearerTokenAuthMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, c.MustGet("user_id").(string)+":"+c.MustGet("access_token").(string))
	})
	return r
}

func TestBearerTokenMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		status int
		body   string
	}{
		{"valid header", "Bearer good", "", http.StatusOK, "42:good"},
		{"valid query", "", "?access_token=good", http.StatusOK, "42:good"},
		{"missing", "", "", http.StatusUnauthorized, `"reauthenticate":true`},
		{"bad scheme", "Basic abc", "", http.StatusUnauthorized, "Invalid authorization header format"},
		{"invalid", "Bearer bad", "", http.StatusUnauthorized, "Invalid or expired token"},
	}

	r := newAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

func TestRequireOrigin(t *testing.T) {
	r := gin.New()
	r.POST("/msg", RequireOrigin("http://localhost:3000/"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	for origin, status := range map[string]int{
		"http://localhost:3000":    http.StatusNoContent,
		"https://evil.example.com": http.StatusForbidden,
		"":                         http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodPost, "/msg", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, status, w.Code, origin)
	}
}

func TestLoggerOnlyLogsErrors(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	r := gin.New()
	r.Use(Logger())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/missing", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := hook.AllEntries()
	if assert.Len(t, entries, 2) {
		assert.Equal(t, logrus.WarnLevel, entries[0].Level)
		assert.Equal(t, logrus.ErrorLevel, entries[1].Level)
		assert.Equal(t, "/boom", entries[1].Data["path"])
	}
}

func TestLoggerRedactsToken(t *testing.T) {
	hook := test.NewGlobal()
	defer hook.Reset()

	r := gin.New()
	r.Use(Logger())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusUnauthorized) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x?access_token=secret", nil))

	if assert.Len(t, hook.AllEntries(), 1) {
		assert.Equal(t, "/x?access_token=REDACTED", hook.LastEntry().Data["path"])
	}
}
