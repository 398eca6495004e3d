package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/onegreenvn/xreacher-gateway/internal/backend"
	"github.com/onegreenvn/xreacher-gateway/internal/campaign"
	"github.com/onegreenvn/xreacher-gateway/internal/config"
	"github.com/onegreenvn/xreacher-gateway/internal/models"
	"github.com/onegreenvn/xreacher-gateway/internal/oauth"
	"github.com/onegreenvn/xreacher-gateway/internal/services"
	"github.com/onegreenvn/xreacher-gateway/internal/services/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-secret"

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		DashboardOrigin: "http://dashboard.test",
		Backend:         config.BackendConfig{URL: "http://127.0.0.1:1", Timeout: time.Second},
		JWT:             config.JWTConfig{Secret: testSecret},
		OAuth:           config.OAuthConfig{ClientID: "cid", HandshakeTTL: time.Minute},
		Target:          config.TargetingConfig{Tick: 10 * time.Millisecond, Step: 10, Retention: time.Minute},
	}
	hub := services.NewSSEHub()
	targeter := campaign.NewTargeter(cfg.Target, campaign.NewProgressBoard(cfg.Target.Retention))

	return SetupRouter(Dependencies{
		Config:  cfg,
		Backend: backend.NewClient(cfg.Backend),
		Tokens:  auth.NewTokenService(cfg.JWT),
		Flow:    oauth.NewFlow(cfg.OAuth, cfg.DashboardOrigin, oauth.NewMemoryStore(), oauth.NewHubChannel(hub)),
		Forms:   campaign.NewRegistry(targeter),
		SSEHub:  hub,
	})
}

func bearer(t *testing.T) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, models.JWTClaims{
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/campaigns/draft", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["reauthenticate"])
}

func TestOAuthMessageRequiresDashboardOrigin(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/twitter-accounts/oauth/message",
		strings.NewReader(`{"type":"success","code":"c","state":"s"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t))
	req.Header.Set("Origin", "https://evil.test")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBackendUnreachableMapsTo502(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/dashboard", nil)
	req.Header.Set("Authorization", bearer(t))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "Unable to reach the server. Please check your connection.")
}

func TestMetricsExposed(t *testing.T) {
	r := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
