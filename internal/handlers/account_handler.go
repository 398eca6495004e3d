package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onegreenvn/xreacher-gateway/internal/backend"
	"github.com/onegreenvn/xreacher-gateway/internal/campaign"
	"github.com/onegreenvn/xreacher-gateway/internal/models"
	"github.com/onegreenvn/xreacher-gateway/internal/oauth"
	"github.com/sirupsen/logrus"
)

// OAuthResultEvent is the SSE event carrying the terminal result of a linking handshake
const OAuthResultEvent = "oauth-result"

// Broadcaster pushes named events to every stream subscribed to an entity
type Broadcaster interface {
	Broadcast(entityType, entityID, event string, payload interface{}) int
}

type AccountHandler struct {
	api      *backend.Client
	flow     *oauth.Flow
	forms    *campaign.Registry
	notifier Broadcaster
}

func NewAccountHandler(api *backend.Client, flow *oauth.Flow, forms *campaign.Registry, notifier Broadcaster) *AccountHandler {
	return &AccountHandler{
		api:      api,
		flow:     flow,
		forms:    forms,
		notifier: notifier,
	}
}

// ListAccounts godoc
// @Summary List linked X accounts
// @Description List the caller's linked accounts. The list also becomes the sender list used by draft validation.
// @Tags twitter-accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/twitter-accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	accounts, err := backendClient(c, h.api).ListAccounts(c.Request.Context())
	if err != nil {
		respondBackendError(c, err, "Failed to get accounts")
		return
	}

	h.forms.Form(userID).SetAccounts(accounts)
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// ConnectAccount godoc
// @Summary Link an account with credentials
// @Tags twitter-accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ConnectAccountRequest true "Account credentials"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/twitter-accounts [post]
func (h *AccountHandler) ConnectAccount(c *gin.Context) {
	var req models.ConnectAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	account, err := backendClient(c, h.api).ConnectAccount(c.Request.Context(), &req)
	if err != nil {
		respondBackendError(c, err, "Failed to connect account")
		return
	}
	h.refreshSenders(c)

	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// DisconnectAccount godoc
// @Summary Disconnect a linked account
// @Tags twitter-accounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/twitter-accounts/{id}/disconnect [post]
func (h *AccountHandler) DisconnectAccount(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := backendClient(c, h.api).DisconnectAccount(c.Request.Context(), id); err != nil {
		respondBackendError(c, err, "Failed to disconnect account")
		return
	}
	h.refreshSenders(c)

	c.JSON(http.StatusOK, gin.H{"message": "Account disconnected successfully"})
}

// RefreshAccount godoc
// @Summary Refresh a linked account's profile data
// @Tags twitter-accounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Account ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/twitter-accounts/{id}/refresh [post]
func (h *AccountHandler) RefreshAccount(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	account, err := backendClient(c, h.api).RefreshAccount(c.Request.Context(), id)
	if err != nil {
		respondBackendError(c, err, "Failed to refresh account")
		return
	}
	h.refreshSenders(c)

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// OAuthStatus godoc
// @Summary Report whether OAuth linking is available
// @Tags twitter-accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.OAuthStatusResponse
// @Router /api/v1/twitter-accounts/oauth/status [get]
func (h *AccountHandler) OAuthStatus(c *gin.Context) {
	status, err := backendClient(c, h.api).OAuthStatus(c.Request.Context())
	if err != nil {
		respondBackendError(c, err, "Failed to get OAuth status")
		return
	}

	c.JSON(http.StatusOK, status)
}

// StartOAuth godoc
// @Summary Start an account-linking handshake
// @Description Generates the state token and PKCE verifier and returns the provider authorization URL.
// @Description A new start replaces any pending handshake of the caller.
// @Tags twitter-accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.StartOAuthRequest false "Handshake options"
// @Success 200 {object} models.StartOAuthResponse
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/twitter-accounts/oauth/start [post]
func (h *AccountHandler) StartOAuth(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	req := models.StartOAuthRequest{Popup: true}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
			return
		}
	}

	resp, err := h.flow.Begin(c.Request.Context(), userID, req.Popup)
	if err != nil {
		logrus.WithField("user_id", userID).Errorf("Failed to start OAuth handshake: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start OAuth flow", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// OAuthCallback godoc
// @Summary Handle the provider redirect
// @Description Called by the callback page with the redirect parameters. Inside a popup the
// @Description parameters are relayed to the opener and no exchange happens.
// @Tags twitter-accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.OAuthCallbackRequest true "Callback parameters"
// @Success 200 {object} oauth.Result
// @Failure 400 {object} oauth.Result
// @Router /api/v1/twitter-accounts/oauth/callback [post]
func (h *AccountHandler) OAuthCallback(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var req models.OAuthCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	result := h.flow.HandleCallback(c.Request.Context(), backendClient(c, h.api), userID, req, c.GetHeader("Origin"))
	h.respondResult(c, userID, result)
}

// OAuthMessage godoc
// @Summary Deliver a popup message to the opener
// @Description The opener forwards the message it received from the callback popup.
// @Description Messages from any origin other than the dashboard are rejected.
// @Tags twitter-accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body oauth.Message true "Popup message"
// @Success 200 {object} oauth.Result
// @Failure 400 {object} oauth.Result
// @Failure 403 {object} map[string]interface{}
// @Router /api/v1/twitter-accounts/oauth/message [post]
func (h *AccountHandler) OAuthMessage(c *gin.Context) {
	userID := c.MustGet("user_id").(string)

	var msg oauth.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}
	msg.Origin = c.GetHeader("Origin")

	result, err := h.flow.Receive(c.Request.Context(), backendClient(c, h.api), userID, msg)
	if errors.Is(err, oauth.ErrUntrustedOrigin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Untrusted origin"})
		return
	}
	h.respondResult(c, userID, result)
}

func (h *AccountHandler) respondResult(c *gin.Context, userID string, result *oauth.Result) {
	if result.Outcome == oauth.OutcomeSuccess {
		h.refreshSenders(c)
	}
	if result.Outcome != oauth.OutcomeRelayed && h.notifier != nil {
		h.notifier.Broadcast("user", userID, OAuthResultEvent, result)
	}

	status := http.StatusOK
	if result.Outcome == oauth.OutcomeFailed {
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}

// refreshSenders reloads the sender list after an account mutation.
// When the reload fails the cache is dropped so the next submit fetches it again.
func (h *AccountHandler) refreshSenders(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	form := h.forms.Form(userID)
	if err := loadAccounts(c, h.api, form); err != nil {
		logrus.WithField("user_id", userID).Warnf("Failed to reload sender accounts: %v", err)
		form.InvalidateAccounts()
	}
}
