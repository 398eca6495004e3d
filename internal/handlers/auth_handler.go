package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onegreenvn/xreacher-gateway/internal/backend"
	"github.com/onegreenvn/xreacher-gateway/internal/models"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	api *backend.Client
}

func NewAuthHandler(api *backend.Client) *AuthHandler {
	return &AuthHandler{api: api}
}

// Login godoc
// @Summary Login user
// @Description Authenticate against the backend and receive an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	resp, err := h.api.Login(c.Request.Context(), &req)
	if err != nil {
		respondBackendError(c, err, "Login failed")
		return
	}

	logrus.WithField("user_id", resp.User.ID).Info("User logged in")
	c.JSON(http.StatusOK, resp)
}

// Register godoc
// @Summary Register a new user
// @Description Create a dashboard account. Duplicate email or username errors carry the offending field.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration request"
// @Success 201 {object} models.RegisterResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	resp, err := h.api.Register(c.Request.Context(), &req)
	if err != nil {
		respondBackendError(c, err, "Registration failed")
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetProfile godoc
// @Summary Get current user profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.ProfileResponse
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/auth/profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := backendClient(c, h.api).Profile(c.Request.Context())
	if err != nil {
		respondBackendError(c, err, "Failed to get profile")
		return
	}

	c.JSON(http.StatusOK, models.ProfileResponse{User: *user})
}
