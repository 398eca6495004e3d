package backend

import (
	"context"
	"net/http"

	"github.com/onegreenvn/xreacher-gateway/internal/models"
)

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a dashboard user
func (c *Client) Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error) {
	var resp models.RegisterResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile returns the authenticated user
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var resp models.ProfileResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/profile", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}
