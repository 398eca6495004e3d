package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/onegreenvn/xreacher-gateway/internal/models"
)

type accountsResponse struct {
	Accounts []models.TwitterAccount `json:"accounts"`
}

type accountResponse struct {
	Account models.TwitterAccount `json:"account"`
}

// ListAccounts returns the user's linked X accounts
func (c *Client) ListAccounts(ctx context.Context) ([]models.TwitterAccount, error) {
	var resp accountsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/twitter-accounts", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Accounts, nil
}

// ConnectAccount links an account using credentials
func (c *Client) ConnectAccount(ctx context.Context, req *models.ConnectAccountRequest) (*models.TwitterAccount, error) {
	var resp accountResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/twitter-accounts", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Account, nil
}

// DisconnectAccount unlinks an account
func (c *Client) DisconnectAccount(ctx context.Context, accountID int64) error {
	return c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/twitter-accounts/%d/disconnect", accountID), nil, nil)
}

// RefreshAccount re-reads an account's profile from X
func (c *Client) RefreshAccount(ctx context.Context, accountID int64) (*models.TwitterAccount, error) {
	var resp accountResponse
	if err := c.doJSON(ctx, http.MethodPost, fmt.Sprintf("/api/twitter-accounts/%d/refresh", accountID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Account, nil
}

// OAuthStatus reports whether OAuth linking is configured on the backend
func (c *Client) OAuthStatus(ctx context.Context) (*models.OAuthStatusResponse, error) {
	var resp models.OAuthStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/twitter-accounts/oauth/status", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExchangeOAuthCode trades an authorization code and PKCE verifier for a linked account
func (c *Client) ExchangeOAuthCode(ctx context.Context, req *models.OAuthExchangeRequest) (*models.OAuthExchangeResponse, error) {
	var resp models.OAuthExchangeResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/twitter-accounts/oauth/exchange", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
