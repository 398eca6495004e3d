package models

// ConnectionStatus is the backend's view of a linked X account
type ConnectionStatus string

const (
	ConnectionPending   ConnectionStatus = "pending"
	ConnectionConnected ConnectionStatus = "connected"
	ConnectionExpired   ConnectionStatus = "expired"
	ConnectionRevoked   ConnectionStatus = "revoked"
)

// TwitterAccount represents a linked X account (backend-owned, read-only here)
type TwitterAccount struct {
	ID               int64            `json:"id" example:"7"`
	Username         string           `json:"username" example:"acme_growth"`
	DisplayName      string           `json:"display_name,omitempty"`
	ProfileImageURL  string           `json:"profile_image_url,omitempty"`
	FollowersCount   int              `json:"followers_count"`
	FollowingCount   int              `json:"following_count"`
	IsVerified       bool             `json:"is_verified"`
	IsActive         bool             `json:"is_active"`
	WarmupStatus     string           `json:"warmup_status,omitempty"`
	ConnectionStatus ConnectionStatus `json:"connection_status,omitempty"`
	CreatedAt        string           `json:"created_at,omitempty"`
}

// Connected reports whether the account can be used as a campaign sender
func (a TwitterAccount) Connected() bool {
	return a.ConnectionStatus != ConnectionExpired && a.ConnectionStatus != ConnectionRevoked
}

// ConnectAccountRequest links an account with credentials instead of OAuth
type ConnectAccountRequest struct {
	Username   string `json:"username" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	TOTPSecret string `json:"totp_secret,omitempty"`
	Proxy      string `json:"proxy,omitempty"`
}

// OAuthExchangeRequest is sent to the backend to trade an authorization code
type OAuthExchangeRequest struct {
	Code         string `json:"code"`
	CodeVerifier string `json:"code_verifier"`
	State        string `json:"state"`
}

// OAuthExchangeResponse is the backend's answer to a code exchange
type OAuthExchangeResponse struct {
	Message string         `json:"message,omitempty"`
	Account TwitterAccount `json:"account"`
}

// OAuthStatusResponse reports whether OAuth linking is available
type OAuthStatusResponse struct {
	Configured        bool   `json:"configured"`
	Provider          string `json:"provider,omitempty"`
	ConnectedAccounts int    `json:"connected_accounts"`
}

// StartOAuthRequest starts an account-linking handshake
type StartOAuthRequest struct {
	Popup bool `json:"popup"`
}

// StartOAuthResponse tells the dashboard where to send the user
type StartOAuthResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	Popup            bool   `json:"popup"`
	ExpiresIn        int64  `json:"expires_in"`
}

// OAuthCallbackRequest carries the provider redirect parameters read by the callback page
type OAuthCallbackRequest struct {
	Code             string `json:"code"`
	State            string `json:"state"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	InPopup          bool   `json:"in_popup"`
}
