package oauth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/onegreenvn/xreacher-gateway/internal/backend"
	"github.com/onegreenvn/xreacher-gateway/internal/config"
	"github.com/onegreenvn/xreacher-gateway/internal/metrics"
	"github.com/onegreenvn/xreacher-gateway/internal/models"
	"github.com/onegreenvn/xreacher-gateway/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	MsgSessionExpired  = "Session expired, please try connecting again"
	MsgInvalidState    = "Invalid state parameter"
	MsgMissingParams   = "Missing authorization parameters"
	MsgExchangeFailed  = "Failed to connect account"
	MsgAccountLinked   = "Account connected successfully"
	MsgProviderDenied  = "Authorization was denied"
	accountsPage       = "/accounts"
	successRedirectGap = 2 * time.Second
)

// ErrUntrustedOrigin is returned when an opener message comes from a foreign origin
var ErrUntrustedOrigin = errors.New("message origin is not trusted")

// Exchanger trades an authorization code for a linked account
type Exchanger interface {
	ExchangeOAuthCode(ctx context.Context, req *models.OAuthExchangeRequest) (*models.OAuthExchangeResponse, error)
}

// Outcome is the terminal (or relayed) state of a callback
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeRelayed Outcome = "relayed"
)

// Result describes what the dashboard should show after a callback
type Result struct {
	Outcome         Outcome                `json:"outcome"`
	Message         string                 `json:"message,omitempty"`
	Account         *models.TwitterAccount `json:"account,omitempty"`
	RedirectTo      string                 `json:"redirect_to,omitempty"`
	RedirectAfterMs int64                  `json:"redirect_after_ms,omitempty"`
	CloseWindow     bool                   `json:"close_window,omitempty"`
	RestartRequired bool                   `json:"restart_required,omitempty"`
}

// Flow runs the PKCE account-linking handshake
type Flow struct {
	store   SecretStore
	channel Channel
	oauth   *oauth2.Config
	origin  string
	ttl     time.Duration
}

// NewFlow creates a linking flow. origin is the only origin trusted for opener messages.
func NewFlow(cfg config.OAuthConfig, dashboardOrigin string, store SecretStore, channel Channel) *Flow {
	ttl := cfg.HandshakeTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Flow{
		store:   store,
		channel: channel,
		oauth: &oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.CallbackURL,
			Scopes:      cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizeURL,
				TokenURL: cfg.TokenURL,
			},
		},
		origin: utils.NormalizeOrigin(dashboardOrigin),
		ttl:    ttl,
	}
}

// Begin starts a handshake for sessionKey and returns the provider authorization URL.
// A pending handshake for the same session is replaced.
func (f *Flow) Begin(ctx context.Context, sessionKey string, popup bool) (*models.StartOAuthResponse, error) {
	state, err := newStateToken()
	if err != nil {
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	h := Handshake{
		StateToken:   state,
		CodeVerifier: verifier,
		Popup:        popup,
		CreatedAt:    time.Now(),
	}
	if err := f.store.Put(ctx, sessionKey, h, f.ttl); err != nil {
		return nil, fmt.Errorf("failed to save handshake: %w", err)
	}

	return &models.StartOAuthResponse{
		AuthorizationURL: f.oauth.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)),
		Popup:            popup,
		ExpiresIn:        int64(f.ttl.Seconds()),
	}, nil
}

// HandleCallback processes the provider redirect read by the callback page.
// In a popup the parameters are relayed to the opener without exchanging the code;
// otherwise the code is exchanged directly.
func (f *Flow) HandleCallback(ctx context.Context, ex Exchanger, sessionKey string, params models.OAuthCallbackRequest, origin string) *Result {
	msg := Message{Kind: MessageSuccess, Code: params.Code, State: params.State, Origin: origin}
	if params.Error != "" {
		msg = Message{Kind: MessageError, Error: providerError(params), Origin: origin}
	} else if params.Code == "" || params.State == "" {
		msg = Message{Kind: MessageError, Error: MsgMissingParams, Origin: origin}
	}

	if params.InPopup {
		err := f.channel.Post(ctx, sessionKey, msg)
		if err == nil {
			return f.record(&Result{Outcome: OutcomeRelayed, CloseWindow: true}, "relayed")
		}
		// Without a listening opener the popup finishes the handshake itself
		logrus.WithField("session", sessionKey).Warnf("Failed to relay OAuth callback to opener: %v", err)
	}

	return f.finish(ctx, ex, sessionKey, msg)
}

// Receive handles a message relayed by a popup to its opener.
// Messages from any origin other than the dashboard are ignored.
func (f *Flow) Receive(ctx context.Context, ex Exchanger, sessionKey string, msg Message) (*Result, error) {
	if utils.NormalizeOrigin(msg.Origin) != f.origin {
		metrics.OAuthOutcomes.WithLabelValues(string(OutcomeFailed), "untrusted_origin").Inc()
		logrus.WithFields(logrus.Fields{
			"session": sessionKey,
			"origin":  msg.Origin,
		}).Warn("Ignoring OAuth message from untrusted origin")
		return nil, ErrUntrustedOrigin
	}
	return f.finish(ctx, ex, sessionKey, msg), nil
}

func (f *Flow) finish(ctx context.Context, ex Exchanger, sessionKey string, msg Message) *Result {
	if msg.Kind != MessageSuccess {
		// The attempt is over, stale secrets must not validate a later callback
		if _, err := f.store.Take(ctx, sessionKey); err != nil && !errors.Is(err, ErrHandshakeNotFound) {
			logrus.WithField("session", sessionKey).Warnf("Failed to discard OAuth handshake: %v", err)
		}
		text := msg.Error
		if text == "" {
			text = MsgExchangeFailed
		}
		return f.record(failed(text), "provider_error")
	}
	return f.Complete(ctx, ex, sessionKey, msg.Code, msg.State)
}

// Complete validates state against the stored handshake and exchanges the code.
// The handshake is consumed whatever the outcome and the exchange is never retried.
func (f *Flow) Complete(ctx context.Context, ex Exchanger, sessionKey, code, state string) *Result {
	h, err := f.store.Take(ctx, sessionKey)
	if err != nil {
		if !errors.Is(err, ErrHandshakeNotFound) {
			logrus.WithField("session", sessionKey).Errorf("Failed to load OAuth handshake: %v", err)
		}
		return f.record(failed(MsgSessionExpired), "session_expired")
	}

	if code == "" || state == "" {
		return f.record(failed(MsgMissingParams), "missing_params")
	}

	if subtle.ConstantTimeCompare([]byte(h.StateToken), []byte(state)) != 1 {
		logrus.WithField("session", sessionKey).Warn("OAuth state mismatch")
		return f.record(failed(MsgInvalidState), "state_mismatch")
	}

	resp, err := ex.ExchangeOAuthCode(ctx, &models.OAuthExchangeRequest{
		Code:         code,
		CodeVerifier: h.CodeVerifier,
		State:        state,
	})
	if err != nil {
		logrus.WithField("session", sessionKey).Warnf("OAuth code exchange failed: %v", err)
		result := failed(backend.Message(err, MsgExchangeFailed))
		if errors.Is(err, backend.ErrUnauthorized) {
			result.Message = MsgExchangeFailed
		}
		return f.record(result, "exchange_failed")
	}

	message := resp.Message
	if message == "" {
		message = MsgAccountLinked
	}
	account := resp.Account
	reason := "linked"
	if h.Popup {
		reason = "linked_popup"
	}
	logrus.WithFields(logrus.Fields{
		"session":    sessionKey,
		"account_id": account.ID,
		"popup":      h.Popup,
	}).Info("Linked X account")
	return f.record(&Result{
		Outcome:         OutcomeSuccess,
		Message:         message,
		Account:         &account,
		RedirectTo:      accountsPage,
		RedirectAfterMs: successRedirectGap.Milliseconds(),
	}, reason)
}

func (f *Flow) record(r *Result, reason string) *Result {
	metrics.OAuthOutcomes.WithLabelValues(string(r.Outcome), reason).Inc()
	return r
}

func failed(message string) *Result {
	return &Result{
		Outcome:         OutcomeFailed,
		Message:         message,
		RedirectTo:      accountsPage,
		RestartRequired: true,
	}
}

func providerError(params models.OAuthCallbackRequest) string {
	if params.ErrorDescription != "" {
		return params.ErrorDescription
	}
	if params.Error == "access_denied" {
		return MsgProviderDenied
	}
	return params.Error
}
