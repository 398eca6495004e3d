package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrHandshakeNotFound is returned when no pending handshake exists for a session,
// either because it was never started, already consumed or expired.
var ErrHandshakeNotFound = errors.New("oauth handshake not found")

// Handshake holds the transient secrets of one account-linking attempt
type Handshake struct {
	StateToken   string    `json:"state"`
	CodeVerifier string    `json:"code_verifier"`
	Popup        bool      `json:"popup"`
	CreatedAt    time.Time `json:"created_at"`
}

// SecretStore keeps at most one pending handshake per session.
// Take must read and delete atomically so a handshake is consumed exactly once.
type SecretStore interface {
	Put(ctx context.Context, sessionKey string, h Handshake, ttl time.Duration) error
	Take(ctx context.Context, sessionKey string) (Handshake, error)
}

// newStateToken returns 32 random bytes encoded as hex
func newStateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate state token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
