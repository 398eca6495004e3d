package oauth

import (
	"context"
	"errors"
)

// ErrNoOpener is returned when no opener window is listening for a session
var ErrNoOpener = errors.New("no opener window is listening")

// MessageKind distinguishes the two messages a callback popup can send
type MessageKind string

const (
	MessageSuccess MessageKind = "success"
	MessageError   MessageKind = "error"
)

// Message is the payload a callback popup relays to the window that opened it
type Message struct {
	Kind   MessageKind `json:"type"`
	Code   string      `json:"code,omitempty"`
	State  string      `json:"state,omitempty"`
	Error  string      `json:"error,omitempty"`
	Origin string      `json:"-"`
}

// Channel delivers popup messages to the opener of a session
type Channel interface {
	Post(ctx context.Context, sessionKey string, msg Message) error
}

// Broadcaster pushes named events to every stream subscribed to an entity
type Broadcaster interface {
	Broadcast(entityType, entityID, event string, payload interface{}) int
}

// CallbackEvent is the SSE event carrying a relayed popup message
const CallbackEvent = "oauth-callback"

// HubChannel relays popup messages to the opener's event stream
type HubChannel struct {
	hub Broadcaster
}

// NewHubChannel creates a channel on top of an event hub
func NewHubChannel(hub Broadcaster) *HubChannel {
	return &HubChannel{hub: hub}
}

// Post broadcasts msg to the user streams of sessionKey
func (c *HubChannel) Post(ctx context.Context, sessionKey string, msg Message) error {
	if c.hub.Broadcast("user", sessionKey, CallbackEvent, msg) == 0 {
		return ErrNoOpener
	}
	return nil
}
