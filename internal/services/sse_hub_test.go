package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSSEHubBroadcast(t *testing.T) {
	hub := NewSSEHub()

	assert.Equal(t, 0, hub.Broadcast("user", "7", "oauth-callback", map[string]string{"type": "success"}))

	ch := hub.RegisterClient("user", "7")
	other := hub.RegisterClient("user", "8")
	defer hub.UnregisterClient("user", "8", other)

	delivered := hub.Broadcast("user", "7", "oauth-callback", map[string]string{"type": "success"})
	assert.Equal(t, 1, delivered)
	assert.Equal(t, "event: oauth-callback\ndata: {\"type\":\"success\"}\n\n", string(<-ch))
	assert.Empty(t, other)

	hub.UnregisterClient("user", "7", ch)
	hub.UnregisterClient("user", "7", ch)
	assert.Equal(t, 0, hub.GetClientCount("user", "7"))
}

func TestSSEHubSkipsFullClients(t *testing.T) {
	hub := NewSSEHub()
	ch := hub.RegisterClient("user", "7")
	defer hub.UnregisterClient("user", "7", ch)

	for i := 0; i < cap(ch); i++ {
		assert.Equal(t, 1, hub.Broadcast("user", "7", "targeting-progress", i))
	}
	assert.Equal(t, 0, hub.Broadcast("user", "7", "targeting-progress", "dropped"))
}
