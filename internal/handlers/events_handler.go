package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/onegreenvn/xreacher-gateway/internal/services"
	"github.com/sirupsen/logrus"
)

const heartbeatInterval = 25 * time.Second

type EventsHandler struct {
	sseHub *services.SSEHub
}

func NewEventsHandler(sseHub *services.SSEHub) *EventsHandler {
	return &EventsHandler{sseHub: sseHub}
}

// StreamEvents godoc
// @Summary Stream dashboard events via Server-Sent Events (SSE)
// @Description Delivers oauth-callback, oauth-result and targeting-progress events of the caller.
// @Description EventSource cannot set headers, so the token may be passed as access_token.
// @Tags events
// @Produce text/event-stream
// @Security BearerAuth
// @Param access_token query string false "Bearer token"
// @Success 200 "SSE stream"
// @Router /api/v1/events/stream [get]
func (h *EventsHandler) StreamEvents(c *gin.Context) {
	userID := c.MustGet("user_id").(string)
	streamID := uuid.NewString()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	clientChan := h.sseHub.RegisterClient("user", userID)
	defer h.sseHub.UnregisterClient("user", userID, clientChan)

	c.SSEvent("connected", gin.H{
		"stream_id": streamID,
		"message":   "Connected to event stream",
	})
	c.Writer.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	log := logrus.WithFields(logrus.Fields{"user_id": userID, "stream_id": streamID})
	for {
		select {
		case <-c.Request.Context().Done():
			log.Debug("SSE client disconnected")
			return
		case <-heartbeat.C:
			h.sseHub.SendHeartbeat("user", userID)
		case message, ok := <-clientChan:
			if !ok {
				return
			}
			if _, err := c.Writer.Write(message); err != nil {
				log.Errorf("Failed to write SSE message: %v", err)
				return
			}
			c.Writer.Flush()
		}
	}
}
