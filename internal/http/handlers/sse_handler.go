// SSE HTTP handlers.
//
//   - GET    /sse/events   (long-lived notification stream)
//   - GET    /sse/stats    (registry snapshot for debugging)
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/wa-handoff-panel/internal/http/middleware"
	"github.com/tbourn/wa-handoff-panel/internal/sse"
)

// StatsResponse wraps the SSE registry snapshot.
type StatsResponse struct {
	Success   bool      `json:"success"`
	Stats     sse.Stats `json:"stats"`
	Timestamp time.Time `json:"timestamp"`
}

// Events godoc
// @ID          sseEvents
// @Summary     Open the notification stream
// @Description Server-Sent Events stream of connected, heartbeat, new_message, chat_status_changed and chat_updated events.
// @Description Browsers cannot set headers on EventSource, so the session token may be passed as ?token=.
// @Tags        Events
// @Produce     text/event-stream
//
// @Param       token  query  string  false "Session token"
//
// @Success     200  {string} string "event stream"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     503  {object} handlers.ErrorResponse "Server shutting down"
// @Router      /sse/events [get]
func (h *Handlers) Events(c *gin.Context) {
	u, found := middleware.UserFrom(c)
	if !found {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "no token, authorization denied")
		return
	}

	hdr := c.Writer.Header()
	hdr.Set("Content-Type", "text/event-stream")
	hdr.Set("Cache-Control", "no-cache")
	hdr.Set("Connection", "keep-alive")
	hdr.Set("X-Accel-Buffering", "no")

	// The server-wide WriteTimeout would cut the stream; heartbeats keep it honest.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	err := h.hub.Serve(c.Request.Context(), u.Identity(), c.Writer)
	switch {
	case errors.Is(err, sse.ErrClosed):
		if !c.Writer.Written() {
			hdr.Del("Content-Type")
			hdr.Del("X-Accel-Buffering")
			fail(c, http.StatusServiceUnavailable, ErrCodeUnavailable, "notification server is shutting down")
		}
	case err != nil:
		middleware.LoggerFrom(c).Debug().Err(err).Msg("sse stream ended")
	}
}

// Stats godoc
// @ID          sseStats
// @Summary     SSE connection statistics
// @Description Lists the open notification sessions.
// @Tags        Events
// @Produce     json
// @Security    SessionToken
//
// @Success     200  {object} handlers.StatsResponse
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Router      /sse/stats [get]
func (h *Handlers) Stats(c *gin.Context) {
	ok(c, http.StatusOK, StatsResponse{
		Success:   true,
		Stats:     h.hub.Stats(),
		Timestamp: time.Now().UTC(),
	})
}
