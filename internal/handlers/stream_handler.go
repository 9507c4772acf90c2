package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DefaultHeartbeatInterval keeps idle event streams open through proxies
const DefaultHeartbeatInterval = 15 * time.Second

// StreamHandler pushes cart and review panel changes to the browser as
// server-sent events
type StreamHandler struct {
	heartbeat time.Duration
	logger    *logrus.Entry
}

// NewStreamHandler creates a stream handler. heartbeat <= 0 uses the default.
func NewStreamHandler(heartbeat time.Duration, logger *logrus.Entry) *StreamHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	return &StreamHandler{
		heartbeat: heartbeat,
		logger:    logger.WithField("component", "handlers.stream"),
	}
}

// Stream godoc
// @Summary Stream cart and review panel updates
// @Description Emits "cart" and "reviews" events with the full view after every change
// @Tags stream
// @Produce text/event-stream
// @Success 200 {string} string "event stream"
// @Router /stream [get]
func (h *StreamHandler) Stream(c *gin.Context) {
	sf, ok := storefront(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	carts := sf.Cart.Subscribe(ctx)
	reviews := sf.Reviews.Subscribe(ctx)
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	h.logger.WithField("session_id", sf.ID).Debug("Event stream opened")
	c.SSEvent("cart", sf.Cart.View())
	c.SSEvent("reviews", sf.Reviews.View())
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case view, ok := <-carts:
			if !ok {
				return false
			}
			c.SSEvent("cart", view)
		case view, ok := <-reviews:
			if !ok {
				return false
			}
			c.SSEvent("reviews", view)
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"time": time.Now().UTC()})
		}
		return true
	})
	h.logger.WithField("session_id", sf.ID).Debug("Event stream closed")
}
