package api

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
)

// StreamFacilities handles GET /api/facilities/stream: a long-lived SSE
// connection that receives a "connected" event, an immediate full snapshot,
// an "update" event on every occupancy-affecting transition, and a comment
// heartbeat so intermediary proxies keep the connection open.
func (h *Handler) StreamFacilities(c *gin.Context) {
	hub := h.live.Hub()
	id, updates := hub.Subscribe()
	defer hub.Unsubscribe(id)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.SSEvent("connected", gin.H{"subscriber_id": id})
	c.Writer.Flush()

	// New viewers get the current snapshot right away rather than waiting
	// for the next transition.
	if snapshot, err := h.live.Snapshot(c.Request.Context()); err == nil {
		c.SSEvent("update", snapshot)
		c.Writer.Flush()
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			// Client disconnected; deregistration happens in the deferred
			// Unsubscribe so the hub never writes to a dead connection.
			return
		case payload, ok := <-updates:
			if !ok {
				return
			}
			c.SSEvent("update", json.RawMessage(payload))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": heartbeat\n\n")
			c.Writer.Flush()
		}
	}
}
