package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/katatrina/backoffice-BE/internal/model"
)

const (
	sseEventSnapshot    = "snapshot"
	sseEventUnreadCount = "unread_count"
	sseHeartbeat        = 30 * time.Second
)

// latest holds the newest value delivered by a feed callback until the
// handler writes it. Older undelivered values are replaced.
type latest[V any] chan V

func (l latest[V]) put(v V) {
	for {
		select {
		case l <- v:
			return
		default:
		}
		select {
		case <-l:
		default:
		}
	}
}

func (server *Server) streamNotifications(c *gin.Context) {
	updates := make(latest[[]model.Notification], 1)
	unsubscribe := server.svc.Feed.SubscribeLive(currentUser(c).UserID(), updates.put)
	defer unsubscribe()

	streamEvents[[]model.Notification](c, sseEventSnapshot, updates)
}

func (server *Server) streamUnreadCount(c *gin.Context) {
	updates := make(latest[int], 1)
	unsubscribe := server.svc.Feed.SubscribeUnreadCount(currentUser(c).UserID(), updates.put)
	defer unsubscribe()

	streamEvents[int](c, sseEventUnreadCount, updates)
}

// streamEvents writes every value of updates as a Server-Sent Event until
// the client goes away.
func streamEvents[V any](c *gin.Context, eventType string, updates <-chan V) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case value := <-updates:
			data, err := json.Marshal(value)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", eventType, data)
			c.Writer.Flush()
		case <-heartbeat.C:
			fmt.Fprint(c.Writer, ": ping\n\n")
			c.Writer.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}
