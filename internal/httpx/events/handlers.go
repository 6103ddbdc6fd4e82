// Package events streams cache invalidations to the browser over server-sent events,
// so open views re-issue their reads after a mutation, local or on another replica.
package events

import (
	"bufio"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"fontier-admin/internal/logx"
	qc "fontier-admin/internal/querycache"
)

var eventsLogger = logx.GetScope("httpx.events")

// DefaultHeartbeat keeps idle streams open through proxies.
const DefaultHeartbeat = 25 * time.Second

// Message is the data line of one "invalidate" event.
type Message struct {
	ID       string    `json:"id"`
	Op       string    `json:"op"`
	Key      string    `json:"key"`
	Kind     string    `json:"kind"`
	Param    string    `json:"param,omitempty"`
	Wildcard bool      `json:"wildcard,omitempty"`
	At       time.Time `json:"at"`
}

func messageOf(ev qc.Event) Message {
	return Message{
		ID:       ev.ID,
		Op:       ev.Op,
		Key:      ev.Dep.String(),
		Kind:     ev.Dep.Key.Kind,
		Param:    ev.Dep.Key.Param,
		Wildcard: ev.Dep.Wildcard,
		At:       ev.At,
	}
}

// Mount registers GET /events on r.
func Mount(r fiber.Router, cache *qc.Cache, heartbeat time.Duration) {
	r.Get("/events", Handler(cache, heartbeat))
}

// Handler serves one SSE connection. ?kinds=fonts,libraries limits the stream to
// those query kinds. Slow readers drop events rather than block mutations.
//
//	GET /api/v1/events
func Handler(cache *qc.Cache, heartbeat time.Duration) fiber.Handler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return func(c *fiber.Ctx) error {
		kinds := lo.Compact(lo.Map(strings.Split(c.Query("kinds"), ","), func(s string, _ int) string {
			return strings.TrimSpace(s)
		}))

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		ch := make(chan qc.Event, 16)
		unsubscribe := cache.Subscribe(func(ev qc.Event) {
			if len(kinds) > 0 && !lo.Contains(kinds, ev.Dep.Key.Kind) {
				return
			}
			select {
			case ch <- ev:
			default:
				eventsLogger.Debug("sse subscriber slow, event dropped", zap.String("key", ev.Dep.String()))
			}
		})
		done := c.Context().Done()

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer unsubscribe()

			_, _ = w.WriteString(": connected\n\n")
			if err := w.Flush(); err != nil {
				return
			}
			ticker := time.NewTicker(heartbeat)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					_, _ = w.WriteString(": ping\n\n")
				case ev := <-ch:
					data, err := json.Marshal(messageOf(ev))
					if err != nil {
						continue
					}
					_, _ = w.WriteString("id: " + ev.ID + "\nevent: invalidate\ndata: ")
					_, _ = w.Write(data)
					_, _ = w.WriteString("\n\n")
				}
				// a failed flush means the client went away
				if err := w.Flush(); err != nil {
					return
				}
			}
		})
		return nil
	}
}
