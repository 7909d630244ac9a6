package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

const sseKeepAlive = 15 * time.Second

func withStreamAuth(auth, stream fiber.Handler) []fiber.Handler {
	if auth == nil {
		return []fiber.Handler{stream}
	}
	return []fiber.Handler{auth, stream}
}

func setSSEHeaders(c *fiber.Ctx) {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no") // nginx
}

// writeSSE writes one event and flushes; a flush error means the client is gone.
func writeSSE(w *bufio.Writer, event string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return w.Flush()
}

// streamSSE sends initial, then every value from updates until the client
// disconnects or updates is closed. cancel is always called.
func streamSSE[T any](c *fiber.Ctx, event string, initial T, updates <-chan T, cancel func()) error {
	setSSEHeaders(c)
	done := c.Context().Done()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		if err := writeSSE(w, event, initial); err != nil {
			return
		}

		ticker := time.NewTicker(sseKeepAlive)
		defer ticker.Stop()

		for {
			select {
			case v, ok := <-updates:
				if !ok {
					return
				}
				if err := writeSSE(w, event, v); err != nil {
					return
				}
			case <-ticker.C:
				w.WriteString(":\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	})
	return nil
}
