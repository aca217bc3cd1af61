package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"
)

// transcriptHandler handles GET /v1/os/agents/transcript?since=<cursor>:
// the catch-up view any client (a fresh page load, a reconnecting
// stream) uses to fill the gap before subscribing live.
func (s *Server) transcriptHandler(c *echo.Context) error {
	since := int64(0)
	if q := c.QueryParam("since"); q != "" {
		if v, err := parsePositiveInt(q); err == nil {
			since = int64(v)
		}
	}

	items, err := s.store.TranscriptSince(c.Request().Context(), since)
	if err != nil {
		return mapServiceError(err)
	}

	cursor := since
	if len(items) > 0 {
		cursor = items[len(items)-1].Cursor
	}
	return c.JSON(http.StatusOK, transcriptResponse{Cursor: cursor, Items: items})
}

// ssePollInterval bounds how stale a live SSE subscriber's view of the
// transcript can be: spec.md §4.9 only promises at-least-once delivery,
// not a specific latency bound.
const ssePollInterval = 500 * time.Millisecond

// sseHandler handles GET /v1/stream/os: a Server-Sent Events surface
// over the transcript, catching up from ?since= (or the point of
// connection) and then polling the store for newly committed items.
// This is deliberately store-backed rather than Broadcaster-backed: a
// poll never misses an item even if the subscriber is slow, at the cost
// of up to ssePollInterval of added latency.
func (s *Server) sseHandler(c *echo.Context) error {
	req := c.Request()
	resp := c.Response()

	resp.Header().Set("Content-Type", "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	cursor := int64(0)
	if q := c.QueryParam("since"); q != "" {
		if v, err := parsePositiveInt(q); err == nil {
			cursor = int64(v)
		}
	} else if latest, err := s.store.LatestCursor(req.Context()); err == nil {
		cursor = latest
	}

	ticker := time.NewTicker(ssePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-req.Context().Done():
			return nil
		case <-ticker.C:
			items, err := s.store.TranscriptSince(req.Context(), cursor)
			if err != nil {
				continue
			}
			for _, item := range items {
				payload, err := json.Marshal(item)
				if err != nil {
					continue
				}
				fmt.Fprintf(resp, "event: os.%s\ndata: %s\n\n", item.Kind, payload)
				cursor = item.Cursor
			}
			if len(items) > 0 {
				resp.Flush()
			}
		}
	}
}
