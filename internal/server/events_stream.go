package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/woodid012/renew-asset-platform-sub004/internal/events"
)

// EventsStreamHandler streams platform events to websocket clients: run
// lifecycle, price updates, backup completions.
type EventsStreamHandler struct {
	hub *events.Hub
	log zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler
func NewEventsStreamHandler(hub *events.Hub, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		hub: hub,
		log: log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/stream by upgrading to a websocket and
// forwarding hub events until the client disconnects.
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// The API is already open CORS-wise; the stream matches that
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	ch, cancel := h.hub.Subscribe()
	defer cancel()

	h.log.Info().Msg("Client connected to event stream")

	ctx := r.Context()
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Info().Msg("Client disconnected from event stream")
			conn.Close(websocket.StatusNormalClosure, "")
			return

		case event, ok := <-ch:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "hub closed")
				return
			}
			writeCtx, done := context.WithTimeout(ctx, 5*time.Second)
			err := wsjson.Write(writeCtx, conn, event)
			done()
			if err != nil {
				h.log.Debug().Err(err).Msg("Websocket write failed, dropping client")
				return
			}

		case <-heartbeat.C:
			if err := conn.Ping(ctx); err != nil {
				h.log.Debug().Err(err).Msg("Websocket ping failed, dropping client")
				return
			}
		}
	}
}
