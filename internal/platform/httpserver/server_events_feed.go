package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"meridian/internal/platform/messaging"
	"meridian/internal/shared/events"
)

const feedWriteTimeout = 5 * time.Second

// EventsFeed fans domain events out to websocket subscribers. It attaches to
// the event bus as one more consumer group, so the feed sees exactly the
// envelopes the outbox relay publishes.
type EventsFeed struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewEventsFeed(logger *slog.Logger) *EventsFeed {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventsFeed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
	}
}

// Start subscribes the feed to the given topic. Broadcasting stops when ctx
// is cancelled.
func (f *EventsFeed) Start(ctx context.Context, bus *messaging.Kafka, topic string) error {
	return bus.Subscribe(ctx, topic, "httpserver-events-feed", func(ctx context.Context, event events.Envelope) error {
		f.broadcast(event)
		return nil
	})
}

func (f *EventsFeed) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Warn("websocket upgrade failed",
			"event", "events_feed_upgrade_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"error", err.Error(),
		)
		return
	}

	f.mu.Lock()
	f.conns[conn] = struct{}{}
	f.mu.Unlock()

	f.logger.Info("events feed subscriber connected",
		"event", "events_feed_connected",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"remote_addr", conn.RemoteAddr().String(),
	)

	// Drain the read side so close frames and pings are processed; the feed
	// is broadcast-only and discards inbound messages.
	go func() {
		defer f.drop(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (f *EventsFeed) broadcast(event events.Envelope) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for conn := range f.conns {
		_ = conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
		if err := conn.WriteJSON(event); err != nil {
			delete(f.conns, conn)
			_ = conn.Close()
			f.logger.Warn("events feed subscriber dropped",
				"event", "events_feed_dropped",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"event_id", event.EventID,
				"error", err.Error(),
			)
		}
	}
}

func (f *EventsFeed) drop(conn *websocket.Conn) {
	f.mu.Lock()
	_, present := f.conns[conn]
	delete(f.conns, conn)
	f.mu.Unlock()

	if present {
		_ = conn.Close()
	}
}
