package websocket

import (
	"github.com/ramonehamilton/wishlist-companion/internal/events"
)

// Observer forwards domain events to WebSocket clients.
type Observer struct {
	hub *Hub
}

// NewObserver creates an observer that broadcasts every event on hub.
func NewObserver(hub *Hub) *Observer {
	return &Observer{hub: hub}
}

func (o *Observer) OnEvent(event events.Event) error {
	if o.hub == nil {
		return nil
	}
	o.hub.BroadcastEvent(Event{Type: event.Type, Data: event.Data})
	return nil
}

func (o *Observer) Name() string { return "WebSocketObserver" }

func (o *Observer) ShouldHandle(string) bool { return true }

var _ events.Observer = (*Observer)(nil)
