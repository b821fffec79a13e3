package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramonehamilton/wishlist-companion/internal/events"
	"github.com/ramonehamilton/wishlist-companion/internal/logging"
)

func TestObserver_Metadata(t *testing.T) {
	obs := NewObserver(nil)

	assert.Equal(t, "WebSocketObserver", obs.Name())
	assert.True(t, obs.ShouldHandle(events.WishlistUpdated))
	assert.True(t, obs.ShouldHandle("anything"))
}

func TestObserver_NilHub(t *testing.T) {
	obs := NewObserver(nil)

	assert.NoError(t, obs.OnEvent(events.Event{Type: events.WishlistDeleted}))
}

func TestObserver_ForwardsThroughDispatcher(t *testing.T) {
	hub := startHub(t)
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	defer server.Close()

	conn, _, err := dial(t, server, nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForClients(t, hub, 1)

	d := events.NewDispatcher(logging.Discard())
	d.Register(NewObserver(hub))
	d.Dispatch(events.Event{
		Type:    events.WishlistUpdated,
		Data:    events.WishlistUpdatedEvent{ID: "w1", Source: "voltron.txt", ItemCount: 2},
		Context: context.Background(),
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var got struct {
		Type string                      `json:"type"`
		Data events.WishlistUpdatedEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(message, &got))
	assert.Equal(t, events.WishlistUpdated, got.Type)
	assert.Equal(t, "w1", got.Data.ID)
	assert.Equal(t, 2, got.Data.ItemCount)
}
