package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub(discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub, cancel
}

func TestHub_BroadcastToRoom(t *testing.T) {
	hub, _ := startHub(t)
	viewer := NewClient(hub, nil, MatchRoom(1))
	other := NewClient(hub, nil, MatchRoom(2))
	require.True(t, hub.Join(viewer))
	require.True(t, hub.Join(other))
	require.Eventually(t, func() bool { return hub.RoomSize(MatchRoom(1)) == 1 && hub.RoomSize(MatchRoom(2)) == 1 }, time.Second, 5*time.Millisecond)

	hub.BroadcastToRoom(MatchRoom(1), WebSocketMessage{Type: MessageMatchState, RoomID: MatchRoom(1), Payload: map[string]int{"id": 1}})

	select {
	case raw := <-viewer.Send:
		var msg struct {
			Type   string         `json:"type"`
			RoomID string         `json:"room_id"`
			Data   map[string]int `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, MessageMatchState, msg.Type)
		assert.Equal(t, "match_1", msg.RoomID)
		assert.Equal(t, 1, msg.Data["id"])
	case <-time.After(time.Second):
		t.Fatal("viewer did not receive broadcast")
	}
	assert.Empty(t, other.Send, "other rooms must not receive the message")
}

func TestHub_UnregisterClosesClient(t *testing.T) {
	hub, _ := startHub(t)
	viewer := NewClient(hub, nil, MatchRoom(3))
	require.True(t, hub.Join(viewer))
	hub.Leave(viewer)

	require.Eventually(t, func() bool { return hub.RoomSize(MatchRoom(3)) == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-viewer.Send
	assert.False(t, open)
	assert.False(t, viewer.Enqueue([]byte("late")))
}

func TestHub_ShutdownClosesClients(t *testing.T) {
	hub, cancel := startHub(t)
	viewer := NewClient(hub, nil, MatchRoom(4))
	require.True(t, hub.Join(viewer))
	require.Eventually(t, func() bool { return hub.RoomSize(MatchRoom(4)) == 1 }, time.Second, 5*time.Millisecond)

	cancel()

	require.Eventually(t, func() bool {
		viewer.mu.Lock()
		defer viewer.mu.Unlock()
		return viewer.closed
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, hub.RoomSize(MatchRoom(4)))
}

func TestHub_JoinAfterShutdown(t *testing.T) {
	hub := NewHub(discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	viewer := NewClient(hub, nil, MatchRoom(5))
	joined := make(chan bool, 1)
	go func() {
		ok := hub.Join(viewer)
		hub.Leave(viewer)
		joined <- ok
	}()

	select {
	case ok := <-joined:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Join or Leave blocked on a stopped hub")
	}
	assert.Zero(t, hub.RoomSize(MatchRoom(5)))
}

func TestClient_EnqueueFullBuffer(t *testing.T) {
	c := NewClient(nil, nil, "room")
	for i := 0; i < sendBuffer; i++ {
		require.True(t, c.Enqueue([]byte("m")))
	}
	assert.False(t, c.Enqueue([]byte("overflow")))
	assert.NotEmpty(t, c.ID)
}
