package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/contrib/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/browser-chat/modules/presence"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any)  {}
func (m *mockLogger) Warn(_ string, _ ...any)  {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger {
	return m
}
func (m *mockLogger) WithModule(_ string) types.Logger {
	return m
}
func (m *mockLogger) WithError(_ error) types.Logger {
	return m
}

// fakeConn records frames written by the write pump.
type fakeConn struct {
	mu       sync.Mutex
	frames   [][]byte
	closed   bool
	sawClose bool
	writeErr error
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	switch messageType {
	case websocket.TextMessage:
		f.frames = append(f.frames, data)
	case websocket.CloseMessage:
		f.sawClose = true
	}
	return nil
}

func (f *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) envelopes(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, frame := range f.frames {
		var env map[string]any
		require.NoError(t, json.Unmarshal(frame, &env))
		out = append(out, env)
	}
	return out
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	h := NewHub(&mockLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)
	t.Cleanup(func() {
		cancel()
		h.Wait()
	})
	return h
}

// flush waits until every previously queued delivery has been handled.
func flush(h *Hub) {
	probe := NewClient("__probe__", &fakeConn{}, 1)
	h.Register(probe)
	h.Unregister(probe)
}

func TestHub_DeliversToRecipientsOnly(t *testing.T) {
	h := startHub(t)
	a, b := &fakeConn{}, &fakeConn{}
	ca, cb := NewClient("a", a, 8), NewClient("b", b, 8)
	require.True(t, h.Register(ca))
	require.True(t, h.Register(cb))
	go ca.WritePump()
	go cb.WritePump()

	h.Deliver(presence.Emission{
		Recipients: []string{"a", "ghost"},
		Event:      presence.EventRoomJoined,
		Payload:    presence.RoomJoinedPayload{Room: "General"},
	})
	flush(h)
	h.Unregister(ca)
	h.Unregister(cb)
	<-ca.Done()
	<-cb.Done()

	envs := a.envelopes(t)
	require.Len(t, envs, 1)
	assert.Equal(t, "room_joined", envs[0]["event"])
	assert.Equal(t, map[string]any{"room": "General"}, envs[0]["data"])
	assert.Empty(t, b.envelopes(t))
	assert.True(t, a.sawClose)
	assert.True(t, a.closed)
}

func TestHub_PreservesOrder(t *testing.T) {
	h := startHub(t)
	conn := &fakeConn{}
	c := NewClient("a", conn, 64)
	require.True(t, h.Register(c))
	go c.WritePump()

	for i := 0; i < 20; i++ {
		h.Deliver(presence.Emission{
			Recipients: []string{"a"},
			Event:      presence.EventStatus,
			Payload:    map[string]int{"n": i},
		})
	}
	flush(h)
	h.Unregister(c)
	<-c.Done()

	envs := conn.envelopes(t)
	require.Len(t, envs, 20)
	for i, env := range envs {
		assert.Equal(t, float64(i), env["data"].(map[string]any)["n"])
	}
}

func TestHub_DropsSlowClient(t *testing.T) {
	h := startHub(t)
	conn := &fakeConn{}
	c := NewClient("slow", conn, 2) // no write pump: the buffer never drains

	require.True(t, h.Register(c))
	for i := 0; i < 3; i++ {
		h.Deliver(presence.Emission{Recipients: []string{"slow"}, Event: presence.EventActiveUsers})
	}
	flush(h)

	assert.False(t, h.HasClient("slow"))
	assert.Equal(t, 0, h.ClientCount())

	// The pump drains what was buffered, then closes the socket.
	go c.WritePump()
	<-c.Done()
	assert.Len(t, conn.envelopes(t), 2)
	assert.True(t, conn.closed)
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	h := startHub(t)
	c := NewClient("a", &fakeConn{}, 1)
	require.True(t, h.Register(c))

	h.Unregister(c)
	h.Unregister(c)
	flush(h)
	assert.Equal(t, 0, h.ClientCount())
}

func TestHub_WritePumpStopsOnWriteError(t *testing.T) {
	h := startHub(t)
	conn := &fakeConn{writeErr: errors.New("broken pipe")}
	c := NewClient("a", conn, 4)
	require.True(t, h.Register(c))
	go c.WritePump()

	h.Deliver(presence.Emission{Recipients: []string{"a"}, Event: presence.EventActiveUsers})

	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Fatal("write pump did not stop")
	}
	assert.True(t, conn.closed)
	h.Unregister(c)
}

func TestHub_StopClosesClients(t *testing.T) {
	h := NewHub(&mockLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	conn := &fakeConn{}
	c := NewClient("a", conn, 4)
	require.True(t, h.Register(c))
	go c.WritePump()

	cancel()
	h.Wait()
	<-c.Done()

	assert.True(t, conn.closed)
	assert.False(t, h.Register(NewClient("b", &fakeConn{}, 1)))
	h.Unregister(c) // must not block after stop
	h.Deliver(presence.Emission{Recipients: []string{"a"}, Event: presence.EventActiveUsers})
}

func TestBroadcastModule_Lifecycle(t *testing.T) {
	m := NewModule(0, &mockLogger{})
	assert.Equal(t, "broadcast", m.Name())
	assert.Equal(t, DefaultSendBuffer, m.SendBuffer())
	assert.False(t, m.Health(context.Background()).Healthy)

	require.NoError(t, m.Start(context.Background()))
	health := m.Health(context.Background())
	assert.True(t, health.Healthy)
	assert.Equal(t, 0, health.Details["connected_clients"])

	require.NoError(t, m.Stop(context.Background()))
}
