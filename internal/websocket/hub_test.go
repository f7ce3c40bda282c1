package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn satisfies Connection without a network peer.
type fakeConn struct {
	closed chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{closed: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, assert.AnError
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error { return nil }
func (f *fakeConn) SetReadLimit(int64)                              {}
func (f *fakeConn) SetReadDeadline(time.Time) error                 { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error                { return nil }
func (f *fakeConn) SetPongHandler(func(string) error)               {}
func (f *fakeConn) RemoteAddr() string                              { return "test:0" }

func (f *fakeConn) Close() error {
	select {
	case <-f.closed:
	default:
		close(f.closed)
	}
	return nil
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func registerClient(t *testing.T, hub *Hub) *Client {
	t.Helper()
	client := NewClientWithConnection(hub, newFakeConn(), nil)
	hub.register <- client
	waitFor(t, func() bool { return hub.ClientCount() == 1 })
	return client
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition not met in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestHub_RegisterSendsConnectionMessage(t *testing.T) {
	hub := startHub(t)
	client := registerClient(t, hub)

	select {
	case raw := <-client.send:
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, TypeConnection, msg["type"])
	case <-time.After(2 * time.Second):
		t.Fatal("no connection message received")
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := startHub(t)
	client := registerClient(t, hub)

	hub.unregister <- client
	waitFor(t, func() bool { return hub.ClientCount() == 0 })

	// The send channel is closed on unregister.
	waitFor(t, func() bool {
		for {
			select {
			case _, ok := <-client.send:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	})
}

func TestHub_BroadcastTransformComplete(t *testing.T) {
	hub := startHub(t)
	client := registerClient(t, hub)
	drainOne(t, client) // connection message

	hub.BroadcastTransformComplete("ds-1", map[string]int{"totalRowsRemoved": 2})

	raw := receiveOne(t, client)
	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, TypeTransformComplete, msg["type"])

	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "ds-1", data["dataset_id"])
	assert.NotEmpty(t, msg["timestamp"])
}

func TestHub_BroadcastChartUpdate(t *testing.T) {
	hub := startHub(t)
	client := registerClient(t, hub)
	drainOne(t, client)

	hub.BroadcastChartUpdate("ds-1", map[string]string{"title": "按车间分类"})

	raw := receiveOne(t, client)
	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, TypeChartUpdate, msg["type"])
}

func TestHub_StartIsIdempotent(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	hub.Start()
	hub.Stop()
}

func drainOne(t *testing.T, client *Client) {
	t.Helper()
	select {
	case <-client.send:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a message to drain")
	}
}

func receiveOne(t *testing.T, client *Client) []byte {
	t.Helper()
	select {
	case raw := <-client.send:
		return raw
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
		return nil
	}
}
