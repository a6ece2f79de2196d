package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/chase-arena/internal/eventbus"
	"github.com/annel0/chase-arena/internal/game"
)

type rawStreamMessage struct {
	Type    string             `json:"type"`
	Data    json.RawMessage    `json:"data"`
	Event   *eventbus.Envelope `json:"event"`
	Message string             `json:"message"`
}

func dialStream(t *testing.T, env *testEnv, id, token string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(env.server.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + id + "/stream?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil reads messages until match returns true or the deadline passes.
func readUntil(t *testing.T, conn *websocket.Conn, match func(rawStreamMessage) bool) rawStreamMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg rawStreamMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func TestStreamSendsSnapshots(t *testing.T) {
	env := newTestEnv(t)
	id, token := env.createSession(t, "normal")
	conn := dialStream(t, env, id, token)

	msg := readUntil(t, conn, func(m rawStreamMessage) bool { return m.Type == msgSnapshot })
	var snap game.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	assert.Equal(t, id, snap.SessionID)
	assert.False(t, snap.Started)
}

func TestStreamCommands(t *testing.T) {
	env := newTestEnv(t)
	id, token := env.createSession(t, "normal")
	conn := dialStream(t, env, id, token)

	require.NoError(t, conn.WriteJSON(StreamCommand{Type: "key", Key: "d", Down: true}))
	ack := readUntil(t, conn, func(m rawStreamMessage) bool { return m.Type == msgAck })
	assert.JSONEq(t, `{"key":"d","accepted":true}`, string(ack.Data))

	require.NoError(t, conn.WriteJSON(StreamCommand{Type: "start"}))
	var started bool
	var event *eventbus.Envelope
	readUntil(t, conn, func(m rawStreamMessage) bool {
		switch m.Type {
		case msgSnapshot:
			var snap game.Snapshot
			require.NoError(t, json.Unmarshal(m.Data, &snap))
			started = started || (snap.Started && snap.Input.Right)
		case msgEvent:
			event = m.Event
		}
		return started && event != nil
	})
	assert.Equal(t, eventbus.EventSessionStarted, event.EventType)
	assert.Equal(t, id, event.CorrelationID)

	require.NoError(t, conn.WriteJSON(StreamCommand{Type: "jump"}))
	bad := readUntil(t, conn, func(m rawStreamMessage) bool { return m.Type == msgError })
	assert.Contains(t, bad.Message, "jump")
}

func TestStreamClosesWhenSessionRemoved(t *testing.T) {
	env := newTestEnv(t)
	id, token := env.createSession(t, "normal")
	conn := dialStream(t, env, id, token)
	readUntil(t, conn, func(m rawStreamMessage) bool { return m.Type == msgSnapshot })

	require.NoError(t, env.manager.Remove(context.Background(), id))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg rawStreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
			return
		}
	}
}

func TestStreamRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	id, _ := env.createSession(t, "normal")
	srv := httptest.NewServer(env.server.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/sessions/" + id + "/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
