package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wakie/go-backend/internal/models"
)

func dialWS(t *testing.T, srv *httptest.Server, query string, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readWS(t *testing.T, conn *websocket.Conn) models.WebSocketMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg models.WebSocketMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func setEar(v float64) models.SetEarThresholdPayload {
	return models.SetEarThresholdPayload{Value: &v}
}

func TestWebSocketWelcomeAndPing(t *testing.T) {
	env := newTestEnv(t, false)
	srv := httptest.NewServer(env.handlers.Routes())
	defer srv.Close()

	conn := dialWS(t, srv, "?clientId=dash-1", nil)

	welcome := readWS(t, conn)
	assert.Equal(t, models.MessageWelcome, welcome.Type)
	assert.Equal(t, "dash-1", welcome.ClientID)
	assert.Eventually(t, func() bool { return env.hub.Count() == 1 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(1), env.metrics.GetWebSocketConnections())

	require.NoError(t, conn.WriteJSON(models.WebSocketMessage{Type: models.MessagePing}))
	assert.Equal(t, models.MessagePong, readWS(t, conn).Type)

	require.NoError(t, conn.WriteJSON(models.WebSocketMessage{Type: "FRAME"}))
	assert.Equal(t, models.MessageError, readWS(t, conn).Type)

	conn.Close()
	assert.Eventually(t, func() bool { return env.hub.Count() == 0 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(0), env.metrics.GetWebSocketConnections())
}

func TestWebSocketSetEarThreshold(t *testing.T) {
	env := newTestEnv(t, true)
	srv := httptest.NewServer(env.handlers.Routes())
	defer srv.Close()

	viewer := dialWS(t, srv, "", nil)
	readWS(t, viewer)

	operator := dialWS(t, srv, "", http.Header{controlTokenHeader: []string{testToken}})
	readWS(t, operator)

	require.NoError(t, viewer.WriteJSON(models.WebSocketMessage{
		Type:    models.MessageSetEarThreshold,
		Payload: setEar(0.1),
	}))
	denied := readWS(t, viewer)
	assert.Equal(t, models.MessageError, denied.Type)
	assert.Equal(t, 0.20, env.thresholds.Snapshot().EarThreshold)

	require.NoError(t, operator.WriteJSON(models.WebSocketMessage{
		Type:    models.MessageSetEarThreshold,
		Payload: setEar(0.1),
	}))

	for _, conn := range []*websocket.Conn{operator, viewer} {
		updated := readWS(t, conn)
		require.Equal(t, models.MessageThresholdUpdated, updated.Type)
		payload, ok := updated.Payload.(map[string]interface{})
		require.True(t, ok)
		assert.InDelta(t, 0.1, payload["ear_threshold"], 1e-12)
	}
	assert.InDelta(t, 0.1, env.thresholds.Snapshot().EarThreshold, 1e-12)
}

func TestHubCloseAll(t *testing.T) {
	env := newTestEnv(t, false)
	srv := httptest.NewServer(env.handlers.Routes())
	defer srv.Close()

	a := dialWS(t, srv, "", nil)
	b := dialWS(t, srv, "", nil)
	readWS(t, a)
	readWS(t, b)
	require.Eventually(t, func() bool { return env.hub.Count() == 2 }, time.Second, 10*time.Millisecond)

	env.hub.CloseAll()
	assert.Equal(t, 0, env.hub.Count())
	assert.Equal(t, int64(0), env.metrics.GetWebSocketConnections())

	require.NoError(t, a.SetReadDeadline(time.Now().Add(time.Second)))
	_, _, err := a.ReadMessage()
	assert.Error(t, err)
}

func TestWebSocketRejectsThresholdWithoutValue(t *testing.T) {
	env := newTestEnv(t, false)
	srv := httptest.NewServer(env.handlers.Routes())
	defer srv.Close()

	conn := dialWS(t, srv, "", nil)
	readWS(t, conn)

	for _, raw := range []string{
		`{"type":"SET_EAR_THRESHOLD","payload":{}}`,
		`{"type":"SET_EAR_THRESHOLD","payload":null}`,
		`{"type":"SET_EAR_THRESHOLD"}`,
		`{"type":"SET_EAR_THRESHOLD","payload":{"value":"low"}}`,
	} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
		msg := readWS(t, conn)
		assert.Equal(t, models.MessageError, msg.Type, raw)
	}
	assert.Equal(t, 0.20, env.thresholds.Snapshot().EarThreshold)

	_, saved := env.store.get("driver-1")
	assert.False(t, saved)
}
