package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ReyCannavaro/urbangrow/events"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastsStoredReadings(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return env.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	resp, err := http.Post(srv.URL+"/api/update-sensor", "application/json",
		bytes.NewBufferString(`{"temperature": 26.1, "ph": 7.2, "ldrValue": 512}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev struct {
		Type events.Type `json:"type"`
		Data readingBody `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, events.ReadingCreated, ev.Type)
	assert.Equal(t, 512, ev.Data.LDRValue)
	assert.Equal(t, 26.1, ev.Data.Temperature)
}

func TestHubDropsClosedClients(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return env.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return env.hub.Clients() == 0 }, time.Second, 10*time.Millisecond)

	env.hub.Close()
	assert.Zero(t, env.hub.Clients())
}

func TestHubPublishDoesNotWaitForStalledClient(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	// stalled never reads, so its socket fills up.
	stalled, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { stalled.Close() })
	require.Eventually(t, func() bool { return env.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	big := events.New(events.ReadingCreated, strings.Repeat("x", 256<<10))
	start := time.Now()
	for i := 0; i < 100; i++ {
		require.NoError(t, env.hub.Publish(context.Background(), big))
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, env.hub.Clients(), "overflowing client is dropped")

	reader, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { reader.Close() })
	require.Eventually(t, func() bool { return env.hub.Clients() == 1 }, time.Second, 10*time.Millisecond)

	start = time.Now()
	rec := env.do(http.MethodPost, "/api/update-sensor", `{"temperature": 26.1, "ph": 7.2, "ldrValue": 1}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Less(t, time.Since(start), time.Second)

	reader.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := reader.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"reading.created"`)
}
