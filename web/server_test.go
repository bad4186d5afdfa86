package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAgent struct {
	mu     sync.Mutex
	paused bool
	ticks  int
}

func (a *fakeAgent) State() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return json.Marshal(map[string]any{"paused": a.paused, "ticks": a.ticks})
}

func (a *fakeAgent) Pause() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = true
}

func (a *fakeAgent) Resume() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = false
}

func (a *fakeAgent) IsPaused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paused
}

func (a *fakeAgent) tick() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ticks++
}

func startServer(t *testing.T) (*fakeAgent, *Hub, *httptest.Server) {
	t.Helper()
	agent := &fakeAgent{}
	hub := NewHub(agent)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	srv := httptest.NewServer(NewHandler(hub))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return agent, hub, srv
}

func TestServer_StateAndControl(t *testing.T) {
	agent, _, srv := startServer(t)

	resp, err := http.Get(srv.URL + "/state")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"paused": false, "ticks": 0}`, string(body))

	resp, err = http.Post(srv.URL+"/pause", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, agent.IsPaused())

	resp, err = http.Get(srv.URL + "/pause")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/resume", "application/json", nil)
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.False(t, agent.IsPaused())
	assert.JSONEq(t, `{"paused": false}`, string(body))
}

func TestServer_Metrics(t *testing.T) {
	_, _, srv := startServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestHub_BroadcastsToWebsocket(t *testing.T) {
	agent, hub, srv := startServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	_, initial, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"paused": false, "ticks": 0}`, string(initial))

	agent.tick()
	hub.BroadcastFullState()

	_, update, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"paused": false, "ticks": 1}`, string(update))
}

func TestHub_NilIsNoop(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, hub.BroadcastFullState)
}

func TestHub_AttachQueuesStateBeforeShutdown(t *testing.T) {
	hub := NewHub(&fakeAgent{})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	client, ok := hub.attach(nil)
	require.True(t, ok)
	cancel()
	<-hub.done

	initial, open := <-client.send
	require.True(t, open, "initial state is queued before the hub can close the channel")
	assert.JSONEq(t, `{"paused": false, "ticks": 0}`, string(initial))
	_, open = <-client.send
	assert.False(t, open)

	var late *Client
	assert.NotPanics(t, func() { late, ok = hub.attach(nil) })
	assert.False(t, ok)
	assert.Nil(t, late)
}
