package livereload

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/htmlinject/internal/inject"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	return conn
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, 5*time.Second, 10*time.Millisecond)
}

func TestHubBroadcastsReloadForModifiedPasses(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Shutdown()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close(websocket.StatusNormalClosure, "")
	waitForClients(t, hub, 1)

	hub.PassFinished([]inject.Result{{Target: "index.html", Modified: false}})
	hub.PassFinished([]inject.Result{
		{Target: "index.html", Modified: true},
		{Target: "admin.html", Modified: false},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "reload", msg.Type)
	assert.Equal(t, []string{"index.html"}, msg.Targets)
	assert.False(t, msg.Timestamp.IsZero())
}

func TestHubForgetsClosedConnections(t *testing.T) {
	hub := NewHub(nil)
	defer hub.Shutdown()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, "bye"))
	waitForClients(t, hub, 0)
}

func TestHubShutdownDisconnects(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv)
	waitForClients(t, hub, 1)

	hub.Shutdown()
	waitForClients(t, hub, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	assert.Error(t, err)

	assert.NoError(t, hub.Broadcast(Message{Type: "reload"}), "broadcast after shutdown is dropped")
}

func TestInjectScript(t *testing.T) {
	page := []byte("<html><body><p>x</p></BODY></html>")
	out := string(InjectScript(page))

	assert.True(t, strings.HasPrefix(out, "<html><body><p>x</p><script>"))
	assert.True(t, strings.HasSuffix(out, "</script></BODY></html>"))
	assert.Contains(t, out, `"/__livereload"`)
	assert.Equal(t, "<html><body><p>x</p></BODY></html>", string(page), "input is not modified")

	bare := string(InjectScript([]byte("<p>fragment</p>")))
	assert.True(t, strings.HasPrefix(bare, "<p>fragment</p><script>"))
}
