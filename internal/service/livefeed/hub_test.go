package livefeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"SentimentDesk/internal/domain/models"
	"SentimentDesk/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(logger.Nop(), 4)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r)
	}))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastReachesEveryClient(t *testing.T) {
	hub, url := startHub(t)
	a := dial(t, url)
	b := dial(t, url)
	waitForClients(t, hub, 2)

	ev := models.ReportEvent{Type: models.EventReportParsed, ReportID: "r1", WeekID: "2026-W04", CompositeScore: 71.5}
	require.NoError(t, hub.PublishReportEvent(context.Background(), ev))

	for _, conn := range []*websocket.Conn{a, b} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var got models.ReportEvent
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, "2026-W04", got.WeekID)
		assert.Equal(t, models.EventReportParsed, got.Type)
	}
}

func TestClientDisconnectUnregisters(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	waitForClients(t, hub, 1)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()
	waitForClients(t, hub, 0)
}

func TestSlowClientIsDropped(t *testing.T) {
	hub := NewHub(logger.Nop(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	// A client nobody drains: the second message overflows its buffer.
	c := &client{send: make(chan []byte, 1)}
	hub.register <- c
	waitForClients(t, hub, 1)

	hub.Broadcast(ctx, []byte(`{"n":1}`))
	hub.Broadcast(ctx, []byte(`{"n":2}`))
	waitForClients(t, hub, 0)

	first, ok := <-c.send
	require.True(t, ok)
	assert.JSONEq(t, `{"n":1}`, string(first))
	_, ok = <-c.send
	assert.False(t, ok)
}

func TestForwarderRelaysEvents(t *testing.T) {
	hub, url := startHub(t)
	conn := dial(t, url)
	waitForClients(t, hub, 1)

	f := NewEventForwarder("sentimentdesk.reports", hub)
	assert.Equal(t, "sentimentdesk.reports", f.Topic())

	data, _ := json.Marshal(models.ReportEvent{Type: models.EventReportEnriched, ReportID: "r1", WeekID: "2026-W04", Snapshots: 3})
	require.NoError(t, f.Handle(context.Background(), data))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got models.ReportEvent
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, 3, got.Snapshots)

	assert.Error(t, f.Handle(context.Background(), []byte(`not json`)))
	assert.Error(t, f.Handle(context.Background(), []byte(`{"type":""}`)))
}

func TestServeAfterStopFails(t *testing.T) {
	hub := NewHub(logger.Nop(), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.ErrorIs(t, hub.ServeWS(w, r), ErrHubStopped)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err == nil {
		conn.Close()
	}
	assert.Zero(t, hub.Clients())
}
