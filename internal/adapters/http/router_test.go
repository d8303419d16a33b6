package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	router "github.com/dkeye/pulse/internal/adapters/http"
	"github.com/dkeye/pulse/internal/adapters/hub"
	"github.com/dkeye/pulse/internal/app"
	"github.com/dkeye/pulse/internal/app/orch"
	"github.com/dkeye/pulse/internal/app/presence"
	"github.com/dkeye/pulse/internal/config"
	"github.com/dkeye/pulse/internal/core"
	"github.com/dkeye/pulse/internal/domain"
	"github.com/dkeye/pulse/internal/metrics"
)

type server struct {
	*httptest.Server
	wsURL string
}

func newServer(t *testing.T) *server {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := hub.New(app.DropPolicy{}, m, zerolog.Nop())
	o := orch.New(presence.NewRegistry(clock.NewMock(), zerolog.Nop()), h, m, zerolog.Nop())
	cfg := &config.Config{
		Mode:           "release",
		Secret:         "test-secret",
		PingPeriod:     5 * time.Second,
		PongWait:       10 * time.Second,
		WriteWait:      time.Second,
		AllowedOrigins: []string{"*"},
	}
	engine := router.SetupRouter(ctx, cfg, router.Deps{
		Orch:     o,
		Hub:      h,
		Gatherer: reg,
		Clock:    clock.NewMock(),
		Logger:   zerolog.Nop(),
	})

	srv := httptest.NewServer(engine)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &server{Server: srv, wsURL: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"}
}

func (s *server) dial(t *testing.T, query string, header http.Header) (*websocket.Conn, *http.Response) {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(s.wsURL+query, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, resp
}

// next reads frames until one of event arrives.
func next(t *testing.T, conn *websocket.Conn, event core.Event) core.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var env core.Envelope
		require.NoError(t, conn.ReadJSON(&env))
		if env.Type == event {
			return env
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, event core.Event, data string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(core.Envelope{Type: event, Data: json.RawMessage(data)}))
}

// flush waits until every frame sent before it on conn has been processed.
func flush(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	send(t, conn, core.EventPing, `null`)
	next(t, conn, core.EventPong)
}

func TestWebsocket_Presence_Relay_And_Disconnect(t *testing.T) {
	req := require.New(t)
	srv := newServer(t)

	// Given u1 online
	a, _ := srv.dial(t, "?userId=u1", nil)
	req.JSONEq(`["u1"]`, string(next(t, a, core.EventOnlineUsersList).Data))

	// When u2 connects
	b, _ := srv.dial(t, "?userId=u2", nil)

	// Then u1 hears it and u2 gets the roster
	req.JSONEq(`"u2"`, string(next(t, a, core.EventUserOnline).Data))
	req.JSONEq(`["u1","u2"]`, string(next(t, b, core.EventOnlineUsersList).Data))

	// And a message in a shared conversation reaches u2 only
	send(t, a, core.EventJoinConversation, `"c1"`)
	send(t, b, core.EventJoinConversation, `{"conversationId":"c1"}`)
	flush(t, a)
	flush(t, b)
	send(t, a, core.EventSendMessage, `{"conversationId":"c1","text":"hello"}`)
	req.JSONEq(`{"conversationId":"c1","text":"hello"}`, string(next(t, b, core.EventNewMessage).Data))

	// When u1 disconnects
	req.NoError(a.Close())

	// Then u2 sees u1 leave the room, then go offline
	req.JSONEq(`{"userId":"u1","room":"c1"}`, string(next(t, b, core.EventUserLeftRoom).Data))
	req.JSONEq(`"u1"`, string(next(t, b, core.EventUserOffline).Data))
}

func TestWebsocket_Malformed_Frame_Keeps_Connection(t *testing.T) {
	req := require.New(t)
	srv := newServer(t)
	a, _ := srv.dial(t, "?userId=u1", nil)

	req.NoError(a.WriteMessage(websocket.TextMessage, []byte("not json")))
	req.JSONEq(`{"message":"malformed frame"}`, string(next(t, a, core.EventError).Data))

	send(t, a, core.EventSendMessage, `{"text":"no conversation"}`)
	req.JSONEq(`{"message":"conversationId is required"}`, string(next(t, a, core.EventError).Data))

	flush(t, a)
}

func TestWebsocket_Session_Cookie_Remembers_User(t *testing.T) {
	req := require.New(t)
	srv := newServer(t)

	_, resp := srv.dial(t, "?userId=u1", nil)
	cookies := resp.Cookies()
	req.NotEmpty(cookies)

	header := http.Header{}
	for _, c := range cookies {
		header.Add("Cookie", c.Name+"="+c.Value)
	}
	b, _ := srv.dial(t, "", header)

	// the remembered id replaces the first connection's presence
	req.JSONEq(`["u1"]`, string(next(t, b, core.EventOnlineUsersList).Data))
}

func TestWebsocket_Call_To_Offline_User_Is_Silent(t *testing.T) {
	srv := newServer(t)
	a, _ := srv.dial(t, "?userId=u1", nil)
	next(t, a, core.EventOnlineUsersList)

	send(t, a, core.EventCallUser, `{"to":"ghost","from":"u1","signal":{"type":"offer","sdp":"v=0"}}`)

	// the next frame is the pong, nothing came in between
	send(t, a, core.EventPing, `null`)
	require.NoError(t, a.SetReadDeadline(time.Now().Add(3*time.Second)))
	var env core.Envelope
	require.NoError(t, a.ReadJSON(&env))
	require.Equal(t, core.EventPong, env.Type)
}

func TestHTTP_Health_Status_Presence_Metrics(t *testing.T) {
	req := require.New(t)
	srv := newServer(t)
	a, _ := srv.dial(t, "?userId=u1", nil)
	next(t, a, core.EventOnlineUsersList)

	body := get(t, srv.URL+"/healthz")
	req.JSONEq(`{"status":"ok"}`, body)

	var status router.StatusResponse
	req.NoError(json.Unmarshal([]byte(get(t, srv.URL+"/api/status")), &status))
	req.Equal(1, status.OnlineUsers)
	req.Equal(1, status.Channels)
	req.Equal(1, status.Sessions)
	req.Equal("0s", status.Uptime)

	var entries []domain.PresenceEntry
	req.NoError(json.Unmarshal([]byte(get(t, srv.URL+"/api/presence")), &entries))
	req.Len(entries, 1)
	req.Equal(domain.UserID("u1"), entries[0].UserID)
	req.Equal(domain.StatusOnline, entries[0].Status)

	req.Contains(get(t, srv.URL+"/metrics"), "pulse_online_users 1")
}

func get(t *testing.T, url string) string {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
